package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/annotator/internal/annotator/draw"
)

// selection tracks a mouse drag in canvas coordinates. The selection is
// confined to the line under the anchor.
type selection struct {
	active   bool
	dragging bool
	line     *TextNode
	anchor   int
	head     int
}

// MouseAction reports what a mouse event did.
type MouseAction uint8

const (
	// MouseIgnored means the event changed nothing.
	MouseIgnored MouseAction = iota
	// MouseSelecting means a drag started or moved.
	MouseSelecting
	// MouseSelected means a drag ended; a selection may be available.
	MouseSelected
	// MouseScrolled means the viewport moved.
	MouseScrolled
)

// HandleMouse updates the selection or viewport from a mouse event.
func (c *Canvas) HandleMouse(ev *tcell.EventMouse) MouseAction {
	x, y := ev.Position()
	buttons := ev.Buttons()

	switch {
	case buttons&tcell.WheelUp != 0:
		c.Scroll(0, -1)
		return MouseScrolled
	case buttons&tcell.WheelDown != 0:
		c.Scroll(0, 1)
		return MouseScrolled
	case buttons&tcell.WheelLeft != 0:
		c.Scroll(-1, 0)
		return MouseScrolled
	case buttons&tcell.WheelRight != 0:
		c.Scroll(1, 0)
		return MouseScrolled
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cx, cy := x+c.scrollX, y+c.scrollY
	if buttons&tcell.Button1 != 0 {
		if !c.sel.dragging {
			line := c.byRow[cy]
			c.sel = selection{dragging: true, line: line, anchor: cx, head: cx}
			return MouseSelecting
		}
		c.sel.head = cx
		return MouseSelecting
	}

	if c.sel.dragging {
		c.sel.dragging = false
		c.sel.active = c.sel.line != nil && c.sel.anchor != c.sel.head
		return MouseSelected
	}
	return MouseIgnored
}

// ClearSelection drops the current selection.
func (c *Canvas) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sel = selection{}
}

// Select sets the selection to the runes [start, end) of a 1-based line.
func (c *Canvas) Select(lineNo, start, end int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.texts {
		if t.LineNo != lineNo {
			continue
		}
		if start < 0 || end <= start || end > t.Visible() {
			return false
		}
		first, _ := extent(t, start)
		last, _ := extent(t, end-1)
		c.sel = selection{active: true, line: t, anchor: int(first.X), head: int(last.X)}
		return true
	}
	return false
}

// SelectionRect implements draw.TextSelector.
func (c *Canvas) SelectionRect() (draw.Geometry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.selectionGeometry()
	if !ok {
		return draw.Geometry{}, draw.ErrEmptySelection
	}
	return g, nil
}

// SelectionLineNumber implements draw.TextSelector.
func (c *Canvas) SelectionLineNumber() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, _, ok := c.selectionOffsets(); !ok {
		return 0, draw.ErrEmptySelection
	}
	return c.sel.line.LineNo, nil
}

// SelectionOffsets implements draw.TextSelector.
func (c *Canvas) SelectionOffsets() (start, end int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start, end, ok := c.selectionOffsets()
	if !ok {
		return 0, 0, draw.ErrEmptySelection
	}
	return start, end, nil
}

// selectionOffsets returns the selected runes [start, end). Both the
// anchor and head cells are included.
func (c *Canvas) selectionOffsets() (start, end int, ok bool) {
	s := c.sel
	if !(s.active || s.dragging) || s.line == nil || c.byID[s.line.id] != s.line {
		return 0, 0, false
	}
	lo, hi := min(s.anchor, s.head), max(s.anchor, s.head)
	start = hitTest(s.line, lo)
	end = min(hitTest(s.line, hi)+1, s.line.Visible())
	if end <= start {
		return 0, 0, false
	}
	return start, end, true
}

func (c *Canvas) selectionGeometry() (draw.Geometry, bool) {
	start, end, ok := c.selectionOffsets()
	if !ok {
		return draw.Geometry{}, false
	}
	first, _ := extent(c.sel.line, start)
	last, _ := extent(c.sel.line, end-1)
	return draw.Geometry{
		LineNo: c.sel.line.LineNo,
		Left:   first.X,
		Top:    first.Y,
		Width:  last.Right() - first.X,
		Height: 1,
	}, true
}

// hitTest returns the rune under column x, clamped to the visible runes.
func hitTest(t *TextNode, x int) int {
	if x <= t.Left {
		return 0
	}
	col := t.Left
	for i, w := range t.widths {
		if x < col+w {
			return i
		}
		col += w
	}
	return t.Visible()
}
