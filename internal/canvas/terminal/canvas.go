// Package terminal implements the annotator drawing and selection
// capabilities on a tcell screen.
//
// Canvas units are terminal cells: a text line is one cell high and each
// character is as wide as its display width. The canvas keeps a display
// list and repaints it onto the screen on Show, scrolled by the viewport
// offset. Mouse drags select text within a single line.
package terminal

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rivo/uniseg"

	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/draw"
)

// Errors returned by the canvas.
var (
	// ErrUnknownNode is returned for a node that is not on this canvas.
	ErrUnknownNode = errors.New("terminal: unknown node")

	// ErrOffsetOutOfRange is returned by CharacterExtent for a bad offset.
	ErrOffsetOutOfRange = errors.New("terminal: offset out of range")
)

// TextNode is a line of text on the canvas.
type TextNode struct {
	id      string
	LineNo  int
	Content string
	Left    int
	Top     int

	runes  []rune
	widths []int
	width  int
}

// ID implements draw.Node.
func (n *TextNode) ID() string { return n.id }

// ClientWidth implements draw.TextNode.
func (n *TextNode) ClientWidth() float64 { return float64(n.width) }

// ClientHeight implements draw.TextNode.
func (n *TextNode) ClientHeight() float64 { return 1 }

// Visible returns the number of runes before the line terminator.
func (n *TextNode) Visible() int {
	return len(n.widths)
}

// LabelNode is a label overlay on the canvas.
type LabelNode struct {
	id       string
	LabelID  int
	Category category.ID
	Geometry draw.Geometry
}

// ID implements draw.Node.
func (n *LabelNode) ID() string { return n.id }

// Canvas is a draw.Drawer and draw.TextSelector over a tcell screen.
type Canvas struct {
	mu     sync.Mutex
	screen tcell.Screen
	styles *Styles

	texts  []*TextNode
	byID   map[string]*TextNode
	byRow  map[int]*TextNode
	labels []*LabelNode

	width, height int
	scrollX       int
	scrollY       int
	status        string

	sel selection
}

// New creates a canvas drawing on screen. The screen must already be
// initialized. A nil table selects the default categories.
func New(screen tcell.Screen, table *category.Table) *Canvas {
	return &Canvas{
		screen: screen,
		styles: NewStyles(table),
		byID:   make(map[string]*TextNode),
		byRow:  make(map[int]*TextNode),
	}
}

// Screen returns the underlying screen.
func (c *Canvas) Screen() tcell.Screen {
	return c.screen
}

// Clear implements draw.Drawer.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.texts = nil
	c.labels = nil
	clear(c.byID)
	clear(c.byRow)
	c.sel = selection{}
	c.scrollX, c.scrollY = 0, 0
}

// TextLine implements draw.Drawer. Positions are rounded to whole cells.
func (c *Canvas) TextLine(lineNo int, content string, left, top float64) (draw.TextNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	runes := []rune(content)
	vis := len([]rune(strings.TrimRight(content, "\r\n")))
	n := &TextNode{
		id:      uuid.NewString(),
		LineNo:  lineNo,
		Content: content,
		Left:    int(left),
		Top:     int(top),
		runes:   runes,
		widths:  make([]int, vis),
	}
	for i, r := range runes[:vis] {
		w := uniseg.StringWidth(string(r))
		n.widths[i] = w
		n.width += w
	}
	c.texts = append(c.texts, n)
	c.byID[n.id] = n
	c.byRow[n.Top] = n
	return n, nil
}

// Label implements draw.Drawer.
func (c *Canvas) Label(id int, cat category.ID, g draw.Geometry) (draw.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := &LabelNode{id: uuid.NewString(), LabelID: id, Category: cat, Geometry: g}
	c.labels = append(c.labels, n)
	return n, nil
}

// CharacterExtent implements draw.Drawer.
func (c *Canvas) CharacterExtent(node draw.TextNode, offset int) (draw.Rect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tn, err := c.text(node)
	if err != nil {
		return draw.Rect{}, err
	}
	return extent(tn, offset)
}

func (c *Canvas) text(node draw.TextNode) (*TextNode, error) {
	tn, ok := node.(*TextNode)
	if !ok || c.byID[tn.id] != tn {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, node.ID())
	}
	return tn, nil
}

func extent(tn *TextNode, offset int) (draw.Rect, error) {
	if offset < 0 || offset >= len(tn.runes) {
		return draw.Rect{}, fmt.Errorf("%w: %d not in [0,%d)", ErrOffsetOutOfRange, offset, len(tn.runes))
	}
	x := tn.Left
	for _, w := range tn.widths[:min(offset, len(tn.widths))] {
		x += w
	}
	var w int
	if offset < len(tn.widths) {
		w = tn.widths[offset]
	}
	return draw.Rect{X: float64(x), Y: float64(tn.Top), Width: float64(w), Height: 1}, nil
}

// Resize implements draw.Drawer.
func (c *Canvas) Resize(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.width, c.height = int(width), int(height)
}

// Remove implements draw.Drawer.
func (c *Canvas) Remove(node draw.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, l := range c.labels {
		if l.id == node.ID() {
			c.labels = append(c.labels[:i], c.labels[i+1:]...)
			return nil
		}
	}
	for i, t := range c.texts {
		if t.id == node.ID() {
			c.texts = append(c.texts[:i], c.texts[i+1:]...)
			delete(c.byID, t.id)
			delete(c.byRow, t.Top)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownNode, node.ID())
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.width, c.height
}

// Labels returns the label overlays in drawing order.
func (c *Canvas) Labels() []*LabelNode {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*LabelNode(nil), c.labels...)
}

// SetStatus sets the text of the status line.
func (c *Canvas) SetStatus(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = msg
}

// Scroll moves the viewport by (dx, dy) cells, clamped to the canvas.
func (c *Canvas) Scroll(dx, dy int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sw, sh := c.screen.Size()
	c.scrollX = clamp(c.scrollX+dx, 0, max(c.width-sw, 0))
	c.scrollY = clamp(c.scrollY+dy, 0, max(c.height-(sh-1), 0))
}

// Offset returns the viewport scroll offset.
func (c *Canvas) Offset() (x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.scrollX, c.scrollY
}

// Show repaints the display list and flushes the screen. The last screen
// row is the status line.
func (c *Canvas) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.screen.Clear()
	sw, sh := c.screen.Size()
	body := sh - 1

	for _, t := range c.texts {
		row := t.Top - c.scrollY
		if row < 0 || row >= body {
			continue
		}
		x := t.Left - c.scrollX
		for i, w := range t.widths {
			if x >= 0 && x < sw {
				c.screen.SetContent(x, row, t.runes[i], nil, c.styles.Text)
			}
			x += w
		}
	}

	for _, l := range c.labels {
		c.paint(l.Geometry, c.styles.Label(l.Category), body, sw)
	}
	if g, ok := c.selectionGeometry(); ok {
		c.paint(g, c.styles.Selection, body, sw)
	}

	for i, r := range []rune(c.status) {
		if i >= sw {
			break
		}
		c.screen.SetContent(i, sh-1, r, nil, c.styles.Status)
	}
	c.screen.Show()
}

// paint restyles the characters of the line under g.
func (c *Canvas) paint(g draw.Geometry, style tcell.Style, body, sw int) {
	t := c.byRow[int(g.Top)]
	if t == nil {
		return
	}
	row := t.Top - c.scrollY
	if row < 0 || row >= body {
		return
	}
	left, right := int(g.Left), int(g.Left+g.Width)
	x := t.Left
	for i, w := range t.widths {
		if x >= left && x < right {
			if sx := x - c.scrollX; sx >= 0 && sx < sw {
				c.screen.SetContent(sx, row, t.runes[i], nil, style)
			}
		}
		x += w
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
