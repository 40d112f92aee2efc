// Package drawtest provides recording implementations of the draw
// capabilities for tests.
package drawtest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/draw"
)

// Node is a recorded overlay handle.
type Node struct {
	NodeID   string
	LabelID  int
	Category category.ID
	Geometry draw.Geometry
}

// ID implements draw.Node.
func (n *Node) ID() string { return n.NodeID }

// TextNode is a recorded text line. Every visible rune is CharWidth wide;
// line terminators have zero width.
type TextNode struct {
	NodeID  string
	LineNo  int
	Content string
	Left    float64
	Top     float64
	Width   float64
	Height  float64

	charWidth float64
}

// ID implements draw.Node.
func (n *TextNode) ID() string { return n.NodeID }

// ClientWidth implements draw.TextNode.
func (n *TextNode) ClientWidth() float64 { return n.Width }

// ClientHeight implements draw.TextNode.
func (n *TextNode) ClientHeight() float64 { return n.Height }

// Size is a recorded Resize call.
type Size struct {
	Width, Height float64
}

// Recorder is a draw.Drawer that records every call.
type Recorder struct {
	CharWidth  float64
	LineHeight float64

	Texts   []*TextNode
	Labels  []*Node
	Resizes []Size
	Removed []string
	Clears  int

	// FailText makes TextLine fail for the given 1-based line numbers.
	FailText map[int]error
	// FailLabel makes every Label call fail.
	FailLabel error

	nextID int
}

// NewRecorder creates a recorder with 8x16 character cells.
func NewRecorder() *Recorder {
	return &Recorder{CharWidth: 8, LineHeight: 16}
}

func (r *Recorder) id(kind string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", kind, r.nextID)
}

// Clear implements draw.Drawer.
func (r *Recorder) Clear() {
	r.Clears++
	r.Texts = nil
	r.Labels = nil
}

// TextLine implements draw.Drawer.
func (r *Recorder) TextLine(lineNo int, content string, left, top float64) (draw.TextNode, error) {
	if err := r.FailText[lineNo]; err != nil {
		return nil, err
	}
	visible := utf8.RuneCountInString(strings.TrimRight(content, "\r\n"))
	n := &TextNode{
		NodeID:    r.id("text"),
		LineNo:    lineNo,
		Content:   content,
		Left:      left,
		Top:       top,
		Width:     float64(visible) * r.CharWidth,
		Height:    r.LineHeight,
		charWidth: r.CharWidth,
	}
	r.Texts = append(r.Texts, n)
	return n, nil
}

// Label implements draw.Drawer.
func (r *Recorder) Label(id int, cat category.ID, g draw.Geometry) (draw.Node, error) {
	if r.FailLabel != nil {
		return nil, r.FailLabel
	}
	n := &Node{NodeID: r.id("label"), LabelID: id, Category: cat, Geometry: g}
	r.Labels = append(r.Labels, n)
	return n, nil
}

// CharacterExtent implements draw.Drawer.
func (r *Recorder) CharacterExtent(node draw.TextNode, offset int) (draw.Rect, error) {
	tn, ok := node.(*TextNode)
	if !ok {
		return draw.Rect{}, fmt.Errorf("drawtest: foreign node %T", node)
	}
	total := utf8.RuneCountInString(tn.Content)
	if offset < 0 || offset >= total {
		return draw.Rect{}, fmt.Errorf("drawtest: offset %d outside line of %d runes", offset, total)
	}
	visible := utf8.RuneCountInString(strings.TrimRight(tn.Content, "\r\n"))
	w := tn.charWidth
	if offset >= visible {
		w = 0
	}
	x := tn.Left + float64(min(offset, visible))*tn.charWidth
	return draw.Rect{X: x, Y: tn.Top, Width: w, Height: tn.Height}, nil
}

// Resize implements draw.Drawer.
func (r *Recorder) Resize(width, height float64) {
	r.Resizes = append(r.Resizes, Size{Width: width, Height: height})
}

// Remove implements draw.Drawer.
func (r *Recorder) Remove(node draw.Node) error {
	for i, l := range r.Labels {
		if l.ID() == node.ID() {
			r.Labels = append(r.Labels[:i], r.Labels[i+1:]...)
			r.Removed = append(r.Removed, node.ID())
			return nil
		}
	}
	return fmt.Errorf("drawtest: unknown node %s", node.ID())
}

// LastSize returns the most recent Resize, if any.
func (r *Recorder) LastSize() (Size, bool) {
	if len(r.Resizes) == 0 {
		return Size{}, false
	}
	return r.Resizes[len(r.Resizes)-1], true
}

// Selector is a scripted draw.TextSelector.
type Selector struct {
	Empty  bool
	Rect   draw.Geometry
	LineNo int
	Start  int
	End    int
	// Err, if set, is returned by every method.
	Err error
}

// SelectionRect implements draw.TextSelector.
func (s *Selector) SelectionRect() (draw.Geometry, error) {
	if err := s.err(); err != nil {
		return draw.Geometry{}, err
	}
	return s.Rect, nil
}

// SelectionLineNumber implements draw.TextSelector.
func (s *Selector) SelectionLineNumber() (int, error) {
	if err := s.err(); err != nil {
		return 0, err
	}
	return s.LineNo, nil
}

// SelectionOffsets implements draw.TextSelector.
func (s *Selector) SelectionOffsets() (int, int, error) {
	if err := s.err(); err != nil {
		return 0, 0, err
	}
	return s.Start, s.End, nil
}

func (s *Selector) err() error {
	if s.Err != nil {
		return s.Err
	}
	if s.Empty {
		return draw.ErrEmptySelection
	}
	return nil
}
