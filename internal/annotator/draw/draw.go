// Package draw defines the drawing and text-selection capabilities consumed
// by the annotator. Concrete implementations live in internal/canvas.
package draw

import (
	"errors"

	"github.com/dshills/annotator/internal/annotator/category"
)

// ErrEmptySelection is returned by a TextSelector when nothing is selected.
var ErrEmptySelection = errors.New("no active selection")

// Rect is an axis-aligned rectangle in canvas units.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Right returns the right edge of the rectangle.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Geometry places a label overlay on a line.
type Geometry struct {
	// LineNo is the 1-based line number the overlay belongs to.
	LineNo int
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Rect returns the geometry as a Rect.
func (g Geometry) Rect() Rect {
	return Rect{X: g.Left, Y: g.Top, Width: g.Width, Height: g.Height}
}

// Node is an opaque handle to something drawn on the canvas.
type Node interface {
	// ID returns a handle identifier unique within the canvas.
	ID() string
}

// TextNode is a handle to a rendered line of text.
type TextNode interface {
	Node

	// ClientWidth returns the rendered width of the text.
	ClientWidth() float64

	// ClientHeight returns the rendered height of the text.
	ClientHeight() float64
}

// Drawer is the vector drawing capability.
type Drawer interface {
	// Clear removes everything drawn so far.
	Clear()

	// TextLine draws one line of text with its top-left corner at (left, top).
	// lineNo is 1-based.
	TextLine(lineNo int, content string, left, top float64) (TextNode, error)

	// Label draws a label overlay.
	Label(id int, cat category.ID, g Geometry) (Node, error)

	// CharacterExtent returns the box of the character at the given rune
	// offset within a text node.
	CharacterExtent(node TextNode, offset int) (Rect, error)

	// Resize sets the canvas size.
	Resize(width, height float64)

	// Remove deletes a previously drawn node.
	Remove(node Node) error
}

// TextSelector exposes the host's current text selection.
// Each method returns ErrEmptySelection when nothing is selected.
type TextSelector interface {
	// SelectionRect returns the selection's bounding box.
	SelectionRect() (Geometry, error)

	// SelectionLineNumber returns the 1-based line the selection lies in.
	SelectionLineNumber() (int, error)

	// SelectionOffsets returns the selection's rune offsets within the line.
	// end is exclusive.
	SelectionOffsets() (start, end int, err error)
}
