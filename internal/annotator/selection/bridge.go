// Package selection turns a completed text selection into a new label.
package selection

import (
	"errors"
	"fmt"

	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/draw"
	"github.com/dshills/annotator/internal/annotator/linestore"
)

// ErrInvalidSelection is returned by Apply for a selection that cannot be
// recorded on the current document.
var ErrInvalidSelection = errors.New("invalid selection")

// DefaultCategory is the category given to interactively created labels.
const DefaultCategory = category.SignSymptom

// Selection is a captured text selection. Start and End are rune offsets
// within the line; End is exclusive.
type Selection struct {
	Rect   draw.Geometry
	LineNo int
	Start  int
	End    int
}

// Line returns the zero-based line index.
func (s Selection) Line() int {
	return s.LineNo - 1
}

// Bridge converts selections into labels with a visible highlight.
type Bridge struct {
	selector draw.TextSelector
	drawer   draw.Drawer
	store    *linestore.Store
	category category.ID
}

// NewBridge creates a bridge. A zero category selects DefaultCategory.
func NewBridge(selector draw.TextSelector, drawer draw.Drawer, store *linestore.Store, cat category.ID) *Bridge {
	if cat == 0 {
		cat = DefaultCategory
	}
	return &Bridge{
		selector: selector,
		drawer:   drawer,
		store:    store,
		category: cat,
	}
}

// Category returns the category assigned to new labels.
func (b *Bridge) Category() category.ID {
	return b.category
}

// Capture reads the current selection. ok is false when nothing (or only a
// collapsed range) is selected.
func (b *Bridge) Capture() (sel Selection, ok bool, err error) {
	rect, err := b.selector.SelectionRect()
	if err != nil {
		return noSelection(err)
	}
	lineNo, err := b.selector.SelectionLineNumber()
	if err != nil {
		return noSelection(err)
	}
	start, end, err := b.selector.SelectionOffsets()
	if err != nil {
		return noSelection(err)
	}
	if end <= start {
		return Selection{}, false, nil
	}
	rect.LineNo = lineNo
	return Selection{Rect: rect, LineNo: lineNo, Start: start, End: end}, true, nil
}

func noSelection(err error) (Selection, bool, error) {
	if errors.Is(err, draw.ErrEmptySelection) {
		return Selection{}, false, nil
	}
	return Selection{}, false, fmt.Errorf("read selection: %w", err)
}

// Apply draws the highlight for sel and records its label. Either both
// happen or neither does.
func (b *Bridge) Apply(sel Selection) (linestore.Label, error) {
	if err := b.validate(sel); err != nil {
		return linestore.Label{}, err
	}

	line := sel.Line()
	id := b.store.LabelCount()
	overlay, err := b.drawer.Label(id, b.category, sel.Rect)
	if err != nil {
		return linestore.Label{}, fmt.Errorf("draw highlight: %w", err)
	}

	label, err := b.store.AppendInteractive(line, sel.Start, sel.End-1, b.category)
	if err == nil {
		err = b.store.AttachHighlight(line, overlay)
	}
	if err != nil {
		if rmErr := b.drawer.Remove(overlay); rmErr != nil {
			return linestore.Label{}, errors.Join(err, fmt.Errorf("remove highlight: %w", rmErr))
		}
		return linestore.Label{}, err
	}
	return label, nil
}

func (b *Bridge) validate(sel Selection) error {
	l := b.store.Line(sel.Line())
	if l == nil {
		return fmt.Errorf("%w: line %d of %d", ErrInvalidSelection, sel.LineNo, b.store.Len())
	}
	if sel.Start < 0 || sel.End <= sel.Start || sel.End > l.RuneLen() {
		return fmt.Errorf("%w: range [%d,%d) on line %d of length %d",
			ErrInvalidSelection, sel.Start, sel.End, sel.LineNo, l.RuneLen())
	}
	return nil
}
