package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/annotator/internal/annotator/category"
)

// Styles holds the cell styles used to paint the canvas.
type Styles struct {
	Text      tcell.Style
	Selection tcell.Style
	Status    tcell.Style

	table  *category.Table
	labels map[category.ID]tcell.Style
}

// NewStyles derives label styles from the category table. Labels use the
// category fill as background and its border color for the text.
func NewStyles(table *category.Table) *Styles {
	if table == nil {
		table = category.DefaultTable()
	}
	s := &Styles{
		Text:      tcell.StyleDefault,
		Selection: tcell.StyleDefault.Reverse(true),
		Status:    tcell.StyleDefault.Reverse(true).Bold(true),
		table:     table,
		labels:    make(map[category.ID]tcell.Style),
	}
	for _, d := range table.Primary() {
		s.labels[d.ID] = labelStyle(d)
	}
	return s
}

// Label returns the style of a label overlay.
func (s *Styles) Label(id category.ID) tcell.Style {
	if st, ok := s.labels[id]; ok {
		return st
	}
	return labelStyle(s.table.LookupOrDefault(id))
}

func labelStyle(d category.Descriptor) tcell.Style {
	return tcell.StyleDefault.
		Background(convertColor(d.Fill)).
		Foreground(convertColor(d.Border.BlendLab(colorful.Color{}, 0.5).Clamped())).
		Bold(true)
}

func convertColor(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
