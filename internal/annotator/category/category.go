// Package category defines the fixed label categories and their display styling.
package category

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ID identifies a label category.
type ID int

// Primary categories.
const (
	Diagnosis   ID = 1
	SignSymptom ID = 2
	Assessment  ID = 3
	Treatment   ID = 4
)

// IsDuration is the only entry of the secondary (cross-cutting) table.
const IsDuration ID = 1

// HighlightAlpha is the opacity applied to highlight colors.
const HighlightAlpha = 0.4

// String returns the category name.
func (id ID) String() string {
	switch id {
	case Diagnosis:
		return "diagnosis"
	case SignSymptom:
		return "sign&symptom"
	case Assessment:
		return "assessment"
	case Treatment:
		return "treatment"
	default:
		return fmt.Sprintf("category(%d)", int(id))
	}
}

// IsPrimary reports whether id is one of the four fixed categories.
func (id ID) IsPrimary() bool {
	return id >= Diagnosis && id <= Treatment
}

// Descriptor holds the display properties of a category.
type Descriptor struct {
	ID        ID
	Name      string
	Text      string
	Fill      colorful.Color
	Border    colorful.Color
	Highlight colorful.Color
}

// FillRGBA returns the opaque fill color.
func (d Descriptor) FillRGBA() color.NRGBA {
	return toNRGBA(d.Fill, 1)
}

// BorderRGBA returns the opaque border color.
func (d Descriptor) BorderRGBA() color.NRGBA {
	return toNRGBA(d.Border, 1)
}

// HighlightRGBA returns the highlight color with HighlightAlpha applied.
func (d Descriptor) HighlightRGBA() color.NRGBA {
	return toNRGBA(d.Highlight, HighlightAlpha)
}

func toNRGBA(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}

// Secondary is an entry of the secondary category table.
type Secondary struct {
	ID   ID
	Text string
}

// Table is the read-only category lookup table.
type Table struct {
	primary   []Descriptor
	secondary []Secondary
}

// DefaultTable returns the built-in categories.
func DefaultTable() *Table {
	return &Table{
		primary: []Descriptor{
			{ID: Diagnosis, Name: Diagnosis.String(), Text: "诊断",
				Fill: hex("#fad689"), Border: hex("#d9ab42"), Highlight: hex("#ffc408")},
			{ID: SignSymptom, Name: SignSymptom.String(), Text: "症状",
				Fill: hex("#90ee90"), Border: hex("#148414"), Highlight: hex("#76ec7f")},
			{ID: Assessment, Name: Assessment.String(), Text: "评估",
				Fill: hex("#a5dee4"), Border: hex("#78c2c4"), Highlight: hex("#78c2c4")},
			{ID: Treatment, Name: Treatment.String(), Text: "治疗",
				Fill: hex("#eb7a77"), Border: hex("#db4d6d"), Highlight: hex("#db4d6d")},
		},
		secondary: []Secondary{
			{ID: IsDuration, Text: "is_duration"},
		},
	}
}

// Override replaces colors or display text of a primary category.
// Empty strings leave the current value untouched.
type Override struct {
	ID        ID
	Text      string
	Fill      string
	Border    string
	Highlight string
}

// WithOverrides returns a copy of t with the overrides applied.
func (t *Table) WithOverrides(overrides []Override) (*Table, error) {
	out := &Table{
		primary:   append([]Descriptor(nil), t.primary...),
		secondary: append([]Secondary(nil), t.secondary...),
	}
	for _, o := range overrides {
		idx := out.index(o.ID)
		if idx < 0 {
			return nil, fmt.Errorf("override for unknown category %d", int(o.ID))
		}
		d := &out.primary[idx]
		if o.Text != "" {
			d.Text = o.Text
		}
		for _, f := range []struct {
			value string
			dst   *colorful.Color
		}{
			{o.Fill, &d.Fill},
			{o.Border, &d.Border},
			{o.Highlight, &d.Highlight},
		} {
			if f.value == "" {
				continue
			}
			c, err := colorful.Hex(f.value)
			if err != nil {
				return nil, fmt.Errorf("category %d: color %q: %w", int(o.ID), f.value, err)
			}
			*f.dst = c
		}
	}
	return out, nil
}

// Lookup returns the descriptor for id.
func (t *Table) Lookup(id ID) (Descriptor, bool) {
	idx := t.index(id)
	if idx < 0 {
		return Descriptor{}, false
	}
	return t.primary[idx], true
}

// LookupOrDefault returns the descriptor for id, falling back to the
// first primary category for unknown ids.
func (t *Table) LookupOrDefault(id ID) Descriptor {
	if d, ok := t.Lookup(id); ok {
		return d
	}
	d := t.primary[0]
	d.ID = id
	d.Name = id.String()
	return d
}

// Primary returns the primary categories in table order.
func (t *Table) Primary() []Descriptor {
	return append([]Descriptor(nil), t.primary...)
}

// Secondary returns the secondary categories in table order.
func (t *Table) Secondary() []Secondary {
	return append([]Secondary(nil), t.secondary...)
}

func (t *Table) index(id ID) int {
	for i, d := range t.primary {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("category: bad built-in color %q", s))
	}
	return c
}
