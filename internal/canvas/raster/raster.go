// Package raster implements the annotator drawing capability on an
// in-memory display list that is rasterized to PNG with fogleman/gg.
//
// Text is measured with a TrueType face (Go Regular by default), so
// character extents and line widths match what ends up in the image.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/draw"
)

// Errors returned by the canvas.
var (
	// ErrUnknownNode is returned for a node that is not on this canvas.
	ErrUnknownNode = errors.New("raster: unknown node")

	// ErrOffsetOutOfRange is returned by CharacterExtent for a bad offset.
	ErrOffsetOutOfRange = errors.New("raster: offset out of range")
)

// Options configures a Canvas.
type Options struct {
	// Width and Height are the initial canvas size in pixels.
	Width, Height float64

	// FontSize is in points; DPI is the output resolution.
	FontSize float64
	DPI      float64

	// Font is a TrueType font. Nil selects Go Regular.
	Font []byte

	Background color.Color
	Foreground color.Color

	// Categories colors label overlays. Nil selects the default table.
	Categories *category.Table
}

// DefaultOptions returns a 500x500 canvas with 14pt black-on-white text.
func DefaultOptions() Options {
	return Options{
		Width:      500,
		Height:     500,
		FontSize:   14,
		DPI:        72,
		Background: color.White,
		Foreground: color.Black,
	}
}

// ColorFromHex parses a hex color for Options.
func ColorFromHex(s string) (color.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Canvas is a draw.Drawer backed by a display list.
// It is not safe for concurrent use.
type Canvas struct {
	opts   Options
	face   font.Face
	ascent float64
	lineH  float64

	width, height float64
	texts         []*TextNode
	textIDs       map[string]*TextNode
	labels        []*LabelNode
}

// New creates a canvas.
func New(opts Options) (*Canvas, error) {
	def := DefaultOptions()
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	if opts.Foreground == nil {
		opts.Foreground = def.Foreground
	}
	if opts.Categories == nil {
		opts.Categories = category.DefaultTable()
	}
	data := opts.Font
	if data == nil {
		data = goregular.TTF
	}

	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("raster: parse font: %w", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    opts.FontSize,
		DPI:     opts.DPI,
		Hinting: font.HintingFull,
	})
	m := face.Metrics()

	return &Canvas{
		opts:    opts,
		face:    face,
		ascent:  fixedToFloat(m.Ascent),
		lineH:   fixedToFloat(m.Height),
		width:   opts.Width,
		height:  opts.Height,
		textIDs: make(map[string]*TextNode),
	}, nil
}

// TextNode is a line of text on the canvas.
type TextNode struct {
	id      string
	LineNo  int
	Content string
	Left    float64
	Top     float64
	width   float64
	height  float64
}

// ID implements draw.Node.
func (n *TextNode) ID() string { return n.id }

// ClientWidth implements draw.TextNode.
func (n *TextNode) ClientWidth() float64 { return n.width }

// ClientHeight implements draw.TextNode.
func (n *TextNode) ClientHeight() float64 { return n.height }

// LabelNode is a label overlay on the canvas.
type LabelNode struct {
	id       string
	LabelID  int
	Category category.ID
	Geometry draw.Geometry
}

// ID implements draw.Node.
func (n *LabelNode) ID() string { return n.id }

// Clear implements draw.Drawer.
func (c *Canvas) Clear() {
	c.texts = nil
	c.labels = nil
	clear(c.textIDs)
}

// TextLine implements draw.Drawer. Line terminators are kept in the node
// but take no space.
func (c *Canvas) TextLine(lineNo int, content string, left, top float64) (draw.TextNode, error) {
	n := &TextNode{
		id:      uuid.NewString(),
		LineNo:  lineNo,
		Content: content,
		Left:    left,
		Top:     top,
		width:   c.measure(visible(content)),
		height:  c.lineH,
	}
	c.texts = append(c.texts, n)
	c.textIDs[n.id] = n
	return n, nil
}

// Label implements draw.Drawer.
func (c *Canvas) Label(id int, cat category.ID, g draw.Geometry) (draw.Node, error) {
	n := &LabelNode{id: uuid.NewString(), LabelID: id, Category: cat, Geometry: g}
	c.labels = append(c.labels, n)
	return n, nil
}

// CharacterExtent implements draw.Drawer.
func (c *Canvas) CharacterExtent(node draw.TextNode, offset int) (draw.Rect, error) {
	tn, ok := node.(*TextNode)
	if !ok || c.textIDs[tn.id] != tn {
		return draw.Rect{}, fmt.Errorf("%w: %s", ErrUnknownNode, node.ID())
	}
	runes := []rune(tn.Content)
	if offset < 0 || offset >= len(runes) {
		return draw.Rect{}, fmt.Errorf("%w: %d not in [0,%d)", ErrOffsetOutOfRange, offset, len(runes))
	}
	vis := utf8.RuneCountInString(visible(tn.Content))
	x := c.measure(string(runes[:min(offset, vis)]))
	var w float64
	if offset < vis {
		w = c.measure(string(runes[:offset+1])) - x
	}
	return draw.Rect{X: tn.Left + x, Y: tn.Top, Width: w, Height: tn.height}, nil
}

// Resize implements draw.Drawer.
func (c *Canvas) Resize(width, height float64) {
	c.width, c.height = width, height
}

// Remove implements draw.Drawer.
func (c *Canvas) Remove(node draw.Node) error {
	for i, l := range c.labels {
		if l.id == node.ID() {
			c.labels = append(c.labels[:i], c.labels[i+1:]...)
			return nil
		}
	}
	for i, t := range c.texts {
		if t.id == node.ID() {
			c.texts = append(c.texts[:i], c.texts[i+1:]...)
			delete(c.textIDs, t.id)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownNode, node.ID())
}

// Size returns the canvas size.
func (c *Canvas) Size() (width, height float64) {
	return c.width, c.height
}

// LineHeight returns the height of a text line.
func (c *Canvas) LineHeight() float64 {
	return c.lineH
}

// Texts returns the text nodes in drawing order.
func (c *Canvas) Texts() []*TextNode {
	return append([]*TextNode(nil), c.texts...)
}

// Labels returns the label overlays in drawing order.
func (c *Canvas) Labels() []*LabelNode {
	return append([]*LabelNode(nil), c.labels...)
}

// Render rasterizes the display list. Overlays are painted beneath the
// text they mark.
func (c *Canvas) Render() image.Image {
	w := int(math.Ceil(c.width))
	h := int(math.Ceil(c.height))
	dc := gg.NewContext(max(w, 1), max(h, 1))
	dc.SetColor(c.opts.Background)
	dc.Clear()

	dc.SetLineWidth(1)
	for _, l := range c.labels {
		d := c.opts.Categories.LookupOrDefault(l.Category)
		g := l.Geometry
		dc.DrawRectangle(g.Left, g.Top, g.Width, g.Height)
		dc.SetColor(d.HighlightRGBA())
		dc.Fill()
		dc.DrawRectangle(g.Left, g.Top, g.Width, g.Height)
		dc.SetColor(d.BorderRGBA())
		dc.Stroke()
	}

	dc.SetFontFace(c.face)
	dc.SetColor(c.opts.Foreground)
	for _, t := range c.texts {
		dc.DrawString(visible(t.Content), t.Left, t.Top+c.ascent)
	}
	return dc.Image()
}

// EncodePNG writes the rendered canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	dc := gg.NewContextForImage(c.Render())
	return dc.EncodePNG(w)
}

// SavePNG writes the rendered canvas to a PNG file.
func (c *Canvas) SavePNG(path string) error {
	dc := gg.NewContextForImage(c.Render())
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("raster: save %s: %w", path, err)
	}
	return nil
}

func (c *Canvas) measure(s string) float64 {
	return fixedToFloat(font.MeasureString(c.face, s))
}

func visible(s string) string {
	return strings.TrimRight(s, "\r\n")
}
