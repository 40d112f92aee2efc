package raster

import (
	"bytes"
	"errors"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/dshills/annotator/internal/annotator"
	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/draw"
)

func newCanvas(t *testing.T) *Canvas {
	t.Helper()
	c, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNewDefaults(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if w, h := c.Size(); w != 500 || h != 500 {
		t.Errorf("Size() = %vx%v, want 500x500", w, h)
	}
	if c.LineHeight() <= 0 {
		t.Errorf("LineHeight() = %v, want positive", c.LineHeight())
	}
}

func TestNewBadFont(t *testing.T) {
	if _, err := New(Options{Font: []byte("not a font")}); err == nil {
		t.Error("New should fail on an invalid font")
	}
}

func TestTextLineMeasures(t *testing.T) {
	c := newCanvas(t)

	short, _ := c.TextLine(1, "ab\n", 30, 0)
	long, _ := c.TextLine(2, "abcdef\n", 30, 20)
	bare, _ := c.TextLine(3, "abcdef", 30, 40)

	if short.ClientWidth() <= 0 || long.ClientWidth() <= short.ClientWidth() {
		t.Errorf("widths short=%v long=%v", short.ClientWidth(), long.ClientWidth())
	}
	if bare.ClientWidth() != long.ClientWidth() {
		t.Errorf("terminator changed width: %v vs %v", bare.ClientWidth(), long.ClientWidth())
	}
	if long.ClientHeight() != c.LineHeight() {
		t.Errorf("ClientHeight() = %v, want %v", long.ClientHeight(), c.LineHeight())
	}
}

func TestCharacterExtent(t *testing.T) {
	c := newCanvas(t)
	node, _ := c.TextLine(1, "Hi 你好。\n", 30, 12)

	prevRight := 30.0
	for off := 0; off < 6; off++ {
		r, err := c.CharacterExtent(node, off)
		if err != nil {
			t.Fatalf("CharacterExtent(%d) error: %v", off, err)
		}
		if r.X != prevRight {
			t.Errorf("offset %d starts at %v, want %v", off, r.X, prevRight)
		}
		if r.Width <= 0 {
			t.Errorf("offset %d has width %v", off, r.Width)
		}
		if r.Y != 12 {
			t.Errorf("offset %d top = %v, want 12", off, r.Y)
		}
		prevRight = r.Right()
	}

	nl, err := c.CharacterExtent(node, 6)
	if err != nil {
		t.Fatal(err)
	}
	if nl.Width != 0 || nl.X != prevRight {
		t.Errorf("terminator extent = %+v, want zero width at %v", nl, prevRight)
	}
	if prevRight-30 != node.ClientWidth() {
		t.Errorf("sum of extents %v != ClientWidth %v", prevRight-30, node.ClientWidth())
	}
}

func TestCharacterExtentErrors(t *testing.T) {
	c := newCanvas(t)
	node, _ := c.TextLine(1, "abc", 0, 0)

	for _, off := range []int{-1, 3, 10} {
		if _, err := c.CharacterExtent(node, off); !errors.Is(err, ErrOffsetOutOfRange) {
			t.Errorf("CharacterExtent(%d) error = %v, want ErrOffsetOutOfRange", off, err)
		}
	}

	c.Clear()
	if _, err := c.CharacterExtent(node, 0); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("cleared node error = %v, want ErrUnknownNode", err)
	}
}

func TestLabelAndRemove(t *testing.T) {
	c := newCanvas(t)
	n, err := c.Label(3, category.Treatment, draw.Geometry{LineNo: 1, Left: 1, Top: 2, Width: 3, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	other, _ := c.Label(4, category.Diagnosis, draw.Geometry{LineNo: 1})
	if n.ID() == other.ID() {
		t.Error("node IDs must be unique")
	}

	if got := c.Labels(); len(got) != 2 || got[0].LabelID != 3 || got[0].Category != category.Treatment {
		t.Errorf("Labels() = %+v", got)
	}
	if err := c.Remove(n); err != nil {
		t.Fatal(err)
	}
	if err := c.Remove(n); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("second Remove error = %v, want ErrUnknownNode", err)
	}
	if got := c.Labels(); len(got) != 1 || got[0].LabelID != 4 {
		t.Errorf("Labels() after remove = %+v", got)
	}
}

func TestRenderSizeAndHighlight(t *testing.T) {
	opts := DefaultOptions()
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	c.Resize(120, 40)
	if _, err := c.Label(0, category.Treatment, draw.Geometry{Left: 10, Top: 10, Width: 20, Height: 20}); err != nil {
		t.Fatal(err)
	}

	img := c.Render()
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 40 {
		t.Fatalf("image is %dx%d, want 120x40", b.Dx(), b.Dy())
	}
	r, g, b, _ := img.At(20, 20).RGBA()
	if r == 0xffff && g == 0xffff && b == 0xffff {
		t.Error("label area should be tinted")
	}
	r, g, b, _ = img.At(100, 35).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Error("area outside the label should be background")
	}
}

func TestEncodeAndSavePNG(t *testing.T) {
	c := newCanvas(t)
	c.Resize(64, 32)
	if _, err := c.TextLine(1, "x\n", 2, 2); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("decoded %dx%d, want 64x32", b.Dx(), b.Dy())
	}

	if err := c.SavePNG(filepath.Join(t.TempDir(), "out.png")); err != nil {
		t.Fatal(err)
	}
	if err := c.SavePNG(filepath.Join(t.TempDir(), "missing", "out.png")); err == nil {
		t.Error("SavePNG into a missing directory should fail")
	}
}

func TestColorFromHex(t *testing.T) {
	c, err := ColorFromHex("#ff8000")
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, a := c.RGBA()
	if r>>8 != 0xff || g>>8 != 0x80 || b != 0 || a != 0xffff {
		t.Errorf("ColorFromHex = %v", c)
	}
	if _, err := ColorFromHex("orange"); err == nil {
		t.Error("expected error for non-hex color")
	}
}

func TestAnnotatorOnRaster(t *testing.T) {
	c := newCanvas(t)
	a, err := annotator.New(c, nil)
	if err != nil {
		t.Fatal(err)
	}

	doc := "Patient has fever.\nTake aspirin.\n"
	if _, err := a.Import(doc, []annotator.LabelInput{
		{Pos: [2]int{12, 16}, Category: int(category.SignSymptom), ID: 0},
		{Pos: [2]int{24, 30}, Category: int(category.Treatment), ID: 1},
	}); err != nil {
		t.Fatal(err)
	}
	a.Queue().Drain()

	if len(c.Texts()) != 2 {
		t.Fatalf("drew %d lines, want 2", len(c.Texts()))
	}
	labels := c.Labels()
	if len(labels) != 2 {
		t.Fatalf("drew %d labels, want 2", len(labels))
	}

	line0 := c.Texts()[0]
	first, _ := c.CharacterExtent(line0, 12)
	last, _ := c.CharacterExtent(line0, 16)
	g := labels[0].Geometry
	if g.Left != first.X || g.Width != last.Right()-first.X {
		t.Errorf("label geometry %+v does not cover [%v,%v]", g, first.X, last.Right())
	}

	w, _ := c.Size()
	if w != line0.ClientWidth()+30+100 {
		t.Errorf("canvas width = %v, want widest line + base + margin", w)
	}
}
