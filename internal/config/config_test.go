package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/config/loader"
	"github.com/dshills/annotator/internal/logging"
)

type mapLoader map[string]any

func (m mapLoader) Load() (map[string]any, error) { return m, nil }

type failingLoader struct{ err error }

func (f failingLoader) Load() (map[string]any, error) { return nil, f.err }

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	opts := c.LayoutOptions()
	if opts.BatchSize != 50 || opts.Padding != 10 || opts.BaseLeft != 30 || opts.Margin != 100 {
		t.Errorf("LayoutOptions() = %+v", opts)
	}
	if c.FrameDelay() != 16*time.Millisecond {
		t.Errorf("FrameDelay() = %v, want 16ms", c.FrameDelay())
	}
	if c.Canvas.Width != 500 || c.Canvas.Height != 500 {
		t.Errorf("canvas = %dx%d, want 500x500", c.Canvas.Width, c.Canvas.Height)
	}
	if c.SelectionCategory() != category.SignSymptom {
		t.Errorf("SelectionCategory() = %v", c.SelectionCategory())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annotator.toml")
	content := `
[layout]
batchSize = 10
frameDelay = "0s"

[render]
fontSize = 18

[[categories]]
id = 1
text = "Dx"
fill = "#ff0000"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANNOTATOR_LAYOUT_BATCH_SIZE", "7")
	t.Setenv("ANNOTATOR_LOG_LEVEL", "debug")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Layout.BatchSize != 7 {
		t.Errorf("batchSize = %d, want 7 from environment", c.Layout.BatchSize)
	}
	if c.FrameDelay() != 0 {
		t.Errorf("FrameDelay() = %v, want 0", c.FrameDelay())
	}
	if c.Render.FontSize != 18 {
		t.Errorf("fontSize = %d, want 18", c.Render.FontSize)
	}
	if c.Render.DPI != 72 {
		t.Errorf("dpi = %d, want default 72", c.Render.DPI)
	}
	if c.LoggerConfig().Level != logging.LogLevelDebug {
		t.Errorf("logger level = %v, want debug", c.LoggerConfig().Level)
	}

	table, err := c.CategoryTable()
	if err != nil {
		t.Fatal(err)
	}
	d, _ := table.Lookup(category.Diagnosis)
	if d.Text != "Dx" {
		t.Errorf("category 1 text = %q, want Dx", d.Text)
	}
	if r, _, _ := d.Fill.RGB255(); r != 255 {
		t.Errorf("category 1 fill red = %d, want 255", r)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	c, err := LoadWithLoaders(loader.NewTOMLLoader(filepath.Join(t.TempDir(), "none.toml")))
	if err != nil {
		t.Fatal(err)
	}
	if c.Layout.BatchSize != Default().Layout.BatchSize {
		t.Error("missing file should yield defaults")
	}
}

func TestLoadWithLoaders_Error(t *testing.T) {
	boom := errors.New("boom")
	if _, err := LoadWithLoaders(failingLoader{boom}); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  map[string]any
		path string
	}{
		{"batch size", map[string]any{"layout": map[string]any{"batchSize": int64(0)}}, "layout.batchSize"},
		{"negative padding", map[string]any{"layout": map[string]any{"padding": int64(-1)}}, "layout.padding"},
		{"frame delay", map[string]any{"layout": map[string]any{"frameDelay": "soon"}}, "layout.frameDelay"},
		{"canvas", map[string]any{"canvas": map[string]any{"width": int64(0)}}, "canvas.width"},
		{"color", map[string]any{"render": map[string]any{"background": "white"}}, "render.background"},
		{"selection category", map[string]any{"selection": map[string]any{"category": int64(9)}}, "selection.category"},
		{"log level", map[string]any{"logging": map[string]any{"level": "loud"}}, "logging.level"},
		{"unknown category", map[string]any{"categories": []any{map[string]any{"id": int64(7)}}}, "categories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithLoaders(mapLoader(tt.src))
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error = %v, want ValidationErrors", err)
			}
			if !verrs.Has(tt.path) {
				t.Errorf("errors %v do not mention %s", verrs, tt.path)
			}
		})
	}
}

func TestValidationErrors_Unwrap(t *testing.T) {
	c := Default()
	c.Layout.BatchSize = 0
	c.Render.DPI = 0

	err := c.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("errors.As(*ValidationError) failed for %v", err)
	}
	if len(err.(ValidationErrors)) != 2 {
		t.Errorf("got %d errors, want 2", len(err.(ValidationErrors)))
	}
}

func TestTerminalLayoutOptions(t *testing.T) {
	c := Default()
	c.Terminal.BaseLeft = 6
	opts := c.TerminalLayoutOptions()
	if opts.BaseLeft != 6 || opts.BatchSize != c.Layout.BatchSize {
		t.Errorf("TerminalLayoutOptions() = %+v", opts)
	}
}
