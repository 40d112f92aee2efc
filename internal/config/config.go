package config

import (
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/layout"
	"github.com/dshills/annotator/internal/config/loader"
	"github.com/dshills/annotator/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "ANNOTATOR_"

// Config is the complete annotator configuration.
type Config struct {
	Layout     LayoutConfig     `toml:"layout"`
	Canvas     CanvasConfig     `toml:"canvas"`
	Render     RenderConfig     `toml:"render"`
	Terminal   TerminalConfig   `toml:"terminal"`
	Selection  SelectionConfig  `toml:"selection"`
	Logging    LoggingConfig    `toml:"logging"`
	Categories []CategoryConfig `toml:"categories"`
}

// LayoutConfig controls the incremental layout pass of the raster canvas.
type LayoutConfig struct {
	// BatchSize is the number of lines laid out before yielding.
	BatchSize int `toml:"batchSize"`

	// Padding is the vertical gap below every line, in pixels.
	Padding int `toml:"padding"`

	// BaseLeft is the left edge of every line, in pixels.
	BaseLeft int `toml:"baseLeft"`

	// Margin is added to the widest line when sizing the canvas.
	Margin int `toml:"margin"`

	// FrameDelay is the pause between batches, e.g. "16ms".
	FrameDelay string `toml:"frameDelay"`
}

// CanvasConfig sets the initial canvas size before the first resize.
type CanvasConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// RenderConfig controls the raster (PNG) canvas.
type RenderConfig struct {
	// FontSize is the font size in points.
	FontSize int `toml:"fontSize"`

	// DPI is the output resolution.
	DPI int `toml:"dpi"`

	// Background and Foreground are hex colors.
	Background string `toml:"background"`
	Foreground string `toml:"foreground"`
}

// TerminalConfig controls the terminal canvas. Units are cells.
type TerminalConfig struct {
	BaseLeft int `toml:"baseLeft"`
	Padding  int `toml:"padding"`
	Margin   int `toml:"margin"`
}

// SelectionConfig controls interactive labels.
type SelectionConfig struct {
	// Category is the category of labels created from a selection.
	Category int `toml:"category"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// CategoryConfig overrides the display of a primary category.
type CategoryConfig struct {
	ID        int    `toml:"id"`
	Text      string `toml:"text"`
	Fill      string `toml:"fill"`
	Border    string `toml:"border"`
	Highlight string `toml:"highlight"`
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := layout.DefaultOptions()
	return &Config{
		Layout: LayoutConfig{
			BatchSize:  opts.BatchSize,
			Padding:    int(opts.Padding),
			BaseLeft:   int(opts.BaseLeft),
			Margin:     int(opts.Margin),
			FrameDelay: layout.DefaultFrameDelay.String(),
		},
		Canvas: CanvasConfig{
			Width:  500,
			Height: 500,
		},
		Render: RenderConfig{
			FontSize:   14,
			DPI:        72,
			Background: "#ffffff",
			Foreground: "#1a1a1a",
		},
		Terminal: TerminalConfig{
			BaseLeft: 4,
			Padding:  0,
			Margin:   2,
		},
		Selection: SelectionConfig{
			Category: int(category.SignSymptom),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path (which may be empty or missing) and the
// process environment over the defaults, then validates the result.
func Load(path string) (*Config, error) {
	return LoadWithLoaders(
		loader.NewTOMLLoader(path),
		loader.NewEnvLoader(EnvPrefix),
	)
}

// LoadWithLoaders decodes the merged output of loaders over the defaults.
func LoadWithLoaders(loaders ...loader.Loader) (*Config, error) {
	merged, err := loader.Chain(loaders...)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := loader.Decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and returns all problems found.
func (c *Config) Validate() error {
	var errs ValidationErrors
	check := func(ok bool, path, msg string, value any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
		}
	}

	check(c.Layout.BatchSize > 0, "layout.batchSize", "must be positive", c.Layout.BatchSize)
	check(c.Layout.Padding >= 0, "layout.padding", "must not be negative", c.Layout.Padding)
	check(c.Layout.BaseLeft >= 0, "layout.baseLeft", "must not be negative", c.Layout.BaseLeft)
	check(c.Layout.Margin >= 0, "layout.margin", "must not be negative", c.Layout.Margin)
	if d, err := time.ParseDuration(c.Layout.FrameDelay); err != nil {
		check(false, "layout.frameDelay", "must be a duration", c.Layout.FrameDelay)
	} else {
		check(d >= 0, "layout.frameDelay", "must not be negative", c.Layout.FrameDelay)
	}

	check(c.Canvas.Width > 0, "canvas.width", "must be positive", c.Canvas.Width)
	check(c.Canvas.Height > 0, "canvas.height", "must be positive", c.Canvas.Height)

	check(c.Render.FontSize > 0, "render.fontSize", "must be positive", c.Render.FontSize)
	check(c.Render.DPI > 0, "render.dpi", "must be positive", c.Render.DPI)
	check(validHex(c.Render.Background), "render.background", "must be a hex color", c.Render.Background)
	check(validHex(c.Render.Foreground), "render.foreground", "must be a hex color", c.Render.Foreground)

	check(c.Terminal.BaseLeft >= 0, "terminal.baseLeft", "must not be negative", c.Terminal.BaseLeft)
	check(c.Terminal.Padding >= 0, "terminal.padding", "must not be negative", c.Terminal.Padding)
	check(c.Terminal.Margin >= 0, "terminal.margin", "must not be negative", c.Terminal.Margin)

	check(category.ID(c.Selection.Category).IsPrimary(), "selection.category",
		"must be a primary category (1-4)", c.Selection.Category)

	check(logging.ValidLevel(c.Logging.Level), "logging.level",
		"must be one of debug, info, warn, error", c.Logging.Level)

	if _, err := c.CategoryTable(); err != nil {
		check(false, "categories", err.Error(), len(c.Categories))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// LayoutOptions returns the raster layout options.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		BatchSize: c.Layout.BatchSize,
		Padding:   float64(c.Layout.Padding),
		BaseLeft:  float64(c.Layout.BaseLeft),
		Margin:    float64(c.Layout.Margin),
	}
}

// TerminalLayoutOptions returns layout options in terminal cells.
func (c *Config) TerminalLayoutOptions() layout.Options {
	return layout.Options{
		BatchSize: c.Layout.BatchSize,
		Padding:   float64(c.Terminal.Padding),
		BaseLeft:  float64(c.Terminal.BaseLeft),
		Margin:    float64(c.Terminal.Margin),
	}
}

// FrameDelay returns the parsed delay between layout batches.
func (c *Config) FrameDelay() time.Duration {
	d, err := time.ParseDuration(c.Layout.FrameDelay)
	if err != nil {
		return layout.DefaultFrameDelay
	}
	return d
}

// SelectionCategory returns the category for interactive labels.
func (c *Config) SelectionCategory() category.ID {
	return category.ID(c.Selection.Category)
}

// CategoryTable returns the default category table with the configured
// overrides applied.
func (c *Config) CategoryTable() (*category.Table, error) {
	if len(c.Categories) == 0 {
		return category.DefaultTable(), nil
	}
	overrides := make([]category.Override, len(c.Categories))
	for i, cc := range c.Categories {
		overrides[i] = category.Override{
			ID:        category.ID(cc.ID),
			Text:      cc.Text,
			Fill:      cc.Fill,
			Border:    cc.Border,
			Highlight: cc.Highlight,
		}
	}
	t, err := category.DefaultTable().WithOverrides(overrides)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return t, nil
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLogLevel(c.Logging.Level)
	lc.JSON = c.Logging.JSON
	return lc
}

func validHex(s string) bool {
	_, err := colorful.Hex(s)
	return err == nil
}
