// Package app wires configuration, logging, the annotation engine and the
// canvases into the render, view and inspect commands.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/annotator/internal/annotator"
	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/draw"
	"github.com/dshills/annotator/internal/config"
	"github.com/dshills/annotator/internal/logging"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// LabelsPath is the label file to import with the document.
	LabelsPath string

	// OutPath is the PNG written by render, or the label file written by
	// the viewer's save command.
	OutPath string

	// Watch re-imports the document when it or its labels change.
	Watch bool

	// LogLevel overrides the configured log level.
	LogLevel string

	// LogFile redirects logs to a file. The viewer discards logs without one.
	LogFile string

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Application holds the state shared by every command.
type Application struct {
	opts       Options
	cfg        *config.Config
	log        *logging.Logger
	categories *category.Table
	logFile    *os.File
}

// New loads the configuration and sets up logging.
func New(opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, NewOperationError("load config", opts.ConfigPath, err)
	}
	return NewWithConfig(opts, cfg)
}

// NewWithConfig creates an application from an already loaded config.
func NewWithConfig(opts Options, cfg *config.Config) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewOperationError("load config", opts.ConfigPath, err)
	}
	table, err := cfg.CategoryTable()
	if err != nil {
		return nil, NewOperationError("load config", opts.ConfigPath, err)
	}

	app := &Application{opts: opts, cfg: cfg, categories: table}

	lc := cfg.LoggerConfig()
	lc.Output = opts.Stderr
	if opts.LogLevel != "" {
		if !logging.ValidLevel(opts.LogLevel) {
			return nil, fmt.Errorf("invalid log level %q", opts.LogLevel)
		}
		lc.Level = logging.ParseLogLevel(opts.LogLevel)
	}
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, NewOperationError("open log", opts.LogFile, err)
		}
		app.logFile = f
		lc.Output = f
	}
	app.log = logging.New(lc)
	return app, nil
}

// Config returns the configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.log
}

// Close flushes logs and releases resources.
func (app *Application) Close() error {
	var errs ErrorList
	_ = app.log.Sync() // stderr does not support fsync on every platform
	if app.logFile != nil {
		errs.Add(app.logFile.Close())
	}
	return errs.AsError()
}

// newAnnotator builds an annotator configured from the application.
func (app *Application) newAnnotator(log *logging.Logger, drawer draw.Drawer, selector draw.TextSelector, opts ...annotator.Option) (*annotator.Annotator, error) {
	base := []annotator.Option{
		annotator.WithLogger(log),
		annotator.WithCategories(app.categories),
		annotator.WithSelectionCategory(app.cfg.SelectionCategory()),
		annotator.WithErrorHandler(func(err error) {
			log.Error("%v", err)
		}),
	}
	return annotator.New(drawer, selector, append(base, opts...)...)
}
