package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/dshills/annotator/internal/annotator"
	"github.com/dshills/annotator/internal/annotator/layout"
	"github.com/dshills/annotator/internal/canvas/raster"
)

// layoutRun is a document imported onto a raster canvas and fully laid out.
type layoutRun struct {
	doc    *Document
	canvas *raster.Canvas
	ann    *annotator.Annotator
	report annotator.ImportReport
	result layout.Result
}

// layoutDocument imports docPath onto a fresh raster canvas and runs the
// layout pass to completion on the calling goroutine.
func (app *Application) layoutDocument(ctx context.Context, docPath string) (*layoutRun, error) {
	doc, err := LoadDocument(docPath, app.opts.LabelsPath)
	if err != nil {
		return nil, err
	}

	canvas, err := app.newRaster()
	if err != nil {
		return nil, NewComponentError("raster", "create canvas", err)
	}

	log := app.log.WithField("doc", doc.Name)
	ann, err := app.newAnnotator(log, canvas, nil, annotator.WithLayout(app.cfg.LayoutOptions()))
	if err != nil {
		return nil, err
	}

	rep, err := ann.Import(doc.Text, doc.Labels)
	if err != nil {
		return nil, NewOperationError("import", doc.Path, err)
	}
	for ann.Queue().Step() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	res := ann.LastLayout()
	if res.Err != nil {
		return nil, NewOperationError("layout", doc.Path, res.Err)
	}
	return &layoutRun{doc: doc, canvas: canvas, ann: ann, report: rep, result: res}, nil
}

func (app *Application) newRaster() (*raster.Canvas, error) {
	opts := raster.DefaultOptions()
	opts.Width = float64(app.cfg.Canvas.Width)
	opts.Height = float64(app.cfg.Canvas.Height)
	opts.FontSize = float64(app.cfg.Render.FontSize)
	opts.DPI = float64(app.cfg.Render.DPI)
	opts.Categories = app.categories

	var err error
	if opts.Background, err = raster.ColorFromHex(app.cfg.Render.Background); err != nil {
		return nil, err
	}
	if opts.Foreground, err = raster.ColorFromHex(app.cfg.Render.Foreground); err != nil {
		return nil, err
	}
	return raster.New(opts)
}

// Render lays out docPath and writes the canvas as PNG. It returns the
// path written.
func (app *Application) Render(ctx context.Context, docPath string) (string, error) {
	run, err := app.layoutDocument(ctx, docPath)
	if err != nil {
		return "", err
	}

	out := app.opts.OutPath
	if out == "" {
		out = strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".png"
	}
	if err := run.canvas.SavePNG(out); err != nil {
		return "", NewOperationError("render", out, err)
	}

	app.log.Info("rendered %s: %d lines, %d labels (%d skipped), %.0fx%.0f -> %s",
		run.doc.Name, run.result.Lines, run.report.Accepted, len(run.report.Skipped),
		run.result.Width, run.result.Height, out)
	return out, nil
}
