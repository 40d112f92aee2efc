package app

import (
	"context"

	"github.com/dshills/annotator/internal/report"
)

// Inspect lays out docPath and prints its lines, labels and layout
// summary to stdout.
func (app *Application) Inspect(ctx context.Context, docPath string) error {
	run, err := app.layoutDocument(ctx, docPath)
	if err != nil {
		return err
	}

	r := report.Report{
		Title:      run.doc.Path,
		Snapshot:   run.ann.Snapshot(),
		Import:     run.report,
		Layout:     run.result,
		Categories: app.categories,
	}
	if err := report.Write(app.opts.Stdout, r); err != nil {
		return NewOperationError("inspect", docPath, err)
	}
	return nil
}
