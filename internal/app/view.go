package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/dshills/annotator/internal/annotator"
	"github.com/dshills/annotator/internal/annotator/layout"
	"github.com/dshills/annotator/internal/canvas/terminal"
	"github.com/dshills/annotator/internal/labelfile"
	"github.com/dshills/annotator/internal/logging"
	"github.com/dshills/annotator/internal/watcher"
)

// viewer is the interactive session. Every method runs on the layout loop
// goroutine.
type viewer struct {
	app    *Application
	log    *logging.Logger
	doc    *Document
	canvas *terminal.Canvas
	ann    *annotator.Annotator

	copy func(string) error
	quit func()
}

// View opens docPath in an interactive terminal viewer. Dragging with the
// mouse selects text within a line; releasing creates a label. screen may
// be nil to use the process terminal.
func (app *Application) View(ctx context.Context, docPath string, screen tcell.Screen) (err error) {
	doc, err := LoadDocument(docPath, app.opts.LabelsPath)
	if err != nil {
		return err
	}

	log := app.log
	if screen == nil {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return ErrNotTerminal
		}
		if app.logFile == nil {
			log = logging.Nop()
		}
		if screen, err = tcell.NewScreen(); err != nil {
			return NewComponentError("screen", "create", err)
		}
		if err := screen.Init(); err != nil {
			return NewComponentError("screen", "init", err)
		}
	}
	defer screen.Fini()
	screen.EnableMouse()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := layout.NewLoop(app.cfg.FrameDelay())
	v, err := app.newViewer(log, doc, screen, loop)
	if err != nil {
		return err
	}
	v.quit = cancel

	var panicErr error
	post := func(task func()) {
		loop.Post(func() {
			defer func() {
				if r := recover(); r != nil {
					panicErr = &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
					cancel()
				}
			}()
			task()
		})
	}

	post(v.importDoc)

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			post(func() { v.handleEvent(ev) })
		}
	}()

	if app.opts.Watch {
		w, err := watcher.New(watcher.DefaultDelay, doc.WatchPaths()...)
		if err != nil {
			return NewComponentError("watcher", "start", err)
		}
		defer w.Close()
		go func() {
			for {
				select {
				case change, ok := <-w.Changes():
					if !ok {
						return
					}
					post(func() { v.reload(change.Paths) })
				case err, ok := <-w.Errors():
					if !ok {
						return
					}
					post(func() { v.log.Warn("watch: %v", err) })
				}
			}
		}()
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return panicErr
}

func (app *Application) newViewer(log *logging.Logger, doc *Document, screen tcell.Screen, pacer layout.Pacer) (*viewer, error) {
	canvas := terminal.New(screen, app.categories)
	v := &viewer{
		app:    app,
		log:    log.WithComponent("view"),
		doc:    doc,
		canvas: canvas,
		copy:   clipboard.WriteAll,
		quit:   func() {},
	}
	ann, err := app.newAnnotator(v.log, canvas, canvas,
		annotator.WithLayout(app.cfg.TerminalLayoutOptions()),
		annotator.WithPacer(pacer),
	)
	if err != nil {
		return nil, err
	}
	ann.OnLayoutDone(func(r layout.Result) {
		if r.Err != nil {
			v.status("layout failed: %v", r.Err)
		} else {
			v.status("")
		}
		canvas.Show()
	})
	v.ann = ann
	return v, nil
}

func (v *viewer) importDoc() {
	rep, err := v.ann.Import(v.doc.Text, v.doc.Labels)
	if err != nil {
		v.status("import failed: %v", err)
		v.canvas.Show()
		return
	}
	if n := len(rep.Skipped); n > 0 {
		v.status("%d label(s) skipped", n)
	} else {
		v.status("laying out %d lines", rep.Lines)
	}
	v.canvas.Show()
}

func (v *viewer) reload(paths []string) {
	v.log.Info("reloading after change to %v", paths)
	if err := v.doc.Reload(); err != nil {
		v.status("reload failed: %v", err)
		v.canvas.Show()
		return
	}
	v.importDoc()
}

func (v *viewer) handleEvent(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		v.handleKey(e)
	case *tcell.EventMouse:
		v.handleMouse(e)
	case *tcell.EventResize:
		v.canvas.Screen().Sync()
	}
	v.canvas.Show()
}

func (v *viewer) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		v.quit()
		return
	case tcell.KeyUp:
		v.canvas.Scroll(0, -1)
	case tcell.KeyDown:
		v.canvas.Scroll(0, 1)
	case tcell.KeyLeft:
		v.canvas.Scroll(-1, 0)
	case tcell.KeyRight:
		v.canvas.Scroll(1, 0)
	case tcell.KeyPgUp:
		_, h := v.canvas.Screen().Size()
		v.canvas.Scroll(0, -(h - 1))
	case tcell.KeyPgDn:
		_, h := v.canvas.Screen().Size()
		v.canvas.Scroll(0, h-1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			v.quit()
		case 's':
			v.save()
		case 'y':
			v.copyLabels()
		case 'r':
			v.reload([]string{v.doc.Path})
		}
	}
}

func (v *viewer) handleMouse(ev *tcell.EventMouse) {
	if v.canvas.HandleMouse(ev) != terminal.MouseSelected {
		return
	}
	res, err := v.ann.HandleSelection()
	v.canvas.ClearSelection()
	switch {
	case err != nil:
		v.status("selection: %v", err)
	case res.Status == annotator.SelectionApplied:
		d := v.ann.Categories().LookupOrDefault(res.Label.Category)
		v.status("label %d (%s) on line %d", res.Label.ID, d.Text, res.Label.Line+1)
	case res.Status == annotator.SelectionQueued:
		v.status("selection queued until layout completes")
	}
}

func (v *viewer) save() {
	path := v.doc.SavePath(v.app.opts.OutPath)
	labels := v.ann.Export()
	if err := labelfile.Save(path, labels); err != nil {
		v.log.Error("%v", NewOperationError("save", path, err))
		v.status("save failed: %v", err)
		return
	}
	v.log.Info("saved %d labels to %s", len(labels), path)
	v.status("saved %d labels to %s", len(labels), path)
}

func (v *viewer) copyLabels() {
	data, err := labelfile.Marshal(v.ann.Export(), labelfile.YAML)
	if err == nil {
		err = v.copy(string(data))
	}
	if err != nil {
		v.status("copy failed: %v", err)
		return
	}
	v.status("copied %d labels", len(v.ann.Export()))
}

func (v *viewer) status(format string, args ...any) {
	snap := v.ann.Snapshot()
	msg := fmt.Sprintf(" %s  %d lines  %d labels  [%s]  q quit  s save  y copy",
		v.doc.Name, len(snap.Lines), snap.LabelCount, v.ann.State())
	if format != "" {
		msg += "  | " + fmt.Sprintf(format, args...)
	}
	v.canvas.SetStatus(msg)
}
