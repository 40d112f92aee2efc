package app

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/annotator/internal/annotator"
	"github.com/dshills/annotator/internal/annotator/layout"
	"github.com/dshills/annotator/internal/config"
	"github.com/dshills/annotator/internal/labelfile"
	"github.com/dshills/annotator/internal/logging"
)

const sampleDoc = "Patient has fever.\nTake aspirin.\n"

const sampleLabels = `
- pos: [12, 16]
  category: 2
  id: 0
- pos: [24, 30]
  category: 4
  id: 1
- pos: [15, 22]
  category: 1
  id: 2
`

func writeSample(t *testing.T) (dir, docPath, labelsPath string) {
	t.Helper()
	dir = t.TempDir()
	docPath = filepath.Join(dir, "note.txt")
	labelsPath = filepath.Join(dir, "note.labels.yaml")
	if err := os.WriteFile(docPath, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(labelsPath, []byte(sampleLabels), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, docPath, labelsPath
}

func newTestApp(t *testing.T, opts Options) (*Application, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer
	opts.Stdout = &stdout
	opts.Stderr = io.Discard
	app, err := NewWithConfig(opts, config.Default())
	if err != nil {
		t.Fatalf("NewWithConfig error: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, &stdout
}

func TestNew_ConfigErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[layout]\nbatchSize = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Options{ConfigPath: path, Stderr: io.Discard})
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "load config" {
		t.Errorf("New() error = %v, want load config OperationError", err)
	}

	if _, err := NewWithConfig(Options{LogLevel: "loud", Stderr: io.Discard}, config.Default()); err == nil {
		t.Error("invalid log level should be rejected")
	}
}

func TestNew_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "annotator.log")
	app, err := NewWithConfig(Options{LogFile: logPath, LogLevel: "debug"}, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	app.Logger().Info("hello %s", "log")
	if err := app.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello log") {
		t.Errorf("log file = %q", data)
	}
}

func TestLoadDocument(t *testing.T) {
	_, docPath, labelsPath := writeSample(t)

	doc, err := LoadDocument(docPath, labelsPath)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text != sampleDoc || len(doc.Labels) != 3 || doc.Name != "note.txt" {
		t.Errorf("doc = %+v", doc)
	}
	if got := doc.WatchPaths(); len(got) != 2 {
		t.Errorf("WatchPaths() = %v", got)
	}

	if _, err := LoadDocument("", ""); !errors.Is(err, ErrNoDocument) {
		t.Errorf("empty path error = %v", err)
	}
	if _, err := LoadDocument(filepath.Join(t.TempDir(), "none.txt"), ""); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing doc error = %v", err)
	}
}

func TestDocumentSavePath(t *testing.T) {
	doc := &Document{Path: "/tmp/note.txt"}
	if got := doc.SavePath(""); got != "/tmp/note.labels.yaml" {
		t.Errorf("SavePath() = %q", got)
	}
	doc.LabelsPath = "/tmp/l.json"
	if got := doc.SavePath(""); got != "/tmp/l.json" {
		t.Errorf("SavePath() = %q", got)
	}
	if got := doc.SavePath("/out.yaml"); got != "/out.yaml" {
		t.Errorf("SavePath(out) = %q", got)
	}
}

func TestRender(t *testing.T) {
	dir, docPath, labelsPath := writeSample(t)
	out := filepath.Join(dir, "out.png")
	app, _ := newTestApp(t, Options{LabelsPath: labelsPath, OutPath: out})

	got, err := app.Render(context.Background(), docPath)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != out {
		t.Errorf("Render() = %q, want %q", got, out)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() <= 130 || b.Dy() <= 0 {
		t.Errorf("image bounds = %v", b)
	}
}

func TestRender_DefaultOutput(t *testing.T) {
	dir, docPath, _ := writeSample(t)
	app, _ := newTestApp(t, Options{})

	got, err := app.Render(context.Background(), docPath)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "note.png") {
		t.Errorf("Render() = %q", got)
	}
}

func TestRender_Canceled(t *testing.T) {
	_, docPath, _ := writeSample(t)
	app, _ := newTestApp(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := app.Render(ctx, docPath); !errors.Is(err, context.Canceled) {
		t.Errorf("Render error = %v, want context.Canceled", err)
	}
}

func TestInspect(t *testing.T) {
	_, docPath, labelsPath := writeSample(t)
	app, stdout := newTestApp(t, Options{LabelsPath: labelsPath})

	if err := app.Inspect(context.Background(), docPath); err != nil {
		t.Fatal(err)
	}
	out := stdout.String()
	for _, want := range []string{`"fever"`, `"aspirin"`, "1 label(s) skipped", "note.txt"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func newTestViewer(t *testing.T, app *Application, docPath, labelsPath string) (*viewer, *layout.Queue) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 10)

	doc, err := LoadDocument(docPath, labelsPath)
	if err != nil {
		t.Fatal(err)
	}
	q := layout.NewQueue()
	v, err := app.newViewer(logging.Nop(), doc, screen, q)
	if err != nil {
		t.Fatal(err)
	}
	v.importDoc()
	q.Drain()
	return v, q
}

func TestViewer_MouseSelectionCreatesLabel(t *testing.T) {
	_, docPath, labelsPath := writeSample(t)
	app, _ := newTestApp(t, Options{LabelsPath: labelsPath})
	v, _ := newTestViewer(t, app, docPath, labelsPath)

	if v.ann.State() != layout.StateDone {
		t.Fatalf("state = %v, want done", v.ann.State())
	}
	before := len(v.ann.Export())

	// drag across "aspirin" on the second line (base left is 4 cells)
	v.handleEvent(tcell.NewEventMouse(9, 1, tcell.Button1, 0))
	v.handleEvent(tcell.NewEventMouse(15, 1, tcell.Button1, 0))
	v.handleEvent(tcell.NewEventMouse(15, 1, tcell.ButtonNone, 0))

	labels := v.ann.Export()
	if len(labels) != before+1 {
		t.Fatalf("labels = %d, want %d", len(labels), before+1)
	}
	last := labels[len(labels)-1]
	if last.Pos != [2]int{24, 30} || last.Category != int(app.cfg.SelectionCategory()) {
		t.Errorf("new label = %+v", last)
	}
}

func TestViewer_SaveAndCopy(t *testing.T) {
	dir, docPath, labelsPath := writeSample(t)
	out := filepath.Join(dir, "saved.json")
	app, _ := newTestApp(t, Options{LabelsPath: labelsPath, OutPath: out})
	v, _ := newTestViewer(t, app, docPath, labelsPath)

	var copied string
	v.copy = func(s string) error {
		copied = s
		return nil
	}

	v.handleEvent(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	saved, err := labelfile.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 {
		t.Errorf("saved %d labels, want 2", len(saved))
	}

	v.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'y', tcell.ModNone))
	parsed, err := labelfile.Parse([]byte(copied))
	if err != nil || len(parsed) != 2 {
		t.Errorf("copied labels = %q (%v)", copied, err)
	}

	v.copy = func(string) error { return errors.New("no clipboard") }
	v.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'y', tcell.ModNone))
}

func TestViewer_QuitKeys(t *testing.T) {
	_, docPath, _ := writeSample(t)
	app, _ := newTestApp(t, Options{})

	for _, ev := range []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone),
	} {
		v, _ := newTestViewer(t, app, docPath, "")
		quit := false
		v.quit = func() { quit = true }
		v.handleEvent(ev)
		if !quit {
			t.Errorf("key %v did not quit", ev.Name())
		}
	}
}

func TestViewer_Reload(t *testing.T) {
	_, docPath, labelsPath := writeSample(t)
	app, _ := newTestApp(t, Options{LabelsPath: labelsPath})
	v, q := newTestViewer(t, app, docPath, labelsPath)

	if err := os.WriteFile(docPath, []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(labelsPath, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	v.reload([]string{docPath})
	q.Drain()

	snap := v.ann.Snapshot()
	if len(snap.Lines) != 3 || snap.LabelCount != 0 {
		t.Errorf("after reload: %d lines, %d labels", len(snap.Lines), snap.LabelCount)
	}
}

func TestView_SimulationScreen(t *testing.T) {
	dir, docPath, labelsPath := writeSample(t)
	out := filepath.Join(dir, "view.yaml")
	app, _ := newTestApp(t, Options{LabelsPath: labelsPath, OutPath: out})

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 10)
	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.View(ctx, docPath, screen); err != nil {
		t.Fatalf("View error: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("View did not quit on q")
	}

	saved, err := labelfile.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	want := []annotator.LabelInput{
		{Pos: [2]int{12, 16}, Category: 2, ID: 0},
		{Pos: [2]int{24, 30}, Category: 4, ID: 1},
	}
	if len(saved) != len(want) || saved[0] != want[0] || saved[1] != want[1] {
		t.Errorf("saved = %+v, want %+v", saved, want)
	}
}
