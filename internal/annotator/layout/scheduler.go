// Package layout lays out document lines and their label overlays in
// batches, yielding to the host between batches.
package layout

import (
	"errors"
	"fmt"

	"github.com/dshills/annotator/internal/annotator/draw"
	"github.com/dshills/annotator/internal/annotator/linestore"
)

// ErrCanceled is reported when a pass is superseded before it completes.
var ErrCanceled = errors.New("layout canceled")

// State is the scheduler's lifecycle state.
type State uint8

const (
	// StateIdle means no pass has started since the last Cancel.
	StateIdle State = iota
	// StateLayingOut means a pass is in flight.
	StateLayingOut
	// StateDone means the last pass laid out every line.
	StateDone
	// StateFailed means the last pass stopped on a drawing error.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLayingOut:
		return "laying-out"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options controls line placement.
type Options struct {
	// BatchSize is the number of lines laid out per batch.
	BatchSize int
	// Padding is the vertical gap added below every line.
	Padding float64
	// BaseLeft is the left edge of every line.
	BaseLeft float64
	// Margin is added to the widest line when sizing the canvas.
	Margin float64
}

// DefaultOptions returns the default layout options.
func DefaultOptions() Options {
	return Options{
		BatchSize: 50,
		Padding:   10,
		BaseLeft:  30,
		Margin:    100,
	}
}

// Cursor is the progress of a pass.
type Cursor struct {
	// Line is the next line to lay out.
	Line int
	// Top is the running height.
	Top float64
	// MaxWidth is the widest rendered line including BaseLeft.
	MaxWidth float64
}

// Result describes a finished pass.
type Result struct {
	Generation uint64
	Lines      int
	Batches    int
	Width      float64
	Height     float64
	Err        error
}

// Scheduler drives a line-by-line layout pass as an explicit state machine.
// It must only be used from the pacer's task goroutine.
type Scheduler struct {
	store  *linestore.Store
	drawer draw.Drawer
	pacer  Pacer
	opts   Options

	state      State
	generation uint64
	cursor     Cursor
	batches    int
	onDone     []func(Result)
}

// New creates a scheduler. Non-positive BatchSize falls back to the default.
func New(store *linestore.Store, drawer draw.Drawer, pacer Pacer, opts Options) *Scheduler {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	return &Scheduler{
		store:  store,
		drawer: drawer,
		pacer:  pacer,
		opts:   opts,
	}
}

// OnDone registers fn to be called when a pass finishes, fails or is
// canceled.
func (s *Scheduler) OnDone(fn func(Result)) {
	s.onDone = append(s.onDone, fn)
}

// State returns the current state.
func (s *Scheduler) State() State {
	return s.state
}

// Generation returns the generation of the current or last pass.
func (s *Scheduler) Generation() uint64 {
	return s.generation
}

// Cursor returns the progress of the current or last pass.
func (s *Scheduler) Cursor() Cursor {
	return s.cursor
}

// Options returns the layout options.
func (s *Scheduler) Options() Options {
	return s.opts
}

// Start begins a new pass over the store, superseding any pass in flight.
// An empty store completes immediately without resizing the canvas.
func (s *Scheduler) Start() uint64 {
	s.Cancel()
	s.state = StateLayingOut
	gen := s.generation

	if s.store.Len() == 0 {
		s.finish(nil)
		return gen
	}
	s.schedule(gen)
	return gen
}

// Cancel invalidates the pass in flight. Its pending batch becomes a no-op.
func (s *Scheduler) Cancel() {
	wasRunning := s.state == StateLayingOut
	s.generation++
	s.cursor = Cursor{}
	s.batches = 0
	if wasRunning {
		s.notify(Result{Generation: s.generation - 1, Err: ErrCanceled})
	}
	s.state = StateIdle
}

func (s *Scheduler) schedule(gen uint64) {
	s.pacer.Next(func() { s.runBatch(gen) })
}

// runBatch lays out one batch of lines for pass gen.
func (s *Scheduler) runBatch(gen uint64) {
	if gen != s.generation || s.state != StateLayingOut {
		return
	}

	n := s.store.Len()
	end := s.cursor.Line + s.opts.BatchSize
	if end > n {
		end = n
	}
	for i := s.cursor.Line; i < end; i++ {
		if err := s.layoutLine(i); err != nil {
			s.state = StateFailed
			s.finish(err)
			return
		}
		s.cursor.Line = i + 1
	}
	s.batches++
	s.drawer.Resize(s.cursor.MaxWidth+s.opts.Margin, s.cursor.Top)

	if s.cursor.Line >= n {
		s.finish(nil)
		return
	}
	s.schedule(gen)
}

func (s *Scheduler) layoutLine(i int) error {
	line := s.store.Line(i)
	if line == nil {
		return fmt.Errorf("line %d: %w", i+1, linestore.ErrLineOutOfRange)
	}

	top := s.cursor.Top
	node, err := s.drawer.TextLine(i+1, line.Raw, s.opts.BaseLeft, top)
	if err != nil {
		return fmt.Errorf("line %d: draw text: %w", i+1, err)
	}
	if err := s.store.AttachText(i, node); err != nil {
		return err
	}

	if w := node.ClientWidth() + s.opts.BaseLeft; w > s.cursor.MaxWidth {
		s.cursor.MaxWidth = w
	}
	s.cursor.Top = top + node.ClientHeight() + s.opts.Padding

	for _, label := range s.store.Labels(i) {
		g, err := LabelGeometry(s.drawer, node, i+1, label.Start, label.End)
		if err != nil {
			return fmt.Errorf("line %d: label %d: %w", i+1, label.ID, err)
		}
		overlay, err := s.drawer.Label(label.ID, label.Category, g)
		if err != nil {
			return fmt.Errorf("line %d: draw label %d: %w", i+1, label.ID, err)
		}
		if err := s.store.AttachAnnotation(i, overlay); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) finish(err error) {
	if err == nil {
		s.state = StateDone
	}
	s.notify(Result{
		Generation: s.generation,
		Lines:      s.cursor.Line,
		Batches:    s.batches,
		Width:      s.cursor.MaxWidth + s.opts.Margin,
		Height:     s.cursor.Top,
		Err:        err,
	})
}

func (s *Scheduler) notify(r Result) {
	for _, fn := range s.onDone {
		fn(r)
	}
}

// LabelGeometry spans an overlay from the left edge of the start character
// to the right edge of the end character (inclusive) of a text node.
func LabelGeometry(drawer draw.Drawer, node draw.TextNode, lineNo, start, end int) (draw.Geometry, error) {
	first, err := drawer.CharacterExtent(node, start)
	if err != nil {
		return draw.Geometry{}, fmt.Errorf("extent of char %d: %w", start, err)
	}
	last, err := drawer.CharacterExtent(node, end)
	if err != nil {
		return draw.Geometry{}, fmt.Errorf("extent of char %d: %w", end, err)
	}
	return draw.Geometry{
		LineNo: lineNo,
		Left:   first.X,
		Top:    first.Y,
		Width:  last.Right() - first.X,
		Height: first.Height,
	}, nil
}
