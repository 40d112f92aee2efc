// Package annotator lays out a document as lines on a canvas and overlays
// colored labels on character ranges.
//
// An Annotator composes the line store, the incremental layout scheduler
// and the selection bridge. It is not safe for concurrent use: every call,
// and every batch scheduled on its pacer, must run on one goroutine. Use a
// layout.Loop to serialize host events with layout batches.
package annotator

import (
	"errors"
	"fmt"

	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/draw"
	"github.com/dshills/annotator/internal/annotator/layout"
	"github.com/dshills/annotator/internal/annotator/linestore"
	"github.com/dshills/annotator/internal/annotator/offset"
	"github.com/dshills/annotator/internal/annotator/selection"
	"github.com/dshills/annotator/internal/logging"
)

// Errors returned by the annotator.
var (
	// ErrNoDrawer is returned by New without a Drawer.
	ErrNoDrawer = errors.New("annotator: drawer is required")

	// ErrNoSelector is returned by HandleSelection without a TextSelector.
	ErrNoSelector = errors.New("annotator: no text selector configured")
)

// LabelInput is a label as supplied to Import. Pos holds global rune
// offsets into the document; the end offset is inclusive.
type LabelInput struct {
	Pos      [2]int `yaml:"pos" json:"pos"`
	Category int    `yaml:"category" json:"category"`
	ID       int    `yaml:"id" json:"id"`
}

// ImportReport summarizes an Import call.
type ImportReport struct {
	Generation uint64
	Lines      int
	Accepted   int
	// Skipped holds one *offset.SpanError per rejected label.
	Skipped []error
}

// SelectionStatus is the outcome of HandleSelection.
type SelectionStatus uint8

const (
	// SelectionNone means nothing was selected.
	SelectionNone SelectionStatus = iota
	// SelectionApplied means a label was created.
	SelectionApplied
	// SelectionQueued means the selection will be applied once layout ends.
	SelectionQueued
)

// String returns the status name.
func (s SelectionStatus) String() string {
	switch s {
	case SelectionNone:
		return "none"
	case SelectionApplied:
		return "applied"
	case SelectionQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// SelectionResult reports what HandleSelection did.
type SelectionResult struct {
	Status SelectionStatus
	// Label is set when Status is SelectionApplied.
	Label linestore.Label
}

// Annotator is the façade over the annotation engine.
type Annotator struct {
	drawer     draw.Drawer
	store      *linestore.Store
	scheduler  *layout.Scheduler
	bridge     *selection.Bridge
	queue      *layout.Queue
	categories *category.Table
	log        *logging.Logger
	inspector  Inspector
	onError    func(error)

	pending []selection.Selection
	last    layout.Result
	hooks   []func(layout.Result)
}

// New creates an annotator drawing through drawer. selector may be nil if
// interactive selection is not used.
func New(drawer draw.Drawer, selector draw.TextSelector, opts ...Option) (*Annotator, error) {
	if drawer == nil {
		return nil, ErrNoDrawer
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a := &Annotator{
		drawer:     drawer,
		store:      linestore.New(),
		categories: o.categories,
		log:        o.logger.WithComponent("annotator"),
		inspector:  o.inspector,
		onError:    o.onError,
	}
	pacer := o.pacer
	if pacer == nil {
		a.queue = layout.NewQueue()
		pacer = a.queue
	}
	a.scheduler = layout.New(a.store, drawer, pacer, o.layout)
	a.scheduler.OnDone(a.layoutDone)
	if selector != nil {
		a.bridge = selection.NewBridge(selector, drawer, a.store, o.selCat)
	}
	return a, nil
}

// Queue returns the internal task queue when no pacer was configured.
func (a *Annotator) Queue() *layout.Queue {
	return a.queue
}

// Import replaces the document and its labels and starts laying it out.
// Labels whose offsets do not resolve to a single line are logged and
// skipped; any other failure aborts the import.
func (a *Annotator) Import(raw string, labels []LabelInput) (ImportReport, error) {
	a.scheduler.Cancel()
	a.pending = nil
	a.last = layout.Result{}
	a.drawer.Clear()
	a.store.Reset()

	if _, err := a.store.Ingest(raw); err != nil {
		return ImportReport{}, fmt.Errorf("import: %w", err)
	}

	report := ImportReport{Lines: a.store.Len()}
	lengths := a.store.LineLengths()
	for _, in := range labels {
		span, err := offset.Resolve(in.Pos[0], in.Pos[1], lengths)
		if errors.Is(err, offset.ErrInvalidSpan) {
			a.log.Warn("skipping label %d: %v", in.ID, err)
			report.Skipped = append(report.Skipped, err)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("import label %d: %w", in.ID, err)
		}
		label := linestore.Label{
			ID:       in.ID,
			Category: category.ID(in.Category),
			Line:     span.Line,
			Start:    span.Start,
			End:      span.End,
		}
		if err := a.store.Bucket(label); err != nil {
			return report, fmt.Errorf("import label %d: %w", in.ID, err)
		}
		report.Accepted++
	}

	a.log.Debug("imported %d lines, %d labels, %d skipped",
		report.Lines, report.Accepted, len(report.Skipped))
	a.inspect("import")

	report.Generation = a.scheduler.Start()
	return report, nil
}

// HandleSelection turns the host's current selection into a label. It is
// meant to be called when a selection gesture completes. While layout is in
// progress the selection is captured now and applied when layout ends.
func (a *Annotator) HandleSelection() (SelectionResult, error) {
	if a.bridge == nil {
		return SelectionResult{}, ErrNoSelector
	}

	sel, ok, err := a.bridge.Capture()
	if err != nil {
		return SelectionResult{}, err
	}
	if !ok {
		return SelectionResult{Status: SelectionNone}, nil
	}

	if a.scheduler.State() == layout.StateLayingOut {
		a.pending = append(a.pending, sel)
		a.log.Debug("queued selection on line %d until layout completes", sel.LineNo)
		return SelectionResult{Status: SelectionQueued}, nil
	}

	label, err := a.bridge.Apply(sel)
	if err != nil {
		return SelectionResult{}, err
	}
	a.log.Info("created label %d on line %d [%d,%d]", label.ID, label.Line+1, label.Start, label.End)
	a.inspect("selection")
	return SelectionResult{Status: SelectionApplied, Label: label}, nil
}

// OnLayoutDone registers fn to run after every completed or failed pass.
func (a *Annotator) OnLayoutDone(fn func(layout.Result)) {
	a.hooks = append(a.hooks, fn)
}

func (a *Annotator) layoutDone(r layout.Result) {
	if errors.Is(r.Err, layout.ErrCanceled) {
		a.log.Debug("layout generation %d canceled", r.Generation)
		return
	}
	a.last = r
	if r.Err != nil {
		a.log.Error("layout failed after %d lines: %v", r.Lines, r.Err)
		a.reportError(r.Err)
	} else {
		a.log.Debug("layout done: %d lines in %d batches, canvas %.0fx%.0f",
			r.Lines, r.Batches, r.Width, r.Height)
	}

	pending := a.pending
	a.pending = nil
	for _, sel := range pending {
		label, err := a.bridge.Apply(sel)
		if err != nil {
			a.log.Warn("dropping queued selection on line %d: %v", sel.LineNo, err)
			a.reportError(err)
			continue
		}
		a.log.Info("created label %d on line %d [%d,%d]", label.ID, label.Line+1, label.Start, label.End)
	}

	a.inspect("layout-done")
	for _, fn := range a.hooks {
		fn(r)
	}
}

func (a *Annotator) reportError(err error) {
	if a.onError != nil {
		a.onError(err)
	}
}

func (a *Annotator) inspect(event string) {
	if a.inspector == nil {
		return
	}
	a.inspector(Inspection{
		Event:      event,
		State:      a.scheduler.State(),
		Generation: a.scheduler.Generation(),
		Pending:    len(a.pending),
		Snapshot:   a.store.Snapshot(),
	})
}

// Export returns every label with offsets converted back to global
// document offsets, ordered by line.
func (a *Annotator) Export() []LabelInput {
	lengths := a.store.LineLengths()
	labels := a.store.AllLabels()
	out := make([]LabelInput, len(labels))
	for i, l := range labels {
		out[i] = LabelInput{
			Pos: [2]int{
				offset.Global(l.Line, l.Start, lengths),
				offset.Global(l.Line, l.End, lengths),
			},
			Category: int(l.Category),
			ID:       l.ID,
		}
	}
	return out
}

// Snapshot returns a copy of the line store.
func (a *Annotator) Snapshot() linestore.Snapshot {
	return a.store.Snapshot()
}

// State returns the layout state.
func (a *Annotator) State() layout.State {
	return a.scheduler.State()
}

// LastLayout returns the result of the most recent finished pass.
func (a *Annotator) LastLayout() layout.Result {
	return a.last
}

// Pending returns the number of selections waiting for layout to finish.
func (a *Annotator) Pending() int {
	return len(a.pending)
}

// Categories returns the category table.
func (a *Annotator) Categories() *category.Table {
	return a.categories
}
