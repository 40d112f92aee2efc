package annotator

import (
	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/layout"
	"github.com/dshills/annotator/internal/annotator/linestore"
	"github.com/dshills/annotator/internal/logging"
)

// Inspection is handed to the inspector after every state change.
type Inspection struct {
	// Event is one of "import", "layout-done", "selection".
	Event      string
	State      layout.State
	Generation uint64
	Pending    int
	Snapshot   linestore.Snapshot
}

// Inspector receives debug snapshots of the annotator.
type Inspector func(Inspection)

// Option configures an Annotator.
type Option func(*options)

type options struct {
	layout     layout.Options
	pacer      layout.Pacer
	logger     *logging.Logger
	inspector  Inspector
	onError    func(error)
	selCat     category.ID
	categories *category.Table
}

func defaultOptions() options {
	return options{
		layout:     layout.DefaultOptions(),
		logger:     logging.Nop(),
		selCat:     0,
		categories: category.DefaultTable(),
	}
}

// WithLayout sets the layout options.
func WithLayout(opts layout.Options) Option {
	return func(o *options) { o.layout = opts }
}

// WithPacer sets the pacer that schedules layout batches. Without one the
// annotator uses a layout.Queue the host must drain (see Annotator.Queue).
func WithPacer(p layout.Pacer) Option {
	return func(o *options) { o.pacer = p }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithInspector installs a debug callback.
func WithInspector(fn Inspector) Option {
	return func(o *options) { o.inspector = fn }
}

// WithErrorHandler receives errors raised outside a caller's stack: failed
// layout passes and queued selections that could not be applied.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithSelectionCategory sets the category of interactively created labels.
func WithSelectionCategory(id category.ID) Option {
	return func(o *options) { o.selCat = id }
}

// WithCategories replaces the category table.
func WithCategories(t *category.Table) Option {
	return func(o *options) {
		if t != nil {
			o.categories = t
		}
	}
}
