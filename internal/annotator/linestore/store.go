// Package linestore holds the document lines, their labels and the render
// handles drawn for them.
//
// Labels are bucketed per line in a map; a line without labels has no
// bucket at all. The store is not safe for concurrent use: all mutation is
// expected to happen on the annotator's task loop.
package linestore

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/draw"
)

// Store errors.
var (
	// ErrNotReset is returned by Ingest when the store still holds lines.
	ErrNotReset = errors.New("line store must be reset before ingesting")

	// ErrLineOutOfRange is returned when a label targets a missing line.
	ErrLineOutOfRange = errors.New("line index out of range")

	// ErrInvalidRange is returned when a label's start is after its end.
	ErrInvalidRange = errors.New("label start after end")
)

// Label is a categorized span within one line. Start and End are rune
// offsets into the line's raw text; End is inclusive.
type Label struct {
	ID       int
	Category category.ID
	Line     int
	Start    int
	End      int
}

// Line is the per-line record.
type Line struct {
	Raw         string
	Text        draw.TextNode
	Annotations []draw.Node
	Highlights  []draw.Node
}

// RuneLen returns the line length in runes.
func (l *Line) RuneLen() int {
	return utf8.RuneCountInString(l.Raw)
}

// Store is the in-memory model of lines and labels.
type Store struct {
	lines  []*Line
	labels map[int][]Label
	count  int
}

// New creates an empty store.
func New() *Store {
	return &Store{labels: make(map[int][]Label)}
}

// Reset drops all lines, labels and render handles.
func (s *Store) Reset() {
	s.lines = nil
	s.labels = make(map[int][]Label)
	s.count = 0
}

// Ingest splits raw into lines and stores them in document order.
func (s *Store) Ingest(raw string) ([]string, error) {
	if len(s.lines) > 0 || s.count > 0 {
		return nil, ErrNotReset
	}
	parts := Split(raw)
	s.lines = make([]*Line, len(parts))
	for i, p := range parts {
		s.lines[i] = &Line{Raw: p}
	}
	return parts, nil
}

// Len returns the number of lines.
func (s *Store) Len() int {
	return len(s.lines)
}

// Line returns the record for line i, or nil if out of range.
func (s *Store) Line(i int) *Line {
	if i < 0 || i >= len(s.lines) {
		return nil
	}
	return s.lines[i]
}

// LineLengths returns every line's length in runes.
func (s *Store) LineLengths() []int {
	out := make([]int, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.RuneLen()
	}
	return out
}

// Bucket appends label to its line's bucket, creating the bucket if needed.
func (s *Store) Bucket(label Label) error {
	if s.Line(label.Line) == nil {
		return fmt.Errorf("label %d on line %d: %w", label.ID, label.Line, ErrLineOutOfRange)
	}
	if label.Start > label.End {
		return fmt.Errorf("label %d [%d,%d]: %w", label.ID, label.Start, label.End, ErrInvalidRange)
	}
	s.labels[label.Line] = append(s.labels[label.Line], label)
	s.count++
	return nil
}

// AppendInteractive records a label created by selection. Its ID is the
// number of labels currently held across all lines.
func (s *Store) AppendInteractive(line, start, end int, cat category.ID) (Label, error) {
	label := Label{
		ID:       s.count,
		Category: cat,
		Line:     line,
		Start:    start,
		End:      end,
	}
	if err := s.Bucket(label); err != nil {
		return Label{}, err
	}
	return label, nil
}

// Labels returns a copy of the labels bucketed on line i.
func (s *Store) Labels(i int) []Label {
	bucket, ok := s.labels[i]
	if !ok {
		return nil
	}
	return append([]Label(nil), bucket...)
}

// HasBucket reports whether line i has a label bucket.
func (s *Store) HasBucket(i int) bool {
	_, ok := s.labels[i]
	return ok
}

// LabelCount returns the total number of labels across all lines.
func (s *Store) LabelCount() int {
	return s.count
}

// AllLabels returns every label ordered by line, then insertion order.
func (s *Store) AllLabels() []Label {
	lines := make([]int, 0, len(s.labels))
	for i := range s.labels {
		lines = append(lines, i)
	}
	sort.Ints(lines)

	out := make([]Label, 0, s.count)
	for _, i := range lines {
		out = append(out, s.labels[i]...)
	}
	return out
}

// AttachText records the rendered text node for line i.
func (s *Store) AttachText(i int, node draw.TextNode) error {
	l := s.Line(i)
	if l == nil {
		return fmt.Errorf("attach text to line %d: %w", i, ErrLineOutOfRange)
	}
	l.Text = node
	return nil
}

// AttachAnnotation records an imported-label overlay for line i.
func (s *Store) AttachAnnotation(i int, node draw.Node) error {
	l := s.Line(i)
	if l == nil {
		return fmt.Errorf("attach annotation to line %d: %w", i, ErrLineOutOfRange)
	}
	l.Annotations = append(l.Annotations, node)
	return nil
}

// AttachHighlight records a selection overlay for line i.
func (s *Store) AttachHighlight(i int, node draw.Node) error {
	l := s.Line(i)
	if l == nil {
		return fmt.Errorf("attach highlight to line %d: %w", i, ErrLineOutOfRange)
	}
	l.Highlights = append(l.Highlights, node)
	return nil
}

// LineSnapshot is a value copy of one line without render handles.
type LineSnapshot struct {
	Raw         string
	Labels      []Label
	Annotations int
	Highlights  int
}

// Snapshot is a value copy of the whole store.
type Snapshot struct {
	Lines      []LineSnapshot
	LabelCount int
}

// Snapshot copies the store's lines and labels.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Lines:      make([]LineSnapshot, len(s.lines)),
		LabelCount: s.count,
	}
	for i, l := range s.lines {
		snap.Lines[i] = LineSnapshot{
			Raw:         l.Raw,
			Labels:      s.Labels(i),
			Annotations: len(l.Annotations),
			Highlights:  len(l.Highlights),
		}
	}
	return snap
}
