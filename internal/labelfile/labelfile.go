// Package labelfile reads and writes label sets.
//
// A label file is a list of labels, each with a two-element pos (global
// rune offsets, end inclusive), a category and an id:
//
//	- pos: [12, 16]
//	  category: 2
//	  id: 0
//
// The list may also be wrapped in a document under a "labels" key. Files
// ending in .json are read and written as JSON; everything else is YAML.
package labelfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/annotator/internal/annotator"
)

// ErrMalformed is returned for a label that does not have the expected shape.
var ErrMalformed = errors.New("malformed label")

// Format is a label file encoding.
type Format uint8

const (
	// YAML is the default format.
	YAML Format = iota
	// JSON is used for paths ending in .json.
	JSON
)

// String returns the format name.
func (f Format) String() string {
	if f == JSON {
		return "json"
	}
	return "yaml"
}

// FormatFor picks the format from the file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// entry mirrors annotator.LabelInput with a slice so that a wrong number
// of offsets is reported instead of silently padded.
type entry struct {
	Pos      []int `yaml:"pos" json:"pos"`
	Category int   `yaml:"category" json:"category"`
	ID       *int  `yaml:"id" json:"id"`
}

type document struct {
	Labels []entry `yaml:"labels" json:"labels"`
}

// Load reads the label file at path. An empty path yields no labels.
func Load(path string) ([]annotator.LabelInput, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	labels, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}

// Decode reads a label set from r.
func Decode(r io.Reader) ([]annotator.LabelInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return Parse(data)
}

// Parse decodes a label set. JSON input is accepted as YAML.
func Parse(data []byte) ([]annotator.LabelInput, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}

	var entries []entry
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode labels: %w", err)
		}
	case yaml.MappingNode:
		var doc document
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode labels: %w", err)
		}
		entries = doc.Labels
	default:
		return nil, fmt.Errorf("%w: expected a list of labels", ErrMalformed)
	}

	labels := make([]annotator.LabelInput, 0, len(entries))
	for i, e := range entries {
		if len(e.Pos) != 2 {
			return nil, fmt.Errorf("%w: label %d has %d offsets, want 2", ErrMalformed, i, len(e.Pos))
		}
		id := i
		if e.ID != nil {
			id = *e.ID
		}
		labels = append(labels, annotator.LabelInput{
			Pos:      [2]int{e.Pos[0], e.Pos[1]},
			Category: e.Category,
			ID:       id,
		})
	}
	return labels, nil
}

// Encode writes labels to w in the given format.
func Encode(w io.Writer, labels []annotator.LabelInput, f Format) error {
	if labels == nil {
		labels = []annotator.LabelInput{}
	}
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(labels)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(labels); err != nil {
			return err
		}
		return enc.Close()
	}
}

// Marshal returns labels encoded in the given format.
func Marshal(labels []annotator.LabelInput, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, labels, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes labels to path, choosing the format from its extension. The
// file is replaced atomically.
func Save(path string, labels []annotator.LabelInput) error {
	data, err := Marshal(labels, FormatFor(path))
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("save labels: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save labels: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save labels: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save labels: %w", err)
	}
	return nil
}
