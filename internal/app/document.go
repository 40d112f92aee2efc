package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/annotator/internal/annotator"
	"github.com/dshills/annotator/internal/labelfile"
)

// Document is a text file and the labels imported with it.
type Document struct {
	// Path is the document file.
	Path string

	// Name is the display name.
	Name string

	// LabelsPath is the label file, if any.
	LabelsPath string

	Text   string
	Labels []annotator.LabelInput
}

// LoadDocument reads a document and its optional label file.
func LoadDocument(path, labelsPath string) (*Document, error) {
	if path == "" {
		return nil, ErrNoDocument
	}
	doc := &Document{
		Path:       path,
		Name:       filepath.Base(path),
		LabelsPath: labelsPath,
	}
	if err := doc.Reload(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Reload re-reads the document and label files.
func (d *Document) Reload() error {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return NewOperationError("load", d.Path, err)
	}
	labels, err := labelfile.Load(d.LabelsPath)
	if err != nil {
		return NewOperationError("load labels", d.LabelsPath, err)
	}
	d.Text = string(data)
	d.Labels = labels
	return nil
}

// WatchPaths returns the files whose changes require a re-import.
func (d *Document) WatchPaths() []string {
	paths := []string{d.Path}
	if d.LabelsPath != "" {
		paths = append(paths, d.LabelsPath)
	}
	return paths
}

// SavePath returns where labels are saved: out if set, then the label
// file, then a file next to the document.
func (d *Document) SavePath(out string) string {
	switch {
	case out != "":
		return out
	case d.LabelsPath != "":
		return d.LabelsPath
	}
	return strings.TrimSuffix(d.Path, filepath.Ext(d.Path)) + ".labels.yaml"
}
