package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(0); !errors.Is(err, ErrNoPaths) {
		t.Errorf("New() error = %v, want ErrNoPaths", err)
	}
	if _, err := New(0, ""); !errors.Is(err, ErrNoPaths) {
		t.Errorf("New(\"\") error = %v, want ErrNoPaths", err)
	}
	if _, err := New(0, filepath.Join(t.TempDir(), "missing.txt")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("New(missing) error = %v, want ErrPathNotExist", err)
	}
}

func TestWatcherCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.txt")
	labels := filepath.Join(dir, "labels.yaml")
	other := filepath.Join(dir, "other.txt")
	writeFile(t, doc, "a")
	writeFile(t, labels, "[]")
	writeFile(t, other, "x")

	w, err := New(50*time.Millisecond, doc, labels)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	if got := w.Files(); len(got) != 2 {
		t.Errorf("Files() = %v", got)
	}

	writeFile(t, other, "ignored")
	writeFile(t, doc, "b")
	writeFile(t, doc, "c")
	writeFile(t, labels, "[]")

	select {
	case change := <-w.Changes():
		if len(change.Paths) != 2 {
			t.Errorf("change paths = %v, want doc and labels", change.Paths)
		}
		for _, p := range change.Paths {
			if filepath.Base(p) == "other.txt" {
				t.Error("unwatched file reported")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}

	if s := w.Stats(); s.TotalChanges != 1 || s.WatchedFiles != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestWatcherDetectsRenameOver(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.txt")
	writeFile(t, doc, "a")

	w, err := New(20*time.Millisecond, doc)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	tmp := filepath.Join(dir, ".doc.tmp")
	writeFile(t, tmp, "new")
	if err := os.Rename(tmp, doc); err != nil {
		t.Fatal(err)
	}

	select {
	case change := <-w.Changes():
		if len(change.Paths) != 1 || filepath.Base(change.Paths[0]) != "doc.txt" {
			t.Errorf("change = %+v", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
}

func TestWatcherClose(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "doc.txt")
	writeFile(t, doc, "a")

	w, err := New(0, doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
	if _, ok := <-w.Changes(); ok {
		t.Error("Changes channel should be closed")
	}
}
