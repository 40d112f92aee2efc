package labelfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/annotator/internal/annotator"
)

var sample = []annotator.LabelInput{
	{Pos: [2]int{12, 16}, Category: 2, ID: 0},
	{Pos: [2]int{24, 30}, Category: 4, ID: 1},
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []annotator.LabelInput
	}{
		{
			name: "yaml list",
			in:   "- pos: [12, 16]\n  category: 2\n  id: 0\n- pos: [24, 30]\n  category: 4\n  id: 1\n",
			want: sample,
		},
		{
			name: "json list",
			in:   `[{"pos":[12,16],"category":2,"id":0},{"pos":[24,30],"category":4,"id":1}]`,
			want: sample,
		},
		{
			name: "wrapped document",
			in:   "labels:\n  - pos: [12, 16]\n    category: 2\n    id: 0\n",
			want: sample[:1],
		},
		{
			name: "missing ids use position",
			in:   `[{"pos":[1,2],"category":1},{"pos":[3,4],"category":1}]`,
			want: []annotator.LabelInput{
				{Pos: [2]int{1, 2}, Category: 1, ID: 0},
				{Pos: [2]int{3, 4}, Category: 1, ID: 1},
			},
		},
		{
			name: "empty",
			in:   "  \n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		malformed bool
	}{
		{"three offsets", `[{"pos":[1,2,3],"category":1}]`, true},
		{"no offsets", `[{"category":1}]`, true},
		{"scalar", `42`, true},
		{"bad yaml", "- pos: [1, 2\n", false},
		{"wrong type", `[{"pos":["a","b"]}]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if got := errors.Is(err, ErrMalformed); got != tt.malformed {
				t.Errorf("errors.Is(ErrMalformed) = %v, want %v (%v)", got, tt.malformed, err)
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"labels.json", JSON},
		{"LABELS.JSON", JSON},
		{"labels.yaml", YAML},
		{"labels", YAML},
	}
	for _, tt := range tests {
		if got := FormatFor(tt.path); got != tt.want {
			t.Errorf("FormatFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"labels.yaml", "labels.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(path, sample); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if diff := cmp.Diff(sample, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			entries, _ := os.ReadDir(dir)
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), ".") {
					t.Errorf("temporary file %s left behind", e.Name())
				}
			}
		})
	}
}

func TestMarshalJSONEmpty(t *testing.T) {
	data, err := Marshal(nil, JSON)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Marshal(nil) = %q, want []", data)
	}
}

func TestLoadErrors(t *testing.T) {
	if got, err := Load(""); got != nil || err != nil {
		t.Errorf("Load(\"\") = %v, %v", got, err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode(strings.NewReader(`[{"pos":[0,0],"category":3,"id":9}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 9 || got[0].Category != 3 {
		t.Errorf("Decode() = %+v", got)
	}
}
