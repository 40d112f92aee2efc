// Package report formats an annotated document for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"

	"github.com/dshills/annotator/internal/annotator"
	"github.com/dshills/annotator/internal/annotator/category"
	"github.com/dshills/annotator/internal/annotator/layout"
	"github.com/dshills/annotator/internal/annotator/linestore"
)

// DefaultPreviewWidth is the number of cells of line text shown per line.
const DefaultPreviewWidth = 48

// Report is everything shown by the inspect command.
type Report struct {
	Title      string
	Snapshot   linestore.Snapshot
	Import     annotator.ImportReport
	Layout     layout.Result
	Categories *category.Table

	// PreviewWidth limits the line preview; 0 selects DefaultPreviewWidth.
	PreviewWidth int
}

type styles struct {
	title   lipgloss.Style
	key     lipgloss.Style
	lineNo  lipgloss.Style
	text    lipgloss.Style
	warn    lipgloss.Style
	box     lipgloss.Style
	chipFor func(d category.Descriptor) lipgloss.Style
}

func newStyles(re *lipgloss.Renderer) styles {
	return styles{
		title:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		key:    re.NewStyle().Foreground(lipgloss.Color("241")),
		lineNo: re.NewStyle().Foreground(lipgloss.Color("241")).Width(5).Align(lipgloss.Right),
		text:   re.NewStyle(),
		warn:   re.NewStyle().Foreground(lipgloss.Color("196")),
		box:    re.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
		chipFor: func(d category.Descriptor) lipgloss.Style {
			return re.NewStyle().
				Background(lipgloss.Color(d.Fill.Hex())).
				Foreground(lipgloss.Color(d.Border.Hex())).
				Padding(0, 1)
		},
	}
}

// Write renders r for w, using colors only if w supports them.
func Write(w io.Writer, r Report) error {
	_, err := io.WriteString(w, Render(lipgloss.NewRenderer(w), r)+"\n")
	return err
}

// Render formats r with the given renderer.
func Render(re *lipgloss.Renderer, r Report) string {
	st := newStyles(re)
	table := r.Categories
	if table == nil {
		table = category.DefaultTable()
	}
	width := r.PreviewWidth
	if width <= 0 {
		width = DefaultPreviewWidth
	}

	var b strings.Builder
	b.WriteString(st.title.Render(r.Title) + "\n")
	b.WriteString(summary(st, r) + "\n\n")

	for i, line := range r.Snapshot.Lines {
		b.WriteString(st.lineNo.Render(fmt.Sprint(i+1)) + "  ")
		b.WriteString(st.text.Render(truncate(strings.TrimRight(line.Raw, "\r\n"), width)))
		b.WriteString("\n")
		runes := []rune(line.Raw)
		for _, l := range line.Labels {
			d := table.LookupOrDefault(l.Category)
			b.WriteString("       ")
			b.WriteString(st.chipFor(d).Render(d.Text))
			b.WriteString(fmt.Sprintf(" #%d [%d,%d] %s\n", l.ID, l.Start, l.End, quote(runes, l.Start, l.End)))
		}
	}

	if len(r.Import.Skipped) > 0 {
		b.WriteString("\n" + st.warn.Render(fmt.Sprintf("%d label(s) skipped:", len(r.Import.Skipped))) + "\n")
		for _, err := range r.Import.Skipped {
			b.WriteString("  " + err.Error() + "\n")
		}
	}

	b.WriteString("\n" + legend(st, table))
	return strings.TrimRight(b.String(), "\n")
}

func summary(st styles, r Report) string {
	rows := []string{
		st.key.Render("lines      ") + fmt.Sprint(len(r.Snapshot.Lines)),
		st.key.Render("labels     ") + fmt.Sprintf("%d (%d imported, %d skipped)",
			r.Snapshot.LabelCount, r.Import.Accepted, len(r.Import.Skipped)),
		st.key.Render("layout     ") + fmt.Sprintf("%d batches, canvas %.0fx%.0f",
			r.Layout.Batches, r.Layout.Width, r.Layout.Height),
	}
	if r.Layout.Err != nil {
		rows = append(rows, st.warn.Render("error      "+r.Layout.Err.Error()))
	}
	return st.box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func legend(st styles, table *category.Table) string {
	parts := make([]string, 0, len(table.Primary()))
	for _, d := range table.Primary() {
		parts = append(parts, st.chipFor(d).Render(fmt.Sprintf("%d %s", int(d.ID), d.Text)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// quote returns the runes [start, end] of a line, quoted.
func quote(runes []rune, start, end int) string {
	if start < 0 || end >= len(runes) || end < start {
		return ""
	}
	return fmt.Sprintf("%q", string(runes[start:end+1]))
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	return b.String() + "…"
}
