package go4sqlite

import (
	"fmt"
	"io"
	"strings"
)

// RenderOptions controls Table.Render.
type RenderOptions struct {
	MaxWidth int // max width for each column, 0 means 40
}

// Render writes the table as an ASCII grid, one header row taken from
// the first row's Field names. Cells wider than MaxWidth are truncated
// with "...". An empty table renders as "(no rows)".
func (t Table) Render(w io.Writer, opts RenderOptions) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 40
	}
	if len(t) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	cols := len(t[0])
	widths := make([]int, cols)
	for i, f := range t[0] {
		widths[i] = len(f.Name)
	}
	for _, r := range t {
		for i, f := range r {
			if i >= cols {
				break
			}
			if l := len(f.Value); l > widths[i] {
				if l > opts.MaxWidth {
					l = opts.MaxWidth
				}
				widths[i] = l
			}
		}
	}

	sep := func(ch string) string {
		var b strings.Builder
		b.WriteString("+")
		for i := range widths {
			b.WriteString(strings.Repeat(ch, widths[i]+2))
			b.WriteString("+")
		}
		return b.String()
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		b.WriteString("|")
		for i, c := range cells {
			cut := truncate(c, widths[i])
			b.WriteString(" ")
			b.WriteString(padRight(cut, widths[i]))
			b.WriteString(" |")
		}
		fmt.Fprintln(w, b.String())
	}

	fmt.Fprintln(w, sep("-"))
	header := make([]string, cols)
	for i, f := range t[0] {
		header[i] = f.Name
	}
	writeRow(header)
	fmt.Fprintln(w, sep("="))

	for _, r := range t {
		cells := make([]string, cols)
		for i, f := range r {
			if i >= cols {
				break
			}
			cells[i] = f.Value
		}
		writeRow(cells)
	}
	fmt.Fprintln(w, sep("-"))
}

// String renders with default options.
func (t Table) String() string {
	var b strings.Builder
	t.Render(&b, RenderOptions{})
	return b.String()
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	if w <= 3 {
		return s[:w]
	}
	return s[:w-3] + "..."
}
