package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tablechat/internal/dataset"
	"github.com/KaramelBytes/tablechat/internal/engine"
)

// ConsoleDisplay renders sink calls as text for the one-shot CLI.
type ConsoleDisplay struct {
	w io.Writer
}

func NewConsoleDisplay(w io.Writer) *ConsoleDisplay {
	return &ConsoleDisplay{w: w}
}

// Plot prints the chart as a labeled series listing; the CLI has no pixel
// surface.
func (c *ConsoleDisplay) Plot(spec *engine.PlotSpec) {
	title := spec.Title
	if title == "" {
		title = fmt.Sprintf("%s by %s", spec.YLabel, spec.XLabel)
	}
	fmt.Fprintf(c.w, "\n[%s chart] %s\n", spec.Kind, title)
	for _, s := range spec.Series {
		if len(spec.Series) > 1 {
			fmt.Fprintf(c.w, "  series %s:\n", s.Name)
		}
		for i, p := range s.Points {
			label := ""
			if i < len(spec.X) {
				label = spec.X[i]
			}
			fmt.Fprintf(c.w, "  %s: %s\n", label, strconv.FormatFloat(p, 'g', -1, 64))
		}
	}
}

// Table prints an aligned text table.
func (c *ConsoleDisplay) Table(t *dataset.Table) {
	widths := make([]int, len(t.Cols))
	for i, col := range t.Cols {
		widths[i] = len(col)
	}
	cells := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells[r] = make([]string, len(row))
		for i, v := range row {
			s := v.String()
			cells[r][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	fmt.Fprintln(c.w)
	printRow := func(vals []string) {
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = pad(v, widths[i])
		}
		fmt.Fprintf(c.w, "  %s\n", strings.Join(parts, "  "))
	}
	printRow(t.Cols)
	rule := make([]string, len(t.Cols))
	for i := range rule {
		rule[i] = strings.Repeat("-", widths[i])
	}
	printRow(rule)
	for _, row := range cells {
		printRow(row)
	}
}

func (c *ConsoleDisplay) Text(s string)    { fmt.Fprintln(c.w, s) }
func (c *ConsoleDisplay) Warning(s string) { fmt.Fprintln(c.w, "⚠", s) }
func (c *ConsoleDisplay) Error(s string)   { fmt.Fprintln(c.w, "✗", s) }

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
