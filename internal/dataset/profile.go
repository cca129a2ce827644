package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ColumnProfile captures per-column statistics over the coerced cells.
type ColumnProfile struct {
	Name    string  `json:"name"`
	NonNull int     `json:"non_null"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
}

// Profile is a prompt-friendly summary of a table.
type Profile struct {
	Name    string          `json:"name"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
	// Samples holds the first rows rendered as strings for the prompt head.
	Samples [][]string `json:"-"`
}

// NewProfile computes statistics for every column and keeps the first
// sampleRows rows for the prompt block.
func NewProfile(t *Table, name string, sampleRows int) *Profile {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	p := &Profile{Name: name, Rows: t.RowCount()}
	for j, col := range t.Cols {
		cp := ColumnProfile{Name: col, Min: math.Inf(1), Max: math.Inf(-1)}
		// Welford accumulation
		var n int
		var mean, m2 float64
		for _, row := range t.Rows {
			v := row[j]
			if v.Missing {
				cp.Missing++
				continue
			}
			cp.NonNull++
			x := v.Num
			if x < cp.Min {
				cp.Min = x
			}
			if x > cp.Max {
				cp.Max = x
			}
			n++
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
		}
		cp.Mean = mean
		if n > 1 {
			cp.Std = math.Sqrt(m2 / float64(n-1))
		}
		if cp.NonNull == 0 {
			cp.Min, cp.Max, cp.Mean, cp.Std = 0, 0, 0, 0
		}
		p.Columns = append(p.Columns, cp)
	}
	limit := sampleRows
	if limit > t.RowCount() {
		limit = t.RowCount()
	}
	for i := 0; i < limit; i++ {
		row := make([]string, t.ColCount())
		for j := range t.Cols {
			row[j] = t.Rows[i][j].String()
		}
		p.Samples = append(p.Samples, row)
	}
	return p
}

// PromptBlock renders a compact summary suitable for embedding in prompts.
func (p *Profile) PromptBlock() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		if c.NonNull == 0 {
			b.WriteString(fmt.Sprintf("- %s: all missing (non-null 0, missing %.1f%%)\n", safeName(c.Name), missPct))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: numeric (non-null %d, missing %.1f%%), min %.4g, max %.4g, mean %.4g, std %.4g\n",
			safeName(c.Name), c.NonNull, missPct, c.Min, c.Max, c.Mean, c.Std))
	}

	if len(p.Samples) > 0 {
		b.WriteString("\n[HEAD ROWS]\n")
		b.WriteString("| ")
		for i, c := range p.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range p.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range p.Samples {
			b.WriteString("| ")
			for i := range p.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// Quantile interpolates the q-quantile of a sorted slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median returns the middle value of an unsorted slice.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return Quantile(cp, 0.5)
}
