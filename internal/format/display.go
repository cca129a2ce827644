// Package format adapts analysis results for display. A Formatter narrows
// the engine's three result shapes onto a Display surface; plots, tables,
// and plain text/warnings/errors are the only sinks any component writes to.
package format

import (
	"github.com/KaramelBytes/tablechat/internal/dataset"
	"github.com/KaramelBytes/tablechat/internal/engine"
)

// Display is the output surface results are rendered onto. The HTTP layer
// collects sink calls into the response; the CLI prints them.
type Display interface {
	Plot(spec *engine.PlotSpec)
	Table(t *dataset.Table)
	Text(s string)
	Warning(s string)
	Error(s string)
}

// DisplayEvent is one recorded sink call in a JSON-friendly shape.
type DisplayEvent struct {
	Type  string           `json:"type"` // plot | table | text | warning | error
	Plot  *engine.PlotSpec `json:"plot,omitempty"`
	Table *TablePayload    `json:"table,omitempty"`
	Text  string           `json:"text,omitempty"`
}

// TablePayload serializes a table with nulls for missing cells.
type TablePayload struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func tablePayload(t *dataset.Table) *TablePayload {
	p := &TablePayload{Columns: t.Cols, Rows: make([][]any, len(t.Rows))}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if v.Missing {
				cells[j] = nil
			} else {
				cells[j] = v.Num
			}
		}
		p.Rows[i] = cells
	}
	return p
}

// Recorder is a Display that collects events in call order. One recorder
// serves one request.
type Recorder struct {
	events []DisplayEvent
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Plot(spec *engine.PlotSpec) {
	r.events = append(r.events, DisplayEvent{Type: "plot", Plot: spec})
}

func (r *Recorder) Table(t *dataset.Table) {
	r.events = append(r.events, DisplayEvent{Type: "table", Table: tablePayload(t)})
}

func (r *Recorder) Text(s string) {
	r.events = append(r.events, DisplayEvent{Type: "text", Text: s})
}

func (r *Recorder) Warning(s string) {
	r.events = append(r.events, DisplayEvent{Type: "warning", Text: s})
}

func (r *Recorder) Error(s string) {
	r.events = append(r.events, DisplayEvent{Type: "error", Text: s})
}

// Events returns the recorded sink calls in order.
func (r *Recorder) Events() []DisplayEvent { return r.events }
