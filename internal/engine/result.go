package engine

import "github.com/KaramelBytes/tablechat/internal/dataset"

// ResultKind tags the three shapes an analysis can produce.
type ResultKind string

const (
	KindPlot   ResultKind = "plot"
	KindTable  ResultKind = "table"
	KindScalar ResultKind = "scalar" // scalar-or-text
)

// Result is the tagged value handed to the response formatter. It is rendered
// once and never stored.
type Result struct {
	Kind ResultKind

	// Plot is set when Kind is KindPlot.
	Plot *PlotSpec
	// Table is set when Kind is KindTable.
	Table *dataset.Table

	// Scalar-or-text payload. Answer carries the model's own words when no
	// plan could be parsed from its reply. HasValue marks a computed number.
	// ValueTable carries a table-shaped value that arrived where a scalar was
	// expected; the formatter falls back to the tabular sink for it.
	Answer     string
	HasValue   bool
	Value      float64
	ValueTable *dataset.Table
}

// PlotSpec describes a rendered chart: category labels on the x axis and one
// or more aligned series. Rows whose y cell is missing contribute no point.
type PlotSpec struct {
	Kind   string       `json:"kind"` // bar | line | scatter
	Title  string       `json:"title,omitempty"`
	XLabel string       `json:"x_label,omitempty"`
	YLabel string       `json:"y_label,omitempty"`
	X      []string     `json:"x"`
	Series []PlotSeries `json:"series"`
}

// PlotSeries is one named sequence of points aligned with PlotSpec.X.
type PlotSeries struct {
	Name   string    `json:"name"`
	Points []float64 `json:"points"`
}

// ResponseFormatter adapts a Result into display side effects plus a final
// answer string. The web layer and the CLI each bind one to their own display
// surface.
type ResponseFormatter interface {
	Format(Result) string
}
