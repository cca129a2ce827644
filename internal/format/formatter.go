package format

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/tablechat/internal/engine"
)

// Confirmation strings returned in place of a textual answer when the real
// output went to a plot or table sink.
const (
	PlotConfirmation  = "Plot successfully generated and displayed above."
	TableConfirmation = "Resulting DataFrame is displayed above."
	NoAnswer          = "Analysis code executed successfully, but a definitive final answer was not parsed."
)

// Formatter renders results onto a display surface and returns the final
// answer string. It implements engine.ResponseFormatter.
type Formatter struct {
	display Display
}

var _ engine.ResponseFormatter = (*Formatter)(nil)

// NewFormatter binds a formatter to its display surface.
func NewFormatter(d Display) *Formatter {
	return &Formatter{display: d}
}

// Format dispatches on the result shape. For scalar-or-text results the
// ladder is: textual answer verbatim, then a numeric value with thousands
// separators, then a table-shaped value through the tabular sink, and finally
// the fixed no-answer string.
func (f *Formatter) Format(res engine.Result) string {
	switch res.Kind {
	case engine.KindPlot:
		f.display.Plot(res.Plot)
		return PlotConfirmation
	case engine.KindTable:
		f.display.Table(res.Table)
		return TableConfirmation
	}

	if res.Answer != "" {
		return res.Answer
	}
	if res.HasValue {
		return fmt.Sprintf("The calculated result is: %s", formatNumber(res.Value))
	}
	if res.ValueTable != nil {
		f.display.Table(res.ValueTable)
		return TableConfirmation
	}
	return NoAnswer
}

// formatNumber renders a value with thousands separators, dropping the
// decimal part when the value is integral.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return humanize.Comma(int64(v))
	}
	return humanize.Commaf(v)
}
