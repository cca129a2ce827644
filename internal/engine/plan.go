package engine

import "fmt"

// Plan is the declarative analysis a model reply must reduce to. Steps run in
// order against the table; the output clause shapes the final result. Nothing
// the model writes is ever executed as code.
type Plan struct {
	Steps  []Step     `json:"steps"`
	Output OutputSpec `json:"output"`
}

// Step is one table transformation. Fields are a union over the ops; the
// validator checks the ones each op requires.
type Step struct {
	Op string `json:"op"` // filter | select | groupby | sort | limit | derive

	// filter
	Column string  `json:"column,omitempty"`
	Cmp    string  `json:"cmp,omitempty"` // eq | ne | gt | ge | lt | le
	Value  float64 `json:"value,omitempty"`

	// select
	Columns []string `json:"columns,omitempty"`

	// groupby
	By        string `json:"by,omitempty"`
	Aggregate string `json:"aggregate,omitempty"` // sum | mean | median | min | max | count
	Target    string `json:"target,omitempty"`

	// sort (reuses Column)
	Descending bool `json:"descending,omitempty"`

	// limit
	N int `json:"n,omitempty"`

	// derive (advanced processing only)
	Name string `json:"name,omitempty"`
	Expr string `json:"expr,omitempty"` // "<col|num> <+|-|*|/> <col|num>"
}

// OutputSpec selects the result shape.
type OutputSpec struct {
	Type string `json:"type"` // table | scalar | plot

	// scalar
	Column    string `json:"column,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`

	// plot
	Kind  string `json:"kind,omitempty"` // bar | line | scatter
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
	Title string `json:"title,omitempty"`
}

var validAggregates = map[string]bool{
	"sum": true, "mean": true, "median": true, "min": true, "max": true, "count": true,
}

var validCmps = map[string]bool{
	"eq": true, "ne": true, "gt": true, "ge": true, "lt": true, "le": true,
}

// looksLikePlan reports whether a decoded JSON object plausibly is a plan at
// all, as opposed to some other JSON the model happened to emit. Anything
// that fails this check falls through to the next parsing stage.
func (p *Plan) looksLikePlan() bool {
	return p.Output.Type != "" || len(p.Steps) > 0
}

// validate rejects plans that parsed but cannot run. The messages come back
// to the user verbatim, so they name the offending clause.
func (p *Plan) validate() error {
	for i, s := range p.Steps {
		switch s.Op {
		case "filter":
			if s.Column == "" {
				return &PlanError{Reason: fmt.Sprintf("step %d: filter needs a column", i+1)}
			}
			if !validCmps[s.Cmp] {
				return &PlanError{Reason: fmt.Sprintf("step %d: unknown comparison %q", i+1, s.Cmp)}
			}
		case "select":
			if len(s.Columns) == 0 {
				return &PlanError{Reason: fmt.Sprintf("step %d: select needs columns", i+1)}
			}
		case "groupby":
			if s.By == "" {
				return &PlanError{Reason: fmt.Sprintf("step %d: groupby needs a by column", i+1)}
			}
			if !validAggregates[s.Aggregate] {
				return &PlanError{Reason: fmt.Sprintf("step %d: unknown aggregate %q", i+1, s.Aggregate)}
			}
			if s.Aggregate != "count" && s.Target == "" {
				return &PlanError{Reason: fmt.Sprintf("step %d: aggregate %q needs a target column", i+1, s.Aggregate)}
			}
		case "sort":
			if s.Column == "" {
				return &PlanError{Reason: fmt.Sprintf("step %d: sort needs a column", i+1)}
			}
		case "limit":
			if s.N <= 0 {
				return &PlanError{Reason: fmt.Sprintf("step %d: limit needs a positive n", i+1)}
			}
		case "derive":
			if s.Name == "" || s.Expr == "" {
				return &PlanError{Reason: fmt.Sprintf("step %d: derive needs a name and an expr", i+1)}
			}
		default:
			return &PlanError{Reason: fmt.Sprintf("step %d: unknown op %q", i+1, s.Op)}
		}
	}

	switch p.Output.Type {
	case "table":
	case "scalar":
		if p.Output.Aggregate != "" && !validAggregates[p.Output.Aggregate] {
			return &PlanError{Reason: fmt.Sprintf("output: unknown aggregate %q", p.Output.Aggregate)}
		}
		if p.Output.Aggregate != "" && p.Output.Aggregate != "count" && p.Output.Column == "" {
			return &PlanError{Reason: "output: scalar aggregate needs a column"}
		}
	case "plot":
		switch p.Output.Kind {
		case "bar", "line", "scatter":
		default:
			return &PlanError{Reason: fmt.Sprintf("output: unknown plot kind %q", p.Output.Kind)}
		}
		if p.Output.X == "" || p.Output.Y == "" {
			return &PlanError{Reason: "output: plot needs x and y columns"}
		}
	case "":
		// Steps-only plans render the transformed table.
		p.Output.Type = "table"
	default:
		return &PlanError{Reason: fmt.Sprintf("output: unknown type %q", p.Output.Type)}
	}
	return nil
}
