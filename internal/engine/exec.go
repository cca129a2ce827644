package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tablechat/internal/dataset"
)

// executePlan runs the validated plan's steps in order and shapes the final
// table per the output clause. advanced gates the derive op.
func executePlan(t *dataset.Table, p *Plan, advanced bool) (Result, error) {
	cur := t
	for _, s := range p.Steps {
		var err error
		switch s.Op {
		case "filter":
			cur, err = stepFilter(cur, s)
		case "select":
			cur, err = stepSelect(cur, s)
		case "groupby":
			cur, err = stepGroupBy(cur, s)
		case "sort":
			cur, err = stepSort(cur, s)
		case "limit":
			cur = stepLimit(cur, s)
		case "derive":
			if !advanced {
				return Result{}, execErr("derive", "derive steps require advanced processing, which is disabled")
			}
			cur, err = stepDerive(cur, s)
		}
		if err != nil {
			return Result{}, err
		}
	}
	return shapeOutput(cur, p.Output)
}

func stepFilter(t *dataset.Table, s Step) (*dataset.Table, error) {
	col, ok := t.ColumnIndex(s.Column)
	if !ok {
		return nil, execErr("filter", "unknown column %q", s.Column)
	}
	rows := make([][]dataset.Value, 0, len(t.Rows))
	for _, row := range t.Rows {
		v := row[col]
		// Missing cells never satisfy a predicate.
		if v.Missing {
			continue
		}
		if cmpMatch(v.Num, s.Cmp, s.Value) {
			rows = append(rows, row)
		}
	}
	return &dataset.Table{Cols: t.Cols, Rows: rows}, nil
}

func cmpMatch(v float64, cmp string, target float64) bool {
	switch cmp {
	case "eq":
		return v == target
	case "ne":
		return v != target
	case "gt":
		return v > target
	case "ge":
		return v >= target
	case "lt":
		return v < target
	case "le":
		return v <= target
	}
	return false
}

func stepSelect(t *dataset.Table, s Step) (*dataset.Table, error) {
	idx := make([]int, 0, len(s.Columns))
	for _, name := range s.Columns {
		i, ok := t.ColumnIndex(name)
		if !ok {
			return nil, execErr("select", "unknown column %q", name)
		}
		idx = append(idx, i)
	}
	return t.Select(idx), nil
}

// stepGroupBy reduces the table to one row per distinct key. The aggregated
// column keeps the target column's name; count produces a column named
// "count". Groups come back ordered by key ascending, missing key last.
func stepGroupBy(t *dataset.Table, s Step) (*dataset.Table, error) {
	by, ok := t.ColumnIndex(s.By)
	if !ok {
		return nil, execErr("groupby", "unknown column %q", s.By)
	}
	target := -1
	outCol := "count"
	if s.Aggregate != "count" {
		ti, ok := t.ColumnIndex(s.Target)
		if !ok {
			return nil, execErr("groupby", "unknown column %q", s.Target)
		}
		target = ti
		outCol = t.Cols[ti]
	}

	type group struct {
		key     dataset.Value
		members []dataset.Value
	}
	groups := make(map[string]*group)
	var order []string
	for _, row := range t.Rows {
		k := row[by].String()
		g, ok := groups[k]
		if !ok {
			g = &group{key: row[by]}
			groups[k] = g
			order = append(order, k)
		}
		if target >= 0 {
			g.members = append(g.members, row[target])
		} else {
			g.members = append(g.members, row[by])
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := groups[order[i]].key, groups[order[j]].key
		if a.Missing != b.Missing {
			return b.Missing
		}
		return a.Num < b.Num
	})

	out := &dataset.Table{Cols: []string{t.Cols[by], outCol}}
	for _, k := range order {
		g := groups[k]
		agg, ok := aggregate(g.members, s.Aggregate)
		cell := dataset.MissingValue
		if ok {
			cell = dataset.Num(agg)
		}
		out.Rows = append(out.Rows, []dataset.Value{g.key, cell})
	}
	return out, nil
}

func stepSort(t *dataset.Table, s Step) (*dataset.Table, error) {
	col, ok := t.ColumnIndex(s.Column)
	if !ok {
		return nil, execErr("sort", "unknown column %q", s.Column)
	}
	rows := make([][]dataset.Value, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][col], rows[j][col]
		// Missing sorts last in either direction.
		if a.Missing != b.Missing {
			return b.Missing
		}
		if a.Missing {
			return false
		}
		if s.Descending {
			return a.Num > b.Num
		}
		return a.Num < b.Num
	})
	return &dataset.Table{Cols: t.Cols, Rows: rows}, nil
}

func stepLimit(t *dataset.Table, s Step) *dataset.Table {
	return t.Head(s.N)
}

// stepDerive appends a computed column from a three-token expression where
// each operand is a column name or a numeric literal. Any missing operand
// makes the derived cell missing.
func stepDerive(t *dataset.Table, s Step) (*dataset.Table, error) {
	tokens := strings.Fields(s.Expr)
	if len(tokens) != 3 {
		return nil, execErr("derive", "expr must be %q, got %q", "<col|num> <op> <col|num>", s.Expr)
	}
	lhs, err := operand(t, tokens[0])
	if err != nil {
		return nil, err
	}
	op := tokens[1]
	rhs, err := operand(t, tokens[2])
	if err != nil {
		return nil, err
	}
	if op != "+" && op != "-" && op != "*" && op != "/" {
		return nil, execErr("derive", "unknown operator %q", op)
	}

	cols := append(append([]string{}, t.Cols...), s.Name)
	rows := make([][]dataset.Value, len(t.Rows))
	for i, row := range t.Rows {
		a, b := lhs(row), rhs(row)
		cell := dataset.MissingValue
		if !a.Missing && !b.Missing {
			switch op {
			case "+":
				cell = dataset.Num(a.Num + b.Num)
			case "-":
				cell = dataset.Num(a.Num - b.Num)
			case "*":
				cell = dataset.Num(a.Num * b.Num)
			case "/":
				cell = dataset.Num(a.Num / b.Num)
			}
		}
		rows[i] = append(append([]dataset.Value{}, row...), cell)
	}
	return &dataset.Table{Cols: cols, Rows: rows}, nil
}

func operand(t *dataset.Table, token string) (func([]dataset.Value) dataset.Value, error) {
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		lit := dataset.Num(f)
		return func([]dataset.Value) dataset.Value { return lit }, nil
	}
	col, ok := t.ColumnIndex(token)
	if !ok {
		return nil, execErr("derive", "unknown column %q", token)
	}
	return func(row []dataset.Value) dataset.Value { return row[col] }, nil
}

// aggregate reduces values to a single number. sum and count always produce a
// value; the others report ok=false when every cell is missing.
func aggregate(values []dataset.Value, agg string) (float64, bool) {
	var present []float64
	for _, v := range values {
		if !v.Missing {
			present = append(present, v.Num)
		}
	}
	switch agg {
	case "count":
		return float64(len(present)), true
	case "sum":
		var s float64
		for _, v := range present {
			s += v
		}
		return s, true
	}
	if len(present) == 0 {
		return 0, false
	}
	switch agg {
	case "mean":
		var s float64
		for _, v := range present {
			s += v
		}
		return s / float64(len(present)), true
	case "median":
		return dataset.Median(present), true
	case "min":
		m := present[0]
		for _, v := range present[1:] {
			if v < m {
				m = v
			}
		}
		return m, true
	case "max":
		m := present[0]
		for _, v := range present[1:] {
			if v > m {
				m = v
			}
		}
		return m, true
	}
	return 0, false
}

// shapeOutput turns the final table into the tagged result the formatter
// consumes.
func shapeOutput(t *dataset.Table, out OutputSpec) (Result, error) {
	switch out.Type {
	case "table":
		return Result{Kind: KindTable, Table: t}, nil

	case "plot":
		x, ok := t.ColumnIndex(out.X)
		if !ok {
			return Result{}, execErr("plot", "unknown column %q", out.X)
		}
		y, ok := t.ColumnIndex(out.Y)
		if !ok {
			return Result{}, execErr("plot", "unknown column %q", out.Y)
		}
		spec := &PlotSpec{
			Kind:   out.Kind,
			Title:  out.Title,
			XLabel: t.Cols[x],
			YLabel: t.Cols[y],
		}
		series := PlotSeries{Name: t.Cols[y]}
		for _, row := range t.Rows {
			if row[y].Missing {
				continue
			}
			spec.X = append(spec.X, row[x].String())
			series.Points = append(series.Points, row[y].Num)
		}
		spec.Series = []PlotSeries{series}
		return Result{Kind: KindPlot, Plot: spec}, nil

	case "scalar":
		if out.Aggregate != "" {
			col := -1
			if out.Column != "" {
				i, ok := t.ColumnIndex(out.Column)
				if !ok {
					return Result{}, execErr("scalar", "unknown column %q", out.Column)
				}
				col = i
			} else if out.Aggregate == "count" {
				// Bare count is the row count.
				return Result{Kind: KindScalar, HasValue: true, Value: float64(t.RowCount())}, nil
			}
			v, ok := aggregate(t.Column(col), out.Aggregate)
			if !ok {
				return Result{Kind: KindScalar}, nil
			}
			return Result{Kind: KindScalar, HasValue: true, Value: v}, nil
		}
		// No aggregate: a single-cell table is the value itself; anything
		// larger comes back as a table-shaped value for the formatter's
		// fallback ladder.
		if t.RowCount() == 1 && t.ColCount() == 1 && !t.Rows[0][0].Missing {
			return Result{Kind: KindScalar, HasValue: true, Value: t.Rows[0][0].Num}, nil
		}
		if t.RowCount() == 1 && out.Column != "" {
			if i, ok := t.ColumnIndex(out.Column); ok && !t.Rows[0][i].Missing {
				return Result{Kind: KindScalar, HasValue: true, Value: t.Rows[0][i].Num}, nil
			}
		}
		if t.RowCount() == 0 {
			return Result{Kind: KindScalar}, nil
		}
		return Result{Kind: KindScalar, ValueTable: t}, nil
	}
	return Result{}, &PlanError{Reason: "output: unknown type " + strconv.Quote(out.Type)}
}
