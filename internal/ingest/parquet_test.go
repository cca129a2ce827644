package ingest

import (
	"bytes"
	"testing"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

type metricRow struct {
	Region  string  `parquet:"region"`
	Revenue float64 `parquet:"revenue"`
	Units   *int64  `parquet:"units,optional"`
	Active  bool    `parquet:"active"`
}

// parquetBytes writes the rows across two row groups so reading has to walk
// more than one.
func parquetBytes(t *testing.T, rows []metricRow) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[metricRow](&buf)
	if _, err := w.Write(rows[:1]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, err := w.Write(rows[1:]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func TestLoadParquet(t *testing.T) {
	seven, twelve := int64(7), int64(12)
	raw := parquetBytes(t, []metricRow{
		{Region: "1", Revenue: 100.5, Units: &seven, Active: true},
		{Region: "2", Revenue: 200, Units: nil, Active: false},
		{Region: "3", Revenue: 300.25, Units: &twelve, Active: true},
	})

	l := NewLoader(zap.NewNop(), "")
	ds, _, err := l.Load("metrics.parquet", raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Kind != KindStructured {
		t.Fatalf("kind: %q", ds.Kind)
	}
	tbl := ds.Table
	if tbl.RowCount() != 3 || tbl.ColCount() != 4 {
		t.Fatalf("dimensions: %dx%d", tbl.RowCount(), tbl.ColCount())
	}

	region, ok := tbl.ColumnIndex("region")
	if !ok {
		t.Fatalf("region column missing from %v", tbl.Cols)
	}
	revenue, _ := tbl.ColumnIndex("revenue")
	units, _ := tbl.ColumnIndex("units")
	active, _ := tbl.ColumnIndex("active")

	if got := tbl.Rows[1][region]; got.Missing || got.Num != 2 {
		t.Fatalf("region[1]: %+v", got)
	}
	if got := tbl.Rows[2][revenue]; got.Missing || got.Num != 300.25 {
		t.Fatalf("revenue[2]: %+v", got)
	}
	if got := tbl.Rows[0][units]; got.Missing || got.Num != 7 {
		t.Fatalf("units[0]: %+v", got)
	}
	// Null optional becomes the missing marker.
	if !tbl.Rows[1][units].Missing {
		t.Fatalf("units[1]: %+v", tbl.Rows[1][units])
	}
	// Booleans coerce through 1/0.
	if got := tbl.Rows[0][active]; got.Missing || got.Num != 1 {
		t.Fatalf("active[0]: %+v", got)
	}
	if got := tbl.Rows[1][active]; got.Missing || got.Num != 0 {
		t.Fatalf("active[1]: %+v", got)
	}
}

func TestLoadParquetCorrupt(t *testing.T) {
	l := NewLoader(zap.NewNop(), "")
	_, _, err := l.Load("bad.parquet", []byte("PAR1 this is not a real file PAR1"))
	le, ok := err.(*LoadError)
	if !ok || le.Stage != StageParse {
		t.Fatalf("error: %T %v", err, err)
	}
	if le.Format != ".parquet" {
		t.Fatalf("format: %q", le.Format)
	}
}
