package ingest

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tablechat/internal/dataset"
)

// indexTable builds an n-row table whose single column holds the row index,
// so sampled rows can be traced back to their source positions.
func indexTable(n int) *dataset.Table {
	rows := make([][]dataset.Value, n)
	for i := range rows {
		rows[i] = []dataset.Value{dataset.Num(float64(i))}
	}
	return &dataset.Table{Cols: []string{"idx"}, Rows: rows}
}

func TestSampleRowsDeterministic(t *testing.T) {
	src := indexTable(10000)
	a := SampleRows(src, 500, SampleSeed)
	b := SampleRows(src, 500, SampleSeed)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed and size produced different samples")
	}
	if a.RowCount() != 500 {
		t.Fatalf("sample size: %d", a.RowCount())
	}
}

func TestSampleRowsNoDuplicates(t *testing.T) {
	src := indexTable(1000)
	got := SampleRows(src, 400, SampleSeed)

	seen := make(map[float64]bool, 400)
	for _, row := range got.Rows {
		v := row[0]
		if v.Missing {
			t.Fatal("sample contains a missing index")
		}
		if seen[v.Num] {
			t.Fatalf("row %v drawn twice", v.Num)
		}
		if v.Num < 0 || v.Num >= 1000 {
			t.Fatalf("row %v not in source", v.Num)
		}
		seen[v.Num] = true
	}
}

func TestSampleRowsClampsToSource(t *testing.T) {
	src := indexTable(30)
	got := SampleRows(src, 500, SampleSeed)
	if got.RowCount() != 30 {
		t.Fatalf("rows: %d", got.RowCount())
	}
}

func TestSampleSize(t *testing.T) {
	cases := []struct {
		rows, want int
	}{
		{10000, 500},
		{100000, 5000},
		{2000, 500},   // 5% would be 100, floored to 500
		{0, 500},      // degenerate: floor still applies
		{20000, 1000},
	}
	for _, tc := range cases {
		if got := sampleSize(tc.rows); got != tc.want {
			t.Fatalf("sampleSize(%d) = %d, want %d", tc.rows, got, tc.want)
		}
	}
}

// TestLoadOversizeCSVSamples pushes a real CSV over the size threshold and
// checks the whole policy end to end: sampling kicks in, the floor applies,
// and the user is warned.
func TestLoadOversizeCSVSamples(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a >50MiB payload")
	}

	// 10k rows of ~5.3KB each clears the 50MiB threshold while 5% of the
	// row count stays under the 500-row floor.
	pad := strings.Repeat("7", 5300)
	var sb strings.Builder
	sb.Grow(11000 * (len(pad) + 16))
	sb.WriteString("idx,pad\n")
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&sb, "%d,%s\n", i, pad)
	}
	raw := []byte(sb.String())
	if len(raw) <= SampleThresholdBytes {
		t.Fatalf("payload only %d bytes, below threshold", len(raw))
	}

	l := NewLoader(zap.NewNop(), "")
	ds, notices, err := l.Load("big.csv", raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ds.Sampled || ds.SampleN != 500 {
		t.Fatalf("sampled=%v n=%d", ds.Sampled, ds.SampleN)
	}
	if ds.Table.RowCount() != 500 {
		t.Fatalf("rows after sampling: %d", ds.Table.RowCount())
	}

	var warned bool
	for _, n := range notices {
		if n.Level == "warning" && strings.Contains(n.Message, "500 row sample") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("no sampling warning in %+v", notices)
	}

	// Deterministic: the identical bytes sample to the identical table.
	again, _, err := l.Load("big.csv", raw)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(ds.Table, again.Table) {
		t.Fatal("re-loading the same bytes produced a different sample")
	}
}

func TestLoadSmallFileNotSampled(t *testing.T) {
	raw := []byte("a,b\n1,2\n3,4\n")
	l := NewLoader(zap.NewNop(), "")
	ds, _, err := l.Load("small.csv", raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Sampled || ds.SampleN != 0 {
		t.Fatalf("small file was sampled: %+v", ds)
	}
	if ds.Table.RowCount() != 2 {
		t.Fatalf("rows: %d", ds.Table.RowCount())
	}
}
