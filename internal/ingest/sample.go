package ingest

import (
	"math/rand"

	"github.com/KaramelBytes/tablechat/internal/dataset"
)

// SampleRows draws n rows without replacement using a fixed-seed generator,
// so the same table and size always produce the same sample. Rows come back
// in draw order, not source order.
func SampleRows(t *dataset.Table, n int, seed int64) *dataset.Table {
	idx := make([]int, t.RowCount())
	for i := range idx {
		idx[i] = i
	}
	if n > len(idx) {
		n = len(idx)
	}

	// Partial Fisher-Yates: only the first n positions need settling.
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	rows := make([][]dataset.Value, 0, n)
	for _, k := range idx[:n] {
		rows = append(rows, t.Rows[k])
	}
	return &dataset.Table{Cols: t.Cols, Rows: rows}
}
