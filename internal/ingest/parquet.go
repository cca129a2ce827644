package ingest

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// parseParquet reads every row group into string records, which then flow
// through the same numeric coercion as CSV. The schema is assumed flat: leaf
// column order matches the top-level field order.
func parseParquet(raw []byte) ([]string, [][]string, error) {
	f, err := parquet.OpenFile(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, nil, loadErr(StageParse, ".parquet", err)
	}
	fields := f.Schema().Fields()
	if len(fields) == 0 {
		return nil, nil, loadErr(StageParse, ".parquet", errors.New("file has no columns"))
	}
	header := make([]string, len(fields))
	for i, fld := range fields {
		header[i] = fld.Name()
	}

	var records [][]string
	for _, rg := range f.RowGroups() {
		recs, err := readRowGroup(rg, len(fields))
		if err != nil {
			return nil, nil, loadErr(StageParse, ".parquet", err)
		}
		records = append(records, recs...)
	}
	return header, records, nil
}

func readRowGroup(rg parquet.RowGroup, cols int) ([][]string, error) {
	rows := rg.Rows()
	defer rows.Close()

	var records [][]string
	buf := make([]parquet.Row, 64)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			rec := make([]string, cols)
			for _, v := range row {
				if c := v.Column(); c >= 0 && c < cols {
					rec[c] = valueString(v)
				}
			}
			records = append(records, rec)
		}
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return records, nil
		}
	}
}

// valueString renders one parquet value the way the coercion layer expects:
// nulls become empty strings (missing), booleans become 1/0 so they survive
// the numeric pass.
func valueString(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return "1"
		}
		return "0"
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
