package ingest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// parseXLSX reads the first sheet of a modern workbook. Only the first sheet
// participates in analysis, matching the single-table data model.
func parseXLSX(raw []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, loadErr(StageParse, ".xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, loadErr(StageParse, ".xlsx", errors.New("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, loadErr(StageParse, ".xlsx", err)
	}
	if len(rows) == 0 {
		return nil, nil, loadErr(StageParse, ".xlsx", fmt.Errorf("sheet %q contains no rows", sheets[0]))
	}
	return rows[0], rows[1:], nil
}

// parseXLS reads the first sheet of a legacy BIFF workbook.
func parseXLS(raw []byte) ([]string, [][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return nil, nil, loadErr(StageParse, ".xls", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil, loadErr(StageParse, ".xls", errors.New("workbook has no sheets"))
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		var cells []string
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	for len(rows) > 0 && rowEmpty(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, nil, loadErr(StageParse, ".xls", errors.New("sheet contains no rows"))
	}
	return rows[0], rows[1:], nil
}

func rowEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
