package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/caojiali1996/group15/internal/store"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// EmissionsXLSX renders the full emissions table as a single-sheet workbook,
// header row first, one row per record, in the order given.
func EmissionsXLSX(items []store.Emission) (*Result, error) {
	book := excelize.NewFile()
	defer book.Close()

	const sheet = "Emissions"
	index, err := book.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	book.SetActiveSheet(index)
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]any, len(store.Columns))
	for i, col := range store.Columns {
		header[i] = col
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		row := []any{
			item.IMO,
			item.ShipName,
			nil,
			item.ShipType,
			nil,
			nil,
		}
		if item.TechnicalEfficiency != nil {
			row[2] = *item.TechnicalEfficiency
		}
		if item.IssueDate != nil {
			row[4] = item.IssueDate.Format("2006-01-02")
		}
		if item.ExpiryDate != nil {
			row[5] = item.ExpiryDate.Format("2006-01-02")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row coordinates: %w", err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	return &Result{
		Data:     buf.Bytes(),
		Filename: sanitizeFilename("emissions") + ".xlsx",
		MimeType: xlsxMimeType,
	}, nil
}
