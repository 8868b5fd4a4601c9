package parser

import (
	"fmt"
	"io"

	"github.com/conorfennell/tango/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads deck rows from a spreadsheet using the same column order
// as the CSV format. An empty sheet name selects the first sheet.
func ParseXLSX(r io.Reader, sheet string) ([]domain.Card, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}

	var cards []domain.Card
	header := true
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if header {
			header = false
			continue
		}
		cards = append(cards, cardFromFields(row))
	}
	return cards, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
