// Package xlsxio reads and writes Office Open XML workbooks.
package xlsxio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wdm0006/datasweeper/pkg/io/sniff"
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// ErrNoHeader is returned when the chosen worksheet has no rows.
var ErrNoHeader = errors.New("xlsxio: worksheet has no header row")

type ReaderOptions struct {
	Sheet      string // "" = first sheet
	SampleRows int    // rows inspected for inference; 0 = all
}

// Read loads one worksheet into a Frame. The first row is the header; blank
// rows are skipped. Numeric cells are read as their stored numbers, whatever
// their number format.
func Read(src io.Reader, opt ReaderOptions) (*sw.Frame, error) {
	wb, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("xlsxio: open workbook: %w", err)
	}
	defer func() { _ = wb.Close() }()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		sheet = sheets[0]
	}
	rows, err := cellValues(wb, sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsxio: sheet %q: %w", sheet, err)
	}
	var header []string
	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		body = append(body, row)
	}
	if header == nil {
		return nil, ErrNoHeader
	}
	return sniff.Build(header, body, opt.SampleRows), nil
}

// ReadBytes is Read over an in-memory workbook.
func ReadBytes(data []byte, opt ReaderOptions) (*sw.Frame, error) {
	return Read(bytes.NewReader(data), opt)
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// cellValues returns the sheet's cells as stored, so a number formatted as
// "1,234.50" or "12%" reads back as 1234.5 or 0.12. Booleans and dates keep
// their displayed text.
func cellValues(wb *excelize.File, sheet string) ([][]string, error) {
	raw, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	shown, err := wb.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	dates := map[int]bool{}
	for r, row := range raw {
		if r >= len(shown) {
			break
		}
		for c, v := range row {
			if c >= len(shown[r]) || shown[r][c] == v {
				continue
			}
			text := shown[r][c]
			if strings.EqualFold(text, "true") || strings.EqualFold(text, "false") {
				row[c] = text
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			styleID, err := wb.GetCellStyle(sheet, cell)
			if err != nil {
				return nil, err
			}
			isDate, ok := dates[styleID]
			if !ok {
				isDate = dateStyle(wb, styleID)
				dates[styleID] = isDate
			}
			if isDate {
				row[c] = text
			}
		}
	}
	return raw, nil
}

// dateStyle reports whether the style formats numbers as dates or times.
func dateStyle(wb *excelize.File, styleID int) bool {
	st, err := wb.GetStyle(styleID)
	if err != nil || st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		return dateFormat(*st.CustomNumFmt)
	}
	switch n := st.NumFmt; {
	case n >= 14 && n <= 22, n >= 27 && n <= 36, n >= 45 && n <= 47, n >= 50 && n <= 58:
		return true
	}
	return false
}

// dateFormat reports whether a custom number format code holds date or time
// tokens outside quoted literals and bracketed sections.
func dateFormat(code string) bool {
	inQuote, inBracket := false, false
	for _, ch := range strings.ToLower(code) {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		case strings.ContainsRune("ymdhs", ch):
			return true
		}
	}
	return false
}
