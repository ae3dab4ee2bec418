package xlsxio

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// DefaultSheet is the worksheet every written workbook holds.
const DefaultSheet = "Sheet1"

type WriterOptions struct {
	// Chart, when set, embeds a column chart of the named columns.
	Chart *ChartOptions
}

type ChartOptions struct {
	Title   string
	Columns []string
}

// Write encodes f as a single-sheet workbook: a header row followed by typed
// cells. Nulls are written as empty cells.
func Write(out io.Writer, f *sw.Frame, opt WriterOptions) error {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	header := make([]any, f.Cols())
	for i, n := range f.Schema().Names() {
		header[i] = n
	}
	if err := wb.SetSheetRow(DefaultSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsxio: header: %w", err)
	}
	for r := 0; r < f.Rows(); r++ {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		row := f.Row(r)
		if err := wb.SetSheetRow(DefaultSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsxio: row %d: %w", r, err)
		}
	}
	if opt.Chart != nil && len(opt.Chart.Columns) > 0 && f.Rows() > 0 {
		if err := addChart(wb, f, opt.Chart); err != nil {
			return err
		}
	}
	if _, err := wb.WriteTo(out); err != nil {
		return fmt.Errorf("xlsxio: write workbook: %w", err)
	}
	return nil
}

// addChart places a clustered column chart to the right of the data. Each
// named column becomes one series over the data rows.
func addChart(wb *excelize.File, f *sw.Frame, opt *ChartOptions) error {
	names := f.Schema().Names()
	pos := make(map[string]int, len(names))
	for i, n := range names {
		pos[n] = i + 1
	}
	series := make([]excelize.ChartSeries, 0, len(opt.Columns))
	for _, n := range opt.Columns {
		idx, ok := pos[n]
		if !ok {
			return fmt.Errorf("xlsxio: chart: %w: %s", sw.ErrUnknownColumn, n)
		}
		col, err := excelize.ColumnNumberToName(idx)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:   fmt.Sprintf("%s!$%s$1", DefaultSheet, col),
			Values: fmt.Sprintf("%s!$%s$2:$%s$%d", DefaultSheet, col, col, f.Rows()+1),
		})
	}
	anchor, err := excelize.ColumnNumberToName(f.Cols() + 2)
	if err != nil {
		return err
	}
	chart := &excelize.Chart{
		Type:   excelize.Col,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: opt.Title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	}
	if err := wb.AddChart(DefaultSheet, anchor+"2", chart); err != nil {
		return fmt.Errorf("xlsxio: chart: %w", err)
	}
	return nil
}
