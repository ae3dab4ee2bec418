package xlsxio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// workbook builds an in-memory workbook whose first sheet holds rows.
func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()
	if sheet != "Sheet1" {
		require.NoError(t, wb.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, wb.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRead(t *testing.T) {
	data := workbook(t, "Data", [][]any{
		{"id", "score", "name"},
		{1, 2.5, "a"},
		{2, nil, "b"},
		{},
		{3, 4, "NA"},
	})
	f, err := ReadBytes(data, ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "score", "name"}, f.Schema().Names())
	require.Equal(t, 3, f.Rows())
	assert.Equal(t, sw.KindInt, f.Schema().Columns[0].Type)
	assert.Equal(t, sw.KindFloat, f.Schema().Columns[1].Type)
	assert.Equal(t, []any{int64(2), nil, "b"}, f.Row(1))
	assert.Equal(t, []any{int64(3), 4.0, nil}, f.Row(2))
}

func TestReadFormattedNumbers(t *testing.T) {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"amount", "rate", "when", "paid"}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]any{1234.5, 0.125, 45000, true}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A4", &[]any{2000.5, 0.5, 45001, false}))

	thousands, err := wb.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	percent, err := wb.NewStyle(&excelize.Style{NumFmt: 10})
	require.NoError(t, err)
	date, err := wb.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, wb.SetCellStyle("Sheet1", "A2", "A4", thousands))
	require.NoError(t, wb.SetCellStyle("Sheet1", "B2", "B4", percent))
	require.NoError(t, wb.SetCellStyle("Sheet1", "C2", "C4", date))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	f, err := ReadBytes(buf.Bytes(), ReaderOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, f.Rows())
	kinds := make([]sw.Kind, f.Cols())
	for i, cs := range f.Schema().Columns {
		kinds[i] = cs.Type
	}
	assert.Equal(t, []sw.Kind{sw.KindFloat, sw.KindFloat, sw.KindString, sw.KindBool}, kinds)
	assert.Equal(t, 1234.5, f.Row(0)[0])
	assert.Equal(t, 0.125, f.Row(0)[1])
	assert.Equal(t, 2000.5, f.Row(1)[0])
	assert.Equal(t, true, f.Row(0)[3])
	assert.NotEqual(t, "45000", f.Row(0)[2])
}

func TestDateFormat(t *testing.T) {
	assert.True(t, dateFormat("yyyy-mm-dd"))
	assert.True(t, dateFormat("[$-409]h:mm AM/PM"))
	assert.False(t, dateFormat("#,##0.00"))
	assert.False(t, dateFormat(`0.00" days"`))
	assert.False(t, dateFormat("[Red]0.00"))
}

func TestReadErrors(t *testing.T) {
	_, err := ReadBytes([]byte("not a workbook"), ReaderOptions{})
	assert.Error(t, err)

	_, err = ReadBytes(workbook(t, "Sheet1", nil), ReaderOptions{})
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadBytes(workbook(t, "Sheet1", [][]any{{"a"}}), ReaderOptions{Sheet: "missing"})
	assert.Error(t, err)
}

func sample() *sw.Frame {
	f := sw.NewFrame(sw.Schema{Columns: []sw.ColumnSchema{
		{Name: "id", Type: sw.KindInt, Nullable: true},
		{Name: "score", Type: sw.KindFloat, Nullable: true},
		{Name: "ok", Type: sw.KindBool, Nullable: true},
		{Name: "name", Type: sw.KindString, Nullable: true},
	}})
	for i, row := range [][]any{
		{int64(1), 1.5, true, "a"},
		{int64(2), nil, false, nil},
	} {
		f.AppendNullRow()
		for c, n := range f.Schema().Names() {
			_ = f.SetCell(i, n, row[c])
		}
	}
	return f
}

func TestWriteRoundTrip(t *testing.T) {
	in := sample()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in, WriterOptions{}))

	out, err := ReadBytes(buf.Bytes(), ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, in.Schema(), out.Schema())
	for i := 0; i < in.Rows(); i++ {
		assert.Equal(t, in.Row(i), out.Row(i))
	}

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	assert.Equal(t, []string{DefaultSheet}, wb.GetSheetList())
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, sample(), WriterOptions{Chart: &ChartOptions{Title: "bars", Columns: []string{"id", "score"}}})
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())

	err = Write(&buf, sample(), WriterOptions{Chart: &ChartOptions{Columns: []string{"nope"}}})
	assert.ErrorIs(t, err, sw.ErrUnknownColumn)
}
