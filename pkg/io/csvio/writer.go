package csvio

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

type WriterOptions struct {
	Delimiter rune // default ','
}

// Write writes a Frame as CSV with a header row. Null cells are empty fields.
func Write(out io.Writer, f *sw.Frame, opt WriterOptions) error {
	w := csv.NewWriter(out)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}

	if err := w.Write(f.Schema().Names()); err != nil {
		return err
	}

	row := make([]string, f.Cols())
	for r := 0; r < f.Rows(); r++ {
		for c, col := range f.Columns() {
			row[c] = FormatCell(col, r)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// FormatCell renders one cell as text; nulls render as "".
func FormatCell(col sw.Column, r int) string {
	switch c := col.(type) {
	case *sw.FloatColumn:
		if v, ok := c.Get(r); ok {
			return FormatFloat(v)
		}
	case *sw.IntColumn:
		if v, ok := c.Get(r); ok {
			return strconv.FormatInt(v, 10)
		}
	case *sw.BoolColumn:
		if v, ok := c.Get(r); ok {
			return strconv.FormatBool(v)
		}
	case *sw.StringColumn:
		if v, ok := c.Get(r); ok {
			return v
		}
	}
	return ""
}

// FormatFloat prints v in the shortest form that reads back exactly, using
// plain notation except for very large or very small magnitudes.
func FormatFloat(v float64) string {
	if a := math.Abs(v); a != 0 && (a >= 1e21 || a < 1e-6) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
