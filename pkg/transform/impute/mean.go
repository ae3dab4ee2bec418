package impute

import (
	"context"
	"math"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// Mean fills nulls in one numeric column with the mean of its non-null values.
// Columns with no values are left as they are. An Int column whose mean is not
// a whole number is converted to Float first.
type Mean struct{ Column string }

func (t *Mean) Name() string { return "impute_mean" }

func (t *Mean) Apply(ctx context.Context, f *sw.Frame) (*sw.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return f, nil
	}
	switch c := col.(type) {
	case *sw.FloatColumn:
		mean, ok := floatMean(c)
		if !ok {
			return f, nil
		}
		fillFloat(c, mean)
	case *sw.IntColumn:
		var sum float64
		var n, nulls int
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				nulls++
				continue
			}
			v, _ := c.Get(i)
			sum += float64(v)
			n++
		}
		if n == 0 || nulls == 0 {
			return f, nil
		}
		mean := sum / float64(n)
		if mean == math.Trunc(mean) {
			for i := 0; i < c.Len(); i++ {
				if c.IsNull(i) {
					c.Set(i, int64(mean))
				}
			}
			return f, nil
		}
		fc := c.ToFloat()
		fillFloat(fc, mean)
		if err := f.ReplaceColumn(fc); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MeanNumeric applies Mean to every Int and Float column of the frame.
type MeanNumeric struct{}

func (t *MeanNumeric) Name() string { return "impute_mean_numeric" }

func (t *MeanNumeric) Apply(ctx context.Context, f *sw.Frame) (*sw.Frame, error) {
	names := make([]string, 0, f.Cols())
	for _, c := range f.NumericColumns() {
		names = append(names, c.Name())
	}
	var err error
	for _, name := range names {
		if f, err = (&Mean{Column: name}).Apply(ctx, f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func floatMean(c *sw.FloatColumn) (float64, bool) {
	var sum float64
	var n int
	for i := 0; i < c.Len(); i++ {
		if !c.IsNull(i) {
			v, _ := c.Get(i)
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func fillFloat(c *sw.FloatColumn, v float64) {
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			c.Set(i, v)
		}
	}
}
