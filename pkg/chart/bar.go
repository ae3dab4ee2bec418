// Package chart derives bar-chart data from a frame.
package chart

import (
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// MaxSeries is how many numeric columns a bar chart plots.
const MaxSeries = 2

// Series is one plotted column. A nil value is a missing cell.
type Series struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// BarChart is a grouped bar chart with one group per row.
type BarChart struct {
	Categories []int    `json:"categories"`
	Series     []Series `json:"series"`
}

// Columns returns the plotted column names.
func (b *BarChart) Columns() []string {
	out := make([]string, len(b.Series))
	for i, s := range b.Series {
		out[i] = s.Name
	}
	return out
}

// Bar plots the first two numeric columns of f against row position. It returns
// false when f has no numeric column.
func Bar(f *sw.Frame) (*BarChart, bool) {
	num := f.NumericColumns()
	if len(num) == 0 {
		return nil, false
	}
	if len(num) > MaxSeries {
		num = num[:MaxSeries]
	}
	b := &BarChart{Categories: make([]int, f.Rows())}
	for i := range b.Categories {
		b.Categories[i] = i
	}
	for _, c := range num {
		s := Series{Name: c.Name(), Values: make([]*float64, f.Rows())}
		for r := range s.Values {
			switch col := c.(type) {
			case *sw.FloatColumn:
				if v, ok := col.Get(r); ok {
					s.Values[r] = &v
				}
			case *sw.IntColumn:
				if v, ok := col.Get(r); ok {
					x := float64(v)
					s.Values[r] = &x
				}
			}
		}
		b.Series = append(b.Series, s)
	}
	return b, true
}
