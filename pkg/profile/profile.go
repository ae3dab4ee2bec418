// Package profile summarizes a frame for preview: its leading rows plus
// per-column statistics.
package profile

import (
	"fmt"
	"sort"
	"strings"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// DefaultHeadRows matches the usual head() preview.
const DefaultHeadRows = 5

// DefaultTopK bounds the string frequency list of each column.
const DefaultTopK = 5

type NumStats struct {
	Count int     `json:"count"`
	Nulls int     `json:"nulls"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
}

type BoolStats struct {
	Count int `json:"count"`
	Nulls int `json:"nulls"`
	True  int `json:"true"`
	False int `json:"false"`
}

type Freq struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type StringStats struct {
	Count int    `json:"count"`
	Nulls int    `json:"nulls"`
	Top   []Freq `json:"top,omitempty"`
}

type ColumnProfile struct {
	Name string       `json:"name"`
	Kind string       `json:"kind"`
	Num  *NumStats    `json:"num,omitempty"`
	Bool *BoolStats   `json:"bool,omitempty"`
	Str  *StringStats `json:"str,omitempty"`
}

// Preview is what a user sees before choosing cleaning steps.
type Preview struct {
	Rows    int             `json:"rows"`
	Columns []string        `json:"columns"`
	Head    [][]any         `json:"head"`
	Profile []ColumnProfile `json:"profile"`
}

// Build previews f with its first head rows. head < 0 selects DefaultHeadRows.
func Build(f *sw.Frame, head int) Preview {
	if head < 0 {
		head = DefaultHeadRows
	}
	if head > f.Rows() {
		head = f.Rows()
	}
	p := Preview{Rows: f.Rows(), Columns: f.Schema().Names(), Head: make([][]any, head)}
	for i := range p.Head {
		p.Head[i] = f.Row(i)
	}
	c := NewCollector(f.Schema(), DefaultTopK)
	c.ConsumeFrame(f)
	p.Profile = c.Columns()
	return p
}

// Collector accumulates column statistics over one or more frames sharing a schema.
type Collector struct {
	cols  []ColumnProfile
	freqs []map[string]int
	index map[string]int
	topK  int
}

func NewCollector(schema sw.Schema, topK int) *Collector {
	c := &Collector{index: make(map[string]int), topK: topK}
	c.cols = make([]ColumnProfile, len(schema.Columns))
	c.freqs = make([]map[string]int, len(schema.Columns))
	for i, cs := range schema.Columns {
		cp := ColumnProfile{Name: cs.Name, Kind: cs.Type.String()}
		switch cs.Type {
		case sw.KindFloat, sw.KindInt:
			cp.Num = &NumStats{}
		case sw.KindBool:
			cp.Bool = &BoolStats{}
		default:
			cp.Str = &StringStats{}
			c.freqs[i] = make(map[string]int)
		}
		c.cols[i] = cp
		c.index[cs.Name] = i
	}
	return c
}

func (c *Collector) ConsumeFrame(f *sw.Frame) {
	for _, col := range f.Columns() {
		idx, ok := c.index[col.Name()]
		if !ok {
			continue
		}
		cp := &c.cols[idx]
		switch col := col.(type) {
		case *sw.FloatColumn:
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Get(i)
				cp.Num.add(v, ok)
			}
		case *sw.IntColumn:
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Get(i)
				cp.Num.add(float64(v), ok)
			}
		case *sw.BoolColumn:
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Get(i)
				switch {
				case !ok:
					cp.Bool.Nulls++
				case v:
					cp.Bool.Count++
					cp.Bool.True++
				default:
					cp.Bool.Count++
					cp.Bool.False++
				}
			}
		case *sw.StringColumn:
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Get(i)
				if !ok {
					cp.Str.Nulls++
					continue
				}
				cp.Str.Count++
				if c.topK > 0 {
					c.freqs[idx][v]++
				}
			}
		}
	}
}

func (n *NumStats) add(v float64, ok bool) {
	if !ok {
		n.Nulls++
		return
	}
	if n.Count == 0 || v < n.Min {
		n.Min = v
	}
	if n.Count == 0 || v > n.Max {
		n.Max = v
	}
	n.Count++
	n.Sum += v
	n.Mean = n.Sum / float64(n.Count)
}

// Columns returns the profiles gathered so far, with string frequencies cut to
// the top k (ties broken by value).
func (c *Collector) Columns() []ColumnProfile {
	out := make([]ColumnProfile, len(c.cols))
	for i, cp := range c.cols {
		if cp.Str != nil {
			s := *cp.Str
			s.Top = topK(c.freqs[i], c.topK)
			cp.Str = &s
		}
		out[i] = cp
	}
	return out
}

func topK(freqs map[string]int, k int) []Freq {
	if k <= 0 || len(freqs) == 0 {
		return nil
	}
	arr := make([]Freq, 0, len(freqs))
	for v, n := range freqs {
		arr = append(arr, Freq{Value: v, Count: n})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].Count != arr[j].Count {
			return arr[i].Count > arr[j].Count
		}
		return arr[i].Value < arr[j].Value
	})
	if k < len(arr) {
		arr = arr[:k]
	}
	return arr
}

// ReportText renders the profiles as a plain-text summary.
func (c *Collector) ReportText() string {
	var b strings.Builder
	b.WriteString("Profile Summary\n")
	for _, cp := range c.Columns() {
		fmt.Fprintf(&b, "- %s (%s): ", cp.Name, cp.Kind)
		switch {
		case cp.Num != nil:
			fmt.Fprintf(&b, "count=%d nulls=%d min=%.6g max=%.6g mean=%.6g\n", cp.Num.Count, cp.Num.Nulls, cp.Num.Min, cp.Num.Max, cp.Num.Mean)
		case cp.Bool != nil:
			fmt.Fprintf(&b, "count=%d nulls=%d true=%d false=%d\n", cp.Bool.Count, cp.Bool.Nulls, cp.Bool.True, cp.Bool.False)
		default:
			fmt.Fprintf(&b, "count=%d nulls=%d\n", cp.Str.Count, cp.Str.Nulls)
			for _, f := range cp.Str.Top {
				fmt.Fprintf(&b, "  * %q: %d\n", f.Value, f.Count)
			}
		}
	}
	return b.String()
}
