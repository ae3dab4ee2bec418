package dedupe

import (
	"context"
	"strconv"
	"strings"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// Rows drops every row that repeats an earlier row cell for cell, keeping the
// first occurrence and the original order. Nulls compare equal to each other.
type Rows struct{}

func (t *Rows) Name() string { return "remove_duplicates" }

func (t *Rows) Apply(ctx context.Context, f *sw.Frame) (*sw.Frame, error) {
	seen := make(map[string]struct{}, f.Rows())
	keep := make([]int, 0, f.Rows())
	var b strings.Builder
	for r := 0; r < f.Rows(); r++ {
		b.Reset()
		rowKey(&b, f, r)
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, r)
	}
	if len(keep) == f.Rows() {
		return f, nil
	}
	return f.Take(keep), nil
}

// rowKey writes a length-prefixed encoding of the row so that no two distinct
// rows share a key.
func rowKey(b *strings.Builder, f *sw.Frame, r int) {
	for _, c := range f.Columns() {
		var s string
		switch col := c.(type) {
		case *sw.BoolColumn:
			if v, ok := col.Get(r); ok {
				s = "b" + strconv.FormatBool(v)
			}
		case *sw.IntColumn:
			if v, ok := col.Get(r); ok {
				s = "i" + strconv.FormatInt(v, 10)
			}
		case *sw.FloatColumn:
			if v, ok := col.Get(r); ok {
				if v == 0 {
					v = 0 // -0 and 0 are the same value
				}
				s = "f" + strconv.FormatFloat(v, 'g', -1, 64)
			}
		case *sw.StringColumn:
			if v, ok := col.Get(r); ok {
				s = "s" + v
			}
		}
		if s == "" {
			b.WriteString("-;")
			continue
		}
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
}
