// Package jsonlio writes frames as JSON Lines.
package jsonlio

import (
	"bufio"
	"encoding/json"
	"io"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// Write emits one JSON object per row, keys in column order. Null cells are
// omitted from their object.
func Write(out io.Writer, f *sw.Frame) error {
	w := bufio.NewWriter(out)
	keys := make([][]byte, f.Cols())
	for i, n := range f.Schema().Names() {
		k, err := json.Marshal(n)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	for r := 0; r < f.Rows(); r++ {
		_ = w.WriteByte('{')
		first := true
		for c, col := range f.Columns() {
			v := col.Value(r)
			if v == nil {
				continue
			}
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			if !first {
				_ = w.WriteByte(',')
			}
			first = false
			_, _ = w.Write(keys[c])
			_ = w.WriteByte(':')
			_, _ = w.Write(b)
		}
		if _, err := w.WriteString("}\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
