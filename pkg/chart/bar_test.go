package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

func frame(t *testing.T, cols []sw.ColumnSchema, rows [][]any) *sw.Frame {
	t.Helper()
	f := sw.NewFrame(sw.Schema{Columns: cols})
	for i, row := range rows {
		f.AppendNullRow()
		for c, cs := range cols {
			require.NoError(t, f.SetCell(i, cs.Name, row[c]))
		}
	}
	return f
}

func TestBar(t *testing.T) {
	f := frame(t, []sw.ColumnSchema{
		{Name: "name", Type: sw.KindString},
		{Name: "a", Type: sw.KindInt},
		{Name: "b", Type: sw.KindFloat},
		{Name: "c", Type: sw.KindFloat},
	}, [][]any{
		{"x", int64(1), 0.5, 9.0},
		{"y", nil, 1.5, 9.0},
	})
	b, ok := Bar(f)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, b.Categories)
	assert.Equal(t, []string{"a", "b"}, b.Columns())

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"categories":[0,1],"series":[{"name":"a","values":[1,null]},{"name":"b","values":[0.5,1.5]}]}`, string(out))
}

func TestBarSingleSeries(t *testing.T) {
	f := frame(t, []sw.ColumnSchema{
		{Name: "name", Type: sw.KindString},
		{Name: "v", Type: sw.KindFloat},
	}, [][]any{{"x", 2.0}})
	b, ok := Bar(f)
	require.True(t, ok)
	assert.Equal(t, []string{"v"}, b.Columns())
}

func TestBarNoNumeric(t *testing.T) {
	f := frame(t, []sw.ColumnSchema{{Name: "name", Type: sw.KindString}}, [][]any{{"x"}})
	b, ok := Bar(f)
	assert.False(t, ok)
	assert.Nil(t, b)
}
