package dedupe

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

func build(t *testing.T, s sw.Schema, rows [][]any) *sw.Frame {
	t.Helper()
	f := sw.NewFrame(s)
	for r, vals := range rows {
		f.AppendNullRow()
		for c, v := range vals {
			require.NoError(t, f.SetCell(r, s.Columns[c].Name, v))
		}
	}
	return f
}

func rows(f *sw.Frame) [][]any {
	out := make([][]any, f.Rows())
	for i := range out {
		out[i] = f.Row(i)
	}
	return out
}

func TestRows(t *testing.T) {
	intSchema := sw.Schema{Columns: []sw.ColumnSchema{{Name: "a", Type: sw.KindInt}, {Name: "b", Type: sw.KindInt}}}
	mixed := sw.Schema{Columns: []sw.ColumnSchema{{Name: "s", Type: sw.KindString}, {Name: "t", Type: sw.KindString}}}
	floatSchema := sw.Schema{Columns: []sw.ColumnSchema{{Name: "x", Type: sw.KindFloat}}}

	tests := []struct {
		name   string
		schema sw.Schema
		in     [][]any
		want   [][]any
	}{
		{
			name:   "adjacent duplicate",
			schema: intSchema,
			in:     [][]any{{int64(1), int64(2)}, {int64(1), int64(2)}, {int64(3), int64(4)}},
			want:   [][]any{{int64(1), int64(2)}, {int64(3), int64(4)}},
		},
		{
			name:   "keeps first occurrence and order",
			schema: intSchema,
			in:     [][]any{{int64(3), int64(4)}, {int64(1), int64(2)}, {int64(3), int64(4)}},
			want:   [][]any{{int64(3), int64(4)}, {int64(1), int64(2)}},
		},
		{
			name:   "nulls compare equal",
			schema: intSchema,
			in:     [][]any{{nil, int64(2)}, {nil, int64(2)}, {int64(0), int64(2)}},
			want:   [][]any{{nil, int64(2)}, {int64(0), int64(2)}},
		},
		{
			name:   "signed zeros are equal",
			schema: floatSchema,
			in:     [][]any{{0.0}, {math.Copysign(0, -1)}, {1.0}, {math.Copysign(0, -1)}},
			want:   [][]any{{0.0}, {1.0}},
		},
		{
			name:   "cell boundaries are not ambiguous",
			schema: mixed,
			in:     [][]any{{"ab", "c"}, {"a", "bc"}, {"", nil}, {nil, ""}},
			want:   [][]any{{"ab", "c"}, {"a", "bc"}, {"", nil}, {nil, ""}},
		},
		{
			name:   "empty frame",
			schema: intSchema,
			in:     nil,
			want:   [][]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&Rows{}).Apply(context.Background(), build(t, tt.schema, tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows(out))
		})
	}
}

func TestRowsIdempotent(t *testing.T) {
	s := sw.Schema{Columns: []sw.ColumnSchema{{Name: "x", Type: sw.KindFloat}, {Name: "ok", Type: sw.KindBool}}}
	f := build(t, s, [][]any{{1.5, true}, {1.5, true}, {2.5, false}, {1.5, false}, {2.5, false}})
	once, err := (&Rows{}).Apply(context.Background(), f)
	require.NoError(t, err)
	twice, err := (&Rows{}).Apply(context.Background(), once)
	require.NoError(t, err)
	assert.Equal(t, rows(once), rows(twice))
	assert.Equal(t, 3, twice.Rows())
}
