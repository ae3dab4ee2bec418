package csvio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

func kinds(f *sw.Frame) []sw.Kind {
	out := make([]sw.Kind, 0, f.Cols())
	for _, c := range f.Schema().Columns {
		out = append(out, c.Type)
	}
	return out
}

func TestRead(t *testing.T) {
	data := []byte("\ufeffid,score,name,ok\n1,2.5,a,true\n2,,b,false\n3,NA,c,\n")
	f, warn, err := Read(data, ReaderOptions{})
	require.NoError(t, err)
	assert.Empty(t, warn)
	assert.Equal(t, []string{"id", "score", "name", "ok"}, f.Schema().Names())
	assert.Equal(t, []sw.Kind{sw.KindInt, sw.KindFloat, sw.KindString, sw.KindBool}, kinds(f))
	require.Equal(t, 3, f.Rows())
	assert.Equal(t, []any{int64(2), nil, "b", false}, f.Row(1))
	assert.Equal(t, []any{int64(3), nil, "c", nil}, f.Row(2))
}

func TestReadSniffsDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"semicolon", "a;b\n1;2\n"},
		{"tab", "a\tb\n1\t2\n"},
		{"pipe", "a|b\n1|2\n"},
		{"comma", "a,b\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, err := Read([]byte(tt.data), ReaderOptions{})
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, f.Schema().Names())
			assert.Equal(t, []any{int64(1), int64(2)}, f.Row(0))
		})
	}
}

func TestReadRaggedRecords(t *testing.T) {
	data := []byte("a,b\n1\n2,3,4\n")
	f, warn, err := Read(data, ReaderOptions{})
	require.NoError(t, err)
	assert.Len(t, warn, 2)
	assert.Equal(t, []any{int64(1), nil}, f.Row(0))
	assert.Equal(t, []any{int64(2), int64(3)}, f.Row(1))

	_, _, err = Read(data, ReaderOptions{Strict: true})
	assert.True(t, errors.Is(err, ErrRaggedRecord))
}

func TestReadErrors(t *testing.T) {
	_, _, err := Read(nil, ReaderOptions{})
	assert.ErrorIs(t, err, ErrNoHeader)

	_, _, err = Read([]byte("a,b\n\"1,2\n"), ReaderOptions{})
	assert.Error(t, err)
}

func TestReadHeaderOnly(t *testing.T) {
	f, _, err := Read([]byte("a,,a\n"), ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.Rows())
	assert.Equal(t, []string{"a", "Unnamed: 1", "a.1"}, f.Schema().Names())
}
