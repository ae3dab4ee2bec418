package project

import (
	"context"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// Columns keeps only the named columns, in the frame's own column order.
// An empty Names keeps every column.
type Columns struct{ Names []string }

func (t *Columns) Name() string { return "select_columns" }

func (t *Columns) Apply(ctx context.Context, f *sw.Frame) (*sw.Frame, error) {
	if len(t.Names) == 0 {
		return f, nil
	}
	return f.Select(t.Names)
}
