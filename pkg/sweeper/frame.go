package sweeper

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when an operation names a column the frame does not have.
var ErrUnknownColumn = errors.New("unknown column")

// Schema describes the logical shape of a dataset.
type Schema struct {
	Columns []ColumnSchema
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		out[i] = cs.Name
	}
	return out
}

type ColumnSchema struct {
	Name     string
	Type     Kind
	Nullable bool
}

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Numeric reports whether values of this kind take part in imputation and charts.
func (k Kind) Numeric() bool { return k == KindInt || k == KindFloat }

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
	// Value returns the cell as bool, int64, float64 or string, or nil when null.
	Value(i int) any
	// Take returns a new column holding the given rows, in the given order.
	Take(rows []int) Column
}

type BoolColumn struct {
	name  string
	data  []bool
	nulls []bool
}

func NewBoolColumn(name string, n int) *BoolColumn {
	return &BoolColumn{name: name, data: make([]bool, n), nulls: make([]bool, n)}
}
func (c *BoolColumn) Name() string           { return c.name }
func (c *BoolColumn) Kind() Kind             { return KindBool }
func (c *BoolColumn) Len() int               { return len(c.data) }
func (c *BoolColumn) IsNull(i int) bool      { return c.nulls[i] }
func (c *BoolColumn) SetNull(i int)          { c.nulls[i] = true }
func (c *BoolColumn) Get(i int) (bool, bool) { return c.data[i], !c.nulls[i] }
func (c *BoolColumn) Set(i int, v bool)      { c.data[i] = v; c.nulls[i] = false }
func (c *BoolColumn) AppendNull()            { c.data = append(c.data, false); c.nulls = append(c.nulls, true) }
func (c *BoolColumn) Append(v bool)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *BoolColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *BoolColumn) Take(rows []int) Column {
	out := &BoolColumn{name: c.name, data: make([]bool, len(rows)), nulls: make([]bool, len(rows))}
	for k, r := range rows {
		out.data[k], out.nulls[k] = c.data[r], c.nulls[r]
	}
	return out
}

type IntColumn struct {
	name  string
	data  []int64
	nulls []bool
}

func NewIntColumn(name string, n int) *IntColumn {
	return &IntColumn{name: name, data: make([]int64, n), nulls: make([]bool, n)}
}
func (c *IntColumn) Name() string            { return c.name }
func (c *IntColumn) Kind() Kind              { return KindInt }
func (c *IntColumn) Len() int                { return len(c.data) }
func (c *IntColumn) IsNull(i int) bool       { return c.nulls[i] }
func (c *IntColumn) SetNull(i int)           { c.nulls[i] = true }
func (c *IntColumn) Get(i int) (int64, bool) { return c.data[i], !c.nulls[i] }
func (c *IntColumn) Set(i int, v int64)      { c.data[i] = v; c.nulls[i] = false }
func (c *IntColumn) AppendNull()             { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *IntColumn) Append(v int64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *IntColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *IntColumn) Take(rows []int) Column {
	out := &IntColumn{name: c.name, data: make([]int64, len(rows)), nulls: make([]bool, len(rows))}
	for k, r := range rows {
		out.data[k], out.nulls[k] = c.data[r], c.nulls[r]
	}
	return out
}

// ToFloat converts the column to a FloatColumn with the same name and nulls.
func (c *IntColumn) ToFloat() *FloatColumn {
	out := NewFloatColumn(c.name, len(c.data))
	for i, v := range c.data {
		out.data[i] = float64(v)
		out.nulls[i] = c.nulls[i]
	}
	return out
}

type FloatColumn struct {
	name  string
	data  []float64
	nulls []bool
}

func NewFloatColumn(name string, n int) *FloatColumn {
	return &FloatColumn{name: name, data: make([]float64, n), nulls: make([]bool, n)}
}
func (c *FloatColumn) Name() string              { return c.name }
func (c *FloatColumn) Kind() Kind                { return KindFloat }
func (c *FloatColumn) Len() int                  { return len(c.data) }
func (c *FloatColumn) IsNull(i int) bool         { return c.nulls[i] }
func (c *FloatColumn) SetNull(i int)             { c.nulls[i] = true }
func (c *FloatColumn) Get(i int) (float64, bool) { return c.data[i], !c.nulls[i] }
func (c *FloatColumn) Set(i int, v float64)      { c.data[i] = v; c.nulls[i] = false }
func (c *FloatColumn) AppendNull()               { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *FloatColumn) Append(v float64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *FloatColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *FloatColumn) Take(rows []int) Column {
	out := &FloatColumn{name: c.name, data: make([]float64, len(rows)), nulls: make([]bool, len(rows))}
	for k, r := range rows {
		out.data[k], out.nulls[k] = c.data[r], c.nulls[r]
	}
	return out
}

type StringColumn struct {
	name  string
	data  []string
	nulls []bool
}

func NewStringColumn(name string, n int) *StringColumn {
	return &StringColumn{name: name, data: make([]string, n), nulls: make([]bool, n)}
}
func (c *StringColumn) Name() string             { return c.name }
func (c *StringColumn) Kind() Kind               { return KindString }
func (c *StringColumn) Len() int                 { return len(c.data) }
func (c *StringColumn) IsNull(i int) bool        { return c.nulls[i] }
func (c *StringColumn) SetNull(i int)            { c.nulls[i] = true }
func (c *StringColumn) Get(i int) (string, bool) { return c.data[i], !c.nulls[i] }
func (c *StringColumn) Set(i int, v string)      { c.data[i] = v; c.nulls[i] = false }
func (c *StringColumn) AppendNull()              { c.data = append(c.data, ""); c.nulls = append(c.nulls, true) }
func (c *StringColumn) Append(v string)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *StringColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *StringColumn) Take(rows []int) Column {
	out := &StringColumn{name: c.name, data: make([]string, len(rows)), nulls: make([]bool, len(rows))}
	for k, r := range rows {
		out.data[k], out.nulls[k] = c.data[r], c.nulls[r]
	}
	return out
}

// Frame is a columnar container for tabular data.
type Frame struct {
	schema Schema
	cols   []Column
	index  map[string]int // name -> col index
	nrows  int
}

// NewFrame builds an empty frame. Column names must be unique.
func NewFrame(s Schema) *Frame {
	s.Columns = append([]ColumnSchema(nil), s.Columns...)
	f := &Frame{schema: s, cols: make([]Column, len(s.Columns)), index: make(map[string]int)}
	for i, cs := range s.Columns {
		if _, dup := f.index[cs.Name]; dup {
			panic(fmt.Sprintf("duplicate column name %q", cs.Name))
		}
		switch cs.Type {
		case KindBool:
			f.cols[i] = NewBoolColumn(cs.Name, 0)
		case KindInt:
			f.cols[i] = NewIntColumn(cs.Name, 0)
		case KindFloat:
			f.cols[i] = NewFloatColumn(cs.Name, 0)
		case KindString:
			f.cols[i] = NewStringColumn(cs.Name, 0)
		default:
			panic("invalid column kind")
		}
		f.index[cs.Name] = i
	}
	return f
}

// derive assembles a frame around columns taken from f, keeping their schema
// entries.
func (f *Frame) derive(cols []Column, nrows int) *Frame {
	out := &Frame{cols: cols, index: make(map[string]int, len(cols)), nrows: nrows}
	out.schema.Columns = make([]ColumnSchema, len(cols))
	for i, c := range cols {
		cs := ColumnSchema{Name: c.Name(), Type: c.Kind(), Nullable: true}
		if j, ok := f.index[c.Name()]; ok {
			cs.Nullable = f.schema.Columns[j].Nullable
		}
		out.schema.Columns[i] = cs
		out.index[c.Name()] = i
	}
	return out
}

func (f *Frame) Schema() Schema { return f.schema }
func (f *Frame) Rows() int      { return f.nrows }
func (f *Frame) Cols() int      { return len(f.cols) }

// Columns returns the frame's columns in order. The slice must not be modified.
func (f *Frame) Columns() []Column { return f.cols }

func (f *Frame) ColumnByName(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// NumericColumns returns the Int and Float columns in column order.
func (f *Frame) NumericColumns() []Column {
	var out []Column
	for _, c := range f.cols {
		if c.Kind().Numeric() {
			out = append(out, c)
		}
	}
	return out
}

// Row returns the values of row i, see Column.Value.
func (f *Frame) Row(i int) []any {
	out := make([]any, len(f.cols))
	for c, col := range f.cols {
		out[c] = col.Value(i)
	}
	return out
}

// ReplaceColumn swaps the column with the same name for c, updating the schema kind.
func (f *Frame) ReplaceColumn(c Column) error {
	i, ok := f.index[c.Name()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, c.Name())
	}
	if c.Len() != f.nrows {
		return fmt.Errorf("column %s has %d rows, frame has %d", c.Name(), c.Len(), f.nrows)
	}
	f.cols[i] = c
	f.schema.Columns[i].Type = c.Kind()
	return nil
}

// Select returns a frame holding only the named columns, kept in the frame's own
// column order. Columns are shared with f, not copied.
func (f *Frame) Select(names []string) (*Frame, error) {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := f.index[n]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, n)
		}
		want[n] = struct{}{}
	}
	cols := make([]Column, 0, len(want))
	for _, c := range f.cols {
		if _, ok := want[c.Name()]; ok {
			cols = append(cols, c)
		}
	}
	return f.derive(cols, f.nrows), nil
}

// Take returns a new frame holding copies of the given rows, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	cols := make([]Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.Take(rows)
	}
	return f.derive(cols, len(rows))
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	rows := make([]int, f.nrows)
	for i := range rows {
		rows[i] = i
	}
	return f.Take(rows)
}

// AppendNullRow appends a row with all-null values.
func (f *Frame) AppendNullRow() {
	for _, c := range f.cols {
		switch col := c.(type) {
		case *BoolColumn:
			col.AppendNull()
		case *IntColumn:
			col.AppendNull()
		case *FloatColumn:
			col.AppendNull()
		case *StringColumn:
			col.AppendNull()
		default:
			panic("unknown column type")
		}
	}
	f.nrows++
}

// SetCell sets a single cell value by name (row must exist).
func (f *Frame) SetCell(row int, name string, v any) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	c := f.cols[i]
	if v == nil {
		c.SetNull(row)
		return nil
	}
	switch col := c.(type) {
	case *BoolColumn:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("column %s expects bool", name)
		}
		col.Set(row, b)
	case *IntColumn:
		switch t := v.(type) {
		case int:
			col.Set(row, int64(t))
		case int64:
			col.Set(row, t)
		case float64:
			col.Set(row, int64(t))
		default:
			return fmt.Errorf("column %s expects int/int64", name)
		}
	case *FloatColumn:
		switch t := v.(type) {
		case float32:
			col.Set(row, float64(t))
		case float64:
			col.Set(row, t)
		case int:
			col.Set(row, float64(t))
		case int64:
			col.Set(row, float64(t))
		default:
			return fmt.Errorf("column %s expects float64", name)
		}
	case *StringColumn:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string", name)
		}
		col.Set(row, s)
	default:
		return fmt.Errorf("unknown column kind")
	}
	return nil
}
