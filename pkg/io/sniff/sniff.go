// Package sniff turns raw text records into typed frames. It is shared by the
// CSV and XLSX readers.
package sniff

import (
	"regexp"
	"strconv"
	"strings"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

var numre = regexp.MustCompile(`^[-+]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][-+]?[0-9]+)?$`)

// missing lists the cell spellings read as null.
var missing = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "#NA": {}, "<NA>": {},
}

// IsMissing reports whether a raw cell should be read as null.
func IsMissing(v string) bool {
	_, ok := missing[strings.TrimSpace(v)]
	return ok
}

// HeaderNames normalizes a header record: the BOM is stripped, blank names become
// "Unnamed: i" and repeated names get ".1", ".2", ... suffixes.
func HeaderNames(rec []string) []string {
	names := make([]string, len(rec))
	seen := make(map[string]bool, len(rec))
	for i, raw := range rec {
		n := strings.ToValidUTF8(raw, "?")
		if i == 0 {
			n = strings.TrimPrefix(n, "\ufeff")
		}
		if strings.TrimSpace(n) == "" {
			n = "Unnamed: " + strconv.Itoa(i)
		}
		base := n
		for k := 1; seen[n]; k++ {
			n = base + "." + strconv.Itoa(k)
		}
		seen[n] = true
		names[i] = n
	}
	return names
}

// InferKinds picks a kind per column. A column is numeric only if every
// non-missing value is a number, bool only if every value is true/false.
// Columns with no values at all are Float, matching an all-NaN column.
func InferKinds(rows [][]string, ncol int) []sw.Kind {
	kinds := make([]sw.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, boolean, str := 0, 0, 0, 0
		for _, row := range rows {
			if c >= len(row) || IsMissing(row[c]) {
				continue
			}
			v := strings.TrimSpace(row[c])
			switch {
			case numre.MatchString(v):
				num++
				if !strings.ContainsAny(v, ".eE") {
					if _, err := strconv.ParseInt(v, 10, 64); err == nil {
						integer++
					}
				}
			case isBool(v):
				boolean++
			default:
				str++
			}
		}
		switch {
		case str > 0 || (num > 0 && boolean > 0):
			kinds[c] = sw.KindString
		case boolean > 0:
			kinds[c] = sw.KindBool
		case num > 0 && integer == num:
			kinds[c] = sw.KindInt
		default:
			kinds[c] = sw.KindFloat
		}
	}
	return kinds
}

func isBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false":
		return true
	}
	return false
}

// Schema builds a nullable schema from names and kinds.
func Schema(names []string, kinds []sw.Kind) sw.Schema {
	s := sw.Schema{Columns: make([]sw.ColumnSchema, len(names))}
	for i := range names {
		s.Columns[i] = sw.ColumnSchema{Name: names[i], Type: kinds[i], Nullable: true}
	}
	return s
}

// AppendRecord appends rec as a new row. Missing cells, cells past the end of
// rec and cells that do not parse as the column kind are left null. String
// cells keep their original spacing.
func AppendRecord(f *sw.Frame, rec []string) {
	f.AppendNullRow()
	row := f.Rows() - 1
	for i, c := range f.Columns() {
		if i >= len(rec) || IsMissing(rec[i]) {
			continue
		}
		raw := strings.ToValidUTF8(rec[i], "?")
		val := strings.TrimSpace(raw)
		switch col := c.(type) {
		case *sw.FloatColumn:
			if x, err := strconv.ParseFloat(val, 64); err == nil {
				col.Set(row, x)
			}
		case *sw.IntColumn:
			if x, err := strconv.ParseInt(val, 10, 64); err == nil {
				col.Set(row, x)
			}
		case *sw.BoolColumn:
			if x, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
				col.Set(row, x)
			}
		case *sw.StringColumn:
			col.Set(row, raw)
		}
	}
}

// Build infers a schema from header and rows and loads every row into a frame.
// sampleRows > 0 limits how many rows are inspected for inference.
func Build(header []string, rows [][]string, sampleRows int) *sw.Frame {
	names := HeaderNames(header)
	sample := rows
	if sampleRows > 0 && len(sample) > sampleRows {
		sample = sample[:sampleRows]
	}
	f := sw.NewFrame(Schema(names, InferKinds(sample, len(names))))
	for _, rec := range rows {
		AppendRecord(f, rec)
	}
	return f
}
