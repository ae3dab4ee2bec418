// Package parquetio writes frames as Parquet files.
package parquetio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
	local "github.com/xitongsys/parquet-go-source/local"
	pw "github.com/xitongsys/parquet-go/writer"
)

// FieldNames maps column names onto names safe for parquet schema tags:
// anything outside [A-Za-z0-9_] becomes '_', a leading digit gets a "c_"
// prefix and case-insensitive clashes get a numeric suffix.
func FieldNames(names []string) []string {
	out := make([]string, len(names))
	seen := map[string]bool{}
	for i, n := range names {
		var b strings.Builder
		for _, r := range n {
			if r == '_' || r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				b.WriteRune(r)
			} else {
				b.WriteByte('_')
			}
		}
		s := b.String()
		if s == "" || s[0] >= '0' && s[0] <= '9' {
			s = "c_" + s
		}
		base := s
		for k := 1; seen[strings.ToLower(s)]; k++ {
			s = base + "_" + strconv.Itoa(k)
		}
		seen[strings.ToLower(s)] = true
		out[i] = s
	}
	return out
}

func parquetSchemaJSON(s sw.Schema, names []string) (string, error) {
	// Build a minimal JSON schema for parquet-go JSONWriter
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for i, cs := range s.Columns {
		tag := "name=" + names[i] + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case sw.KindFloat:
			tag += "DOUBLE"
		case sw.KindInt:
			tag += "INT64"
		case sw.KindBool:
			tag += "BOOLEAN"
		default:
			tag += "UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, err := json.Marshal(sc)
	return string(b), err
}

// WriteFile writes a Frame to a Parquet file using parquet-go JSONWriter.
func WriteFile(path string, f *sw.Frame) (err error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fw.Close(); err == nil {
			err = cerr
		}
	}()
	names := FieldNames(f.Schema().Names())
	schema, err := parquetSchemaJSON(f.Schema(), names)
	if err != nil {
		return err
	}
	writer, err := pw.NewJSONWriter(schema, fw, 1)
	if err != nil {
		return fmt.Errorf("parquet writer init: %w", err)
	}
	for r := 0; r < f.Rows(); r++ {
		rec := make(map[string]any, f.Cols())
		for c, col := range f.Columns() {
			if v := col.Value(r); v != nil {
				rec[names[c]] = v
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := writer.Write(string(b)); err != nil {
			return fmt.Errorf("parquet write row %d: %w", r, err)
		}
	}
	if err := writer.WriteStop(); err != nil {
		return fmt.Errorf("parquet flush: %w", err)
	}
	return nil
}

// Write encodes f as Parquet into out. The file is staged in a temp file since
// the parquet writer needs a seekable target.
func Write(out io.Writer, f *sw.Frame) error {
	tmp, err := os.CreateTemp("", "sweeper-*.parquet")
	if err != nil {
		return err
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(path) }()

	if err := WriteFile(path, f); err != nil {
		return err
	}
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	_, err = io.Copy(out, in)
	return err
}
