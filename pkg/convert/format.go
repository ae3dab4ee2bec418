// Package convert runs uploaded files through decode, cleaning, selection,
// charting and encode.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format names an input or output file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

const (
	MIMECSV     = "text/csv"
	MIMEXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEJSONL   = "application/x-ndjson"
	MIMEParquet = "application/vnd.apache.parquet"
)

// Targets lists every output format, in the order shown to users.
var Targets = []Format{FormatCSV, FormatXLSX, FormatJSONL, FormatParquet}

// ParseFormat resolves a user supplied target name. Matching ignores case and
// accepts "excel" and "spreadsheet" for xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel", "spreadsheet":
		return FormatXLSX, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "parquet":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// UnmarshalText lets a Format be decoded from JSON, YAML or form values.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Extension returns the file extension written for f, dot included.
func (f Format) Extension() string { return "." + string(f) }

func (f Format) MIME() string {
	switch f {
	case FormatCSV:
		return MIMECSV
	case FormatXLSX:
		return MIMEXLSX
	case FormatJSONL:
		return MIMEJSONL
	case FormatParquet:
		return MIMEParquet
	}
	return "application/octet-stream"
}

// DetectFormat picks the decoder for an upload from its extension. Only CSV and
// XLSX are accepted as input.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", &UnsupportedFormatError{Filename: filename, Extension: ext}
}

// OutputName replaces the last extension of name with the target's.
func OutputName(name string, target Format) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + target.Extension()
}
