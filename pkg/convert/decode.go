package convert

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wdm0006/datasweeper/pkg/io/csvio"
	"github.com/wdm0006/datasweeper/pkg/io/xlsxio"
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// UploadedFile is one file as received from the user.
type UploadedFile struct {
	Name string
	Data []byte
}

// Decode parses file according to its extension. Repairs made while reading
// (padded or truncated records) are returned as warnings.
func Decode(file UploadedFile) (*sw.Frame, []string, error) {
	format, err := DetectFormat(file.Name)
	if err != nil {
		return nil, nil, err
	}
	return decode(file.Data, format)
}

// DecodeBytes parses data as the format named by ext (".csv" or ".xlsx",
// case-insensitive).
func DecodeBytes(data []byte, ext string) (*sw.Frame, []string, error) {
	format, err := DetectFormat("upload" + ext)
	if err != nil {
		return nil, nil, err
	}
	return decode(data, format)
}

func decode(data []byte, format Format) (*sw.Frame, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyFile
	}
	switch format {
	case FormatCSV:
		f, warn, err := csvio.Read(data, csvio.ReaderOptions{})
		if errors.Is(err, csvio.ErrNoHeader) {
			return nil, nil, ErrEmptyFile
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}
		return f, warn, nil
	case FormatXLSX:
		f, err := xlsxio.ReadBytes(data, xlsxio.ReaderOptions{})
		if errors.Is(err, xlsxio.ErrNoHeader) {
			return nil, nil, ErrEmptyFile
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}
		return f, nil, nil
	}
	return nil, nil, &UnsupportedFormatError{Extension: format.Extension()}
}
