package convert

import (
	"context"
	"errors"
	"fmt"

	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrMalformedFile     = errors.New("malformed file")
	ErrEmptyFile         = errors.New("empty file")
	ErrUnknownTarget     = errors.New("unknown conversion target")
)

// UnsupportedFormatError reports an upload whose extension has no decoder.
type UnsupportedFormatError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("%s: %s", ErrUnsupportedFormat, ext)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// Outcome classifies a processing error into a short stable code used in
// metrics labels and API responses. A nil error is "ok".
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrEmptyFile):
		return "empty_file"
	case errors.Is(err, ErrMalformedFile):
		return "malformed_file"
	case errors.Is(err, sw.ErrUnknownColumn):
		return "unknown_column"
	case errors.Is(err, ErrUnknownTarget):
		return "unknown_target"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}
