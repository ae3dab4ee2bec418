package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/wdm0006/datasweeper/pkg/io/sniff"
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

var (
	// ErrNoHeader is returned when the input holds no records at all.
	ErrNoHeader = errors.New("csvio: no header row")
	// ErrRaggedRecord is returned in strict mode for short or long records.
	ErrRaggedRecord = errors.New("csvio: record length does not match header")
)

type ReaderOptions struct {
	Delimiter  rune // 0 = sniff from the header line
	SampleRows int  // rows inspected for inference; 0 = all
	Strict     bool // if true, error on short/long records
}

type Reader struct {
	r   *csv.Reader
	opt ReaderOptions
	// repair/warning counters
	shortRecords int
	longRecords  int
}

// NewReader wraps src. When no delimiter is configured it is sniffed from the
// first line.
func NewReader(src io.Reader, opt ReaderOptions) *Reader {
	br := bufio.NewReader(src)
	rr := csv.NewReader(br)
	rr.FieldsPerRecord = -1
	if opt.Delimiter == 0 {
		d, lazy := sniffDelimiterAndQuotes(br)
		rr.Comma = d
		rr.LazyQuotes = lazy
	} else {
		rr.Comma = opt.Delimiter
	}
	return &Reader{r: rr, opt: opt}
}

// ReadAll reads the header and every record, infers column kinds and loads the
// records into a Frame.
func (r *Reader) ReadAll() (*sw.Frame, error) {
	header, err := r.r.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("csvio: header: %w", err)
	}
	header = append([]string(nil), header...)
	var rows [][]string
	for {
		rec, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvio: %w", err)
		}
		switch {
		case len(rec) < len(header):
			r.shortRecords++
			if r.opt.Strict {
				line, _ := r.r.FieldPos(0)
				return nil, fmt.Errorf("%w: line %d: need %d fields, got %d", ErrRaggedRecord, line, len(header), len(rec))
			}
		case len(rec) > len(header):
			r.longRecords++
			if r.opt.Strict {
				line, _ := r.r.FieldPos(0)
				return nil, fmt.Errorf("%w: line %d: need %d fields, got %d", ErrRaggedRecord, line, len(header), len(rec))
			}
			rec = rec[:len(header)]
		}
		rows = append(rows, rec)
	}
	return sniff.Build(header, rows, r.opt.SampleRows), nil
}

// Warnings describes any repairs made while reading.
func (r *Reader) Warnings() []string {
	var out []string
	if r.shortRecords > 0 {
		out = append(out, fmt.Sprintf("short_records=%d (padded with missing values)", r.shortRecords))
	}
	if r.longRecords > 0 {
		out = append(out, fmt.Sprintf("long_records=%d (extra fields dropped)", r.longRecords))
	}
	return out
}

// Read decodes a whole CSV document held in memory.
func Read(data []byte, opt ReaderOptions) (*sw.Frame, []string, error) {
	r := NewReader(bytes.NewReader(data), opt)
	f, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return f, r.Warnings(), nil
}

// sniffDelimiterAndQuotes picks the candidate delimiter seen most often on the
// first line, defaulting to a comma. Lazy quoting is enabled when that line holds
// an odd number of quotes.
func sniffDelimiterAndQuotes(br *bufio.Reader) (rune, bool) {
	sample, _ := br.Peek(4096)
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	if len(sample) == 0 {
		return ',', false
	}
	best := byte(',')
	bestCount := 0
	for _, c := range []byte{',', '\t', ';', '|'} {
		if cnt := bytes.Count(sample, []byte{c}); cnt > bestCount {
			bestCount = cnt
			best = c
		}
	}
	lazy := bytes.Count(sample, []byte{'"'})%2 != 0
	return rune(best), lazy
}
