package convert

import (
	"bytes"
	"fmt"

	"github.com/wdm0006/datasweeper/pkg/chart"
	"github.com/wdm0006/datasweeper/pkg/io/csvio"
	"github.com/wdm0006/datasweeper/pkg/io/jsonlio"
	"github.com/wdm0006/datasweeper/pkg/io/parquetio"
	"github.com/wdm0006/datasweeper/pkg/io/xlsxio"
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// Download is an encoded file ready to hand back to the user.
type Download struct {
	Data     []byte
	Filename string
	MIME     string
}

// EncodeOptions tweak the encoders. Chart is embedded by the XLSX encoder and
// ignored by the others.
type EncodeOptions struct {
	Chart *chart.BarChart
}

// Encode serializes f to target.
func Encode(f *sw.Frame, target Format, opt EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch target {
	case FormatCSV:
		err = csvio.Write(&buf, f, csvio.WriterOptions{})
	case FormatXLSX:
		var xo xlsxio.WriterOptions
		if opt.Chart != nil {
			xo.Chart = &xlsxio.ChartOptions{Title: "Data visualization", Columns: opt.Chart.Columns()}
		}
		err = xlsxio.Write(&buf, f, xo)
	case FormatJSONL:
		err = jsonlio.Write(&buf, f)
	case FormatParquet:
		err = parquetio.Write(&buf, f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, string(target))
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}
	return buf.Bytes(), nil
}

// NewDownload encodes f and names the result after the input file.
func NewDownload(input string, f *sw.Frame, target Format, opt EncodeOptions) (*Download, error) {
	data, err := Encode(f, target, opt)
	if err != nil {
		return nil, err
	}
	return &Download{Data: data, Filename: OutputName(input, target), MIME: target.MIME()}, nil
}
