package convert

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wdm0006/datasweeper/pkg/chart"
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// Result is the outcome of processing one file. Err is set when the file
// failed; the other files of a batch are unaffected.
type Result struct {
	Name      string
	Plan      Plan
	InputRows int
	Steps     []string
	Frame     *sw.Frame
	Warnings  []string
	Chart     *chart.BarChart
	Download  *Download
	Duration  time.Duration
	Err       error
}

// Outcome is the Result's error code, "ok" on success.
func (r Result) Outcome() string { return Outcome(r.Err) }

// Recorder observes per-file outcomes. format is the input format or
// "unknown" when the upload was rejected before decoding.
type Recorder interface {
	ObserveFile(format, outcome string, rows int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFile(string, string, int, time.Duration) {}

// Processor runs files through decode, the plan's pipeline, chart and encode.
// It holds no per-request state and is safe for concurrent use.
type Processor struct {
	logger *slog.Logger
	rec    Recorder
}

func NewProcessor(logger *slog.Logger, rec Recorder) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Processor{logger: logger.With(slog.String("component", "convert")), rec: rec}
}

// Process cleans file according to plan and encodes it to plan.Target.
func (p *Processor) Process(ctx context.Context, file UploadedFile, plan Plan) Result {
	return p.run(ctx, file, plan, true)
}

// Preview cleans file according to plan without encoding it.
func (p *Processor) Preview(ctx context.Context, file UploadedFile, plan Plan) Result {
	return p.run(ctx, file, plan, false)
}

// ProcessBatch processes files in order, each with its own plan from plans or
// def. A failing file does not stop the rest.
func (p *Processor) ProcessBatch(ctx context.Context, files []UploadedFile, plans Plans, def Plan) []Result {
	return p.batch(ctx, files, plans, def, true)
}

// PreviewBatch is ProcessBatch without encoding.
func (p *Processor) PreviewBatch(ctx context.Context, files []UploadedFile, plans Plans, def Plan) []Result {
	return p.batch(ctx, files, plans, def, false)
}

func (p *Processor) batch(ctx context.Context, files []UploadedFile, plans Plans, def Plan, encode bool) []Result {
	out := make([]Result, 0, len(files))
	for _, file := range files {
		out = append(out, p.run(ctx, file, plans.For(file.Name, def), encode))
	}
	return out
}

func (p *Processor) run(ctx context.Context, file UploadedFile, plan Plan, encode bool) (res Result) {
	start := time.Now()
	res = Result{Name: file.Name, Plan: plan}
	format := "unknown"
	defer func() {
		res.Duration = time.Since(start)
		rows := 0
		if res.Frame != nil {
			rows = res.Frame.Rows()
		}
		p.rec.ObserveFile(format, res.Outcome(), rows, res.Duration)
		log := p.logger.With(
			slog.String("file", file.Name),
			slog.String("format", format),
			slog.String("outcome", res.Outcome()),
			slog.Duration("duration", res.Duration),
		)
		if res.Err != nil {
			log.WarnContext(ctx, "file failed", slog.String("error", res.Err.Error()))
			return
		}
		log.InfoContext(ctx, "file processed",
			slog.Int("input_rows", res.InputRows),
			slog.Int("rows", rows),
			slog.String("steps", strings.Join(res.Steps, ",")),
		)
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	in, err := DetectFormat(file.Name)
	if err != nil {
		res.Err = err
		return res
	}
	format = string(in)

	frame, warn, err := decode(file.Data, in)
	if err != nil {
		res.Err = err
		return res
	}
	res.InputRows = frame.Rows()
	res.Warnings = warn

	pl := plan.Pipeline()
	res.Steps = pl.Steps()
	frame, err = pl.Run(ctx, frame)
	if err != nil {
		res.Err = err
		return res
	}
	res.Frame = frame

	if plan.Chart {
		if b, ok := chart.Bar(frame); ok {
			res.Chart = b
		} else {
			res.Warnings = append(res.Warnings, "no numeric columns to chart")
		}
	}
	if !encode {
		return res
	}
	target := plan.Target
	if target == "" {
		target = FormatCSV
	}
	res.Download, res.Err = NewDownload(file.Name, frame, target, EncodeOptions{Chart: res.Chart})
	return res
}
