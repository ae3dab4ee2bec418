package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/wdm0006/datasweeper/internal/config"
	"github.com/wdm0006/datasweeper/internal/logging"
	"github.com/wdm0006/datasweeper/internal/server"
	"github.com/wdm0006/datasweeper/pkg/convert"
)

var version = "0.1.0-dev"

const usage = `usage: sweeper <command> [flags]

commands:
  serve     run the HTTP service
  convert   clean and convert files locally
  version   print the version
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	switch args[0] {
	case "serve":
		return serve(ctx, args[1:], stderr)
	case "convert":
		return convertFiles(ctx, args[1:], stdout, stderr)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, "sweeper", version)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
}

func serve(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to a YAML or TOML config file (default $"+config.FileEnv+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := logging.New(cfg.Logging, os.Stdout)
	if err := server.New(cfg, logger, version).Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		return 1
	}
	return 0
}

type convertFlags struct {
	to      string
	dedupe  bool
	fill    bool
	columns string
	chart   bool
	out     string
	verbose bool
}

func convertFiles(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cf convertFlags
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cf.to, "to", "csv", "Output format: csv, xlsx, jsonl or parquet")
	fs.BoolVar(&cf.dedupe, "dedupe", false, "Remove duplicate rows")
	fs.BoolVar(&cf.fill, "fill", false, "Fill missing numeric values with the column mean")
	fs.StringVar(&cf.columns, "columns", "", "Comma-separated columns to keep")
	fs.BoolVar(&cf.chart, "chart", false, "Add a bar chart (xlsx output)")
	fs.StringVar(&cf.out, "out", ".", "Output directory")
	fs.BoolVar(&cf.verbose, "v", false, "Log each file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "no input files")
		return 2
	}
	target, err := convert.ParseFormat(cf.to)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	plan := convert.Plan{
		RemoveDuplicates: cf.dedupe,
		FillMissing:      cf.fill,
		Columns:          splitColumns(cf.columns),
		Chart:            cf.chart,
		Target:           target,
	}

	level := "error"
	if cf.verbose {
		level = "info"
	}
	logger := logging.New(config.LoggingConfig{Level: level, Format: "text"}, stderr)
	proc := convert.NewProcessor(logger, nil)

	if err := os.MkdirAll(cf.out, 0o755); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	failed := 0
	for _, path := range fs.Args() {
		if err := convertOne(ctx, proc, path, plan, cf.out, stdout); err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func convertOne(ctx context.Context, proc *convert.Processor, path string, plan convert.Plan, outDir string, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res := proc.Process(ctx, convert.UploadedFile{Name: filepath.Base(path), Data: data}, plan)
	if res.Err != nil {
		return res.Err
	}
	dst := filepath.Join(outDir, res.Download.Filename)
	if abs, err := filepath.Abs(path); err == nil {
		if absDst, err := filepath.Abs(dst); err == nil && abs == absDst {
			return errors.New("output would overwrite the input; use -out")
		}
	}
	if err := os.WriteFile(dst, res.Download.Data, 0o644); err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stdout, "%s: warning: %s\n", path, w)
	}
	fmt.Fprintf(stdout, "%s -> %s (%d rows)\n", path, dst, res.Frame.Rows())
	return nil
}

func splitColumns(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
