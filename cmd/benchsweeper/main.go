package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/wdm0006/datasweeper/pkg/convert"
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

type genConfig struct {
	rows  int
	fcols int
	icols int
	scols int
	missp float64
	dupp  float64
}

// generate builds a frame where each row repeats an earlier one with
// probability dupp and each cell is missing with probability missp.
func generate(cfg genConfig, rnd *rand.Rand) *sw.Frame {
	var cols []sw.ColumnSchema
	for i := 0; i < cfg.fcols; i++ {
		cols = append(cols, sw.ColumnSchema{Name: fmt.Sprintf("f%d", i), Type: sw.KindFloat, Nullable: true})
	}
	for i := 0; i < cfg.icols; i++ {
		cols = append(cols, sw.ColumnSchema{Name: fmt.Sprintf("i%d", i), Type: sw.KindInt, Nullable: true})
	}
	for i := 0; i < cfg.scols; i++ {
		cols = append(cols, sw.ColumnSchema{Name: fmt.Sprintf("s%d", i), Type: sw.KindString, Nullable: true})
	}
	schema := sw.Schema{Columns: cols}
	f := sw.NewFrame(schema)
	for r := 0; r < cfg.rows; r++ {
		f.AppendNullRow()
		if r > 0 && rnd.Float64() < cfg.dupp {
			src := f.Row(rnd.Intn(r))
			for c, cs := range schema.Columns {
				_ = f.SetCell(r, cs.Name, src[c])
			}
			continue
		}
		for _, cs := range schema.Columns {
			if rnd.Float64() < cfg.missp {
				continue
			}
			switch cs.Type {
			case sw.KindFloat:
				_ = f.SetCell(r, cs.Name, rnd.Float64()*100)
			case sw.KindInt:
				_ = f.SetCell(r, cs.Name, int64(rnd.Intn(100)))
			case sw.KindString:
				_ = f.SetCell(r, cs.Name, fmt.Sprintf("item-%d", rnd.Intn(1000)))
			}
		}
	}
	return f
}

func main() {
	var (
		rows    = flag.Int("rows", 200_000, "rows to generate")
		fcols   = flag.Int("float-cols", 4, "number of float columns")
		icols   = flag.Int("int-cols", 2, "number of int columns")
		scols   = flag.Int("string-cols", 2, "number of string columns")
		missp   = flag.Float64("missing", 0.05, "probability of a missing cell")
		dupp    = flag.Float64("dup", 0.1, "probability of a row duplicating an earlier one")
		to      = flag.String("to", "csv", "output format")
		jsonOut = flag.Bool("json", false, "emit JSON summary")
		seed    = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	target, err := convert.ParseFormat(*to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg := genConfig{rows: *rows, fcols: *fcols, icols: *icols, scols: *scols, missp: *missp, dupp: *dupp}
	frame := generate(cfg, rand.New(rand.NewSource(*seed)))
	plan := convert.Plan{RemoveDuplicates: true, FillMissing: true, Target: target}

	runtime.GC()
	time.Sleep(100 * time.Millisecond)

	var msBefore, msAfter runtime.MemStats
	runtime.ReadMemStats(&msBefore)
	start := time.Now()
	cleaned, err := plan.Pipeline().Run(context.Background(), frame)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cleanElapsed := time.Since(start)
	data, err := convert.Encode(cleaned, target, convert.EncodeOptions{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&msAfter)

	rowsPerSec := float64(*rows) / elapsed.Seconds()
	summary := map[string]any{
		"rows":                  *rows,
		"rows_out":              cleaned.Rows(),
		"format":                string(target),
		"output_bytes":          len(data),
		"clean_ms":              cleanElapsed.Milliseconds(),
		"elapsed_ms":            elapsed.Milliseconds(),
		"rows_per_sec":          rowsPerSec,
		"mem_alloc_bytes":       msAfter.Alloc,
		"mem_total_alloc_bytes": msAfter.TotalAlloc - msBefore.TotalAlloc,
		"gc_num":                msAfter.NumGC - msBefore.NumGC,
		"cols":                  map[string]int{"float": *fcols, "int": *icols, "string": *scols},
		"missing_prob":          *missp,
		"dup_prob":              *dupp,
	}

	if *jsonOut {
		b, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Printf("Rows: %d in, %d out\n", *rows, cleaned.Rows())
	fmt.Printf("Output: %s, %d bytes\n", target, len(data))
	fmt.Printf("Clean: %s\n", cleanElapsed)
	fmt.Printf("Elapsed: %s\n", elapsed)
	fmt.Printf("Throughput: %.0f rows/s\n", rowsPerSec)
	fmt.Printf("Current Alloc: %d MB\n", msAfter.Alloc/1024/1024)
	fmt.Printf("Total Alloc (delta): %d MB\n", (msAfter.TotalAlloc-msBefore.TotalAlloc)/1024/1024)
	fmt.Printf("GC cycles (delta): %d\n", msAfter.NumGC-msBefore.NumGC)
}
