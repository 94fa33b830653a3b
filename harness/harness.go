package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/weiihann/mulbench/vector"
)

// Runner invokes the timing wrapper around a program under test.
type Runner struct {
	Timer     string
	ExtraArgs []string
	Env       []string
	Logger    *slog.Logger
}

// NewRunner creates a Runner for the given timing wrapper. ExtraArgs are
// placed before the program path; Env is appended to the inherited
// environment.
func NewRunner(
	timer string,
	extraArgs, env []string,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Timer:     timer,
		ExtraArgs: extraArgs,
		Env:       env,
		Logger:    logger.With(slog.String("timer", timer)),
	}
}

// Exec runs "<timer> <program> <x> <y>" to completion and returns the
// program's reported product and the wrapper's timing report. Each call
// captures stdout and stderr in its own buffers.
func (r *Runner) Exec(ctx context.Context, program, x, y string) (string, Timing, error) {
	args := make([]string, 0, len(r.ExtraArgs)+3)
	args = append(args, r.ExtraArgs...)
	args = append(args, program, x, y)

	cmd := exec.CommandContext(ctx, r.Timer, args...)

	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", Timing{}, ctxErr
		}

		// The wrapper's exit status is not part of its contract; only
		// the timing report decides whether the run is usable.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", Timing{}, fmt.Errorf("start %s: %w", r.Timer, err)
		}

		r.Logger.Debug("timer exited non-zero",
			slog.String("program", program),
			slog.Int("exit_code", exitErr.ExitCode()),
		)
	}

	timing, err := ParseTiming(stderr.String())
	if err != nil {
		return "", Timing{}, err
	}

	return firstLine(stdout.String()), timing, nil
}

// Harness drives every program over every test run and writes one CSV
// per (program, bit-width).
type Harness struct {
	Runner    *Runner
	OutputDir string
	Logger    *slog.Logger
}

// New creates a Harness writing CSVs under outputDir.
func New(runner *Runner, outputDir string, logger *slog.Logger) *Harness {
	return &Harness{
		Runner:    runner,
		OutputDir: outputDir,
		Logger:    logger,
	}
}

// Run benchmarks each program against each run, bit-widths in ascending
// order and programs in the order given. The first error aborts the whole
// run; CSVs of pairs that completed before it are kept.
func (h *Harness) Run(
	ctx context.Context,
	runs vector.Runs,
	programs []string,
) ([]Summary, error) {
	if len(programs) == 0 {
		return nil, ErrNoPrograms
	}

	if err := PrepareOutput(h.OutputDir, programs); err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(runs)*len(programs))

	for _, bits := range runs.Bits() {
		run := runs[bits]

		for _, program := range programs {
			table, err := h.RunTable(ctx, program, run)
			if err != nil {
				return summaries, fmt.Errorf(
					"%s at %s bits: %w", program, bits, err,
				)
			}

			path := CSVPath(h.OutputDir, program, bits)
			if err := WriteCSV(path, table.Results); err != nil {
				return summaries, err
			}

			summary, err := Summarize(table)
			if err != nil {
				return summaries, fmt.Errorf("summarize %s: %w", path, err)
			}

			summary.CSVPath = path
			summaries = append(summaries, summary)

			h.Logger.InfoContext(ctx, "table written",
				slog.String("program", program),
				slog.String("bits", bits),
				slog.String("csv", path),
				slog.Int("vectors", summary.Vectors),
				slog.Int("correct", summary.Correct),
			)
		}
	}

	return summaries, nil
}

// RunTable times program on every vector of run, in order.
func (h *Harness) RunTable(
	ctx context.Context,
	program string,
	run vector.Run,
) (*Table, error) {
	logger := h.Logger.With(
		slog.String("program", program),
		slog.String("bits", run.Bits),
	)

	logger.InfoContext(ctx, "starting table",
		slog.Int("vectors", len(run.Vectors)),
	)

	table := &Table{
		Program: program,
		Bits:    run.Bits,
		Results: make([]Result, 0, len(run.Vectors)),
	}

	start := time.Now()

	for i, v := range run.Vectors {
		product, timing, err := h.Runner.Exec(ctx, program, v.LHS, v.RHS)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}

		result := Result{
			X:       v.LHS,
			Y:       v.RHS,
			Product: product,
			Target:  v.Product,
			Timing:  timing,
		}

		if !result.Correct() {
			logger.DebugContext(ctx, "wrong product", slog.Int("vector", i))
		}

		table.Results = append(table.Results, result)
	}

	logger.InfoContext(ctx, "table finished",
		slog.Duration("wall_time", time.Since(start)),
	)

	return table, nil
}

// Summarize computes aggregate counts and timings for a table.
func Summarize(table *Table) (Summary, error) {
	s := Summary{
		Program: table.Program,
		Bits:    table.Bits,
		Vectors: len(table.Results),
	}

	if len(table.Results) == 0 {
		return s, nil
	}

	s.RealMin = math.Inf(1)

	for i, r := range table.Results {
		if r.Correct() {
			s.Correct++
		}

		wall, user, sys, err := r.Timing.Seconds()
		if err != nil {
			return s, fmt.Errorf("row %d: %w", i, err)
		}

		s.RealTotal += wall
		s.UserTotal += user
		s.SystemTotal += sys
		s.RealMin = math.Min(s.RealMin, wall)
		s.RealMax = math.Max(s.RealMax, wall)
	}

	return s, nil
}

// PrepareOutput creates <outputDir>/<program> for every program and
// checks that each one accepts new files, so a bad output location fails
// before any program is timed.
func PrepareOutput(outputDir string, programs []string) error {
	for _, program := range programs {
		dir := filepath.Dir(CSVPath(outputDir, program, "0"))

		info, err := os.Stat(dir)
		switch {
		case err == nil && !info.IsDir():
			return fmt.Errorf("%w: %s is not a directory", ErrOutputDir, dir)
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("%w: %w", ErrOutputDir, err)
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputDir, err)
		}

		f, err := os.CreateTemp(dir, ".mulbench-*")
		if err != nil {
			return fmt.Errorf("%w: %s is not writable: %w", ErrOutputDir, dir, err)
		}

		f.Close()
		os.Remove(f.Name())
	}

	return nil
}

// CSVPath returns <outputDir>/<program>/<bits>.csv.
func CSVPath(outputDir, program, bits string) string {
	return filepath.Join(outputDir, program, bits+".csv")
}

// CSVHeader is the first line of every result CSV.
const CSVHeader = "x,y,result,target,realtime,usertime,systemtime"

// WriteCSV writes results to path, creating its directory. Fields are
// joined with commas without quoting. The file is written under a
// temporary name and renamed into place, so path never holds a partial
// table.
func WriteCSV(path string, results []Result) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp csv in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	var b strings.Builder

	b.WriteString(CSVHeader)
	b.WriteByte('\n')

	for _, r := range results {
		b.WriteString(strings.Join([]string{
			r.X, r.Y, r.Product, r.Target,
			r.Timing.Real, r.Timing.User, r.Timing.Sys,
		}, ","))
		b.WriteByte('\n')
	}

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}

	return nil
}
