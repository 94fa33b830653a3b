// Package main provides the CLI entry point for mulbench, a benchmark
// harness for external big-integer multiplication programs.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/weiihann/mulbench/codec"
	"github.com/weiihann/mulbench/harness"
	"github.com/weiihann/mulbench/report"
	"github.com/weiihann/mulbench/vector"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	root := newRootCmd(logger, level)
	err := root.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.Error("mulbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "mulbench",
		Short: "Benchmark harness for big-integer multiplication programs",
		Long: `Mulbench generates random multiplication test vectors and times
external multiplication programs on them through a timing wrapper,
writing one CSV per program and bit-width.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(newGenerateCmd(logger))
	root.AddCommand(newRunCmd(logger))

	return root
}

func newGenerateCmd(logger *slog.Logger) *cobra.Command {
	var cfg generateConfig

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate compressed multiplication test vectors",
		Long: `Write one compressed file n<bits>.<ext> per bit-width, each holding
random "<lhs> <rhs> <product>" lines. Existing files are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), logger, cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&cfg.bits, "bits", vector.DefaultBits,
		"Operand bit-widths to generate")
	flags.IntVarP(&cfg.count, "count", "n", vector.DefaultCount,
		"Number of vectors per file")
	flags.StringVarP(&cfg.outputDir, "output", "o", "./data",
		"Directory to write test files into")
	flags.StringVar(&cfg.codec, "codec", codec.Default,
		fmt.Sprintf("Compression codec %v", codec.Names()))
	flags.Int64Var(&cfg.seed, "seed", 0,
		"Random seed (0 = seed from system entropy)")

	return cmd
}

type generateConfig struct {
	bits      []int
	count     int
	outputDir string
	codec     string
	seed      int64
}

func runGenerate(ctx context.Context, logger *slog.Logger, cfg generateConfig) error {
	c, err := codec.Lookup(cfg.codec)
	if err != nil {
		return err
	}

	if cfg.count < 0 {
		return fmt.Errorf("count must not be negative, got %d", cfg.count)
	}

	seed := cfg.seed
	if seed == 0 {
		if seed, err = vector.EntropySeed(); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "generating test vectors",
		slog.Any("bits", cfg.bits),
		slog.Int("count", cfg.count),
		slog.String("output", cfg.outputDir),
		slog.String("codec", cfg.codec),
		slog.Int64("seed", seed),
	)

	gen := vector.NewGenerator(vector.Config{
		Bits:  cfg.bits,
		Count: cfg.count,
		Seed:  seed,
	})

	summary, err := gen.WriteFiles(cfg.outputDir, c)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	for _, f := range summary.Files {
		logger.InfoContext(ctx, "test file written",
			slog.Int("bits", f.Bits),
			slog.String("path", f.Path),
			slog.Int("vectors", f.Vectors),
		)
	}

	return nil
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "run [flags] program...",
		Short: "Time multiplication programs on the generated test vectors",
		Long: `Run every program on every test vector found in the input directory
through the timing wrapper, and write <output>/<program>/<bits>.csv for each
program and bit-width. The output directory defaults to the input directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.programs = args

			return runBenchmark(cmd.Context(), logger, cmd.OutOrStdout(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.inputDir, "input", "i", "./data",
		"Where to find test files")
	flags.StringVarP(&cfg.outputDir, "output", "o", "",
		"Directory under which <program>/<bits>.csv is written (default: --input)")
	flags.StringVar(&cfg.timer, "timer", harness.DefaultTimer,
		"Timing wrapper invoked as <timer> <program> <x> <y>")
	flags.StringVar(&cfg.codec, "codec", codec.Default,
		fmt.Sprintf("Compression codec of the test files %v", codec.Names()))
	flags.BoolVar(&cfg.outputJSON, "json", false,
		"Output the summary as JSON instead of a table")

	// Everything after the first program name is another program.
	flags.SetInterspersed(false)

	return cmd
}

type runConfig struct {
	inputDir   string
	outputDir  string
	timer      string
	codec      string
	programs   []string
	outputJSON bool
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	out io.Writer,
	cfg runConfig,
) error {
	c, err := codec.Lookup(cfg.codec)
	if err != nil {
		return err
	}

	if err := harness.CheckPrograms(cfg.programs); err != nil {
		return err
	}

	// Step 1: Discover test files.
	runs, err := vector.Discover(cfg.inputDir, c)
	if err != nil {
		return fmt.Errorf("discover test files: %w", err)
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("input", cfg.inputDir),
		slog.Any("bits", runs.Bits()),
		slog.Any("programs", cfg.programs),
		slog.String("timer", cfg.timer),
	)

	if len(runs) == 0 {
		logger.WarnContext(ctx, "no test files found",
			slog.String("input", cfg.inputDir),
			slog.String("pattern", "n<bits>."+c.Ext()),
		)

		return nil
	}

	outputDir := cfg.outputDir
	if outputDir == "" {
		outputDir = cfg.inputDir
	}

	// Step 2: Time every program on every run.
	runner := harness.NewRunner(cfg.timer, nil, nil, logger)
	h := harness.New(runner, outputDir, logger)

	summaries, err := h.Run(ctx, runs, cfg.programs)
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}

	// Step 3: Report.
	if cfg.outputJSON {
		if err := report.GenerateJSON(out, summaries); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(out, summaries); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}
