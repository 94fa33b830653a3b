// Package report formats benchmark summaries into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/weiihann/mulbench/harness"
)

// Generate writes a markdown comparison table for the given summaries.
// Rows are grouped by bit-width in the order given.
func Generate(w io.Writer, summaries []harness.Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no results to report")
	}

	fastest := findFastest(summaries)
	wrong := incorrect(summaries)

	// Header.
	fmt.Fprintln(w, "## Multiplication Benchmark Results")
	fmt.Fprintln(w)

	// Correctness check.
	if len(wrong) == 0 {
		fmt.Fprintln(w, "Products: **all correct**")
	} else {
		fmt.Fprintln(w, "Products: **MISMATCH**")

		for _, s := range wrong {
			fmt.Fprintf(w, "  - %s @ %s bits: %d/%d correct\n",
				s.Program, s.Bits, s.Correct, s.Vectors)
		}
	}

	fmt.Fprintln(w)

	// Table header.
	fmt.Fprintln(w, "| Bits | Program | Vectors | Correct | Mean Real "+
		"| Min Real | Max Real | User | Sys | Speedup |")
	fmt.Fprintln(w, "|------|---------|---------|---------|-----------"+
		"|----------|----------|------|-----|---------|")

	for _, s := range summaries {
		speedup := 1.0
		if f := fastest[s.Bits]; f > 0 && s.RealMean() > 0 {
			speedup = s.RealMean() / f
		}

		fmt.Fprintf(w, "| %s | %s | %d | %d | %s | %s | %s | %s | %s | %.2fx |\n",
			s.Bits,
			s.Program,
			s.Vectors,
			s.Correct,
			formatSeconds(s.RealMean()),
			formatSeconds(s.RealMin),
			formatSeconds(s.RealMax),
			formatSeconds(s.UserTotal),
			formatSeconds(s.SystemTotal),
			speedup,
		)
	}

	return nil
}

// GenerateJSON writes summaries as JSON to w.
func GenerateJSON(w io.Writer, summaries []harness.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(summaries)
}

func incorrect(summaries []harness.Summary) []harness.Summary {
	var wrong []harness.Summary

	for _, s := range summaries {
		if s.Correct != s.Vectors {
			wrong = append(wrong, s)
		}
	}

	return wrong
}

// findFastest returns the lowest positive mean real time per bit-width.
func findFastest(summaries []harness.Summary) map[string]float64 {
	fastest := make(map[string]float64)

	for _, s := range summaries {
		mean := s.RealMean()
		if mean <= 0 {
			continue
		}

		if cur, ok := fastest[s.Bits]; !ok || mean < cur {
			fastest[s.Bits] = mean
		}
	}

	return fastest
}

func formatSeconds(sec float64) string {
	switch {
	case sec <= 0 || math.IsInf(sec, 0) || math.IsNaN(sec):
		return "-"
	case sec < 1e-3:
		return fmt.Sprintf("%.0fµs", sec*1e6)
	case sec < 1:
		return fmt.Sprintf("%.2fms", sec*1e3)
	default:
		return fmt.Sprintf("%.2fs", sec)
	}
}
