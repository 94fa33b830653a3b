package harness

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoPrograms is returned when a run names no program to benchmark.
	ErrNoPrograms = errors.New("no programs to benchmark")

	// ErrProgram reports a program path that cannot be executed.
	ErrProgram = errors.New("invalid program")

	// ErrOutputDir reports a CSV directory that cannot be created or
	// written.
	ErrOutputDir = errors.New("invalid output directory")
)

// DefaultTimer is the timing wrapper invoked when none is configured.
const DefaultTimer = "./ctime"

// CheckPrograms verifies that every program exists and is an executable
// regular file. Paths are used verbatim: the timing wrapper resolves them
// relative to the working directory without a PATH search.
func CheckPrograms(programs []string) error {
	if len(programs) == 0 {
		return ErrNoPrograms
	}

	seen := make(map[string]bool, len(programs))

	for _, p := range programs {
		if seen[p] {
			return fmt.Errorf("%w: %s listed twice", ErrProgram, p)
		}

		seen[p] = true

		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProgram, err)
		}

		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s is not a regular file", ErrProgram, p)
		}

		if info.Mode().Perm()&0o111 == 0 {
			return fmt.Errorf("%w: %s is not executable", ErrProgram, p)
		}
	}

	return nil
}
