package vector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/weiihann/mulbench/codec"
)

// ErrInputDir reports a missing or unusable input directory.
var ErrInputDir = errors.New("invalid input directory")

// Run is the set of vectors loaded from one test file.
type Run struct {
	Bits    string
	Path    string
	Vectors []Vector
}

// Runs maps a bit-width, as written in the file name, to its Run.
type Runs map[string]Run

// Bits returns the bit-widths in ascending numeric order.
func (r Runs) Bits() []string {
	bits := make([]string, 0, len(r))
	for b := range r {
		bits = append(bits, b)
	}

	sort.Slice(bits, func(i, j int) bool {
		bi, _ := strconv.ParseUint(bits[i], 10, 64)
		bj, _ := strconv.ParseUint(bits[j], 10, 64)
		if bi != bj {
			return bi < bj
		}

		return bits[i] < bits[j]
	})

	return bits
}

// MatchFileName reports whether name has the form n<digits>.<ext> and
// returns the digits.
func MatchFileName(name, ext string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "n")
	if !ok {
		return "", false
	}

	digits, ok := strings.CutSuffix(rest, "."+ext)
	if !ok || digits == "" {
		return "", false
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}

	return digits, true
}

// Discover loads every test file directly inside dir whose name matches
// n<digits>.<ext>. Entries that do not match, or are not regular files,
// are skipped.
func Discover(dir string, c codec.Codec) (Runs, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputDir, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInputDir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", dir, err)
	}

	runs := make(Runs)

	for _, entry := range entries {
		bits, ok := MatchFileName(entry.Name(), c.Ext())
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		// Stat follows symlinks, so a link to a regular file counts.
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}

		vectors, err := LoadFile(path, c)
		if err != nil {
			return nil, err
		}

		runs[bits] = Run{Bits: bits, Path: path, Vectors: vectors}
	}

	return runs, nil
}

// LoadFile decompresses and parses a single test file.
func LoadFile(path string, c codec.Codec) ([]Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	zr, err := c.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open %s stream for %s: %w", c.Ext(), path, err)
	}
	defer zr.Close()

	vectors, err := ReadVectors(zr)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return vectors, nil
}
