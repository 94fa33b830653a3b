// Package vector generates, stores and discovers multiplication test
// vectors. A test file holds one vector per line as three decimal
// integers, "<lhs> <rhs> <product>", inside a compressed stream.
package vector

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single vector line. A 4096-bit pair produces a
// product of roughly 2500 digits, well under this.
const maxLineSize = 1 << 20

// Vector is one (lhs, rhs, expected product) triple in decimal form.
type Vector struct {
	LHS     string
	RHS     string
	Product string
}

// String renders the vector as a test-file line without the newline.
func (v Vector) String() string {
	return v.LHS + " " + v.RHS + " " + v.Product
}

// FileName returns the conventional test file name for a bit-width.
func FileName(bits int, ext string) string {
	return fmt.Sprintf("n%d.%s", bits, ext)
}

// WriteVectors writes vectors to w, one line each.
func WriteVectors(w io.Writer, vectors []Vector) error {
	bw := bufio.NewWriter(w)

	for i, v := range vectors {
		if _, err := bw.WriteString(v.String() + "\n"); err != nil {
			return fmt.Errorf("write vector %d: %w", i, err)
		}
	}

	return bw.Flush()
}

// ReadVectors parses vector lines from r in order. Each non-blank line
// must hold exactly three whitespace-separated tokens.
func ReadVectors(r io.Reader) ([]Vector, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		vectors []Vector
		lineNum int
	)

	for scanner.Scan() {
		lineNum++

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 3 {
			return nil, fmt.Errorf(
				"line %d: want 3 fields, got %d", lineNum, len(fields),
			)
		}

		vectors = append(vectors, Vector{
			LHS:     fields[0],
			RHS:     fields[1],
			Product: fields[2],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan line %d: %w", lineNum+1, err)
	}

	return vectors, nil
}
