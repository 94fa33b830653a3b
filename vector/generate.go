package vector

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	mrand "math/rand"
	"os"
	"path/filepath"

	"github.com/weiihann/mulbench/codec"
)

// DefaultBits are the operand widths generated when none are configured.
var DefaultBits = []int{64, 128, 256, 512, 1024, 2048, 4096}

// DefaultCount is the number of vectors per file.
const DefaultCount = 10000

// Config controls test vector generation.
type Config struct {
	Bits  []int
	Count int
	// Seed makes generation reproducible. Callers wanting fresh vectors
	// per run should pass EntropySeed().
	Seed int64
}

// FileSummary describes one written test file.
type FileSummary struct {
	Bits    int
	Path    string
	Vectors int
}

// Summary contains statistics about a generation run.
type Summary struct {
	Files []FileSummary
}

// Generator produces random multiplication vectors from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// EntropySeed returns a seed drawn from the system entropy source.
func EntropySeed() (int64, error) {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read entropy: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

// Generate writes Count vectors of the given bit-width to w. Both
// operands are uniform in [0, 2^bits-1].
func (g *Generator) Generate(w io.Writer, bits int) (int, error) {
	if bits <= 0 {
		return 0, fmt.Errorf("bit-width must be positive, got %d", bits)
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	product := new(big.Int)
	batch := make([]Vector, 0, 256)
	written := 0

	for i := 0; i < g.cfg.Count; i++ {
		lhs := new(big.Int).Rand(g.rng, limit)
		rhs := new(big.Int).Rand(g.rng, limit)
		product.Mul(lhs, rhs)

		batch = append(batch, Vector{
			LHS:     lhs.String(),
			RHS:     rhs.String(),
			Product: product.String(),
		})

		if len(batch) == cap(batch) {
			if err := WriteVectors(w, batch); err != nil {
				return written, err
			}

			written += len(batch)
			batch = batch[:0]
		}
	}

	if err := WriteVectors(w, batch); err != nil {
		return written, err
	}

	return written + len(batch), nil
}

// WriteFiles generates one compressed file per configured bit-width in
// dir, overwriting existing files. Each file is closed before the next
// one is started.
func (g *Generator) WriteFiles(dir string, c codec.Codec) (Summary, error) {
	var summary Summary

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return summary, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	for _, bits := range g.cfg.Bits {
		path := filepath.Join(dir, FileName(bits, c.Ext()))

		n, err := g.writeFile(path, bits, c)
		if err != nil {
			return summary, err
		}

		summary.Files = append(summary.Files, FileSummary{
			Bits:    bits,
			Path:    path,
			Vectors: n,
		})
	}

	return summary, nil
}

func (g *Generator) writeFile(path string, bits int, c codec.Codec) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	zw, err := c.NewWriter(f)
	if err != nil {
		f.Close()

		return 0, fmt.Errorf("open %s stream for %s: %w", c.Ext(), path, err)
	}

	n, err := g.Generate(zw, bits)
	if err != nil {
		zw.Close()
		f.Close()

		return n, fmt.Errorf("generate %s: %w", path, err)
	}

	if err := zw.Close(); err != nil {
		f.Close()

		return n, fmt.Errorf("flush %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", path, err)
	}

	return n, nil
}
