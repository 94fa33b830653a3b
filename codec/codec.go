// Package codec maps file extensions to streaming compression formats
// used for test-vector files.
package codec

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrUnknownCodec is returned by Lookup for an unregistered name.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec is a streaming compression format identified by its file
// extension.
type Codec interface {
	// Ext returns the extension without the leading dot.
	Ext() string
	NewWriter(w io.Writer) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

var registry = map[string]Codec{
	"bz2": bzip2Codec{},
	"gz":  gzipCodec{},
	"lz4": lz4Codec{},
	"zst": zstdCodec{},
}

// Default is the codec name used when none is configured.
const Default = "bz2"

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownCodec, name, Names())
	}

	return c, nil
}

// Names returns the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

type bzip2Codec struct{}

func (bzip2Codec) Ext() string { return "bz2" }

func (bzip2Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
}

func (bzip2Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}

type gzipCodec struct{}

func (gzipCodec) Ext() string { return "gz" }

func (gzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

type lz4Codec struct{}

func (lz4Codec) Ext() string { return "lz4" }

func (lz4Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

func (lz4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

type zstdCodec struct{}

func (zstdCodec) Ext() string { return "zst" }

func (zstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}

	return dec.IOReadCloser(), nil
}
