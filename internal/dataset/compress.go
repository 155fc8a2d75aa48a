package dataset

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// decompress strips a known compression suffix from name and inflates data.
// Names without such a suffix are returned untouched.
func decompress(name string, data []byte, limit int64) (string, []byte, error) {
	lower := strings.ToLower(name)
	var (
		r   io.Reader
		ext string
	)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		ext = ".gz"
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", nil, fmt.Errorf("open gzip: %w: %w", ErrMalformed, err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(lower, ".zst"):
		ext = ".zst"
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", nil, fmt.Errorf("open zstd: %w: %w", ErrMalformed, err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(lower, ".lz4"):
		ext = ".lz4"
		r = lz4.NewReader(bytes.NewReader(data))
	default:
		return name, data, nil
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("decompress %s: %w: %w", ext, ErrMalformed, err)
	}
	if int64(len(out)) > limit {
		return "", nil, fmt.Errorf("%s: decompressed size exceeds %d bytes: %w", name, limit, ErrTooLarge)
	}
	return name[:len(name)-len(ext)], out, nil
}
