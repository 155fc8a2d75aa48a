package dataset

import (
	"fmt"
	"os"
	"path/filepath"
)

// Reader reads one dataset format.
type Reader interface {
	CanRead(name string) bool
	Read(name string, data []byte, opt Options) (*Dataset, error)
}

var registry []Reader

// Register adds a reader to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// Load decompresses data if its name carries a compression suffix, then
// picks a reader by the remaining extension. Readers see the inner name;
// the returned dataset keeps the uploaded one.
func Load(name string, data []byte, opt Options) (*Dataset, error) {
	opt = opt.normalized()
	inner, payload, err := decompress(name, data, opt.MaxDecompressedBytes)
	if err != nil {
		return nil, err
	}
	for _, r := range registry {
		if r.CanRead(inner) {
			ds, err := r.Read(inner, payload, opt)
			if err != nil {
				return nil, err
			}
			ds.Name = name
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%s: %w (expected .csv, .tsv or .xlsx)", name, ErrUnsupported)
}

// LoadFile reads a dataset from disk.
func LoadFile(path string, opt Options) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Load(filepath.Base(path), data, opt)
}
