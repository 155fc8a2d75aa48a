package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type csvReader struct{}

func (csvReader) CanRead(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".csv") || strings.HasSuffix(n, ".tsv") || strings.HasSuffix(n, ".txt")
}

func (csvReader) Read(name string, data []byte, opt Options) (*Dataset, error) {
	return ReadCSV(bytes.NewReader(data), name, opt)
}

// ReadCSV reads a delimited text dataset. The name is used for delimiter
// inference and reporting.
func ReadCSV(r io.Reader, name string, opt Options) (*Dataset, error) {
	h := xxhash.New()
	br := bufio.NewReader(io.TeeReader(r, h))
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, br)
	}
	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	format := "csv"
	if delim == '\t' {
		format = "tsv"
	}
	ds, err := build(name, format, csvSource{cr}, opt)
	if err != nil {
		return nil, err
	}
	// drain so the fingerprint covers the whole input
	if _, err := io.Copy(io.Discard, br); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	ds.Fingerprint = fmt.Sprintf("%016x", h.Sum64())
	return ds, nil
}

type csvSource struct{ r *csv.Reader }

func (s csvSource) Next() ([]string, error) { return s.r.Read() }

// sniffDelimiter picks tab for .tsv files, otherwise looks at the header line
// for the most frequent of ',', ';' and tab, defaulting to comma.
func sniffDelimiter(name string, br *bufio.Reader) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	peek, _ := br.Peek(4096)
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
