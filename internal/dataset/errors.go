package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoData indicates the input has no header or no data rows.
	ErrNoData = errors.New("dataset has no data")
	// ErrUnsupported indicates a file format that cannot be read.
	ErrUnsupported = errors.New("unsupported dataset format")
	// ErrTooLarge indicates a decompressed payload over the configured limit.
	ErrTooLarge = errors.New("dataset too large")
	// ErrMalformed indicates input that cannot be decoded as its format.
	ErrMalformed = errors.New("malformed dataset")
)

// SchemaError reports that the required columns are absent or unusable.
type SchemaError struct {
	// Missing lists required column names not present in the header.
	Missing []string
	// Columns lists the header as read.
	Columns []string
	// Reason describes a column that is present but holds no numeric values.
	Reason string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required column(s) %s; found: %s",
			quoteAll(e.Missing), strings.Join(e.Columns, ", "))
	}
	if e.Reason != "" {
		return "invalid dataset: " + e.Reason
	}
	return "invalid dataset schema"
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}
