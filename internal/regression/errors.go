package regression

import "fmt"

// InvalidInputError indicates that no samples were provided.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e == nil || e.Reason == "" {
		return "invalid input"
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// DegenerateInputError indicates that the variance of X is zero, or not
// representable as a float64, so the slope is undefined.
type DegenerateInputError struct {
	X float64 // the shared x-value
	N int     // number of samples
	// Reason is set when the x-values differ but their spread under- or
	// overflows.
	Reason string
}

func (e *DegenerateInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("degenerate input: %s over %d samples, slope is undefined", e.Reason, e.N)
	}
	return fmt.Sprintf("degenerate input: all %d samples share x=%g, slope is undefined", e.N, e.X)
}
