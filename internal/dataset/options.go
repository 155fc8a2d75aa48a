package dataset

// Options controls how a two-column dataset is read.
type Options struct {
	// XColumn and YColumn name the independent and dependent columns.
	XColumn string
	YColumn string
	// Delimiter for CSV. If 0, inferred from the file name and header line.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, strip common separators (',' '.' space)
	// MaxRows limits rows used for fitting; 0 means unlimited.
	MaxRows int
	// PreviewRows is how many raw rows to keep for display.
	PreviewRows int
	// XLSX sheet selection: name wins over 1-based index; both empty means the first sheet.
	SheetName  string
	SheetIndex int
	// MaxDecompressedBytes caps the size of a decompressed upload; 0 means 64 MiB.
	MaxDecompressedBytes int64
}

const (
	defaultXColumn       = "X"
	defaultYColumn       = "Y"
	defaultMaxDecompress = 64 << 20
)

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		XColumn:     defaultXColumn,
		YColumn:     defaultYColumn,
		MaxRows:     100000,
		PreviewRows: 10,
	}
}

func (o Options) normalized() Options {
	if o.XColumn == "" {
		o.XColumn = defaultXColumn
	}
	if o.YColumn == "" {
		o.YColumn = defaultYColumn
	}
	if o.PreviewRows < 0 {
		o.PreviewRows = 0
	}
	if o.MaxDecompressedBytes <= 0 {
		o.MaxDecompressedBytes = defaultMaxDecompress
	}
	return o
}
