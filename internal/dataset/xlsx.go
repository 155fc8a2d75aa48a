package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// maxSheetColumns is the widest row a worksheet may hold (column XFD).
const maxSheetColumns = 16384

type xlsxReader struct{}

func (xlsxReader) CanRead(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

func (xlsxReader) Read(name string, data []byte, opt Options) (*Dataset, error) {
	return ReadXLSX(data, name, opt)
}

// ReadXLSX reads the sheet selected by opt.SheetName or opt.SheetIndex
// (1-based), defaulting to the first sheet. The parts it inflates share the
// opt.MaxDecompressedBytes budget.
func ReadXLSX(data []byte, name string, opt Options) (*Dataset, error) {
	opt = opt.normalized()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w: %w", ErrMalformed, err)
	}
	book := newWorkbook(zr, opt.MaxDecompressedBytes)

	sheets, err := book.sheets()
	if err != nil {
		return nil, err
	}
	target, err := sheets.resolve(opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, err
	}
	sheetXML, err := book.part(target)
	if err != nil {
		return nil, err
	}
	if len(sheetXML) == 0 {
		return nil, fmt.Errorf("%s: worksheet %s not found: %w", name, target, ErrNoData)
	}
	shared, err := book.sharedStrings()
	if err != nil {
		return nil, err
	}
	ds, err := build(name, "xlsx", newSheetRows(sheetXML, shared), opt)
	if err != nil {
		return nil, err
	}
	ds.Fingerprint = fmt.Sprintf("%016x", xxhash.Sum64(data))
	return ds, nil
}

// workbook reads parts out of an xlsx archive, charging every inflated byte
// against a single budget.
type workbook struct {
	files     map[string]*zip.File
	remaining int64
}

func newWorkbook(zr *zip.Reader, limit int64) *workbook {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	return &workbook{files: files, remaining: limit}
}

// part returns the inflated part, or nil when the archive does not hold it.
func (w *workbook) part(name string) ([]byte, error) {
	f, ok := w.files[name]
	if !ok {
		return nil, nil
	}
	if f.UncompressedSize64 > uint64(w.remaining) {
		return nil, fmt.Errorf("xlsx part %s: %d bytes exceeds the remaining %d: %w", name, f.UncompressedSize64, w.remaining, ErrTooLarge)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open xlsx part %s: %w: %w", name, ErrMalformed, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, w.remaining+1))
	if err != nil {
		return nil, fmt.Errorf("inflate xlsx part %s: %w: %w", name, ErrMalformed, err)
	}
	if int64(len(b)) > w.remaining {
		return nil, fmt.Errorf("xlsx part %s: inflated size exceeds the remaining %d bytes: %w", name, w.remaining, ErrTooLarge)
	}
	w.remaining -= int64(len(b))
	return b, nil
}

// unmarshalPart decodes an optional XML part into v; a missing part leaves v untouched.
func (w *workbook) unmarshalPart(name string, v any) error {
	b, err := w.part(name)
	if err != nil || len(b) == 0 {
		return err
	}
	if err := xml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode xlsx part %s: %w: %w", name, ErrMalformed, err)
	}
	return nil
}

type sheetEntry struct {
	Name string `xml:"name,attr"`
	ID   int    `xml:"sheetId,attr"`
	Rel  string `xml:"id,attr"`
}

type sheetList struct {
	entries []sheetEntry
	targets map[string]string // relationship id -> part name
}

func (w *workbook) sheets() (*sheetList, error) {
	var book struct {
		Sheets []sheetEntry `xml:"sheets>sheet"`
	}
	if err := w.unmarshalPart("xl/workbook.xml", &book); err != nil {
		return nil, err
	}
	var rels struct {
		Items []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := w.unmarshalPart("xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	list := &sheetList{entries: book.Sheets, targets: make(map[string]string, len(rels.Items))}
	for _, r := range rels.Items {
		if r.ID != "" && r.Target != "" {
			list.targets[r.ID] = partName(r.Target)
		}
	}
	return list, nil
}

// resolve maps a sheet name (case-insensitive) or 1-based sheet id to its
// worksheet part.
func (l *sheetList) resolve(name string, index int) (string, error) {
	if name != "" {
		names := make([]string, 0, len(l.entries))
		for _, s := range l.entries {
			if target, ok := l.targets[s.Rel]; ok && strings.EqualFold(s.Name, name) {
				return target, nil
			}
			names = append(names, s.Name)
		}
		return "", &SchemaError{Reason: fmt.Sprintf("sheet %q not found; available sheets: %s", name, strings.Join(names, ", "))}
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range l.entries {
		if target, ok := l.targets[s.Rel]; ok && s.ID == index {
			return target, nil
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", index), nil
}

// partName turns a workbook relationship target into a zip entry name.
// Targets are relative to xl/ unless they already start there.
func partName(target string) string {
	p := path.Clean("/" + target)[1:]
	if !strings.HasPrefix(p, "xl/") {
		p = "xl/" + p
	}
	return p
}

// richText is the <si> and <is> shape: plain <t> or a run of <r><t>.
type richText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (rt richText) String() string {
	if len(rt.Runs) == 0 {
		return rt.T
	}
	var sb strings.Builder
	sb.WriteString(rt.T)
	for _, r := range rt.Runs {
		sb.WriteString(r.T)
	}
	return sb.String()
}

func (w *workbook) sharedStrings() ([]string, error) {
	var sst struct {
		Items []richText `xml:"si"`
	}
	if err := w.unmarshalPart("xl/sharedStrings.xml", &sst); err != nil {
		return nil, err
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		out[i] = si.String()
	}
	return out, nil
}

type sheetCell struct {
	Ref    string   `xml:"r,attr"`
	Type   string   `xml:"t,attr"`
	Value  string   `xml:"v"`
	Inline richText `xml:"is"`
}

func (c sheetCell) text(shared []string) string {
	switch c.Type {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i]
	case "inlineStr":
		return c.Inline.String()
	default:
		return c.Value
	}
}

// sheetRows streams worksheet rows as records.
type sheetRows struct {
	dec    *xml.Decoder
	shared []string
}

func newSheetRows(data []byte, shared []string) *sheetRows {
	return &sheetRows{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the next row, or io.EOF after the last one. Cells are placed
// by their reference; cells without one follow the previous cell.
func (r *sheetRows) Next() ([]string, error) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("decode sheet: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "row":
				inRow, row = true, row[:0]
			case inRow && el.Name.Local == "c":
				var c sheetCell
				if err := r.dec.DecodeElement(&c, &el); err != nil {
					return nil, fmt.Errorf("decode cell: %w", err)
				}
				col, err := cellColumn(c.Ref)
				if err != nil {
					return nil, err
				}
				if col < 0 {
					col = len(row)
				}
				if col >= maxSheetColumns {
					return nil, fmt.Errorf("cell %q: column beyond %d", c.Ref, maxSheetColumns)
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = c.text(r.shared)
			}
		case xml.EndElement:
			if inRow && el.Name.Local == "row" {
				return row, nil
			}
		}
	}
}

// cellColumn maps a reference such as "C12" to the zero-based column 2.
// It returns -1 for an empty reference.
func cellColumn(ref string) (int, error) {
	letters := strings.IndexFunc(ref, func(c rune) bool {
		return (c < 'A' || c > 'Z') && (c < 'a' || c > 'z')
	})
	if letters < 0 {
		letters = len(ref)
	}
	if letters == 0 {
		if ref == "" {
			return -1, nil
		}
		return 0, fmt.Errorf("cell reference %q has no column", ref)
	}
	if letters > 3 {
		return 0, fmt.Errorf("cell reference %q: column beyond %d", ref, maxSheetColumns)
	}
	col := 0
	for _, c := range strings.ToUpper(ref[:letters]) {
		col = col*26 + int(c-'A') + 1
	}
	if col > maxSheetColumns {
		return 0, fmt.Errorf("cell reference %q: column beyond %d", ref, maxSheetColumns)
	}
	return col - 1, nil
}
