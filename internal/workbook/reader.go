// Package workbook reads instrument workbooks and mapping tables and writes
// the standardized output workbook.
package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wagner-austin/tree-bot/internal/table"
)

// ErrUnsupportedFormat is returned for extensions the readers do not know.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// SheetError is a failure tied to one worksheet.
type SheetError struct {
	Sheet string
	Op    string
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q: %s: %v", e.Sheet, e.Op, e.Err)
}

func (e *SheetError) Unwrap() error { return e.Err }

// ReadSheets loads every worksheet of an .xlsx workbook as a raw grid, in
// workbook order. Cells carry their stored value, not the displayed one:
// numbers keep full precision and date cells become YYYY-MM-DD (with the
// time appended when it is not midnight). A sheet that cannot be read is
// returned with ReadErr set so the caller can skip it.
func ReadSheets(path string) ([]table.RawSheet, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	cr := newCellReader(f)
	names := f.GetSheetList()
	out := make([]table.RawSheet, 0, len(names))
	for _, name := range names {
		rows, err := cr.rows(name)
		if err != nil {
			out = append(out, table.RawSheet{Name: name, ReadErr: &SheetError{Sheet: name, Op: "read rows", Err: err}})
			continue
		}
		out = append(out, table.RawSheet{Name: name, Grid: rows})
	}
	return out, nil
}

// ReadTables loads tabular mapping data: every sheet of an .xlsx file, or a
// single .csv/.tsv file. The first non-blank row of each sheet is the
// header.
func ReadTables(path string) ([]*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		sheets, err := ReadSheets(path)
		if err != nil {
			return nil, err
		}
		var out []*table.Table
		for _, s := range sheets {
			if s.ReadErr != nil {
				return nil, s.ReadErr
			}
			if t := headerTable(s.Grid); t != nil {
				out = append(out, t)
			}
		}
		return out, nil
	case ".csv":
		return readDelimited(path, ',')
	case ".tsv":
		return readDelimited(path, '\t')
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readDelimited(path string, comma rune) ([]*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var grid table.RawGrid
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read mapping row %d: %w", len(grid)+1, err)
		}
		grid = append(grid, append([]string(nil), rec...))
	}
	if t := headerTable(grid); t != nil {
		return []*table.Table{t}, nil
	}
	return nil, nil
}

func headerTable(grid table.RawGrid) *table.Table {
	for i, row := range grid {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				header := make([]string, len(row))
				for j, h := range row {
					header[j] = strings.TrimSpace(h)
				}
				return table.New(header, grid[i+1:])
			}
		}
	}
	return nil
}

// Built-in number formats that render a date, with or without a time.
// Time-only formats stay numeric.
var dateNumFmts = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

var isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// cellReader converts raw cell values using the cell's type and style.
type cellReader struct {
	f        *excelize.File
	date1904 bool
	styles   map[int]bool // style ID -> renders a date
}

func newCellReader(f *excelize.File) *cellReader {
	cr := &cellReader{f: f, styles: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		cr.date1904 = *props.Date1904
	}
	return cr
}

func (cr *cellReader) rows(sheet string) ([][]string, error) {
	rows, err := cr.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		for j, v := range row {
			if v == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			row[j] = cr.value(sheet, ref, v)
		}
	}
	return rows, nil
}

func (cr *cellReader) value(sheet, ref, v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		// ISO 8601 cells (t="d")
		if len(v) >= 10 && v[4] == '-' {
			if typ, err := cr.f.GetCellType(sheet, ref); err == nil && typ == excelize.CellTypeDate {
				for _, layout := range isoLayouts {
					if t, err := time.Parse(layout, v); err == nil {
						return formatTime(t)
					}
				}
			}
		}
		return v
	}
	if !cr.dateStyled(sheet, ref) {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, cr.date1904)
	if err != nil {
		return v
	}
	return formatTime(t)
}

func (cr *cellReader) dateStyled(sheet, ref string) bool {
	id, err := cr.f.GetCellStyle(sheet, ref)
	if err != nil || id == 0 {
		return false
	}
	if d, ok := cr.styles[id]; ok {
		return d
	}
	d := false
	if st, err := cr.f.GetStyle(id); err == nil {
		d = dateNumFmts[st.NumFmt] || (st.CustomNumFmt != nil && dateFormatCode(*st.CustomNumFmt))
	}
	cr.styles[id] = d
	return d
}

// dateFormatCode reports whether a custom format code has a year or day
// token outside quoted literals and bracketed sections.
func dateFormatCode(code string) bool {
	quoted, bracket := false, false
	for _, c := range strings.ToLower(code) {
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			bracket = true
		case c == ']':
			bracket = false
		case bracket:
		case c == 'y', c == 'd':
			return true
		}
	}
	return false
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
