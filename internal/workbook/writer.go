package workbook

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/wagner-austin/tree-bot/internal/summary"
	"github.com/wagner-austin/tree-bot/internal/table"
)

const (
	tableStyle   = "TableStyleMedium2"
	minColWidth  = 18
	maxColWidth  = 40
	maxSheetName = 31
	// OverviewSheet names the cross-site overview sheet.
	OverviewSheet = "Species Overview"
)

// SummaryColumns is the header of every summary table.
var SummaryColumns = []string{
	"Compound", "Compound Class", "RetentionMin", "RetentionMax", "RtRange", "AvgMatchQuality", "Count", "Comments",
}

// OverviewColumns is the header of the overview sheet.
var OverviewColumns = []string{
	"Species", "Compound", "Class", "N_Observations", "N_Sites", "Sites",
	"RT_Median", "RT_Min", "RT_Max", "RT_Range", "Certainty_Mean", "Comments",
}

var numericColumns = map[string]bool{
	table.ColRetentionTime: true,
	table.ColMatch1Quality: true,
	table.ColMatch2Quality: true,
	table.ColMatch3Quality: true,
	table.ColMatchScore:    true,
}

// Data is one standardized sheet to write.
type Data struct {
	Name  string
	Table *table.Table
}

// Book is everything written to the standardized workbook.
type Book struct {
	Sheets   []Data
	Routes   []summary.Routed
	Overview []summary.OverviewRow
	// WithOverview writes the overview sheet even when it is empty.
	WithOverview bool
}

type writer struct {
	f          *excelize.File
	used       map[string]bool
	tables     map[string]int
	headerID   int
	labelID    int
	firstSheet bool
}

// Write saves b as an .xlsx workbook at path.
func Write(path string, b Book) error {
	f := excelize.NewFile()
	defer f.Close()
	w := &writer{f: f, used: map[string]bool{}, tables: map[string]int{}, firstSheet: true}
	var err error
	if w.headerID, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "FFFFFF"}}); err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if w.labelID, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return fmt.Errorf("create label style: %w", err)
	}

	for _, d := range b.Sheets {
		if err := w.writeData(d); err != nil {
			return err
		}
	}
	for _, r := range b.Routes {
		if err := w.writeRoute(r); err != nil {
			return err
		}
	}
	if len(b.Overview) > 0 || b.WithOverview {
		if err := w.writeOverview(b.Overview); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// sheet claims a unique, valid sheet name and creates the sheet.
func (w *writer) sheet(want string) (string, error) {
	name := sheetName(want, w.used)
	w.used[strings.ToLower(name)] = true
	if w.firstSheet {
		w.firstSheet = false
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return "", &SheetError{Sheet: name, Op: "rename sheet", Err: err}
		}
		return name, nil
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return "", &SheetError{Sheet: name, Op: "create sheet", Err: err}
	}
	return name, nil
}

func (w *writer) writeData(d Data) error {
	name, err := w.sheet(d.Name)
	if err != nil {
		return err
	}
	rows := make([][]any, len(d.Table.Rows))
	for i, r := range d.Table.Rows {
		out := make([]any, len(r))
		for j, c := range r {
			out[j] = cellValue(d.Table.Columns[j], c)
		}
		rows[i] = out
	}
	if _, err := w.block(name, 1, d.Table.Columns, rows); err != nil {
		return err
	}
	return w.widths(name, d.Table.Columns, rows)
}

func (w *writer) writeRoute(r summary.Routed) error {
	name, err := w.sheet(r.Route.Name)
	if err != nil {
		return err
	}
	if len(r.Sections) == 0 {
		return w.f.SetCellValue(name, "A1", "No compounds")
	}
	row := 1
	var all [][]any
	for _, s := range r.Sections {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := w.f.SetCellValue(name, cell, summary.SectionLabel(s)); err != nil {
			return &SheetError{Sheet: name, Op: "write label", Err: err}
		}
		if err := w.f.SetCellStyle(name, cell, cell, w.labelID); err != nil {
			return &SheetError{Sheet: name, Op: "style label", Err: err}
		}
		rows := make([][]any, 0, len(s.Compounds))
		for _, c := range s.Compounds {
			rows = append(rows, []any{
				c.Compound, nullable(c.Class), number(c.RetentionMin), number(c.RetentionMax),
				number(c.RetentionRange), number(c.AvgMatchQuality), c.Count, nullable(c.Comment),
			})
		}
		last, err := w.block(name, row+1, SummaryColumns, rows)
		if err != nil {
			return err
		}
		all = append(all, rows...)
		row = last + 2
	}
	return w.widths(name, SummaryColumns, all)
}

func (w *writer) writeOverview(list []summary.OverviewRow) error {
	name, err := w.sheet(OverviewSheet)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(list))
	for _, o := range list {
		rows = append(rows, []any{
			o.Species, o.Compound, nullable(o.Class), o.Observations, o.NSites(), strings.Join(o.Sites, ", "),
			number(o.RTMedian), number(o.RTMin), number(o.RTMax), number(o.RTRange), number(o.CertaintyMean),
			nullable(o.Comments),
		})
	}
	if _, err := w.block(name, 1, OverviewColumns, rows); err != nil {
		return err
	}
	return w.widths(name, OverviewColumns, rows)
}

// block writes a header at startRow followed by rows and wraps them in an
// Excel table when there is data. It returns the last row written.
func (w *writer) block(sheet string, startRow int, header []string, rows [][]any) (int, error) {
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	first, _ := excelize.CoordinatesToCellName(1, startRow)
	if err := w.f.SetSheetRow(sheet, first, &hdr); err != nil {
		return 0, &SheetError{Sheet: sheet, Op: "write header", Err: err}
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, startRow+1+i)
		if err := w.f.SetSheetRow(sheet, cell, &r); err != nil {
			return 0, &SheetError{Sheet: sheet, Op: "write row", Err: err}
		}
	}
	last := startRow + len(rows)
	end, _ := excelize.CoordinatesToCellName(len(header), last)
	hdrEnd, _ := excelize.CoordinatesToCellName(len(header), startRow)
	if len(rows) > 0 {
		stripes := true
		err := w.f.AddTable(sheet, &excelize.Table{
			Range:          first + ":" + end,
			Name:           w.tableName(sheet),
			StyleName:      tableStyle,
			ShowRowStripes: &stripes,
		})
		if err != nil {
			return 0, &SheetError{Sheet: sheet, Op: "add table", Err: err}
		}
	}
	if err := w.f.SetCellStyle(sheet, first, hdrEnd, w.headerID); err != nil {
		return 0, &SheetError{Sheet: sheet, Op: "style header", Err: err}
	}
	return last, nil
}

func (w *writer) widths(sheet string, header []string, rows [][]any) error {
	for j, h := range header {
		width := utf8.RuneCountInString(h)
		for _, r := range rows {
			if j < len(r) && r[j] != nil {
				if n := utf8.RuneCountInString(fmt.Sprint(r[j])); n > width {
					width = n
				}
			}
		}
		width = min(max(width+2, minColWidth), maxColWidth)
		col, _ := excelize.ColumnNumberToName(j + 1)
		if err := w.f.SetColWidth(sheet, col, col, float64(width)); err != nil {
			return &SheetError{Sheet: sheet, Op: "set width", Err: err}
		}
	}
	return nil
}

// tableName derives a workbook-unique Excel table name from a sheet name.
func (w *writer) tableName(sheet string) string {
	var b strings.Builder
	b.WriteString("T_")
	for _, r := range sheet {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	base := b.String()
	w.tables[base]++
	return fmt.Sprintf("%s_%d", base, w.tables[base])
}

func sheetName(want string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(want))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Sheet"
	}
	clean = truncate(clean, maxSheetName)
	name := clean
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func cellValue(column string, c table.Cell) any {
	if c.IsBlank() {
		return nil
	}
	if numericColumns[column] {
		if f, ok := table.ParseNumber(c.Value); ok {
			return f
		}
	}
	return c.Value
}

func number(x float64) any {
	if math.IsNaN(x) {
		return nil
	}
	return x
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
