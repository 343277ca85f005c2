package resolve

import (
	"github.com/wagner-austin/tree-bot/internal/table"
)

// FillReport lists the 0-based rows filled in one column.
type FillReport struct {
	Column string
	Rows   []int
}

// Count returns how many cells were filled.
func (r FillReport) Count() int { return len(r.Rows) }

// identityColumns are the only columns carried down; DateRun never is.
var identityColumns = []string{table.ColDataFolderName, table.ColCartridgeNum}

// ForwardFill fills blank cells with the nearest preceding non-blank value.
// Leading blanks stay missing. It returns the new column and the filled
// positions.
func ForwardFill(values []table.Cell) ([]table.Cell, []int) {
	out := make([]table.Cell, len(values))
	var filled []int
	last := table.Missing
	for i, v := range values {
		if !v.IsBlank() {
			out[i] = v
			last = v
			continue
		}
		if last.Valid {
			out[i] = last
			filled = append(filled, i)
			continue
		}
		out[i] = table.Missing
	}
	return out, filled
}

// ForwardFillIdentities forward-fills DataFolderName and CartridgeNum.
// Columns the table lacks are skipped.
func ForwardFillIdentities(t *table.Table) (*table.Table, []FillReport) {
	out := t.Clone()
	var reports []FillReport
	for _, col := range identityColumns {
		if !out.Has(col) {
			continue
		}
		filled, rows := ForwardFill(out.Column(col))
		out.SetColumn(col, filled)
		reports = append(reports, FillReport{Column: col, Rows: rows})
	}
	return out, reports
}

// TrimCartridge trims whitespace around CartridgeNum values.
func TrimCartridge(t *table.Table) *table.Table {
	out := t.Clone()
	if !out.Has(table.ColCartridgeNum) {
		return out
	}
	col := out.Column(table.ColCartridgeNum)
	for i, c := range col {
		col[i] = c.Trimmed()
		if col[i].IsBlank() {
			col[i] = table.Missing
		}
	}
	out.SetColumn(table.ColCartridgeNum, col)
	return out
}
