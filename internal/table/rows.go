package table

import (
	"math"
	"strconv"
)

// NormalizedRow is one standardized observation. MatchScore is NaN when
// the score is unknown.
type NormalizedRow struct {
	Row            int
	DataFolderName Cell
	DateRun        Cell
	CartridgeNum   Cell
	Species        Cell
	RetentionTime  Cell
	Match1         Cell
	Match1Quality  Cell
	Match2         Cell
	Match2Quality  Cell
	Match3         Cell
	Match3Quality  Cell
	Comments       Cell
	Compound       Cell
	Class          Cell
	MatchScore     float64
}

// Retention parses RetentionTime; NaN when absent or not numeric.
func (r NormalizedRow) Retention() float64 {
	if f, ok := r.RetentionTime.Float(); ok {
		return f
	}
	return math.NaN()
}

// NumberCell renders a float as a cell; NaN becomes Missing.
func NumberCell(f float64) Cell {
	if math.IsNaN(f) {
		return Missing
	}
	return Text(strconv.FormatFloat(f, 'f', -1, 64))
}

// Normalized converts a standardized table to rows. firstDataRow is the
// worksheet row of the first data row.
func Normalized(t *Table, firstDataRow int) []NormalizedRow {
	rows := make([]NormalizedRow, t.Len())
	for i := range t.Rows {
		score := math.NaN()
		if f, ok := t.Get(i, ColMatchScore).Float(); ok {
			score = f
		}
		rows[i] = NormalizedRow{
			Row:            firstDataRow + i,
			DataFolderName: t.Get(i, ColDataFolderName),
			DateRun:        t.Get(i, ColDateRun),
			CartridgeNum:   t.Get(i, ColCartridgeNum),
			Species:        t.Get(i, ColSpecies),
			RetentionTime:  t.Get(i, ColRetentionTime),
			Match1:         t.Get(i, ColMatch1),
			Match1Quality:  t.Get(i, ColMatch1Quality),
			Match2:         t.Get(i, ColMatch2),
			Match2Quality:  t.Get(i, ColMatch2Quality),
			Match3:         t.Get(i, ColMatch3),
			Match3Quality:  t.Get(i, ColMatch3Quality),
			Comments:       t.Get(i, ColComments),
			Compound:       t.Get(i, ColCompound),
			Class:          t.Get(i, ColClass),
			MatchScore:     score,
		}
	}
	return rows
}
