package resolve

import (
	"sort"

	"github.com/wagner-austin/tree-bot/internal/issues"
	"github.com/wagner-austin/tree-bot/internal/normalize"
	"github.com/wagner-austin/tree-bot/internal/table"
)

// UnmappedCompound counts rows whose compound has no class.
type UnmappedCompound struct {
	Compound string `yaml:"compound" json:"compound"`
	Count    int    `yaml:"count" json:"count"`
}

// Transformer derives Compound, Class and MatchScore for OLD sheets.
type Transformer struct {
	Classes ClassMap
	Canon   CanonMap
}

// Derived is the result of OldToNew.
type Derived struct {
	Table    *table.Table
	Issues   []issues.Issue
	Unmapped []UnmappedCompound
}

// CompoundName derives the compound for a raw Match1 value. Blank input
// returns "".
func (tr Transformer) CompoundName(raw string) string {
	if tr.Canon != nil {
		raw = tr.Canon.Canonical(raw)
	}
	return normalize.Compound(raw)
}

// OldToNew returns a copy of t with Compound, Class, MatchScore, Species
// and Comments columns. firstDataRow numbers the issues.
func (tr Transformer) OldToNew(sheet string, t *table.Table, firstDataRow int) Derived {
	out := t.Clone()
	out.EnsureColumn(table.ColSpecies)
	out.EnsureColumn(table.ColComments)
	n := out.Len()
	compounds := make([]table.Cell, n)
	classes := make([]table.Cell, n)
	scores := make([]table.Cell, n)
	var found []issues.Issue
	counts := map[string]int{}

	for i := 0; i < n; i++ {
		scores[i] = matchScore(out.Get(i, table.ColMatch1Quality))
		m1 := out.Get(i, table.ColMatch1)
		if m1.IsBlank() {
			continue
		}
		c := tr.CompoundName(m1.Value)
		if c == "" {
			continue
		}
		compounds[i] = table.Text(c)
		if class, ok := tr.Classes.Lookup(c); ok {
			classes[i] = table.Text(class)
			continue
		}
		counts[c]++
		found = append(found, issues.Issue{
			Category: issues.MappingMissing,
			Code:     issues.CodeClassMissing,
			Message:  "Compound missing in classes.yaml: " + c,
			Sheet:    sheet,
			Row:      firstDataRow + i,
		})
	}
	out.SetColumn(table.ColCompound, compounds)
	out.SetColumn(table.ColClass, classes)
	out.SetColumn(table.ColMatchScore, scores)
	return Derived{Table: out, Issues: found, Unmapped: sortUnmapped(counts)}
}

// ScoreNew re-parses MatchScore of a NEW sheet so it is numeric.
func ScoreNew(t *table.Table) *table.Table {
	out := t.Clone()
	col := out.Column(table.ColMatchScore)
	for i, c := range col {
		col[i] = matchScore(c)
	}
	out.SetColumn(table.ColMatchScore, col)
	return out
}

func matchScore(c table.Cell) table.Cell {
	if f, ok := c.Float(); ok {
		return table.NumberCell(f)
	}
	return table.Missing
}

func sortUnmapped(counts map[string]int) []UnmappedCompound {
	out := make([]UnmappedCompound, 0, len(counts))
	for k, v := range counts {
		out = append(out, UnmappedCompound{Compound: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Compound < out[j].Compound
	})
	return out
}

// MergeUnmapped combines per-sheet unmapped counts.
func MergeUnmapped(lists ...[]UnmappedCompound) []UnmappedCompound {
	counts := map[string]int{}
	for _, l := range lists {
		for _, u := range l {
			counts[u.Compound] += u.Count
		}
	}
	return sortUnmapped(counts)
}
