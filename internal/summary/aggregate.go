// Package summary builds per-site, per-species compound frequency
// summaries from normalized rows.
package summary

import (
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/wagner-austin/tree-bot/internal/table"
)

// MixedClass marks a compound whose rows disagree on the class.
const MixedClass = "mixed"

// SheetRows is one processed sheet. The sheet name is the site.
type SheetRows struct {
	Name string
	Rows []table.NormalizedRow
}

// Filter bounds the match score and the per-compound count. Nil upper
// bounds are unbounded.
type Filter struct {
	QualityMin float64
	QualityMax *float64
	CountMin   int
	CountMax   *int
}

func (f Filter) keepScore(s float64) bool {
	if math.IsNaN(s) || s < f.QualityMin {
		return false
	}
	return f.QualityMax == nil || s <= *f.QualityMax
}

func (f Filter) keepCount(n int) bool {
	if n < f.CountMin {
		return false
	}
	return f.CountMax == nil || n <= *f.CountMax
}

// CompoundAggregate summarizes one compound within a (site, species) group.
// Retention values are NaN when no row had a numeric retention time.
type CompoundAggregate struct {
	Compound        string
	Class           string
	RetentionMin    float64
	RetentionMax    float64
	RetentionRange  float64
	AvgMatchQuality float64
	Count           int
	Comment         string
}

// Stats describe a section. UniqueCompounds and TotalPeaks count what
// survived both filters; the *All fields count every row of the group that
// has a compound, before filtering.
type Stats struct {
	UniqueCompounds    int `yaml:"unique_compounds" json:"unique_compounds"`
	TotalPeaks         int `yaml:"total_peaks" json:"total_peaks"`
	UniqueCompoundsAll int `yaml:"unique_compounds_all" json:"unique_compounds_all"`
	PeaksAll           int `yaml:"peaks_all" json:"peaks_all"`
}

// Section is the summary of one (site, species) pair.
type Section struct {
	Site      string
	Species   string
	Compounds []CompoundAggregate
	Stats     Stats
}

// Build summarizes every sheet in order. Species groups are emitted in
// name order; groups with no surviving compound are omitted.
func Build(sheets []SheetRows, f Filter) []Section {
	var out []Section
	for _, sh := range sheets {
		groups := map[string][]table.NormalizedRow{}
		for _, r := range sh.Rows {
			if r.Species.IsBlank() {
				continue
			}
			sp := strings.TrimSpace(r.Species.Value)
			groups[sp] = append(groups[sp], r)
		}
		species := make([]string, 0, len(groups))
		for sp := range groups {
			species = append(species, sp)
		}
		sort.Strings(species)
		for _, sp := range species {
			if sec, ok := buildSection(sh.Name, sp, groups[sp], f); ok {
				out = append(out, sec)
			}
		}
	}
	return out
}

func buildSection(site, species string, rows []table.NormalizedRow, f Filter) (Section, bool) {
	sec := Section{Site: site, Species: species}
	all := map[string]bool{}
	var order []string
	byCompound := map[string][]table.NormalizedRow{}
	for _, r := range rows {
		if r.Compound.IsBlank() {
			continue
		}
		c := strings.TrimSpace(r.Compound.Value)
		sec.Stats.PeaksAll++
		all[c] = true
		if !f.keepScore(r.MatchScore) {
			continue
		}
		if _, seen := byCompound[c]; !seen {
			order = append(order, c)
		}
		byCompound[c] = append(byCompound[c], r)
	}
	sec.Stats.UniqueCompoundsAll = len(all)

	for _, c := range order {
		members := byCompound[c]
		if !f.keepCount(len(members)) {
			continue
		}
		agg := aggregate(c, members)
		sec.Compounds = append(sec.Compounds, agg)
		sec.Stats.TotalPeaks += agg.Count
	}
	if len(sec.Compounds) == 0 {
		return Section{}, false
	}
	sec.Stats.UniqueCompounds = len(sec.Compounds)
	sort.SliceStable(sec.Compounds, func(i, j int) bool {
		a, b := sec.Compounds[i], sec.Compounds[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Compound < b.Compound
	})
	return sec, true
}

func aggregate(compound string, rows []table.NormalizedRow) CompoundAggregate {
	agg := CompoundAggregate{
		Compound:       compound,
		Count:          len(rows),
		RetentionMin:   math.NaN(),
		RetentionMax:   math.NaN(),
		RetentionRange: math.NaN(),
	}
	var rts, scores []float64
	for _, r := range rows {
		if rt := r.Retention(); !math.IsNaN(rt) {
			rts = append(rts, rt)
		}
		if !math.IsNaN(r.MatchScore) {
			scores = append(scores, r.MatchScore)
		}
		if agg.Comment == "" && !r.Comments.IsBlank() {
			agg.Comment = strings.TrimSpace(r.Comments.Value)
		}
	}
	if len(rts) > 0 {
		agg.RetentionMin, _ = stats.Min(rts)
		agg.RetentionMax, _ = stats.Max(rts)
		agg.RetentionRange = round(agg.RetentionMax-agg.RetentionMin, 3)
	}
	agg.AvgMatchQuality = math.NaN()
	if mean, err := stats.Mean(scores); err == nil {
		agg.AvgMatchQuality = round(mean, 1)
	}
	agg.Class = classOf(rows)
	return agg
}

// classOf returns the shared class of rows, MixedClass when they disagree,
// or "" when none has a class.
func classOf(rows []table.NormalizedRow) string {
	class := ""
	for _, r := range rows {
		if r.Class.IsBlank() {
			continue
		}
		c := strings.TrimSpace(r.Class.Value)
		switch {
		case class == "":
			class = c
		case class != c:
			return MixedClass
		}
	}
	return class
}

func round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := stats.Round(x, places)
	if err != nil {
		return x
	}
	return r
}
