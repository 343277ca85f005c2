package summary

import (
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/wagner-austin/tree-bot/internal/table"
)

// OverviewRow describes one compound of one species across every site.
type OverviewRow struct {
	Species       string
	Compound      string
	Class         string
	Observations  int
	Sites         []string
	RTMedian      float64
	RTMin         float64
	RTMax         float64
	RTRange       float64
	CertaintyMean float64
	Comments      string
}

// NSites is the number of distinct sites.
func (r OverviewRow) NSites() int { return len(r.Sites) }

type overviewAcc struct {
	species  string
	compound string
	rows     []table.NormalizedRow
	sites    map[string]bool
	rts      []float64
	scores   []float64
	comments []string
	seen     map[string]bool
}

// BuildOverview pools every sheet and groups rows by species and compound.
// Only rows with a numeric retention time and a score of at least
// qualityMin count; groups with fewer than frequencyMin observations are
// dropped. Rows are sorted by species, then observations descending, then
// compound.
func BuildOverview(sheets []SheetRows, qualityMin float64, frequencyMin int) []OverviewRow {
	accs := map[string]*overviewAcc{}
	var order []string
	for _, sh := range sheets {
		for _, r := range sh.Rows {
			if r.Species.IsBlank() || r.Compound.IsBlank() {
				continue
			}
			rt := r.Retention()
			if math.IsNaN(rt) || math.IsNaN(r.MatchScore) || r.MatchScore < qualityMin {
				continue
			}
			species := strings.TrimSpace(r.Species.Value)
			compound := strings.TrimSpace(r.Compound.Value)
			key := strings.ToLower(species) + "\x00" + compound
			a := accs[key]
			if a == nil {
				a = &overviewAcc{species: species, compound: compound, sites: map[string]bool{}, seen: map[string]bool{}}
				accs[key] = a
				order = append(order, key)
			}
			a.rows = append(a.rows, r)
			a.sites[sh.Name] = true
			a.rts = append(a.rts, rt)
			a.scores = append(a.scores, r.MatchScore)
			if c := strings.TrimSpace(r.Comments.String()); c != "" && !a.seen[c] {
				a.seen[c] = true
				a.comments = append(a.comments, c)
			}
		}
	}

	var out []OverviewRow
	for _, key := range order {
		a := accs[key]
		if len(a.rows) < frequencyMin {
			continue
		}
		row := OverviewRow{
			Species:      a.species,
			Compound:     a.compound,
			Class:        classOf(a.rows),
			Observations: len(a.rows),
			Comments:     strings.Join(a.comments, " | "),
		}
		for s := range a.sites {
			row.Sites = append(row.Sites, s)
		}
		sort.Strings(row.Sites)
		row.RTMedian, _ = stats.Median(a.rts)
		row.RTMin, _ = stats.Min(a.rts)
		row.RTMax, _ = stats.Max(a.rts)
		row.RTRange = round(row.RTMax-row.RTMin, 3)
		mean, _ := stats.Mean(a.scores)
		row.CertaintyMean = round(mean, 1)
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Species != out[j].Species {
			return out[i].Species < out[j].Species
		}
		if out[i].Observations != out[j].Observations {
			return out[i].Observations > out[j].Observations
		}
		return out[i].Compound < out[j].Compound
	})
	return out
}
