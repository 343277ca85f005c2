package summary

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wagner-austin/tree-bot/internal/table"
)

type obs struct {
	species, compound, class, comment string
	rt                                string
	score                             float64
}

func rows(list ...obs) []table.NormalizedRow {
	out := make([]table.NormalizedRow, len(list))
	for i, o := range list {
		out[i] = table.NormalizedRow{
			Row:           i + 2,
			Species:       table.FromRaw(o.species),
			Compound:      table.FromRaw(o.compound),
			Class:         table.FromRaw(o.class),
			Comments:      table.FromRaw(o.comment),
			RetentionTime: table.FromRaw(o.rt),
			MatchScore:    o.score,
		}
	}
	return out
}

func TestBuildIsopreneExample(t *testing.T) {
	sheets := []SheetRows{{Name: "Emerson", Rows: rows(
		obs{species: "Salvia", compound: "isoprene", class: "Terpene", rt: "5.1", score: 85},
		obs{species: "Salvia", compound: "isoprene", class: "Terpene", rt: "5.3", score: 90, comment: "sharp"},
		obs{species: "Salvia", compound: "isoprene", class: "Terpene", rt: "5.2", score: 75},
	)}}
	got := Build(sheets, Filter{QualityMin: 80, CountMin: 1})
	if len(got) != 1 {
		t.Fatalf("sections = %d", len(got))
	}
	s := got[0]
	if s.Site != "Emerson" || s.Species != "Salvia" {
		t.Fatalf("section = %s/%s", s.Site, s.Species)
	}
	if len(s.Compounds) != 1 {
		t.Fatalf("compounds = %+v", s.Compounds)
	}
	c := s.Compounds[0]
	if c.Count != 2 || c.AvgMatchQuality != 87.5 {
		t.Fatalf("aggregate = %+v", c)
	}
	if c.RetentionMin != 5.1 || c.RetentionMax != 5.3 || c.RetentionRange != 0.2 {
		t.Fatalf("retention = %v %v %v", c.RetentionMin, c.RetentionMax, c.RetentionRange)
	}
	if c.Comment != "sharp" || c.Class != "Terpene" {
		t.Fatalf("comment/class = %q/%q", c.Comment, c.Class)
	}
	want := Stats{UniqueCompounds: 1, TotalPeaks: 2, UniqueCompoundsAll: 1, PeaksAll: 3}
	if diff := cmp.Diff(want, s.Stats); diff != "" {
		t.Fatalf("stats (-want +got):\n%s", diff)
	}
}

func TestBuildDropsBlankSpeciesAndEmptySections(t *testing.T) {
	sheets := []SheetRows{{Name: "Stunt", Rows: rows(
		obs{species: "", compound: "limonene", score: 95},
		obs{species: "Oak", compound: "pinene", score: 50},
		obs{species: "Oak", compound: "", score: 99},
	)}}
	if got := Build(sheets, Filter{QualityMin: 80, CountMin: 1}); len(got) != 0 {
		t.Fatalf("expected no sections, got %+v", got)
	}
}

func TestBuildSortAndCountFilter(t *testing.T) {
	sheets := []SheetRows{{Name: "S", Rows: rows(
		obs{species: "Oak", compound: "b", score: 90},
		obs{species: "Oak", compound: "a", score: 90},
		obs{species: "Oak", compound: "c", score: 90},
		obs{species: "Oak", compound: "c", score: 90},
		obs{species: "Oak", compound: "d", score: 90},
		obs{species: "Oak", compound: "d", score: 90},
		obs{species: "Oak", compound: "d", score: 90},
		obs{species: "Oak", compound: "d", score: 90},
	)}}
	three := 3
	got := Build(sheets, Filter{QualityMin: 80, CountMin: 1, CountMax: &three})
	var names []string
	for _, c := range got[0].Compounds {
		names = append(names, c.Compound)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, names); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if got[0].Stats.UniqueCompoundsAll != 4 || got[0].Stats.PeaksAll != 8 || got[0].Stats.TotalPeaks != 4 {
		t.Fatalf("stats = %+v", got[0].Stats)
	}
}

func TestAggregateNaNRetentionAndMixedClass(t *testing.T) {
	sheets := []SheetRows{{Name: "S", Rows: rows(
		obs{species: "Oak", compound: "x", class: "A", score: 90},
		obs{species: "Oak", compound: "x", class: "B", rt: "n/a", score: 90},
		obs{species: "Oak", compound: "x", score: math.NaN()},
	)}}
	got := Build(sheets, Filter{QualityMin: 0, CountMin: 1})
	c := got[0].Compounds[0]
	if !math.IsNaN(c.RetentionMin) || !math.IsNaN(c.RetentionRange) {
		t.Fatalf("expected NaN retention, got %+v", c)
	}
	if c.Class != MixedClass || c.Count != 2 {
		t.Fatalf("aggregate = %+v", c)
	}
}

func TestRoutesPartition(t *testing.T) {
	sheets := []SheetRows{{Name: "S", Rows: rows(
		obs{species: "Oak", compound: "hq-multi", score: 90},
		obs{species: "Oak", compound: "hq-multi", score: 85},
		obs{species: "Oak", compound: "hq-single", score: 80},
		obs{species: "Oak", compound: "lq-multi", score: 10},
		obs{species: "Oak", compound: "lq-multi", score: 79.5},
		obs{species: "Oak", compound: "lq-single", score: 0},
	)}}
	got := map[string][]string{}
	for _, r := range BuildRoutes(sheets, Routes(80, 2)) {
		for _, s := range r.Sections {
			for _, c := range s.Compounds {
				got[r.Route.Name] = append(got[r.Route.Name], c.Compound)
			}
		}
	}
	want := map[string][]string{
		RouteHQMultiple: {"hq-multi"},
		RouteHQSingle:   {"hq-single"},
		RouteLQMultiple: {"lq-multi"},
		RouteLQSingle:   {"lq-single"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("routes (-want +got):\n%s", diff)
	}
}

func TestBuildOverview(t *testing.T) {
	sheets := []SheetRows{
		{Name: "Emerson", Rows: rows(
			obs{species: "Salvia", compound: "isoprene", class: "Terpene", rt: "5.0", score: 90, comment: "a"},
			obs{species: "Salvia", compound: "limonene", rt: "7.0", score: 90},
		)},
		{Name: "Stunt", Rows: rows(
			obs{species: "salvia", compound: "isoprene", rt: "5.4", score: 80, comment: "a"},
			obs{species: "Salvia", compound: "isoprene", rt: "5.2", score: 85, comment: "b"},
			obs{species: "Salvia", compound: "isoprene", rt: "", score: 99},
			obs{species: "Salvia", compound: "isoprene", rt: "5.1", score: 40},
		)},
	}
	got := BuildOverview(sheets, 80, 2)
	if len(got) != 1 {
		t.Fatalf("overview = %+v", got)
	}
	o := got[0]
	if o.Observations != 3 || o.NSites() != 2 || o.RTMedian != 5.2 || o.RTRange != 0.4 || o.CertaintyMean != 85 {
		t.Fatalf("row = %+v", o)
	}
	if diff := cmp.Diff([]string{"Emerson", "Stunt"}, o.Sites); diff != "" {
		t.Fatalf("sites (-want +got):\n%s", diff)
	}
	if o.Comments != "a | b" || o.Class != "Terpene" {
		t.Fatalf("comments/class = %q/%q", o.Comments, o.Class)
	}
}

func TestMarkdown(t *testing.T) {
	sheets := []SheetRows{{Name: "Emerson", Rows: rows(
		obs{species: "Salvia", compound: "isoprene", class: "Terpene", rt: "5.1", score: 85},
	)}}
	r := &Report{Workbook: "run.xlsx", Sheets: 1, Routes: BuildRoutes(sheets, Routes(80, 2))}
	md := r.Markdown()
	for _, want := range []string{"[RUN SUMMARY]", "[SUMMARY: HQ Single]", "Site: Emerson | Species: Salvia", "- isoprene [Terpene]: count 1"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
