package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wagner-austin/tree-bot/internal/issues"
	"github.com/wagner-austin/tree-bot/internal/resolve"
	"github.com/wagner-austin/tree-bot/internal/summary"
	"github.com/wagner-austin/tree-bot/internal/table"
)

var oldHeader = []string{
	"DataFolderName", "DateRun", "CartridgeNum", "RetentionTime",
	"Match1", "Match1.Quality", "Match2", "Match2.Quality", "Match3", "Match3.Quality",
	table.LegacyCommentsHeader,
}

var newHeader = []string{
	"DataFolderName", "DateRun", "CartridgeNum", "Species", "RetentionTime",
	"Match1", "Match1.Quality", "Match2", "Match2.Quality", "Match3", "Match3.Quality",
	"Comments", "Compound", "Class", "MatchScore",
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSheets() []table.RawSheet {
	return []table.RawSheet{
		{Name: "Emerson", Grid: table.RawGrid{
			{"Emerson Oaks export"},
			oldHeader,
			{"F1", "4/3/2025", " C1 ", "5.1", "Isoprene", "85", "", "", "", "", ""},
			{"", "not-a-date", "", "5.3", "isoprene", "90", "", "", "", "", "clean"},
		}},
		{Name: "Notes", Grid: table.RawGrid{{"free text"}, {"more"}}},
		{Name: "Stunt Ranch", Grid: table.RawGrid{
			newHeader,
			{"F9", "2025-05-01", "C7", "Salvia", "6.2", "x", "95", "", "", "", "", "", "limonene", "Monoterpene", "95"},
		}},
	}
}

func testOptions() Options {
	return Options{
		Classes: resolve.ClassMap{"isoprene": "Terpene"},
		Species: resolve.SpeciesMap{{Site: "emerson", Cartridge: "C1"}: "Quercus agrifolia"},
		Routes:  summary.Routes(80, 2),
		Overview: &OverviewOptions{
			QualityMin:   80,
			FrequencyMin: 1,
		},
		Logger: quietLogger(),
	}
}

func TestRunMixedWorkbook(t *testing.T) {
	res, err := New(testOptions()).Run(context.Background(), testSheets())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Sheets) != 2 {
		t.Fatalf("processed %d sheets", len(res.Sheets))
	}
	if diff := cmp.Diff([]table.SkippedSheet{{Name: "Notes", Reason: table.ReasonNoHeader}}, res.Skipped); diff != "" {
		t.Fatalf("skipped (-want +got):\n%s", diff)
	}

	em := res.Sheets[0]
	if em.Name != "Emerson" || em.Schema != table.SchemaOld || em.Site != "emerson" {
		t.Fatalf("sheet 0 = %s %s %s", em.Name, em.Schema, em.Site)
	}
	if diff := cmp.Diff(table.OutputColumns, em.Table.Columns); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	r1 := em.Rows[1]
	if r1.DataFolderName.String() != "F1" || r1.CartridgeNum.String() != "C1" {
		t.Fatalf("identities not filled: %+v", r1)
	}
	if r1.Species.String() != "Quercus agrifolia" {
		t.Fatalf("species = %q", r1.Species.String())
	}
	if r1.DateRun.Valid {
		t.Fatalf("bad date should be missing")
	}
	if em.Rows[0].DateRun.String() != "2025-04-03" {
		t.Fatalf("date = %q", em.Rows[0].DateRun.String())
	}
	if r1.Comments.String() != "clean" || r1.Compound.String() != "isoprene" || r1.Class.String() != "Terpene" {
		t.Fatalf("row 1 = %+v", r1)
	}
	if r1.Row != 4 {
		t.Fatalf("row number = %d", r1.Row)
	}

	var hq summary.Routed
	for _, r := range res.Summaries {
		if r.Route.Name == summary.RouteHQMultiple {
			hq = r
		}
	}
	if len(hq.Sections) != 1 || hq.Sections[0].Compounds[0].AvgMatchQuality != 87.5 {
		t.Fatalf("HQ Multiple = %+v", hq.Sections)
	}
	if len(res.Overview) != 2 {
		t.Fatalf("overview = %+v", res.Overview)
	}
	if got := issues.Count(res.Issues)[issues.SchemaError]; got != 1 {
		t.Fatalf("schema errors = %d", got)
	}
}

func TestRunParallelKeepsOrder(t *testing.T) {
	opt := testOptions()
	opt.Workers = 4
	res, err := New(opt).Run(context.Background(), testSheets())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var names []string
	for _, s := range res.Sheets {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"Emerson", "Stunt Ranch"}, names); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestRunReportsUnmappedAndAmbiguous(t *testing.T) {
	opt := testOptions()
	opt.Classes = nil
	opt.Ambiguous = []resolve.SiteCartridge{{Site: "stunt", Cartridge: "C1"}}
	res, err := New(opt).Run(context.Background(), testSheets())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]resolve.UnmappedCompound{{Compound: "isoprene", Count: 2}}, res.Unmapped); diff != "" {
		t.Fatalf("unmapped (-want +got):\n%s", diff)
	}
	counts := issues.Count(res.Issues)
	if counts[issues.MappingMissing] != 2 || counts[issues.DuplicateKey] != 1 {
		t.Fatalf("issue counts = %v", counts)
	}
}

func TestRunNoUsableSheets(t *testing.T) {
	dup := append(append([]string(nil), oldHeader...), "DateRun")
	sheets := []table.RawSheet{
		{Name: "Notes", Grid: table.RawGrid{{"nothing"}}},
		{Name: "Dup", Grid: table.RawGrid{dup}},
		{Name: "Broken", ReadErr: errors.New("corrupt")},
	}
	res, err := New(testOptions()).Run(context.Background(), sheets)
	if !errors.Is(err, ErrNoUsableSheets) {
		t.Fatalf("expected ErrNoUsableSheets, got %v", err)
	}
	if len(res.Skipped) != 3 || res.Skipped[1].Reason != table.ReasonDuplicateHeaders {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestRunHeadersStage(t *testing.T) {
	opt := testOptions()
	opt.Stage = StageHeaders
	res, err := New(opt).Run(context.Background(), testSheets())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Summaries) != 0 || res.Sheets[0].Rows != nil {
		t.Fatalf("headers stage should not derive rows")
	}
	if !res.Sheets[0].Table.Has(table.ColComments) {
		t.Fatalf("headers not normalized: %v", res.Sheets[0].Table.Columns)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(testOptions()).Run(ctx, testSheets()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseStage(t *testing.T) {
	if s, err := ParseStage(""); err != nil || s != StageFull {
		t.Fatalf("default stage = %q, %v", s, err)
	}
	if s, err := ParseStage("Headers"); err != nil || s != StageHeaders {
		t.Fatalf("headers stage = %q, %v", s, err)
	}
	if _, err := ParseStage("bogus"); err == nil {
		t.Fatalf("expected error")
	}
}
