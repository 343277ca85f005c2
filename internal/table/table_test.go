package table

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var oldHeader = []string{
	"DataFolderName", "DateRun", "CartridgeNum", "RetentionTime",
	"Match1", "Match1.Quality", "Match2", "Match2.Quality", "Match3", "Match3.Quality",
	LegacyCommentsHeader,
}

func newHeader() []string {
	h := append([]string(nil), oldHeader[:3]...)
	h = append(h, "Species")
	h = append(h, oldHeader[3:10]...)
	return append(h, "Comments", "Compound", "Class", "MatchScore")
}

func TestDetectSchema(t *testing.T) {
	s, err := DetectSchema(oldHeader)
	if err != nil || s != SchemaOld {
		t.Fatalf("old header: got %q, %v", s, err)
	}
	s, err = DetectSchema(append(append([]string(nil), oldHeader...), "Species", "Compound", "Class", "MatchScore"))
	if err != nil || s != SchemaNew {
		t.Fatalf("old+markers: got %q, %v", s, err)
	}
	s, err = DetectSchema([]string{"daterun", "cartridgenum", "MATCH1"})
	if err != nil || s != SchemaOld {
		t.Fatalf("minimal old: got %q, %v", s, err)
	}
	if _, err := DetectSchema([]string{"Sample", "Value"}); !errors.Is(err, ErrNoSchema) {
		t.Fatalf("expected ErrNoSchema, got %v", err)
	}
}

func TestLocateSkipsJunkRows(t *testing.T) {
	grid := RawGrid{
		{"GC-MS export", "", ""},
		{},
		{"Operator:", "kim"},
		oldHeader,
		{"F1", "4/3/2025", "C1", "5.2", "Isoprene", "91"},
		{"", "", "", "6.0", "Limonene", "80"},
		{"", ""},
	}
	loc := NewLocator(DefaultSchemaConfig(), 0)
	in, skip := loc.Locate("Emerson", grid)
	if skip != nil {
		t.Fatalf("unexpected skip: %+v", skip)
	}
	if in.Schema != SchemaOld {
		t.Fatalf("schema = %q", in.Schema)
	}
	if in.HeaderRow != 4 || in.FirstDataRow != 5 {
		t.Fatalf("header row %d first data %d", in.HeaderRow, in.FirstDataRow)
	}
	if in.Table.Len() != 2 {
		t.Fatalf("rows = %d, want 2", in.Table.Len())
	}
	if got := in.Table.Get(1, "Match1").String(); got != "Limonene" {
		t.Fatalf("row 1 Match1 = %q", got)
	}
	if in.Table.Get(1, "DataFolderName").Valid {
		t.Fatalf("blank cell should be missing")
	}
	if len(in.Table.Rows[0]) != len(oldHeader) {
		t.Fatalf("row not padded to header width")
	}
}

func TestLocateNewSchemaAndAliases(t *testing.T) {
	h := newHeader()
	h[0] = "Data Folder Name"
	h[4] = "Retention Time (min)"
	grid := RawGrid{{"title"}, h, {"F1"}}
	in, skip := NewLocator(DefaultSchemaConfig(), 0).Locate("Stunt", grid)
	if skip != nil {
		t.Fatalf("unexpected skip: %+v", skip)
	}
	if in.Schema != SchemaNew {
		t.Fatalf("schema = %q", in.Schema)
	}
}

func TestFindHeaderTieNeedsMarkers(t *testing.T) {
	l := NewLocator(&SchemaConfig{
		OldSchema: []string{"DateRun", "Match1"},
		NewSchema: []string{"DateRun"},
	}, 0)
	cases := []struct {
		row  []string
		want Schema
	}{
		{[]string{"DateRun", "Match1"}, SchemaOld},
		{append([]string{"DateRun", "Match1"}, NewMarkers...), SchemaNew},
		{[]string{"DateRun"}, SchemaNew},
	}
	for _, tc := range cases {
		i, schema, ok := l.FindHeader(RawGrid{{"title"}, tc.row})
		if !ok || i != 1 || schema != tc.want {
			t.Errorf("FindHeader(%v) = %d, %q, %v; want 1, %q", tc.row, i, schema, ok, tc.want)
		}
	}
}

func TestLocateSkips(t *testing.T) {
	loc := NewLocator(DefaultSchemaConfig(), 0)
	_, skip := loc.Locate("Notes", RawGrid{{"just", "notes"}, {"more"}})
	if skip == nil || skip.Reason != ReasonNoHeader {
		t.Fatalf("expected no_table_header, got %+v", skip)
	}

	dup := append(append([]string(nil), oldHeader...), "DateRun")
	_, skip = loc.Locate("Dup", RawGrid{dup, {"x"}})
	if skip == nil || skip.Reason != ReasonDuplicateHeaders {
		t.Fatalf("expected duplicate_headers, got %+v", skip)
	}

	// header beyond the scan window is not found
	grid := make(RawGrid, 5)
	grid = append(grid, oldHeader)
	_, skip = NewLocator(DefaultSchemaConfig(), 3).Locate("Deep", grid)
	if skip == nil || skip.Reason != ReasonNoHeader {
		t.Fatalf("expected no_table_header for deep header, got %+v", skip)
	}
}

func TestLocateHeaderOnly(t *testing.T) {
	in, skip := NewLocator(DefaultSchemaConfig(), 0).Locate("Empty", RawGrid{oldHeader})
	if skip != nil {
		t.Fatalf("unexpected skip: %+v", skip)
	}
	if in.Table.Len() != 0 || in.HeaderRow != 1 || in.FirstDataRow != 2 {
		t.Fatalf("unexpected header-only result: %+v", in)
	}
}

func TestHeaderNormalizer(t *testing.T) {
	n := NewHeaderNormalizer(DefaultSchemaConfig())
	in := []string{"Data Folder", "daterun", "RetentionTime (min)", LegacyCommentsHeader, "Match1 Quality", "Extra"}
	want := []string{"DataFolderName", "DateRun", "RetentionTime", "Comments", "Match1.Quality", "Extra"}
	got := n.Normalize(in)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(got, n.Normalize(got)); diff != "" {
		t.Fatalf("Normalize not idempotent:\n%s", diff)
	}
}

func TestHeaderNormalizerNeverCollides(t *testing.T) {
	n := NewHeaderNormalizer(DefaultSchemaConfig())
	got := n.Normalize([]string{"Comments", LegacyCommentsHeader, "Date Run", "Run Date"})
	want := []string{"Comments", LegacyCommentsHeader, "DateRun", "Run Date"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collision handling (-want +got):\n%s", diff)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"72", 72, true},
		{" 8.25 ", 8.25, true},
		{"8,25", 8.25, true},
		{"1,234", 1234, true},
		{"1.234,5", 1234.5, true},
		{"90%", 90, true},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFromRawNAPlaceholders(t *testing.T) {
	for _, s := range []string{"", "N/A", "#N/A", "NA", " nan ", "None", "NULL"} {
		if c := FromRaw(s); c.Valid {
			t.Errorf("FromRaw(%q) = %+v, want Missing", s, c)
		}
	}
	for _, s := range []string{"Nap", "n/a acid", "0", " "} {
		if c := FromRaw(s); !c.Valid || c.Value != s {
			t.Errorf("FromRaw(%q) = %+v, want kept", s, c)
		}
	}
}

func TestTableProjectFillsMissing(t *testing.T) {
	tb := New([]string{"B", "A"}, [][]string{{"b1", "a1"}})
	p := tb.Project([]string{"A", "C", "B"})
	want := [][]Cell{{Text("a1"), Missing, Text("b1")}}
	if diff := cmp.Diff(want, p.Rows); diff != "" {
		t.Fatalf("Project mismatch:\n%s", diff)
	}
}
