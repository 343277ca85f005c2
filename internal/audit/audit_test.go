package audit

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wagner-austin/tree-bot/internal/resolve"
)

func TestExpected(t *testing.T) {
	cases := []struct {
		name string
		want []string
	}{
		{"hexanal", []string{"aldehyde"}},
		{"methanethiol", []string{"alcohol", "monoterpenoid", "thiol"}},
		{"hexanoic acid", []string{"organic.acid"}},
		{"alpha-pinene", []string{"alkene", "aromatic", "monoterpene", "monoterpenoid", "sesquiterpene", "terpene"}},
		{"chloromethane", []string{"alkane", "epoxide", "halogen", "monoterpene", "organosilicon", "sesquiterpene", "siloxane"}},
		{"isoprene x", nil},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.want, Expected(c.name)); diff != "" {
			t.Errorf("Expected(%q) (-want +got):\n%s", c.name, diff)
		}
	}
}

func TestCanonicalClass(t *testing.T) {
	if got := CanonicalClass(" Silicone "); got != "siloxane" {
		t.Fatalf("got %q", got)
	}
	if got := CanonicalClass("Terpene"); got != "terpene" {
		t.Fatalf("got %q", got)
	}
}

func TestRun(t *testing.T) {
	m := resolve.ClassMap{
		"hexanal":        "Aldehyde",
		"acetone":        "alcohol",
		"isoprene":       "Terpene",
		"dimethylsilane": "silicone",
		"3-carene x":     "monoterpene",
	}
	rep := Run(m)
	if rep.Total != 5 {
		t.Fatalf("total = %d", rep.Total)
	}
	want := []Finding{{Compound: "acetone", Class: "alcohol", Expected: []string{"ketone", "monoterpenoid"}}}
	if diff := cmp.Diff(want, rep.Findings); diff != "" {
		t.Fatalf("findings (-want +got):\n%s", diff)
	}
	if rep.Distribution[0].Compounds != 1 || len(rep.Distribution) != 5 {
		t.Fatalf("distribution = %+v", rep.Distribution)
	}
	wantFrag := []Fragment{{"acetone", "alcohol"}, {"hexanal", "aldehyde"}, {"isoprene", "terpene"}}
	if diff := cmp.Diff(wantFrag, rep.Fragments); diff != "" {
		t.Fatalf("fragments (-want +got):\n%s", diff)
	}

	md := rep.Markdown(2)
	for _, s := range []string{"[CLASS MAP AUDIT]", "Total compounds: 5", "acetone: current alcohol", "... and 1 more"} {
		if !strings.Contains(md, s) {
			t.Errorf("markdown missing %q:\n%s", s, md)
		}
	}
}
