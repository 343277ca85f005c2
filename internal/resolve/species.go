package resolve

import (
	"sort"
	"strings"

	"github.com/wagner-austin/tree-bot/internal/table"
)

// SiteKeys maps a letters-only, lowercased sheet or site name to its
// canonical site key.
type SiteKeys map[string]string

// DefaultSiteKeys is the field-site table.
var DefaultSiteKeys = SiteKeys{
	"emerson":     "emerson",
	"emersonoaks": "emerson",
	"stunt":       "stunt",
	"stuntranch":  "stunt",
	"rancho":      "rancho",
	"fortord":     "fortord",
	"blueoak":     "blueoak",
	"pointreyes":  "pointreyes",
	"angelo":      "angelo",
	"lassen":      "lassen",
	"sagehen":     "sagehen",
	"yosemite":    "yosemite",
}

// Token strips everything but ASCII letters and lowercases.
func Token(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lookup resolves a sheet name to a site key.
func (k SiteKeys) Lookup(name string) (string, bool) {
	site, ok := k[Token(name)]
	return site, ok
}

// SiteCartridge keys the species map.
type SiteCartridge struct {
	Site      string `yaml:"site" json:"site"`
	Cartridge string `yaml:"cartridge" json:"cartridge"`
}

// SpeciesMap resolves a (site, cartridge) pair to a plant species.
type SpeciesMap map[SiteCartridge]string

// Species mapping header names.
const (
	MapSite         = "Site"
	MapCartridge    = "CartridgeNum"
	MapPlantSpecies = "PlantSpecies"
	MapSampleNumber = "SampleNumber"
	MapDate         = "Date"
)

var mappingHeaders = map[string]string{
	"samplenum":    MapSampleNumber,
	"samplenumber": MapSampleNumber,
	"sample":       MapSampleNumber,
	"reserve":      MapSite,
	"site":         MapSite,
	"plantspecies": MapPlantSpecies,
	"species":      MapPlantSpecies,
	"date":         MapDate,
	"cartridge":    MapCartridge,
	"cartridgenum": MapCartridge,
}

// MappingHeaders renames species-mapping headers to their canonical names.
// Unknown headers are kept.
func MappingHeaders(columns []string) []string {
	out := make([]string, len(columns))
	taken := map[string]bool{}
	for i, c := range columns {
		out[i] = c
		if canonical, ok := mappingHeaders[Token(c)]; ok && !taken[canonical] {
			out[i] = canonical
			taken[canonical] = true
		}
	}
	return out
}

// BuildSpeciesMap collects (site, cartridge) -> species from mapping
// tables. Rows need all three values and a known site. Keys seen with more
// than one species are left out and returned, sorted, as ambiguous.
func BuildSpeciesMap(sites SiteKeys, tables []*table.Table) (SpeciesMap, []SiteCartridge) {
	seen := map[SiteCartridge]map[string]bool{}
	first := map[SiteCartridge]string{}
	var order []SiteCartridge
	for _, t := range tables {
		mt := &table.Table{Columns: MappingHeaders(t.Columns), Rows: t.Rows}
		if !mt.Has(MapSite) || !mt.Has(MapCartridge) || !mt.Has(MapPlantSpecies) {
			continue
		}
		for i := range mt.Rows {
			site, cart, sp := mt.Get(i, MapSite), mt.Get(i, MapCartridge), mt.Get(i, MapPlantSpecies)
			if site.IsBlank() || cart.IsBlank() || sp.IsBlank() {
				continue
			}
			key, ok := sites.Lookup(site.Value)
			if !ok {
				continue
			}
			k := SiteCartridge{Site: key, Cartridge: strings.TrimSpace(cart.Value)}
			species := strings.TrimSpace(sp.Value)
			if seen[k] == nil {
				seen[k] = map[string]bool{}
				first[k] = species
				order = append(order, k)
			}
			seen[k][species] = true
		}
	}
	m := SpeciesMap{}
	var ambiguous []SiteCartridge
	for _, k := range order {
		if len(seen[k]) > 1 {
			ambiguous = append(ambiguous, k)
			continue
		}
		m[k] = first[k]
	}
	sort.Slice(ambiguous, func(i, j int) bool {
		if ambiguous[i].Site != ambiguous[j].Site {
			return ambiguous[i].Site < ambiguous[j].Site
		}
		return ambiguous[i].Cartridge < ambiguous[j].Cartridge
	})
	return m, ambiguous
}

// SpeciesFill reports what ApplySpeciesMap did.
type SpeciesFill struct {
	Filled int
	// Examples holds up to five "cartridge -> species" samples.
	Examples []string
}

const maxFillExamples = 5

// ApplySpeciesMap fills blank Species cells from m for rows with a
// CartridgeNum. Existing species are never overwritten.
func ApplySpeciesMap(t *table.Table, site string, m SpeciesMap) (*table.Table, SpeciesFill) {
	out := t.Clone()
	out.EnsureColumn(table.ColSpecies)
	var fill SpeciesFill
	if len(m) == 0 || !out.Has(table.ColCartridgeNum) {
		return out, fill
	}
	for i := range out.Rows {
		if !out.Get(i, table.ColSpecies).IsBlank() {
			continue
		}
		cart := out.Get(i, table.ColCartridgeNum)
		if cart.IsBlank() {
			continue
		}
		k := SiteCartridge{Site: site, Cartridge: strings.TrimSpace(cart.Value)}
		sp, ok := m[k]
		if !ok {
			continue
		}
		out.Set(i, table.ColSpecies, table.Text(sp))
		fill.Filled++
		if len(fill.Examples) < maxFillExamples {
			fill.Examples = append(fill.Examples, k.Cartridge+" -> "+sp)
		}
	}
	return out, fill
}
