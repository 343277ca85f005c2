package table

import (
	"strings"
)

// DefaultScanLimit is how many leading rows are searched for a header.
const DefaultScanLimit = 200

// Skip reasons.
const (
	ReasonNoHeader         = "no_table_header"
	ReasonNoSchema         = "no_schema_detected"
	ReasonDuplicateHeaders = "duplicate_headers"
	ReasonReadError        = "read_error"
)

// InputSheet is a located table. HeaderRow and FirstDataRow are 1-based
// positions in the raw grid. FirstDataRow is always HeaderRow+1, so for a
// header-only sheet it points one past the last row of the grid.
type InputSheet struct {
	Name         string
	Schema       Schema
	Table        *Table
	HeaderRow    int
	FirstDataRow int
}

// SkippedSheet records a sheet excluded from processing.
type SkippedSheet struct {
	Name   string `yaml:"name" json:"name"`
	Reason string `yaml:"reason" json:"reason"`
}

// Locator finds the real header row inside a worksheet.
type Locator struct {
	headers   *HeaderNormalizer
	oldCols   []string
	newCols   []string
	scanLimit int
}

// NewLocator builds a locator for cfg. A non-positive scanLimit uses
// DefaultScanLimit.
func NewLocator(cfg *SchemaConfig, scanLimit int) *Locator {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(strings.TrimSpace(s))
		}
		return out
	}
	return &Locator{
		headers:   NewHeaderNormalizer(cfg),
		oldCols:   lower(cfg.OldSchema),
		newCols:   lower(cfg.NewSchema),
		scanLimit: scanLimit,
	}
}

// Headers exposes the locator's header normalizer.
func (l *Locator) Headers() *HeaderNormalizer { return l.headers }

// FindHeader returns the 0-based index of the first row holding a complete
// OLD or NEW header and the layout guessed from it.
func (l *Locator) FindHeader(grid RawGrid) (int, Schema, bool) {
	limit := l.scanLimit
	if limit > len(grid) {
		limit = len(grid)
	}
	for i := 0; i < limit; i++ {
		set := l.expand(grid[i])
		matchNew := containsAll(set, l.newCols)
		matchOld := containsAll(set, l.oldCols)
		switch {
		case matchNew && matchOld:
			if containsAll(set, lowerAll(NewMarkers)) {
				return i, SchemaNew, true
			}
			return i, SchemaOld, true
		case matchNew:
			return i, SchemaNew, true
		case matchOld:
			return i, SchemaOld, true
		}
	}
	return -1, "", false
}

// expand lowercases a row's cells and adds the canonical name of every
// recognized variant.
func (l *Locator) expand(row []string) map[string]bool {
	set := make(map[string]bool, len(row)*2)
	for _, cell := range row {
		c := l.headers.StripSuffix(cell)
		if c == "" {
			continue
		}
		set[strings.ToLower(c)] = true
		if canonical, ok := l.headers.Canonical(c); ok {
			set[strings.ToLower(canonical)] = true
		}
	}
	return set
}

// Locate finds the table in grid and classifies it. Exactly one of the
// results is non-nil.
func (l *Locator) Locate(name string, grid RawGrid) (*InputSheet, *SkippedSheet) {
	hi, _, ok := l.FindHeader(grid)
	if !ok {
		return nil, &SkippedSheet{Name: name, Reason: ReasonNoHeader}
	}
	header := make([]string, len(grid[hi]))
	for j, c := range grid[hi] {
		header[j] = strings.TrimSpace(c)
	}
	if hasDuplicates(header) {
		return nil, &SkippedSheet{Name: name, Reason: ReasonDuplicateHeaders}
	}
	schema, err := DetectSchema(l.headers.Normalize(header))
	if err != nil {
		return nil, &SkippedSheet{Name: name, Reason: ReasonNoSchema}
	}
	data := trimTrailingBlank(grid[hi+1:])
	return &InputSheet{
		Name:         name,
		Schema:       schema,
		Table:        New(header, data),
		HeaderRow:    hi + 1,
		FirstDataRow: hi + 2,
	}, nil
}

func containsAll(set map[string]bool, names []string) bool {
	for _, n := range names {
		if !set[n] {
			return false
		}
	}
	return true
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func hasDuplicates(header []string) bool {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		k := strings.ToLower(h)
		if k == "" {
			continue
		}
		if seen[k] {
			return true
		}
		seen[k] = true
	}
	return false
}

func trimTrailingBlank(rows RawGrid) RawGrid {
	end := len(rows)
	for end > 0 && blankRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
