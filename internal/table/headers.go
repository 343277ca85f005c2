package table

import (
	"sort"
	"strings"
)

// HeaderNormalizer maps header spellings onto canonical column names.
type HeaderNormalizer struct {
	suffixes []string
	variants map[string]string // lower(variant) -> canonical
}

// NewHeaderNormalizer compiles the suffix and alias tables of cfg.
func NewHeaderNormalizer(cfg *SchemaConfig) *HeaderNormalizer {
	n := &HeaderNormalizer{
		suffixes: append([]string(nil), cfg.StripSuffixes...),
		variants: map[string]string{},
	}
	canon := make([]string, 0, len(cfg.Aliases))
	for c := range cfg.Aliases {
		canon = append(canon, c)
	}
	sort.Strings(canon)
	add := func(variant, c string) {
		k := strings.ToLower(strings.TrimSpace(variant))
		if _, taken := n.variants[k]; !taken && k != "" {
			n.variants[k] = c
		}
	}
	// canonical spellings first so a variant can never shadow one
	for _, list := range [][]string{cfg.OldSchema, cfg.NewSchema, canon} {
		for _, c := range list {
			add(c, c)
		}
	}
	for _, c := range canon {
		for _, v := range cfg.Aliases[c] {
			add(v, c)
		}
	}
	return n
}

// StripSuffix trims the first configured suffix that h ends with.
func (n *HeaderNormalizer) StripSuffix(h string) string {
	h = strings.TrimSpace(h)
	for _, s := range n.suffixes {
		if s != "" && strings.HasSuffix(h, s) {
			return strings.TrimSpace(strings.TrimSuffix(h, s))
		}
	}
	return h
}

// Canonical returns the canonical name for a header spelling.
func (n *HeaderNormalizer) Canonical(h string) (string, bool) {
	c, ok := n.variants[strings.ToLower(strings.TrimSpace(h))]
	return c, ok
}

// Normalize returns a new header slice. Suffixes are stripped first, then
// aliases are applied unless the canonical name is already taken.
func (n *HeaderNormalizer) Normalize(columns []string) []string {
	out := make([]string, len(columns))
	present := make(map[string]bool, len(columns))
	for i, c := range columns {
		out[i] = n.StripSuffix(c)
		present[out[i]] = true
	}
	for i, c := range out {
		canonical, ok := n.Canonical(c)
		if !ok || canonical == c || present[canonical] {
			continue
		}
		out[i] = canonical
		present[canonical] = true
	}
	return out
}

// NormalizeTable returns a copy of t with normalized headers.
func (n *HeaderNormalizer) NormalizeTable(t *Table) *Table {
	c := t.Clone()
	c.Columns = n.Normalize(t.Columns)
	return c
}
