// Package resolve derives the NEW-layout identity fields of a sheet:
// compound, class and match score, dates, filled identities and species.
package resolve

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wagner-austin/tree-bot/internal/normalize"
)

// ClassMap maps a normalized compound name to its class label.
type ClassMap map[string]string

// CanonMap maps a generic-normalized raw name to its canonical name.
type CanonMap map[string]string

// LoadClassMap reads a class map document from path.
func LoadClassMap(path string) (ClassMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class map: %w", err)
	}
	return ParseClassMap(b)
}

// ParseClassMap decodes a document with a top-level "map" of compound to
// class. Entries whose key or value is not a YAML string are ignored.
// Keys are normalized with normalize.Compound; the first spelling wins
// when two keys normalize to the same name.
func ParseClassMap(b []byte) (ClassMap, error) {
	pairs, err := stringPairs(b)
	if err != nil {
		return nil, fmt.Errorf("parse class map: %w", err)
	}
	m := make(ClassMap, len(pairs))
	for _, p := range pairs {
		k := normalize.Compound(p[0])
		if k == "" {
			continue
		}
		if _, dup := m[k]; !dup {
			m[k] = p[1]
		}
	}
	return m, nil
}

// Lookup returns the class of a normalized compound.
func (m ClassMap) Lookup(compound string) (string, bool) {
	c, ok := m[compound]
	return c, ok
}

// LoadCanonMap reads an optional canonicalization document. A missing file
// yields an empty map.
func LoadCanonMap(path string) (CanonMap, error) {
	if path == "" {
		return CanonMap{}, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return CanonMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read name canon map: %w", err)
	}
	return ParseCanonMap(b)
}

// ParseCanonMap decodes a "map" of raw name to canonical name; both sides
// go through normalize.Text.
func ParseCanonMap(b []byte) (CanonMap, error) {
	pairs, err := stringPairs(b)
	if err != nil {
		return nil, fmt.Errorf("parse name canon map: %w", err)
	}
	m := make(CanonMap, len(pairs))
	for _, p := range pairs {
		k, v := normalize.Text(p[0]), normalize.Text(p[1])
		if k != "" && v != "" {
			m[k] = v
		}
	}
	return m, nil
}

// Canonical rewrites a raw name when it is a known synonym.
func (m CanonMap) Canonical(raw string) string {
	if c, ok := m[normalize.Text(raw)]; ok {
		return c
	}
	return raw
}

// stringPairs returns the string/string entries under the top-level "map"
// key in document order.
func stringPairs(b []byte) ([][2]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("top level is not a mapping")
	}
	var body *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "map" {
			body = root.Content[i+1]
			break
		}
	}
	if body == nil || body.Kind != yaml.MappingNode {
		return nil, nil
	}
	out := make([][2]string, 0, len(body.Content)/2)
	for i := 0; i+1 < len(body.Content); i += 2 {
		k, v := body.Content[i], body.Content[i+1]
		if !isString(k) || !isString(v) {
			continue
		}
		out = append(out, [2]string{k.Value, v.Value})
	}
	return out, nil
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}
