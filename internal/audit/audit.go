// Package audit lints a class map with naming heuristics. Findings are
// advisory: chemical naming has many legitimate exceptions.
package audit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/wagner-austin/tree-bot/internal/resolve"
)

// FragmentMaxLen bounds the length of a reported single-token entry.
const FragmentMaxLen = 10

// synonyms folds class labels that mean the same thing.
var synonyms = map[string]string{
	"carboxylic_acid": "organic.acid",
	"silicone":        "siloxane",
	"organosiloxane":  "siloxane",
}

type rule struct {
	re      *regexp.Regexp
	classes []string
}

// Ordered: specific suffixes before the general ones they overlap.
var rules = []rule{
	{regexp.MustCompile(`(?i)thiol$`), []string{"thiol"}},
	{regexp.MustCompile(`(?i)\boic acid\b`), []string{"organic.acid"}},
	{regexp.MustCompile(`(?i)\bacid\b`), []string{"organic.acid"}},
	{regexp.MustCompile(`(?i)al$`), []string{"aldehyde"}},
	{regexp.MustCompile(`(?i)one$`), []string{"ketone", "monoterpenoid"}},
	{regexp.MustCompile(`(?i)ol$`), []string{"alcohol", "monoterpenoid"}},
	{regexp.MustCompile(`(?i)yne$`), []string{"alkyne"}},
	{regexp.MustCompile(`(?i)ene$`), []string{"alkene", "monoterpene", "sesquiterpene", "terpene", "aromatic", "monoterpenoid"}},
	{regexp.MustCompile(`(?i)ane$`), []string{"alkane", "monoterpene", "sesquiterpene", "organosilicon", "siloxane", "epoxide", "halogen"}},
	{regexp.MustCompile(`(?i)siloxane`), []string{"siloxane"}},
	{regexp.MustCompile(`(?i)pinene`), []string{"monoterpene"}},
	{regexp.MustCompile(`(?i)caryophyllene`), []string{"sesquiterpene"}},
	{regexp.MustCompile(`(?i)\b(fluoro|chloro|bromo|iodo)`), []string{"halogen"}},
	{regexp.MustCompile(`(?i)benzene`), []string{"aromatic", "halogen", "monoterpenoid"}},
}

// ClassCount is one line of the class distribution.
type ClassCount struct {
	Class     string
	Compounds int
}

// Finding is a mapping whose class disagrees with every heuristic that
// matched its name.
type Finding struct {
	Compound string
	Class    string
	Expected []string
}

// Fragment is a short single-token key.
type Fragment struct {
	Compound string
	Class    string
}

// Report is the audit outcome.
type Report struct {
	Total        int
	Distribution []ClassCount
	Findings     []Finding
	Fragments    []Fragment
}

// CanonicalClass folds known synonyms and lowercases the label.
func CanonicalClass(class string) string {
	c := strings.ToLower(strings.TrimSpace(class))
	if s, ok := synonyms[c]; ok {
		return s
	}
	return c
}

// Expected returns the sorted set of classes the heuristics accept for
// name, or nil when no heuristic applies.
func Expected(name string) []string {
	set := map[string]bool{}
	for _, r := range rules {
		if r.re.MatchString(name) {
			for _, c := range r.classes {
				set[CanonicalClass(c)] = true
			}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Run audits m.
func Run(m resolve.ClassMap) Report {
	rep := Report{Total: len(m)}
	byClass := map[string]int{}
	names := make([]string, 0, len(m))
	for name, class := range m {
		byClass[CanonicalClass(class)]++
		names = append(names, name)
	}
	sort.Strings(names)
	for c, n := range byClass {
		rep.Distribution = append(rep.Distribution, ClassCount{Class: c, Compounds: n})
	}
	sort.Slice(rep.Distribution, func(i, j int) bool {
		a, b := rep.Distribution[i], rep.Distribution[j]
		if a.Compounds != b.Compounds {
			return a.Compounds > b.Compounds
		}
		return a.Class < b.Class
	})

	for _, name := range names {
		class := CanonicalClass(m[name])
		token := strings.TrimSpace(name)
		if exp := Expected(strings.ToLower(token)); exp != nil && !contains(exp, class) {
			rep.Findings = append(rep.Findings, Finding{Compound: name, Class: class, Expected: exp})
		}
		if isFragment(token) {
			rep.Fragments = append(rep.Fragments, Fragment{Compound: name, Class: class})
		}
	}
	return rep
}

func isFragment(token string) bool {
	if token == "" || len([]rune(token)) > FragmentMaxLen {
		return false
	}
	if strings.ContainsAny(token, " ,[") {
		return false
	}
	return !strings.ContainsFunc(token, unicode.IsDigit)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Markdown renders the report; at most maxFragments short entries are
// listed (0 lists all).
func (r Report) Markdown(maxFragments int) string {
	var b strings.Builder
	b.WriteString("[CLASS MAP AUDIT]\n")
	b.WriteString(fmt.Sprintf("Total compounds: %d\n", r.Total))
	b.WriteString(fmt.Sprintf("Total classes: %d\n\n", len(r.Distribution)))
	b.WriteString("[CLASS DISTRIBUTION]\n")
	for _, c := range r.Distribution {
		b.WriteString(fmt.Sprintf("- %s: %d\n", c.Class, c.Compounds))
	}
	b.WriteString("\n[POTENTIALLY INCORRECT MAPPINGS]\n")
	if len(r.Findings) == 0 {
		b.WriteString("(none)\n")
	}
	for _, f := range r.Findings {
		b.WriteString(fmt.Sprintf("- %s: current %s, heuristics suggest %s\n", f.Compound, f.Class, strings.Join(f.Expected, ", ")))
	}
	if len(r.Fragments) > 0 {
		b.WriteString("\n[SHORT SINGLE-TOKEN ENTRIES]\n")
		list := r.Fragments
		if maxFragments > 0 && len(list) > maxFragments {
			list = list[:maxFragments]
		}
		for _, f := range list {
			b.WriteString(fmt.Sprintf("- %s -> %s\n", f.Compound, f.Class))
		}
		if n := len(r.Fragments) - len(list); n > 0 {
			b.WriteString(fmt.Sprintf("... and %d more\n", n))
		}
	}
	return b.String()
}
