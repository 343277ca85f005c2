// Package normalize turns free-text compound names reported by the
// instrument software into canonical lookup keys.
package normalize

import (
	"regexp"
	"strings"
)

var (
	reLeadingPunct = regexp.MustCompile(`^[\s,–—-]+`)
	rePuran        = regexp.MustCompile(`\b(\d+h)-puran\b`)
	reStereo       = regexp.MustCompile(`\((?:r|s|e|z|cis|trans)\)`)
	// longer suffixes first; the trailing context is checked in code
	reSuffixHyphen = regexp.MustCompile(`-(\d+)(methylene|ylidene|ylene|enone|dione|diol|oate|oic|one|ol|al|yl|amine|amide)`)
	reStrayBracket = regexp.MustCompile(`(, \([^)]+\))\]$`)
	reRunToken     = regexp.MustCompile(`([)\]])(?:-|_|\s)?\d{1,3}$`)
	reTrailingZero = regexp.MustCompile(`([a-z])0$`)
)

// Compound normalizes a compound name for exact class lookup. Blank input
// returns "" so callers can keep it missing. Compound is idempotent.
func Compound(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return fixedPoint(name, compoundPass)
}

func compoundPass(s string) string {
	s = foldUnicode(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = reLeadingPunct.ReplaceAllString(s, "")

	s = applyRules(s, EmbeddedTypos)
	s = applyRules(s, TokenTypos)

	s = rePuran.ReplaceAllString(s, "${1}-pyran")
	s = reStereo.ReplaceAllString(s, "")
	s = insertSuffixHyphens(s)

	s = strings.TrimSpace(tidySpacing(s))

	s = reStrayBracket.ReplaceAllString(s, "${1}")
	s = reRunToken.ReplaceAllString(s, "${1}")
	s = reTrailingZero.ReplaceAllString(s, "${1}")
	return strings.TrimSpace(reTrailingPunct.ReplaceAllString(s, ""))
}

// insertSuffixHyphens rewrites "-3one" as "-3-one" when the suffix ends the
// token.
func insertSuffixHyphens(s string) string {
	matches := reSuffixHyphen.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		end := m[1]
		if !suffixEnds(s, end) {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString("-")
		b.WriteString(s[m[2]:m[3]])
		b.WriteString("-")
		b.WriteString(s[m[4]:m[5]])
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func suffixEnds(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	switch s[i] {
	case ' ', '\t', '\n', '\r', '\f', '\v', ',', ';', ':', ')', ']', '-':
		return true
	}
	return false
}
