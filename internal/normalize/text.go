package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxPasses bounds the fixed-point loops; real names settle in two.
const maxPasses = 8

var greekFold = strings.NewReplacer(
	"α", "alpha",
	"β", "beta",
	"γ", "gamma",
	"δ", "delta",
	"ε", "epsilon",
	"μ", "mu",
	"π", "pi",
)

var (
	reSpaces        = regexp.MustCompile(`\s+`)
	reCommaSpacing  = regexp.MustCompile(`\s*,\s*`)
	reHyphenSpacing = regexp.MustCompile(`\s*-\s*`)
	reTrailingPunct = regexp.MustCompile(`[\s\-.,;:]+$`)
)

// foldUnicode applies compatibility composition and spells out the Greek
// letters that commonly appear in compound names.
func foldUnicode(s string) string {
	return greekFold.Replace(norm.NFKC.String(s))
}

// tidySpacing collapses whitespace, normalizes comma and hyphen spacing and
// strips trailing punctuation.
func tidySpacing(s string) string {
	s = reSpaces.ReplaceAllString(s, " ")
	s = reCommaSpacing.ReplaceAllString(s, ", ")
	s = reHyphenSpacing.ReplaceAllString(s, "-")
	return reTrailingPunct.ReplaceAllString(s, "")
}

// Text is the generic normalizer used for lookup keys: unicode folding,
// lowercase, trimmed, spacing rules applied. Missing input stays empty.
func Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return fixedPoint(s, textPass)
}

func textPass(s string) string {
	s = foldUnicode(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSpace(tidySpacing(s))
}

func fixedPoint(s string, pass func(string) string) string {
	for i := 0; i < maxPasses; i++ {
		next := pass(s)
		if next == s {
			return next
		}
		s = next
	}
	return s
}
