package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scope decides where a typo rule may fire.
type Scope int

const (
	// Anywhere rules replace the typo wherever it occurs. Their typos are
	// fragments that never appear in a correctly spelled name.
	Anywhere Scope = iota
	// TokenBoundary rules fire only when the typo is not touching a letter
	// or digit on either side.
	TokenBoundary
)

func (s Scope) String() string {
	switch s {
	case Anywhere:
		return "anywhere"
	case TokenBoundary:
		return "token"
	default:
		return "unknown"
	}
}

// Rule is one typo correction.
type Rule struct {
	Typo  string
	Fix   string
	Scope Scope
}

// EmbeddedTypos are applied anywhere in a name.
var EmbeddedTypos = []Rule{
	{"trulfuoro", "trifluoro", Anywhere},
	{"trilfluoro", "trifluoro", Anywhere},
	{"perfuoro", "perfluoro", Anywhere},
	{"dilfuoro", "difluoro", Anywhere},
	{"tricloromono", "trichloromono", Anywhere},
	{"oxyxyclohexane", "oxycyclohexane", Anywhere},
	{"cylcotri", "cyclotri", Anywhere},
	{"cyclohexne", "cyclohexene", Anywhere},
	{"cycolohexene", "cyclohexene", Anywhere},
	{"bicyclo[3.1.10]", "bicyclo[3.1.0]", Anywhere},
	{"bicyclo[3.10]", "bicyclo[3.1.0]", Anywhere},
	{"cabox", "carbox", Anywhere},
	{"mtehoxy", "methoxy", Anywhere},
	{"mthyl", "methyl", Anywhere},
	{"tetradecultri", "tetradecyltri", Anywhere},
	{"dimthyl", "dimethyl", Anywhere},
	{"ethlidene", "ethylidene", Anywhere},
	{"ethyidene", "ethylidene", Anywhere},
	{"carboyxlic", "carboxylic", Anywhere},
	{"dimethyoxy", "dimethoxy", Anywhere},
	{"oct-1-ee", "oct-1-ene", Anywhere},
	{"ethandiyl", "ethanediyl", Anywhere},
}

// TokenTypos are applied only to whole tokens. No typo may occur inside the
// fix of another rule.
var TokenTypos = []Rule{
	{"bezene", "benzene", TokenBoundary},
	{"benene", "benzene", TokenBoundary},
	{"bnzene", "benzene", TokenBoundary},
	{"bezeneethanamine", "benzeneethanamine", TokenBoundary},
	{"benzene1-ethyl", "benzene, 1-ethyl", TokenBoundary},
	{"camphenon", "camphenone", TokenBoundary},
	{"hentriacontan", "hentriacontane", TokenBoundary},
	{"biyclo", "bicyclo", TokenBoundary},
	{"bicylclo", "bicyclo", TokenBoundary},
	{"pyyrole", "pyrrole", TokenBoundary},
	{"pentaden", "pentadien", TokenBoundary},
	{"thukene", "thujene", TokenBoundary},
	{"methlethylidene", "methylethylidene", TokenBoundary},
	{"cycloocatatetraene", "cyclooctatetraene", TokenBoundary},
	{"cycloocatadiene", "cyclooctadiene", TokenBoundary},
	{"xyclohexane", "cyclohexane", TokenBoundary},
	{"pentadioene", "pentadiene", TokenBoundary},
	{"ponene", "pinene", TokenBoundary},
	{"butanl,", "butanol,", TokenBoundary},
	{"cyclpbutane", "cyclobutane", TokenBoundary},
	{"imidazhol", "imidazol", TokenBoundary},
	{"imidaole", "imidazole", TokenBoundary},
	{"carbonic aid", "carbonic acid", TokenBoundary},
	{"aminomethanesulfonic aid", "aminomethanesulfonic acid", TokenBoundary},
	{"butenedinitrle", "butenedinitrile", TokenBoundary},
	{"cycloprpane", "cyclopropane", TokenBoundary},
	{"heptanthiol", "heptanethiol", TokenBoundary},
	{"teprinene", "terpinene", TokenBoundary},
	{"methyethyl", "methylethyl", TokenBoundary},
	{"hexen1-ol", "hexen-1-ol", TokenBoundary},
	{"butan, 1-ethoxy", "butane, 1-ethoxy", TokenBoundary},
	{"4-hydroxy=", "4-hydroxy", TokenBoundary},
	{"trazolo", "triazolo", TokenBoundary},
	{"3, 35-trimethyl", "3, 3, 5-trimethyl", TokenBoundary},
	{"cyclohexene 1,", "cyclohexene, 1,", TokenBoundary},
	{"esther", "ester", TokenBoundary},
	{"hyrazide", "hydrazide", TokenBoundary},
	{"eucalpytol", "eucalyptol", TokenBoundary},
	{"1, 10dimethylethoxy", "1, 1-dimethylethoxy", TokenBoundary},
}

// applyRules runs every rule in order over s.
func applyRules(s string, rules []Rule) string {
	for _, r := range rules {
		if r.Typo == "" || !strings.Contains(s, r.Typo) {
			continue
		}
		switch r.Scope {
		case Anywhere:
			s = strings.ReplaceAll(s, r.Typo, r.Fix)
		case TokenBoundary:
			s = replaceTokens(s, r.Typo, r.Fix)
		}
	}
	return s
}

// replaceTokens replaces non-overlapping occurrences of typo, scanning left
// to right, that are not glued to a letter or digit on either side.
func replaceTokens(s, typo, fix string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		j := strings.Index(s[i:], typo)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(typo)
		if isBoundaryBefore(s, start) && isBoundaryAfter(s, end) {
			b.WriteString(s[i:start])
			b.WriteString(fix)
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		b.WriteString(s[i : start+size])
		i = start + size
	}
	b.WriteString(s[i:])
	return b.String()
}

func isBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isAlnum(r)
}

func isBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isAlnum(r)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
