package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s with Unicode case folding, strips combining marks and
// collapses whitespace, so "Brāhmin " and "BRAHMIN" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(out)), " ")
}

func tokens(folded string) []string {
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func equalFold(a, b string) bool {
	fa := fold(a)
	return fa != "" && fa == fold(b)
}

// textScore is 1 when either folded string contains the other, otherwise the
// fraction of query tokens that appear among the candidate's tokens.
func textScore(query, candidate string) float64 {
	q, c := fold(query), fold(candidate)
	if q == "" || c == "" {
		return 0
	}
	if strings.Contains(c, q) || strings.Contains(q, c) {
		return 1
	}
	qt := tokens(q)
	if len(qt) == 0 {
		return 0
	}
	have := make(map[string]struct{})
	for _, t := range tokens(c) {
		have[t] = struct{}{}
	}
	hits := 0
	for _, t := range qt {
		if _, ok := have[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(qt))
}
