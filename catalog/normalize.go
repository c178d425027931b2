package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldText uppercases and strips diacritics without restricting the character set.
func FoldText(text string) string {
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}
	return strings.ToUpper(folded)
}

// NormalizeText folds case and diacritics, keeps letters, digits, spaces and
// the characters ". - / _", and collapses whitespace. Every string comparison
// in the engine runs on normalized text.
func NormalizeText(text string) string {
	folded := FoldText(text)
	if folded == "" {
		return ""
	}
	restricted := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '.', r == '-', r == '/', r == '_':
			return r
		default:
			return ' '
		}
	}, folded)
	return strings.Join(strings.Fields(restricted), " ")
}

// NormalizeAll normalizes a slice of strings, dropping empty results and duplicates.
func NormalizeAll(texts []string) []string {
	out := make([]string, 0, len(texts))
	seen := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		normed := NormalizeText(t)
		if normed == "" {
			continue
		}
		if _, ok := seen[normed]; ok {
			continue
		}
		seen[normed] = struct{}{}
		out = append(out, normed)
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
