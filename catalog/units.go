package catalog

import "strings"

// Dictionary layout: column 0 holds the canonical term, columns 1 and 2 are
// reserved, synonyms start at column 3.
const (
	canonicalColumn    = 0
	firstSynonymColumn = 3
)

// SynonymMap maps a normalized synonym to its normalized canonical form.
type SynonymMap map[string]string

// BuildSynonymMap reads the canonical column and the synonym columns of a
// dictionary. Canonical forms map to themselves; on collisions the later row wins.
func BuildSynonymMap(dict *Dataset) SynonymMap {
	m := make(SynonymMap)
	if dict == nil {
		return m
	}
	for _, row := range dict.Rows {
		if len(row) <= canonicalColumn {
			continue
		}
		canonical := NormalizeText(row[canonicalColumn].String())
		if canonical == "" {
			continue
		}
		m[canonical] = canonical
		for col := firstSynonymColumn; col < len(row); col++ {
			syn := NormalizeText(row[col].String())
			if syn == "" {
				continue
			}
			m[syn] = canonical
		}
	}
	return m
}

// Resolve returns the canonical form of a unit token.
func (m SynonymMap) Resolve(token string) (string, bool) {
	key := NormalizeText(token)
	if key == "" || m == nil {
		return "", false
	}
	canonical, ok := m[key]
	return canonical, ok
}

// canonicalUnit resolves a unit suffix, falling back to its normalized text
// so an unknown unit still constrains matching.
func (m SynonymMap) canonicalUnit(token string) string {
	if canonical, ok := m.Resolve(token); ok {
		return canonical
	}
	if normed := NormalizeText(token); normed != "" {
		return normed
	}
	return strings.TrimSpace(FoldText(token))
}

// DictionarySynonyms collects the canonical and synonym texts of the given
// dictionary rows, normalized and deduplicated in row order.
func DictionarySynonyms(dict *Dataset, rows []int) []string {
	if dict == nil {
		return nil
	}
	var raw []string
	for _, r := range rows {
		if r < 0 || r >= len(dict.Rows) {
			continue
		}
		row := dict.Rows[r]
		if len(row) > canonicalColumn {
			raw = append(raw, row[canonicalColumn].String())
		}
		for col := firstSynonymColumn; col < len(row); col++ {
			raw = append(raw, row[col].String())
		}
	}
	return NormalizeAll(raw)
}

// dictionaryColumns returns the canonical and synonym column indices.
func dictionaryColumns(dict *Dataset) []int {
	width := dict.Width()
	if width == 0 {
		return nil
	}
	cols := []int{canonicalColumn}
	for col := firstSynonymColumn; col < width; col++ {
		cols = append(cols, col)
	}
	return cols
}
