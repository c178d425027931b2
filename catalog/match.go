package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const numericTolerance = 1e-9

var occurrencePattern = regexp.MustCompile(`(` + numberPattern + `)(?:[ ]?((?:\pL|[°%])(?:[\pL°²³]|/\pL)*))?`)

// Table pairs a dataset with the normalized and folded text of every cell.
// It is built once per load and read-only afterwards.
type Table struct {
	Data *Dataset
	norm [][]string
	fold [][]string
}

// NewTable prepares a dataset for matching.
func NewTable(ds *Dataset) *Table {
	tb := &Table{Data: ds}
	if ds == nil {
		return tb
	}
	tb.norm = make([][]string, len(ds.Rows))
	tb.fold = make([][]string, len(ds.Rows))
	for r, row := range ds.Rows {
		tb.norm[r] = make([]string, len(row))
		tb.fold[r] = make([]string, len(row))
		for c, cell := range row {
			text := cell.String()
			tb.norm[r][c] = NormalizeText(text)
			tb.fold[r][c] = FoldText(text)
		}
	}
	return tb
}

// Len returns the number of rows.
func (tb *Table) Len() int {
	if tb == nil {
		return 0
	}
	return tb.Data.Len()
}

func (tb *Table) normalized(row, col int) string {
	if col < 0 || col >= len(tb.norm[row]) {
		return ""
	}
	return tb.norm[row][col]
}

func (tb *Table) folded(row, col int) string {
	if col < 0 || col >= len(tb.fold[row]) {
		return ""
	}
	return tb.fold[row][col]
}

// Matcher evaluates terms against tables.
type Matcher struct {
	units  SynonymMap
	logger zerolog.Logger
}

// NewMatcher returns a matcher resolving occurrence units through units.
func NewMatcher(units SynonymMap, logger zerolog.Logger) *Matcher {
	return &Matcher{units: units, logger: logger}
}

// MatchTerm evaluates a single term over a dataset without a logger. It is a
// convenience for callers holding a bare Dataset.
func MatchTerm(ds *Dataset, cols []int, t Term, units SynonymMap) Mask {
	return NewMatcher(units, zerolog.Nop()).MatchTerm(NewTable(ds), cols, t, nil)
}

// MatchTerm returns the rows of frame (all rows when nil) where any of cols
// matches t.
func (m *Matcher) MatchTerm(tb *Table, cols []int, t Term, frame Mask) Mask {
	switch {
	case t.Kind == KindAnyOf:
		out := NewMask(tb.Len(), false)
		for _, opt := range t.Options {
			out.Or(m.MatchTerm(tb, cols, opt, frame))
		}
		return out
	case t.Kind.Numeric():
		return m.scan(tb, cols, frame, t.Original, func(row, col int) bool {
			return m.numericCell(tb, row, col, t)
		})
	default:
		return m.scan(tb, cols, frame, t.Original, func(row, col int) bool {
			return containsBounded(tb.normalized(row, col), t.Text)
		})
	}
}

// MatchSynonymWithCondition flags rows holding a cell that contains the literal
// text of one of the synonyms and, in that same cell, a number satisfying cond.
// The synonym may be glued to the number, as in "120V".
func (m *Matcher) MatchSynonymWithCondition(tb *Table, cols []int, synonyms []string, cond Term, frame Mask) Mask {
	return m.scan(tb, cols, frame, cond.Original, func(row, col int) bool {
		text := tb.normalized(row, col)
		for _, syn := range synonyms {
			if syn != "" && strings.Contains(text, syn) {
				return m.numericCell(tb, row, col, cond)
			}
		}
		return false
	})
}

// MatchAnyText flags rows where any column contains one of the normalized texts.
func (m *Matcher) MatchAnyText(tb *Table, cols []int, texts []string, frame Mask) Mask {
	return m.scan(tb, cols, frame, strings.Join(texts, "|"), func(row, col int) bool {
		cell := tb.normalized(row, col)
		for _, text := range texts {
			if containsBounded(cell, text) {
				return true
			}
		}
		return false
	})
}

// scan applies fn to every cell of cols within frame. A column whose matching
// panics is logged and contributes no rows.
func (m *Matcher) scan(tb *Table, cols []int, frame Mask, label string, fn func(row, col int) bool) Mask {
	out := NewMask(tb.Len(), false)
	for _, col := range cols {
		colMask, err := m.scanColumn(tb, col, frame, out, fn)
		if err != nil {
			m.logger.Error().Err(err).Int("column", col).Str("term", label).Msg("column skipped")
			continue
		}
		out.Or(colMask)
	}
	return out
}

func (m *Matcher) scanColumn(tb *Table, col int, frame, done Mask, fn func(row, col int) bool) (colMask Mask, err error) {
	defer func() {
		if r := recover(); r != nil {
			colMask = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	colMask = NewMask(tb.Len(), false)
	for row := 0; row < tb.Len(); row++ {
		if (frame != nil && !frame[row]) || done[row] {
			continue
		}
		if fn(row, col) {
			colMask[row] = true
		}
	}
	return colMask, nil
}

func (m *Matcher) numericCell(tb *Table, row, col int, t Term) bool {
	cell := tb.Data.Cell(row, col)
	if cell.Kind == CellNumber {
		return t.Unit == "" && compareNumber(t, cell.Number)
	}
	text := tb.folded(row, col)
	if text == "" {
		return false
	}
	for _, loc := range occurrencePattern.FindAllStringSubmatchIndex(text, -1) {
		unit := ""
		if loc[4] >= 0 {
			unit = text[loc[4]:loc[5]]
		}
		if !delimited(text, loc[0], loc[1]) {
			// "100 M8": the unit group ran into a longer word; the bare
			// number still counts, without a unit.
			if unit == "" || !delimited(text, loc[2], loc[3]) {
				continue
			}
			unit = ""
		}
		v, ok := ParseNumber(text[loc[2]:loc[3]])
		if !ok {
			continue
		}
		if t.Unit != "" && (unit == "" || m.units.canonicalUnit(unit) != t.Unit) {
			continue
		}
		if compareNumber(t, v) {
			return true
		}
	}
	return false
}

func compareNumber(t Term, v float64) bool {
	switch t.Kind {
	case KindGt:
		return v > t.Value
	case KindLt:
		return v < t.Value
	case KindGe:
		return v >= t.Value-tolerance(t.Value)
	case KindLe:
		return v <= t.Value+tolerance(t.Value)
	case KindEq:
		return math.Abs(v-t.Value) <= tolerance(t.Value)
	case KindRange:
		return v >= t.Low-tolerance(t.Low) && v <= t.High+tolerance(t.High)
	}
	return false
}

func tolerance(x float64) float64 {
	return numericTolerance * math.Max(1, math.Abs(x))
}

// delimited reports whether s[start:end] is not glued to a letter or digit.
func delimited(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// containsBounded reports whether needle occurs in haystack on word edges.
func containsBounded(haystack, needle string) bool {
	if needle == "" || len(needle) > len(haystack) {
		return false
	}
	offset := 0
	for {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			return false
		}
		start := offset + i
		if delimited(haystack, start, start+len(needle)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
}
