package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind identifies how a Term is matched.
type Kind int

const (
	KindString Kind = iota
	KindPhrase
	KindGt
	KindLt
	KindGe
	KindLe
	KindEq
	KindRange
	// KindAnyOf is a nested OR group inside an AND segment.
	KindAnyOf
)

var kindNames = map[Kind]string{
	KindString: "string",
	KindPhrase: "phrase",
	KindGt:     "gt",
	KindLt:     "lt",
	KindGe:     "ge",
	KindLe:     "le",
	KindEq:     "eq",
	KindRange:  "range",
	KindAnyOf:  "any-of",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Numeric reports whether terms of this kind compare numbers.
func (k Kind) Numeric() bool {
	switch k {
	case KindGt, KindLt, KindGe, KindLe, KindEq, KindRange:
		return true
	}
	return false
}

// Term is an atomic query element. Unit is only set for numeric kinds and
// Low <= High always holds for ranges.
type Term struct {
	Original string  `json:"original"`
	Kind     Kind    `json:"kind"`
	Text     string  `json:"text,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Low      float64 `json:"low,omitempty"`
	High     float64 `json:"high,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Options  []Term  `json:"options,omitempty"`
}

// Operator combines the segments of a query.
type Operator int

const (
	OpAnd Operator = iota
	OpOr
)

func (o Operator) String() string {
	if o == OpOr {
		return "OR"
	}
	return "AND"
}

// Segment is a group of terms combined by AND.
type Segment struct {
	Terms []Term `json:"terms"`
}

// Query is a decomposed search: segments combined by Operator, minus any row
// matching one of the negated terms.
type Query struct {
	Raw         string    `json:"raw"`
	Positive    string    `json:"positive"`
	TopLevelAnd bool      `json:"topLevelAnd"`
	Operator    Operator  `json:"operator"`
	Segments    []Segment `json:"segments"`
	Negated     []Term    `json:"negated,omitempty"`
}

// Empty reports whether the query has neither positive nor negated terms.
func (q *Query) Empty() bool {
	return q == nil || (len(q.Segments) == 0 && len(q.Negated) == 0)
}

// SingleNumericTerm returns the only term of a one-term query when it is a
// unit-bearing comparison or range.
func (q *Query) SingleNumericTerm() (Term, bool) {
	if q == nil || len(q.Segments) != 1 || len(q.Segments[0].Terms) != 1 {
		return Term{}, false
	}
	t := q.Segments[0].Terms[0]
	if !t.Kind.Numeric() || t.Unit == "" {
		return Term{}, false
	}
	return t, true
}

const numberPattern = `[0-9]+(?:[.,][0-9]+)*`

var (
	negationPattern   = regexp.MustCompile(`#"([^"]*)"|#([^\s"|+#]+)`)
	comparisonPattern = regexp.MustCompile(`^(>=|<=|>|<|=)\s*(` + numberPattern + `)\s*([^\s0-9.,][^\s]*)?$`)
	rangePattern      = regexp.MustCompile(`^(` + numberPattern + `)\s*-\s*(` + numberPattern + `)\s*([^\s0-9.,\-][^\s]*)?$`)
)

var comparisonKinds = map[string]Kind{
	">":  KindGt,
	"<":  KindLt,
	">=": KindGe,
	"<=": KindLe,
	"=":  KindEq,
}

// ParseQuery decomposes a raw query. Negated tokens (#word, #"phrase") are
// extracted first; the positive remainder is split into OR segments of AND
// terms. A query that has positive text but yields no term returns ErrInvalidTerm.
func ParseQuery(raw string, units SynonymMap) (*Query, error) {
	positive, negated := extractNegations(raw)
	q := &Query{Raw: raw, Positive: positive}
	for _, neg := range negated {
		if t, ok := classifyTerm(neg, units); ok {
			q.Negated = append(q.Negated, t)
		}
	}
	if positive == "" {
		return q, nil
	}
	q.TopLevelAnd = hasTopLevelAnd(positive)
	segments, op, err := decompose(positive, q.TopLevelAnd, units)
	if err != nil {
		return nil, err
	}
	q.Segments = segments
	q.Operator = op
	return q, nil
}

// SplitTopLevelAnd splits positive text on "+" signs outside quotes.
func SplitTopLevelAnd(text string) []string {
	return nonEmpty(splitOutsideQuotes(text, "+"))
}

func extractNegations(raw string) (string, []string) {
	var negated []string
	seen := make(map[string]struct{})
	positive := negationPattern.ReplaceAllStringFunc(raw, func(match string) string {
		sub := negationPattern.FindStringSubmatch(match)
		token := sub[2]
		key := NormalizeText(sub[2])
		if strings.HasPrefix(match, `#"`) {
			token = `"` + sub[1] + `"`
			key = NormalizeText(sub[1])
		}
		if key != "" {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				negated = append(negated, token)
			}
		}
		return " "
	})
	return strings.Join(strings.Fields(positive), " "), negated
}

func decompose(text string, topLevelAnd bool, units SynonymMap) ([]Segment, Operator, error) {
	if topLevelAnd {
		seg, ok := parseSegment(text, units)
		if !ok {
			return nil, OpAnd, fmt.Errorf("%w: %q", ErrInvalidTerm, text)
		}
		return []Segment{seg}, OpAnd, nil
	}
	pieces := nonEmpty(splitOutsideQuotes(text, "|"))
	switch {
	case len(pieces) >= 2:
		var segments []Segment
		for _, piece := range pieces {
			if seg, ok := parseSegment(piece, units); ok {
				segments = append(segments, seg)
			}
		}
		if len(segments) == 0 {
			return nil, OpOr, fmt.Errorf("%w: %q", ErrInvalidTerm, text)
		}
		return segments, OpOr, nil
	case len(pieces) == 1:
		seg, ok := parseSegment(pieces[0], units)
		if !ok {
			return nil, OpAnd, fmt.Errorf("%w: %q", ErrInvalidTerm, text)
		}
		return []Segment{seg}, OpAnd, nil
	default:
		return nil, OpAnd, fmt.Errorf("%w: %q", ErrInvalidTerm, text)
	}
}

// parseSegment splits an AND segment on " + ". A part holding a top-level
// "|" becomes an any-of term; nesting stops there. A part that yields no term
// invalidates the whole segment.
func parseSegment(text string, units SynonymMap) (Segment, bool) {
	var seg Segment
	for _, part := range nonEmpty(splitOutsideQuotes(text, " + ")) {
		if !isQuoted(part) && strings.Contains(part, "|") {
			options := nonEmpty(splitOutsideQuotes(part, "|"))
			if len(options) > 1 {
				group := Term{Original: part, Kind: KindAnyOf}
				for _, opt := range options {
					if t, ok := classifyTerm(opt, units); ok {
						group.Options = append(group.Options, t)
					}
				}
				if len(group.Options) == 0 {
					return Segment{}, false
				}
				seg.Terms = append(seg.Terms, group)
				continue
			}
			if len(options) == 1 {
				part = options[0]
			}
		}
		t, ok := classifyTerm(part, units)
		if !ok {
			return Segment{}, false
		}
		seg.Terms = append(seg.Terms, t)
	}
	return seg, len(seg.Terms) > 0
}

func classifyTerm(raw string, units SynonymMap) (Term, bool) {
	s := strings.TrimSpace(raw)
	if isQuoted(s) {
		text := NormalizeText(strings.Trim(s, `"`))
		if text == "" {
			return Term{}, false
		}
		return Term{Original: raw, Kind: KindPhrase, Text: text}, true
	}
	if m := comparisonPattern.FindStringSubmatch(s); m != nil {
		if v, ok := ParseNumber(m[2]); ok {
			return Term{
				Original: raw,
				Kind:     comparisonKinds[m[1]],
				Value:    v,
				Unit:     unitFor(m[3], units),
			}, true
		}
	}
	if m := rangePattern.FindStringSubmatch(s); m != nil {
		lo, okLo := ParseNumber(m[1])
		hi, okHi := ParseNumber(m[2])
		if okLo && okHi {
			bounds := []float64{lo, hi}
			sort.Float64s(bounds)
			return Term{
				Original: raw,
				Kind:     KindRange,
				Low:      bounds[0],
				High:     bounds[1],
				Unit:     unitFor(m[3], units),
			}, true
		}
	}
	text := NormalizeText(s)
	if text == "" {
		return Term{}, false
	}
	return Term{Original: raw, Kind: KindString, Text: text}, true
}

func unitFor(suffix string, units SynonymMap) string {
	if suffix == "" {
		return ""
	}
	return units.canonicalUnit(suffix)
}

func hasTopLevelAnd(text string) bool {
	if isSingleQuoted(text) {
		return false
	}
	return len(splitOutsideQuotes(text, "+")) > 1
}

func isQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

func isSingleQuoted(s string) bool {
	return isQuoted(s) && strings.Count(s, `"`) == 2
}

// splitOutsideQuotes splits s on sep, ignoring separators inside double quotes.
func splitOutsideQuotes(s, sep string) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); {
		if s[i] == '"' {
			inQuote = !inQuote
			i++
			continue
		}
		if !inQuote && strings.HasPrefix(s[i:], sep) {
			parts = append(parts, s[start:i])
			i += len(sep)
			start = i
			continue
		}
		i++
	}
	return append(parts, s[start:])
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
