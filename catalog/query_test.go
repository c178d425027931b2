package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func termTexts(seg Segment) []string {
	out := make([]string, len(seg.Terms))
	for i, t := range seg.Terms {
		out[i] = t.Text
		if t.Kind == KindAnyOf {
			out[i] = t.Original
		}
	}
	return out
}

func TestParseQueryPlusTakesPrecedence(t *testing.T) {
	q, err := ParseQuery("a + b | c", nil)
	require.NoError(t, err)

	assert.True(t, q.TopLevelAnd)
	assert.Equal(t, OpAnd, q.Operator)
	require.Len(t, q.Segments, 1)
	require.Len(t, q.Segments[0].Terms, 2)
	assert.Equal(t, "A", q.Segments[0].Terms[0].Text)

	nested := q.Segments[0].Terms[1]
	assert.Equal(t, KindAnyOf, nested.Kind)
	assert.Equal(t, "b | c", nested.Original)
	require.Len(t, nested.Options, 2)
	assert.Equal(t, "B", nested.Options[0].Text)
	assert.Equal(t, "C", nested.Options[1].Text)
}

func TestParseQueryOr(t *testing.T) {
	q, err := ParseQuery("a | b", nil)
	require.NoError(t, err)
	assert.False(t, q.TopLevelAnd)
	assert.Equal(t, OpOr, q.Operator)
	require.Len(t, q.Segments, 2)
	assert.Equal(t, []string{"A"}, termTexts(q.Segments[0]))
	assert.Equal(t, []string{"B"}, termTexts(q.Segments[1]))
}

func TestParseQueryNegation(t *testing.T) {
	q, err := ParseQuery("#x y", nil)
	require.NoError(t, err)
	assert.Equal(t, "y", q.Positive)
	require.Len(t, q.Negated, 1)
	assert.Equal(t, "X", q.Negated[0].Text)
	require.Len(t, q.Segments, 1)
	assert.Equal(t, []string{"Y"}, termTexts(q.Segments[0]))
}

func TestParseQueryNegatedPhraseAndDuplicates(t *testing.T) {
	q, err := ParseQuery(`motor #"alta tension" #rojo #ROJO`, nil)
	require.NoError(t, err)
	assert.Equal(t, "motor", q.Positive)
	require.Len(t, q.Negated, 2)
	assert.Equal(t, KindPhrase, q.Negated[0].Kind)
	assert.Equal(t, "ALTA TENSION", q.Negated[0].Text)
	assert.Equal(t, "ROJO", q.Negated[1].Text)
}

func TestParseQueryOnlyNegation(t *testing.T) {
	q, err := ParseQuery("#FAN", nil)
	require.NoError(t, err)
	assert.Empty(t, q.Positive)
	assert.Empty(t, q.Segments)
	require.Len(t, q.Negated, 1)
	assert.False(t, q.Empty())
}

func TestParseQueryQuotedPhraseKeepsOperators(t *testing.T) {
	q, err := ParseQuery(`"a + b"`, nil)
	require.NoError(t, err)
	assert.False(t, q.TopLevelAnd)
	require.Len(t, q.Segments, 1)
	require.Len(t, q.Segments[0].Terms, 1)
	assert.Equal(t, KindPhrase, q.Segments[0].Terms[0].Kind)
	assert.Equal(t, "A B", q.Segments[0].Terms[0].Text)

	q, err = ParseQuery(`"x | y" | z`, nil)
	require.NoError(t, err)
	assert.Equal(t, OpOr, q.Operator)
	require.Len(t, q.Segments, 2)
	assert.Equal(t, "X Y", q.Segments[0].Terms[0].Text)
}

func TestParseQueryClassification(t *testing.T) {
	units := BuildSynonymMap(dictionaryFixture())
	tests := []struct {
		input string
		kind  Kind
		value float64
		low   float64
		high  float64
		unit  string
		text  string
	}{
		{input: ">100V", kind: KindGt, value: 100, unit: "V"},
		{input: "< 2,5 amperios", kind: KindLt, value: 2.5, unit: "A"},
		{input: ">=1.000", kind: KindGe, value: 1000},
		{input: "<=09,5kg", kind: KindLe, value: 9.5, unit: "KG"},
		{input: "=12 volt", kind: KindEq, value: 12, unit: "V"},
		{input: "20-10V", kind: KindRange, low: 10, high: 20, unit: "V"},
		{input: "1,5 - 3", kind: KindRange, low: 1.5, high: 3},
		{input: `">100V"`, kind: KindPhrase, text: "100V"},
		{input: "24V", kind: KindString, text: "24V"},
		{input: ">100 volts and more", kind: KindString, text: "100 VOLTS AND MORE"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			q, err := ParseQuery(tc.input, units)
			require.NoError(t, err)
			require.Len(t, q.Segments, 1)
			require.Len(t, q.Segments[0].Terms, 1)
			term := q.Segments[0].Terms[0]
			assert.Equal(t, tc.kind, term.Kind)
			assert.Equal(t, tc.unit, term.Unit)
			assert.Equal(t, tc.text, term.Text)
			assert.InDelta(t, tc.value, term.Value, 1e-9)
			assert.InDelta(t, tc.low, term.Low, 1e-9)
			assert.InDelta(t, tc.high, term.High, 1e-9)
		})
	}
}

func TestParseQueryInvalid(t *testing.T) {
	for _, input := range []string{"!!!", " + ", "| |", "%%% | ***", "motor + !!!", "motor + !!! | ***"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseQuery(input, nil)
			assert.ErrorIs(t, err, ErrInvalidTerm)
		})
	}
}

func TestParseQueryOrSkipsEmptyBranch(t *testing.T) {
	q, err := ParseQuery("motor | !!!", nil)
	require.NoError(t, err)
	assert.Equal(t, OpOr, q.Operator)
	require.Len(t, q.Segments, 1)
	assert.Equal(t, []string{"MOTOR"}, termTexts(q.Segments[0]))
}

func TestSingleNumericTerm(t *testing.T) {
	q, err := ParseQuery(">100V", nil)
	require.NoError(t, err)
	term, ok := q.SingleNumericTerm()
	require.True(t, ok)
	assert.Equal(t, "V", term.Unit)

	q, err = ParseQuery(">100", nil)
	require.NoError(t, err)
	_, ok = q.SingleNumericTerm()
	assert.False(t, ok)
}

func TestSplitTopLevelAnd(t *testing.T) {
	assert.Equal(t, []string{"fan", "motor | bomba", `"a+b"`}, SplitTopLevelAnd(`fan + motor | bomba + "a+b"`))
}
