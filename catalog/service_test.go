package catalog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, dict, cat *Dataset) *Engine {
	t.Helper()
	e := NewEngine(zerolog.Nop())
	if dict != nil {
		require.NoError(t, e.LoadDictionary(dict))
	}
	if cat != nil {
		require.NoError(t, e.LoadCatalog(cat))
	}
	return e
}

func TestSearchViaDictionary(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())

	out := e.Search("FAN", true)
	require.NoError(t, out.Err)
	assert.Equal(t, StatusSuccessDictionary, out.Status)
	assert.Equal(t, []int{0, 1}, out.Rows)
	assert.Equal(t, []int{0}, out.DictionaryRows)
	assert.Equal(t, []int{0}, out.Highlight)
	assert.Equal(t, []string{"FAN", "VENTILADOR", "BLOWER"}, out.Synonyms)
	assert.False(t, out.UnitRescue)
}

func TestSearchHighlightOnlyCanonicalMatches(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())

	out := e.Search("blower", true)
	assert.Equal(t, StatusSuccessDictionary, out.Status)
	assert.Equal(t, []int{0}, out.DictionaryRows)
	assert.Empty(t, out.Highlight)
	assert.Equal(t, []int{0, 1}, out.Rows)
}

func TestSearchEmptyQueryReturnsEverything(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	for _, query := range []string{"", "   "} {
		for _, via := range []bool{true, false} {
			out := e.Search(query, via)
			assert.Equal(t, StatusEmptyQuery, out.Status)
			assert.Equal(t, []int{0, 1, 2, 3, 4}, out.Rows)
		}
	}
}

func TestSearchEmptyQueryWithoutDictionary(t *testing.T) {
	e := newTestEngine(t, nil, catalogFixture())
	out := e.Search("", true)
	assert.Equal(t, StatusEmptyQuery, out.Status)
	assert.Len(t, out.Rows, 5)
}

func TestSearchNoDictionaryMatch(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	out := e.Search("bomba", true)
	assert.Equal(t, StatusNoDictionaryMatch, out.Status)
	assert.Empty(t, out.Rows)

	direct := e.Search("bomba", false)
	assert.Equal(t, StatusSuccessDirect, direct.Status)
	assert.Empty(t, direct.Rows)
}

func TestSearchPureNegation(t *testing.T) {
	onlyFan := textDataset("d", nil, []string{"FAN", "", "", "VENTILADOR"})
	e := newTestEngine(t, onlyFan, catalogFixture())
	out := e.Search("#FAN", true)
	assert.Equal(t, StatusNoDictionaryMatch, out.Status)

	e = newTestEngine(t, dictionaryFixture(), catalogFixture())
	out = e.Search("#FAN", true)
	assert.Equal(t, StatusSuccessDictionary, out.Status)
	assert.Equal(t, []int{1, 2, 3}, out.DictionaryRows)
	assert.Empty(t, out.Highlight)
	assert.Equal(t, []int{1, 2, 3}, out.Rows)
}

func TestSearchEmptyAfterSynonymExtraction(t *testing.T) {
	dict := textDataset("d", nil,
		[]string{"FAN", "", "", "VENTILADOR"},
		[]string{"***", "", "", "!!!"},
	)
	e := newTestEngine(t, dict, catalogFixture())
	out := e.Search("#fan", true)
	assert.Equal(t, StatusEmptySynonyms, out.Status)
	assert.Equal(t, []int{1}, out.DictionaryRows)
	assert.Empty(t, out.Rows)
}

func TestSearchNegationFiltersCatalog(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	out := e.Search("fan #blower", true)
	assert.Equal(t, StatusSuccessDictionary, out.Status)
	assert.Equal(t, []int{0}, out.Rows)

	out = e.Search(`motor #"motor electrico"`, false)
	assert.Equal(t, StatusSuccessDirect, out.Status)
	assert.Equal(t, []int{3}, out.Rows)
}

func TestSearchDirect(t *testing.T) {
	e := newTestEngine(t, nil, catalogFixture())

	out := e.Search("motor + 12V", false)
	assert.Equal(t, StatusSuccessDirect, out.Status)
	assert.Equal(t, []int{3}, out.Rows)

	out = e.Search("ventilador | blower", false)
	assert.Equal(t, []int{0, 1}, out.Rows)

	out = e.Search("#motor", false)
	assert.Equal(t, []int{0, 1, 4}, out.Rows)
}

func TestSearchDirectNumericUsesDictionaryUnits(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	out := e.Search(">100V", false)
	assert.Equal(t, StatusSuccessDirect, out.Status)
	assert.Equal(t, []int{1, 2}, out.Rows)

	out = e.Search("=100", false)
	assert.Empty(t, out.Rows)
}

func TestSearchAllOfNarrowsPerPart(t *testing.T) {
	cat := textDataset("c", []string{"description"},
		[]string{"Ventilador con motor"},
		[]string{"Ventilador de techo"},
		[]string{"Motor eléctrico"},
		[]string{"Blower motor 24V"},
	)
	e := newTestEngine(t, dictionaryFixture(), cat)

	out := e.Search("fan + motor", true)
	require.NoError(t, out.Err)
	assert.Equal(t, StatusSuccessDictionary, out.Status)
	assert.Equal(t, []int{0, 3}, out.Rows)
	assert.Equal(t, []int{0, 3}, out.DictionaryRows)
	assert.Equal(t, []int{0, 3}, out.Highlight)
	assert.Equal(t, []string{"FAN", "VENTILADOR", "BLOWER", "MOTOR", "MOTOR ELECTRICO"}, out.Synonyms)

	out = e.Search("fan + motor #blower", true)
	assert.Equal(t, []int{0}, out.Rows)

	out = e.Search("fan + bomba", true)
	assert.Equal(t, StatusNoDictionaryMatch, out.Status)
	assert.Empty(t, out.Rows)
}

func TestSearchAllOfEmptyIntersection(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	out := e.Search("fan + motor", true)
	assert.Equal(t, StatusNoDictionaryMatch, out.Status)
	assert.Equal(t, []int{0, 3}, out.DictionaryRows)
	assert.Empty(t, out.Rows)
}

func TestSearchUnitRescue(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())

	out := e.Search(">100 voltios", true)
	require.NoError(t, out.Err)
	assert.Equal(t, StatusSuccessDictionary, out.Status)
	assert.True(t, out.UnitRescue)
	assert.Equal(t, []int{1}, out.DictionaryRows)
	assert.Equal(t, []int{1, 2}, out.Rows)

	out = e.Search("10-30V", true)
	assert.True(t, out.UnitRescue)
	assert.Equal(t, []int{0, 3}, out.Rows)

	out = e.Search(">100kg", true)
	assert.Equal(t, StatusNoDictionaryMatch, out.Status)
	assert.False(t, out.UnitRescue)

	out = e.Search(">100", true)
	assert.Equal(t, StatusNoDictionaryMatch, out.Status)
}

func TestSearchErrors(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	out := e.Search("fan", true)
	assert.Equal(t, StatusErrorNoCatalog, out.Status)
	assert.ErrorIs(t, out.Err, ErrNoDataset)

	require.NoError(t, e.LoadCatalog(catalogFixture()))
	out = e.Search("fan", true)
	assert.Equal(t, StatusErrorNoDictionary, out.Status)
	assert.Equal(t, StatusSuccessDirect, e.Search("fan", false).Status)

	require.NoError(t, e.LoadDictionary(dictionaryFixture()))
	out = e.Search("!!!", true)
	assert.Equal(t, StatusInvalidTerm, out.Status)
	assert.ErrorIs(t, out.Err, ErrInvalidTerm)

	e.SetColumns([]int{7})
	out = e.Search("fan", true)
	assert.Equal(t, StatusErrorColumns, out.Status)
	assert.ErrorIs(t, out.Err, ErrColumnOutOfRange)
	assert.False(t, out.Status.Success())
}

func TestSearchInvalidAndPartRejectsQuery(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	for _, viaDictionary := range []bool{true, false} {
		out := e.Search("motor + !!!", viaDictionary)
		assert.Equal(t, StatusInvalidTerm, out.Status, "viaDictionary=%v", viaDictionary)
		assert.ErrorIs(t, out.Err, ErrInvalidTerm)
		assert.Empty(t, out.Rows)
	}
}

func TestSearchRespectsColumns(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	e.SetColumns([]int{0})
	assert.Equal(t, []int{1}, e.Search("F-002", false).Rows)
	assert.Empty(t, e.Search("motor", false).Rows)

	e.SetColumns([]int{AllColumns})
	assert.Equal(t, []int{2, 3}, e.Search("motor", false).Rows)
}

func TestSearchIsIdempotent(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	for _, query := range []string{"FAN", "fan + motor", ">100V", "#FAN", "motor | blower"} {
		first := e.Search(query, true)
		second := e.Search(query, true)
		assert.Equal(t, first, second, query)
	}
}

func TestLoadReplacesState(t *testing.T) {
	cat := catalogFixture()
	e := newTestEngine(t, dictionaryFixture(), cat)
	cat.Rows[0][1] = TextCell("changed by caller")
	assert.Equal(t, []int{0, 1}, e.Search("fan", true).Rows)

	require.NoError(t, e.LoadCatalog(textDataset("other", []string{"d"}, []string{"Blower"})))
	assert.Equal(t, []int{0}, e.Search("fan", true).Rows)

	require.NoError(t, e.LoadDictionary(textDataset("d", nil, []string{"PUMP", "", "", "BOMBA"})))
	assert.Equal(t, 2, e.SynonymCount())
	_, ok := e.ResolveUnit("volt")
	assert.False(t, ok)
	assert.Equal(t, StatusNoDictionaryMatch, e.Search("fan", true).Status)
}

func TestOutcomeKeepsSearchedDatasets(t *testing.T) {
	e := newTestEngine(t, dictionaryFixture(), catalogFixture())
	out := e.Search("fan", true)
	require.Equal(t, StatusSuccessDictionary, out.Status)
	dict, cat := out.Dictionary, out.Catalog
	require.NotNil(t, dict)
	require.NotNil(t, cat)

	require.NoError(t, e.LoadDictionary(textDataset("d", nil, []string{"PUMP", "", "", "BOMBA"})))
	require.NoError(t, e.LoadCatalog(textDataset("other", []string{"d"}, []string{"Bomba"})))
	assert.Same(t, dict, out.Dictionary)
	assert.Equal(t, "FAN", out.Dictionary.Cell(out.Highlight[0], 0).String())
	assert.Equal(t, "F-002", out.Catalog.Cell(out.Rows[1], 0).String())
	assert.NotSame(t, dict, e.Dictionary())

	assert.Nil(t, NewEngine(zerolog.Nop()).Search("fan", false).Catalog)
}

func TestLoadRejectsInvalidDatasets(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	err := e.LoadCatalog(nil)
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, ErrNoDataset)

	err = e.LoadDictionary(&Dataset{Name: "empty.csv"})
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.Contains(t, err.Error(), "empty.csv")
	assert.Nil(t, e.Dictionary())
	assert.Nil(t, e.Catalog())
}

func TestSearchLogsStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf})
	e := NewEngine(logger)
	require.NoError(t, e.LoadDictionary(dictionaryFixture()))
	require.NoError(t, e.LoadCatalog(catalogFixture()))
	e.Search("FAN", true)

	assert.Contains(t, buf.String(), `"message":"dictionary loaded"`)
	assert.Contains(t, buf.String(), `"message":"dictionary search"`)
	assert.Contains(t, buf.String(), `"query":"FAN"`)
}

func TestStatusSuccess(t *testing.T) {
	assert.True(t, StatusSuccessDirect.Success())
	assert.True(t, StatusEmptyQuery.Success())
	assert.False(t, StatusNoDictionaryMatch.Success())
	assert.False(t, StatusErrorInternal.Success())
}
