package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Status tags the result of a search.
type Status string

const (
	StatusEmptyQuery        Status = "empty-query"
	StatusSuccessDictionary Status = "success-via-dictionary"
	StatusSuccessDirect     Status = "success-direct"
	StatusNoDictionaryMatch Status = "no-dictionary-match"
	StatusEmptySynonyms     Status = "empty-after-synonym-extraction"
	StatusInvalidTerm       Status = "invalid-term"
	StatusErrorNoCatalog    Status = "error-no-catalog"
	StatusErrorNoDictionary Status = "error-no-dictionary"
	StatusErrorColumns      Status = "error-columns"
	StatusErrorInternal     Status = "error-internal"
)

// Success reports whether the outcome carries a usable result set.
func (s Status) Success() bool {
	switch s {
	case StatusEmptyQuery, StatusSuccessDictionary, StatusSuccessDirect:
		return true
	}
	return false
}

// Outcome is the result of one Search call.
type Outcome struct {
	Status Status `json:"status"`
	// Rows are the matched catalog row indices in ascending order.
	Rows []int `json:"rows"`
	// DictionaryRows are the dictionary rows synonyms were taken from.
	DictionaryRows []int `json:"dictionaryRows,omitempty"`
	// Highlight lists dictionary rows whose canonical term matched the query itself.
	Highlight  []int    `json:"highlight,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
	UnitRescue bool     `json:"unitRescue,omitempty"`
	Err        error    `json:"-"`

	// Catalog and Dictionary are the datasets the indices above refer to.
	Catalog    *Dataset `json:"-"`
	Dictionary *Dataset `json:"-"`
}

type engineState struct {
	dict    *Table
	catalog *Table
	units   SynonymMap
	columns []int
}

// Engine owns the loaded datasets and answers searches. Loads swap the whole
// state at once; searches read a single snapshot.
type Engine struct {
	mu     sync.RWMutex
	state  *engineState
	logger zerolog.Logger
}

// NewEngine returns an engine with no datasets loaded.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		state:  &engineState{units: SynonymMap{}},
		logger: logger,
	}
}

func (e *Engine) snapshot() *engineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) replace(fn func(next *engineState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := *e.state
	fn(&next)
	e.state = &next
}

// LoadDictionary replaces the dictionary and rebuilds the synonym map.
func (e *Engine) LoadDictionary(ds *Dataset) error {
	if err := validateDataset(ds); err != nil {
		return &LoadError{Path: datasetName(ds), Err: err}
	}
	owned := ds.Clone()
	units := BuildSynonymMap(owned)
	tb := NewTable(owned)
	e.replace(func(next *engineState) {
		next.dict = tb
		next.units = units
	})
	e.logger.Info().Str("dataset", owned.Name).Int("rows", owned.Len()).Int("synonyms", len(units)).Msg("dictionary loaded")
	return nil
}

// LoadCatalog replaces the searchable catalog.
func (e *Engine) LoadCatalog(ds *Dataset) error {
	if err := validateDataset(ds); err != nil {
		return &LoadError{Path: datasetName(ds), Err: err}
	}
	owned := ds.Clone()
	tb := NewTable(owned)
	e.replace(func(next *engineState) {
		next.catalog = tb
	})
	e.logger.Info().Str("dataset", owned.Name).Int("rows", owned.Len()).Int("columns", owned.Width()).Msg("catalog loaded")
	return nil
}

// SetColumns restricts matching to the given catalog columns. Nil, empty or
// a list containing AllColumns selects every text-like column. Indices are
// validated on each search against the catalog loaded at that time.
func (e *Engine) SetColumns(cols []int) {
	owned := cloneInts(cols)
	e.replace(func(next *engineState) {
		next.columns = owned
	})
}

// Dictionary returns the loaded dictionary. Callers must not modify it.
func (e *Engine) Dictionary() *Dataset {
	if st := e.snapshot(); st.dict != nil {
		return st.dict.Data
	}
	return nil
}

// Catalog returns the loaded catalog. Callers must not modify it.
func (e *Engine) Catalog() *Dataset {
	if st := e.snapshot(); st.catalog != nil {
		return st.catalog.Data
	}
	return nil
}

// SynonymCount returns the number of keys in the synonym map.
func (e *Engine) SynonymCount() int {
	return len(e.snapshot().units)
}

// ResolveUnit maps a unit token to its canonical form using the loaded dictionary.
func (e *Engine) ResolveUnit(token string) (string, bool) {
	return e.snapshot().units.Resolve(token)
}

// Search resolves query against the catalog. With viaDictionary the query is
// first matched against the dictionary and the synonyms of the matching rows
// are searched in the catalog; otherwise the query is applied to the catalog
// directly.
func (e *Engine) Search(query string, viaDictionary bool) (out Outcome) {
	st := e.snapshot()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("query", query).Msg("search failed")
			out = Outcome{Status: StatusErrorInternal, Err: fmt.Errorf("%w: %v", ErrInternal, r)}
		}
		out.Catalog, out.Dictionary = tableData(st.catalog), tableData(st.dict)
	}()
	if st.catalog == nil {
		return Outcome{Status: StatusErrorNoCatalog, Err: fmt.Errorf("catalog: %w", ErrNoDataset)}
	}
	if strings.TrimSpace(query) == "" {
		return Outcome{Status: StatusEmptyQuery, Rows: NewMask(st.catalog.Len(), true).Indices()}
	}
	cols, err := ResolveColumns(st.catalog.Data, st.columns)
	if err != nil {
		return Outcome{Status: StatusErrorColumns, Err: err}
	}
	q, err := ParseQuery(query, st.units)
	if err != nil {
		e.logger.Debug().Err(err).Str("query", query).Msg("query rejected")
		return Outcome{Status: StatusInvalidTerm, Err: err}
	}
	if q.Empty() {
		return Outcome{Status: StatusEmptyQuery, Rows: NewMask(st.catalog.Len(), true).Indices()}
	}
	s := &search{
		st:      st,
		cols:    cols,
		matcher: NewMatcher(st.units, e.logger),
		logger:  e.logger.With().Str("query", query).Logger(),
	}
	if !viaDictionary {
		return s.direct(q)
	}
	if st.dict == nil {
		return Outcome{Status: StatusErrorNoDictionary, Err: fmt.Errorf("dictionary: %w", ErrNoDataset)}
	}
	if q.TopLevelAnd {
		return s.allOf(q)
	}
	return s.simple(q)
}

// search carries one Search call's snapshot and resolved columns.
type search struct {
	st      *engineState
	cols    []int
	matcher *Matcher
	logger  zerolog.Logger
}

func (s *search) direct(q *Query) Outcome {
	catalog := s.st.catalog
	mask := NewMask(catalog.Len(), true)
	if len(q.Segments) > 0 {
		mask = s.matcher.EvaluateSegments(catalog, s.cols, q.Segments, nil)
	}
	s.matcher.ExcludeNegated(catalog, s.cols, q.Negated, mask)
	s.logger.Debug().Int("rows", mask.Count()).Msg("direct search")
	return Outcome{Status: StatusSuccessDirect, Rows: mask.Indices()}
}

func (s *search) simple(q *Query) Outcome {
	dict := s.st.dict
	dictCols := dictionaryColumns(dict.Data)
	pureNegation := len(q.Segments) == 0

	var dictMask Mask
	if pureNegation {
		dictMask = s.matcher.ExcludeNegated(dict, dictCols, q.Negated, NewMask(dict.Len(), true))
	} else {
		dictMask = s.matcher.EvaluateSegments(dict, dictCols, q.Segments, nil)
	}
	if !dictMask.Any() {
		if cond, ok := q.SingleNumericTerm(); ok {
			return s.unitRescue(q, cond)
		}
		s.logger.Debug().Msg("no dictionary rows")
		return Outcome{Status: StatusNoDictionaryMatch}
	}

	out := Outcome{DictionaryRows: dictMask.Indices()}
	if !pureNegation {
		canonical := []int{canonicalColumn}
		out.Highlight = s.matcher.EvaluateSegments(dict, canonical, q.Segments, dictMask).Indices()
	}
	out.Synonyms = DictionarySynonyms(dict.Data, out.DictionaryRows)
	if len(out.Synonyms) == 0 {
		out.Status = StatusEmptySynonyms
		return out
	}

	catalog := s.st.catalog
	mask := s.matcher.MatchAnyText(catalog, s.cols, out.Synonyms, nil)
	if !pureNegation {
		s.matcher.ExcludeNegated(catalog, s.cols, q.Negated, mask)
	}
	s.logger.Debug().Int("dictionary_rows", len(out.DictionaryRows)).Int("synonyms", len(out.Synonyms)).Int("rows", mask.Count()).Msg("dictionary search")
	out.Status = StatusSuccessDictionary
	out.Rows = mask.Indices()
	return out
}

// allOf runs an independent dictionary lookup per "+" part, narrowing the
// catalog rows with each part's synonyms.
func (s *search) allOf(q *Query) Outcome {
	dict := s.st.dict
	catalog := s.st.catalog
	dictCols := dictionaryColumns(dict.Data)
	canonical := []int{canonicalColumn}

	acc := NewMask(catalog.Len(), true)
	dictRows := NewMask(dict.Len(), false)
	highlight := NewMask(dict.Len(), false)
	var synonyms []string
	for _, part := range SplitTopLevelAnd(q.Positive) {
		segments, _, err := decompose(part, false, s.st.units)
		if err != nil {
			return Outcome{Status: StatusInvalidTerm, Err: err}
		}
		partRows := s.matcher.EvaluateSegments(dict, dictCols, segments, nil)
		if !partRows.Any() {
			s.logger.Debug().Str("part", part).Msg("no dictionary rows for part")
			return Outcome{Status: StatusNoDictionaryMatch, DictionaryRows: dictRows.Indices()}
		}
		dictRows.Or(partRows)
		highlight.Or(s.matcher.EvaluateSegments(dict, canonical, segments, partRows))
		partSynonyms := DictionarySynonyms(dict.Data, partRows.Indices())
		if len(partSynonyms) == 0 {
			return Outcome{Status: StatusEmptySynonyms, DictionaryRows: dictRows.Indices()}
		}
		synonyms = append(synonyms, partSynonyms...)
		acc.And(s.matcher.MatchAnyText(catalog, s.cols, partSynonyms, acc))
		if !acc.Any() {
			s.logger.Debug().Str("part", part).Msg("catalog narrowed to nothing")
			return Outcome{Status: StatusNoDictionaryMatch, DictionaryRows: dictRows.Indices()}
		}
	}
	s.matcher.ExcludeNegated(catalog, s.cols, q.Negated, acc)
	return Outcome{
		Status:         StatusSuccessDictionary,
		Rows:           acc.Indices(),
		DictionaryRows: dictRows.Indices(),
		Highlight:      highlight.Indices(),
		Synonyms:       NormalizeAll(synonyms),
	}
}

// unitRescue handles a unit-bearing comparison that matched no dictionary
// row: dictionary rows naming the unit supply synonyms, and catalog cells
// must contain a synonym and satisfy the comparison at once.
func (s *search) unitRescue(q *Query, cond Term) Outcome {
	dict := s.st.dict
	unitTerm := Term{Original: cond.Unit, Kind: KindPhrase, Text: cond.Unit}
	dictMask := s.matcher.MatchTerm(dict, dictionaryColumns(dict.Data), unitTerm, nil)
	if !dictMask.Any() {
		s.logger.Debug().Str("unit", cond.Unit).Msg("unit not in dictionary")
		return Outcome{Status: StatusNoDictionaryMatch}
	}
	out := Outcome{DictionaryRows: dictMask.Indices(), UnitRescue: true}
	out.Synonyms = DictionarySynonyms(dict.Data, out.DictionaryRows)
	if len(out.Synonyms) == 0 {
		out.Status = StatusEmptySynonyms
		return out
	}
	catalog := s.st.catalog
	mask := s.matcher.MatchSynonymWithCondition(catalog, s.cols, out.Synonyms, cond, nil)
	s.matcher.ExcludeNegated(catalog, s.cols, q.Negated, mask)
	s.logger.Debug().Str("unit", cond.Unit).Int("rows", mask.Count()).Msg("unit rescue")
	out.Status = StatusSuccessDictionary
	out.Rows = mask.Indices()
	return out
}

func tableData(tb *Table) *Dataset {
	if tb == nil {
		return nil
	}
	return tb.Data
}

func validateDataset(ds *Dataset) error {
	if ds == nil {
		return ErrNoDataset
	}
	if ds.Width() == 0 {
		return ErrEmptyDataset
	}
	return nil
}

func datasetName(ds *Dataset) string {
	if ds == nil {
		return ""
	}
	return ds.Name
}
