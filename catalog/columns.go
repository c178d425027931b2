package catalog

import (
	"fmt"
	"strings"
	"sync"
)

// AllColumns is the sentinel selecting every text-like column.
const AllColumns = -1

// ColumnCandidates defines header names used to suggest preview columns.
type ColumnCandidates struct {
	Code        []string `json:"code"`
	Description []string `json:"description"`
}

var (
	columnCandidatesMu  sync.RWMutex
	activeColumnOptions = defaultColumnCandidates()
)

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Code:        []string{"code", "codigo", "sku", "id", "ref", "referencia", "item"},
		Description: []string{"description", "descripcion", "desc", "detalle", "name", "nombre", "text"},
	}
}

// DefaultColumnCandidates returns the built-in preview column candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates().clone()
}

// SetColumnCandidates replaces the candidates. Nil fields fall back to the defaults.
func SetColumnCandidates(candidates ColumnCandidates) {
	columnCandidatesMu.Lock()
	defer columnCandidatesMu.Unlock()
	activeColumnOptions = candidates.withDefaults()
}

func getColumnCandidates() ColumnCandidates {
	columnCandidatesMu.RLock()
	defer columnCandidatesMu.RUnlock()
	return activeColumnOptions.clone()
}

func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := defaultColumnCandidates()
	return ColumnCandidates{
		Code:        pickStrings(c.Code, defaults.Code),
		Description: pickStrings(c.Description, defaults.Description),
	}
}

func (c ColumnCandidates) clone() ColumnCandidates {
	return ColumnCandidates{
		Code:        cloneStrings(c.Code),
		Description: cloneStrings(c.Description),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

// SuggestPreviewColumns picks a code and a description column by header name,
// falling back to the first two text-like columns.
func SuggestPreviewColumns(ds *Dataset) []int {
	candidates := getColumnCandidates()
	var out []int
	if idx := findColumn(ds.Columns, candidates.Code); idx >= 0 {
		out = append(out, idx)
	}
	if idx := findColumn(ds.Columns, candidates.Description); idx >= 0 && !containsInt(out, idx) {
		out = append(out, idx)
	}
	if len(out) > 0 {
		return out
	}
	text := TextColumns(ds)
	if len(text) > 2 {
		text = text[:2]
	}
	return text
}

func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		name := strings.TrimSpace(col)
		for _, cand := range candidates {
			if strings.EqualFold(name, cand) || NormalizeText(name) == NormalizeText(cand) {
				return i
			}
		}
	}
	return -1
}

// TextColumns lists the columns holding at least one text cell.
func TextColumns(ds *Dataset) []int {
	width := ds.Width()
	hasText := make([]bool, width)
	for _, row := range ds.Rows {
		for c, cell := range row {
			if cell.Kind == CellText && cell.Text != "" {
				hasText[c] = true
			}
		}
	}
	out := make([]int, 0, width)
	for c, ok := range hasText {
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// ResolveColumns validates a requested column selection against ds. An empty
// request or one containing AllColumns selects every text-like column.
func ResolveColumns(ds *Dataset, requested []int) ([]int, error) {
	if ds == nil {
		return nil, ErrNoDataset
	}
	if len(requested) == 0 || containsInt(requested, AllColumns) {
		cols := TextColumns(ds)
		if len(cols) == 0 {
			return nil, ErrNoUsableColumns
		}
		return cols, nil
	}
	width := ds.Width()
	out := make([]int, 0, len(requested))
	for _, col := range requested {
		if col < 0 || col >= width {
			return nil, fmt.Errorf("%w: %d (dataset has %d columns)", ErrColumnOutOfRange, col, width)
		}
		if !containsInt(out, col) {
			out = append(out, col)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoUsableColumns
	}
	return out, nil
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
