package app

import (
	"fmt"
	"strconv"
	"strings"

	"yashubustudio/catalog-search/catalog"
)

type tableColumn struct {
	Title string
	Width float32
	Index int
}

// resultColumns lists the catalog columns shown in the result table.
func resultColumns(ds *catalog.Dataset, cfg catalog.Config) []tableColumn {
	if ds == nil {
		return nil
	}
	var idx []int
	if cfg.PreviewAll() {
		for c := 0; c < ds.Width(); c++ {
			idx = append(idx, c)
		}
	} else if cols, err := catalog.ResolveColumns(ds, cfg.PreviewColumns); err == nil {
		idx = cols
	} else {
		idx = catalog.SuggestPreviewColumns(ds)
	}
	text := catalog.TextColumns(ds)
	cols := make([]tableColumn, 0, len(idx))
	for _, c := range idx {
		width := float32(110)
		if containsInt(text, c) {
			width = 240
		}
		cols = append(cols, tableColumn{Title: ds.ColumnName(c), Width: width, Index: c})
	}
	return cols
}

// dictionaryTableColumns lists the canonical column followed by the synonym columns.
func dictionaryTableColumns(ds *catalog.Dataset) []tableColumn {
	if ds == nil {
		return nil
	}
	cols := []tableColumn{{Title: ds.ColumnName(0), Width: 160, Index: 0}}
	for c := 3; c < ds.Width(); c++ {
		cols = append(cols, tableColumn{Title: ds.ColumnName(c), Width: 140, Index: c})
	}
	return cols
}

// resultCell renders a result table cell from the catalog the outcome was computed on.
func resultCell(out catalog.Outcome, row int, col tableColumn) string {
	if row < 0 || row >= len(out.Rows) {
		return ""
	}
	return out.Catalog.Cell(out.Rows[row], col.Index).String()
}

// dictionaryCell renders a dictionary table cell and reports whether its row
// is a canonical match.
func dictionaryCell(out catalog.Outcome, row int, col tableColumn) (string, bool) {
	if row < 0 || row >= len(out.DictionaryRows) {
		return "", false
	}
	dictRow := out.DictionaryRows[row]
	return out.Dictionary.Cell(dictRow, col.Index).String(), containsInt(out.Highlight, dictRow)
}

func statusMessage(out catalog.Outcome) string {
	switch out.Status {
	case catalog.StatusEmptyQuery:
		return fmt.Sprintf("全件表示 %d件", len(out.Rows))
	case catalog.StatusSuccessDictionary:
		if out.UnitRescue {
			return fmt.Sprintf("単位辞書経由 %d件 (辞書%d行)", len(out.Rows), len(out.DictionaryRows))
		}
		return fmt.Sprintf("辞書経由 %d件 (辞書%d行)", len(out.Rows), len(out.DictionaryRows))
	case catalog.StatusSuccessDirect:
		return fmt.Sprintf("直接検索 %d件", len(out.Rows))
	case catalog.StatusNoDictionaryMatch:
		return "辞書に一致する行がありません"
	case catalog.StatusEmptySynonyms:
		return "辞書行から同義語を取得できませんでした"
	case catalog.StatusInvalidTerm:
		return "検索語が無効です"
	case catalog.StatusErrorNoCatalog:
		return "カタログが読み込まれていません"
	case catalog.StatusErrorNoDictionary:
		return "辞書が読み込まれていません"
	case catalog.StatusErrorColumns:
		return "検索列の設定が不正です"
	default:
		return fmt.Sprintf("エラー (%s)", out.Status)
	}
}

// parseColumnList reads a comma separated list of column indices. Blank input
// and "all" select every text column.
func parseColumnList(text string) ([]int, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "all") {
		return []int{catalog.AllColumns}, nil
	}
	var out []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("列番号 %q は数値ではありません", part)
		}
		if v < catalog.AllColumns {
			return nil, fmt.Errorf("列番号 %d は範囲外です", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return []int{catalog.AllColumns}, nil
	}
	return out, nil
}

func formatColumnList(cols []int) string {
	if len(cols) == 0 || containsInt(cols, catalog.AllColumns) {
		return "all"
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ", ")
}

func datasetSummary(label string, ds *catalog.Dataset) string {
	if ds == nil {
		return label + ": 未読込"
	}
	return fmt.Sprintf("%s: %s (%d行)", label, ds.Name, ds.Len())
}

func truncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
