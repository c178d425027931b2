package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedDataset() *Dataset {
	return &Dataset{
		Columns: []string{"Código", "price", "Descripción", "notes"},
		Rows: [][]Cell{
			{TextCell("F-001"), NumberCell(10), TextCell("Ventilador"), {}},
			{TextCell("F-002"), NumberCell(12), TextCell("Blower")},
		},
	}
}

func TestTextColumns(t *testing.T) {
	assert.Equal(t, []int{0, 2}, TextColumns(mixedDataset()))
	assert.Empty(t, TextColumns(&Dataset{}))
}

func TestResolveColumns(t *testing.T) {
	ds := mixedDataset()

	cols, err := ResolveColumns(ds, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, cols)

	cols, err = ResolveColumns(ds, []int{2, AllColumns})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, cols)

	cols, err = ResolveColumns(ds, []int{1, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, cols)

	_, err = ResolveColumns(ds, []int{4})
	assert.ErrorIs(t, err, ErrColumnOutOfRange)

	_, err = ResolveColumns(ds, []int{-2})
	assert.ErrorIs(t, err, ErrColumnOutOfRange)

	_, err = ResolveColumns(nil, nil)
	assert.ErrorIs(t, err, ErrNoDataset)

	numeric := &Dataset{Columns: []string{"n"}, Rows: [][]Cell{{NumberCell(1)}}}
	_, err = ResolveColumns(numeric, nil)
	assert.ErrorIs(t, err, ErrNoUsableColumns)
}

func TestSuggestPreviewColumns(t *testing.T) {
	assert.Equal(t, []int{0, 2}, SuggestPreviewColumns(mixedDataset()))

	unnamed := textDataset("x", []string{"a", "b", "c"}, []string{"1", "2", "3"})
	assert.Equal(t, []int{0, 1}, SuggestPreviewColumns(unnamed))
}

func TestSetColumnCandidates(t *testing.T) {
	t.Cleanup(func() { SetColumnCandidates(DefaultColumnCandidates()) })

	SetColumnCandidates(ColumnCandidates{Description: []string{"notes"}})
	assert.Equal(t, []int{0, 3}, SuggestPreviewColumns(mixedDataset()))
}
