package domain_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majindogo/field-data-etl/internal/domain"
)

func newFieldDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	ds := domain.NewDataset([]string{"Field_ID", "Crop_type", "Elevation"})
	for _, row := range [][]any{
		{int64(1), "Corn", float64(-5)},
		{int64(2), "XYZ", float64(10)},
		{int64(3), "Corn", float64(-3)},
	} {
		require.NoError(t, ds.AppendRow(row))
	}
	return ds
}

func TestSwapColumnsMovesNamesNotData(t *testing.T) {
	ds := newFieldDataset(t)

	require.NoError(t, ds.SwapColumns("Crop_type", "Elevation"))

	assert.Equal(t, []string{"Field_ID", "Elevation", "Crop_type"}, ds.Columns())

	// Data formerly under Crop_type is now addressed as Elevation.
	v, err := ds.Cell(0, "Elevation")
	require.NoError(t, err)
	assert.Equal(t, "Corn", v)

	v, err = ds.Cell(0, "Crop_type")
	require.NoError(t, err)
	assert.Equal(t, float64(-5), v)
}

func TestSwapColumnsIsInvolution(t *testing.T) {
	ds := newFieldDataset(t)
	original := ds.Clone()

	require.NoError(t, ds.SwapColumns("Crop_type", "Elevation"))
	require.NoError(t, ds.SwapColumns("Crop_type", "Elevation"))

	assert.Equal(t, original.Columns(), ds.Columns())
	for r := 0; r < ds.NumRows(); r++ {
		for _, col := range ds.Columns() {
			want, err := original.Cell(r, col)
			require.NoError(t, err)
			got, err := ds.Cell(r, col)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestSwapColumnsAvoidsSentinelCollision(t *testing.T) {
	ds := domain.NewDataset([]string{"A", "B", "__swap_temp__"})
	require.NoError(t, ds.AppendRow([]any{int64(1), int64(2), int64(3)}))

	require.NoError(t, ds.SwapColumns("A", "B"))

	assert.Equal(t, []string{"B", "A", "__swap_temp__"}, ds.Columns())
	v, err := ds.Cell(0, "__swap_temp__")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestSwapColumnsMissingColumn(t *testing.T) {
	ds := newFieldDataset(t)

	err := ds.SwapColumns("Crop_type", "Altitude")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrColumnNotFound)
}

func TestRenameColumnRejectsExistingTarget(t *testing.T) {
	ds := newFieldDataset(t)

	err := ds.RenameColumn("Crop_type", "Elevation")
	require.Error(t, err)
}

func TestApplyTransformsEveryRow(t *testing.T) {
	ds := newFieldDataset(t)

	require.NoError(t, ds.Apply("Elevation", func(v any) any {
		return v.(float64) * 2
	}))

	col, err := ds.Column("Elevation")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(-10), float64(20), float64(-6)}, col)
}

func TestLeftJoinPreservesRowCount(t *testing.T) {
	ds := newFieldDataset(t)

	ref := domain.NewDataset([]string{"Field_ID", "Weather_station"})
	require.NoError(t, ref.AppendRow([]any{int64(1), "Station-A"}))
	require.NoError(t, ref.AppendRow([]any{int64(2), "Station-B"}))

	joined, err := ds.LeftJoin(ref, "Field_ID")
	require.NoError(t, err)

	assert.Equal(t, ds.NumRows(), joined.NumRows())
	assert.Equal(t, []string{"Field_ID", "Crop_type", "Elevation", "Weather_station"}, joined.Columns())

	stations, err := joined.Column("Weather_station")
	require.NoError(t, err)
	if diff := cmp.Diff([]any{"Station-A", "Station-B", nil}, stations); diff != "" {
		t.Errorf("joined stations mismatch (-want +got):\n%s", diff)
	}
}

func TestLeftJoinMatchesAcrossNumericTypes(t *testing.T) {
	// SQL drivers return int64 keys; CSV parses may yield float64.
	ds := domain.NewDataset([]string{"Field_ID", "Crop_type"})
	require.NoError(t, ds.AppendRow([]any{int64(7), "Tea"}))

	ref := domain.NewDataset([]string{"Field_ID", "Weather_station"})
	require.NoError(t, ref.AppendRow([]any{float64(7), "Station-G"}))

	joined, err := ds.LeftJoin(ref, "Field_ID")
	require.NoError(t, err)

	v, err := joined.Cell(0, "Weather_station")
	require.NoError(t, err)
	assert.Equal(t, "Station-G", v)
}

func TestLeftJoinReplacesSharedColumns(t *testing.T) {
	ds := domain.NewDataset([]string{"Field_ID", "Weather_station"})
	require.NoError(t, ds.AppendRow([]any{int64(1), "WS1"}))
	require.NoError(t, ds.AppendRow([]any{int64(3), "WS3"}))

	ref := domain.NewDataset([]string{"Field_ID", "Weather_station"})
	require.NoError(t, ref.AppendRow([]any{int64(1), "Station-A"}))

	joined, err := ds.LeftJoin(ref, "Field_ID")
	require.NoError(t, err)

	// The reference value wins on a match; unmatched rows lose the stale copy.
	assert.Equal(t, []string{"Field_ID", "Weather_station"}, joined.Columns())
	stations, err := joined.Column("Weather_station")
	require.NoError(t, err)
	assert.Equal(t, []any{"Station-A", nil}, stations)
}

func TestLeftJoinDuplicatesOnMultipleMatches(t *testing.T) {
	ds := domain.NewDataset([]string{"Field_ID", "Crop_type"})
	require.NoError(t, ds.AppendRow([]any{int64(1), "Corn"}))

	ref := domain.NewDataset([]string{"Field_ID", "Weather_station"})
	require.NoError(t, ref.AppendRow([]any{int64(1), "Station-A"}))
	require.NoError(t, ref.AppendRow([]any{int64(1), "Station-B"}))

	joined, err := ds.LeftJoin(ref, "Field_ID")
	require.NoError(t, err)
	assert.Equal(t, 2, joined.NumRows())
}

func TestLeftJoinMissingKey(t *testing.T) {
	ds := newFieldDataset(t)
	ref := domain.NewDataset([]string{"Station_ID", "Weather_station"})

	_, err := ds.LeftJoin(ref, "Field_ID")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrColumnNotFound)
}

func TestAppendRowArityMismatch(t *testing.T) {
	ds := domain.NewDataset([]string{"A", "B"})
	require.Error(t, ds.AppendRow([]any{int64(1)}))
}
