package distance

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/mixclust/internal/profile"
	"github.com/KaramelBytes/mixclust/internal/table"
)

func profiled(t *testing.T, cols ...*table.Column) (*table.Table, *profile.Profiled) {
	t.Helper()
	tb, err := table.New("t", cols...)
	require.NoError(t, err)
	p, err := profile.Profile(tb)
	require.NoError(t, err)
	return tb, p
}

func requireValid(t *testing.T, m *Matrix) {
	t.Helper()
	require.NoError(t, m.Validate())
	for i := 0; i < m.Len(); i++ {
		assert.Equal(t, 0.0, m.At(i, i))
		for j := 0; j < m.Len(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
			assert.GreaterOrEqual(t, m.At(i, j), 0.0)
		}
	}
}

func TestContribution(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 4.0, Contribution(1, 3, table.Numeric))
	assert.Equal(t, 0.0, Contribution(2, 2, table.Categorical))
	assert.Equal(t, 1.0, Contribution(2, 3, table.Categorical))
	assert.Equal(t, MissingPenalty, Contribution(nan, 3, table.Numeric))
	assert.Equal(t, MissingPenalty, Contribution(1, nan, table.Categorical))
	assert.Equal(t, 0.0, Contribution(nan, nan, table.Numeric))
	assert.Equal(t, 0.0, Contribution(nan, nan, table.Categorical))
}

func TestRowsMixedMetric(t *testing.T) {
	_, p := profiled(t,
		table.NumericColumn("age", 30, 30, 60, 60),
		table.CategoricalColumn("city", "A", "A", "B", "B"),
		table.CategoricalColumn("smoker", "Y", "N", "Y", "N"),
	)
	m, err := Rows(context.Background(), p, Options{Workers: 2})
	require.NoError(t, err)
	requireValid(t, m)

	// age z-scores are ±1: rows 0 and 2 differ by 2 in age and by city.
	assert.InDelta(t, math.Sqrt(4+1), m.At(0, 2), 1e-12)
	// rows 0 and 1 differ only by smoker.
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-12)
	assert.Less(t, m.At(0, 1), m.At(0, 2))
}

func TestRowsMissingPatternWeighting(t *testing.T) {
	nan := math.NaN()
	tb, p := profiled(t,
		table.NumericColumn("x", 1, 1, 1, 5),
		table.NumericColumn("y", nan, nan, 2, 3),
	)
	m, err := Rows(context.Background(), p, Options{Patterns: tb.MissingPatterns()})
	require.NoError(t, err)
	requireValid(t, m)

	// identical pattern and values: 0 regardless of weighting
	assert.Equal(t, 0.0, m.At(0, 1))
	// differing pattern, equal x: only the missing-vs-present column contributes
	assert.InDelta(t, 1.0*OtherPatternFactor, m.At(0, 2), 1e-12)
	assert.Equal(t, 0.0, m.At(1, 0))

	plain, err := Rows(context.Background(), p, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, plain.At(0, 2), 1e-12)
}

func TestRowsPatternLengthMismatch(t *testing.T) {
	_, p := profiled(t, table.NumericColumn("x", 1, 2))
	_, err := Rows(context.Background(), p, Options{Patterns: []string{"0"}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestColumnsTransposed(t *testing.T) {
	_, p := profiled(t,
		table.NumericColumn("a", 1, 2, 3),
		table.NumericColumn("b", 1, 2, 3),
		table.NumericColumn("c", 3, 2, 1),
		table.CategoricalColumn("k", "x", "y", "x"),
	)
	m, err := Columns(context.Background(), p, Options{Patterns: []string{"ignored"}})
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())
	requireValid(t, m)

	assert.Equal(t, 0.0, m.At(0, 1))
	assert.Greater(t, m.At(0, 2), 0.0)
}

func TestWorkerCountDoesNotChangeResult(t *testing.T) {
	vals := make([]float64, 40)
	cats := make([]string, 40)
	for i := range vals {
		vals[i] = math.Sin(float64(i))
		cats[i] = string(rune('a' + i%3))
	}
	_, p := profiled(t, table.NumericColumn("v", vals...), table.CategoricalColumn("c", cats...))
	one, err := Rows(context.Background(), p, Options{Workers: 1})
	require.NoError(t, err)
	many, err := Rows(context.Background(), p, Options{Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, one.Rows(), many.Rows())
}

func TestRowsHonoursCancellation(t *testing.T) {
	_, p := profiled(t, table.NumericColumn("x", 1, 2, 3))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Rows(ctx, p, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatrixValidate(t *testing.T) {
	m, err := FromRows([][]float64{{0, 1}, {2, 0}})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Validate(), ErrAsymmetry)
	m.Symmetrize()
	require.NoError(t, m.Validate())
	assert.Equal(t, 1.5, m.At(0, 1))

	m.Set(0, 0, 1)
	assert.ErrorIs(t, m.Validate(), ErrNonZeroDiagonal)

	_, err = FromRows([][]float64{{0, 1}})
	assert.ErrorIs(t, err, ErrShape)
}
