package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tb, err := New("sample",
		NumericColumn("age", 30, math.NaN(), 60),
		CategoricalColumn("city", "A", "B", ""),
	)
	require.NoError(t, err)
	return tb
}

func TestNewAssignsIDsAndSources(t *testing.T) {
	tb := sample(t)
	assert.Equal(t, []int{0, 1, 2}, tb.RowIDs)
	assert.Equal(t, 0, tb.Columns[0].Source)
	assert.Equal(t, 1, tb.Columns[1].Source)
	assert.Equal(t, []Kind{Numeric, Categorical}, tb.Kinds())
}

func TestNewRejectsBadShapes(t *testing.T) {
	_, err := New("x")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = New("x", NumericColumn("a", 1, 2), NumericColumn("b", 1))
	assert.ErrorIs(t, err, ErrRagged)

	_, err = New("x", NumericColumn("a", 1), NumericColumn("a", 2))
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestMissingPatterns(t *testing.T) {
	tb := sample(t)
	assert.Equal(t, []string{"00", "10", "01"}, tb.MissingPatterns())
	groups := tb.PatternGroups()
	assert.Equal(t, []int{0}, groups["00"])
	assert.Len(t, groups, 3)
}

func TestSliceKeepsIdentity(t *testing.T) {
	tb := sample(t)
	sub, err := tb.Slice([]int{2, 0}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, sub.RowIDs)
	assert.Equal(t, []string{"city"}, sub.ColumnNames())
	assert.Equal(t, 1, sub.Columns[0].Source)
	assert.Equal(t, [][]any{{nil}, {"A"}}, sub.Values())

	_, err = tb.Slice([]int{5}, []int{0})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestValuesRowMajor(t *testing.T) {
	tb := sample(t)
	assert.Equal(t, [][]any{{30.0, "A"}, {nil, "B"}, {60.0, nil}}, tb.Values())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Numerical")
	require.NoError(t, err)
	assert.Equal(t, Numeric, k)
	_, err = ParseKind("blob")
	assert.Error(t, err)
}

func TestFingerprintTracksContentAndKinds(t *testing.T) {
	base := sample(t).Fingerprint()
	assert.Equal(t, base, sample(t).Fingerprint())

	edited := sample(t)
	edited.Columns[0].Cells[0].Num = 31
	assert.NotEqual(t, base, edited.Fingerprint())

	blanked := sample(t)
	blanked.Columns[1].Cells[0] = Cell{Missing: true}
	assert.NotEqual(t, base, blanked.Fingerprint())

	recast, err := New("sample",
		CategoricalColumn("age", "30", "", "60"),
		CategoricalColumn("city", "A", "B", ""),
	)
	require.NoError(t, err)
	assert.NotEqual(t, base, recast.Fingerprint())
}
