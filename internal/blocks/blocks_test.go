package blocks

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/mixclust/internal/hcluster"
	"github.com/KaramelBytes/mixclust/internal/table"
)

func smokers(t *testing.T) *table.Table {
	t.Helper()
	return table.MustNew("smokers",
		table.NumericColumn("age", 30, 30, 60, 60),
		table.CategoricalColumn("city", "A", "A", "B", "B"),
		table.CategoricalColumn("smoker", "Y", "N", "Y", "N"),
	)
}

// cells flattens a block to (row id, column name) -> value.
func cells(b *Block) map[[2]any]any {
	out := map[[2]any]any{}
	for i, id := range b.Table.RowIDs {
		for _, c := range b.Table.Columns {
			out[[2]any{id, c.Name}] = c.Cells[i].Value(c.Kind)
		}
	}
	return out
}

func TestDecomposeSplitsByKind(t *testing.T) {
	tb := smokers(t)
	set, err := Decompose(tb, []int{1, 1, 2, 2}, []int{1, 1, 1}, nil)
	require.NoError(t, err)
	require.Equal(t, 4, set.Len())

	want := []Key{
		{RowCluster: 1, ColCluster: 1, BlockID: 0, Type: table.Numeric},
		{RowCluster: 1, ColCluster: 1, BlockID: 1, Type: table.Categorical},
		{RowCluster: 2, ColCluster: 1, BlockID: 2, Type: table.Numeric},
		{RowCluster: 2, ColCluster: 1, BlockID: 3, Type: table.Categorical},
	}
	for k, b := range set.Blocks() {
		assert.Equal(t, want[k], b.Key)
	}
	first, ok := set.Get(0)
	require.True(t, ok)
	assert.Equal(t, []string{"age"}, first.Table.ColumnNames())
	assert.Equal(t, []int{0, 1}, first.Table.RowIDs)
	second, _ := set.Get(1)
	assert.Equal(t, []string{"city", "smoker"}, second.Table.ColumnNames())

	n, c := set.CountByType()
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c)
	assert.Equal(t, "2,1,3,categorical", set.Blocks()[3].Key.String())
	assert.Equal(t, "1,1,0,numerical", set.Blocks()[0].Key.String())
}

func TestDecomposeRoundTrip(t *testing.T) {
	nan := math.NaN()
	tb := table.MustNew("mixed",
		table.NumericColumn("a", 1, nan, 3, 4, 5),
		table.CategoricalColumn("b", "x", "y", "", "x", "z"),
		table.NumericColumn("c", 9, 8, 7, nan, 5),
		table.CategoricalColumn("d", "p", "p", "q", "q", ""),
	)
	rowLabels := []int{2, 1, 2, 3, 1}
	colLabels := []int{1, 2, 2, 1}
	set, err := Decompose(tb, rowLabels, colLabels, nil)
	require.NoError(t, err)

	got := map[[2]any]any{}
	for _, b := range set.Blocks() {
		for k, v := range cells(b) {
			_, dup := got[k]
			require.False(t, dup, "cell %v emitted twice", k)
			got[k] = v
		}
		for _, c := range b.Table.Columns {
			assert.Equal(t, b.Key.Type, c.Kind)
			assert.Equal(t, b.Key.ColCluster, colLabels[c.Source])
		}
		for _, id := range b.Table.RowIDs {
			assert.Equal(t, b.Key.RowCluster, rowLabels[id])
		}
	}
	want := map[[2]any]any{}
	for i, id := range tb.RowIDs {
		for _, c := range tb.Columns {
			want[[2]any{id, c.Name}] = c.Cells[i].Value(c.Kind)
		}
	}
	assert.Equal(t, want, got)
}

func TestDecomposeIDsAreNeverReused(t *testing.T) {
	tb := smokers(t)
	ids := &IDSource{}
	first, err := Decompose(tb, []int{1, 1, 2, 2}, []int{1, 2, 2}, ids)
	require.NoError(t, err)
	second, err := Decompose(tb, []int{1, 1, 1, 1}, []int{1, 1, 1}, ids)
	require.NoError(t, err)

	last := first.Blocks()[first.Len()-1].Key.BlockID
	assert.Equal(t, last+1, second.Blocks()[0].Key.BlockID)
	assert.Equal(t, first.Len()+second.Len(), ids.Peek())
}

func TestDecomposeLabelMismatch(t *testing.T) {
	tb := smokers(t)
	_, err := Decompose(tb, []int{1, 1}, []int{1, 1, 1}, nil)
	assert.ErrorIs(t, err, ErrLabels)
	_, err = Decompose(tb, []int{1, 1, 1, 1}, []int{1}, nil)
	assert.ErrorIs(t, err, ErrLabels)
}

func TestNewSetRejectsDuplicateIDs(t *testing.T) {
	tb := smokers(t)
	b := &Block{Key: Key{BlockID: 4}, Table: tb}
	_, err := NewSet(b, b)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func sortedCopy[T int | string](xs []T) []T {
	out := append([]T(nil), xs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestOrderProducesPermutations(t *testing.T) {
	tb := smokers(t)
	set, err := Decompose(tb, []int{1, 1, 2, 2}, []int{1, 1, 1}, nil)
	require.NoError(t, err)

	ord, err := Order(context.Background(), set, OrderOptions{Method: hcluster.Ward})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, sortedCopy(ord.RowOrder))
	assert.Equal(t, []string{"age", "city", "smoker"}, sortedCopy(ord.ColumnOrder))
	require.Equal(t, set.Len(), ord.Set.Len())
	for k, b := range ord.Set.Blocks() {
		assert.Equal(t, set.Blocks()[k].Key, b.Key)
		assert.Equal(t, cells(set.Blocks()[k]), cells(b))
	}
	require.NoError(t, ord.RowDistances.Validate())
	require.NoError(t, ord.ColumnDistances.Validate())
	// rows 0 and 1 differ only by smoker
	assert.Equal(t, 1.0, ord.RowDistances.At(0, 1))
}

func TestOrderIsIdempotent(t *testing.T) {
	nan := math.NaN()
	tb := table.MustNew("t",
		table.NumericColumn("a", 1, 2, 3, 10, 11, 12),
		table.NumericColumn("b", 2, 2, 4, nan, 20, 21),
		table.CategoricalColumn("c", "x", "x", "y", "y", "z", "z"),
		table.NumericColumn("d", 5, 4, 3, 2, 1, 0),
		table.CategoricalColumn("e", "p", "q", "p", "q", "", "q"),
	)
	set, err := Decompose(tb, []int{1, 1, 1, 2, 2, 2}, []int{1, 1, 2, 2, 1}, nil)
	require.NoError(t, err)

	opt := OrderOptions{Method: hcluster.Ward}
	once, err := Order(context.Background(), set, opt)
	require.NoError(t, err)
	twice, err := Order(context.Background(), once.Set, opt)
	require.NoError(t, err)

	assert.Equal(t, once.RowOrder, twice.RowOrder)
	assert.Equal(t, once.ColumnOrder, twice.ColumnOrder)
	for k, b := range once.Set.Blocks() {
		other := twice.Set.Blocks()[k]
		assert.Equal(t, b.Key, other.Key)
		assert.Equal(t, b.Table.RowIDs, other.Table.RowIDs)
		assert.Equal(t, b.Table.ColumnNames(), other.Table.ColumnNames())
	}
}

func TestOrderWorkerCountDoesNotChangeResult(t *testing.T) {
	n := 30
	v, w := make([]float64, n), make([]float64, n)
	c, k := make([]string, n), make([]string, n)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		v[i] = math.Cos(float64(i) * 0.7)
		w[i] = math.Sin(float64(i) * 0.3)
		c[i] = string(rune('a' + i%4))
		k[i] = string(rune('a' + i%3))
		labels[i] = 1 + i%3
	}
	tb := table.MustNew("t",
		table.NumericColumn("v", v...),
		table.CategoricalColumn("c", c...),
		table.NumericColumn("w", w...),
		table.CategoricalColumn("k", k...),
	)
	set, err := Decompose(tb, labels, []int{1, 1, 2, 2}, nil)
	require.NoError(t, err)

	one, err := Order(context.Background(), set, OrderOptions{Workers: 1})
	require.NoError(t, err)
	many, err := Order(context.Background(), set, OrderOptions{Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, one.RowDistances.Rows(), many.RowDistances.Rows())
	assert.Equal(t, one.ColumnDistances.Rows(), many.ColumnDistances.Rows())
	assert.Equal(t, one.RowOrder, many.RowOrder)
	assert.Equal(t, one.ColumnOrder, many.ColumnOrder)
}

func TestOrderSingleRowBlockPassesThrough(t *testing.T) {
	tb := table.MustNew("t",
		table.NumericColumn("x", 1, 2, 3, 50),
		table.NumericColumn("y", 1, 3, 2, 70),
		table.CategoricalColumn("z", "a", "b", "a", "c"),
	)
	set, err := Decompose(tb, []int{1, 1, 1, 2}, []int{1, 1, 1}, nil)
	require.NoError(t, err)

	ord, err := Order(context.Background(), set, OrderOptions{})
	require.NoError(t, err)
	for k, b := range ord.Set.Blocks() {
		before := set.Blocks()[k]
		assert.Equal(t, cells(before), cells(b))
		if b.Key.RowCluster == 2 {
			assert.Equal(t, []int{3}, b.Table.RowIDs)
		}
	}
	// row 3 only appears in single-row blocks: no evidence towards it
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, ord.RowDistances.At(i, 3))
	}
	assert.Len(t, ord.RowOrder, 4)
}

func TestOrderSingleColumnBlockPassesThrough(t *testing.T) {
	tb := smokers(t)
	set, err := Decompose(tb, []int{1, 1, 2, 2}, []int{1, 2, 2}, nil)
	require.NoError(t, err)

	ord, err := Order(context.Background(), set, OrderOptions{})
	require.NoError(t, err)
	ages := 0
	for k, b := range ord.Set.Blocks() {
		before := set.Blocks()[k]
		assert.Equal(t, cells(before), cells(b))
		if b.Key.Type == table.Numeric {
			ages++
			assert.Equal(t, []string{"age"}, b.Table.ColumnNames())
			assert.Len(t, b.Table.RowIDs, 2)
		}
	}
	assert.Equal(t, 2, ages)
	// age never shares a block with another column
	for j := 1; j < 3; j++ {
		assert.Equal(t, 0.0, ord.ColumnDistances.At(0, j))
	}
	assert.ElementsMatch(t, []string{"age", "city", "smoker"}, ord.ColumnOrder)
}

func TestOrderNormalizeHandlesConstantBlocks(t *testing.T) {
	tb := table.MustNew("t",
		table.NumericColumn("x", 5, 5, 5),
		table.NumericColumn("y", 5, 5, 5),
		table.CategoricalColumn("z", "a", "a", "a"),
	)
	set, err := Decompose(tb, []int{1, 1, 1}, []int{1, 1, 1}, nil)
	require.NoError(t, err)

	ord, err := Order(context.Background(), set, OrderOptions{NormalizeBlocks: true})
	require.NoError(t, err)
	require.NoError(t, ord.RowDistances.Validate())
	assert.Equal(t, 0.0, ord.RowDistances.Max())
	// constant numeric columns have undefined correlation, scored as 0
	assert.Equal(t, 1.0, ord.ColumnDistances.At(0, 1))
}

func TestOrderNormalizeScalesToUnit(t *testing.T) {
	tb := table.MustNew("t",
		table.NumericColumn("x", 0, 10, 30),
		table.NumericColumn("y", 0, 0, 40),
	)
	set, err := Decompose(tb, []int{1, 1, 1}, []int{1, 1}, nil)
	require.NoError(t, err)
	ord, err := Order(context.Background(), set, OrderOptions{NormalizeBlocks: true})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ord.RowDistances.Max(), 1e-12)
}

func TestOrderRejectsEmptySet(t *testing.T) {
	_, err := Order(context.Background(), nil, OrderOptions{})
	assert.ErrorIs(t, err, ErrEmptySet)
	empty, err := NewSet()
	require.NoError(t, err)
	_, err = Order(context.Background(), empty, OrderOptions{})
	assert.ErrorIs(t, err, ErrEmptySet)
}

func TestOrderReportsBlockOnBadValues(t *testing.T) {
	tb := table.MustNew("t",
		table.NumericColumn("x", 1, math.Inf(1), 3),
		table.NumericColumn("y", 1, 2, 3),
	)
	set, err := Decompose(tb, []int{1, 1, 1}, []int{1, 1}, nil)
	require.NoError(t, err)
	_, err = Order(context.Background(), set, OrderOptions{})
	var be *BlockError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 0, be.BlockID)
	assert.Equal(t, "row", be.Axis)
}

func TestContributionKernels(t *testing.T) {
	nan := math.NaN()
	x := table.NumericColumn("x", 1, 2, 3, nan)
	y := table.NumericColumn("y", 2, 4, 6, 100)
	z := table.NumericColumn("z", 3, 2, 1, 0)
	assert.InDelta(t, 1.0, pearson(x, y), 1e-12)
	assert.InDelta(t, -1.0, pearson(x, z), 1e-12)
	assert.Equal(t, 0.0, pearson(table.NumericColumn("c", 1, 1, 1, 1), y))

	a := table.CategoricalColumn("a", "p", "p", "q")
	b := table.CategoricalColumn("b", "p", "q", "q")
	assert.InDelta(t, 2.0/3.0, frequencyL1(a, b), 1e-12)
	assert.Equal(t, 0.0, frequencyL1(a, a))
	// missing is its own category
	m := table.CategoricalColumn("m", "p", "p", "")
	assert.InDelta(t, 2.0/3.0, frequencyL1(a, m), 1e-12)

	tb := table.MustNew("t", a, b)
	assert.Equal(t, 1, mismatches(tb, 0, 1))
	assert.Equal(t, 2, mismatches(tb, 0, 2))
	tm := table.MustNew("t", table.CategoricalColumn("a", "", "", "p"))
	assert.Equal(t, 0, mismatches(tm, 0, 1))
	assert.Equal(t, 1, mismatches(tm, 0, 2))

	tn := table.MustNew("t", x, y)
	// row 3 has x missing: only y contributes
	assert.InDelta(t, 94.0, euclidean(tn, 2, 3), 1e-12)
}

func TestParseKey(t *testing.T) {
	k := Key{RowCluster: 2, ColCluster: 3, BlockID: 11, Type: table.Categorical}
	got, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, got)

	got, err = ParseKey("1,1,0,numeric")
	require.NoError(t, err)
	assert.Equal(t, table.Numeric, got.Type)

	for _, bad := range []string{"", "1,2,3", "a,1,2,numerical", "1,1,1,text"} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrBadKey, bad)
	}
}
