package profile

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/mixclust/internal/table"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestProfileStandardizesNumericColumns(t *testing.T) {
	tb := table.MustNew("t",
		table.NumericColumn("age", 30, 30, 60, 60),
		table.CategoricalColumn("city", "B", "A", "B", "A"),
	)
	p, err := Profile(tb)
	require.NoError(t, err)

	assert.InDelta(t, 45.0, p.Means[0], 1e-12)
	assert.InDelta(t, 15.0, p.Stds[0], 1e-12)
	assert.InDelta(t, -1.0, p.Values[0][0], 1e-12)
	assert.InDelta(t, 1.0, p.Values[3][0], 1e-12)

	// codes follow sorted distinct values
	assert.Equal(t, []string{"A", "B"}, p.Categories[1])
	assert.Equal(t, 1.0, p.Values[0][1])
	assert.Equal(t, 0.0, p.Values[1][1])
	assert.Empty(t, p.Warnings)

	// the original table is untouched
	assert.Equal(t, 30.0, tb.Columns[0].Cells[0].Num)
}

func TestProfileMissingStaysNaN(t *testing.T) {
	tb := table.MustNew("t",
		table.NumericColumn("x", 1, math.NaN(), 3),
		table.CategoricalColumn("c", "u", "", "v"),
	)
	p, err := Profile(tb)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(p.Values[1][0]))
	assert.True(t, math.IsNaN(p.Values[1][1]))
	// population stats over present values only
	assert.InDelta(t, 2.0, p.Means[0], 1e-12)
	assert.InDelta(t, 1.0, p.Stds[0], 1e-12)
}

func TestProfileDegenerateColumnIsNotFatal(t *testing.T) {
	tb := table.MustNew("t",
		table.NumericColumn("const", 7, 7, 7),
		table.NumericColumn("x", 1, 2, 3),
	)
	p, err := Profile(tb)
	require.NoError(t, err)
	require.Len(t, p.Warnings, 1)
	assert.True(t, errors.Is(p.Warnings[0], ErrDegenerateColumn))
	var de *DegenerateColumnError
	require.ErrorAs(t, p.Warnings[0], &de)
	assert.Equal(t, "const", de.Column)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, p.Values[i][0])
	}
}

func TestInferKindAndParseNumber(t *testing.T) {
	f := NumberFormat{}
	assert.Equal(t, table.Numeric, InferKind([]string{"1", "2.5", "", "NA"}, f))
	assert.Equal(t, table.Categorical, InferKind([]string{"1", "x"}, f))
	assert.Equal(t, table.Categorical, InferKind([]string{"", ""}, f))

	v, ok := ParseNumber("1.000,5", NumberFormat{})
	require.True(t, ok)
	assert.True(t, almostEqual(v, 1000.5, 1e-9))

	v, ok = ParseNumber("12.5%", f)
	require.True(t, ok)
	assert.InDelta(t, 12.5, v, 1e-9)

	_, ok = ParseNumber("inf", f)
	assert.False(t, ok)
}

func TestBuildColumn(t *testing.T) {
	c := BuildColumn("score", []string{" 3 ", "n/a", "4"}, NumberFormat{})
	assert.Equal(t, table.Numeric, c.Kind)
	assert.True(t, c.Cells[1].Missing)
	assert.Equal(t, 3.0, c.Cells[0].Num)

	c = BuildColumn("smoker", []string{"Y ", "", "N"}, NumberFormat{})
	assert.Equal(t, table.Categorical, c.Kind)
	assert.Equal(t, "Y", c.Cells[0].Str)
	assert.True(t, c.Cells[1].Missing)
}

func TestSummaryMarkdown(t *testing.T) {
	tb := table.MustNew("clinic.csv",
		table.NumericColumn("age", 30, 30, 60, math.NaN()),
		table.NumericColumn("flag", 1, 1, 1, 1),
		table.CategoricalColumn("city", "A", "A", "B", "B"),
	)
	s, err := Summarize(tb)
	require.NoError(t, err)
	md := s.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: clinic.csv",
		"Rows: 4",
		"Missing patterns: 2",
		"- age: numeric (non-null 3, missing 25.0%)",
		"- flag: numeric",
		"(constant)",
		"- city: categorical",
		"A(2), B(2)",
		"[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestConvertColumnForcedKind(t *testing.T) {
	c, err := ConvertColumn("zip", []string{"01234", "", "98765"}, table.Categorical, NumberFormat{})
	require.NoError(t, err)
	assert.Equal(t, "01234", c.Cells[0].Str)
	assert.True(t, c.Cells[1].Missing)

	_, err = ConvertColumn("x", []string{"1", "two"}, table.Numeric, NumberFormat{})
	assert.Error(t, err)
}
