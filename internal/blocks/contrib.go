package blocks

import (
	"math"
	"sort"

	"github.com/KaramelBytes/mixclust/internal/distance"
	"github.com/KaramelBytes/mixclust/internal/table"
)

// contribution is one block's local distance evidence. A nil matrix means
// the block has no pairs on that axis.
type contribution struct {
	rows *distance.Matrix
	cols *distance.Matrix
}

// blockContribution computes the local row and column distances of t,
// whose rows and columns must already be in global index order. A single
// row contributes nothing on either axis; a single column contributes only
// row terms.
func blockContribution(id int, t *table.Table, kind table.Kind, normalize bool) (contribution, error) {
	var c contribution
	n, d := t.NumRows(), t.NumCols()
	if n < 2 {
		return c, nil
	}
	if kind == table.Numeric {
		c.rows = pairs(n, func(i, j int) float64 { return euclidean(t, i, j) })
		if d > 1 {
			c.cols = pairs(d, func(a, b int) float64 { return 1 - math.Abs(pearson(t.Columns[a], t.Columns[b])) })
		}
	} else {
		c.rows = pairs(n, func(i, j int) float64 { return float64(mismatches(t, i, j)) })
		if d > 1 {
			c.cols = pairs(d, func(a, b int) float64 { return frequencyL1(t.Columns[a], t.Columns[b]) })
		}
	}
	for _, ax := range []struct {
		name string
		m    *distance.Matrix
	}{{"row", c.rows}, {"column", c.cols}} {
		if ax.m == nil {
			continue
		}
		if err := ax.m.Validate(); err != nil {
			return c, &BlockError{BlockID: id, Axis: ax.name, Err: err}
		}
		if normalize {
			// all-equal blocks have max 0 and stay zero
			if mx := ax.m.Max(); mx > 0 {
				ax.m.Scale(1 / mx)
			}
		}
	}
	return c, nil
}

func pairs(n int, dist func(i, j int) float64) *distance.Matrix {
	m := distance.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := dist(i, j)
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
	return m
}

// euclidean over the columns where both rows are present.
func euclidean(t *table.Table, i, j int) float64 {
	var sum float64
	for _, c := range t.Columns {
		a, b := c.Cells[i], c.Cells[j]
		if a.Missing || b.Missing {
			continue
		}
		d := a.Num - b.Num
		sum += d * d
	}
	return math.Sqrt(sum)
}

// pearson over pairwise-complete rows; 0 when undefined.
func pearson(x, y *table.Column) float64 {
	var n, sx, sy float64
	for k := range x.Cells {
		if x.Cells[k].Missing || y.Cells[k].Missing {
			continue
		}
		n++
		sx += x.Cells[k].Num
		sy += y.Cells[k].Num
	}
	if n < 2 {
		return 0
	}
	mx, my := sx/n, sy/n
	var cov, vx, vy float64
	for k := range x.Cells {
		if x.Cells[k].Missing || y.Cells[k].Missing {
			continue
		}
		dx, dy := x.Cells[k].Num-mx, y.Cells[k].Num-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx <= 0 || vy <= 0 {
		return 0
	}
	r := cov / math.Sqrt(vx*vy)
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// mismatches counts columns where the two rows differ. Missing against
// present counts; missing on both sides does not.
func mismatches(t *table.Table, i, j int) int {
	var out int
	for _, c := range t.Columns {
		a, b := c.Cells[i], c.Cells[j]
		if a.Missing != b.Missing || (!a.Missing && a.Str != b.Str) {
			out++
		}
	}
	return out
}

type category struct {
	missing bool
	value   string
}

func frequencies(c *table.Column) map[category]float64 {
	out := map[category]float64{}
	for _, cell := range c.Cells {
		out[category{missing: cell.Missing, value: cell.Str}]++
	}
	n := float64(len(c.Cells))
	for k := range out {
		out[k] /= n
	}
	return out
}

// frequencyL1 is the total absolute difference between the empirical value
// distributions of two columns. Missing is its own category. The support is
// walked in sorted order so the sum is reproducible.
func frequencyL1(x, y *table.Column) float64 {
	fx, fy := frequencies(x), frequencies(y)
	support := make([]category, 0, len(fx)+len(fy))
	for k := range fx {
		support = append(support, k)
	}
	for k := range fy {
		if _, ok := fx[k]; !ok {
			support = append(support, k)
		}
	}
	sort.Slice(support, func(i, j int) bool {
		if support[i].missing != support[j].missing {
			return !support[i].missing
		}
		return support[i].value < support[j].value
	})
	var sum float64
	for _, k := range support {
		sum += math.Abs(fx[k] - fy[k])
	}
	return sum
}
