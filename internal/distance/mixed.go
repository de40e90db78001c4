// Package distance computes pairwise distances over profiled mixed-type data.
//
// The per-pair distance is the square root of a sum of per-column
// contributions: squared difference for numeric values, 0/1 mismatch for
// categorical codes, and MissingPenalty when exactly one side is missing.
// A cell missing on both sides contributes nothing.
package distance

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/mixclust/internal/profile"
	"github.com/KaramelBytes/mixclust/internal/table"
)

const (
	// MissingPenalty is the contribution of a column where one value is
	// missing and the other present.
	MissingPenalty = 1.0
	// SamePatternFactor and OtherPatternFactor weight row distances by
	// missing-pattern agreement.
	SamePatternFactor  = 0.5
	OtherPatternFactor = 2.0
)

// Contribution is the per-column term of the mixed metric.
func Contribution(a, b float64, kind table.Kind) float64 {
	na, nb := math.IsNaN(a), math.IsNaN(b)
	switch {
	case na && nb:
		return 0
	case na || nb:
		return MissingPenalty
	}
	if kind == table.Numeric {
		d := a - b
		return d * d
	}
	if a == b {
		return 0
	}
	return 1
}

// Pair composes Contribution over aligned value vectors.
func Pair(u, v []float64, kind func(k int) table.Kind) float64 {
	var sum float64
	for k := range u {
		sum += Contribution(u[k], v[k], kind(k))
	}
	return math.Sqrt(sum)
}

// Options controls a distance computation.
type Options struct {
	// Patterns holds one missing-pattern key per row. When set, the row
	// distance is multiplied by SamePatternFactor for equal keys and by
	// OtherPatternFactor otherwise. Ignored for column distances.
	Patterns []string
	// Workers bounds parallelism; 0 means GOMAXPROCS.
	Workers int
}

// Rows computes the n×n row distance matrix of p.
func Rows(ctx context.Context, p *profile.Profiled, opt Options) (*Matrix, error) {
	n := p.NumRows()
	if n == 0 || p.NumCols() == 0 {
		return nil, fmt.Errorf("rows: %w", ErrShape)
	}
	if opt.Patterns != nil && len(opt.Patterns) != n {
		return nil, fmt.Errorf("rows: %d patterns for %d rows: %w", len(opt.Patterns), n, ErrShape)
	}
	kind := func(k int) table.Kind { return p.Kinds[k] }
	return pairwise(ctx, n, opt.Workers, func(i, j int) float64 {
		d := Pair(p.Values[i], p.Values[j], kind)
		if opt.Patterns != nil {
			if opt.Patterns[i] == opt.Patterns[j] {
				d *= SamePatternFactor
			} else {
				d *= OtherPatternFactor
			}
		}
		return d
	})
}

// Columns computes the d×d column distance matrix of p by treating columns
// as rows of the transposed matrix. A pair of cells is compared numerically
// only when both columns are numeric. Pattern weighting never applies.
func Columns(ctx context.Context, p *profile.Profiled, opt Options) (*Matrix, error) {
	d, n := p.NumCols(), p.NumRows()
	if n == 0 || d == 0 {
		return nil, fmt.Errorf("columns: %w", ErrShape)
	}
	cols := make([][]float64, d)
	for j := range cols {
		cols[j] = make([]float64, n)
		for i := 0; i < n; i++ {
			cols[j][i] = p.Values[i][j]
		}
	}
	return pairwise(ctx, d, opt.Workers, func(a, b int) float64 {
		k := table.Categorical
		if p.Kinds[a] == table.Numeric && p.Kinds[b] == table.Numeric {
			k = table.Numeric
		}
		return Pair(cols[a], cols[b], func(int) table.Kind { return k })
	})
}

// pairwise fills the upper triangle in parallel, one task per row. Each
// task writes only its own row's cells, so no locking is needed; the lower
// triangle is mirrored and the result symmetrized afterwards.
func pairwise(ctx context.Context, n, workers int, dist func(i, j int) float64) (*Matrix, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	m := NewMatrix(n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n-1; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				m.Set(i, j, dist(i, j))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Set(j, i, m.At(i, j))
		}
	}
	m.Symmetrize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
