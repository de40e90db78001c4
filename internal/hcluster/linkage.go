// Package hcluster builds agglomerative clustering trees over a distance
// matrix, cuts them into a fixed number of flat clusters and extracts the
// dendrogram leaf order.
//
// Merging is deterministic: at each step the closest pair of active clusters
// is merged, ties broken by the lexicographically smallest (lo, hi) pair of
// cluster ids. Leaves have ids 0..n-1; the cluster formed at step s has id n+s.
package hcluster

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrTooFewItems   = errors.New("hcluster: fewer than two items")
	ErrInvalidK      = errors.New("hcluster: cluster count out of range")
	ErrBadDistance   = errors.New("hcluster: invalid distance entry")
	ErrUnknownMethod = errors.New("hcluster: unknown linkage method")
)

// Distances is the read-only view linkage needs.
type Distances interface {
	Len() int
	At(i, j int) float64
}

// Method selects the Lance-Williams update rule.
type Method int

const (
	Ward Method = iota
	Single
	Complete
	Average
)

func (m Method) String() string {
	switch m {
	case Ward:
		return "ward"
	case Single:
		return "single"
	case Complete:
		return "complete"
	case Average:
		return "average"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod maps a config/flag value to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ward":
		return Ward, nil
	case "single":
		return Single, nil
	case "complete":
		return Complete, nil
	case "average":
		return Average, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownMethod)
}

// Merge records one agglomeration step. A < B are the merged cluster ids.
type Merge struct {
	A, B   int
	Height float64
	Size   int
}

// Dendrogram is the full merge history over N leaves (N-1 merges).
type Dendrogram struct {
	N      int
	Method Method
	Merges []Merge
}

// Linkage clusters the items of d bottom-up until one cluster remains.
func Linkage(d Distances, method Method) (*Dendrogram, error) {
	n := d.Len()
	if n < 2 {
		return nil, fmt.Errorf("%d item(s): %w", n, ErrTooFewItems)
	}
	if method < Ward || method > Average {
		return nil, fmt.Errorf("%v: %w", method, ErrUnknownMethod)
	}
	// working copy; slot s holds the cluster with id ids[s]
	w := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := d.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("entry (%d,%d)=%g: %w", i, j, v, ErrBadDistance)
			}
			w[i*n+j] = v
		}
	}
	ids := make([]int, n)
	size := make([]int, n)
	active := make([]bool, n)
	for s := range ids {
		ids[s], size[s], active[s] = s, 1, true
	}

	out := &Dendrogram{N: n, Method: method, Merges: make([]Merge, 0, n-1)}
	for step := 0; step < n-1; step++ {
		bs, bt := -1, -1
		best := math.Inf(1)
		for s := 0; s < n; s++ {
			if !active[s] {
				continue
			}
			for t := s + 1; t < n; t++ {
				if !active[t] {
					continue
				}
				v := w[s*n+t]
				if v < best || (bs >= 0 && v == best && pairLess(ids[s], ids[t], ids[bs], ids[bt])) {
					best, bs, bt = v, s, t
				}
			}
		}
		a, b := ids[bs], ids[bt]
		if a > b {
			a, b = b, a
		}
		ns, nt := size[bs], size[bt]
		out.Merges = append(out.Merges, Merge{A: a, B: b, Height: best, Size: ns + nt})

		for k := 0; k < n; k++ {
			if !active[k] || k == bs || k == bt {
				continue
			}
			v := update(method, w[k*n+bs], w[k*n+bt], best, ns, nt, size[k])
			w[k*n+bs], w[bs*n+k] = v, v
		}
		ids[bs] = n + step
		size[bs] = ns + nt
		active[bt] = false
	}
	return out, nil
}

// pairLess orders unordered cluster-id pairs lexicographically by (lo, hi).
func pairLess(a1, b1, a2, b2 int) bool {
	lo1, hi1 := minmax(a1, b1)
	lo2, hi2 := minmax(a2, b2)
	if lo1 != lo2 {
		return lo1 < lo2
	}
	return hi1 < hi2
}

func minmax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// update returns the distance from cluster k to the union of i and j.
func update(m Method, dki, dkj, dij float64, ni, nj, nk int) float64 {
	switch m {
	case Single:
		return math.Min(dki, dkj)
	case Complete:
		return math.Max(dki, dkj)
	case Average:
		return (float64(ni)*dki + float64(nj)*dkj) / float64(ni+nj)
	default:
		fi, fj, fk := float64(ni), float64(nj), float64(nk)
		v := ((fi+fk)*dki*dki + (fj+fk)*dkj*dkj - fk*dij*dij) / (fi + fj + fk)
		if v < 0 {
			v = 0
		}
		return math.Sqrt(v)
	}
}
