package hcluster

import "fmt"

// Cut returns flat cluster labels (1..k, one per leaf) by replaying the first
// N-k merges: the maximum-cluster-count criterion, not a distance
// threshold. Labels are numbered by the smallest leaf index each cluster
// contains, so every label in 1..k is used when 1 <= k <= N.
func Cut(d *Dendrogram, k int) ([]int, error) {
	if d == nil || d.N < 1 {
		return nil, ErrTooFewItems
	}
	if k < 1 || k > d.N {
		return nil, fmt.Errorf("k=%d for %d items: %w", k, d.N, ErrInvalidK)
	}
	parent := make([]int, 2*d.N-1)
	for i := range parent {
		parent[i] = i
	}
	for s, m := range d.Merges[:d.N-k] {
		id := d.N + s
		parent[m.A] = id
		parent[m.B] = id
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	labels := make([]int, d.N)
	next := map[int]int{}
	for leaf := 0; leaf < d.N; leaf++ {
		root := find(leaf)
		lbl, ok := next[root]
		if !ok {
			lbl = len(next) + 1
			next[root] = lbl
		}
		labels[leaf] = lbl
	}
	return labels, nil
}

// Leaves returns the left-to-right leaf order of the dendrogram, visiting
// the lower-id child of every merge first.
func Leaves(d *Dendrogram) []int {
	if d == nil || d.N == 0 {
		return nil
	}
	if d.N == 1 {
		return []int{0}
	}
	out := make([]int, 0, d.N)
	stack := []int{2*d.N - 2}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id < d.N {
			out = append(out, id)
			continue
		}
		m := d.Merges[id-d.N]
		stack = append(stack, m.B, m.A)
	}
	return out
}

// Groups inverts labels into label -> member indices (ascending).
func Groups(labels []int) map[int][]int {
	out := map[int][]int{}
	for i, l := range labels {
		out[l] = append(out[l], i)
	}
	return out
}
