package blocks

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/mixclust/internal/table"
)

// Decompose slices t into one block per (row cluster, column cluster, kind)
// combination that has at least one column. Labels are positional: rowLabels[i]
// belongs to row position i, colLabels[j] to column position j. Ids are drawn
// from ids in emission order: row cluster ascending, column cluster
// ascending, numeric before categorical. t is not modified.
func Decompose(t *table.Table, rowLabels, colLabels []int, ids *IDSource) (*Set, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(rowLabels) != t.NumRows() {
		return nil, fmt.Errorf("%d row labels for %d rows: %w", len(rowLabels), t.NumRows(), ErrLabels)
	}
	if len(colLabels) != t.NumCols() {
		return nil, fmt.Errorf("%d column labels for %d columns: %w", len(colLabels), t.NumCols(), ErrLabels)
	}
	if ids == nil {
		ids = &IDSource{}
	}
	rowGroups, rowKeys := group(rowLabels)
	colGroups, colKeys := group(colLabels)

	var out []*Block
	for _, r := range rowKeys {
		rows := rowGroups[r]
		for _, c := range colKeys {
			for _, kind := range []table.Kind{table.Numeric, table.Categorical} {
				var cols []int
				for _, j := range colGroups[c] {
					if t.Columns[j].Kind == kind {
						cols = append(cols, j)
					}
				}
				if len(cols) == 0 {
					continue
				}
				sub, err := t.Slice(rows, cols)
				if err != nil {
					return nil, err
				}
				out = append(out, &Block{
					Key:   Key{RowCluster: r, ColCluster: c, BlockID: ids.Next(), Type: kind},
					Table: sub,
				})
			}
		}
	}
	return NewSet(out...)
}

// group returns label -> positions (ascending) and the sorted labels.
func group(labels []int) (map[int][]int, []int) {
	g := map[int][]int{}
	for i, l := range labels {
		g[l] = append(g[l], i)
	}
	keys := make([]int, 0, len(g))
	for l := range g {
		keys = append(keys, l)
	}
	sort.Ints(keys)
	return g, keys
}
