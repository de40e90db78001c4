package blocks

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/mixclust/internal/distance"
	"github.com/KaramelBytes/mixclust/internal/hcluster"
	"github.com/KaramelBytes/mixclust/internal/table"
)

// OrderOptions controls global ordering.
type OrderOptions struct {
	Method hcluster.Method
	// Workers bounds the number of blocks processed at once; 0 means GOMAXPROCS.
	Workers int
	// NormalizeBlocks scales each block's contribution to a maximum of 1.
	NormalizeBlocks bool
}

// Ordering is the result of a global ordering pass.
type Ordering struct {
	Set         *Set
	RowOrder    []int
	ColumnOrder []string
	// RowDistances and ColumnDistances are the accumulated global matrices,
	// indexed by sorted row id and by column source position respectively.
	RowDistances    *distance.Matrix
	ColumnDistances *distance.Matrix
}

type globalColumn struct {
	name   string
	source int
}

// Order accumulates distance evidence from every block into one global row
// matrix and one global column matrix, builds a dendrogram over each and
// reindexes every block to the resulting leaf orders. Keys are preserved.
func Order(ctx context.Context, s *Set, opt OrderOptions) (*Ordering, error) {
	if s == nil || s.Len() == 0 {
		return nil, ErrEmptySet
	}
	for _, b := range s.blocks {
		if b.Table == nil {
			return nil, &BlockError{BlockID: b.Key.BlockID, Axis: "row", Err: table.ErrEmpty}
		}
		if err := b.Table.Validate(); err != nil {
			return nil, &BlockError{BlockID: b.Key.BlockID, Axis: "row", Err: err}
		}
	}

	rowIDs, rowPos := unionRows(s)
	cols, colPos := unionColumns(s)

	// canonical block views: rows and columns in global index order
	canon := make([]*table.Table, s.Len())
	for k, b := range s.blocks {
		t, err := reorder(b.Table, func(id int) int { return rowPos[id] }, func(c *table.Column) int { return colPos[c.Name] })
		if err != nil {
			return nil, &BlockError{BlockID: b.Key.BlockID, Axis: "row", Err: err}
		}
		canon[k] = t
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	parts := make([]contribution, s.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k, b := range s.blocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := blockContribution(b.Key.BlockID, canon[k], b.Key.Type, opt.NormalizeBlocks)
			if err != nil {
				return err
			}
			parts[k] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// reduce sequentially in block id order
	rowAcc := distance.NewMatrix(len(rowIDs))
	colAcc := distance.NewMatrix(len(cols))
	for k, c := range parts {
		t := canon[k]
		if c.rows != nil {
			for i := 0; i < c.rows.Len(); i++ {
				for j := i + 1; j < c.rows.Len(); j++ {
					rowAcc.AddSym(rowPos[t.RowIDs[i]], rowPos[t.RowIDs[j]], c.rows.At(i, j))
				}
			}
		}
		if c.cols != nil {
			for a := 0; a < c.cols.Len(); a++ {
				for b := a + 1; b < c.cols.Len(); b++ {
					colAcc.AddSym(colPos[t.Columns[a].Name], colPos[t.Columns[b].Name], c.cols.At(a, b))
				}
			}
		}
	}
	if err := rowAcc.Validate(); err != nil {
		return nil, fmt.Errorf("global row distances: %w", err)
	}
	if err := colAcc.Validate(); err != nil {
		return nil, fmt.Errorf("global column distances: %w", err)
	}

	rowLeaves, err := leafOrder(rowAcc, opt.Method)
	if err != nil {
		return nil, fmt.Errorf("global row linkage: %w", err)
	}
	colLeaves, err := leafOrder(colAcc, opt.Method)
	if err != nil {
		return nil, fmt.Errorf("global column linkage: %w", err)
	}

	out := &Ordering{
		RowOrder:        make([]int, len(rowLeaves)),
		ColumnOrder:     make([]string, len(colLeaves)),
		RowDistances:    rowAcc,
		ColumnDistances: colAcc,
	}
	rowRank := make(map[int]int, len(rowLeaves))
	for p, leaf := range rowLeaves {
		out.RowOrder[p] = rowIDs[leaf]
		rowRank[rowIDs[leaf]] = p
	}
	colRank := make(map[string]int, len(colLeaves))
	for p, leaf := range colLeaves {
		out.ColumnOrder[p] = cols[leaf].name
		colRank[cols[leaf].name] = p
	}

	reindexed := make([]*Block, 0, s.Len())
	for _, b := range s.blocks {
		t, err := reorder(b.Table, func(id int) int { return rowRank[id] }, func(c *table.Column) int { return colRank[c.Name] })
		if err != nil {
			return nil, &BlockError{BlockID: b.Key.BlockID, Axis: "column", Err: err}
		}
		reindexed = append(reindexed, &Block{Key: b.Key, Table: t})
	}
	if out.Set, err = NewSet(reindexed...); err != nil {
		return nil, err
	}
	return out, nil
}

func leafOrder(m *distance.Matrix, method hcluster.Method) ([]int, error) {
	if m.Len() == 1 {
		return []int{0}, nil
	}
	d, err := hcluster.Linkage(m, method)
	if err != nil {
		return nil, err
	}
	return hcluster.Leaves(d), nil
}

// unionRows returns every row id across the set, ascending, and its index.
func unionRows(s *Set) ([]int, map[int]int) {
	seen := map[int]struct{}{}
	for _, b := range s.blocks {
		for _, id := range b.Table.RowIDs {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	pos := make(map[int]int, len(ids))
	for p, id := range ids {
		pos[id] = p
	}
	return ids, pos
}

// unionColumns returns every column across the set ordered by its source
// position in the original table, then by name, and its index by name.
func unionColumns(s *Set) ([]globalColumn, map[string]int) {
	seen := map[string]int{}
	for _, b := range s.blocks {
		for _, c := range b.Table.Columns {
			if _, ok := seen[c.Name]; !ok {
				seen[c.Name] = c.Source
			}
		}
	}
	cols := make([]globalColumn, 0, len(seen))
	for name, src := range seen {
		cols = append(cols, globalColumn{name: name, source: src})
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].source != cols[j].source {
			return cols[i].source < cols[j].source
		}
		return cols[i].name < cols[j].name
	})
	pos := make(map[string]int, len(cols))
	for p, c := range cols {
		pos[c.name] = p
	}
	return cols, pos
}

// reorder slices t with rows sorted by rowKey(id) and columns by colKey.
func reorder(t *table.Table, rowKey func(id int) int, colKey func(*table.Column) int) (*table.Table, error) {
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool { return rowKey(t.RowIDs[rows[a]]) < rowKey(t.RowIDs[rows[b]]) })
	cols := make([]int, t.NumCols())
	for j := range cols {
		cols[j] = j
	}
	sort.SliceStable(cols, func(a, b int) bool { return colKey(t.Columns[cols[a]]) < colKey(t.Columns[cols[b]]) })
	return t.Slice(rows, cols)
}
