package bicluster

import (
	"context"
	"sort"

	"github.com/KaramelBytes/mixclust/internal/blocks"
	"github.com/KaramelBytes/mixclust/internal/table"
)

// Analysis bundles one full pipeline run over a table.
type Analysis struct {
	Table    *table.Table
	Model    *Model
	Blocks   *blocks.Set
	Ordering *blocks.Ordering
}

// Analyze fits t, decomposes it into blocks and sorts them globally.
func (e *Engine) Analyze(ctx context.Context, t *table.Table, p FitParams) (*Analysis, error) {
	m, err := e.Fit(ctx, t, p)
	if err != nil {
		return nil, err
	}
	set, err := e.SeparateMixedTypeBlocks(m, t)
	if err != nil {
		return nil, err
	}
	ord, err := e.SortBlocksGlobally(ctx, set)
	if err != nil {
		return nil, err
	}
	return &Analysis{Table: t, Model: m, Blocks: set, Ordering: ord}, nil
}

// Result is the serializable outcome of an Analysis.
type Result struct {
	Table          string                   `json:"table" yaml:"table"`
	Rows           int                      `json:"rows" yaml:"rows"`
	Cols           int                      `json:"cols" yaml:"cols"`
	Params         FitParams                `json:"params" yaml:"params"`
	Linkage        string                   `json:"linkage" yaml:"linkage"`
	ColumnClusters map[int][]string         `json:"column_clusters" yaml:"column_clusters"`
	RowClusters    map[int][]int            `json:"row_clusters" yaml:"row_clusters"`
	Blocks         map[string]ExportedBlock `json:"blocks" yaml:"blocks"`
	RowOrder       []int                    `json:"row_order" yaml:"row_order"`
	ColumnOrder    []string                 `json:"column_order" yaml:"column_order"`
	Warnings       []string                 `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Result flattens a into its serializable form, using the sorted blocks.
func (a *Analysis) Result() *Result {
	m := a.Model
	r := &Result{
		Table:          a.Table.Name,
		Rows:           a.Table.NumRows(),
		Cols:           a.Table.NumCols(),
		Params:         m.params,
		Linkage:        m.linkage.String(),
		ColumnClusters: map[int][]string{},
		RowClusters:    map[int][]int{},
		Blocks:         Export(a.Ordering.Set),
		RowOrder:       append([]int(nil), a.Ordering.RowOrder...),
		ColumnOrder:    append([]string(nil), a.Ordering.ColumnOrder...),
	}
	for j, l := range m.colLabels {
		r.ColumnClusters[l] = append(r.ColumnClusters[l], m.colNames[j])
	}
	for i, l := range m.rowLabels {
		r.RowClusters[l] = append(r.RowClusters[l], m.rowIDs[i])
	}
	for _, w := range m.warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}
	return r
}

// BlockKeys returns the export keys of r in block id order.
func (r *Result) BlockKeys() []string {
	type kv struct {
		id  int
		key string
	}
	var ks []kv
	for k := range r.Blocks {
		if key, err := blocks.ParseKey(k); err == nil {
			ks = append(ks, kv{id: key.BlockID, key: k})
		}
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].id < ks[j].id })
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.key
	}
	return out
}
