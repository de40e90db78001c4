package bicluster

import (
	"github.com/KaramelBytes/mixclust/internal/hcluster"
	"github.com/KaramelBytes/mixclust/internal/table"
)

// Model is the immutable result of Fit. Accessors return copies.
type Model struct {
	params      FitParams
	linkage     hcluster.Method
	fingerprint string
	rowIDs      []int
	colNames    []string
	kinds       []table.Kind
	rowLabels   []int
	colLabels   []int
	rowTree     *hcluster.Dendrogram
	colTree     *hcluster.Dendrogram
	warnings    []error
}

func (m *Model) Params() FitParams               { return m.params }
func (m *Model) Linkage() hcluster.Method        { return m.linkage }
func (m *Model) Fingerprint() string             { return m.fingerprint }
func (m *Model) RowLabels() []int                { return append([]int(nil), m.rowLabels...) }
func (m *Model) ColumnLabels() []int             { return append([]int(nil), m.colLabels...) }
func (m *Model) ColumnNames() []string           { return append([]string(nil), m.colNames...) }
func (m *Model) Kinds() []table.Kind             { return append([]table.Kind(nil), m.kinds...) }
func (m *Model) Warnings() []error               { return append([]error(nil), m.warnings...) }
func (m *Model) RowTree() hcluster.Dendrogram    { return cloneTree(m.rowTree) }
func (m *Model) ColumnTree() hcluster.Dendrogram { return cloneTree(m.colTree) }

// RowLeafOrder is the row id order of the fitted row dendrogram.
func (m *Model) RowLeafOrder() []int {
	leaves := hcluster.Leaves(m.rowTree)
	out := make([]int, len(leaves))
	for p, l := range leaves {
		out[p] = m.rowIDs[l]
	}
	return out
}

// ColumnLeafOrder is the column name order of the fitted column dendrogram.
func (m *Model) ColumnLeafOrder() []string {
	leaves := hcluster.Leaves(m.colTree)
	out := make([]string, len(leaves))
	for p, l := range leaves {
		out[p] = m.colNames[l]
	}
	return out
}

// check rejects a nil model and a table the model was not fitted on.
func (m *Model) check(op string, t *table.Table) error {
	if m == nil {
		return &NotFittedError{Op: op}
	}
	if t == nil {
		return &InvalidTableError{Reason: "nil table"}
	}
	if t.Fingerprint() != m.fingerprint {
		return &InvalidTableError{Reason: "table does not match the fitted model"}
	}
	return nil
}

func cloneTree(d *hcluster.Dendrogram) hcluster.Dendrogram {
	if d == nil {
		return hcluster.Dendrogram{}
	}
	return hcluster.Dendrogram{N: d.N, Method: d.Method, Merges: append([]hcluster.Merge(nil), d.Merges...)}
}
