package bicluster

import (
	"github.com/KaramelBytes/mixclust/internal/blocks"
)

// ExportedBlock is the serialized form of one block: row-major values with
// an explicit column list. Missing cells are nil.
type ExportedBlock struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    []int    `json:"rows" yaml:"rows"`
	Data    [][]any  `json:"data" yaml:"data"`
}

// Export keys every block by "rowCluster,colCluster,blockId,blockType".
func Export(s *blocks.Set) map[string]ExportedBlock {
	if s == nil {
		return nil
	}
	out := make(map[string]ExportedBlock, s.Len())
	for _, b := range s.Blocks() {
		out[b.Key.String()] = ExportedBlock{
			Columns: b.Table.ColumnNames(),
			Rows:    append([]int(nil), b.Table.RowIDs...),
			Data:    b.Table.Values(),
		}
	}
	return out
}
