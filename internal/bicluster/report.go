package bicluster

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/mixclust/internal/blocks"
	"github.com/KaramelBytes/mixclust/internal/profile"
	"github.com/KaramelBytes/mixclust/internal/table"
)

// maxListed caps id lists in reports.
const maxListed = 12

// Markdown renders r as a compact report.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[BICLUSTER SUMMARY]\n")
	if r.Table != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Table))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.Cols))
	b.WriteString(fmt.Sprintf("Row clusters: %d (requested %d)\n", len(r.RowClusters), r.Params.RowClusters))
	b.WriteString(fmt.Sprintf("Column clusters: %d (requested %d)\n", len(r.ColumnClusters), r.Params.ColClusters))
	b.WriteString(fmt.Sprintf("Linkage: %s\n", r.Linkage))
	if r.Params.ConsiderMissingPatterns {
		b.WriteString("Missing patterns: weighted\n")
	}
	b.WriteString("\n[COLUMN CLUSTERS]\n")
	for _, l := range sortedLabels(r.ColumnClusters) {
		names := make([]string, len(r.ColumnClusters[l]))
		for i, n := range r.ColumnClusters[l] {
			names[i] = profile.SafeName(n)
		}
		b.WriteString(fmt.Sprintf("- %d: %s\n", l, strings.Join(names, ", ")))
	}
	b.WriteString("\n[ROW CLUSTERS]\n")
	for _, l := range sortedLabels(r.RowClusters) {
		ids := r.RowClusters[l]
		b.WriteString(fmt.Sprintf("- %d: %d rows (%s)\n", l, len(ids), listInts(ids)))
	}

	b.WriteString("\n[BLOCKS]\n")
	b.WriteString("| key | type | rows | columns |\n|---|---|---|---|\n")
	for _, k := range r.BlockKeys() {
		blk := r.Blocks[k]
		typ := k[strings.LastIndex(k, ",")+1:]
		names := make([]string, len(blk.Columns))
		for i, n := range blk.Columns {
			names[i] = profile.SafeVal(n)
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n", k, typ, len(blk.Rows), strings.Join(names, ", ")))
	}

	b.WriteString("\n[GLOBAL ORDER]\n")
	b.WriteString(fmt.Sprintf("Rows: %s\n", listInts(r.RowOrder)))
	cols := make([]string, len(r.ColumnOrder))
	for i, n := range r.ColumnOrder {
		cols[i] = profile.SafeName(n)
	}
	b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(cols, ", ")))

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// CompareMarkdown prints every block before and after global sorting.
// maxRows caps the rows shown per table (0 means all).
func (a *Analysis) CompareMarkdown(maxRows int) string {
	var b strings.Builder
	b.WriteString("[BLOCK SORTING COMPARISON]\n")
	b.WriteString(fmt.Sprintf("Global row order: %s\n", listInts(a.Ordering.RowOrder)))
	b.WriteString(fmt.Sprintf("Global column order: %s\n", strings.Join(a.Ordering.ColumnOrder, ", ")))
	for _, before := range a.Blocks.Blocks() {
		after, ok := a.Ordering.Set.Get(before.Key.BlockID)
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("\n### Block %s (%d×%d)\n", before.Key, before.Rows(), before.Cols()))
		b.WriteString("\nBefore:\n")
		b.WriteString(blockTable(before, maxRows))
		b.WriteString("\nAfter:\n")
		b.WriteString(blockTable(after, maxRows))
	}
	return b.String()
}

// blockTable renders a block as a Markdown table with a leading row id column.
func blockTable(blk *blocks.Block, maxRows int) string {
	t := blk.Table
	var b strings.Builder
	b.WriteString("| row |")
	for _, c := range t.Columns {
		b.WriteString(" " + profile.SafeVal(c.Name) + " |")
	}
	b.WriteString("\n|---|")
	for range t.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	n := t.NumRows()
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	for i := 0; i < n; i++ {
		b.WriteString(fmt.Sprintf("| %d |", t.RowIDs[i]))
		for _, c := range t.Columns {
			b.WriteString(" " + formatCell(c.Cells[i], c.Kind) + " |")
		}
		b.WriteString("\n")
	}
	if n < t.NumRows() {
		b.WriteString(fmt.Sprintf("| … | %d more rows |\n", t.NumRows()-n))
	}
	return b.String()
}

func formatCell(c table.Cell, k table.Kind) string {
	if c.Missing {
		return ""
	}
	if k == table.Numeric {
		return strconv.FormatFloat(c.Num, 'g', 6, 64)
	}
	return profile.SafeVal(c.Str)
}

func sortedLabels[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

func listInts(xs []int) string {
	n := len(xs)
	if n > maxListed {
		n = maxListed
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.Itoa(xs[i])
	}
	s := strings.Join(parts, ", ")
	if len(xs) > n {
		s += fmt.Sprintf(", … (+%d)", len(xs)-n)
	}
	return s
}
