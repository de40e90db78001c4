package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/mixclust/internal/table"
)

// ColumnSummary captures kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    table.Kind
	NonNull int
	Missing int
	// Numeric stats (population)
	Min, Max, Mean, Std float64
	Degenerate          bool
	// Categorical
	Unique    int
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// Summary is a markdown-friendly description of a table and its profile.
type Summary struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Patterns int
	Warnings []string
}

// Summarize builds a Summary of t.
func Summarize(t *table.Table) (*Summary, error) {
	p, err := Profile(t)
	if err != nil {
		return nil, err
	}
	s := &Summary{Name: t.Name, Rows: t.NumRows(), Patterns: len(t.PatternGroups())}
	for j, c := range t.Columns {
		cs := ColumnSummary{Name: c.Name, Kind: c.Kind}
		counts := map[string]int{}
		cs.Min, cs.Max = math.Inf(1), math.Inf(-1)
		for _, cell := range c.Cells {
			if cell.Missing {
				cs.Missing++
				continue
			}
			cs.NonNull++
			if c.Kind == table.Numeric {
				cs.Min = math.Min(cs.Min, cell.Num)
				cs.Max = math.Max(cs.Max, cell.Num)
			} else {
				counts[cell.Str]++
			}
		}
		if c.Kind == table.Numeric {
			cs.Mean, cs.Std = p.Means[j], p.Stds[j]
			cs.Degenerate = p.Stds[j] == 0
			if cs.NonNull == 0 {
				cs.Min, cs.Max = 0, 0
			}
		} else {
			cs.Unique = len(counts)
			cs.TopValues = topValues(counts, 5)
		}
		s.Cols = append(s.Cols, cs)
	}
	for _, w := range p.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	return s, nil
}

func topValues(counts map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Markdown renders a compact schema report.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(s.Cols)))
	b.WriteString(fmt.Sprintf("Missing patterns: %d\n\n", s.Patterns))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", SafeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case table.Numeric:
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.Degenerate {
				b.WriteString(" (constant)")
			}
		case table.Categorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", SafeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// SafeName substitutes a placeholder for blank names.
func SafeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

// SafeVal makes a value safe to embed in a markdown table cell.
func SafeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
