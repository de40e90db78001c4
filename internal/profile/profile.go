// Package profile turns a mixed-type table into a numeric matrix: numeric
// columns are standardized with population statistics and categorical
// columns are mapped to dense integer codes. Missing cells stay NaN.
package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/mixclust/internal/table"
)

// ErrDegenerateColumn matches every *DegenerateColumnError.
var ErrDegenerateColumn = errors.New("profile: degenerate column")

// DegenerateColumnError marks a numeric column with zero standard deviation.
// It is not fatal: the column is kept as a constant and contributes no
// numeric distance.
type DegenerateColumnError struct {
	Column string
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("column %q has zero variance; treated as constant", e.Column)
}

func (e *DegenerateColumnError) Is(target error) bool { return target == ErrDegenerateColumn }

// Profiled is the derived representation of a table. It is never mutated
// after Profile returns.
type Profiled struct {
	Names []string
	Kinds []table.Kind
	// Values is n×d row-major; NaN marks a missing cell.
	Values [][]float64
	// Means and Stds hold population statistics of numeric columns (zero for
	// categorical ones).
	Means []float64
	Stds  []float64
	// Categories maps code -> original value for categorical columns.
	Categories [][]string
	Warnings   []error
}

// NumRows returns the number of profiled rows.
func (p *Profiled) NumRows() int { return len(p.Values) }

// NumCols returns the number of profiled columns.
func (p *Profiled) NumCols() int { return len(p.Names) }

// Code returns the dense code of a categorical value in column j.
func (p *Profiled) Code(j int, v string) (int, bool) {
	cats := p.Categories[j]
	k := sort.SearchStrings(cats, v)
	if k < len(cats) && cats[k] == v {
		return k, true
	}
	return 0, false
}

// Profile derives the normalized/encoded matrix of t. The table is not modified.
func Profile(t *table.Table) (*Profiled, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	n, d := t.NumRows(), t.NumCols()
	p := &Profiled{
		Names:      t.ColumnNames(),
		Kinds:      t.Kinds(),
		Values:     make([][]float64, n),
		Means:      make([]float64, d),
		Stds:       make([]float64, d),
		Categories: make([][]string, d),
	}
	for i := range p.Values {
		p.Values[i] = make([]float64, d)
	}
	for j, c := range t.Columns {
		switch c.Kind {
		case table.Numeric:
			mean, std := populationStats(c.Cells)
			p.Means[j], p.Stds[j] = mean, std
			if std == 0 {
				p.Warnings = append(p.Warnings, &DegenerateColumnError{Column: c.Name})
			}
			for i, cell := range c.Cells {
				switch {
				case cell.Missing:
					p.Values[i][j] = math.NaN()
				case std == 0:
					p.Values[i][j] = 0
				default:
					p.Values[i][j] = (cell.Num - mean) / std
				}
			}
		case table.Categorical:
			cats := distinctSorted(c.Cells)
			p.Categories[j] = cats
			for i, cell := range c.Cells {
				if cell.Missing {
					p.Values[i][j] = math.NaN()
					continue
				}
				code, _ := p.Code(j, cell.Str)
				p.Values[i][j] = float64(code)
			}
		default:
			return nil, fmt.Errorf("column %q: unsupported kind %v", c.Name, c.Kind)
		}
	}
	return p, nil
}

// populationStats returns mean and population standard deviation of the
// present cells using Welford's update.
func populationStats(cells []table.Cell) (mean, std float64) {
	var n int
	var m2 float64
	for _, c := range cells {
		if c.Missing {
			continue
		}
		n++
		delta := c.Num - mean
		mean += delta / float64(n)
		m2 += delta * (c.Num - mean)
	}
	if n == 0 {
		return 0, 0
	}
	std = math.Sqrt(m2 / float64(n))
	// Welford can leave a tiny residue on constant input.
	if std < 1e-12*math.Max(1, math.Abs(mean)) {
		std = 0
	}
	return mean, std
}

func distinctSorted(cells []table.Cell) []string {
	seen := map[string]struct{}{}
	for _, c := range cells {
		if !c.Missing {
			seen[c.Str] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
