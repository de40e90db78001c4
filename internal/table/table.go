package table

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// Kind is the declared type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the String form plus a few common aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "numerical", "number":
		return Numeric, nil
	case "categorical", "category", "text", "string":
		return Categorical, nil
	}
	return 0, fmt.Errorf("unknown column kind: %q", s)
}

var (
	ErrEmpty           = errors.New("table: no rows or columns")
	ErrRagged          = errors.New("table: columns have different lengths")
	ErrDuplicateColumn = errors.New("table: duplicate column name")
	ErrOutOfRange      = errors.New("table: index out of range")
)

// Cell is a single value. Numeric columns use Num, categorical columns use Str.
type Cell struct {
	Num     float64
	Str     string
	Missing bool
}

// Value returns the cell as float64, string or nil (missing).
func (c Cell) Value(k Kind) any {
	if c.Missing {
		return nil
	}
	if k == Numeric {
		return c.Num
	}
	return c.Str
}

// Column is a named, typed column. Source is the column's position in the
// table it was originally built from and survives slicing.
type Column struct {
	Name   string
	Kind   Kind
	Source int
	Cells  []Cell
}

// NumericColumn builds a numeric column; NaN marks a missing value.
func NumericColumn(name string, vals ...float64) *Column {
	c := &Column{Name: name, Kind: Numeric, Cells: make([]Cell, len(vals))}
	for i, v := range vals {
		if math.IsNaN(v) {
			c.Cells[i] = Cell{Missing: true}
			continue
		}
		c.Cells[i] = Cell{Num: v}
	}
	return c
}

// CategoricalColumn builds a categorical column; the empty string marks a missing value.
func CategoricalColumn(name string, vals ...string) *Column {
	c := &Column{Name: name, Kind: Categorical, Cells: make([]Cell, len(vals))}
	for i, v := range vals {
		if v == "" {
			c.Cells[i] = Cell{Missing: true}
			continue
		}
		c.Cells[i] = Cell{Str: v}
	}
	return c
}

// Table is an ordered collection of named columns over a set of row
// identifiers. A Table is treated as immutable once built; Slice copies.
type Table struct {
	Name    string
	RowIDs  []int
	Columns []*Column
}

// New validates the columns and assigns row ids 0..n-1 and column source
// positions 0..d-1.
func New(name string, cols ...*Column) (*Table, error) {
	if len(cols) == 0 || len(cols[0].Cells) == 0 {
		return nil, ErrEmpty
	}
	n := len(cols[0].Cells)
	seen := make(map[string]struct{}, len(cols))
	for j, c := range cols {
		if len(c.Cells) != n {
			return nil, fmt.Errorf("column %q has %d rows, want %d: %w", c.Name, len(c.Cells), n, ErrRagged)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("column %q: %w", c.Name, ErrDuplicateColumn)
		}
		seen[c.Name] = struct{}{}
		c.Source = j
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return &Table{Name: name, RowIDs: ids, Columns: cols}, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(name string, cols ...*Column) *Table {
	t, err := New(name, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) NumRows() int { return len(t.RowIDs) }
func (t *Table) NumCols() int { return len(t.Columns) }

// Validate checks the structural invariants a table built outside New must hold.
func (t *Table) Validate() error {
	if t == nil || t.NumRows() == 0 || t.NumCols() == 0 {
		return ErrEmpty
	}
	seen := make(map[string]struct{}, t.NumCols())
	for _, c := range t.Columns {
		if len(c.Cells) != t.NumRows() {
			return fmt.Errorf("column %q: %w", c.Name, ErrRagged)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("column %q: %w", c.Name, ErrDuplicateColumn)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Name
	}
	return out
}

// Kinds returns the per-column kind vector.
func (t *Table) Kinds() []Kind {
	out := make([]Kind, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Kind
	}
	return out
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for j, c := range t.Columns {
		if c.Name == name {
			return j
		}
	}
	return -1
}

// Cell returns the value at row position i and column position j.
func (t *Table) Cell(i, j int) Cell { return t.Columns[j].Cells[i] }

// Slice returns a new table holding the given row and column positions, in
// the order given. Row ids and column sources are carried over.
func (t *Table) Slice(rows, cols []int) (*Table, error) {
	for _, i := range rows {
		if i < 0 || i >= t.NumRows() {
			return nil, fmt.Errorf("row %d: %w", i, ErrOutOfRange)
		}
	}
	out := &Table{Name: t.Name, RowIDs: make([]int, len(rows)), Columns: make([]*Column, 0, len(cols))}
	for k, i := range rows {
		out.RowIDs[k] = t.RowIDs[i]
	}
	for _, j := range cols {
		if j < 0 || j >= t.NumCols() {
			return nil, fmt.Errorf("column %d: %w", j, ErrOutOfRange)
		}
		src := t.Columns[j]
		c := &Column{Name: src.Name, Kind: src.Kind, Source: src.Source, Cells: make([]Cell, len(rows))}
		for k, i := range rows {
			c.Cells[k] = src.Cells[i]
		}
		out.Columns = append(out.Columns, c)
	}
	return out, nil
}

// Values returns the table row-major, with nil for missing cells.
func (t *Table) Values() [][]any {
	out := make([][]any, t.NumRows())
	for i := range out {
		row := make([]any, t.NumCols())
		for j, c := range t.Columns {
			row[j] = c.Cells[i].Value(c.Kind)
		}
		out[i] = row
	}
	return out
}

// MissingPattern returns the canonical missing-pattern key of row position i:
// one '1' (missing) or '0' (present) per column, in column order.
func (t *Table) MissingPattern(i int) string {
	var b strings.Builder
	b.Grow(t.NumCols())
	for _, c := range t.Columns {
		if c.Cells[i].Missing {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// MissingPatterns returns the pattern key for every row position.
func (t *Table) MissingPatterns() []string {
	out := make([]string, t.NumRows())
	for i := range out {
		out[i] = t.MissingPattern(i)
	}
	return out
}

// PatternGroups groups row ids by identical missing pattern.
func (t *Table) PatternGroups() map[string][]int {
	out := map[string][]int{}
	for i, id := range t.RowIDs {
		p := t.MissingPattern(i)
		out[p] = append(out[p], id)
	}
	return out
}

// Fingerprint identifies the table: row count, column names and kinds, plus
// an FNV-64a hash over row ids and cell contents. Two tables with the same
// fingerprint can share fitted cluster labels.
func (t *Table) Fingerprint() string {
	h := fnv.New64a()
	var buf [8]byte
	for _, id := range t.RowIDs {
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		h.Write(buf[:])
	}
	kinds := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		kinds[j] = c.Kind.String()
		for _, cell := range c.Cells {
			switch {
			case cell.Missing:
				h.Write([]byte{0})
			case c.Kind == Numeric:
				h.Write([]byte{1})
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(cell.Num))
				h.Write(buf[:])
			default:
				h.Write([]byte{2})
				h.Write([]byte(cell.Str))
				h.Write([]byte{0x1f})
			}
		}
	}
	return fmt.Sprintf("%d|%s|%s|%016x", t.NumRows(),
		strings.Join(t.ColumnNames(), "\x1f"), strings.Join(kinds, ","), h.Sum64())
}
