// Package blocks splits a clustered table into type-pure blocks and derives
// one global row order and one global column order consistent with all of
// them.
package blocks

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/KaramelBytes/mixclust/internal/table"
)

var (
	ErrLabels      = errors.New("blocks: label count does not match table")
	ErrDuplicateID = errors.New("blocks: duplicate block id")
	ErrEmptySet    = errors.New("blocks: empty block set")
	ErrBadKey      = errors.New("blocks: malformed block key")
)

// Key identifies a block. BlockID alone is unique within a Set.
type Key struct {
	RowCluster int
	ColCluster int
	BlockID    int
	Type       table.Kind
}

// TypeName is the serialized block type.
func TypeName(k table.Kind) string {
	if k == table.Numeric {
		return "numerical"
	}
	return "categorical"
}

// String encodes the key as "rowCluster,colCluster,blockId,blockType".
func (k Key) String() string {
	return fmt.Sprintf("%d,%d,%d,%s", k.RowCluster, k.ColCluster, k.BlockID, TypeName(k.Type))
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Key{}, fmt.Errorf("%q: %w", s, ErrBadKey)
	}
	var nums [3]int
	for i := range nums {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return Key{}, fmt.Errorf("%q: %w", s, ErrBadKey)
		}
		nums[i] = v
	}
	var kind table.Kind
	switch strings.TrimSpace(parts[3]) {
	case "numerical", "numeric":
		kind = table.Numeric
	case "categorical":
		kind = table.Categorical
	default:
		return Key{}, fmt.Errorf("%q: %w", s, ErrBadKey)
	}
	return Key{RowCluster: nums[0], ColCluster: nums[1], BlockID: nums[2], Type: kind}, nil
}

// Block is a type-pure sub-table.
type Block struct {
	Key   Key
	Table *table.Table
}

func (b *Block) Rows() int { return b.Table.NumRows() }
func (b *Block) Cols() int { return b.Table.NumCols() }

// Set is an ordered collection of blocks indexed by block id.
type Set struct {
	blocks []*Block
	byID   map[int]*Block
}

// NewSet orders blocks by id and rejects duplicates.
func NewSet(bs ...*Block) (*Set, error) {
	s := &Set{blocks: make([]*Block, 0, len(bs)), byID: make(map[int]*Block, len(bs))}
	for _, b := range bs {
		if _, dup := s.byID[b.Key.BlockID]; dup {
			return nil, fmt.Errorf("block %d: %w", b.Key.BlockID, ErrDuplicateID)
		}
		s.byID[b.Key.BlockID] = b
		s.blocks = append(s.blocks, b)
	}
	sort.SliceStable(s.blocks, func(i, j int) bool { return s.blocks[i].Key.BlockID < s.blocks[j].Key.BlockID })
	return s, nil
}

// Blocks returns the blocks in block id order. The slice is shared.
func (s *Set) Blocks() []*Block { return s.blocks }

func (s *Set) Len() int { return len(s.blocks) }

// Get looks a block up by id.
func (s *Set) Get(id int) (*Block, bool) {
	b, ok := s.byID[id]
	return b, ok
}

// CountByType returns how many numeric and categorical blocks the set holds.
func (s *Set) CountByType() (numeric, categorical int) {
	for _, b := range s.blocks {
		if b.Key.Type == table.Numeric {
			numeric++
		} else {
			categorical++
		}
	}
	return numeric, categorical
}

// IDSource hands out increasing block ids. Safe for concurrent use.
type IDSource struct {
	next atomic.Int64
}

// Next returns the next unused id, starting at 0.
func (s *IDSource) Next() int { return int(s.next.Add(1) - 1) }

// Peek returns the id the next call to Next will return.
func (s *IDSource) Peek() int { return int(s.next.Load()) }

// BlockError attaches the failing block and axis to an error.
type BlockError struct {
	BlockID int
	Axis    string
	Err     error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d (%s axis): %v", e.BlockID, e.Axis, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }
