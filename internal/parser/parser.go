// Package parser loads tabular files into tables.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mixclust/internal/profile"
	"github.com/KaramelBytes/mixclust/internal/table"
)

// Options control loading. Zero values mean defaults.
type Options struct {
	// Delimiter overrides delimiter sniffing for CSV/TSV.
	Delimiter rune
	// MaxRows caps data rows read (0 = unlimited).
	MaxRows int
	Number  profile.NumberFormat
	// SheetName or 1-based SheetIndex select an XLSX sheet.
	SheetName  string
	SheetIndex int
	// Kinds forces the kind of named columns instead of inferring it.
	Kinds map[string]table.Kind
}

// Raw is a header plus string records, before kind inference.
type Raw struct {
	Name      string
	Header    []string
	Records   [][]string
	Truncated bool
}

// Loader reads one file format.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*Raw, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

// ErrNoData indicates a file without a header or without data rows.
var ErrNoData = errors.New("no tabular data")

// ReadRaw selects a loader by filename.
func ReadRaw(path string, opt Options) (*Raw, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

// LoadFile reads path and builds a table with inferred column kinds.
func LoadFile(path string, opt Options) (*table.Table, error) {
	raw, err := ReadRaw(path, opt)
	if err != nil {
		return nil, err
	}
	return BuildTable(raw, opt)
}

// BuildTable converts raw records into a table. Short rows are padded with
// missing cells, empty header names become col_<n> and duplicate names get
// a _<n> suffix.
func BuildTable(raw *Raw, opt Options) (*table.Table, error) {
	if raw == nil || len(raw.Header) == 0 || len(raw.Records) == 0 {
		return nil, ErrNoData
	}
	names := uniqueNames(raw.Header)
	cols := make([]*table.Column, len(names))
	vals := make([]string, len(raw.Records))
	for j, name := range names {
		for i, rec := range raw.Records {
			if j < len(rec) {
				vals[i] = rec[j]
			} else {
				vals[i] = ""
			}
		}
		if k, ok := opt.Kinds[name]; ok {
			c, err := profile.ConvertColumn(name, vals, k, opt.Number)
			if err != nil {
				return nil, err
			}
			cols[j] = c
		} else {
			cols[j] = profile.BuildColumn(name, vals, opt.Number)
		}
	}
	return table.New(raw.Name, cols...)
}

func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	for j, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("col_%d", j+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		out[j] = name
	}
	return out
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
