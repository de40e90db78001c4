package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/mixclust/internal/table"
)

// NumberFormat controls locale-aware numeric parsing. Zero separators mean
// auto-detect per value.
type NumberFormat struct {
	DecimalSeparator   rune
	ThousandsSeparator rune
}

var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "?": {},
}

// IsMissing reports whether a raw cell should be treated as a missing value.
func IsMissing(raw string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// ParseNumber parses s as a number, accepting percent signs and locale
// separators.
func ParseNumber(s string, f NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := f.DecimalSeparator
	thou := f.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// InferKind classifies raw column values: numeric when every present value
// parses as a number, categorical otherwise (including all-missing columns).
func InferKind(raw []string, f NumberFormat) table.Kind {
	present := 0
	for _, v := range raw {
		if IsMissing(v) {
			continue
		}
		present++
		if _, ok := ParseNumber(v, f); !ok {
			return table.Categorical
		}
	}
	if present == 0 {
		return table.Categorical
	}
	return table.Numeric
}

// BuildColumn infers the kind of raw values and converts them to cells.
func BuildColumn(name string, raw []string, f NumberFormat) *table.Column {
	c, _ := ConvertColumn(name, raw, InferKind(raw, f), f)
	return c
}

// ConvertColumn converts raw values to cells of the given kind. A present
// value that does not parse as a number fails a numeric conversion.
func ConvertColumn(name string, raw []string, kind table.Kind, f NumberFormat) (*table.Column, error) {
	c := &table.Column{Name: name, Kind: kind, Cells: make([]table.Cell, len(raw))}
	for i, v := range raw {
		if IsMissing(v) {
			c.Cells[i] = table.Cell{Missing: true}
			continue
		}
		if kind == table.Numeric {
			x, ok := ParseNumber(v, f)
			if !ok {
				return nil, fmt.Errorf("column %q row %d: %q is not numeric", name, i, v)
			}
			c.Cells[i] = table.Cell{Num: x}
			continue
		}
		c.Cells[i] = table.Cell{Str: strings.TrimSpace(v)}
	}
	return c, nil
}
