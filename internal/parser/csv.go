package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvLoader) Load(path string, opt Options) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, filepath.Base(path), sniffDelimiter(path, opt.Delimiter), opt.MaxRows)
}

// ReadCSV reads a header row and up to maxRows records from r.
func ReadCSV(r io.Reader, name string, delim rune, maxRows int) (*Raw, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if delim != 0 {
		cr.Comma = delim
	}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", name, ErrNoData)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw := &Raw{Name: name, Header: append([]string(nil), header...)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(raw.Records)+2, err)
		}
		if blank(rec) {
			continue
		}
		if maxRows > 0 && len(raw.Records) >= maxRows {
			raw.Truncated = true
			break
		}
		raw.Records = append(raw.Records, rec)
	}
	return raw, nil
}

func sniffDelimiter(path string, override rune) rune {
	if override != 0 {
		return override
	}
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
