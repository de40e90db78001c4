package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/mixclust/internal/bicluster"
	"github.com/KaramelBytes/mixclust/internal/hcluster"
	"github.com/KaramelBytes/mixclust/internal/logging"
	"github.com/KaramelBytes/mixclust/internal/metrics"
	"github.com/KaramelBytes/mixclust/internal/parser"
	"github.com/KaramelBytes/mixclust/internal/table"
	"github.com/spf13/cobra"
)

// inputFlags are the table-loading flags shared by every command that reads a file.
type inputFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
	maxRows    int
	kinds      []string
}

func (in *inputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&in.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed from extension if omitted)")
	f.StringVar(&in.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&in.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.StringVar(&in.sheetName, "sheet-name", "", "XLSX: sheet name to load")
	f.IntVar(&in.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	f.IntVar(&in.maxRows, "max-rows", 0, "maximum rows to load (0 = config max_rows); clustering memory grows with rows squared")
	f.StringSliceVar(&in.kinds, "kind", nil, "force a column kind, e.g. --kind zip=categorical (repeatable)")
}

func (in *inputFlags) options() (parser.Options, error) {
	opt := parser.Options{
		MaxRows:    effectiveConfig().MaxRows,
		SheetName:  in.sheetName,
		SheetIndex: in.sheetIndex,
	}
	if in.maxRows > 0 {
		opt.MaxRows = in.maxRows
	}
	switch in.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", in.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(in.decimal)) {
	case ",", "comma":
		opt.Number.DecimalSeparator = ','
	case ".", "dot":
		opt.Number.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", in.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(in.thousands)) {
	case ",":
		opt.Number.ThousandsSeparator = ','
	case ".":
		opt.Number.ThousandsSeparator = '.'
	case "space", " ":
		opt.Number.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", in.thousands)
	}
	for _, kv := range in.kinds {
		name, kind, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return opt, fmt.Errorf("invalid --kind %q (use column=numeric|categorical)", kv)
		}
		k, err := table.ParseKind(kind)
		if err != nil {
			return opt, err
		}
		if opt.Kinds == nil {
			opt.Kinds = map[string]table.Kind{}
		}
		opt.Kinds[strings.TrimSpace(name)] = k
	}
	return opt, nil
}

func (in *inputFlags) load(path string) (*table.Table, error) {
	opt, err := in.options()
	if err != nil {
		return nil, err
	}
	return parser.LoadFile(path, opt)
}

// fitFlags are the engine and fit parameters. Unset flags fall back to config.
type fitFlags struct {
	rowClusters     int
	colClusters     int
	missingPatterns bool
	linkage         string
	workers         int
	normalizeBlocks bool
}

func (ff *fitFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&ff.rowClusters, "row-clusters", "r", 0, "number of row clusters (default from config)")
	f.IntVarP(&ff.colClusters, "col-clusters", "c", 0, "number of column clusters (default from config)")
	f.BoolVar(&ff.missingPatterns, "missing-patterns", false, "weight row distances by missing-value pattern agreement")
	f.StringVar(&ff.linkage, "linkage", "", "linkage method: ward|single|complete|average (default from config)")
	f.IntVar(&ff.workers, "workers", 0, "parallel workers (0 = config, then GOMAXPROCS)")
	f.BoolVar(&ff.normalizeBlocks, "normalize-blocks", false, "scale each block's ordering evidence to a maximum of 1")
}

func (ff *fitFlags) params(cmd *cobra.Command) bicluster.FitParams {
	c := effectiveConfig()
	p := bicluster.FitParams{
		RowClusters:             c.RowClusters,
		ColClusters:             c.ColClusters,
		ConsiderMissingPatterns: c.ConsiderMissingPatterns,
	}
	f := cmd.Flags()
	if f.Changed("row-clusters") {
		p.RowClusters = ff.rowClusters
	}
	if f.Changed("col-clusters") {
		p.ColClusters = ff.colClusters
	}
	if f.Changed("missing-patterns") {
		p.ConsiderMissingPatterns = ff.missingPatterns
	}
	return p
}

func (ff *fitFlags) engineOptions(cmd *cobra.Command) (bicluster.Options, error) {
	c := effectiveConfig()
	name := c.Linkage
	workers := c.Workers
	normalize := c.NormalizeBlocks
	f := cmd.Flags()
	if f.Changed("linkage") {
		name = ff.linkage
	}
	if f.Changed("workers") {
		workers = ff.workers
	}
	if f.Changed("normalize-blocks") {
		normalize = ff.normalizeBlocks
	}
	m, err := hcluster.ParseMethod(name)
	if err != nil {
		return bicluster.Options{}, err
	}
	if workers < 0 {
		return bicluster.Options{}, fmt.Errorf("--workers must be >= 0, got %d", workers)
	}
	return bicluster.Options{Linkage: m, Workers: workers, NormalizeBlocks: normalize}, nil
}

// session is what a fitting command needs: an engine plus its logger and metrics.
type session struct {
	engine *bicluster.Engine
	rec    *metrics.Recorder
	log    *logging.Logger
}

func (ff *fitFlags) session(cmd *cobra.Command) (*session, error) {
	opts, err := ff.engineOptions(cmd)
	if err != nil {
		return nil, err
	}
	lg, err := newLogger()
	if err != nil {
		return nil, err
	}
	rec := metrics.New()
	return &session{
		engine: bicluster.NewEngine(opts, lg.Logger, rec),
		rec:    rec,
		log:    lg,
	}, nil
}

func (s *session) Close() error { return s.log.Close() }
