// Package bicluster groups the rows and columns of a mixed-type table into
// type-pure blocks and orders them globally.
//
// Fit profiles the table, computes mixed row and column distances, builds a
// dendrogram per axis and cuts each at the requested cluster count. The
// resulting Model is immutable; queries take it explicitly together with
// the table it was fitted on.
package bicluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/mixclust/internal/blocks"
	"github.com/KaramelBytes/mixclust/internal/distance"
	"github.com/KaramelBytes/mixclust/internal/hcluster"
	"github.com/KaramelBytes/mixclust/internal/logging"
	"github.com/KaramelBytes/mixclust/internal/metrics"
	"github.com/KaramelBytes/mixclust/internal/profile"
	"github.com/KaramelBytes/mixclust/internal/table"
)

// Options are engine-wide settings.
type Options struct {
	Linkage hcluster.Method
	// Workers bounds parallel distance and block work; 0 means GOMAXPROCS.
	Workers         int
	NormalizeBlocks bool
}

// FitParams are the per-fit inputs.
type FitParams struct {
	RowClusters             int  `json:"row_clusters" yaml:"row_clusters"`
	ColClusters             int  `json:"col_clusters" yaml:"col_clusters"`
	ConsiderMissingPatterns bool `json:"consider_missing_patterns" yaml:"consider_missing_patterns"`
}

// Engine runs fits and owns the block id source, so block ids are never
// reused across decompositions made by the same engine. Safe for concurrent use.
type Engine struct {
	opts Options
	log  *slog.Logger
	rec  *metrics.Recorder
	ids  blocks.IDSource
}

// NewEngine returns an engine. log and rec may be nil.
func NewEngine(opts Options, log *slog.Logger, rec *metrics.Recorder) *Engine {
	return &Engine{opts: opts, log: logging.OrDiscard(log), rec: rec}
}

func (e *Engine) Options() Options { return e.opts }

// Fit clusters rows and columns of t independently.
func (e *Engine) Fit(ctx context.Context, t *table.Table, p FitParams) (m *Model, err error) {
	defer func() { e.rec.Fit(errorKind(err)) }()

	if t == nil {
		return nil, &InvalidTableError{Reason: "nil table"}
	}
	if err := t.Validate(); err != nil {
		return nil, &InvalidTableError{Reason: "structure", Err: err}
	}
	if err := checkAxis("row", t.NumRows(), p.RowClusters); err != nil {
		return nil, err
	}
	if err := checkAxis("column", t.NumCols(), p.ColClusters); err != nil {
		return nil, err
	}
	log := e.log.With("table", t.Name, "rows", t.NumRows(), "cols", t.NumCols())

	log.Debug("profiling")
	done := e.rec.Stage(metrics.StageProfile, "")
	prof, err := profile.Profile(t)
	done()
	if err != nil {
		return nil, &InvalidTableError{Reason: "profile", Err: err}
	}
	for _, w := range prof.Warnings {
		log.Warn("degenerate column", "err", w)
	}
	e.rec.DegenerateColumns(len(prof.Warnings))

	dopt := distance.Options{Workers: e.opts.Workers}
	if p.ConsiderMissingPatterns {
		dopt.Patterns = t.MissingPatterns()
	}

	var (
		rowTree, colTree *hcluster.Dendrogram
		rowLab, colLab   []int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rowTree, rowLab, err = e.partition(gctx, "row", p.RowClusters, func(ctx context.Context) (*distance.Matrix, error) {
			return distance.Rows(ctx, prof, dopt)
		})
		return err
	})
	g.Go(func() error {
		var err error
		colTree, colLab, err = e.partition(gctx, "column", p.ColClusters, func(ctx context.Context) (*distance.Matrix, error) {
			return distance.Columns(ctx, prof, distance.Options{Workers: e.opts.Workers})
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m = &Model{
		params:      p,
		linkage:     e.opts.Linkage,
		fingerprint: t.Fingerprint(),
		rowIDs:      append([]int(nil), t.RowIDs...),
		colNames:    t.ColumnNames(),
		kinds:       t.Kinds(),
		rowLabels:   rowLab,
		colLabels:   colLab,
		rowTree:     rowTree,
		colTree:     colTree,
		warnings:    prof.Warnings,
	}
	log.Info("fit complete", "row_clusters", len(hcluster.Groups(rowLab)), "col_clusters", len(hcluster.Groups(colLab)))
	return m, nil
}

func checkAxis(axis string, have, k int) error {
	if k < 1 {
		return &InsufficientDataError{Axis: axis, Have: k, Want: 1}
	}
	want := max(2, k)
	if have < want {
		return &InsufficientDataError{Axis: axis, Have: have, Want: want}
	}
	return nil
}

// partition computes one axis: distances, linkage, cut.
func (e *Engine) partition(ctx context.Context, axis string, k int, dist func(context.Context) (*distance.Matrix, error)) (*hcluster.Dendrogram, []int, error) {
	done := e.rec.Stage(metrics.StageDistance, axis)
	d, err := dist(ctx)
	done()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		return nil, nil, &InvalidTableError{Reason: axis + " distances", Err: err}
	}
	done = e.rec.Stage(metrics.StageLinkage, axis)
	tree, err := hcluster.Linkage(d, e.opts.Linkage)
	done()
	if err != nil {
		return nil, nil, fmt.Errorf("%s linkage: %w", axis, err)
	}
	labels, err := hcluster.Cut(tree, k)
	if err != nil {
		return nil, nil, fmt.Errorf("%s cut: %w", axis, err)
	}
	e.log.Debug("axis clustered", "axis", axis, "items", d.Len(), "k", k)
	return tree, labels, nil
}

// ColumnClusters maps each column label to its column names in table order.
func (e *Engine) ColumnClusters(m *Model, t *table.Table) (map[int][]string, error) {
	if err := m.check("ColumnClusters", t); err != nil {
		return nil, err
	}
	out := map[int][]string{}
	for j, l := range m.colLabels {
		out[l] = append(out[l], m.colNames[j])
	}
	return out, nil
}

// RowClusters maps each row label to its row ids in table order.
func (e *Engine) RowClusters(m *Model) (map[int][]int, error) {
	if m == nil {
		return nil, &NotFittedError{Op: "RowClusters"}
	}
	out := map[int][]int{}
	for i, l := range m.rowLabels {
		out[l] = append(out[l], m.rowIDs[i])
	}
	return out, nil
}

// SeparateMixedTypeBlocks decomposes t into type-pure blocks using the
// fitted labels.
func (e *Engine) SeparateMixedTypeBlocks(m *Model, t *table.Table) (*blocks.Set, error) {
	if err := m.check("SeparateMixedTypeBlocks", t); err != nil {
		return nil, err
	}
	done := e.rec.Stage(metrics.StageDecompose, "")
	set, err := blocks.Decompose(t, m.rowLabels, m.colLabels, &e.ids)
	done()
	if err != nil {
		return nil, &InvalidTableError{Reason: "decompose", Err: err}
	}
	n, c := set.CountByType()
	e.rec.Blocks(n, c)
	e.log.Info("blocks emitted", "numeric", n, "categorical", c)
	return set, nil
}

// SortBlocksGlobally reorders every block to one global row order and one
// global column order.
func (e *Engine) SortBlocksGlobally(ctx context.Context, set *blocks.Set) (*blocks.Ordering, error) {
	if set == nil || set.Len() == 0 {
		return nil, &InvalidTableError{Reason: "no blocks to sort", Err: blocks.ErrEmptySet}
	}
	done := e.rec.Stage(metrics.StageOrder, "")
	ord, err := blocks.Order(ctx, set, blocks.OrderOptions{
		Method:          e.opts.Linkage,
		Workers:         e.opts.Workers,
		NormalizeBlocks: e.opts.NormalizeBlocks,
	})
	done()
	if err != nil {
		var be *blocks.BlockError
		if errors.As(err, &be) {
			return nil, &InvalidTableError{Reason: fmt.Sprintf("block %d, %s axis", be.BlockID, be.Axis), Err: be.Err}
		}
		return nil, err
	}
	e.log.Debug("blocks sorted", "rows", len(ord.RowOrder), "cols", len(ord.ColumnOrder))
	return ord, nil
}
