// Package metrics records pipeline timings and block counts with Prometheus.
//
// A Recorder owns its registry so that several engines (and tests) never
// collide on the default one. A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages.
const (
	StageProfile   = "profile"
	StageDistance  = "distance"
	StageLinkage   = "linkage"
	StageDecompose = "decompose"
	StageOrder     = "order"
)

type Recorder struct {
	reg *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	blocksEmitted *prometheus.CounterVec
	fitsTotal     *prometheus.CounterVec
	warnings      prometheus.Counter
}

// New creates a Recorder backed by a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mixclust_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"stage", "axis"}),
		blocksEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mixclust_blocks_emitted_total",
			Help: "Total blocks emitted by decomposition, by block type",
		}, []string{"type"}),
		fitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mixclust_fits_total",
			Help: "Total fit calls by result",
		}, []string{"result"}),
		warnings: f.NewCounter(prometheus.CounterOpts{
			Name: "mixclust_degenerate_columns_total",
			Help: "Total zero-variance numeric columns seen while profiling",
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// Stage starts a timer for stage on axis ("" when not axis-specific) and
// returns the function that stops it.
func (r *Recorder) Stage(stage, axis string) func() {
	if r == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		r.stageDuration.WithLabelValues(stage, axis).Observe(time.Since(start).Seconds())
	}
}

// Blocks adds emitted block counts.
func (r *Recorder) Blocks(numeric, categorical int) {
	if r == nil {
		return
	}
	r.blocksEmitted.WithLabelValues("numerical").Add(float64(numeric))
	r.blocksEmitted.WithLabelValues("categorical").Add(float64(categorical))
}

// Fit counts one fit call; result is "ok" or an error kind.
func (r *Recorder) Fit(result string) {
	if r == nil {
		return
	}
	r.fitsTotal.WithLabelValues(result).Inc()
}

// DegenerateColumns counts zero-variance columns.
func (r *Recorder) DegenerateColumns(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.warnings.Add(float64(n))
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
