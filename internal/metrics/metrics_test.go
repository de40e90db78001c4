package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.Blocks(2, 3)
	r.Blocks(1, 0)
	r.Fit("ok")
	r.Fit("ok")
	r.Fit("insufficient_data")
	r.DegenerateColumns(2)
	r.DegenerateColumns(0)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.blocksEmitted.WithLabelValues("numerical")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.blocksEmitted.WithLabelValues("categorical")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.fitsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fitsTotal.WithLabelValues("insufficient_data")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.warnings))
}

func TestStageObserves(t *testing.T) {
	r := New()
	done := r.Stage(StageDistance, "rows")
	done()
	r.Stage(StageLinkage, "columns")()
	assert.Equal(t, 2, testutil.CollectAndCount(r.stageDuration))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.Stage(StageOrder, "")()
	r.Blocks(1, 1)
	r.Fit("ok")
	r.DegenerateColumns(1)
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Fit("ok")
	path := filepath.Join(t.TempDir(), "mixclust.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `mixclust_fits_total{result="ok"} 1`)
}
