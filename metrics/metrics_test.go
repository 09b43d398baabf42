package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/xtree/index/xtree"
)

func TestObserveTree(t *testing.T) {
	ObserveTree(xtree.Stats{Items: 120, Nodes: 31, Leaves: 24, Supernodes: 2, Height: 3, Splits: 28, Extensions: 4, MaxFanout: 11, ApproxBytes: 4096})
	assert.Equal(t, 120.0, testutil.ToFloat64(treeGauge.WithLabelValues("items")))
	assert.Equal(t, 2.0, testutil.ToFloat64(treeGauge.WithLabelValues("supernodes")))
	assert.Equal(t, 3.0, testutil.ToFloat64(treeGauge.WithLabelValues("height")))
	assert.Equal(t, 4096.0, testutil.ToFloat64(treeGauge.WithLabelValues("bytes")))
}

func TestObserveDurations(t *testing.T) {
	ObserveBuild(3 * time.Millisecond)
	ObserveQuery(40 * time.Microsecond)
	ObserveQuery(50 * time.Microsecond)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	counts := map[string]uint64{}
	for _, mf := range families {
		if mf.GetName() != "songknn_index_operation_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				counts[l.GetValue()] = m.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.GreaterOrEqual(t, counts["build"], uint64(1))
	assert.GreaterOrEqual(t, counts["query"], uint64(2))
}

func TestObserveVerify(t *testing.T) {
	before := testutil.ToFloat64(verifyMismatches)
	ObserveVerify(true)
	ObserveVerify(false)
	assert.Equal(t, before+1, testutil.ToFloat64(verifyMismatches))
}
