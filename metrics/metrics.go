// Package metrics exposes the shape of the song index and the latency of its
// operations as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/viant/xtree/index/xtree"
)

const typeLabel = "type"

var (
	treeGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "songknn",
			Subsystem: "index",
			Name:      "tree",
			Help:      "Shape of the X-tree: items, nodes, leaves, supernodes, height, splits, extensions and approximate bytes.",
		}, []string{typeLabel})

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "songknn",
			Subsystem: "index",
			Name:      "operation_duration_seconds",
			Help:      "Bucketed histogram of index build and query durations.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 20), // 10us ~ 5s
		}, []string{typeLabel})

	verifyMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "songknn",
			Subsystem: "index",
			Name:      "verify_mismatches_total",
			Help:      "Counter of queries whose tree answer differed from the SQL linear scan.",
		})
)

func init() {
	prometheus.MustRegister(treeGauge)
	prometheus.MustRegister(operationDuration)
	prometheus.MustRegister(verifyMismatches)
}

// ObserveTree publishes the tree shape.
func ObserveTree(s xtree.Stats) {
	treeGauge.WithLabelValues("items").Set(float64(s.Items))
	treeGauge.WithLabelValues("nodes").Set(float64(s.Nodes))
	treeGauge.WithLabelValues("leaves").Set(float64(s.Leaves))
	treeGauge.WithLabelValues("supernodes").Set(float64(s.Supernodes))
	treeGauge.WithLabelValues("height").Set(float64(s.Height))
	treeGauge.WithLabelValues("splits").Set(float64(s.Splits))
	treeGauge.WithLabelValues("extensions").Set(float64(s.Extensions))
	treeGauge.WithLabelValues("max_fanout").Set(float64(s.MaxFanout))
	treeGauge.WithLabelValues("bytes").Set(float64(s.ApproxBytes))
}

// ObserveBuild records the duration of an index build.
func ObserveBuild(d time.Duration) {
	operationDuration.WithLabelValues("build").Observe(d.Seconds())
}

// ObserveQuery records the duration of a kNN query.
func ObserveQuery(d time.Duration) {
	operationDuration.WithLabelValues("query").Observe(d.Seconds())
}

// ObserveVerify records a verification result.
func ObserveVerify(match bool) {
	if !match {
		verifyMismatches.Inc()
	}
}
