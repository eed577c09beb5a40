package unstable

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-blocktree/metrics_config"
)

var (
	treeMetrics  *prometheus.GaugeVec
	blockCounter *prometheus.CounterVec
)

func init() {
	registerMetrics()
}

func registerMetrics() {
	treeMetrics = metrics_config.NewGaugeVec("UnstableTreeGauges", "Shape of the tree of unstable blocks")
	blockCounter = metrics_config.NewCounterVec("UnstableBlockCounters", "Blocks pushed, rejected and stabilized")
}

func (b *Blocks) reportTree() {
	if treeMetrics == nil {
		return
	}
	treeMetrics.WithLabelValues("blocks").Set(float64(b.tree.BlocksCount()))
	treeMetrics.WithLabelValues("tips").Set(float64(b.tree.TipCount()))
	treeMetrics.WithLabelValues("depth").Set(float64(b.tree.Depth()))
	treeMetrics.WithLabelValues("anchorHeight").Set(float64(b.anchorHeight))
}

func countBlock(label string) {
	if blockCounter != nil {
		blockCounter.WithLabelValues(label).Inc()
	}
}
