// Package metrics_config creates the prometheus collectors of the node and
// serves them, together with process usage gauges, over HTTP.
package metrics_config

import (
	"errors"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/dominant-strategies/go-blocktree/log"
)

// DefaultAddress is where the metrics endpoint listens unless configured.
const DefaultAddress = ":2112"

// enabled is checked by the constructor functions for all of the standard
// metrics. If it is false, the constructors return nil and callers skip
// reporting.
var enabled = true

func EnableMetrics()  { enabled = true }
func DisableMetrics() { enabled = false }

func MetricsEnabled() bool {
	return enabled
}

// register adds c to the default registry. A collector registered earlier
// under the same name is returned instead, so constructors may run more than
// once.
func register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// NewGaugeVec creates a gauge family keyed by a single "label" label.
func NewGaugeVec(name string, help string) *prometheus.GaugeVec {
	if !enabled {
		return nil
	}
	return register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, []string{"label"}))
}

// NewCounterVec creates a counter family keyed by a single "label" label.
func NewCounterVec(name string, help string) *prometheus.CounterVec {
	if !enabled {
		return nil
	}
	return register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, []string{"label"}))
}

func NewGauge(name string, help string) prometheus.Gauge {
	if !enabled {
		return nil
	}
	return register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}))
}

func NewHistogram(name string, help string) prometheus.Histogram {
	if !enabled {
		return nil
	}
	return register(prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: name,
		Help: help,
	}))
}

// StartProcessMetrics serves the registered metrics on addr, refreshing the
// process usage gauges on every scrape. It blocks until the server fails.
func StartProcessMetrics(addr string, logger *log.Logger) error {
	// Short circuit if the metrics system is disabled
	if !enabled {
		return nil
	}
	if addr == "" {
		addr = DefaultAddress
	}
	usage := map[string]*prometheus.GaugeVec{
		"cpu": defineUsageGauge("cpu_usage", "The average CPU usage over the last second", "cpu_type"),
		"mem": defineUsageGauge("mem_usage", "The current memory usage", "mem_type"),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			updateMetrics(usage, logger)
			promhttp.Handler().ServeHTTP(w, r)
		}),
	))
	logger.WithField("addr", addr).Info("Serving metrics")
	return http.ListenAndServe(addr, mux)
}

func defineUsageGauge(name, help, label string) *prometheus.GaugeVec {
	return register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, []string{label}))
}

func updateMetrics(usage map[string]*prometheus.GaugeVec, logger *log.Logger) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.WithField("err", err).Error("Failed to get process")
		return
	}
	collectCPUMetrics(usage["cpu"], proc, logger)
	collectMemoryMetrics(usage["mem"], proc, logger)
}

func collectCPUMetrics(cpuGaugeVec *prometheus.GaugeVec, proc *process.Process, logger *log.Logger) {
	percent, err := proc.CPUPercent()
	if err != nil {
		logger.WithField("err", err).Error("Failed to get CPU percent")
	} else {
		cpuGaugeVec.WithLabelValues("Go-blocktree").Set(percent)
	}

	usage, err := cpu.Percent(0, false)
	if err != nil || len(usage) == 0 {
		logger.WithField("err", err).Error("Failed to get system CPU percent")
	} else {
		cpuGaugeVec.WithLabelValues("System").Set(usage[0])
	}

	threads, err := proc.NumThreads()
	if err != nil {
		logger.WithField("err", err).Error("Failed to get threads")
	} else {
		cpuGaugeVec.WithLabelValues("Threads").Set(float64(threads))
	}
}

func collectMemoryMetrics(memGaugeVec *prometheus.GaugeVec, proc *process.Process, logger *log.Logger) {
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		logger.WithField("err", err).Error("Error while getting memory info")
		return
	}
	memGaugeVec.WithLabelValues("Used").Set(float64(memInfo.RSS))
	memGaugeVec.WithLabelValues("Swap").Set(float64(memInfo.Swap))
	memGaugeVec.WithLabelValues("Stack").Set(float64(memInfo.Stack))
}
