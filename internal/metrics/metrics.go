// Package metrics 导入与排行的 Prometheus 指标（注册到默认 registry）
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 导入行结果
const (
	RowSuccess = "success"
	RowFailed  = "failed"
	RowSkipped = "skipped"
)

// 导入批次结果
const (
	RunOK    = "ok"
	RunError = "error"
)

type ImportMetrics struct {
	rows             *prometheus.CounterVec
	runs             *prometheus.CounterVec
	duration         prometheus.Histogram
	leaderboardBuilt prometheus.Counter
}

var (
	importOnce     sync.Once
	importRegistry *ImportMetrics
)

func Import() *ImportMetrics {
	importOnce.Do(func() {
		importRegistry = &ImportMetrics{
			rows: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "poultry_import_rows_total",
				Help: "Spreadsheet rows processed by outcome.",
			}, []string{"outcome"}),
			runs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "poultry_import_runs_total",
				Help: "Spreadsheet imports by result.",
			}, []string{"result"}),
			duration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "poultry_import_duration_seconds",
				Help:    "Wall time of a full spreadsheet import.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			}),
			leaderboardBuilt: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "poultry_leaderboard_builds_total",
				Help: "Number of leaderboard computations.",
			}),
		}
		prometheus.MustRegister(
			importRegistry.rows,
			importRegistry.runs,
			importRegistry.duration,
			importRegistry.leaderboardBuilt,
		)
	})
	return importRegistry
}

func (m *ImportMetrics) ObserveRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(outcome).Add(float64(n))
}

func (m *ImportMetrics) ObserveRun(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *ImportMetrics) ObserveLeaderboard() {
	if m == nil {
		return
	}
	m.leaderboardBuilt.Inc()
}
