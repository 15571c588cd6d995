package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BatchMetricsCollector handles runner.Runner.RunAt outcome metrics.
type BatchMetricsCollector struct {
	runDuration      *prometheus.HistogramVec
	runsTotal        *prometheus.CounterVec
	portfolioOutcome prometheus.Histogram
	productOutcome   prometheus.Histogram
}

func NewBatchMetricsCollector() *BatchMetricsCollector {
	return &BatchMetricsCollector{
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_run_duration_seconds",
				Help:      "End-to-end gather+solve+persist duration by outcome status",
				Buckets:   []float64{0.01, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"status"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_runs_total",
				Help:      "Total number of batch runs by outcome status",
			},
			[]string{"status"},
		),
		portfolioOutcome: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_portfolio_count",
				Help:      "Number of portfolios cleared per settled batch",
				Buckets:   []float64{0, 1, 5, 10, 50, 100, 500},
			},
		),
		productOutcome: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_product_count",
				Help:      "Number of products cleared per settled batch",
				Buckets:   []float64{0, 1, 5, 10, 50, 100, 500},
			},
		),
	}
}

func (c *BatchMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, m := range []prometheus.Collector{c.runDuration, c.runsTotal, c.portfolioOutcome, c.productOutcome} {
		if err := Registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *BatchMetricsCollector) RecordBatchRun(durationSeconds float64, portfolioCount int, productCount int, status string) {
	c.runDuration.WithLabelValues(status).Observe(durationSeconds)
	c.runsTotal.WithLabelValues(status).Inc()
	if status == "settled" {
		c.portfolioOutcome.Observe(float64(portfolioCount))
		c.productOutcome.Observe(float64(productCount))
	}
}

var _ BatchMetricsRecorder = (*BatchMetricsCollector)(nil)
