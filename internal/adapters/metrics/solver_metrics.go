package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SolverMetricsCollector handles QP solver driver metrics.
type SolverMetricsCollector struct {
	solveDuration   *prometheus.HistogramVec
	solveIterations *prometheus.HistogramVec
	solvesTotal     *prometheus.CounterVec
}

func NewSolverMetricsCollector() *SolverMetricsCollector {
	return &SolverMetricsCollector{
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "QP solve duration distribution by outcome status",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0},
			},
			[]string{"status"},
		),
		solveIterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_iterations",
				Help:      "Active-set iterations to convergence",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"status"},
		),
		solvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solves_total",
				Help:      "Total number of solver invocations by outcome status",
			},
			[]string{"status"},
		),
	}
}

func (c *SolverMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, m := range []prometheus.Collector{c.solveDuration, c.solveIterations, c.solvesTotal} {
		if err := Registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *SolverMetricsCollector) RecordSolve(durationSeconds float64, iterations int, status string) {
	c.solveDuration.WithLabelValues(status).Observe(durationSeconds)
	c.solveIterations.WithLabelValues(status).Observe(float64(iterations))
	c.solvesTotal.WithLabelValues(status).Inc()
}

var _ SolverMetricsRecorder = (*SolverMetricsCollector)(nil)
