// Package metrics exposes the Prometheus instrumentation surface
// (grounded on the teacher's collector-per-concern pattern): a global
// registry, one collector struct per concern, each registering its
// own metric family and exposing Record* methods that domain and
// application code call through a package-level singleton so callers
// never need a reference to the collector itself.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "flowtrading"
	subsystem = "daemon"
)

var (
	// Registry is the global Prometheus registry for all metrics.
	Registry *prometheus.Registry

	globalSolverCollector SolverMetricsRecorder
	globalBatchCollector  BatchMetricsRecorder
	globalHTTPCollector   HTTPMetricsRecorder
)

// SolverMetricsRecorder records QP solver driver outcomes.
type SolverMetricsRecorder interface {
	RecordSolve(durationSeconds float64, iterations int, status string)
}

// BatchMetricsRecorder records batch-run outcomes at the runner level.
type BatchMetricsRecorder interface {
	RecordBatchRun(durationSeconds float64, portfolioCount int, productCount int, status string)
}

// HTTPMetricsRecorder records inbound REST request outcomes.
type HTTPMetricsRecorder interface {
	RecordRequest(method, route string, statusCode int, durationSeconds float64)
}

// InitRegistry initializes the Prometheus registry. Called once at
// application startup if metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry, nil if metrics
// are not initialized.
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled.
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalSolverCollector sets the global solver metrics collector.
func SetGlobalSolverCollector(collector SolverMetricsRecorder) {
	globalSolverCollector = collector
}

// RecordSolve records a solver invocation globally.
func RecordSolve(durationSeconds float64, iterations int, status string) {
	if globalSolverCollector != nil {
		globalSolverCollector.RecordSolve(durationSeconds, iterations, status)
	}
}

// SetGlobalBatchCollector sets the global batch metrics collector.
func SetGlobalBatchCollector(collector BatchMetricsRecorder) {
	globalBatchCollector = collector
}

// RecordBatchRun records a completed runner.RunAt invocation globally.
func RecordBatchRun(durationSeconds float64, portfolioCount int, productCount int, status string) {
	if globalBatchCollector != nil {
		globalBatchCollector.RecordBatchRun(durationSeconds, portfolioCount, productCount, status)
	}
}

// SetGlobalHTTPCollector sets the global HTTP request metrics collector.
func SetGlobalHTTPCollector(collector HTTPMetricsRecorder) {
	globalHTTPCollector = collector
}

// RecordRequest records a completed inbound HTTP request globally.
func RecordRequest(method, route string, statusCode int, durationSeconds float64) {
	if globalHTTPCollector != nil {
		globalHTTPCollector.RecordRequest(method, route, statusCode, durationSeconds)
	}
}
