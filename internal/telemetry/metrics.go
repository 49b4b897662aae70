package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — метрики прохода очистки.
//
// Проход очистки — короткий пакетный процесс, поэтому метрики не
// отдаются по HTTP, а пишутся в текстовый файл для textfile collector
// node_exporter (см. WriteTextfile).
type Metrics struct {
	registry *prometheus.Registry

	StepDuration *prometheus.HistogramVec
	Corrections  *prometheus.CounterVec
	Rows         *prometheus.GaugeVec
	Runs         *prometheus.CounterVec
}

// NewMetrics создаёт метрики на отдельном реестре.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "surveyqc",
			Name:      "step_duration_seconds",
			Help:      "Duration of cleaning steps.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"step_type"}),
		Corrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surveyqc",
			Name:      "step_counter_total",
			Help:      "Per-step correction counters (parsed, zeroed, missing, duplicates...).",
		}, []string{"step_type", "counter"}),
		Rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "surveyqc",
			Name:      "table_rows",
			Help:      "Table size before and after cleaning.",
		}, []string{"stage"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surveyqc",
			Name:      "runs_total",
			Help:      "Cleaning runs by final status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(m.StepDuration, m.Corrections, m.Rows, m.Runs)
	return m
}

// ObserveStep записывает длительность и счётчики шага.
func (m *Metrics) ObserveStep(stepType string, d time.Duration, counters map[string]int64) {
	m.StepDuration.WithLabelValues(stepType).Observe(d.Seconds())
	for name, v := range counters {
		m.Corrections.WithLabelValues(stepType, name).Add(float64(v))
	}
}

// ObserveRun записывает итог прохода.
func (m *Metrics) ObserveRun(status string, inputRows, outputRows int) {
	m.Runs.WithLabelValues(status).Inc()
	m.Rows.WithLabelValues("input").Set(float64(inputRows))
	m.Rows.WithLabelValues("output").Set(float64(outputRows))
}

// WriteTextfile пишет метрики в файл в текстовом формате Prometheus.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
