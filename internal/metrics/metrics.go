package metrics

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's instrumentation counters
type Metrics struct {
	// Cycle counters
	CyclesRun       atomic.Uint64
	CyclesAborted   atomic.Uint64
	DecisionsOpen   atomic.Uint64
	DecisionsClosed atomic.Uint64

	// Error counters per stage
	AcquireErrors atomic.Uint64
	ConvertErrors atomic.Uint64
	InferErrors   atomic.Uint64

	// Latency tracking (running averages, milliseconds)
	CycleLatencyMs atomic.Uint64
	InferLatencyMs atomic.Uint64
	cycleSamples   atomic.Uint64
	inferSamples   atomic.Uint64
	cycleTotalUs   atomic.Uint64
	inferTotalUs   atomic.Uint64

	// Latest scores (float64 bits)
	lastClosedBits atomic.Uint64
	lastOpenBits   atomic.Uint64
	lastStateOpen  atomic.Uint64 // 0 = closed, 1 = open

	registry *prometheus.Registry
}

// New creates a Metrics instance with Prometheus collectors registered
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	gauge := func(name, help string, fn func() float64) {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help}, fn))
	}

	gauge("doorwatch_cycles_run_total", "Total decision cycles completed",
		func() float64 { return float64(m.CyclesRun.Load()) })
	gauge("doorwatch_cycles_aborted_total", "Total decision cycles abandoned before a decision",
		func() float64 { return float64(m.CyclesAborted.Load()) })
	gauge("doorwatch_decisions_open_total", "Total DOOR_OPEN decisions",
		func() float64 { return float64(m.DecisionsOpen.Load()) })
	gauge("doorwatch_decisions_closed_total", "Total DOOR_CLOSED decisions",
		func() float64 { return float64(m.DecisionsClosed.Load()) })
	gauge("doorwatch_acquire_errors_total", "Frame acquisition failures",
		func() float64 { return float64(m.AcquireErrors.Load()) })
	gauge("doorwatch_convert_errors_total", "Pixel conversion failures",
		func() float64 { return float64(m.ConvertErrors.Load()) })
	gauge("doorwatch_infer_errors_total", "Forward pass failures",
		func() float64 { return float64(m.InferErrors.Load()) })
	gauge("doorwatch_cycle_latency_ms", "Average full cycle latency",
		func() float64 { return float64(m.CycleLatencyMs.Load()) })
	gauge("doorwatch_infer_latency_ms", "Average forward pass latency",
		func() float64 { return float64(m.InferLatencyMs.Load()) })
	gauge("doorwatch_closed_score", "Latest de-quantized closed-class score",
		func() float64 { return m.LastClosedScore() })
	gauge("doorwatch_open_score", "Latest de-quantized open-class score",
		func() float64 { return m.LastOpenScore() })
	gauge("doorwatch_door_open", "1 while the latest decision is DOOR_OPEN",
		func() float64 { return float64(m.lastStateOpen.Load()) })
}

// UpdateCycleLatency records one completed cycle's duration
func (m *Metrics) UpdateCycleLatency(d time.Duration) {
	total := m.cycleTotalUs.Add(uint64(d.Microseconds()))
	n := m.cycleSamples.Add(1)
	m.CycleLatencyMs.Store(total / n / 1000)
}

// UpdateInferLatency records one forward pass duration
func (m *Metrics) UpdateInferLatency(d time.Duration) {
	total := m.inferTotalUs.Add(uint64(d.Microseconds()))
	n := m.inferSamples.Add(1)
	m.InferLatencyMs.Store(total / n / 1000)
}

// RecordScores stores the latest de-quantized score pair and state
func (m *Metrics) RecordScores(closed, open float64, doorOpen bool) {
	m.lastClosedBits.Store(math.Float64bits(closed))
	m.lastOpenBits.Store(math.Float64bits(open))
	if doorOpen {
		m.lastStateOpen.Store(1)
	} else {
		m.lastStateOpen.Store(0)
	}
}

// LastClosedScore returns the latest closed-class score
func (m *Metrics) LastClosedScore() float64 {
	return math.Float64frombits(m.lastClosedBits.Load())
}

// LastOpenScore returns the latest open-class score
func (m *Metrics) LastOpenScore() float64 {
	return math.Float64frombits(m.lastOpenBits.Load())
}

// StartServer starts the Prometheus metrics HTTP server (blocking)
func (m *Metrics) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}
