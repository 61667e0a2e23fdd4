package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// EngineCyclesTotal counts fee computation cycles by outcome.
	EngineCyclesTotal *prometheus.CounterVec
	// EngineCycleDuration records cycle latency in milliseconds by outcome.
	EngineCycleDuration *prometheus.HistogramVec
	// EngineFeesEmitted records how many fees each committed cycle produced.
	EngineFeesEmitted prometheus.Histogram
	// EngineReentrantRejects counts recomputation requests rejected while a
	// cycle was already in flight.
	EngineReentrantRejects prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		EngineCyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_cycles_total",
			Help:      "Count of fee computation cycles by outcome.",
		}, []string{"result"})
		EngineCycleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_cycle_duration_ms",
			Help:      "Latency of fee computation cycles in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}, []string{"result"})
		EngineFeesEmitted = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_fees_emitted",
			Help:      "Number of fees present after each committed cycle.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		})
		EngineReentrantRejects = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_reentrant_rejects_total",
			Help:      "Number of re-entrant recomputation requests rejected.",
		})

		mustRegisterCollector(reg, EngineCyclesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				EngineCyclesTotal = v
			}
		})
		mustRegisterCollector(reg, EngineCycleDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				EngineCycleDuration = v
			}
		})
		mustRegisterCollector(reg, EngineFeesEmitted, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				EngineFeesEmitted = v
			}
		})
		mustRegisterCollector(reg, EngineReentrantRejects, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				EngineReentrantRejects = v
			}
		})
	})
}

// ObserveEngineCycle records one cycle outcome. Safe to call before metrics
// registration; it is a no-op until MustRegisterDomainMetrics has run.
func ObserveEngineCycle(result string, d time.Duration, fees int) {
	if EngineCyclesTotal == nil {
		return
	}
	EngineCyclesTotal.WithLabelValues(result).Inc()
	EngineCycleDuration.WithLabelValues(result).Observe(DurationMillis(d))
	if result == "ok" {
		EngineFeesEmitted.Observe(float64(fees))
	}
}

// IncEngineReentrantReject counts a rejected re-entrant invoke. No-op before
// metrics registration.
func IncEngineReentrantReject() {
	if EngineReentrantRejects == nil {
		return
	}
	EngineReentrantRejects.Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
