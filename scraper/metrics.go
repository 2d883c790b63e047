package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry              *prometheus.Registry
	IterationsTotal       prometheus.Counter
	StallsTotal           prometheus.Counter
	RecoveriesTotal       prometheus.Counter
	CheckpointsTotal      prometheus.Counter
	CardsRendered         prometheus.Gauge
	ActorsCapturedTotal   prometheus.Counter
	ExtractionErrorsTotal *prometheus.CounterVec
	ErrorsTotal           *prometheus.CounterVec
	TargetActors          prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	iterations := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_scroll_iterations_total",
			Help: "Total scroll iterations performed.",
		},
	)
	stalls := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_stalls_total",
			Help: "Iterations that rendered no additional cards.",
		},
	)
	recoveries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_recoveries_total",
			Help: "Recovery interactions attempted after repeated stalls.",
		},
	)
	checkpoints := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_checkpoints_total",
			Help: "Intermediate record-set snapshots written.",
		},
	)
	cardsRendered := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_cards_rendered",
			Help: "Cards currently rendered on the listing page.",
		},
	)
	actorsCaptured := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_actors_captured_total",
			Help: "Unique actor records captured.",
		},
	)
	extractionErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_extraction_errors_total",
			Help: "Per-card extraction failures by field.",
		},
		[]string{"field"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	targetActors := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_target_actors",
			Help: "Informational total actor count read from the page text.",
		},
	)

	registry.MustRegister(iterations, stalls, recoveries, checkpoints,
		cardsRendered, actorsCaptured, extractionErrors, errorsTotal, targetActors)

	return &Metrics{
		Registry:              registry,
		IterationsTotal:       iterations,
		StallsTotal:           stalls,
		RecoveriesTotal:       recoveries,
		CheckpointsTotal:      checkpoints,
		CardsRendered:         cardsRendered,
		ActorsCapturedTotal:   actorsCaptured,
		ExtractionErrorsTotal: extractionErrors,
		ErrorsTotal:           errorsTotal,
		TargetActors:          targetActors,
	}
}

// IncIteration increments the scroll iteration counter.
func (m *Metrics) IncIteration() {
	if m == nil {
		return
	}
	m.IterationsTotal.Inc()
}

// IncStall increments the stall counter.
func (m *Metrics) IncStall() {
	if m == nil {
		return
	}
	m.StallsTotal.Inc()
}

// IncRecovery increments the recovery counter.
func (m *Metrics) IncRecovery() {
	if m == nil {
		return
	}
	m.RecoveriesTotal.Inc()
}

// IncCheckpoint increments the checkpoint counter.
func (m *Metrics) IncCheckpoint() {
	if m == nil {
		return
	}
	m.CheckpointsTotal.Inc()
}

// SetCardsRendered records the currently rendered card count.
func (m *Metrics) SetCardsRendered(n int) {
	if m == nil {
		return
	}
	m.CardsRendered.Set(float64(n))
}

// IncActors increments the captured actor counter.
func (m *Metrics) IncActors() {
	if m == nil {
		return
	}
	m.ActorsCapturedTotal.Inc()
}

// IncExtractionError increments the extraction error counter for a field.
func (m *Metrics) IncExtractionError(field string) {
	if m == nil {
		return
	}
	m.ExtractionErrorsTotal.WithLabelValues(field).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetTarget records the informational target count.
func (m *Metrics) SetTarget(n int) {
	if m == nil {
		return
	}
	m.TargetActors.Set(float64(n))
}
