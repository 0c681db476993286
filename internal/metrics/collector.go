// Package metrics exposes search progress as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/GoSim-25-26J-441/replay-search/internal/engine"
	"github.com/GoSim-25-26J-441/replay-search/internal/space"
	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "replay_search"

// Collector records controller milestones. Each collector owns its registry so
// several workers can run in one process.
type Collector struct {
	registry *prometheus.Registry

	iterations        prometheus.Counter
	concluded         *prometheus.CounterVec
	iterationLength   prometheus.Histogram
	goals             *prometheus.CounterVec
	restarts          *prometheus.CounterVec
	checkpoints       prometheus.Counter
	finishes          prometheus.Counter
	bestTime          prometheus.Gauge
	improvements      prometheus.Counter
	horizon           prometheus.Gauge
	horizonExtensions prometheus.Counter
	horizonClamps     prometheus.Counter
	snapshots         prometheus.Counter
	pass              prometheus.Gauge
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates a collector labelled with the worker name
func NewCollector(worker string) *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels{"worker": worker}

	return &Collector{
		registry: reg,
		iterations: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "iterations_total",
			Help:        "Iterations started",
			ConstLabels: labels,
		}),
		concluded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "iterations_concluded_total",
			Help:        "Iterations concluded, by reason",
			ConstLabels: labels,
		}, []string{"reason"}),
		iterationLength: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "iteration_length_ms",
			Help:        "Simulated time at which iterations concluded",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1000, 2, 12),
		}),
		goals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "goals_reached_total",
			Help:        "Goals reached, by goal",
			ConstLabels: labels,
		}, []string{"goal"}),
		restarts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "restarts_total",
			Help:        "Iterations aborted by a restart trigger, by trigger",
			ConstLabels: labels,
		}, []string{"restart"}),
		checkpoints: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "checkpoints_total",
			Help:        "Checkpoints reached",
			ConstLabels: labels,
		}),
		finishes: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "finishes_total",
			Help:        "Runs that reached the final checkpoint",
			ConstLabels: labels,
		}),
		bestTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "best_time_ms",
			Help:        "Best finish time found",
			ConstLabels: labels,
		}),
		improvements: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "best_time_improvements_total",
			Help:        "Times the best finish time improved",
			ConstLabels: labels,
		}),
		horizon: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "horizon_ms",
			Help:        "Horizon of the current iteration",
			ConstLabels: labels,
		}),
		horizonExtensions: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "horizon_extensions_total",
			Help:        "Horizon extensions from goals and checkpoints",
			ConstLabels: labels,
		}),
		horizonClamps: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "horizon_clamps_total",
			Help:        "Horizons clamped to the maximum simulation time",
			ConstLabels: labels,
		}),
		snapshots: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "snapshots_total",
			Help:        "Start states captured",
			ConstLabels: labels,
		}),
		pass: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "enumeration_pass",
			Help:        "Zero-based pass over the shard",
			ConstLabels: labels,
		}),
	}
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) IterationStarted(_ int64, _ space.CandidateSequence, horizon int64) {
	c.iterations.Inc()
	c.horizon.Set(float64(horizon))
}

func (c *Collector) IterationConcluded(_ models.IterationRecord, reason engine.ConcludeReason, t int64) {
	c.concluded.WithLabelValues(string(reason)).Inc()
	c.iterationLength.Observe(float64(t))
}

func (c *Collector) GoalReached(_ int, name string, _ int64) {
	c.goals.WithLabelValues(name).Inc()
}

func (c *Collector) RestartTriggered(name string, _ int64) {
	c.restarts.WithLabelValues(name).Inc()
}

func (c *Collector) CheckpointReached(current, target int, _ int64) {
	c.checkpoints.Inc()
	if current == target {
		c.finishes.Inc()
	}
}

func (c *Collector) NewBest(raceTime int64, _ space.CandidateSequence) {
	c.bestTime.Set(float64(raceTime))
	c.improvements.Inc()
}

// SeedBest publishes a best time restored from storage
func (c *Collector) SeedBest(raceTime int64) {
	c.bestTime.Set(float64(raceTime))
}

func (c *Collector) SnapshotCaptured(int64) {
	c.snapshots.Inc()
}

func (c *Collector) HorizonExtended(horizon int64) {
	c.horizonExtensions.Inc()
	c.horizon.Set(float64(horizon))
}

func (c *Collector) HorizonClamped(int64) {
	c.horizonClamps.Inc()
}

func (c *Collector) EnumerationWrapped(pass uint64) {
	c.pass.Set(float64(pass))
}
