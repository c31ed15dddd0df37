package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("petalpath.api")

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	gamesCreated   prometheus.Counter
	actionsApplied *prometheus.CounterVec
	solvesTotal    *prometheus.CounterVec
	solveDuration  *prometheus.HistogramVec
	solveActions   *prometheus.HistogramVec
	lockConflicts  prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		gamesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "petalpath_games_created_total",
			Help: "Games created.",
		}),
		actionsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petalpath_actions_applied_total",
			Help: "Actions committed to games, by source and result.",
		}, []string{"source", "ok"}),
		solvesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petalpath_solves_total",
			Help: "Solver runs, by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		solveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "petalpath_solve_duration_seconds",
			Help:    "Time spent planning.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"strategy"}),
		solveActions: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "petalpath_solve_actions",
			Help:    "Length of planned action logs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"strategy"}),
		lockConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "petalpath_game_lock_conflicts_total",
			Help: "Writes rejected because the game was locked.",
		}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeSolve(strategy, outcome string, actions int, took time.Duration) {
	m.solvesTotal.WithLabelValues(strategy, outcome).Inc()
	m.solveDuration.WithLabelValues(strategy).Observe(took.Seconds())
	m.solveActions.WithLabelValues(strategy).Observe(float64(actions))
}

func (m *Metrics) observeAction(source string, ok bool) {
	label := "false"
	if ok {
		label = "true"
	}
	m.actionsApplied.WithLabelValues(source, label).Inc()
}
