package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Question sources.
const (
	SourceAI       = "ai"
	SourcePool     = "pool"
	SourceTemplate = "template"
	SourceOpen     = "open"
)

// Ranking outcomes.
const (
	OutcomeRanked   = "ranked"
	OutcomeFallback = "fallback"
	OutcomeEmpty    = "empty"
)

var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_started_total",
			Help: "Total number of interview sessions started",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of interview sessions currently held in memory",
		},
	)

	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_transitions_total",
			Help: "Total number of interview stage transitions by target stage",
		},
		[]string{"stage"},
	)

	Questions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questions_total",
			Help: "Total number of questions asked by phrasing source",
		},
		[]string{"source"},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborator_failures_total",
			Help: "Total number of failed or timed out collaborator calls",
		},
		[]string{"collaborator"},
	)

	Rankings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rankings_total",
			Help: "Total number of final rankings by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
