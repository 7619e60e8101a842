package session

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_sessions_submitted_total",
			Help: "Total number of query sessions submitted",
		},
		[]string{"mode"},
	)
	sessionsResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_sessions_resolved_total",
			Help: "Total number of query sessions committed to the view",
		},
		[]string{"mode", "status"},
	)
	staleResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_stale_responses_total",
			Help: "Total number of responses discarded because a newer session superseded them",
		},
		[]string{"mode"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "console_session_duration_seconds",
			Help: "Time from submit to commit of a query session",
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(sessionsSubmittedTotal)
	prometheus.MustRegister(sessionsResolvedTotal)
	prometheus.MustRegister(staleResponsesTotal)
	prometheus.MustRegister(sessionDuration)
}
