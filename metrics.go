package portfoliolive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VisitsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_visits_recorded_total",
		Help: "Visit requests by outcome (new, repeat, rejected).",
	}, []string{"outcome"})
	VisitorCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portfolio_visitor_count",
		Help: "The current persisted visitor count.",
	})
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portfolio_sessions_active",
		Help: "Sessions currently held by the registry.",
	})
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_sessions_swept_total",
		Help: "Expired sessions removed by the sweeper.",
	})
	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portfolio_live_subscribers",
		Help: "Connected live-update subscribers.",
	})
	SubscribersDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_live_subscribers_dropped_total",
		Help: "Live subscribers removed after a failed send.",
	})
	PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_persist_failures_total",
		Help: "Failed record writes by record name.",
	}, []string{"record"})
)
