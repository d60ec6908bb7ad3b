// Package metrics holds the pipeline's prometheus counters. Each
// component increments its own set; every service exposes them on
// GET /metrics via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "ingest",
		Name:      "events_accepted_total",
		Help:      "Events validated and handed to the queue.",
	})

	EventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "ingest",
		Name:      "events_rejected_total",
		Help:      "Events rejected by request validation.",
	})

	QueuePushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "ingest",
		Name:      "queue_push_errors_total",
		Help:      "Enqueue attempts that failed because the queue was unreachable.",
	})

	EventsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "worker",
		Name:      "events_persisted_total",
		Help:      "Queue entries parsed and inserted into the store.",
	})

	EventsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "worker",
		Name:      "events_discarded_total",
		Help:      "Malformed queue entries dropped after a failed parse.",
	})

	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "worker",
		Name:      "persist_failures_total",
		Help:      "Insert attempts that failed after the entry was popped; the entry is lost.",
	})

	StatsQueries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "report",
		Name:      "stats_queries_total",
		Help:      "Stats requests answered from the store.",
	})
)
