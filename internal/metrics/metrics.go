// Package metrics registers the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "filesmanager"

var (
	FilesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_created_total",
		Help:      "File records created, by type.",
	}, []string{"type"})

	Sessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Session events: created, ended, rejected.",
	}, []string{"event"})

	Jobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_total",
		Help:      "Queue jobs by queue and terminal status.",
	}, []string{"queue", "status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
