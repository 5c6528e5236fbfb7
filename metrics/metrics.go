// Package metrics defines Prometheus collectors of embedded-analytics sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Keys for status labels.
const (
	Fail = "fail"
	Ok   = "ok"
)

// Collectors for session.Session initialization.
var (
	SessionInitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baroque_session_init_total",
		Help: "Cumulative number of completed session initialization attempts.",
	}, []string{"status"})
	SessionInitFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baroque_session_init_failures_total",
		Help: "Cumulative number of failed session initialization attempts, by step.",
	}, []string{"step"})
	SessionInitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "baroque_session_init_duration_seconds",
		Help:    "Duration of session initialization attempts.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	})
	ImageFetchBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "baroque_image_fetch_bytes_total",
		Help: "Cumulative number of decoded database image bytes fetched.",
	})
	ImageFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baroque_image_fetch_total",
		Help: "Cumulative number of database image fetches, by store provider.",
	}, []string{"provider", "status"})
)

// Collectors for engine.Worker.
var (
	EngineInstancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baroque_engine_instances_total",
		Help: "Cumulative number of engine instantiations, by bundle.",
	}, []string{"bundle"})
	EngineWorkersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "baroque_engine_workers_active",
		Help: "Number of running engine workers.",
	})
)

// Collectors for queries.
var (
	QueryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baroque_query_total",
		Help: "Cumulative number of executed queries.",
	}, []string{"status"})
	QueryRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "baroque_query_rows_total",
		Help: "Cumulative number of rows decoded from query results.",
	})
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "baroque_query_duration_seconds",
		Help:    "Duration of query round trips through the engine worker.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16), // 0.5ms to ~16s
	})
)

// Collectors for the HTTP API.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baroque_api_requests_total",
		Help: "Cumulative number of API requests, by endpoint and response code.",
	}, []string{"endpoint", "code"})
	APICacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "baroque_api_cache_hits_total",
		Help: "Cumulative number of API responses served from the response cache.",
	})
)
