package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Счётчик запросов к внешнему каталогу
	CatalogRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of requests to the external movie catalog",
		},
		[]string{"operation", "status"},
	)

	// Гистограмма времени ответа каталога
	CatalogDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Duration of external catalog requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(CatalogRequests, CatalogDuration)
}
