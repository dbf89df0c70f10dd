package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests     *prometheus.CounterVec
	translations *prometheus.CounterVec
	translateDur prometheus.Histogram
	leaflets     *prometheus.CounterVec
	documents    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaftran_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaftran_translations_total",
				Help: "Paragraph translations by outcome (translated, cached, failed).",
			},
			[]string{"outcome"},
		),
		translateDur: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leaftran_translation_duration_seconds",
				Help:    "Time spent translating one paragraph.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		leaflets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaftran_leaflet_operations_total",
				Help: "Leaflet store operations by kind and outcome.",
			},
			[]string{"op", "outcome"},
		),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaftran_documents_total",
				Help: "Generated documents by outcome.",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.requests, m.translations, m.translateDur, m.leaflets, m.documents)
	return m
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *metrics) observeTranslation(outcome string, elapsed time.Duration) {
	m.translations.WithLabelValues(outcome).Inc()
	m.translateDur.Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
