// Package metrics exposes Prometheus instrumentation for the content service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service counters on a private registry.
type Collector struct {
	PostsPublished  prometheus.Counter
	PublishFailures prometheus.Counter
	MetricsSynced   prometheus.Counter
	SyncFailures    prometheus.Counter
	TokenRefreshes  prometheus.Counter

	registry *prometheus.Registry
}

// NewCollector creates and registers the service counters.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Collector{
		PostsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "content_posts_published_total",
			Help: "Posts successfully published to the platform.",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "content_publish_failures_total",
			Help: "Publish attempts that transitioned a post to failed.",
		}),
		MetricsSynced: factory.NewCounter(prometheus.CounterOpts{
			Name: "content_metrics_synced_total",
			Help: "Per-post engagement metric refreshes completed.",
		}),
		SyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "content_metrics_sync_failures_total",
			Help: "Per-post engagement metric refreshes that failed.",
		}),
		TokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "content_token_refreshes_total",
			Help: "Access-token refresh exchanges performed.",
		}),
		registry: registry,
	}
}

// Handler returns the scrape endpoint for the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
