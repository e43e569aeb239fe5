package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters and the request duration
// histogram, registered on a dedicated registry so multiple server
// instances can coexist.
type Metrics struct {
	registry *prometheus.Registry

	ChunksIngested       prometheus.Counter
	EntitiesExtracted    prometheus.Counter
	RelationshipsCreated prometheus.Counter
	VectorsStored        prometheus.Counter
	LinksCreated         prometheus.Counter
	Searches             *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// NewMetrics creates and registers the service metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ChunksIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_chunks_ingested_total",
			Help: "Chunks written to the graph.",
		}),
		EntitiesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_entities_extracted_total",
			Help: "Entities extracted from ingested chunks.",
		}),
		RelationshipsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_relationships_created_total",
			Help: "Relationships created during ingest.",
		}),
		VectorsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_vectors_stored_total",
			Help: "Embeddings stored on chunk nodes.",
		}),
		LinksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relgraph_cross_source_links_total",
			Help: "Cross-source links created.",
		}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relgraph_searches_total",
			Help: "Search requests by mode.",
		}, []string{"mode"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relgraph_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.ChunksIngested,
		m.EntitiesExtracted,
		m.RelationshipsCreated,
		m.VectorsStored,
		m.LinksCreated,
		m.Searches,
		m.RequestDuration,
	)

	return m
}

// Handler returns the exposition endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
