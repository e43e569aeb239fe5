package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/siherrmann/relgraph/core/linker"
	"github.com/siherrmann/relgraph/core/pipeline"
	"github.com/siherrmann/relgraph/core/retrieval"
	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/model"
)

const serviceName = "relgraph"
const serviceVersion = "0.2.0"

// Server wires the ingestion pipeline, the cross-source linker and the
// query planner to the HTTP surface.
type Server struct {
	processor *pipeline.Processor
	linker    *linker.Linker
	engine    *retrieval.Engine
	nodes     database.NodesDBHandlerFunctions
	edges     database.EdgesDBHandlerFunctions
	embedder  pipeline.Embedder
	config    *model.Config
	logger    *slog.Logger
	metrics   *Metrics
}

// NewServer creates a server over the given components.
func NewServer(
	processor *pipeline.Processor,
	crossLinker *linker.Linker,
	engine *retrieval.Engine,
	nodes database.NodesDBHandlerFunctions,
	edges database.EdgesDBHandlerFunctions,
	embedder pipeline.Embedder,
	config *model.Config,
	logger *slog.Logger,
) *Server {
	return &Server{
		processor: processor,
		linker:    crossLinker,
		engine:    engine,
		nodes:     nodes,
		edges:     edges,
		embedder:  embedder,
		config:    config,
		logger:    logger,
		metrics:   NewMetrics(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("POST /api/graph/chunks", s.instrument("/api/graph/chunks", s.handleIngestChunks))
	mux.HandleFunc("POST /api/graph/entities", s.instrument("/api/graph/entities", s.handleCreateEntity))
	mux.HandleFunc("GET /api/graph/entities/{id}", s.instrument("/api/graph/entities/{id}", s.handleGetEntity))
	mux.HandleFunc("GET /api/graph/entities/{id}/neighbors", s.instrument("/api/graph/entities/{id}/neighbors", s.handleEntityNeighbors))
	mux.HandleFunc("POST /api/graph/relationships", s.instrument("/api/graph/relationships", s.handleCreateRelationship))
	mux.HandleFunc("POST /api/graph/link", s.instrument("/api/graph/link", s.handleLink))
	mux.HandleFunc("POST /api/search", s.instrument("/api/search", s.handleHybridSearch))
	mux.HandleFunc("POST /api/search/vector", s.instrument("/api/search/vector", s.handleVectorSearch))
	mux.HandleFunc("POST /api/search/graph", s.instrument("/api/search/graph", s.handleGraphSearch))
	mux.HandleFunc("GET /api/graph/statistics", s.instrument("/api/graph/statistics", s.handleStatistics))
	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

// instrument records the request duration per route.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.metrics.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	}
}
