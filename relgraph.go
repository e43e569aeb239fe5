package relgraph

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/siherrmann/relgraph/core/linker"
	"github.com/siherrmann/relgraph/core/pipeline"
	"github.com/siherrmann/relgraph/core/retrieval"
	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	"github.com/siherrmann/relgraph/server"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// Service wires the database handlers, the embedder, the ingestion
// pipeline, the cross-source linker and the query planner into one
// instance backed by a single PostgreSQL database.
type Service struct {
	DB        *helper.Database
	Nodes     *database.NodesDBHandler
	Edges     *database.EdgesDBHandler
	Evidence  *database.EvidenceDBHandler
	Embedder  pipeline.Embedder
	Processor *pipeline.Processor
	Linker    *linker.Linker
	Engine    *retrieval.Engine
	Config    *model.Config
	// Logging
	log *slog.Logger
}

// New creates a fully wired service from the configuration. The
// embedder is remote when EMBEDDING_SERVICE_URL is set and a local
// ONNX model otherwise.
func New(config *model.Config) (*Service, error) {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	dbConfig, err := databaseConfiguration(config)
	if err != nil {
		return nil, helper.NewError("parse database url", err)
	}
	db := helper.NewDatabase("relgraph", dbConfig, logger)

	embedder, err := pipeline.NewEmbedder(config)
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	return NewWithDatabase(db, embedder, config, logger)
}

// databaseConfiguration maps the service configuration onto the
// connection settings, carrying the pool size limit along.
func databaseConfiguration(config *model.Config) (*helper.DatabaseConfiguration, error) {
	dbConfig, err := helper.NewDatabaseConfigurationFromURL(config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	dbConfig.MaxConnections = config.GraphMaxConnections
	return dbConfig, nil
}

// NewWithDatabase creates a service over an existing database
// connection and embedder.
func NewWithDatabase(db *helper.Database, embedder pipeline.Embedder, config *model.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	nodes, err := database.NewNodesDBHandler(db, config.VectorDimension, false)
	if err != nil {
		return nil, helper.NewError("create nodes handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	evidence, err := database.NewEvidenceDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create evidence handler", err)
	}

	return &Service{
		DB:        db,
		Nodes:     nodes,
		Edges:     edges,
		Evidence:  evidence,
		Embedder:  embedder,
		Processor: pipeline.NewProcessor(nodes, edges, embedder, logger),
		Linker:    linker.NewLinker(nodes, edges, evidence, embedder, config, logger),
		Engine:    retrieval.NewEngine(nodes, edges, embedder, config),
		Config:    config,
		log:       logger,
	}, nil
}

// Handler returns the HTTP surface of the service.
func (s *Service) Handler() http.Handler {
	return server.NewServer(s.Processor, s.Linker, s.Engine, s.Nodes, s.Edges, s.Embedder, s.Config, s.log).Handler()
}

// Close closes the database connection and, for a local embedder, the
// model session.
func (s *Service) Close() error {
	if closer, ok := s.Embedder.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.log.Warn("Embedder close failed", "error", err)
		}
	}
	if s.DB != nil && s.DB.Instance != nil {
		return s.DB.Instance.Close()
	}
	return nil
}
