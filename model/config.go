package model

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries the full service configuration, loaded from the
// environment with spec'd defaults. DATABASE_URL is the only required
// variable; everything else has a usable default.
type Config struct {
	// Server
	Port int
	Host string

	// Backing store (graph + vector + relational, one PostgreSQL)
	DatabaseURL         string
	GraphMaxConnections int

	// Vectors
	VectorDimension int

	// Collaborator services
	EmbeddingServiceURL     string
	ChunkerServiceURL       string
	DataConnectorServiceURL string

	// Cross-source linking
	SimilarityThreshold    float64
	MaxCrossLinksPerChunk  int
	EnableTemporalProximity bool
	EnableExplicitMentions  bool
	EnableAuthorOverlap     bool
	TemporalProximityDays   int
	ExplicitMentionBoost    float64
	TemporalProximityBoost  float64
	AuthorOverlapBoost      float64

	// Graph traversal
	MaxGraphHops            int
	MaxEntitiesPerTraversal int
}

// ConfigFromEnv reads the configuration from environment variables.
// It fails only on missing DATABASE_URL or unparseable values.
func ConfigFromEnv() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	c := &Config{
		Host:                    envString("HOST", "0.0.0.0"),
		DatabaseURL:             databaseURL,
		EmbeddingServiceURL:     envString("EMBEDDING_SERVICE_URL", ""),
		ChunkerServiceURL:       envString("CHUNKER_SERVICE_URL", "http://localhost:3017"),
		DataConnectorServiceURL: envString("DATA_CONNECTOR_SERVICE_URL", "http://localhost:3013"),
		ExplicitMentionBoost:    0.15,
		TemporalProximityBoost:  0.10,
		AuthorOverlapBoost:      0.10,
	}

	var err error
	if c.Port, err = envInt("PORT", 3018); err != nil {
		return nil, err
	}
	if c.GraphMaxConnections, err = envInt("GRAPH_MAX_CONNECTIONS", 10); err != nil {
		return nil, err
	}
	if c.VectorDimension, err = envInt("VECTOR_DIMENSION", 384); err != nil {
		return nil, err
	}
	if c.SimilarityThreshold, err = envFloat("SIMILARITY_THRESHOLD", 0.75); err != nil {
		return nil, err
	}
	if c.MaxCrossLinksPerChunk, err = envInt("MAX_CROSS_LINKS_PER_CHUNK", 5); err != nil {
		return nil, err
	}
	if c.EnableTemporalProximity, err = envBool("ENABLE_TEMPORAL_PROXIMITY", true); err != nil {
		return nil, err
	}
	if c.EnableExplicitMentions, err = envBool("ENABLE_EXPLICIT_MENTIONS", true); err != nil {
		return nil, err
	}
	if c.EnableAuthorOverlap, err = envBool("ENABLE_AUTHOR_OVERLAP", true); err != nil {
		return nil, err
	}
	if c.TemporalProximityDays, err = envInt("TEMPORAL_PROXIMITY_DAYS", 7); err != nil {
		return nil, err
	}
	if c.MaxGraphHops, err = envInt("MAX_GRAPH_HOPS", 2); err != nil {
		return nil, err
	}
	if c.MaxEntitiesPerTraversal, err = envInt("MAX_ENTITIES_PER_TRAVERSAL", 50); err != nil {
		return nil, err
	}

	return c, nil
}

// DefaultLinkerConfig returns linking parameters with spec'd defaults,
// used when no environment is involved (library and test use).
func DefaultLinkerConfig() *Config {
	return &Config{
		SimilarityThreshold:     0.75,
		MaxCrossLinksPerChunk:   5,
		EnableTemporalProximity: true,
		EnableExplicitMentions:  true,
		EnableAuthorOverlap:     true,
		TemporalProximityDays:   7,
		ExplicitMentionBoost:    0.15,
		TemporalProximityBoost:  0.10,
		AuthorOverlapBoost:      0.10,
		MaxGraphHops:            2,
		MaxEntitiesPerTraversal: 50,
		VectorDimension:         384,
		GraphMaxConnections:     10,
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
