package model

import (
	"github.com/google/uuid"
)

// Traversal directions for graph search.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionBoth     = "both"
)

// SearchOptions configure the hybrid query planner.
type SearchOptions struct {
	// Maximum number of vector results.
	Limit int `json:"limit,omitempty"`
	// Number of hops for graph expansion.
	GraphHops int `json:"graph_hops,omitempty"`
	// Filter by source kind: "code", "document" or "all".
	SourceKind string `json:"source_kind,omitempty"`
	// Filter by specific source types (e.g. ["github", "notion"]).
	SourceTypes []string `json:"source_types,omitempty"`
	// Filter by repository name.
	RepoFilter string `json:"repo_filter,omitempty"`
	// Filter by owner id.
	OwnerID string `json:"owner_id,omitempty"`
	// Include cross-source relationships in results (default true).
	IncludeCrossSource *bool `json:"include_cross_source,omitempty"`
	// Minimum similarity threshold for vector results.
	MinSimilarity float64 `json:"min_similarity,omitempty"`
}

// Normalize applies the documented defaults in place and returns the options.
func (o *SearchOptions) Normalize() *SearchOptions {
	if o.Limit <= 0 {
		o.Limit = 10
	}
	if o.GraphHops <= 0 {
		o.GraphHops = 2
	}
	if o.SourceKind == "" {
		o.SourceKind = "all"
	}
	if o.IncludeCrossSource == nil {
		t := true
		o.IncludeCrossSource = &t
	}
	return o
}

// HybridSearchRequest is the request body for POST /api/search.
type HybridSearchRequest struct {
	Query string `json:"query"`
	SearchOptions
}

// ChunkResult is a single vector hit with its score.
type ChunkResult struct {
	ChunkID         uuid.UUID `json:"chunk_id"`
	Content         string    `json:"content"`
	SourceKind      string    `json:"source_kind"`
	SourceType      string    `json:"source_type"`
	FilePath        string    `json:"file_path,omitempty"`
	RepoName        string    `json:"repo_name,omitempty"`
	Language        string    `json:"language,omitempty"`
	HeadingPath     string    `json:"heading_path,omitempty"`
	SimilarityScore float64   `json:"similarity_score"`
}

// EntityResult is an entity reached by graph expansion.
type EntityResult struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entity_type"`
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	Properties Metadata  `json:"properties,omitempty"`
}

// RelationshipResult is an edge surfaced by graph expansion.
type RelationshipResult struct {
	FromID           uuid.UUID `json:"from_id"`
	ToID             uuid.UUID `json:"to_id"`
	FromName         string    `json:"from_name"`
	ToName           string    `json:"to_name"`
	RelationshipType string    `json:"relationship_type"`
	Confidence       float64   `json:"confidence"`
	IsCrossSource    bool      `json:"is_cross_source"`
}

// NeighborNode is one row of a graph expansion: a reached node, the
// edge it was first reached through and the hop distance.
type NeighborNode struct {
	NodeID     uuid.UUID `json:"node_id"`
	EntityType string    `json:"entity_type"`
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	Properties Metadata  `json:"properties,omitempty"`
	FromID     uuid.UUID `json:"from_id"`
	ToID       uuid.UUID `json:"to_id"`
	RelType    string    `json:"rel_type"`
	Confidence float64   `json:"confidence"`
	Hop        int       `json:"hop"`
}

// SearchMetadata reports how the plan executed.
type SearchMetadata struct {
	Query                 string `json:"query"`
	VectorResultsCount    int    `json:"vector_results_count"`
	GraphEntitiesCount    int    `json:"graph_entities_count"`
	GraphHopsPerformed    int    `json:"graph_hops_performed"`
	CrossSourceLinksCount int    `json:"cross_source_links_count"`
	ExecutionTimeMs       int64  `json:"execution_time_ms"`
}

// HybridSearchResponse is the assembled two-stage result.
type HybridSearchResponse struct {
	Chunks           []ChunkResult        `json:"chunks"`
	RelatedEntities  []EntityResult       `json:"related_entities"`
	Relationships    []RelationshipResult `json:"relationships"`
	CrossSourceLinks []SemanticLink       `json:"cross_source_links"`
	Metadata         SearchMetadata       `json:"metadata"`
}

// VectorSearchRequest is the request body for POST /api/search/vector.
type VectorSearchRequest struct {
	Query       string   `json:"query"`
	Limit       int      `json:"limit,omitempty"`
	SourceKind  string   `json:"source_kind,omitempty"`
	SourceTypes []string `json:"source_types,omitempty"`
	OwnerID     string   `json:"owner_id,omitempty"`
}

// VectorSearchResponse is the vector-only result set.
type VectorSearchResponse struct {
	Results    []ChunkResult `json:"results"`
	TotalCount int           `json:"total_count"`
}

// GraphSearchRequest is the request body for POST /api/search/graph.
type GraphSearchRequest struct {
	StartEntities     []string `json:"start_entities"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	Direction         string   `json:"direction,omitempty"`
	Hops              int      `json:"hops,omitempty"`
	Limit             int      `json:"limit,omitempty"`
}

// Normalize applies the documented defaults in place and returns the request.
func (r *GraphSearchRequest) Normalize() *GraphSearchRequest {
	if r.Direction == "" {
		r.Direction = DirectionBoth
	}
	if r.Hops <= 0 {
		r.Hops = 2
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	return r
}

// GraphPath is a path through the graph.
type GraphPath struct {
	Nodes           []uuid.UUID `json:"nodes"`
	Relationships   []string    `json:"relationships"`
	TotalConfidence float64     `json:"total_confidence"`
}

// GraphSearchResponse is the graph-only result set.
type GraphSearchResponse struct {
	Entities      []EntityResult       `json:"entities"`
	Relationships []RelationshipResult `json:"relationships"`
	Paths         []GraphPath          `json:"paths"`
}

// CrossSourceLinkRequest triggers re-linking over stored chunks.
type CrossSourceLinkRequest struct {
	ChunkIDs       []uuid.UUID `json:"chunk_ids,omitempty"`
	Force          bool        `json:"force,omitempty"`
	FromSourceKind string      `json:"from_source_kind,omitempty"`
	ToSourceKind   string      `json:"to_source_kind,omitempty"`
}

// CrossSourceLinkResponse reports a re-linking pass.
type CrossSourceLinkResponse struct {
	LinksCreated    int      `json:"links_created"`
	ChunksProcessed int      `json:"chunks_processed"`
	Errors          []string `json:"errors"`
}
