package retrieval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/core/graph"
	"github.com/siherrmann/relgraph/core/pipeline"
	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// Engine is the two-stage query planner: dense vector recall composed
// with bounded graph expansion and cross-source edge gathering.
type Engine struct {
	nodes    database.NodesDBHandlerFunctions
	edges    database.EdgesDBHandlerFunctions
	embedder pipeline.Embedder
	config   *model.Config
}

// NewEngine creates a retrieval engine.
func NewEngine(nodes database.NodesDBHandlerFunctions, edges database.EdgesDBHandlerFunctions, embedder pipeline.Embedder, config *model.Config) *Engine {
	return &Engine{
		nodes:    nodes,
		edges:    edges,
		embedder: embedder,
		config:   config,
	}
}

// HybridSearch runs the full plan: embed the query, recall chunks by
// vector similarity, expand the graph around the hits, gather their
// cross-source edges and assemble the deduplicated response.
func (e *Engine) HybridSearch(ctx context.Context, request *model.HybridSearchRequest) (*model.HybridSearchResponse, error) {
	start := time.Now()
	options := request.SearchOptions.Normalize()

	embedding, err := e.embedder.Embed(ctx, request.Query)
	if err != nil {
		return nil, model.NewGraphError(model.ErrEmbedding, "embed query", err)
	}

	hits, err := e.nodes.SearchChunks(embedding, options.Limit, options.SourceKind, options.SourceTypes, options.OwnerID, options.MinSimilarity)
	if err != nil {
		return nil, helper.NewError("vector recall", err)
	}
	if options.RepoFilter != "" {
		filtered := []*model.ChunkResult{}
		for _, hit := range hits {
			if hit.RepoName == options.RepoFilter {
				filtered = append(filtered, hit)
			}
		}
		hits = filtered
	}

	chunkIDs := make([]uuid.UUID, 0, len(hits))
	chunks := make([]model.ChunkResult, 0, len(hits))
	for _, hit := range hits {
		chunkIDs = append(chunkIDs, hit.ChunkID)
		chunks = append(chunks, *hit)
	}

	hops := options.GraphHops
	if e.config.MaxGraphHops > 0 && hops > e.config.MaxGraphHops {
		hops = e.config.MaxGraphHops
	}

	entities := []model.EntityResult{}
	relationships := []model.RelationshipResult{}
	if len(chunkIDs) > 0 {
		neighbors, err := e.edges.GetNeighbors(chunkIDs, nil, model.DirectionBoth, hops, e.config.MaxEntitiesPerTraversal)
		if err != nil {
			return nil, helper.NewError("graph expansion", err)
		}
		entities, relationships = assembleNeighbors(neighbors)
	}

	links := []model.SemanticLink{}
	if *options.IncludeCrossSource && len(chunkIDs) > 0 {
		crossSource, err := e.edges.CrossSourceRelationships(chunkIDs)
		if err != nil {
			return nil, helper.NewError("cross-source gathering", err)
		}
		for _, rel := range crossSource {
			links = append(links, model.SemanticLink{
				FromChunkID:      rel.FromID,
				ToChunkID:        rel.ToID,
				RelationshipType: rel.RelationshipType,
				Confidence:       rel.Confidence,
			})
		}
	}

	return &model.HybridSearchResponse{
		Chunks:           chunks,
		RelatedEntities:  entities,
		Relationships:    relationships,
		CrossSourceLinks: links,
		Metadata: model.SearchMetadata{
			Query:                 request.Query,
			VectorResultsCount:    len(chunks),
			GraphEntitiesCount:    len(entities),
			GraphHopsPerformed:    hops,
			CrossSourceLinksCount: len(links),
			ExecutionTimeMs:       time.Since(start).Milliseconds(),
		},
	}, nil
}

// VectorSearch runs the recall stage alone.
func (e *Engine) VectorSearch(ctx context.Context, request *model.VectorSearchRequest) (*model.VectorSearchResponse, error) {
	limit := request.Limit
	if limit <= 0 {
		limit = 10
	}
	sourceKind := request.SourceKind
	if sourceKind == "" {
		sourceKind = "all"
	}

	embedding, err := e.embedder.Embed(ctx, request.Query)
	if err != nil {
		return nil, model.NewGraphError(model.ErrEmbedding, "embed query", err)
	}

	hits, err := e.nodes.SearchChunks(embedding, limit, sourceKind, request.SourceTypes, request.OwnerID, 0)
	if err != nil {
		return nil, helper.NewError("vector search", err)
	}

	results := make([]model.ChunkResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, *hit)
	}

	return &model.VectorSearchResponse{
		Results:    results,
		TotalCount: len(results),
	}, nil
}

// GraphSearch runs the expansion stage alone, from explicit start
// entities with an optional relationship type filter.
func (e *Engine) GraphSearch(ctx context.Context, request *model.GraphSearchRequest) (*model.GraphSearchResponse, error) {
	request.Normalize()

	// Start entities are addressed by node id or by entity name; names
	// resolve to every entity carrying them.
	startIDs := make([]uuid.UUID, 0, len(request.StartEntities))
	for _, raw := range request.StartEntities {
		if id, err := uuid.Parse(raw); err == nil {
			startIDs = append(startIDs, id)
			continue
		}
		ids, err := e.nodes.SelectEntityIDsByName(raw)
		if err != nil {
			return nil, helper.NewError("resolve start entity", err)
		}
		if len(ids) == 0 {
			return nil, model.NewGraphError(model.ErrEntityNotFound, "start entity not found: "+raw, nil)
		}
		startIDs = append(startIDs, ids...)
	}
	if len(startIDs) == 0 {
		return nil, model.NewGraphError(model.ErrInvalidRequest, "start_entities must not be empty", nil)
	}

	relTypes := make([]string, 0, len(request.RelationshipTypes))
	for _, raw := range request.RelationshipTypes {
		relType, ok := model.ParseRelationshipType(raw)
		if !ok {
			return nil, model.NewGraphError(model.ErrInvalidRelationshipType, "invalid relationship type: "+raw, nil)
		}
		relTypes = append(relTypes, string(relType))
	}

	switch request.Direction {
	case model.DirectionOutgoing, model.DirectionIncoming, model.DirectionBoth:
	default:
		return nil, model.NewGraphError(model.ErrInvalidRequest, "invalid direction: "+request.Direction, nil)
	}

	neighbors, err := e.edges.GetNeighbors(startIDs, relTypes, request.Direction, request.Hops, request.Limit)
	if err != nil {
		return nil, helper.NewError("graph traversal", err)
	}
	entities, relationships := assembleNeighbors(neighbors)

	paths := []model.GraphPath{}
	for _, startID := range startIDs {
		startPaths, err := graph.BFS(ctx, e.edges, startID, graph.TraversalOptions{
			MaxHops:   request.Hops,
			MaxNodes:  request.Limit,
			RelTypes:  relTypes,
			Direction: request.Direction,
		})
		if err != nil {
			return nil, helper.NewError("path traversal", err)
		}
		paths = append(paths, startPaths...)
	}

	return &model.GraphSearchResponse{
		Entities:      entities,
		Relationships: relationships,
		Paths:         paths,
	}, nil
}

// assembleNeighbors turns traversal rows into deduplicated entity and
// relationship lists: entities by id, relationships by (from, to, type).
func assembleNeighbors(neighbors []*model.NeighborNode) ([]model.EntityResult, []model.RelationshipResult) {
	entities := []model.EntityResult{}
	seenEntities := map[uuid.UUID]bool{}
	relationships := []model.RelationshipResult{}
	seenRelationships := map[string]bool{}

	for _, neighbor := range neighbors {
		if !seenEntities[neighbor.NodeID] {
			seenEntities[neighbor.NodeID] = true
			entities = append(entities, model.EntityResult{
				ID:         neighbor.NodeID,
				EntityType: neighbor.EntityType,
				Name:       neighbor.Name,
				Source:     neighbor.Source,
				Properties: neighbor.Properties,
			})
		}

		key := neighbor.FromID.String() + "|" + neighbor.ToID.String() + "|" + neighbor.RelType
		if !seenRelationships[key] {
			seenRelationships[key] = true
			isCrossSource := false
			if relType, ok := model.ParseRelationshipType(neighbor.RelType); ok {
				isCrossSource = relType.IsCrossSource()
			}
			relationship := model.RelationshipResult{
				FromID:           neighbor.FromID,
				ToID:             neighbor.ToID,
				RelationshipType: neighbor.RelType,
				Confidence:       neighbor.Confidence,
				IsCrossSource:    isCrossSource,
			}
			if neighbor.ToID == neighbor.NodeID {
				relationship.ToName = neighbor.Name
			} else {
				relationship.FromName = neighbor.Name
			}
			relationships = append(relationships, relationship)
		}
	}

	return entities, relationships
}
