package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/core/extractor"
	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// Processor runs the ingestion flow for chunks: upsert, embedding,
// entity extraction and relationship creation.
type Processor struct {
	nodes    database.NodesDBHandlerFunctions
	edges    database.EdgesDBHandlerFunctions
	embedder Embedder
	logger   *slog.Logger
}

// NewProcessor creates an ingestion processor.
func NewProcessor(nodes database.NodesDBHandlerFunctions, edges database.EdgesDBHandlerFunctions, embedder Embedder, logger *slog.Logger) *Processor {
	return &Processor{
		nodes:    nodes,
		edges:    edges,
		embedder: embedder,
		logger:   logger,
	}
}

// ChunkOutcome reports what happened to one chunk during ingestion.
// Errors carries the non-fatal failures (embedding, single edges).
type ChunkOutcome struct {
	Chunk                *model.Chunk
	Embedding            []float32
	VectorStored         bool
	EntitiesExtracted    int
	RelationshipsCreated int
	Errors               []string
}

// IngestChunks processes a batch of chunks. A batch is a report, not a
// transaction: failures of single chunks are collected in the response
// error list and the rest of the batch proceeds. The ingested chunks
// are returned with their embeddings for cross-source linking.
func (p *Processor) IngestChunks(ctx context.Context, request *model.IngestChunksRequest) (*model.IngestChunksResponse, []*model.ChunkWithEmbedding) {
	response := &model.IngestChunksResponse{Errors: []string{}}
	extract := request.ExtractEntities == nil || *request.ExtractEntities

	embeddings := p.embedBatch(ctx, request.Chunks)

	chunks := []*model.ChunkWithEmbedding{}
	for i := range request.Chunks {
		outcome, err := p.ProcessChunk(ctx, &request.Chunks[i], embeddings[i], extract)
		if err != nil {
			response.Errors = append(response.Errors, fmt.Sprintf("chunk %s: %v", request.Chunks[i].SourceID, err))
			continue
		}

		response.ChunksIngested++
		response.EntitiesExtracted += outcome.EntitiesExtracted
		response.RelationshipsCreated += outcome.RelationshipsCreated
		if outcome.VectorStored {
			response.VectorsStored++
		}
		response.Errors = append(response.Errors, outcome.Errors...)
		chunks = append(chunks, &model.ChunkWithEmbedding{Chunk: outcome.Chunk, Embedding: outcome.Embedding})
	}

	return response, chunks
}

// embedBatch resolves embeddings for a batch up front: supplied vectors
// are taken as-is, the rest are computed in one batch call. On batch
// failure the entries stay nil and ProcessChunk embeds per chunk.
func (p *Processor) embedBatch(ctx context.Context, inputs []model.ChunkInput) [][]float32 {
	embeddings := make([][]float32, len(inputs))

	texts := []string{}
	indices := []int{}
	for i := range inputs {
		if len(inputs[i].Embedding) > 0 {
			embeddings[i] = inputs[i].Embedding
			continue
		}
		texts = append(texts, inputs[i].Content)
		indices = append(indices, i)
	}
	if len(texts) == 0 {
		return embeddings
	}

	batch, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		p.logger.Warn("Batch embedding failed, falling back to per-chunk embedding", "error", err)
		return embeddings
	}
	for n, i := range indices {
		embeddings[i] = batch[n]
	}
	return embeddings
}

// ProcessChunk ingests one chunk: upsert the node, store its embedding
// and extract entities and relationships into the graph. Only a failed
// chunk upsert is fatal; everything downstream is reported in the
// outcome error list.
func (p *Processor) ProcessChunk(ctx context.Context, input *model.ChunkInput, embedding []float32, extractEntities bool) (*ChunkOutcome, error) {
	chunk := input.ToChunk()
	if chunk.SourceKind == model.SourceKindDocument && chunk.HeadingPath == "" {
		chunk.HeadingPath = extractor.BuildHeadingPath(chunk.Content)
	}

	_, err := p.nodes.UpsertChunk(chunk)
	if err != nil {
		return nil, helper.NewError("upsert chunk", err)
	}

	outcome := &ChunkOutcome{Chunk: chunk, Errors: []string{}}

	if embedding == nil {
		embedding, err = p.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("chunk %s: embedding failed: %v", chunk.SourceID, err))
		}
	}
	if embedding != nil {
		outcome.Embedding = embedding
		stored, err := p.nodes.SetNodeEmbedding(chunk.ID, embedding)
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("chunk %s: store embedding failed: %v", chunk.SourceID, err))
		}
		outcome.VectorStored = stored
	}

	if extractEntities {
		p.extractIntoGraph(chunk, outcome)
	}

	return outcome, nil
}

// extractIntoGraph runs the extractor for the chunk's source kind,
// upserts the entities and creates the edges. Relationship names that
// resolve to no entity minted for this chunk are skipped silently.
func (p *Processor) extractIntoGraph(chunk *model.Chunk, outcome *ChunkOutcome) {
	result, err := extractor.ForKind(chunk.SourceKind).Extract(chunk)
	if err != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("chunk %s: extraction failed: %v", chunk.SourceID, err))
		return
	}

	source, ok := model.ParseDataSource(chunk.SourceType)
	if !ok {
		source = model.DataSource(chunk.SourceType)
	}

	idsByName := map[string]uuid.UUID{}
	for _, extracted := range result.Entities {
		properties := extracted.Properties
		if extracted.StartLine > 0 {
			if properties == nil {
				properties = model.Metadata{}
			}
			properties["start_line"] = extracted.StartLine
		}
		entity := model.NewEntity(extracted.EntityType, source, extracted.SourceID, extracted.Name, properties)
		_, err := p.nodes.UpsertEntity(entity)
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("entity %s: %v", extracted.Name, err))
			continue
		}
		if _, exists := idsByName[extracted.Name]; !exists {
			idsByName[extracted.Name] = entity.ID
		}
		outcome.EntitiesExtracted++

		// Anchor edge from the chunk, the entry point for graph
		// expansion starting at vector hits.
		_, err = p.edges.CreateEdge(chunk.ID, entity.ID, model.RelationshipReferences, extracted.Confidence,
			model.Metadata{"extraction_method": string(model.MethodPatternMatch)})
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("edge %s -> %s: %v", chunk.SourceID, extracted.Name, err))
			continue
		}
		outcome.RelationshipsCreated++
	}

	for _, rel := range result.Relationships {
		fromID, fromOK := idsByName[rel.FromName]
		toID, toOK := idsByName[rel.ToName]
		if !fromOK || !toOK {
			continue
		}
		_, err := p.edges.CreateEdge(fromID, toID, rel.RelationshipType, rel.Confidence,
			model.Metadata{"extraction_method": string(model.MethodPatternMatch)})
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("edge %s -> %s: %v", rel.FromName, rel.ToName, err))
			continue
		}
		outcome.RelationshipsCreated++
	}
}
