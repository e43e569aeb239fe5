package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// NodesDBHandlerFunctions defines the interface for node database operations.
type NodesDBHandlerFunctions interface {
	UpsertChunk(chunk *model.Chunk) (uuid.UUID, error)
	UpsertEntity(entity *model.Entity) (uuid.UUID, error)
	SelectChunk(id uuid.UUID) (*model.Chunk, error)
	SelectEntity(id uuid.UUID) (*model.Entity, error)
	SelectEntityBySource(entityType model.EntityType, source model.DataSource, sourceID string) (*model.Entity, error)
	SelectEntityIDsByName(name string) ([]uuid.UUID, error)
	SelectChunkIDs(sourceKind string) ([]uuid.UUID, error)
	SetNodeEmbedding(id uuid.UUID, embedding []float32) (bool, error)
	FindSimilarNodes(label string, embedding []float32, limit int, minSimilarity float64) ([]*model.EntityResult, error)
	FindSimilarChunksForLinking(chunkID uuid.UUID, embedding []float32, targetKind model.SourceKind, threshold float64, entityNames []string, author string, mentionBoost, authorBoost float64, limit int) ([]*model.LinkCandidate, error)
	SearchChunks(embedding []float32, limit int, sourceKind string, sourceTypes []string, ownerID string, minSimilarity float64) ([]*model.ChunkResult, error)
	NodeStatistics() (map[string]int64, error)
	DeleteNode(id uuid.UUID) (bool, error)
	CreateVectorIndex(indexName string, label string) error
}

// NodesDBHandler handles node-related database operations
type NodesDBHandler struct {
	db *helper.Database
}

// NewNodesDBHandler creates a new nodes database handler.
// It loads the node SQL functions, creates the nodes table with the
// given embedding dimension and the chunk vector index.
// If force is true, it will reload the SQL functions even if they already exist.
func NewNodesDBHandler(db *helper.Database, embeddingDim int, force bool) (*NodesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	nodesDbHandler := &NodesDBHandler{
		db: db,
	}

	err := loadSql.LoadNodesSql(nodesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load nodes sql", err)
	}

	err = nodesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	err = nodesDbHandler.CreateVectorIndex("chunk_embedding_idx", "CHUNK")
	if err != nil {
		return nil, helper.NewError("create vector index", err)
	}

	db.Logger.Info("Initialized NodesDBHandler")

	return nodesDbHandler, nil
}

// CreateTable creates the 'nodes' table with the given embedding dimension.
// If the table already exists, it does not create it again.
func (h *NodesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_nodes($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("initialize nodes table", err)
	}

	h.db.Logger.Info("Checked/created table nodes")

	return nil
}

// CreateVectorIndex creates a partial HNSW cosine index over one label.
func (h *NodesDBHandler) CreateVectorIndex(indexName string, label string) error {
	_, err := h.db.Instance.Exec(`SELECT create_vector_index($1, $2);`, indexName, label)
	if err != nil {
		return helper.NewError("create vector index", err)
	}
	return nil
}

// UpsertChunk writes a chunk node keyed on its id.
func (h *NodesDBHandler) UpsertChunk(chunk *model.Chunk) (uuid.UUID, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_node($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		chunk.ID,
		"CHUNK",
		"chunk",
		chunk.SourceID,
		chunk.SourceType,
		chunk.SourceID,
		chunk.Content,
		chunk.ContentHash,
		chunk.SourceKind,
		chunk.SourceType,
		chunk.FilePath,
		chunk.RepoName,
		chunk.Branch,
		chunk.Language,
		chunk.HeadingPath,
		chunk.SectionTitle,
		chunk.Author,
		chunk.OwnerID,
		chunk.CommitSHA,
		chunk.CommitDate,
		chunk.StartLine,
		chunk.EndLine,
		chunk.TokenCount,
		chunk.Metadata,
	)

	var id uuid.UUID
	err := row.Scan(&id)
	if err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}

	return id, nil
}

// UpsertEntity writes an entity node keyed on its derived id.
func (h *NodesDBHandler) UpsertEntity(entity *model.Entity) (uuid.UUID, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_node($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		entity.ID,
		entity.EntityType.Label(),
		entity.EntityType,
		entity.Name,
		entity.Source,
		entity.SourceID,
		"", "", "", "", "", "", "", "", "", "", "", "", "",
		nil, nil, nil, nil,
		entity.Properties,
	)

	var id uuid.UUID
	err := row.Scan(&id)
	if err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}

	return id, nil
}

// SelectChunk retrieves a chunk node by ID
func (h *NodesDBHandler) SelectChunk(id uuid.UUID) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_node($1)`,
		id,
	)

	chunk, _, err := scanNode(row)
	if err != nil {
		return nil, err
	}

	return chunk, nil
}

// SelectEntity retrieves an entity node by ID
func (h *NodesDBHandler) SelectEntity(id uuid.UUID) (*model.Entity, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_node($1)`,
		id,
	)

	_, entity, err := scanNode(row)
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// SelectEntityBySource retrieves an entity by its logical identity.
func (h *NodesDBHandler) SelectEntityBySource(entityType model.EntityType, source model.DataSource, sourceID string) (*model.Entity, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_node_by_source($1, $2, $3)`,
		entityType, source, sourceID,
	)

	_, entity, err := scanNode(row)
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// SelectEntityIDsByName lists the ids of all entity nodes carrying the
// given name, the resolution step for name-addressed traversal starts.
func (h *NodesDBHandler) SelectEntityIDsByName(name string) ([]uuid.UUID, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entity_ids_by_name($1)`,
		name,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// SelectChunkIDs lists all embedded chunk ids, optionally filtered by source kind.
func (h *NodesDBHandler) SelectChunkIDs(sourceKind string) ([]uuid.UUID, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunk_ids($1)`,
		sourceKind,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// SetNodeEmbedding stores the embedding for a node.
func (h *NodesDBHandler) SetNodeEmbedding(id uuid.UUID, embedding []float32) (bool, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM set_node_embedding($1, $2)`,
		id,
		pgvector.NewVector(embedding),
	)

	var updated bool
	err := row.Scan(&updated)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return updated, nil
}

// FindSimilarNodes retrieves nodes of one label by cosine similarity.
func (h *NodesDBHandler) FindSimilarNodes(label string, embedding []float32, limit int, minSimilarity float64) ([]*model.EntityResult, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM find_similar_nodes($1, $2, $3, $4)`,
		label,
		pgvector.NewVector(embedding),
		limit,
		minSimilarity,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	results := []*model.EntityResult{}
	for rows.Next() {
		result := &model.EntityResult{}
		var similarity float64
		err := rows.Scan(
			&result.ID,
			&result.EntityType,
			&result.Name,
			&result.Source,
			&result.Properties,
			&similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// FindSimilarChunksForLinking runs the fused linking query: vector
// recall, target kind and threshold filter, server-side mention and
// author boosts, ranked by boosted confidence.
func (h *NodesDBHandler) FindSimilarChunksForLinking(chunkID uuid.UUID, embedding []float32, targetKind model.SourceKind, threshold float64, entityNames []string, author string, mentionBoost, authorBoost float64, limit int) ([]*model.LinkCandidate, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM find_similar_chunks_for_linking($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		chunkID,
		pgvector.NewVector(embedding),
		targetKind,
		threshold,
		pq.Array(entityNames),
		author,
		mentionBoost,
		authorBoost,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	candidates := []*model.LinkCandidate{}
	for rows.Next() {
		candidate := &model.LinkCandidate{}
		var commitDate sql.NullTime
		err := rows.Scan(
			&candidate.ID,
			&candidate.Content,
			&candidate.SourceKind,
			&candidate.SourceType,
			&candidate.FilePath,
			&candidate.RepoName,
			&candidate.HeadingPath,
			&candidate.Author,
			&commitDate,
			&candidate.UpdatedAt,
			&candidate.Similarity,
			&candidate.Confidence,
			&candidate.MentionBoosted,
			&candidate.AuthorBoosted,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if commitDate.Valid {
			candidate.CommitDate = &commitDate.Time
		}
		candidates = append(candidates, candidate)
	}

	return candidates, rows.Err()
}

// SearchChunks retrieves chunks by cosine similarity with source filters.
func (h *NodesDBHandler) SearchChunks(embedding []float32, limit int, sourceKind string, sourceTypes []string, ownerID string, minSimilarity float64) ([]*model.ChunkResult, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM search_chunks($1, $2, $3, $4, $5, $6)`,
		pgvector.NewVector(embedding),
		limit,
		sourceKind,
		pq.Array(sourceTypes),
		ownerID,
		minSimilarity,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	results := []*model.ChunkResult{}
	for rows.Next() {
		result := &model.ChunkResult{}
		err := rows.Scan(
			&result.ChunkID,
			&result.Content,
			&result.SourceKind,
			&result.SourceType,
			&result.FilePath,
			&result.RepoName,
			&result.Language,
			&result.HeadingPath,
			&result.SimilarityScore,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// NodeStatistics returns node counts grouped by label.
func (h *NodesDBHandler) NodeStatistics() (map[string]int64, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM node_statistics()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	stats := map[string]int64{}
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return nil, helper.NewError("scan", err)
		}
		stats[label] = count
	}

	return stats, rows.Err()
}

// DeleteNode deletes a node and its edges.
func (h *NodesDBHandler) DeleteNode(id uuid.UUID) (bool, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM delete_node($1)`,
		id,
	)

	var deleted bool
	err := row.Scan(&deleted)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return deleted, nil
}

// scanNode reads a full node row into both views. The caller picks the
// one matching the node's label.
func scanNode(row *sql.Row) (*model.Chunk, *model.Entity, error) {
	var (
		id                                       uuid.UUID
		label, entityType, name, source, srcID   string
		content, contentHash, srcKind, srcType   string
		filePath, repoName, branch, language     string
		headingPath, sectionTitle, author, owner string
		commitSHA                                string
		commitDate                               sql.NullTime
		startLine, endLine, tokenCount           sql.NullInt32
		properties                               model.Metadata
		createdAt, updatedAt                     time.Time
	)

	err := row.Scan(
		&id, &label, &entityType, &name, &source, &srcID,
		&content, &contentHash, &srcKind, &srcType,
		&filePath, &repoName, &branch, &language,
		&headingPath, &sectionTitle, &author, &owner,
		&commitSHA, &commitDate,
		&startLine, &endLine, &tokenCount,
		&properties, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, model.NewGraphError(model.ErrEntityNotFound, "node not found", err)
	}
	if err != nil {
		return nil, nil, helper.NewError("scan", err)
	}

	chunk := &model.Chunk{
		ID:           id,
		Content:      content,
		ContentHash:  contentHash,
		SourceKind:   model.SourceKind(srcKind),
		SourceType:   srcType,
		SourceID:     srcID,
		FilePath:     filePath,
		RepoName:     repoName,
		Branch:       branch,
		Language:     language,
		HeadingPath:  headingPath,
		SectionTitle: sectionTitle,
		OwnerID:      owner,
		Author:       author,
		CommitSHA:    commitSHA,
		Metadata:     properties,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if commitDate.Valid {
		chunk.CommitDate = &commitDate.Time
	}
	if startLine.Valid {
		v := int(startLine.Int32)
		chunk.StartLine = &v
	}
	if endLine.Valid {
		v := int(endLine.Int32)
		chunk.EndLine = &v
	}
	if tokenCount.Valid {
		v := int(tokenCount.Int32)
		chunk.TokenCount = &v
	}

	entity := &model.Entity{
		ID:         id,
		EntityType: model.EntityType(entityType),
		Source:     model.DataSource(source),
		SourceID:   srcID,
		Name:       name,
		Properties: properties,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}

	return chunk, entity, nil
}
