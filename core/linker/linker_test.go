package linker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNodes serves canned link candidates and records the query.
type fakeNodes struct {
	chunks     map[uuid.UUID]*model.Chunk
	candidates []*model.LinkCandidate

	lastThreshold    float64
	lastMentionBoost float64
	lastAuthorBoost  float64
	lastEntityNames  []string
	lastLimit        int
	failLinkQuery    bool
}

func newFakeNodes() *fakeNodes {
	return &fakeNodes{chunks: map[uuid.UUID]*model.Chunk{}}
}

func (f *fakeNodes) UpsertChunk(chunk *model.Chunk) (uuid.UUID, error) {
	f.chunks[chunk.ID] = chunk
	return chunk.ID, nil
}

func (f *fakeNodes) UpsertEntity(entity *model.Entity) (uuid.UUID, error) {
	return entity.ID, nil
}

func (f *fakeNodes) SelectChunk(id uuid.UUID) (*model.Chunk, error) {
	chunk, ok := f.chunks[id]
	if !ok {
		return nil, model.NewGraphError(model.ErrEntityNotFound, "node not found", nil)
	}
	return chunk, nil
}

func (f *fakeNodes) SelectEntity(id uuid.UUID) (*model.Entity, error) {
	return nil, model.NewGraphError(model.ErrEntityNotFound, "node not found", nil)
}

func (f *fakeNodes) SelectEntityBySource(entityType model.EntityType, source model.DataSource, sourceID string) (*model.Entity, error) {
	return nil, model.NewGraphError(model.ErrEntityNotFound, "node not found", nil)
}

func (f *fakeNodes) SelectEntityIDsByName(name string) ([]uuid.UUID, error) {
	return []uuid.UUID{}, nil
}

func (f *fakeNodes) SelectChunkIDs(sourceKind string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for id, chunk := range f.chunks {
		if sourceKind != "" && sourceKind != "all" && string(chunk.SourceKind) != sourceKind {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeNodes) SetNodeEmbedding(id uuid.UUID, embedding []float32) (bool, error) {
	return true, nil
}

func (f *fakeNodes) FindSimilarNodes(label string, embedding []float32, limit int, minSimilarity float64) ([]*model.EntityResult, error) {
	return []*model.EntityResult{}, nil
}

func (f *fakeNodes) FindSimilarChunksForLinking(chunkID uuid.UUID, embedding []float32, targetKind model.SourceKind, threshold float64, entityNames []string, author string, mentionBoost, authorBoost float64, limit int) ([]*model.LinkCandidate, error) {
	if f.failLinkQuery {
		return nil, model.NewGraphError(model.ErrServiceUnavailable, "vector index not available", nil)
	}
	f.lastThreshold = threshold
	f.lastMentionBoost = mentionBoost
	f.lastAuthorBoost = authorBoost
	f.lastEntityNames = entityNames
	f.lastLimit = limit
	return f.candidates, nil
}

func (f *fakeNodes) SearchChunks(embedding []float32, limit int, sourceKind string, sourceTypes []string, ownerID string, minSimilarity float64) ([]*model.ChunkResult, error) {
	return []*model.ChunkResult{}, nil
}

func (f *fakeNodes) NodeStatistics() (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (f *fakeNodes) DeleteNode(id uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeNodes) CreateVectorIndex(indexName string, label string) error {
	return nil
}

// fakeEdges records created edges.
type fakeEdges struct {
	edges []recordedEdge
}

type recordedEdge struct {
	FromID     uuid.UUID
	ToID       uuid.UUID
	RelType    model.RelationshipType
	Confidence float64
	Properties model.Metadata
}

func (f *fakeEdges) CreateEdge(fromID, toID uuid.UUID, relType model.RelationshipType, confidence float64, properties model.Metadata) (uuid.UUID, error) {
	f.edges = append(f.edges, recordedEdge{fromID, toID, relType, confidence, properties})
	return uuid.New(), nil
}

func (f *fakeEdges) SelectEdgesForNode(id uuid.UUID, direction string) ([]*model.RelationshipResult, error) {
	return []*model.RelationshipResult{}, nil
}

func (f *fakeEdges) GetNeighbors(startIDs []uuid.UUID, relTypes []string, direction string, maxHops, maxEntities int) ([]*model.NeighborNode, error) {
	return []*model.NeighborNode{}, nil
}

func (f *fakeEdges) CrossSourceRelationships(chunkIDs []uuid.UUID) ([]*model.RelationshipResult, error) {
	return []*model.RelationshipResult{}, nil
}

func (f *fakeEdges) EdgeStatistics() (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (f *fakeEdges) DeleteEdge(fromID, toID uuid.UUID, relType model.RelationshipType) (bool, error) {
	return false, nil
}

// fakeEvidence records inserted evidence.
type fakeEvidence struct {
	records []*model.RelationshipEvidence
}

func (f *fakeEvidence) InsertEvidence(evidence *model.RelationshipEvidence) (uuid.UUID, error) {
	f.records = append(f.records, evidence)
	return evidence.ID, nil
}

func (f *fakeEvidence) SelectEvidenceForRelationship(fromChunkID, toChunkID uuid.UUID, relType model.RelationshipType) ([]*model.RelationshipEvidence, error) {
	return f.records, nil
}

// fakeEmbedder returns a constant vector.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{1, 0, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{1, 0, 0, 0}
	}
	return embeddings, nil
}

func (f *fakeEmbedder) Health(ctx context.Context) error {
	return nil
}

func newTestLinker() (*Linker, *fakeNodes, *fakeEdges, *fakeEvidence) {
	nodes := newFakeNodes()
	edges := &fakeEdges{}
	evidence := &fakeEvidence{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLinker(nodes, edges, evidence, &fakeEmbedder{}, model.DefaultLinkerConfig(), logger), nodes, edges, evidence
}

func authChunk(commitDate time.Time) *model.Chunk {
	input := &model.ChunkInput{
		Content:    "pub fn authenticate(user: &str) -> bool { true }",
		SourceKind: "code",
		SourceType: "github",
		SourceID:   "auth/login.rs:1",
		FilePath:   "auth/login.rs",
		RepoName:   "acme/auth",
		Author:     "alice",
		CommitDate: &commitDate,
	}
	return input.ToChunk()
}

func TestLinkChunkAllBoosters(t *testing.T) {
	linker, _, edges, evidence := newTestLinker()

	commitDate := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docDate := commitDate.Add(48 * time.Hour)
	chunk := authChunk(commitDate)

	// Server applied the author boost (0.80 + 0.10) but missed the
	// mention because the content check is case-sensitive strpos over
	// entity names; the client finds the backticked identifier.
	candidateID := uuid.New()
	linker.nodes.(*fakeNodes).candidates = []*model.LinkCandidate{{
		ID:             candidateID,
		Content:        "How to use `authenticate()` in login",
		SourceKind:     "document",
		SourceType:     "notion",
		Author:         "alice",
		UpdatedAt:      docDate,
		Similarity:     0.80,
		Confidence:     0.90,
		MentionBoosted: false,
		AuthorBoosted:  true,
	}}

	links, err := linker.LinkChunk(context.Background(), chunk, []float32{1, 0, 0, 0})
	require.NoError(t, err, "Expected LinkChunk to not return an error")
	require.Len(t, links, 1, "Expected one link")

	link := links[0]
	assert.Equal(t, "EXPLAINS", link.RelationshipType, "Expected EXPLAINS from the how-to text")
	assert.InDelta(t, 1.0, link.Confidence, 0.001, "Expected confidence clamped to 1.0")
	assert.Equal(t, "authenticate", link.ExplicitMention, "Expected the backticked identifier as mention")
	require.NotNil(t, link.TemporalDistanceDays, "Expected temporal distance recorded")
	assert.Equal(t, 2, *link.TemporalDistanceDays, "Expected two days distance")
	assert.True(t, link.AuthorOverlap, "Expected author overlap")
	assert.ElementsMatch(t, []string{"vector_similarity", "explicit_mention", "temporal_proximity", "author_overlap"},
		link.ExtractionMethods, "Expected all methods recorded")

	require.Len(t, edges.edges, 1, "Expected one edge created")
	edge := edges.edges[0]
	assert.Equal(t, model.RelationshipSemanticallySimilar, edge.RelType, "Expected the merge type for cross-source edges")
	assert.Equal(t, chunk.ID, edge.FromID)
	assert.Equal(t, candidateID, edge.ToID)
	assert.InDelta(t, 1.0, edge.Confidence, 0.001)
	assert.Equal(t, "EXPLAINS", edge.Properties["relationship_kind"], "Expected the chosen kind in properties")

	require.Len(t, evidence.records, 1, "Expected one evidence record")
	record := evidence.records[0]
	assert.Equal(t, model.RelationshipExplains, record.RelationshipType)
	assert.Equal(t, model.MethodCombined, record.ExtractionMethod, "Expected combined method for multiple boosters")
	require.NotNil(t, record.SimilarityScore)
	assert.InDelta(t, 0.80, *record.SimilarityScore, 0.001, "Expected the raw similarity in evidence")
	assert.True(t, record.AuthorMatch)
}

func TestLinkChunkQueryParameters(t *testing.T) {
	t.Run("Config values reach the fused query", func(t *testing.T) {
		linker, nodes, _, _ := newTestLinker()
		chunk := authChunk(time.Now().UTC())

		_, err := linker.LinkChunk(context.Background(), chunk, []float32{1, 0, 0, 0})
		require.NoError(t, err)

		assert.InDelta(t, 0.75, nodes.lastThreshold, 0.001, "Expected the similarity threshold")
		assert.InDelta(t, 0.15, nodes.lastMentionBoost, 0.001, "Expected the mention boost")
		assert.InDelta(t, 0.10, nodes.lastAuthorBoost, 0.001, "Expected the author boost")
		assert.Equal(t, 5, nodes.lastLimit, "Expected the per-chunk link cap")
		assert.Contains(t, nodes.lastEntityNames, "authenticate", "Expected the extracted entity names")
	})

	t.Run("Disabled boosters pass zero to the query", func(t *testing.T) {
		linker, nodes, _, _ := newTestLinker()
		linker.config.EnableExplicitMentions = false
		linker.config.EnableAuthorOverlap = false

		_, err := linker.LinkChunk(context.Background(), authChunk(time.Now().UTC()), []float32{1, 0, 0, 0})
		require.NoError(t, err)

		assert.Zero(t, nodes.lastMentionBoost, "Expected no mention boost when disabled")
		assert.Zero(t, nodes.lastAuthorBoost, "Expected no author boost when disabled")
	})
}

func TestLinkChunkSingleMethod(t *testing.T) {
	linker, nodes, edges, evidence := newTestLinker()

	nodes.candidates = []*model.LinkCandidate{{
		ID:         uuid.New(),
		Content:    "Unrelated prose about gardening.",
		SourceKind: "document",
		Similarity: 0.78,
		Confidence: 0.78,
	}}

	chunk := authChunk(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	links, err := linker.LinkChunk(context.Background(), chunk, []float32{1, 0, 0, 0})
	require.NoError(t, err)
	require.Len(t, links, 1)

	assert.Equal(t, "SEMANTICALLY_SIMILAR", links[0].RelationshipType, "Expected the default relationship kind")
	assert.InDelta(t, 0.78, links[0].Confidence, 0.001, "Expected no boosts applied")
	assert.Equal(t, []string{"vector_similarity"}, links[0].ExtractionMethods)
	assert.Equal(t, model.MethodVectorSimilarity, evidence.records[0].ExtractionMethod, "Expected the single method, not combined")
	assert.Len(t, edges.edges, 1)
}

func TestLinkBatch(t *testing.T) {
	linker, _, _, _ := newTestLinker()

	chunk := authChunk(time.Now().UTC())
	withVector := &model.ChunkWithEmbedding{Chunk: chunk, Embedding: []float32{1, 0, 0, 0}}
	withoutVector := &model.ChunkWithEmbedding{Chunk: authChunk(time.Now().UTC())}

	created, errs := linker.LinkBatch(context.Background(), []*model.ChunkWithEmbedding{withVector, withoutVector})
	assert.Zero(t, created, "Expected no links without candidates")
	assert.Empty(t, errs, "Expected no errors")
}

func TestLinkBatchMemoryFallback(t *testing.T) {
	linker, nodes, edges, evidence := newTestLinker()
	nodes.failLinkQuery = true

	code := authChunk(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	docInput := &model.ChunkInput{
		Content:    "How to use `authenticate()` in login",
		SourceKind: "document",
		SourceType: "notion",
		SourceID:   "page-login",
		Author:     "alice",
	}
	batch := []*model.ChunkWithEmbedding{
		{Chunk: code, Embedding: []float32{1, 0, 0, 0}},
		{Chunk: docInput.ToChunk(), Embedding: []float32{1, 0, 0, 0}},
	}

	created, errs := linker.LinkBatch(context.Background(), batch)
	assert.Equal(t, 2, created, "Expected both directions linked from the batch in memory")
	assert.Len(t, errs, 2, "Expected the failed recalls reported")

	require.Len(t, edges.edges, 2, "Expected the fallback links persisted")
	edge := edges.edges[0]
	assert.Equal(t, model.RelationshipSemanticallySimilar, edge.RelType, "Expected the merge type for cross-source edges")
	assert.Equal(t, code.ID, edge.FromID, "Expected the link from the failed chunk")
	assert.Equal(t, "EXPLAINS", edge.Properties["relationship_kind"], "Expected the chosen kind in properties")
	assert.InDelta(t, 1.0, edge.Confidence, 0.001, "Expected mention and author boosts applied")

	require.Len(t, evidence.records, 2, "Expected evidence for the fallback links")
	assert.Equal(t, model.MethodCombined, evidence.records[0].ExtractionMethod, "Expected combined method for multiple boosters")
}

func TestRelink(t *testing.T) {
	linker, nodes, edges, _ := newTestLinker()

	chunk := authChunk(time.Now().UTC())
	_, err := nodes.UpsertChunk(chunk)
	require.NoError(t, err)

	nodes.candidates = []*model.LinkCandidate{{
		ID:         uuid.New(),
		Content:    "Usage of the login flow.",
		SourceKind: "document",
		Similarity: 0.80,
		Confidence: 0.80,
	}}

	t.Run("Relink all stored chunks of a kind", func(t *testing.T) {
		response, err := linker.Relink(context.Background(), &model.CrossSourceLinkRequest{FromSourceKind: "code"})
		require.NoError(t, err, "Expected Relink to not return an error")
		assert.Equal(t, 1, response.ChunksProcessed, "Expected the stored chunk processed")
		assert.Equal(t, 1, response.LinksCreated, "Expected one link created")
		assert.NotEmpty(t, edges.edges, "Expected the edge written")
	})

	t.Run("Relink explicit chunk ids", func(t *testing.T) {
		response, err := linker.Relink(context.Background(), &model.CrossSourceLinkRequest{ChunkIDs: []uuid.UUID{chunk.ID}})
		require.NoError(t, err)
		assert.Equal(t, 1, response.ChunksProcessed)
	})

	t.Run("Unknown chunk id is a per-item error", func(t *testing.T) {
		response, err := linker.Relink(context.Background(), &model.CrossSourceLinkRequest{ChunkIDs: []uuid.UUID{uuid.New()}})
		require.NoError(t, err, "Expected unknown ids to not fail the pass")
		assert.Equal(t, 0, response.ChunksProcessed)
		assert.Len(t, response.Errors, 1, "Expected the miss reported")
	})
}

func TestSelectRelationshipType(t *testing.T) {
	t.Run("How-to text explains", func(t *testing.T) {
		assert.Equal(t, model.RelationshipExplains, selectRelationshipType("How to configure the parser", ""))
	})

	t.Run("Endpoint text documents", func(t *testing.T) {
		assert.Equal(t, model.RelationshipDocuments, selectRelationshipType("The endpoint returns JSON", ""))
	})

	t.Run("Explains wins over documents", func(t *testing.T) {
		assert.Equal(t, model.RelationshipExplains, selectRelationshipType("How to call the endpoint", ""))
	})

	t.Run("Readme path documents", func(t *testing.T) {
		assert.Equal(t, model.RelationshipDocuments, selectRelationshipType("Project overview.", "docs/README.md"))
	})

	t.Run("Default is semantically similar", func(t *testing.T) {
		assert.Equal(t, model.RelationshipSemanticallySimilar, selectRelationshipType("Plain prose.", "notes.md"))
	})
}

func TestDetectExplicitMention(t *testing.T) {
	t.Run("File base name containment", func(t *testing.T) {
		mention, ok := detectExplicitMention("See login.rs for details", "auth/login.rs", "")
		assert.True(t, ok, "Expected mention by file name")
		assert.Equal(t, "login.rs", mention)
	})

	t.Run("Backticked identifier from code", func(t *testing.T) {
		mention, ok := detectExplicitMention("Call `authenticate()` first", "other/file.rs", "pub fn authenticate() {}")
		assert.True(t, ok, "Expected mention by backticked identifier")
		assert.Equal(t, "authenticate", mention)
	})

	t.Run("Keywords carry no signal", func(t *testing.T) {
		_, ok := detectExplicitMention("Use `return` to exit", "a/b.rs", "fn x() { return; }")
		assert.False(t, ok, "Expected stop words ignored")
	})

	t.Run("Unmentioned code", func(t *testing.T) {
		_, ok := detectExplicitMention("Gardening tips", "auth/login.rs", "pub fn authenticate() {}")
		assert.False(t, ok, "Expected no mention")
	})
}
