package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/core/linker"
	"github.com/siherrmann/relgraph/core/pipeline"
	"github.com/siherrmann/relgraph/core/retrieval"
	"github.com/siherrmann/relgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNodes struct {
	entities   map[uuid.UUID]*model.Entity
	chunks     map[uuid.UUID]*model.Chunk
	embeddings map[uuid.UUID][]float32
	hits       []*model.ChunkResult
	candidates []*model.LinkCandidate
	failStats  bool
}

func newFakeNodes() *fakeNodes {
	return &fakeNodes{
		entities:   map[uuid.UUID]*model.Entity{},
		chunks:     map[uuid.UUID]*model.Chunk{},
		embeddings: map[uuid.UUID][]float32{},
	}
}

func (f *fakeNodes) UpsertChunk(chunk *model.Chunk) (uuid.UUID, error) {
	f.chunks[chunk.ID] = chunk
	return chunk.ID, nil
}

func (f *fakeNodes) UpsertEntity(entity *model.Entity) (uuid.UUID, error) {
	f.entities[entity.ID] = entity
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
	entity, ok := f.entities[id]
	if !ok {
		return nil, model.NewGraphError(model.ErrEntityNotFound, "node not found", nil)
	}
	return entity, nil
}

func (f *fakeNodes) SelectEntityBySource(entityType model.EntityType, source model.DataSource, sourceID string) (*model.Entity, error) {
	return f.SelectEntity(model.EntityID(entityType, source, sourceID))
}

func (f *fakeNodes) SelectEntityIDsByName(name string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for id, entity := range f.entities {
		if entity.Name == name {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeNodes) SelectChunkIDs(sourceKind string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for id, chunk := range f.chunks {
		if sourceKind == "" || sourceKind == "all" || string(chunk.SourceKind) == sourceKind {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeNodes) SetNodeEmbedding(id uuid.UUID, embedding []float32) (bool, error) {
	f.embeddings[id] = embedding
	return true, nil
}

func (f *fakeNodes) FindSimilarNodes(label string, embedding []float32, limit int, minSimilarity float64) ([]*model.EntityResult, error) {
	return nil, nil
}

func (f *fakeNodes) FindSimilarChunksForLinking(chunkID uuid.UUID, embedding []float32, targetKind model.SourceKind, threshold float64, entityNames []string, author string, mentionBoost, authorBoost float64, limit int) ([]*model.LinkCandidate, error) {
	return f.candidates, nil
}

func (f *fakeNodes) SearchChunks(embedding []float32, limit int, sourceKind string, sourceTypes []string, ownerID string, minSimilarity float64) ([]*model.ChunkResult, error) {
	return f.hits, nil
}

func (f *fakeNodes) NodeStatistics() (map[string]int64, error) {
	if f.failStats {
		return nil, fmt.Errorf("connection refused")
	}
	return map[string]int64{"CHUNK": 12, "FUNCTION": 5}, nil
}

func (f *fakeNodes) DeleteNode(id uuid.UUID) (bool, error) { return false, nil }

func (f *fakeNodes) CreateVectorIndex(indexName string, label string) error { return nil }

type fakeEdges struct {
	edges     []*model.RelationshipResult
	neighbors []*model.NeighborNode
	created   int
}

func (f *fakeEdges) CreateEdge(fromID, toID uuid.UUID, relType model.RelationshipType, confidence float64, properties model.Metadata) (uuid.UUID, error) {
	f.created++
	f.edges = append(f.edges, &model.RelationshipResult{
		FromID:           fromID,
		ToID:             toID,
		RelationshipType: string(relType),
		Confidence:       confidence,
	})
	return uuid.New(), nil
}

func (f *fakeEdges) SelectEdgesForNode(id uuid.UUID, direction string) ([]*model.RelationshipResult, error) {
	return f.edges, nil
}

func (f *fakeEdges) GetNeighbors(startIDs []uuid.UUID, relTypes []string, direction string, maxHops, maxEntities int) ([]*model.NeighborNode, error) {
	return f.neighbors, nil
}

func (f *fakeEdges) CrossSourceRelationships(chunkIDs []uuid.UUID) ([]*model.RelationshipResult, error) {
	return nil, nil
}

func (f *fakeEdges) EdgeStatistics() (map[string]int64, error) {
	return map[string]int64{"CONTAINS": 4, "SEMANTICALLY_SIMILAR": 3}, nil
}

func (f *fakeEdges) DeleteEdge(fromID, toID uuid.UUID, relType model.RelationshipType) (bool, error) {
	return false, nil
}

type fakeEvidence struct {
	inserted int
}

func (f *fakeEvidence) InsertEvidence(evidence *model.RelationshipEvidence) (uuid.UUID, error) {
	f.inserted++
	return uuid.New(), nil
}

func (f *fakeEvidence) SelectEvidenceForRelationship(fromChunkID, toChunkID uuid.UUID, relType model.RelationshipType) ([]*model.RelationshipEvidence, error) {
	return nil, nil
}

type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, model.NewGraphError(model.ErrServiceUnavailable, "embedding service unavailable", nil)
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		embedding, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, embedding)
	}
	return embeddings, nil
}

func (f *fakeEmbedder) Health(ctx context.Context) error {
	if f.fail {
		return model.NewGraphError(model.ErrServiceUnavailable, "embedding service unavailable", nil)
	}
	return nil
}

type testEnv struct {
	server   *Server
	nodes    *fakeNodes
	edges    *fakeEdges
	evidence *fakeEvidence
	embedder *fakeEmbedder
}

func newTestServer() *testEnv {
	nodes := newFakeNodes()
	edges := &fakeEdges{}
	evidence := &fakeEvidence{}
	embedder := &fakeEmbedder{}
	config := model.DefaultLinkerConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	processor := pipeline.NewProcessor(nodes, edges, embedder, logger)
	crossLinker := linker.NewLinker(nodes, edges, evidence, embedder, config, logger)
	engine := retrieval.NewEngine(nodes, edges, embedder, config)

	return &testEnv{
		server:   NewServer(processor, crossLinker, engine, nodes, edges, embedder, config, logger),
		nodes:    nodes,
		edges:    edges,
		evidence: evidence,
		embedder: embedder,
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	t.Run("Healthy when all components respond", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		body := decodeBody[map[string]any](t, recorder)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "relgraph", body["service"])

		components := body["components"].(map[string]any)
		assert.Equal(t, "up", components["graph"])
		assert.Equal(t, "up", components["embedding_model"])

		features := body["features"].(map[string]any)
		assert.Equal(t, true, features["temporal_proximity"])
	})

	t.Run("Degraded when a component is down", func(t *testing.T) {
		env := newTestServer()
		env.nodes.failStats = true
		env.embedder.fail = true

		recorder := doRequest(t, env.server.Handler(), http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		body := decodeBody[map[string]any](t, recorder)
		assert.Equal(t, "degraded", body["status"])
		components := body["components"].(map[string]any)
		assert.Equal(t, "down", components["graph"])
		assert.Equal(t, "down", components["embedding_model"])
	})
}

func TestIngestChunks(t *testing.T) {
	chunkBody := func() map[string]any {
		return map[string]any{
			"chunks": []map[string]any{
				{
					"content":     "func ParseConfig(path string) (*Config, error) {\n\treturn nil, nil\n}\n",
					"source_kind": "code",
					"source_type": "github",
					"source_id":   "src/parse.go:1",
					"file_path":   "src/parse.go",
					"repo_name":   "acme/config",
					"language":    "go",
				},
			},
		}
	}

	t.Run("Ingests and reports counters", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/chunks", chunkBody())
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.IngestChunksResponse](t, recorder)
		assert.Equal(t, 1, response.ChunksIngested)
		assert.Greater(t, response.EntitiesExtracted, 0, "Expected entities from the code chunk")
		assert.Equal(t, 1, response.VectorsStored)
		assert.Empty(t, response.Errors)
	})

	t.Run("Creates cross-source links by default", func(t *testing.T) {
		env := newTestServer()
		env.nodes.candidates = []*model.LinkCandidate{
			{
				ID:         uuid.New(),
				Content:    "How to use ParseConfig for configuration loading.",
				SourceKind: "document",
				SourceType: "notion",
				Similarity: 0.82,
				Confidence: 0.82,
			},
		}

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/chunks", chunkBody())
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.IngestChunksResponse](t, recorder)
		assert.Equal(t, 1, response.LinksCreated)
		assert.Equal(t, 1, env.evidence.inserted, "Expected evidence for the created link")
	})

	t.Run("Linking can be disabled per request", func(t *testing.T) {
		env := newTestServer()
		env.nodes.candidates = []*model.LinkCandidate{
			{ID: uuid.New(), Content: "Prose.", SourceKind: "document", Similarity: 0.9, Confidence: 0.9},
		}

		body := chunkBody()
		body["create_cross_links"] = false
		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/chunks", body)
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.IngestChunksResponse](t, recorder)
		assert.Zero(t, response.LinksCreated)
		assert.Zero(t, env.evidence.inserted)
	})

	t.Run("Empty batch rejected", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/chunks", map[string]any{"chunks": []any{}})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		body := decodeBody[map[string]any](t, recorder)
		assert.Equal(t, float64(http.StatusBadRequest), body["status"])
		assert.NotEmpty(t, body["error"])
	})

	t.Run("Malformed body rejected", func(t *testing.T) {
		env := newTestServer()

		request := httptest.NewRequest(http.MethodPost, "/api/graph/chunks", bytes.NewReader([]byte("{not json")))
		recorder := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestEntityEndpoints(t *testing.T) {
	t.Run("Create entity", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/entities", map[string]any{
			"entity_type": "function",
			"source":      "github",
			"source_id":   "acme/config/src/parse.go#ParseConfig",
			"name":        "ParseConfig",
		})
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.CreateEntityResponse](t, recorder)
		expected := model.EntityID(model.EntityTypeFunction, model.DataSourceGitHub, "acme/config/src/parse.go#ParseConfig")
		assert.Equal(t, expected, response.EntityID, "Expected the derived stable id")
		assert.False(t, response.Resolved)
	})

	t.Run("Create entity with embedding text", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/entities", map[string]any{
			"entity_type":        "concept",
			"source":             "notion",
			"source_id":          "query planner",
			"name":               "Query Planner",
			"text_for_embedding": "Query Planner combines vector recall with graph expansion.",
		})
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.CreateEntityResponse](t, recorder)
		assert.NotEmpty(t, env.nodes.embeddings[response.EntityID], "Expected the entity embedding stored")
	})

	t.Run("Invalid entity type rejected", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/entities", map[string]any{
			"entity_type": "spaceship",
			"source":      "github",
			"source_id":   "x",
			"name":        "x",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Get entity", func(t *testing.T) {
		env := newTestServer()
		entity := model.NewEntity(model.EntityTypeFunction, model.DataSourceGitHub, "repo/file#fn", "fn", nil)
		env.nodes.entities[entity.ID] = entity

		recorder := doRequest(t, env.server.Handler(), http.MethodGet, "/api/graph/entities/"+entity.ID.String(), nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		body := decodeBody[map[string]any](t, recorder)
		assert.Equal(t, "fn", body["name"])
		assert.Equal(t, "function", body["entity_type"])
	})

	t.Run("Get missing entity returns 404", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodGet, "/api/graph/entities/"+uuid.New().String(), nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)

		body := decodeBody[map[string]any](t, recorder)
		assert.Equal(t, float64(http.StatusNotFound), body["status"])
	})

	t.Run("Get entity with invalid id returns 400", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodGet, "/api/graph/entities/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Neighbors lists both directions", func(t *testing.T) {
		env := newTestServer()
		entity := model.NewEntity(model.EntityTypeFile, model.DataSourceGitHub, "repo/file", "file", nil)
		env.nodes.entities[entity.ID] = entity

		out := uuid.New()
		in := uuid.New()
		env.edges.edges = []*model.RelationshipResult{
			{FromID: entity.ID, ToID: out, ToName: "parseOne", RelationshipType: "CONTAINS", Confidence: 0.8},
			{FromID: in, ToID: entity.ID, FromName: "acme/config", RelationshipType: "CONTAINS", Confidence: 0.8},
		}

		recorder := doRequest(t, env.server.Handler(), http.MethodGet, "/api/graph/entities/"+entity.ID.String()+"/neighbors", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		body := decodeBody[map[string]any](t, recorder)
		neighbors := body["neighbors"].([]any)
		require.Len(t, neighbors, 2)

		first := neighbors[0].(map[string]any)
		assert.Equal(t, out.String(), first["id"], "Expected the far end of the outgoing edge")
		assert.Equal(t, "parseOne", first["name"])

		second := neighbors[1].(map[string]any)
		assert.Equal(t, in.String(), second["id"], "Expected the far end of the incoming edge")
		assert.Equal(t, "acme/config", second["name"])
	})
}

func TestCreateRelationship(t *testing.T) {
	t.Run("Creates edge with default confidence", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/relationships", map[string]any{
			"from_entity_id":    uuid.New().String(),
			"to_entity_id":      uuid.New().String(),
			"relationship_type": "CALLS",
		})
		require.Equal(t, http.StatusOK, recorder.Code)

		require.Equal(t, 1, env.edges.created)
		assert.Equal(t, 1.0, env.edges.edges[0].Confidence, "Expected default confidence 1.0")
	})

	t.Run("Invalid relationship type rejected", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/relationships", map[string]any{
			"from_entity_id":    uuid.New().String(),
			"to_entity_id":      uuid.New().String(),
			"relationship_type": "FRIENDS_WITH",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Zero(t, env.edges.created)
	})
}

func TestLinkEndpoint(t *testing.T) {
	t.Run("Relinks stored code chunks", func(t *testing.T) {
		env := newTestServer()
		chunk := (&model.ChunkInput{
			Content:    "pub fn authenticate(user: &str) -> bool { true }",
			SourceKind: "code",
			SourceType: "github",
			SourceID:   "auth/login.rs:1",
			FilePath:   "auth/login.rs",
		}).ToChunk()
		env.nodes.chunks[chunk.ID] = chunk
		env.nodes.candidates = []*model.LinkCandidate{
			{ID: uuid.New(), Content: "How to call authenticate.", SourceKind: "document", Similarity: 0.8, Confidence: 0.8},
		}

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/graph/link", map[string]any{
			"from_source_kind": "code",
		})
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.CrossSourceLinkResponse](t, recorder)
		assert.Equal(t, 1, response.ChunksProcessed)
		assert.Equal(t, 1, response.LinksCreated)
	})
}

func TestSearchEndpoints(t *testing.T) {
	t.Run("Hybrid search", func(t *testing.T) {
		env := newTestServer()
		hitID := uuid.New()
		env.nodes.hits = []*model.ChunkResult{
			{ChunkID: hitID, Content: "code", SourceKind: "code", SourceType: "github", SimilarityScore: 0.9},
		}
		env.edges.neighbors = []*model.NeighborNode{
			{NodeID: uuid.New(), EntityType: "FUNCTION", Name: "authenticate", FromID: hitID, ToID: uuid.New(), RelType: "REFERENCES", Confidence: 0.85, Hop: 1},
		}

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/search", map[string]any{
			"query": "how does login work",
		})
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.HybridSearchResponse](t, recorder)
		assert.Len(t, response.Chunks, 1)
		assert.Len(t, response.RelatedEntities, 1)
		assert.Equal(t, "how does login work", response.Metadata.Query)
	})

	t.Run("Empty query rejected", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/search", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Embedding failure maps to 500", func(t *testing.T) {
		env := newTestServer()
		env.embedder.fail = true

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/search", map[string]any{
			"query": "anything",
		})
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})

	t.Run("Vector search", func(t *testing.T) {
		env := newTestServer()
		env.nodes.hits = []*model.ChunkResult{
			{ChunkID: uuid.New(), Content: "code", SourceKind: "code", SourceType: "github", SimilarityScore: 0.9},
		}

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/search/vector", map[string]any{
			"query": "login",
		})
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.VectorSearchResponse](t, recorder)
		assert.Equal(t, 1, response.TotalCount)
	})

	t.Run("Graph search rejects unknown start entity name", func(t *testing.T) {
		env := newTestServer()

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/search/graph", map[string]any{
			"start_entities": []string{"NoSuchEntity"},
		})
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Graph search starts from an entity name", func(t *testing.T) {
		env := newTestServer()
		entity := model.NewEntity(model.EntityTypeClass, model.DataSourceGitHub, "repo/users.py#UserService", "UserService", nil)
		env.nodes.entities[entity.ID] = entity
		env.edges.neighbors = []*model.NeighborNode{
			{NodeID: uuid.New(), EntityType: "FUNCTION", Name: "loadUser", FromID: entity.ID, ToID: uuid.New(), RelType: "CONTAINS", Confidence: 0.8, Hop: 1},
		}

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/search/graph", map[string]any{
			"start_entities": []string{"UserService"},
		})
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.GraphSearchResponse](t, recorder)
		assert.Len(t, response.Entities, 1)
	})

	t.Run("Graph search traverses", func(t *testing.T) {
		env := newTestServer()
		start := uuid.New()
		env.edges.neighbors = []*model.NeighborNode{
			{NodeID: uuid.New(), EntityType: "FUNCTION", Name: "parseOne", FromID: start, ToID: uuid.New(), RelType: "CALLS", Confidence: 0.7, Hop: 1},
		}

		recorder := doRequest(t, env.server.Handler(), http.MethodPost, "/api/search/graph", map[string]any{
			"start_entities": []string{start.String()},
		})
		require.Equal(t, http.StatusOK, recorder.Code)

		response := decodeBody[model.GraphSearchResponse](t, recorder)
		assert.Len(t, response.Entities, 1)
		assert.Len(t, response.Relationships, 1)
	})
}

func TestStatistics(t *testing.T) {
	env := newTestServer()

	recorder := doRequest(t, env.server.Handler(), http.MethodGet, "/api/graph/statistics", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody[map[string]any](t, recorder)
	graph := body["graph"].(map[string]any)
	assert.Equal(t, float64(17), graph["node_count"])
	assert.Equal(t, float64(7), graph["relationship_count"])

	vector := body["vector"].(map[string]any)
	assert.Equal(t, "pgvector", vector["store"])
	assert.Equal(t, float64(384), vector["dimension"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer()

	recorder := doRequest(t, env.server.Handler(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "relgraph_")
}
