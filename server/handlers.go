package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/model"
)

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
	Features   map[string]bool   `json:"features"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"graph":           "up",
		"relational":      "up",
		"vector_store":    "up",
		"embedding_model": "up",
	}
	status := "healthy"

	if _, err := s.nodes.NodeStatistics(); err != nil {
		components["graph"] = "down"
		components["relational"] = "down"
		components["vector_store"] = "down"
		status = "degraded"
	}
	if err := s.embedder.Health(r.Context()); err != nil {
		components["embedding_model"] = "down"
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:     status,
		Service:    serviceName,
		Version:    serviceVersion,
		Components: components,
		Features: map[string]bool{
			"temporal_proximity": s.config.EnableTemporalProximity,
			"explicit_mentions":  s.config.EnableExplicitMentions,
			"author_overlap":     s.config.EnableAuthorOverlap,
		},
	})
}

func (s *Server) handleIngestChunks(w http.ResponseWriter, r *http.Request) {
	request := &model.IngestChunksRequest{}
	if err := decodeJSON(r, request); err != nil {
		writeError(w, err)
		return
	}
	if len(request.Chunks) == 0 {
		writeError(w, model.NewGraphError(model.ErrInvalidRequest, "chunks must not be empty", nil))
		return
	}

	response, withEmbeddings := s.processor.IngestChunks(r.Context(), request)

	createLinks := request.CreateCrossLinks == nil || *request.CreateCrossLinks
	if createLinks && len(withEmbeddings) > 0 {
		created, errors := s.linker.LinkBatch(r.Context(), withEmbeddings)
		response.LinksCreated = created
		response.Errors = append(response.Errors, errors...)
	}

	s.metrics.ChunksIngested.Add(float64(response.ChunksIngested))
	s.metrics.EntitiesExtracted.Add(float64(response.EntitiesExtracted))
	s.metrics.RelationshipsCreated.Add(float64(response.RelationshipsCreated))
	s.metrics.VectorsStored.Add(float64(response.VectorsStored))
	s.metrics.LinksCreated.Add(float64(response.LinksCreated))

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	request := &model.CreateEntityRequest{}
	if err := decodeJSON(r, request); err != nil {
		writeError(w, err)
		return
	}

	entityType, ok := model.ParseEntityType(request.EntityType)
	if !ok {
		writeError(w, model.NewGraphError(model.ErrInvalidEntityType, "invalid entity type: "+request.EntityType, nil))
		return
	}
	source, ok := model.ParseDataSource(request.Source)
	if !ok {
		writeError(w, model.NewGraphError(model.ErrInvalidEntityType, "invalid source: "+request.Source, nil))
		return
	}

	entity := model.NewEntity(entityType, source, request.SourceID, request.Name, request.Properties)
	id, err := s.nodes.UpsertEntity(entity)
	if err != nil {
		writeError(w, err)
		return
	}

	if request.TextForEmbedding != "" {
		embedding, err := s.embedder.Embed(r.Context(), request.TextForEmbedding)
		if err != nil {
			s.logger.Warn("Entity embedding failed", "entity_id", id, "error", err)
		} else if _, err := s.nodes.SetNodeEmbedding(id, embedding); err != nil {
			s.logger.Warn("Entity embedding store failed", "entity_id", id, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, model.CreateEntityResponse{
		EntityID: id,
		Resolved: false,
	})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, model.NewGraphError(model.ErrInvalidEntityType, "invalid entity id", err))
		return
	}

	entity, err := s.nodes.SelectEntity(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          entity.ID,
		"name":        entity.Name,
		"entity_type": entity.EntityType,
	})
}

// neighborView is one row of the neighbors listing.
type neighborView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship"`
	Confidence   float64   `json:"confidence"`
}

func (s *Server) handleEntityNeighbors(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, model.NewGraphError(model.ErrInvalidEntityType, "invalid entity id", err))
		return
	}

	if _, err := s.nodes.SelectEntity(id); err != nil {
		writeError(w, err)
		return
	}

	edges, err := s.edges.SelectEdgesForNode(id, model.DirectionBoth)
	if err != nil {
		writeError(w, err)
		return
	}

	neighbors := []neighborView{}
	for _, edge := range edges {
		neighbor := neighborView{
			ID:           edge.ToID,
			Name:         edge.ToName,
			Relationship: edge.RelationshipType,
			Confidence:   edge.Confidence,
		}
		if edge.ToID == id {
			neighbor.ID = edge.FromID
			neighbor.Name = edge.FromName
		}
		neighbors = append(neighbors, neighbor)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity_id": id,
		"neighbors": neighbors,
	})
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	request := &model.CreateRelationshipRequest{}
	if err := decodeJSON(r, request); err != nil {
		writeError(w, err)
		return
	}

	relType, ok := model.ParseRelationshipType(request.RelationshipType)
	if !ok {
		writeError(w, model.NewGraphError(model.ErrInvalidRelationshipType, "invalid relationship type: "+request.RelationshipType, nil))
		return
	}

	confidence := 1.0
	if request.Confidence != nil {
		confidence = *request.Confidence
	}

	id, err := s.edges.CreateEdge(request.FromEntityID, request.ToEntityID, relType, confidence, request.Properties)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.RelationshipsCreated.Inc()
	writeJSON(w, http.StatusOK, model.CreateRelationshipResponse{RelationshipID: id})
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	request := &model.CrossSourceLinkRequest{}
	if err := decodeJSON(r, request); err != nil {
		writeError(w, err)
		return
	}

	response, err := s.linker.Relink(r.Context(), request)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.LinksCreated.Add(float64(response.LinksCreated))
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	request := &model.HybridSearchRequest{}
	if err := decodeJSON(r, request); err != nil {
		writeError(w, err)
		return
	}
	if request.Query == "" {
		writeError(w, model.NewGraphError(model.ErrInvalidRequest, "query must not be empty", nil))
		return
	}

	response, err := s.engine.HybridSearch(r.Context(), request)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.Searches.WithLabelValues("hybrid").Inc()
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleVectorSearch(w http.ResponseWriter, r *http.Request) {
	request := &model.VectorSearchRequest{}
	if err := decodeJSON(r, request); err != nil {
		writeError(w, err)
		return
	}
	if request.Query == "" {
		writeError(w, model.NewGraphError(model.ErrInvalidRequest, "query must not be empty", nil))
		return
	}

	response, err := s.engine.VectorSearch(r.Context(), request)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.Searches.WithLabelValues("vector").Inc()
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGraphSearch(w http.ResponseWriter, r *http.Request) {
	request := &model.GraphSearchRequest{}
	if err := decodeJSON(r, request); err != nil {
		writeError(w, err)
		return
	}

	response, err := s.engine.GraphSearch(r.Context(), request)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.Searches.WithLabelValues("graph").Inc()
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	nodeStats, err := s.nodes.NodeStatistics()
	if err != nil {
		writeError(w, err)
		return
	}
	edgeStats, err := s.edges.EdgeStatistics()
	if err != nil {
		writeError(w, err)
		return
	}

	var nodeCount, edgeCount int64
	for _, count := range nodeStats {
		nodeCount += count
	}
	for _, count := range edgeStats {
		edgeCount += count
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"graph": map[string]any{
			"node_count":            nodeCount,
			"relationship_count":    edgeCount,
			"nodes_by_label":        nodeStats,
			"relationships_by_type": edgeStats,
		},
		"vector": map[string]any{
			"store":     "pgvector",
			"dimension": s.config.VectorDimension,
			"indexes":   []string{"chunk_embedding_idx"},
		},
	})
}

// decodeJSON reads a JSON request body, mapping malformed input to a
// bad request error.
func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(out); err != nil {
		return model.NewGraphError(model.ErrInvalidRequest, fmt.Sprintf("invalid request body: %v", err), err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps an error to its HTTP status and the {error, status} body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if graphErr, ok := model.AsGraphError(err); ok {
		status = graphErr.StatusCode()
	}
	writeJSON(w, status, map[string]any{
		"error":  err.Error(),
		"status": status,
	})
}
