package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// EdgesDBHandlerFunctions defines the interface for edge database operations.
type EdgesDBHandlerFunctions interface {
	CreateEdge(fromID, toID uuid.UUID, relType model.RelationshipType, confidence float64, properties model.Metadata) (uuid.UUID, error)
	SelectEdgesForNode(id uuid.UUID, direction string) ([]*model.RelationshipResult, error)
	GetNeighbors(startIDs []uuid.UUID, relTypes []string, direction string, maxHops, maxEntities int) ([]*model.NeighborNode, error)
	CrossSourceRelationships(chunkIDs []uuid.UUID) ([]*model.RelationshipResult, error)
	EdgeStatistics() (map[string]int64, error)
	DeleteEdge(fromID, toID uuid.UUID, relType model.RelationshipType) (bool, error)
}

// EdgesDBHandler handles edge-related database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'edges' table in the database.
// If the table already exists, it does not create it again.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		return helper.NewError("initialize edges table", err)
	}

	h.db.Logger.Info("Checked/created table edges")

	return nil
}

// CreateEdge merges an edge. An existing (from, to, type) edge keeps
// the higher confidence and the union of properties.
func (h *EdgesDBHandler) CreateEdge(fromID, toID uuid.UUID, relType model.RelationshipType, confidence float64, properties model.Metadata) (uuid.UUID, error) {
	if properties == nil {
		properties = model.Metadata{}
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM create_edge($1, $2, $3, $4, $5)`,
		fromID,
		toID,
		relType,
		confidence,
		properties,
	)

	var id uuid.UUID
	err := row.Scan(&id)
	if err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}

	return id, nil
}

// SelectEdgesForNode retrieves edges touching a node in the given direction.
func (h *EdgesDBHandler) SelectEdgesForNode(id uuid.UUID, direction string) ([]*model.RelationshipResult, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_for_node($1, $2)`,
		id,
		direction,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	results := []*model.RelationshipResult{}
	for rows.Next() {
		result := &model.RelationshipResult{}
		var edgeID uuid.UUID
		var properties model.Metadata
		err := rows.Scan(
			&edgeID,
			&result.FromID,
			&result.ToID,
			&result.RelationshipType,
			&result.Confidence,
			&properties,
			&result.FromName,
			&result.ToName,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if relType, ok := model.ParseRelationshipType(result.RelationshipType); ok {
			result.IsCrossSource = relType.IsCrossSource()
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// GetNeighbors expands the graph from a set of start nodes, bounded by
// hops and entity count. Each reached node is returned once at its
// minimal hop.
func (h *EdgesDBHandler) GetNeighbors(startIDs []uuid.UUID, relTypes []string, direction string, maxHops, maxEntities int) ([]*model.NeighborNode, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM get_neighbors($1, $2, $3, $4, $5)`,
		pq.Array(startIDs),
		pq.Array(relTypes),
		direction,
		maxHops,
		maxEntities,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	neighbors := []*model.NeighborNode{}
	for rows.Next() {
		neighbor := &model.NeighborNode{}
		err := rows.Scan(
			&neighbor.NodeID,
			&neighbor.EntityType,
			&neighbor.Name,
			&neighbor.Source,
			&neighbor.Properties,
			&neighbor.FromID,
			&neighbor.ToID,
			&neighbor.RelType,
			&neighbor.Confidence,
			&neighbor.Hop,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		neighbors = append(neighbors, neighbor)
	}

	return neighbors, rows.Err()
}

// CrossSourceRelationships retrieves cross-source edges touching any
// of the given chunks.
func (h *EdgesDBHandler) CrossSourceRelationships(chunkIDs []uuid.UUID) ([]*model.RelationshipResult, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM cross_source_relationships($1)`,
		pq.Array(chunkIDs),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	results := []*model.RelationshipResult{}
	for rows.Next() {
		result := &model.RelationshipResult{IsCrossSource: true}
		var properties model.Metadata
		err := rows.Scan(
			&result.FromID,
			&result.ToID,
			&result.FromName,
			&result.ToName,
			&result.RelationshipType,
			&result.Confidence,
			&properties,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// EdgeStatistics returns edge counts grouped by relationship type.
func (h *EdgesDBHandler) EdgeStatistics() (map[string]int64, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM edge_statistics()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	stats := map[string]int64{}
	for rows.Next() {
		var relType string
		var count int64
		if err := rows.Scan(&relType, &count); err != nil {
			return nil, helper.NewError("scan", err)
		}
		stats[relType] = count
	}

	return stats, rows.Err()
}

// DeleteEdge deletes an edge by its (from, to, type) key.
func (h *EdgesDBHandler) DeleteEdge(fromID, toID uuid.UUID, relType model.RelationshipType) (bool, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM delete_edge($1, $2, $3)`,
		fromID,
		toID,
		relType,
	)

	var deleted bool
	err := row.Scan(&deleted)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return deleted, nil
}
