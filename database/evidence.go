package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// EvidenceDBHandlerFunctions defines the interface for evidence database operations.
type EvidenceDBHandlerFunctions interface {
	InsertEvidence(evidence *model.RelationshipEvidence) (uuid.UUID, error)
	SelectEvidenceForRelationship(fromChunkID, toChunkID uuid.UUID, relType model.RelationshipType) ([]*model.RelationshipEvidence, error)
}

// EvidenceDBHandler handles evidence-related database operations
type EvidenceDBHandler struct {
	db *helper.Database
}

// NewEvidenceDBHandler creates a new evidence database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEvidenceDBHandler(db *helper.Database, force bool) (*EvidenceDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	evidenceDbHandler := &EvidenceDBHandler{
		db: db,
	}

	err := loadSql.LoadEvidenceSql(evidenceDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load evidence sql", err)
	}

	err = evidenceDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EvidenceDBHandler")

	return evidenceDbHandler, nil
}

// CreateTable creates the 'relationship_evidence' table in the database.
// If the table already exists, it does not create it again.
func (h *EvidenceDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_evidence();`)
	if err != nil {
		return helper.NewError("initialize evidence table", err)
	}

	h.db.Logger.Info("Checked/created table relationship_evidence")

	return nil
}

// InsertEvidence inserts an evidence record for a cross-source edge.
func (h *EvidenceDBHandler) InsertEvidence(evidence *model.RelationshipEvidence) (uuid.UUID, error) {
	if evidence.Properties == nil {
		evidence.Properties = model.Metadata{}
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_evidence($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		evidence.FromChunkID,
		evidence.ToChunkID,
		evidence.RelationshipType,
		evidence.Confidence,
		evidence.ExtractionMethod,
		evidence.EvidenceText,
		evidence.SimilarityScore,
		evidence.TemporalDistanceDays,
		evidence.AuthorMatch,
		evidence.Properties,
	)

	var id uuid.UUID
	err := row.Scan(&id)
	if err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}
	evidence.ID = id

	return id, nil
}

// SelectEvidenceForRelationship retrieves the evidence records for one
// edge. An empty relType matches all types between the two chunks.
func (h *EvidenceDBHandler) SelectEvidenceForRelationship(fromChunkID, toChunkID uuid.UUID, relType model.RelationshipType) ([]*model.RelationshipEvidence, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_evidence_for_relationship($1, $2, $3)`,
		fromChunkID,
		toChunkID,
		relType,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	records := []*model.RelationshipEvidence{}
	for rows.Next() {
		record := &model.RelationshipEvidence{}
		var similarityScore sql.NullFloat64
		var temporalDistance sql.NullInt32
		err := rows.Scan(
			&record.ID,
			&record.FromChunkID,
			&record.ToChunkID,
			&record.RelationshipType,
			&record.Confidence,
			&record.ExtractionMethod,
			&record.EvidenceText,
			&similarityScore,
			&temporalDistance,
			&record.AuthorMatch,
			&record.Properties,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if similarityScore.Valid {
			record.SimilarityScore = &similarityScore.Float64
		}
		if temporalDistance.Valid {
			v := int(temporalDistance.Int32)
			record.TemporalDistanceDays = &v
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
