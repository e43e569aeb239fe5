package model

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipType is the closed set of directed edge types.
type RelationshipType string

const (
	// Code structure
	RelationshipContains   RelationshipType = "CONTAINS"
	RelationshipImports    RelationshipType = "IMPORTS"
	RelationshipCalls      RelationshipType = "CALLS"
	RelationshipImplements RelationshipType = "IMPLEMENTS"
	RelationshipExtends    RelationshipType = "EXTENDS"
	// Document structure
	RelationshipParentOf   RelationshipType = "PARENT_OF"
	RelationshipReferences RelationshipType = "REFERENCES"
	RelationshipDefines    RelationshipType = "DEFINES"
	// Cross-source
	RelationshipExplains            RelationshipType = "EXPLAINS"
	RelationshipDocuments           RelationshipType = "DOCUMENTS"
	RelationshipSemanticallySimilar RelationshipType = "SEMANTICALLY_SIMILAR"
	RelationshipMentionsExplicitly  RelationshipType = "MENTIONS_EXPLICITLY"
	RelationshipUpdatedNear         RelationshipType = "UPDATED_NEAR"
	// Authorship and temporal
	RelationshipAuthoredBy    RelationshipType = "AUTHORED_BY"
	RelationshipContributedTo RelationshipType = "CONTRIBUTED_TO"
	RelationshipCommittedAt   RelationshipType = "COMMITTED_AT"
	// Generic
	RelationshipRelatedTo RelationshipType = "RELATED_TO"
)

var relationshipTypes = map[string]RelationshipType{
	"CONTAINS":             RelationshipContains,
	"IMPORTS":              RelationshipImports,
	"CALLS":                RelationshipCalls,
	"IMPLEMENTS":           RelationshipImplements,
	"EXTENDS":              RelationshipExtends,
	"PARENT_OF":            RelationshipParentOf,
	"REFERENCES":           RelationshipReferences,
	"DEFINES":              RelationshipDefines,
	"EXPLAINS":             RelationshipExplains,
	"DOCUMENTS":            RelationshipDocuments,
	"SEMANTICALLY_SIMILAR": RelationshipSemanticallySimilar,
	"SIMILAR":              RelationshipSemanticallySimilar,
	"MENTIONS_EXPLICITLY":  RelationshipMentionsExplicitly,
	"MENTIONS":             RelationshipMentionsExplicitly,
	"UPDATED_NEAR":         RelationshipUpdatedNear,
	"AUTHORED_BY":          RelationshipAuthoredBy,
	"CONTRIBUTED_TO":       RelationshipContributedTo,
	"COMMITTED_AT":         RelationshipCommittedAt,
	"RELATED_TO":           RelationshipRelatedTo,
}

// ParseRelationshipType converts a string into a RelationshipType,
// accepting the short aliases SIMILAR and MENTIONS.
func ParseRelationshipType(s string) (RelationshipType, bool) {
	t, ok := relationshipTypes[toUpperSnake(s)]
	return t, ok
}

func (t RelationshipType) String() string {
	return string(t)
}

// IsCrossSource reports whether the edge joins code to documents,
// the distinguishing relationship class of the system.
func (t RelationshipType) IsCrossSource() bool {
	switch t {
	case RelationshipExplains, RelationshipDocuments, RelationshipSemanticallySimilar,
		RelationshipMentionsExplicitly, RelationshipUpdatedNear:
		return true
	}
	return false
}

// CrossSourceRelationshipTypes lists the cross-source edge types.
func CrossSourceRelationshipTypes() []RelationshipType {
	return []RelationshipType{
		RelationshipExplains,
		RelationshipDocuments,
		RelationshipSemanticallySimilar,
		RelationshipMentionsExplicitly,
		RelationshipUpdatedNear,
	}
}

// Relationship is a typed, directed edge with confidence in [0,1].
type Relationship struct {
	ID               uuid.UUID        `json:"id"`
	FromEntityID     uuid.UUID        `json:"from_entity_id"`
	ToEntityID       uuid.UUID        `json:"to_entity_id"`
	RelationshipType RelationshipType `json:"relationship_type"`
	Confidence       float64          `json:"confidence"`
	Properties       Metadata         `json:"properties,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewRelationship creates an edge between two entities.
func NewRelationship(from, to uuid.UUID, relType RelationshipType, confidence float64) *Relationship {
	return &Relationship{
		ID:               uuid.New(),
		FromEntityID:     from,
		ToEntityID:       to,
		RelationshipType: relType,
		Confidence:       confidence,
		Properties:       Metadata{},
		CreatedAt:        time.Now().UTC(),
	}
}

// CreateRelationshipRequest is the request body for creating an edge.
type CreateRelationshipRequest struct {
	FromEntityID     uuid.UUID `json:"from_entity_id"`
	ToEntityID       uuid.UUID `json:"to_entity_id"`
	RelationshipType string    `json:"relationship_type"`
	Confidence       *float64  `json:"confidence,omitempty"`
	Properties       Metadata  `json:"properties,omitempty"`
}

// CreateRelationshipResponse is the response body after creating an edge.
type CreateRelationshipResponse struct {
	RelationshipID uuid.UUID `json:"relationship_id"`
	EdgeID         *string   `json:"neo_rel_id,omitempty"`
}
