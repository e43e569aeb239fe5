package model

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionMethod describes how a relationship was inferred.
type ExtractionMethod string

const (
	MethodAST               ExtractionMethod = "ast"
	MethodVectorSimilarity  ExtractionMethod = "vector_similarity"
	MethodExplicitMention   ExtractionMethod = "explicit_mention"
	MethodTemporalProximity ExtractionMethod = "temporal_proximity"
	MethodAuthorOverlap     ExtractionMethod = "author_overlap"
	MethodPatternMatch      ExtractionMethod = "pattern_match"
	MethodManual            ExtractionMethod = "manual"
	MethodCombined          ExtractionMethod = "combined"
)

func (m ExtractionMethod) String() string {
	return string(m)
}

// RelationshipEvidence is the audit record for a cross-source edge:
// which methods fired, the raw similarity, temporal distance and author
// match that produced the final confidence.
type RelationshipEvidence struct {
	ID                   uuid.UUID        `json:"id"`
	FromChunkID          uuid.UUID        `json:"from_chunk_id"`
	ToChunkID            uuid.UUID        `json:"to_chunk_id"`
	FromEntityID         *uuid.UUID       `json:"from_entity_id,omitempty"`
	ToEntityID           *uuid.UUID       `json:"to_entity_id,omitempty"`
	RelationshipType     RelationshipType `json:"relationship_type"`
	Confidence           float64          `json:"confidence"`
	ExtractionMethod     ExtractionMethod `json:"extraction_method"`
	EvidenceText         string           `json:"evidence_text,omitempty"`
	SimilarityScore      *float64         `json:"similarity_score,omitempty"`
	TemporalDistanceDays *int             `json:"temporal_distance_days,omitempty"`
	AuthorMatch          bool             `json:"author_match"`
	Properties           Metadata         `json:"properties,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// NewEvidence creates an evidence record for a cross-source edge.
func NewEvidence(from, to uuid.UUID, relType RelationshipType, confidence float64, method ExtractionMethod) *RelationshipEvidence {
	return &RelationshipEvidence{
		ID:               uuid.New(),
		FromChunkID:      from,
		ToChunkID:        to,
		RelationshipType: relType,
		Confidence:       confidence,
		ExtractionMethod: method,
		Properties:       Metadata{},
		CreatedAt:        time.Now().UTC(),
	}
}

// LinkCandidate is one row from the fused linking query: a chunk of
// the opposite source kind above the similarity threshold, with the
// server-side boosts already applied.
type LinkCandidate struct {
	ID             uuid.UUID  `json:"id"`
	Content        string     `json:"content"`
	SourceKind     string     `json:"source_kind"`
	SourceType     string     `json:"source_type"`
	FilePath       string     `json:"file_path,omitempty"`
	RepoName       string     `json:"repo_name,omitempty"`
	HeadingPath    string     `json:"heading_path,omitempty"`
	Author         string     `json:"author,omitempty"`
	CommitDate     *time.Time `json:"commit_date,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Similarity     float64    `json:"similarity"`
	Confidence     float64    `json:"confidence"`
	MentionBoosted bool       `json:"mention_boosted"`
	AuthorBoosted  bool       `json:"author_boosted"`
}

// SemanticLink is the wire representation of a cross-source edge.
type SemanticLink struct {
	FromChunkID          uuid.UUID `json:"from_chunk_id"`
	ToChunkID            uuid.UUID `json:"to_chunk_id"`
	RelationshipType     string    `json:"relationship_type"`
	Confidence           float64   `json:"confidence"`
	ExtractionMethods    []string  `json:"extraction_methods"`
	SimilarityScore      *float64  `json:"similarity_score,omitempty"`
	ExplicitMention      string    `json:"explicit_mention,omitempty"`
	TemporalDistanceDays *int      `json:"temporal_distance_days,omitempty"`
	AuthorOverlap        bool      `json:"author_overlap"`
}
