package model

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// SourceKind is the binary classification of a chunk.
type SourceKind string

const (
	SourceKindCode     SourceKind = "code"
	SourceKindDocument SourceKind = "document"
)

// ParseSourceKind converts a string into a SourceKind.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch s {
	case "code":
		return SourceKindCode, true
	case "document":
		return SourceKindDocument, true
	}
	return "", false
}

func (k SourceKind) String() string {
	return string(k)
}

// Opposite returns the other source kind, the target side of cross-source linking.
func (k SourceKind) Opposite() SourceKind {
	if k == SourceKindCode {
		return SourceKindDocument
	}
	return SourceKindCode
}

// Chunk is the atomic unit of ingestion: a fragment of code or prose
// with provenance metadata. Chunks are never mutated after write;
// re-ingest of the same source_id upserts a new revision.
type Chunk struct {
	ID           uuid.UUID  `json:"id"`
	Content      string     `json:"content"`
	ContentHash  string     `json:"content_hash"`
	SourceKind   SourceKind `json:"source_kind"`
	SourceType   string     `json:"source_type"`
	SourceID     string     `json:"source_id"`
	FilePath     string     `json:"file_path,omitempty"`
	RepoName     string     `json:"repo_name,omitempty"`
	Branch       string     `json:"branch,omitempty"`
	Language     string     `json:"language,omitempty"`
	HeadingPath  string     `json:"heading_path,omitempty"`
	SectionTitle string     `json:"section_title,omitempty"`
	OwnerID      string     `json:"owner_id"`
	Author       string     `json:"author,omitempty"`
	CommitSHA    string     `json:"commit_sha,omitempty"`
	CommitDate   *time.Time `json:"commit_date,omitempty"`
	StartLine    *int       `json:"start_line,omitempty"`
	EndLine      *int       `json:"end_line,omitempty"`
	TokenCount   *int       `json:"token_count,omitempty"`
	Metadata     Metadata   `json:"metadata,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ChunkWithEmbedding pairs a chunk with its dense vector.
type ChunkWithEmbedding struct {
	Chunk     *Chunk    `json:"chunk"`
	Embedding []float32 `json:"embedding"`
}

// ContentHash computes the deterministic MD5 hex digest of chunk text.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ChunkInput is the wire format for a single chunk in an ingest request.
type ChunkInput struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	Content      string     `json:"content"`
	SourceKind   string     `json:"source_kind"`
	SourceType   string     `json:"source_type"`
	SourceID     string     `json:"source_id"`
	FilePath     string     `json:"file_path,omitempty"`
	RepoName     string     `json:"repo_name,omitempty"`
	Branch       string     `json:"branch,omitempty"`
	Language     string     `json:"language,omitempty"`
	HeadingPath  string     `json:"heading_path,omitempty"`
	SectionTitle string     `json:"section_title,omitempty"`
	OwnerID      string     `json:"owner_id"`
	Author       string     `json:"author,omitempty"`
	CommitSHA    string     `json:"commit_sha,omitempty"`
	CommitDate   *time.Time `json:"commit_date,omitempty"`
	StartLine    *int       `json:"start_line,omitempty"`
	EndLine      *int       `json:"end_line,omitempty"`
	TokenCount   *int       `json:"token_count,omitempty"`
	Metadata     Metadata   `json:"metadata,omitempty"`
	Embedding    []float32  `json:"embedding,omitempty"`
}

// ToChunk converts the input into a Chunk, minting an id if absent and
// computing the content hash.
func (in *ChunkInput) ToChunk() *Chunk {
	id := uuid.New()
	if in.ID != nil {
		id = *in.ID
	}
	kind, ok := ParseSourceKind(in.SourceKind)
	if !ok {
		kind = SourceKindDocument
	}
	metadata := in.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}
	now := time.Now().UTC()
	return &Chunk{
		ID:           id,
		Content:      in.Content,
		ContentHash:  ContentHash(in.Content),
		SourceKind:   kind,
		SourceType:   in.SourceType,
		SourceID:     in.SourceID,
		FilePath:     in.FilePath,
		RepoName:     in.RepoName,
		Branch:       in.Branch,
		Language:     in.Language,
		HeadingPath:  in.HeadingPath,
		SectionTitle: in.SectionTitle,
		OwnerID:      in.OwnerID,
		Author:       in.Author,
		CommitSHA:    in.CommitSHA,
		CommitDate:   in.CommitDate,
		StartLine:    in.StartLine,
		EndLine:      in.EndLine,
		TokenCount:   in.TokenCount,
		Metadata:     metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IngestChunksRequest is the request body for POST /api/graph/chunks.
type IngestChunksRequest struct {
	Chunks           []ChunkInput `json:"chunks"`
	ExtractEntities  *bool        `json:"extract_entities,omitempty"`
	CreateCrossLinks *bool        `json:"create_cross_links,omitempty"`
}

// IngestChunksResponse reports the per-batch counters. A batch is a
// report, not a transaction: the error list carries non-fatal failures.
type IngestChunksResponse struct {
	ChunksIngested       int      `json:"chunks_ingested"`
	EntitiesExtracted    int      `json:"entities_extracted"`
	RelationshipsCreated int      `json:"relationships_created"`
	VectorsStored        int      `json:"vectors_stored"`
	LinksCreated         int      `json:"links_created"`
	Errors               []string `json:"errors"`
}
