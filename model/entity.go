package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityType is the closed set of node types in the knowledge graph.
type EntityType string

const (
	// Code entities
	EntityTypeRepository  EntityType = "repository"
	EntityTypeFile        EntityType = "file"
	EntityTypeFunction    EntityType = "function"
	EntityTypeClass       EntityType = "class"
	EntityTypeModule      EntityType = "module"
	EntityTypeCommit      EntityType = "commit"
	EntityTypePullRequest EntityType = "pull_request"
	EntityTypeIssue       EntityType = "issue"
	// Document entities
	EntityTypeDocument EntityType = "document"
	EntityTypeSection  EntityType = "section"
	EntityTypeConcept  EntityType = "concept"
	// Communication entities
	EntityTypeMessage EntityType = "message"
	EntityTypeThread  EntityType = "thread"
	EntityTypeChannel EntityType = "channel"
	// People and orgs
	EntityTypePerson       EntityType = "person"
	EntityTypeOrganization EntityType = "organization"
	// Generic
	EntityTypeCodeEntity EntityType = "code_entity"
)

var entityTypes = map[string]EntityType{
	"repository":   EntityTypeRepository,
	"file":         EntityTypeFile,
	"function":     EntityTypeFunction,
	"class":        EntityTypeClass,
	"module":       EntityTypeModule,
	"commit":       EntityTypeCommit,
	"pull_request": EntityTypePullRequest,
	"issue":        EntityTypeIssue,
	"document":     EntityTypeDocument,
	"section":      EntityTypeSection,
	"concept":      EntityTypeConcept,
	"message":      EntityTypeMessage,
	"thread":       EntityTypeThread,
	"channel":      EntityTypeChannel,
	"person":       EntityTypePerson,
	"organization": EntityTypeOrganization,
	"code_entity":  EntityTypeCodeEntity,
}

// ParseEntityType converts a string into an EntityType, rejecting unknown tags.
func ParseEntityType(s string) (EntityType, bool) {
	t, ok := entityTypes[s]
	return t, ok
}

func (t EntityType) String() string {
	return string(t)
}

// Label returns the graph node label for the entity type (uppercased).
func (t EntityType) Label() string {
	return toUpperSnake(string(t))
}

// IsCode reports whether this is a code-related entity type.
func (t EntityType) IsCode() bool {
	switch t {
	case EntityTypeRepository, EntityTypeFile, EntityTypeFunction, EntityTypeClass,
		EntityTypeModule, EntityTypeCommit, EntityTypePullRequest, EntityTypeIssue,
		EntityTypeCodeEntity:
		return true
	}
	return false
}

// IsDocument reports whether this is a document-related entity type.
func (t EntityType) IsDocument() bool {
	switch t {
	case EntityTypeDocument, EntityTypeSection, EntityTypeConcept:
		return true
	}
	return false
}

// DataSource is the closed set of origins chunks and entities come from.
type DataSource string

const (
	DataSourceGitHub      DataSource = "github"
	DataSourceGitLab      DataSource = "gitlab"
	DataSourceBitbucket   DataSource = "bitbucket"
	DataSourceSlack       DataSource = "slack"
	DataSourceNotion      DataSource = "notion"
	DataSourceGoogleDrive DataSource = "google_drive"
	DataSourceDropbox     DataSource = "dropbox"
	DataSourceLocalFile   DataSource = "local_file"
	DataSourceURLCrawler  DataSource = "url_crawler"
	DataSourceEmail       DataSource = "email"
	DataSourceJira        DataSource = "jira"
	DataSourceConfluence  DataSource = "confluence"
)

var dataSources = map[string]DataSource{
	"github":       DataSourceGitHub,
	"gitlab":       DataSourceGitLab,
	"bitbucket":    DataSourceBitbucket,
	"slack":        DataSourceSlack,
	"notion":       DataSourceNotion,
	"google_drive": DataSourceGoogleDrive,
	"dropbox":      DataSourceDropbox,
	"local_file":   DataSourceLocalFile,
	"url_crawler":  DataSourceURLCrawler,
	"email":        DataSourceEmail,
	"jira":         DataSourceJira,
	"confluence":   DataSourceConfluence,
}

// ParseDataSource converts a string into a DataSource.
func ParseDataSource(s string) (DataSource, bool) {
	d, ok := dataSources[s]
	return d, ok
}

func (d DataSource) String() string {
	return string(d)
}

// SourceKind returns the source kind (code or document) hosted by this source.
func (d DataSource) SourceKind() SourceKind {
	switch d {
	case DataSourceGitHub, DataSourceGitLab, DataSourceBitbucket, DataSourceLocalFile:
		return SourceKindCode
	}
	return SourceKindDocument
}

// Entity is a typed node in the knowledge graph.
type Entity struct {
	ID          uuid.UUID  `json:"id"`
	EntityType  EntityType `json:"entity_type"`
	Source      DataSource `json:"source"`
	SourceID    string     `json:"source_id"`
	Name        string     `json:"name"`
	CanonicalID *uuid.UUID `json:"canonical_id,omitempty"`
	Properties  Metadata   `json:"properties,omitempty"`
	Embedding   []float32  `json:"embedding,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// entityNamespace scopes the v5 ids minted for entities.
var entityNamespace = uuid.MustParse("9a7b8c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d")

// EntityID derives the stable id for (entity_type, source, source_id).
// The same logical entity always maps to the same id, so upsert by id
// and logical uniqueness are a single operation.
func EntityID(entityType EntityType, source DataSource, sourceID string) uuid.UUID {
	return uuid.NewSHA1(entityNamespace, []byte(string(entityType)+"|"+string(source)+"|"+sourceID))
}

// NewEntity creates an entity with a derived stable id.
func NewEntity(entityType EntityType, source DataSource, sourceID string, name string, properties Metadata) *Entity {
	now := time.Now().UTC()
	if properties == nil {
		properties = Metadata{}
	}
	return &Entity{
		ID:         EntityID(entityType, source, sourceID),
		EntityType: entityType,
		Source:     source,
		SourceID:   sourceID,
		Name:       name,
		Properties: properties,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CanonicalEntity is a merged view of source-specific entities sharing identity.
type CanonicalEntity struct {
	ID               uuid.UUID `json:"id"`
	EntityType       EntityType `json:"entity_type"`
	CanonicalName    string    `json:"canonical_name"`
	MergedProperties Metadata  `json:"merged_properties,omitempty"`
	SourceEntities   []uuid.UUID `json:"source_entities,omitempty"`
	ConfidenceScore  float64   `json:"confidence_score"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateEntityRequest is the request body for POST /api/graph/entities.
type CreateEntityRequest struct {
	EntityType       string   `json:"entity_type"`
	Source           string   `json:"source"`
	SourceID         string   `json:"source_id"`
	Name             string   `json:"name"`
	Properties       Metadata `json:"properties,omitempty"`
	TextForEmbedding string   `json:"text_for_embedding,omitempty"`
}

// CreateEntityResponse is the response body after creating an entity.
type CreateEntityResponse struct {
	EntityID    uuid.UUID  `json:"entity_id"`
	NodeID      *string    `json:"neo_node_id,omitempty"`
	CanonicalID *uuid.UUID `json:"canonical_id,omitempty"`
	Resolved    bool       `json:"resolved"`
}

func toUpperSnake(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
