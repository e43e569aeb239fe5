package extractor

import (
	"strings"

	"github.com/siherrmann/relgraph/model"
)

// ExtractedEntity is an entity found in chunk content, before it is
// resolved against the graph. SourceID is the stable logical identity
// the node id is derived from. StartLine is the 1-based line of the
// pattern match, 0 for entities without a match position.
type ExtractedEntity struct {
	EntityType model.EntityType
	Name       string
	SourceID   string
	Confidence float64
	StartLine  int
	Properties model.Metadata
}

// ExtractedRelationship is a relationship between two extracted
// entities, referenced by name. Names are resolved to node ids by the
// processor; unresolvable names are dropped silently.
type ExtractedRelationship struct {
	FromName         string
	ToName           string
	RelationshipType model.RelationshipType
	Confidence       float64
}

// ExtractionResult is everything one extractor found in one chunk.
type ExtractionResult struct {
	Entities      []ExtractedEntity
	Relationships []ExtractedRelationship
}

// Extractor turns chunk content into entities and relationships.
type Extractor interface {
	Extract(chunk *model.Chunk) (*ExtractionResult, error)
	Supports(kind model.SourceKind) bool
}

// ForKind returns the extractor responsible for the given source kind.
func ForKind(kind model.SourceKind) Extractor {
	if kind == model.SourceKindCode {
		return NewCodeExtractor()
	}
	return NewDocumentExtractor()
}

// identifierStopWords are common words that look like identifiers in
// backticks or call positions but never name code.
var identifierStopWords = map[string]bool{
	"true": true, "false": true, "null": true, "none": true,
	"this": true, "self": true, "super": true,
	"return": true, "if": true, "else": true, "for": true, "while": true,
	"switch": true, "match": true, "case": true, "break": true, "continue": true,
	"the": true, "and": true, "with": true, "from": true, "that": true,
	"code": true, "json": true, "yaml": true, "http": true, "https": true,
	"note": true, "todo": true, "example": true,
}

func isStopWord(s string) bool {
	return identifierStopWords[toLower(s)]
}

// lineAt is the 1-based line of a byte offset in content.
func lineAt(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}

// addEntity appends an entity unless the same (type, name) was already
// collected for this chunk.
func (r *ExtractionResult) addEntity(entity ExtractedEntity) {
	for _, existing := range r.Entities {
		if existing.EntityType == entity.EntityType && existing.Name == entity.Name {
			return
		}
	}
	r.Entities = append(r.Entities, entity)
}

// addRelationship appends a relationship unless the same triple was
// already collected for this chunk.
func (r *ExtractionResult) addRelationship(rel ExtractedRelationship) {
	for _, existing := range r.Relationships {
		if existing.FromName == rel.FromName && existing.ToName == rel.ToName &&
			existing.RelationshipType == rel.RelationshipType {
			return
		}
	}
	r.Relationships = append(r.Relationships, rel)
}
