package extractor

import (
	"testing"

	"github.com/siherrmann/relgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentChunk(content string) *model.Chunk {
	input := &model.ChunkInput{
		Content:    content,
		SourceKind: "document",
		SourceType: "notion",
		SourceID:   "doc-1",
	}
	return input.ToChunk()
}

func TestDocumentExtractorSections(t *testing.T) {
	e := NewDocumentExtractor()

	t.Run("Headings become sections", func(t *testing.T) {
		result, err := e.Extract(documentChunk("# Configuration\n\nSome intro.\n\n## Loading\n\nDetails.\n"))
		require.NoError(t, err, "Expected Extract to not return an error")

		section := findEntity(t, result, model.EntityTypeSection, "Configuration")
		require.NotNil(t, section, "Expected top-level section entity")
		assert.InDelta(t, 0.95, section.Confidence, 0.001, "Expected section confidence")
		assert.Equal(t, "doc-1#Configuration", section.SourceID, "Expected document-scoped section id")
		assert.Equal(t, 1, section.Properties["level"], "Expected heading level property")

		assert.NotNil(t, findEntity(t, result, model.EntityTypeSection, "Loading"), "Expected nested section entity")
	})

	t.Run("Heading tree yields PARENT_OF", func(t *testing.T) {
		content := "# Guide\n## Setup\n### Docker\n## Usage\n"
		result, err := e.Extract(documentChunk(content))
		require.NoError(t, err)

		parent := findRelationship(result, "Guide", "Setup", model.RelationshipParentOf)
		require.NotNil(t, parent, "Expected Guide PARENT_OF Setup")
		assert.InDelta(t, 1.0, parent.Confidence, 0.001, "Expected structural confidence")

		assert.NotNil(t, findRelationship(result, "Setup", "Docker", model.RelationshipParentOf), "Expected Setup PARENT_OF Docker")
		assert.NotNil(t, findRelationship(result, "Guide", "Usage", model.RelationshipParentOf), "Expected sibling to attach to Guide after pop")
		assert.Nil(t, findRelationship(result, "Docker", "Usage", model.RelationshipParentOf), "Expected Usage to not attach to deeper sibling")
	})
}

func TestDocumentExtractorCodeReferences(t *testing.T) {
	e := NewDocumentExtractor()

	t.Run("Backticked identifiers become code references", func(t *testing.T) {
		result, err := e.Extract(documentChunk("# Parsing\n\nCall `ParseConfig()` after loading `config_store`.\n"))
		require.NoError(t, err)

		fn := findEntity(t, result, model.EntityTypeFunction, "ParseConfig")
		require.NotNil(t, fn, "Expected function entity from call syntax")
		assert.InDelta(t, 0.85, fn.Confidence, 0.001, "Expected code reference confidence")

		assert.NotNil(t, findEntity(t, result, model.EntityTypeCodeEntity, "config_store"), "Expected snake_case code entity")

		ref := findRelationship(result, "Parsing", "ParseConfig", model.RelationshipReferences)
		require.NotNil(t, ref, "Expected section REFERENCES function")
		assert.InDelta(t, 0.8, ref.Confidence, 0.001, "Expected reference confidence")
	})

	t.Run("Plain words in backticks are rejected", func(t *testing.T) {
		result, err := e.Extract(documentChunk("Use `true` or `example` or `run` here.\n"))
		require.NoError(t, err)

		assert.Nil(t, findEntity(t, result, model.EntityTypeCodeEntity, "true"), "Expected stop word to be rejected")
		assert.Nil(t, findEntity(t, result, model.EntityTypeCodeEntity, "example"), "Expected stop word to be rejected")
		assert.Nil(t, findEntity(t, result, model.EntityTypeCodeEntity, "run"), "Expected short word to be rejected")
	})

	t.Run("Chunk section title is the referrer without headings", func(t *testing.T) {
		chunk := documentChunk("See `load_settings` for details.\n")
		chunk.SectionTitle = "Advanced"
		result, err := e.Extract(chunk)
		require.NoError(t, err)

		assert.NotNil(t, findRelationship(result, "Advanced", "load_settings", model.RelationshipReferences), "Expected reference from the chunk's section")
	})

	t.Run("First extracted heading is the referrer", func(t *testing.T) {
		chunk := documentChunk("# Parsing\n\nSee `load_settings` for details.\n")
		chunk.SectionTitle = "Advanced"
		result, err := e.Extract(chunk)
		require.NoError(t, err)

		assert.NotNil(t, findRelationship(result, "Parsing", "load_settings", model.RelationshipReferences), "Expected reference from the root section of the content")
		assert.Nil(t, findRelationship(result, "Advanced", "load_settings", model.RelationshipReferences), "Expected the section title to yield to extracted headings")
	})
}

func TestDocumentExtractorAPIMentions(t *testing.T) {
	e := NewDocumentExtractor()

	t.Run("Verb and path become an endpoint", func(t *testing.T) {
		result, err := e.Extract(documentChunk("# Users API\n\nSend GET /api/users to list accounts.\n"))
		require.NoError(t, err)

		endpoint := findEntity(t, result, model.EntityTypeCodeEntity, "GET /api/users")
		require.NotNil(t, endpoint, "Expected endpoint entity from API mention")
		assert.InDelta(t, 0.9, endpoint.Confidence, 0.001, "Expected API mention confidence")
		assert.Equal(t, "endpoint", endpoint.Properties["kind"], "Expected endpoint kind property")

		assert.NotNil(t, findRelationship(result, "Users API", "GET /api/users", model.RelationshipReferences), "Expected section REFERENCES endpoint")
	})
}

func TestDocumentExtractorConcepts(t *testing.T) {
	e := NewDocumentExtractor()

	t.Run("Title-case phrases become concepts", func(t *testing.T) {
		result, err := e.Extract(documentChunk("Hybrid retrieval uses the Query Planner to expand vector recall.\n"))
		require.NoError(t, err)

		concept := findEntity(t, result, model.EntityTypeConcept, "Query Planner")
		require.NotNil(t, concept, "Expected concept entity")
		assert.InDelta(t, 0.7, concept.Confidence, 0.001, "Expected concept confidence")
		assert.Equal(t, "query planner", concept.SourceID, "Expected lowercased concept id")
	})

	t.Run("Long phrases are kept whole", func(t *testing.T) {
		result, err := e.Extract(documentChunk("Retrieval follows the Hybrid Query Planner Engine Design for recall.\n"))
		require.NoError(t, err)

		assert.NotNil(t, findEntity(t, result, model.EntityTypeConcept, "Hybrid Query Planner Engine Design"), "Expected phrases beyond four words extracted whole")
	})

	t.Run("Headings and code spans do not produce concepts", func(t *testing.T) {
		result, err := e.Extract(documentChunk("# Release Notes\n\nSee `Config Loader` in backticks only.\n"))
		require.NoError(t, err)

		assert.Nil(t, findEntity(t, result, model.EntityTypeConcept, "Release Notes"), "Expected heading text to be excluded")
		assert.Nil(t, findEntity(t, result, model.EntityTypeConcept, "Config Loader"), "Expected backticked text to be excluded")
	})
}

func TestBuildHeadingPath(t *testing.T) {
	t.Run("Path of the deepest open section", func(t *testing.T) {
		path := BuildHeadingPath("# Guide\n## Setup\n### Docker\n")
		assert.Equal(t, "Guide > Setup > Docker", path, "Expected full nesting path")
	})

	t.Run("Sibling pops the deeper levels", func(t *testing.T) {
		path := BuildHeadingPath("# Guide\n## Setup\n### Docker\n## Usage\n")
		assert.Equal(t, "Guide > Usage", path, "Expected siblings to replace deeper levels")
	})

	t.Run("No headings yields empty path", func(t *testing.T) {
		assert.Equal(t, "", BuildHeadingPath("plain prose only"), "Expected empty path without headings")
	})
}

func TestDocumentExtractorSupports(t *testing.T) {
	assert.True(t, NewDocumentExtractor().Supports(model.SourceKindDocument), "Expected document extractor to support documents")
	assert.False(t, NewDocumentExtractor().Supports(model.SourceKindCode), "Expected document extractor to reject code")

	_, ok := ForKind(model.SourceKindDocument).(*DocumentExtractor)
	assert.True(t, ok, "Expected ForKind to return the document extractor for documents")
}
