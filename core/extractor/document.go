package extractor

import (
	"regexp"
	"strings"

	"github.com/siherrmann/relgraph/model"
)

// Pattern families for document chunks (markdown and prose).
var (
	headingPattern  = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+?)\s*$`)
	backtickPattern = regexp.MustCompile("`([^`\n]+)`")
	conceptPattern  = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)
	apiPattern      = regexp.MustCompile(`\b(GET|POST|PUT|DELETE|PATCH)\s+(/[^\s]+)`)
)

const (
	confidenceSection    = 0.95
	confidenceParentOf   = 1.0
	confidenceCodeRef    = 0.85
	confidenceConcept    = 0.7
	confidenceAPIMention = 0.9
	confidenceReferences = 0.8
)

// DocumentExtractor extracts section structure, code references,
// concepts and API mentions from document chunks.
type DocumentExtractor struct{}

// NewDocumentExtractor creates a document extractor.
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

func (e *DocumentExtractor) Supports(kind model.SourceKind) bool {
	return kind == model.SourceKindDocument
}

// Extract runs all document pattern families over the chunk content.
func (e *DocumentExtractor) Extract(chunk *model.Chunk) (*ExtractionResult, error) {
	result := &ExtractionResult{}
	docRef := chunkRef(chunk)

	// Heading tree: a stack fold over heading levels yields the
	// PARENT_OF relationships between sections.
	type heading struct {
		level int
		title string
	}
	var stack []heading
	for _, match := range headingPattern.FindAllStringSubmatchIndex(chunk.Content, -1) {
		level := match[3] - match[2]
		title := chunk.Content[match[4]:match[5]]

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypeSection,
			Name:       title,
			SourceID:   docRef + "#" + title,
			Confidence: confidenceSection,
			StartLine:  lineAt(chunk.Content, match[0]),
			Properties: model.Metadata{"level": level},
		})
		if len(stack) > 0 {
			result.addRelationship(ExtractedRelationship{
				FromName:         stack[len(stack)-1].title,
				ToName:           title,
				RelationshipType: model.RelationshipParentOf,
				Confidence:       confidenceParentOf,
			})
		}

		stack = append(stack, heading{level: level, title: title})
	}

	// The section code references hang off: the first extracted
	// heading, the chunk's own section title when the content carries
	// no headings.
	referrer := ""
	if len(result.Entities) > 0 && result.Entities[0].EntityType == model.EntityTypeSection {
		referrer = result.Entities[0].Name
	}
	if referrer == "" {
		referrer = chunk.SectionTitle
	}

	// Backticked code references
	for _, match := range backtickPattern.FindAllStringSubmatchIndex(chunk.Content, -1) {
		raw := chunk.Content[match[2]:match[3]]
		name, entityType, ok := classifyCodeRef(raw)
		if !ok {
			continue
		}
		result.addEntity(ExtractedEntity{
			EntityType: entityType,
			Name:       name,
			SourceID:   name,
			Confidence: confidenceCodeRef,
			StartLine:  lineAt(chunk.Content, match[0]),
		})
		result.linkReference(referrer, name)
	}

	// API mentions
	for _, match := range apiPattern.FindAllStringSubmatchIndex(chunk.Content, -1) {
		route := chunk.Content[match[2]:match[3]] + " " + chunk.Content[match[4]:match[5]]
		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypeCodeEntity,
			Name:       route,
			SourceID:   route,
			Confidence: confidenceAPIMention,
			StartLine:  lineAt(chunk.Content, match[0]),
			Properties: model.Metadata{"kind": "endpoint"},
		})
		result.linkReference(referrer, route)
	}

	// Title-case concepts outside headings and code spans
	prose := headingPattern.ReplaceAllString(chunk.Content, "")
	prose = backtickPattern.ReplaceAllString(prose, "")
	for _, match := range conceptPattern.FindAllStringSubmatch(prose, -1) {
		name := match[1]
		if isStopWord(name) {
			continue
		}
		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypeConcept,
			Name:       name,
			SourceID:   strings.ToLower(name),
			Confidence: confidenceConcept,
		})
	}

	return result, nil
}

// linkReference adds a section REFERENCES target relationship when a
// referring section is known.
func (r *ExtractionResult) linkReference(referrer, target string) {
	if referrer == "" || referrer == target {
		return
	}
	r.addRelationship(ExtractedRelationship{
		FromName:         referrer,
		ToName:           target,
		RelationshipType: model.RelationshipReferences,
		Confidence:       confidenceReferences,
	})
}

// classifyCodeRef decides whether a backticked span names code. It
// must look like an identifier: no spaces, at least four characters,
// and either call syntax, a path separator, an underscore or mixed
// case. Trailing call parentheses mark a function.
func classifyCodeRef(raw string) (string, model.EntityType, bool) {
	name := strings.TrimSpace(raw)
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}

	entityType := model.EntityTypeCodeEntity
	if strings.HasSuffix(name, "()") {
		name = strings.TrimSuffix(name, "()")
		entityType = model.EntityTypeFunction
	}

	if len(name) < 4 || isStopWord(name) {
		return "", "", false
	}

	hasUnderscore := strings.Contains(name, "_")
	hasSeparator := strings.Contains(name, "::") || strings.Contains(name, ".") || strings.Contains(name, "/")
	hasMixedCase := strings.ToLower(name) != name && strings.ToUpper(name) != name
	if entityType != model.EntityTypeFunction && !hasUnderscore && !hasSeparator && !hasMixedCase {
		return "", "", false
	}

	return name, entityType, true
}

// BuildHeadingPath folds the markdown headings in content into the
// "A > B > C" path of the deepest open section, the heading context a
// chunk cut at the end of content would carry.
func BuildHeadingPath(content string) string {
	type heading struct {
		level int
		title string
	}
	var stack []heading
	for _, match := range headingPattern.FindAllStringSubmatch(content, -1) {
		level := len(match[1])
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, heading{level: level, title: match[2]})
	}

	titles := make([]string, 0, len(stack))
	for _, h := range stack {
		titles = append(titles, h.title)
	}
	return strings.Join(titles, " > ")
}
