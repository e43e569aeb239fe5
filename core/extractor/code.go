package extractor

import (
	"path"
	"regexp"

	"github.com/siherrmann/relgraph/model"
)

// Pattern families for code chunks. Extraction is line-oriented and
// language-agnostic: the union of the common definition syntaxes of
// Go, Rust, Python, JavaScript/TypeScript and Java.
var (
	functionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*func\s+(?:\([^)]*\)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
		regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:async\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)`),
		regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)`),
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s*)?\([^)]*\)\s*=>`),
	}

	classPattern = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:export\s+)?(?:abstract\s+)?(?:class|struct|trait|interface|enum)\s+([A-Z][A-Za-z0-9_]*)`)

	moduleDeclPattern = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:mod|package|namespace)\s+([A-Za-z_][A-Za-z0-9_.]*)`)

	importPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*use\s+([A-Za-z_][A-Za-z0-9_:]*)`),
		regexp.MustCompile(`(?m)^\s*import\s+([A-Za-z_][A-Za-z0-9_./]*)`),
		regexp.MustCompile(`(?m)^\s*from\s+([A-Za-z_][A-Za-z0-9_.]*)\s+import`),
		regexp.MustCompile(`(?m)^\s*import\s+.*\s+from\s+["']([^"']+)["']`),
	}

	endpointPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\.(?:get|post|put|delete|patch)\s*\(\s*["']([^"']+)["']`),
		regexp.MustCompile(`#\[(?:get|post|put|delete|patch)\("([^"]+)"\)\]`),
		regexp.MustCompile(`@(?:Get|Post|Put|Delete|Patch)Mapping\("([^"]+)"\)`),
	}

	// impl Trait for Type => Type IMPLEMENTS Trait
	implForPattern    = regexp.MustCompile(`(?m)^\s*impl(?:<[^>]*>)?\s+([A-Z][A-Za-z0-9_]*)(?:<[^>]*>)?\s+for\s+([A-Z][A-Za-z0-9_]*)`)
	implementsPattern = regexp.MustCompile(`(?m)class\s+([A-Z][A-Za-z0-9_]*)[^{\n]*\simplements\s+([A-Z][A-Za-z0-9_]*)`)

	extendsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)class\s+([A-Z][A-Za-z0-9_]*)\s+extends\s+([A-Z][A-Za-z0-9_]*)`),
		regexp.MustCompile(`(?m)class\s+([A-Z][A-Za-z0-9_]*)\(([A-Z][A-Za-z0-9_]*)\)`),
	}

	callPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

	ticketPattern = regexp.MustCompile(`\b([A-Z]{2,10}-\d+)\b`)

	pullRequestPattern = regexp.MustCompile(`(?i)(?:PR\s*#|pull request\s*#|#)(\d{1,6})\b`)
)

// Extraction confidences per pattern family.
const (
	confidenceDefinition = 0.9
	confidenceImport     = 0.8
	confidenceImportEdge = 0.85
	confidenceEndpoint   = 0.85
	confidenceHierarchy  = 0.95
	confidenceContains   = 0.8
	confidenceCall       = 0.7
	confidenceTicket     = 0.9
	confidencePullRef    = 0.8
)

// CodeExtractor extracts entities and relationships from code chunks
// using the pattern families above.
type CodeExtractor struct{}

// NewCodeExtractor creates a code extractor.
func NewCodeExtractor() *CodeExtractor {
	return &CodeExtractor{}
}

func (e *CodeExtractor) Supports(kind model.SourceKind) bool {
	return kind == model.SourceKindCode
}

// Extract runs all code pattern families over the chunk content.
// Extraction never fails on content; an empty result is valid.
func (e *CodeExtractor) Extract(chunk *model.Chunk) (*ExtractionResult, error) {
	result := &ExtractionResult{}
	content := chunk.Content
	ref := chunkRef(chunk)

	// File and repository provenance entities
	if chunk.FilePath != "" {
		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypeFile,
			Name:       path.Base(chunk.FilePath),
			SourceID:   filePathRef(chunk),
			Confidence: 1.0,
			Properties: model.Metadata{"file_path": chunk.FilePath},
		})
	}
	if chunk.RepoName != "" {
		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypeRepository,
			Name:       chunk.RepoName,
			SourceID:   chunk.RepoName,
			Confidence: 1.0,
		})
	}

	// Module, package and namespace declarations
	for _, match := range moduleDeclPattern.FindAllStringSubmatchIndex(content, -1) {
		name := content[match[2]:match[3]]
		if isStopWord(name) {
			continue
		}
		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypeModule,
			Name:       name,
			SourceID:   name,
			Confidence: confidenceDefinition,
			StartLine:  lineAt(content, match[0]),
		})
	}

	// Function definitions. Definition name offsets are kept so call
	// sites can be told apart from the definitions themselves; the
	// textually first definition anchors the CALLS edges.
	functionNames := map[string]bool{}
	functionOrder := []string{}
	defOffsets := map[int]string{}
	firstFunction := ""
	firstFunctionOffset := -1
	for _, pattern := range functionPatterns {
		for _, match := range pattern.FindAllStringSubmatchIndex(content, -1) {
			name := content[match[2]:match[3]]
			defOffsets[match[2]] = name
			if isStopWord(name) {
				continue
			}
			if firstFunctionOffset < 0 || match[2] < firstFunctionOffset {
				firstFunction = name
				firstFunctionOffset = match[2]
			}
			if functionNames[name] {
				continue
			}
			functionNames[name] = true
			functionOrder = append(functionOrder, name)
			result.addEntity(ExtractedEntity{
				EntityType: model.EntityTypeFunction,
				Name:       name,
				SourceID:   ref + "#" + name,
				Confidence: confidenceDefinition,
				StartLine:  lineAt(content, match[0]),
				Properties: model.Metadata{"language": chunk.Language},
			})
		}
	}

	// Class definitions. The textually first class anchors both the
	// CONTAINS and the IMPORTS edges.
	classNames := map[string]bool{}
	classOrder := []string{}
	for _, match := range classPattern.FindAllStringSubmatchIndex(content, -1) {
		name := content[match[2]:match[3]]
		if classNames[name] {
			continue
		}
		classNames[name] = true
		classOrder = append(classOrder, name)
		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypeClass,
			Name:       name,
			SourceID:   ref + "#" + name,
			Confidence: confidenceDefinition,
			StartLine:  lineAt(content, match[0]),
			Properties: model.Metadata{"language": chunk.Language},
		})
	}

	// Imports become module entities, imported by the declared classes
	for _, pattern := range importPatterns {
		for _, match := range pattern.FindAllStringSubmatchIndex(content, -1) {
			name := content[match[2]:match[3]]
			if name == "" || isStopWord(name) {
				continue
			}
			result.addEntity(ExtractedEntity{
				EntityType: model.EntityTypeModule,
				Name:       name,
				SourceID:   name,
				Confidence: confidenceImport,
				StartLine:  lineAt(content, match[0]),
			})
			for _, className := range classOrder {
				result.addRelationship(ExtractedRelationship{
					FromName:         className,
					ToName:           name,
					RelationshipType: model.RelationshipImports,
					Confidence:       confidenceImportEdge,
				})
			}
		}
	}

	// API endpoints
	for _, pattern := range endpointPatterns {
		for _, match := range pattern.FindAllStringSubmatchIndex(content, -1) {
			route := content[match[2]:match[3]]
			result.addEntity(ExtractedEntity{
				EntityType: model.EntityTypeCodeEntity,
				Name:       route,
				SourceID:   ref + "@" + route,
				Confidence: confidenceEndpoint,
				StartLine:  lineAt(content, match[0]),
				Properties: model.Metadata{"kind": "endpoint"},
			})
		}
	}

	// Type hierarchy
	for _, match := range implForPattern.FindAllStringSubmatch(content, -1) {
		result.addRelationship(ExtractedRelationship{
			FromName:         match[2],
			ToName:           match[1],
			RelationshipType: model.RelationshipImplements,
			Confidence:       confidenceHierarchy,
		})
	}
	for _, match := range implementsPattern.FindAllStringSubmatch(content, -1) {
		result.addRelationship(ExtractedRelationship{
			FromName:         match[1],
			ToName:           match[2],
			RelationshipType: model.RelationshipImplements,
			Confidence:       confidenceHierarchy,
		})
	}
	for _, pattern := range extendsPatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			result.addRelationship(ExtractedRelationship{
				FromName:         match[1],
				ToName:           match[2],
				RelationshipType: model.RelationshipExtends,
				Confidence:       confidenceHierarchy,
			})
		}
	}

	// Containment: the first declared class contains every function
	// declared in the chunk.
	if len(classOrder) > 0 {
		for _, functionName := range functionOrder {
			result.addRelationship(ExtractedRelationship{
				FromName:         classOrder[0],
				ToName:           functionName,
				RelationshipType: model.RelationshipContains,
				Confidence:       confidenceContains,
			})
		}
	}

	// Calls to functions defined in this chunk. A call site is a match
	// of the call pattern that is not a definition; the edge runs from
	// the first declared function to each called one.
	if firstFunction != "" {
		for _, match := range callPattern.FindAllStringSubmatchIndex(content, -1) {
			pos := match[2]
			callee := content[match[2]:match[3]]
			if !functionNames[callee] || defOffsets[pos] != "" || callee == firstFunction {
				continue
			}
			result.addRelationship(ExtractedRelationship{
				FromName:         firstFunction,
				ToName:           callee,
				RelationshipType: model.RelationshipCalls,
				Confidence:       confidenceCall,
			})
		}
	}

	// Issue and ticket keys
	for _, match := range ticketPattern.FindAllStringSubmatchIndex(content, -1) {
		key := content[match[2]:match[3]]
		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypeIssue,
			Name:       key,
			SourceID:   key,
			Confidence: confidenceTicket,
			StartLine:  lineAt(content, match[0]),
		})
	}

	// Pull request references
	for _, match := range pullRequestPattern.FindAllStringSubmatchIndex(content, -1) {
		number := content[match[2]:match[3]]
		result.addEntity(ExtractedEntity{
			EntityType: model.EntityTypePullRequest,
			Name:       "#" + number,
			SourceID:   chunk.RepoName + "#" + number,
			Confidence: confidencePullRef,
			StartLine:  lineAt(content, match[0]),
		})
	}

	return result, nil
}

// chunkRef is the stable prefix for entity identities minted from a
// chunk: repo and file when known, the chunk's source id otherwise.
func chunkRef(chunk *model.Chunk) string {
	if chunk.FilePath != "" {
		return filePathRef(chunk)
	}
	return chunk.SourceID
}

func filePathRef(chunk *model.Chunk) string {
	if chunk.RepoName != "" {
		return chunk.RepoName + "/" + chunk.FilePath
	}
	return chunk.FilePath
}
