package linker

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/core/extractor"
	"github.com/siherrmann/relgraph/core/pipeline"
	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// identifierPattern matches identifiers of at least four characters,
// the minimum length considered for explicit mention detection.
var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]{3,}`)

// mentionStopWords are language keywords and common words that match
// the identifier pattern but carry no mention signal.
var mentionStopWords = map[string]bool{
	"func": true, "function": true, "return": true, "const": true,
	"type": true, "struct": true, "trait": true, "impl": true,
	"class": true, "interface": true, "enum": true, "import": true,
	"package": true, "module": true, "public": true, "private": true,
	"static": true, "async": true, "await": true, "self": true,
	"this": true, "true": true, "false": true, "none": true, "null": true,
	"string": true, "error": true, "void": true, "else": true,
	"while": true, "match": true, "case": true, "break": true,
}

// Linker discovers semantic bridges between code and document chunks.
// It fuses the server-side vector recall with the client-side boosters
// (explicit mention, temporal proximity, author overlap) under one
// clamped confidence, picks a relationship kind and writes the edge
// with an evidence record.
type Linker struct {
	nodes    database.NodesDBHandlerFunctions
	edges    database.EdgesDBHandlerFunctions
	evidence database.EvidenceDBHandlerFunctions
	embedder pipeline.Embedder
	config   *model.Config
	logger   *slog.Logger
}

// NewLinker creates a cross-source linker.
func NewLinker(nodes database.NodesDBHandlerFunctions, edges database.EdgesDBHandlerFunctions, evidence database.EvidenceDBHandlerFunctions, embedder pipeline.Embedder, config *model.Config, logger *slog.Logger) *Linker {
	return &Linker{
		nodes:    nodes,
		edges:    edges,
		evidence: evidence,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

// LinkBatch links every embedded chunk of a batch against the opposite
// source kind. Both kinds search, so a mixed batch links in both
// directions. When the candidate recall fails, the chunk is scored
// against the rest of the batch in memory instead, so linking degrades
// rather than stops without the vector index. Returns the created
// links and the non-fatal errors.
func (l *Linker) LinkBatch(ctx context.Context, chunks []*model.ChunkWithEmbedding) (int, []string) {
	created := 0
	errs := []string{}
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		links, err := l.LinkChunk(ctx, chunk.Chunk, chunk.Embedding)
		if err != nil {
			errs = append(errs, fmt.Sprintf("link chunk %s: %v", chunk.Chunk.SourceID, err))
			fallback, err := l.persistMemoryLinks(LinkInMemory([]*model.ChunkWithEmbedding{chunk}, chunks, l.config))
			if err != nil {
				errs = append(errs, fmt.Sprintf("link chunk %s in memory: %v", chunk.Chunk.SourceID, err))
			}
			created += fallback
			continue
		}
		created += len(links)
	}
	return created, errs
}

// persistMemoryLinks writes edges and evidence for links scored by the
// in-memory fallback.
func (l *Linker) persistMemoryLinks(links []*model.SemanticLink) (int, error) {
	created := 0
	for _, link := range links {
		properties := model.Metadata{
			"relationship_kind": link.RelationshipType,
			"explicit_mention":  link.ExplicitMention != "",
			"author_overlap":    link.AuthorOverlap,
		}
		if link.SimilarityScore != nil {
			properties["similarity"] = *link.SimilarityScore
		}
		if link.TemporalDistanceDays != nil {
			properties["temporal_distance_days"] = *link.TemporalDistanceDays
		}
		_, err := l.edges.CreateEdge(link.FromChunkID, link.ToChunkID, model.RelationshipSemanticallySimilar, link.Confidence, properties)
		if err != nil {
			return created, helper.NewError("create cross-source edge", err)
		}

		method := model.MethodVectorSimilarity
		if len(link.ExtractionMethods) > 1 {
			method = model.MethodCombined
		}
		evidence := model.NewEvidence(link.FromChunkID, link.ToChunkID, model.RelationshipType(link.RelationshipType), link.Confidence, method)
		evidence.EvidenceText = link.ExplicitMention
		evidence.SimilarityScore = link.SimilarityScore
		evidence.TemporalDistanceDays = link.TemporalDistanceDays
		evidence.AuthorMatch = link.AuthorOverlap
		if _, err := l.evidence.InsertEvidence(evidence); err != nil {
			return created, helper.NewError("insert evidence", err)
		}
		created++
	}
	return created, nil
}

// LinkChunk finds cross-kind candidates for one chunk and persists a
// cross-source edge with evidence for each accepted candidate.
func (l *Linker) LinkChunk(ctx context.Context, chunk *model.Chunk, embedding []float32) ([]*model.SemanticLink, error) {
	mentionBoost := 0.0
	if l.config.EnableExplicitMentions {
		mentionBoost = l.config.ExplicitMentionBoost
	}
	authorBoost := 0.0
	if l.config.EnableAuthorOverlap {
		authorBoost = l.config.AuthorOverlapBoost
	}

	candidates, err := l.nodes.FindSimilarChunksForLinking(
		chunk.ID,
		embedding,
		chunk.SourceKind.Opposite(),
		l.config.SimilarityThreshold,
		l.entityNames(chunk),
		chunk.Author,
		mentionBoost,
		authorBoost,
		l.config.MaxCrossLinksPerChunk,
	)
	if err != nil {
		return nil, helper.NewError("find link candidates", err)
	}

	links := []*model.SemanticLink{}
	for _, candidate := range candidates {
		link, err := l.persistLink(chunk, candidate)
		if err != nil {
			return links, err
		}
		links = append(links, link)
	}

	return links, nil
}

// persistLink applies the client-side boosters to one candidate, picks
// the relationship kind and writes the edge plus its evidence record.
// The clamp to 1.0 applies after every addition.
func (l *Linker) persistLink(chunk *model.Chunk, candidate *model.LinkCandidate) (*model.SemanticLink, error) {
	confidence := candidate.Confidence
	methods := []string{string(model.MethodVectorSimilarity)}

	// The document side supplies the text the selectors read; the code
	// side supplies file path, identifiers and commit timestamp.
	docText := candidate.Content
	docPath := candidate.FilePath
	codePath := chunk.FilePath
	codeContent := chunk.Content
	if chunk.SourceKind == model.SourceKindDocument {
		docText = chunk.Content
		docPath = chunk.FilePath
		codePath = candidate.FilePath
		codeContent = candidate.Content
	}

	mention := ""
	mentioned := candidate.MentionBoosted
	if l.config.EnableExplicitMentions && !mentioned {
		if found, ok := detectExplicitMention(docText, codePath, codeContent); ok {
			mention = found
			mentioned = true
			confidence = clamp(confidence + l.config.ExplicitMentionBoost)
		}
	}
	if mentioned {
		methods = append(methods, string(model.MethodExplicitMention))
	}

	// Temporal proximity compares the document's last update against
	// the code's commit timestamp.
	var temporalDays *int
	if l.config.EnableTemporalProximity {
		var codeDate *time.Time
		var docDate time.Time
		if chunk.SourceKind == model.SourceKindDocument {
			codeDate = candidate.CommitDate
			docDate = chunk.UpdatedAt
			if chunk.CommitDate != nil {
				docDate = *chunk.CommitDate
			}
		} else {
			codeDate = chunk.CommitDate
			docDate = candidate.UpdatedAt
			if candidate.CommitDate != nil {
				docDate = *candidate.CommitDate
			}
		}
		if codeDate != nil {
			distance := docDate.Sub(*codeDate)
			if distance < 0 {
				distance = -distance
			}
			days := int(distance.Hours() / 24)
			window := l.config.TemporalProximityDays
			if window > 0 && days <= window {
				confidence = clamp(confidence + l.config.TemporalProximityBoost*(1-float64(days)/float64(window)))
				temporalDays = &days
				methods = append(methods, string(model.MethodTemporalProximity))
			}
		}
	}

	if candidate.AuthorBoosted {
		methods = append(methods, string(model.MethodAuthorOverlap))
	}

	relType := selectRelationshipType(docText, docPath)

	// The stored edge is always SEMANTICALLY_SIMILAR so repeat linking
	// merges into one row; the chosen kind travels in the properties.
	properties := model.Metadata{
		"relationship_kind": string(relType),
		"similarity":        candidate.Similarity,
		"explicit_mention":  mentioned,
		"author_overlap":    candidate.AuthorBoosted,
	}
	if temporalDays != nil {
		properties["temporal_distance_days"] = *temporalDays
	}
	_, err := l.edges.CreateEdge(chunk.ID, candidate.ID, model.RelationshipSemanticallySimilar, confidence, properties)
	if err != nil {
		return nil, helper.NewError("create cross-source edge", err)
	}

	method := model.ExtractionMethod(methods[0])
	if len(methods) > 1 {
		method = model.MethodCombined
	}
	evidence := model.NewEvidence(chunk.ID, candidate.ID, relType, confidence, method)
	evidence.EvidenceText = mention
	evidence.SimilarityScore = &candidate.Similarity
	evidence.TemporalDistanceDays = temporalDays
	evidence.AuthorMatch = candidate.AuthorBoosted
	_, err = l.evidence.InsertEvidence(evidence)
	if err != nil {
		return nil, helper.NewError("insert evidence", err)
	}

	return &model.SemanticLink{
		FromChunkID:          chunk.ID,
		ToChunkID:            candidate.ID,
		RelationshipType:     string(relType),
		Confidence:           confidence,
		ExtractionMethods:    methods,
		SimilarityScore:      &candidate.Similarity,
		ExplicitMention:      mention,
		TemporalDistanceDays: temporalDays,
		AuthorOverlap:        candidate.AuthorBoosted,
	}, nil
}

// Relink re-runs linking over already-stored chunks. With explicit
// chunk ids only those are processed; otherwise every embedded chunk of
// the requested source kind is re-linked.
func (l *Linker) Relink(ctx context.Context, request *model.CrossSourceLinkRequest) (*model.CrossSourceLinkResponse, error) {
	response := &model.CrossSourceLinkResponse{Errors: []string{}}

	ids := request.ChunkIDs
	if len(ids) == 0 {
		var err error
		ids, err = l.nodes.SelectChunkIDs(request.FromSourceKind)
		if err != nil {
			return nil, helper.NewError("select chunk ids", err)
		}
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return response, err
		}
		links, err := l.relinkOne(ctx, id)
		if err != nil {
			response.Errors = append(response.Errors, fmt.Sprintf("chunk %s: %v", id, err))
			continue
		}
		response.ChunksProcessed++
		response.LinksCreated += links
	}

	return response, nil
}

func (l *Linker) relinkOne(ctx context.Context, id uuid.UUID) (int, error) {
	chunk, err := l.nodes.SelectChunk(id)
	if err != nil {
		return 0, err
	}
	embedding, err := l.embedder.Embed(ctx, chunk.Content)
	if err != nil {
		return 0, err
	}
	links, err := l.LinkChunk(ctx, chunk, embedding)
	return len(links), err
}

// entityNames collects the entity names extracted from the chunk, the
// list the server-side mention boost scans candidate content for.
func (l *Linker) entityNames(chunk *model.Chunk) []string {
	result, err := extractor.ForKind(chunk.SourceKind).Extract(chunk)
	if err != nil {
		return []string{}
	}
	names := []string{}
	for _, entity := range result.Entities {
		if len(entity.Name) >= 4 {
			names = append(names, entity.Name)
		}
	}
	return names
}

// detectExplicitMention scans document text for the code chunk's file
// base name, or for any identifier from the code wrapped in backticks.
func detectExplicitMention(docText, codePath, codeContent string) (string, bool) {
	if docText == "" {
		return "", false
	}

	if codePath != "" {
		base := strings.ToLower(path.Base(codePath))
		if base != "" && strings.Contains(strings.ToLower(docText), base) {
			return base, true
		}
	}

	seen := map[string]bool{}
	for _, ident := range identifierPattern.FindAllString(codeContent, -1) {
		if seen[ident] || mentionStopWords[strings.ToLower(ident)] {
			continue
		}
		seen[ident] = true
		if strings.Contains(docText, "`"+ident) {
			return ident, true
		}
	}

	return "", false
}

// selectRelationshipType picks the cross-source relationship kind from
// the document text and path. First match wins.
func selectRelationshipType(docText, docPath string) model.RelationshipType {
	text := strings.ToLower(docText)
	switch {
	case strings.Contains(text, "how to"), strings.Contains(text, "example"), strings.Contains(text, "usage"):
		return model.RelationshipExplains
	case strings.Contains(text, "endpoint"), strings.Contains(text, "request"), strings.Contains(text, "response"):
		return model.RelationshipDocuments
	case strings.Contains(strings.ToLower(docPath), "readme"):
		return model.RelationshipDocuments
	default:
		return model.RelationshipSemanticallySimilar
	}
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
