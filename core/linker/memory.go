package linker

import (
	"math"
	"sort"

	"github.com/siherrmann/relgraph/model"
)

// Cosine returns the cosine similarity dot / (|a|*|b|) of two vectors.
// Zero-length or mismatched vectors have similarity 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// LinkInMemory scores one source collection against a target
// collection of the opposite kind without a backend, using cosine
// similarity over the supplied vectors and the same boosters and
// relationship selection as the persistent path. Nothing is written;
// the links are returned for the caller to use.
func LinkInMemory(sources, targets []*model.ChunkWithEmbedding, config *model.Config) []*model.SemanticLink {
	links := []*model.SemanticLink{}

	for _, source := range sources {
		if len(source.Embedding) == 0 {
			continue
		}

		candidates := []*model.SemanticLink{}
		for _, target := range targets {
			if len(target.Embedding) == 0 || target.Chunk.ID == source.Chunk.ID ||
				target.Chunk.SourceKind == source.Chunk.SourceKind {
				continue
			}

			similarity := Cosine(source.Embedding, target.Embedding)
			if similarity < config.SimilarityThreshold {
				continue
			}

			link := scoreInMemory(source.Chunk, target.Chunk, similarity, config)
			candidates = append(candidates, link)
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Confidence > candidates[j].Confidence
		})
		if len(candidates) > config.MaxCrossLinksPerChunk {
			candidates = candidates[:config.MaxCrossLinksPerChunk]
		}
		links = append(links, candidates...)
	}

	return links
}

// scoreInMemory applies the boosters to one pair. The clamp to 1.0
// applies after every addition.
func scoreInMemory(source, target *model.Chunk, similarity float64, config *model.Config) *model.SemanticLink {
	confidence := similarity
	methods := []string{string(model.MethodVectorSimilarity)}

	doc, code := target, source
	if source.SourceKind == model.SourceKindDocument {
		doc, code = source, target
	}

	mention := ""
	if config.EnableExplicitMentions {
		if found, ok := detectExplicitMention(doc.Content, code.FilePath, code.Content); ok {
			mention = found
			confidence = clamp(confidence + config.ExplicitMentionBoost)
			methods = append(methods, string(model.MethodExplicitMention))
		}
	}

	var temporalDays *int
	if config.EnableTemporalProximity && code.CommitDate != nil {
		docTime := doc.UpdatedAt
		if doc.CommitDate != nil {
			docTime = *doc.CommitDate
		}
		distance := docTime.Sub(*code.CommitDate)
		if distance < 0 {
			distance = -distance
		}
		days := int(distance.Hours() / 24)
		window := config.TemporalProximityDays
		if window > 0 && days <= window {
			confidence = clamp(confidence + config.TemporalProximityBoost*(1-float64(days)/float64(window)))
			temporalDays = &days
			methods = append(methods, string(model.MethodTemporalProximity))
		}
	}

	authorOverlap := false
	if config.EnableAuthorOverlap && source.Author != "" && source.Author == target.Author {
		authorOverlap = true
		confidence = clamp(confidence + config.AuthorOverlapBoost)
		methods = append(methods, string(model.MethodAuthorOverlap))
	}

	return &model.SemanticLink{
		FromChunkID:          source.ID,
		ToChunkID:            target.ID,
		RelationshipType:     string(selectRelationshipType(doc.Content, doc.FilePath)),
		Confidence:           confidence,
		ExtractionMethods:    methods,
		SimilarityScore:      &similarity,
		ExplicitMention:      mention,
		TemporalDistanceDays: temporalDays,
		AuthorOverlap:        authorOverlap,
	}
}
