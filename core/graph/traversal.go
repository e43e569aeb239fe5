package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/model"
)

// EdgeSource lists the edges touching one node.
type EdgeSource interface {
	SelectEdgesForNode(id uuid.UUID, direction string) ([]*model.RelationshipResult, error)
}

// TraversalOptions bound a breadth-first expansion.
type TraversalOptions struct {
	// Maximum path length in hops.
	MaxHops int
	// Maximum number of reached nodes, the start node excluded.
	MaxNodes int
	// Edge type filter, empty means all types.
	RelTypes []string
	// Traversal direction: outgoing, incoming or both.
	Direction string
}

type traversalState struct {
	node          uuid.UUID
	nodes         []uuid.UUID
	relationships []string
	confidence    float64
	distance      int
}

// BFS expands breadth-first from the start node and returns one path
// per reached node. The first reach wins, so every path is a shortest
// path, and its confidence is the product of the edge confidences
// along it.
func BFS(ctx context.Context, source EdgeSource, start uuid.UUID, opts TraversalOptions) ([]model.GraphPath, error) {
	allowed := map[string]bool{}
	for _, relType := range opts.RelTypes {
		allowed[relType] = true
	}

	visited := map[uuid.UUID]bool{start: true}
	queue := []traversalState{{
		node:       start,
		nodes:      []uuid.UUID{start},
		confidence: 1,
	}}
	paths := []model.GraphPath{}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]

		if current.distance >= opts.MaxHops {
			continue
		}

		edges, err := source.SelectEdgesForNode(current.node, opts.Direction)
		if err != nil {
			return nil, err
		}

		for _, edge := range edges {
			if len(allowed) > 0 && !allowed[edge.RelationshipType] {
				continue
			}

			target := edge.ToID
			if edge.FromID != current.node {
				target = edge.FromID
			}
			if visited[target] {
				continue
			}
			visited[target] = true

			nodes := make([]uuid.UUID, len(current.nodes), len(current.nodes)+1)
			copy(nodes, current.nodes)
			nodes = append(nodes, target)
			relationships := make([]string, len(current.relationships), len(current.relationships)+1)
			copy(relationships, current.relationships)
			relationships = append(relationships, edge.RelationshipType)

			next := traversalState{
				node:          target,
				nodes:         nodes,
				relationships: relationships,
				confidence:    current.confidence * edge.Confidence,
				distance:      current.distance + 1,
			}
			paths = append(paths, model.GraphPath{
				Nodes:           next.nodes,
				Relationships:   next.relationships,
				TotalConfidence: next.confidence,
			})
			if opts.MaxNodes > 0 && len(paths) >= opts.MaxNodes {
				return paths, nil
			}
			queue = append(queue, next)
		}
	}

	return paths, nil
}
