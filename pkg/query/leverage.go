package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/trellis-kg/trellis/pkg/annotate"
	"github.com/trellis-kg/trellis/pkg/assemble"
	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/extract"
)

// DefaultLeverageLimit bounds LeveragePoints results when no limit is given.
const DefaultLeverageLimit = 10

// LeveragePoint is one highly connected node of a transient graph.
type LeveragePoint struct {
	NodeID string  `json:"node_id"`
	Score  float64 `json:"score"`
}

// LeveragePoints extracts relationships from the text, assembles a transient
// graph without persisting anything, and returns the nodes with the highest
// degree centrality. Ties keep extraction order.
func (e *Engine) LeveragePoints(ctx context.Context, text string, limit int, annotator annotate.Annotator) ([]LeveragePoint, error) {
	if limit <= 0 {
		limit = DefaultLeverageLimit
	}

	doc, err := annotator.Annotate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate text: %w", err)
	}

	triples := extract.NewExtractor().Extract(ctx, doc)
	view := assemble.FromTriples(triples)

	points := rankByDegree(view)
	if len(points) > limit {
		points = points[:limit]
	}
	return points, nil
}

// rankByDegree scores every view node by degree centrality, duplicate edges
// between the same pair counted once, and sorts descending. The sort is
// stable so equal scores keep assembly order.
func rankByDegree(view *common.GraphView) []LeveragePoint {
	n := len(view.Nodes)
	adjacent := make(map[string]map[string]struct{}, n)
	for _, node := range view.Nodes {
		adjacent[node.ID] = make(map[string]struct{})
	}
	for _, edge := range view.Edges {
		if edge.Source == edge.Target {
			continue
		}
		adjacent[edge.Source][edge.Target] = struct{}{}
		adjacent[edge.Target][edge.Source] = struct{}{}
	}

	points := make([]LeveragePoint, 0, n)
	for _, node := range view.Nodes {
		score := 0.0
		if n > 1 {
			score = float64(len(adjacent[node.ID])) / float64(n-1)
		}
		points = append(points, LeveragePoint{NodeID: node.ID, Score: score})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Score > points[j].Score
	})
	return points
}
