package query

import (
	"context"
	"math"
)

// maxExactCentralityNodes caps the node count for betweenness and
// eigenvector centrality. Both are superlinear; beyond the cap only degree
// centrality is reported.
const maxExactCentralityNodes = 500

// CentralityResult holds per-node centrality scores keyed by public ID.
// Betweenness and Eigenvector are nil when the graph exceeds the exact
// computation cap.
type CentralityResult struct {
	Degree      map[string]float64 `json:"degree"`
	Betweenness map[string]float64 `json:"betweenness,omitempty"`
	Eigenvector map[string]float64 `json:"eigenvector,omitempty"`
}

// Centrality computes degree centrality for every node, plus betweenness
// (Brandes) and eigenvector (power iteration) centrality where the graph
// size makes them tractable. Edges count in both directions; an isolated
// node scores zero.
func (e *Engine) Centrality(ctx context.Context, owner string) (*CentralityResult, error) {
	snap, err := e.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	result := &CentralityResult{Degree: degreeCentrality(snap)}
	if len(snap.nodes) <= maxExactCentralityNodes {
		result.Betweenness = betweennessCentrality(snap)
		result.Eigenvector = eigenvectorCentrality(snap)
	}
	return result, nil
}

// degreeCentrality is the fraction of all other nodes adjacent to each node,
// duplicates between the same pair counted once.
func degreeCentrality(snap *snapshot) map[string]float64 {
	scores := make(map[string]float64, len(snap.nodes))
	n := len(snap.nodes)
	for i, node := range snap.nodes {
		if n <= 1 {
			scores[node.ID] = 0
			continue
		}
		distinct := make(map[int]struct{}, len(snap.und[i]))
		for _, j := range snap.und[i] {
			if j != i {
				distinct[j] = struct{}{}
			}
		}
		scores[node.ID] = float64(len(distinct)) / float64(n-1)
	}
	return scores
}

// betweennessCentrality implements Brandes' accumulation over the
// undirected graph. Scores are halved because every undirected path is
// found twice.
func betweennessCentrality(snap *snapshot) map[string]float64 {
	n := len(snap.nodes)
	cb := make([]float64, n)

	dist := make([]int, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	preds := make([][]int, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			dist[i] = -1
			sigma[i] = 0
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		dist[s] = 0
		sigma[s] = 1

		var stack []int
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range snap.und[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	scores := make(map[string]float64, n)
	for i, node := range snap.nodes {
		scores[node.ID] = cb[i] / 2
	}
	return scores
}

// eigenvectorCentrality runs power iteration over the undirected adjacency
// until the vector converges or the pass budget runs out. Scores are
// L2-normalized.
func eigenvectorCentrality(snap *snapshot) map[string]float64 {
	n := len(snap.nodes)
	scores := make(map[string]float64, n)
	if n == 0 {
		return scores
	}

	vec := make([]float64, n)
	for i := range vec {
		vec[i] = 1.0 / float64(n)
	}

	const maxPasses = 100
	const epsilon = 1e-6
	next := make([]float64, n)
	for pass := 0; pass < maxPasses; pass++ {
		// The self term shifts the spectrum by one, which keeps the
		// iteration from oscillating on bipartite graphs without changing
		// the eigenvectors.
		copy(next, vec)
		for i := range snap.und {
			for _, j := range snap.und[i] {
				next[j] += vec[i]
			}
		}

		norm := 0.0
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			break
		}

		diff := 0.0
		for i := range next {
			next[i] /= norm
			diff += math.Abs(next[i] - vec[i])
		}
		copy(vec, next)
		if diff < epsilon {
			break
		}
	}

	for i, node := range snap.nodes {
		scores[node.ID] = vec[i]
	}
	return scores
}
