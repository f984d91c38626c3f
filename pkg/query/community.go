package query

import (
	"context"
	"fmt"
)

// Community detection methods.
const (
	MethodModularity  = "modularity"
	MethodBetweenness = "betweenness"
)

// minComponentSplit is the minimum component size eligible for further
// modularity-based splitting.
const minComponentSplit = 6

// wedge is a weighted edge in the undirected in-memory adjacency list.
type wedge struct {
	to     int
	weight float64
}

// Communities partitions every node into exactly one community, keyed by
// public ID. The default method clusters by greedy modularity optimisation;
// the betweenness method splits by iterative removal of high
// edge-betweenness edges (Girvan-Newman).
func (e *Engine) Communities(ctx context.Context, owner, method string) ([][]string, error) {
	snap, err := e.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	var groups [][]int
	switch method {
	case "", MethodModularity:
		groups = modularityCommunities(snap)
	case MethodBetweenness:
		groups = betweennessCommunities(snap)
	default:
		return nil, fmt.Errorf("unknown community detection method %q", method)
	}

	communities := make([][]string, 0, len(groups))
	for _, group := range groups {
		ids := make([]string, len(group))
		for i, idx := range group {
			ids[i] = snap.nodes[idx].ID
		}
		communities = append(communities, ids)
	}
	return communities, nil
}

// weightedAdjacency builds the undirected weighted adjacency list and the
// total edge weight. Zero stored weights count as one.
func weightedAdjacency(snap *snapshot) ([][]wedge, float64) {
	adj := make([][]wedge, len(snap.nodes))
	totalWeight := 0.0
	for _, edge := range snap.edges {
		si, okS := snap.index[edge.SourceNodeID]
		ti, okT := snap.index[edge.TargetNodeID]
		if !okS || !okT {
			continue
		}
		w := edge.Weight
		if w <= 0 {
			w = 1
		}
		adj[si] = append(adj[si], wedge{to: ti, weight: w})
		adj[ti] = append(adj[ti], wedge{to: si, weight: w})
		totalWeight += w
	}
	return adj, totalWeight
}

// connectedComponents finds components via BFS over the given adjacency.
func connectedComponents(n int, adj [][]wedge) [][]int {
	visited := make([]bool, n)
	var components [][]int
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		var comp []int
		queue := []int{i}
		visited[i] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			comp = append(comp, node)
			for _, e := range adj[node] {
				if !visited[e.to] {
					visited[e.to] = true
					queue = append(queue, e.to)
				}
			}
		}
		components = append(components, comp)
	}
	return components
}

// modularityCommunities starts from connected components and splits large
// ones with greedy modularity optimisation.
func modularityCommunities(snap *snapshot) [][]int {
	adj, totalWeight := weightedAdjacency(snap)
	components := connectedComponents(len(snap.nodes), adj)

	var groups [][]int
	for _, comp := range components {
		if len(comp) >= minComponentSplit && totalWeight > 0 {
			groups = append(groups, modularitySplit(comp, adj, totalWeight)...)
			continue
		}
		groups = append(groups, comp)
	}
	return groups
}

// modularitySplit applies greedy modularity optimisation (simplified
// Louvain) to split a connected component. If no split improves modularity
// the component is returned as-is.
func modularitySplit(comp []int, adj [][]wedge, totalWeight float64) [][]int {
	n := len(comp)
	localIdx := make(map[int]int, n)
	for i, node := range comp {
		localIdx[node] = i
	}

	// Each node starts in its own community.
	community := make([]int, n)
	for i := range community {
		community[i] = i
	}

	// Node strengths within the subgraph.
	strength := make([]float64, n)
	for i, node := range comp {
		for _, e := range adj[node] {
			if _, ok := localIdx[e.to]; ok {
				strength[i] += e.weight
			}
		}
	}

	m2 := 2.0 * totalWeight
	commStrength := make(map[int]float64, n)
	for i := range comp {
		commStrength[community[i]] += strength[i]
	}

	// Repeatedly move nodes to the neighbouring community with the best
	// modularity gain. Pass count is capped to avoid pathological cases.
	const maxPasses = 20
	for pass := 0; pass < maxPasses; pass++ {
		moved := false
		for i, node := range comp {
			commWeights := make(map[int]float64)
			for _, e := range adj[node] {
				li, ok := localIdx[e.to]
				if !ok {
					continue
				}
				commWeights[community[li]] += e.weight
			}

			currentComm := community[i]
			ki := strength[i]
			// Own strength is excluded when pricing the current community,
			// otherwise staying put looks worse than it is.
			removeDelta := commWeights[currentComm]/m2 - ((commStrength[currentComm]-ki)*ki)/(m2*m2)

			bestComm := currentComm
			bestGain := 0.0
			for c, wic := range commWeights {
				if c == currentComm {
					continue
				}
				gain := (wic/m2 - (commStrength[c]*ki)/(m2*m2)) - removeDelta
				if gain > bestGain {
					bestGain = gain
					bestComm = c
				}
			}

			if bestComm != currentComm {
				commStrength[currentComm] -= ki
				commStrength[bestComm] += ki
				community[i] = bestComm
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	groups := make(map[int][]int)
	for i, node := range comp {
		groups[community[i]] = append(groups[community[i]], node)
	}
	if len(groups) <= 1 {
		return [][]int{comp}
	}

	// Deterministic output order: by smallest member index.
	order := make([]int, 0, len(groups))
	seen := make(map[int]struct{})
	for _, node := range comp {
		label := community[localIdx[node]]
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			order = append(order, label)
		}
	}
	result := make([][]int, 0, len(groups))
	for _, label := range order {
		result = append(result, groups[label])
	}
	return result
}

// betweennessCommunities implements Girvan-Newman: repeatedly remove the
// edge with the highest betweenness and keep the partition with the best
// modularity seen along the way. Graphs over the exact computation cap fall
// back to connected components, which is still an exact partition.
func betweennessCommunities(snap *snapshot) [][]int {
	n := len(snap.nodes)
	adj, totalWeight := weightedAdjacency(snap)
	if n > maxExactCentralityNodes {
		return connectedComponents(n, adj)
	}

	type pair struct{ a, b int }
	edgeSet := make(map[pair]float64)
	for i, neighbors := range adj {
		for _, e := range neighbors {
			if i < e.to {
				edgeSet[pair{i, e.to}] = e.weight
			}
		}
	}

	rebuild := func() [][]wedge {
		out := make([][]wedge, n)
		for p, w := range edgeSet {
			out[p.a] = append(out[p.a], wedge{to: p.b, weight: w})
			out[p.b] = append(out[p.b], wedge{to: p.a, weight: w})
		}
		return out
	}

	best := connectedComponents(n, rebuild())
	bestQ := modularity(best, adj, totalWeight)

	for len(edgeSet) > 0 {
		cur := rebuild()
		scores := edgeBetweenness(n, cur)

		var top pair
		topScore := -1.0
		for p := range edgeSet {
			if s := scores[p]; s > topScore {
				topScore = s
				top = p
			}
		}
		delete(edgeSet, top)

		partition := connectedComponents(n, rebuild())
		if q := modularity(partition, adj, totalWeight); q > bestQ {
			bestQ = q
			best = partition
		}
	}
	return best
}

// edgeBetweenness accumulates shortest-path counts per undirected edge
// using the Brandes backward pass.
func edgeBetweenness(n int, adj [][]wedge) map[struct{ a, b int }]float64 {
	type pair = struct{ a, b int }
	scores := make(map[pair]float64)

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
			for _, e := range adj[v] {
				w := e.to
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
				c := sigma[v] / sigma[w] * (1 + delta[w])
				delta[v] += c
				key := pair{v, w}
				if w < v {
					key = pair{w, v}
				}
				scores[key] += c
			}
		}
	}
	return scores
}

// modularity scores a partition against the original weighted graph.
func modularity(partition [][]int, adj [][]wedge, totalWeight float64) float64 {
	if totalWeight == 0 {
		return 0
	}
	m2 := 2.0 * totalWeight

	label := make(map[int]int)
	for ci, comp := range partition {
		for _, node := range comp {
			label[node] = ci
		}
	}

	inWeight := make([]float64, len(partition))
	totStrength := make([]float64, len(partition))
	for i, neighbors := range adj {
		for _, e := range neighbors {
			totStrength[label[i]] += e.weight
			if label[i] == label[e.to] {
				inWeight[label[i]] += e.weight
			}
		}
	}

	q := 0.0
	for ci := range partition {
		q += inWeight[ci]/m2 - (totStrength[ci]/m2)*(totStrength[ci]/m2)
	}
	return q
}
