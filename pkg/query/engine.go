// Package query answers graph questions over the persisted node/edge set.
// The engine is stateless: every call rebuilds its view from the store, so
// results are always fresh and no cache invalidation protocol exists.
package query

import (
	"context"
	"fmt"

	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/store"
)

// Engine runs graph queries for one backing store. Rebuild cost is
// O(nodes + edges) per call, acceptable for interactive and report queries.
type Engine struct {
	store store.GraphStore
}

// NewEngine creates a query engine over the given store.
func NewEngine(s store.GraphStore) *Engine {
	return &Engine{store: s}
}

// snapshot is the in-memory graph rebuilt for one query call. Node order
// follows store listing order, which the backends keep stable.
type snapshot struct {
	nodes []common.Node
	edges []common.Edge
	index map[string]int // public id -> compact index
	out   [][]int        // directed adjacency, extraction direction
	und   [][]int        // undirected adjacency
}

func (e *Engine) load(ctx context.Context, owner string) (*snapshot, error) {
	nodes, err := e.store.GetNodes(ctx, owner, store.NodeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}
	edges, err := e.store.GetEdges(ctx, owner, store.EdgeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	return buildSnapshot(nodes, edges), nil
}

func buildSnapshot(nodes []common.Node, edges []common.Edge) *snapshot {
	s := &snapshot{
		nodes: nodes,
		edges: edges,
		index: make(map[string]int, len(nodes)),
		out:   make([][]int, len(nodes)),
		und:   make([][]int, len(nodes)),
	}
	for i, n := range nodes {
		s.index[n.ID] = i
	}
	// Parallel edges between the same pair collapse to one undirected
	// adjacency entry so path counting agrees with degree centrality.
	undSeen := make(map[[2]int]struct{}, len(edges))
	for _, edge := range edges {
		si, okS := s.index[edge.SourceNodeID]
		ti, okT := s.index[edge.TargetNodeID]
		if !okS || !okT {
			continue
		}
		s.out[si] = append(s.out[si], ti)
		pair := [2]int{si, ti}
		if ti < si {
			pair = [2]int{ti, si}
		}
		if _, dup := undSeen[pair]; dup {
			continue
		}
		undSeen[pair] = struct{}{}
		s.und[si] = append(s.und[si], ti)
		if ti != si {
			s.und[ti] = append(s.und[ti], si)
		}
	}
	return s
}

// Neighbors returns the outgoing adjacency of a node as public IDs. A
// missing node is ErrNotFound; an isolated node yields an empty list.
func (e *Engine) Neighbors(ctx context.Context, owner, nodeID string) ([]string, error) {
	snap, err := e.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	idx, ok := snap.index[nodeID]
	if !ok {
		return nil, common.ErrNotFound
	}

	neighbors := make([]string, 0, len(snap.out[idx]))
	seen := make(map[int]struct{}, len(snap.out[idx]))
	for _, ti := range snap.out[idx] {
		if _, dup := seen[ti]; dup {
			continue
		}
		seen[ti] = struct{}{}
		neighbors = append(neighbors, snap.nodes[ti].ID)
	}
	return neighbors, nil
}

// ShortestPath returns the unweighted breadth-first shortest path between
// two nodes as an ordered public ID list. Edges are walked in both
// directions. source == target yields the single-element path; a missing
// endpoint is ErrNotFound and a disconnected pair is ErrNoPath.
func (e *Engine) ShortestPath(ctx context.Context, owner, sourceID, targetID string) ([]string, error) {
	snap, err := e.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	src, ok := snap.index[sourceID]
	if !ok {
		return nil, common.ErrNotFound
	}
	dst, ok := snap.index[targetID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if src == dst {
		return []string{snap.nodes[src].ID}, nil
	}

	prev := make([]int, len(snap.nodes))
	for i := range prev {
		prev[i] = -1
	}
	prev[src] = src
	queue := []int{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range snap.und[cur] {
			if prev[next] != -1 {
				continue
			}
			prev[next] = cur
			if next == dst {
				return pathIDs(snap, prev, src, dst), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, common.ErrNoPath
}

func pathIDs(snap *snapshot, prev []int, src, dst int) []string {
	var rev []int
	for cur := dst; ; cur = prev[cur] {
		rev = append(rev, cur)
		if cur == src {
			break
		}
	}
	path := make([]string, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = snap.nodes[idx].ID
	}
	return path
}
