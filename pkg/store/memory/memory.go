// Package memory implements store.GraphStore with in-process maps. It backs
// tests and transient single-call graphs; the pgx backend is the production
// store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/store"
)

// GraphMemoryStorage is safe for concurrent use. The mutex stands in for
// the unique-constraint primitive a database backend provides: create and
// fetch happen under one critical section, so concurrent upserts of the same
// identity converge on a single element.
type GraphMemoryStorage struct {
	mu       sync.RWMutex
	nodes    map[string]common.Node // public id -> node
	edges    map[string]common.Edge // public id -> edge
	nodeKeys map[string]string      // owner|identity key -> public id
	edgeKeys map[string]string      // owner|identity key -> public id
	seq      int                    // insertion counter, keeps listing order stable
	order    map[string]int         // public id -> insertion sequence
}

// NewGraphMemoryStorage creates an empty in-memory store.
func NewGraphMemoryStorage() *GraphMemoryStorage {
	return &GraphMemoryStorage{
		nodes:    make(map[string]common.Node),
		edges:    make(map[string]common.Edge),
		nodeKeys: make(map[string]string),
		edgeKeys: make(map[string]string),
		order:    make(map[string]int),
	}
}

func (s *GraphMemoryStorage) GetOrCreateNode(ctx context.Context, params store.CreateNodeParams) (common.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := params.Owner + "|" + store.NodeKey(params.EntityText, params.Type)
	if id, ok := s.nodeKeys[key]; ok {
		node := s.nodes[id]
		merged := false
		for k, v := range params.Properties {
			if node.Properties == nil {
				node.Properties = make(map[string]string)
			}
			if node.Properties[k] != v {
				node.Properties[k] = v
				merged = true
			}
		}
		if merged {
			node.UpdatedAt = time.Now().UTC()
			s.nodes[id] = node
		}
		return node, nil
	}

	id, err := gonanoid.New()
	if err != nil {
		return common.Node{}, err
	}
	now := time.Now().UTC()
	node := common.Node{
		ID:         id,
		EntityText: params.EntityText,
		Type:       params.Type,
		Label:      params.Label,
		DocumentID: params.DocumentID,
		Properties: params.Properties,
		Owner:      params.Owner,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.nodes[id] = node
	s.nodeKeys[key] = id
	s.seq++
	s.order[id] = s.seq
	return node, nil
}

func (s *GraphMemoryStorage) GetNode(ctx context.Context, owner, nodeID string) (common.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[nodeID]
	if !ok || node.Owner != owner {
		return common.Node{}, common.ErrNotFound
	}
	return node, nil
}

func (s *GraphMemoryStorage) GetNodes(ctx context.Context, owner string, filter store.NodeFilter) ([]common.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Node, 0)
	for _, node := range s.nodes {
		if node.Owner != owner {
			continue
		}
		if filter.DocumentID != "" && node.DocumentID != filter.DocumentID {
			continue
		}
		if filter.Type != "" && node.Type != filter.Type {
			continue
		}
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[out[i].ID] < s.order[out[j].ID]
	})
	return out, nil
}

func (s *GraphMemoryStorage) DeleteNode(ctx context.Context, owner, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok || node.Owner != owner {
		return common.ErrNotFound
	}

	delete(s.nodes, nodeID)
	delete(s.nodeKeys, node.Owner+"|"+store.NodeKey(node.EntityText, node.Type))
	delete(s.order, nodeID)

	// Cascade to incident edges.
	for id, edge := range s.edges {
		if edge.SourceNodeID == nodeID || edge.TargetNodeID == nodeID {
			delete(s.edges, id)
			delete(s.edgeKeys, edge.Owner+"|"+store.EdgeKey(edge.SourceNodeID, edge.TargetNodeID, edge.RelationType))
			delete(s.order, id)
		}
	}
	return nil
}

func (s *GraphMemoryStorage) CreateEdge(ctx context.Context, params store.CreateEdgeParams) (common.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.nodes[params.SourceNodeID]
	if !ok || src.Owner != params.Owner {
		return common.Edge{}, common.ErrNotFound
	}
	tgt, ok := s.nodes[params.TargetNodeID]
	if !ok || tgt.Owner != params.Owner {
		return common.Edge{}, common.ErrNotFound
	}

	key := params.Owner + "|" + store.EdgeKey(params.SourceNodeID, params.TargetNodeID, params.RelationType)
	if id, ok := s.edgeKeys[key]; ok {
		return s.edges[id], nil
	}

	id, err := gonanoid.New()
	if err != nil {
		return common.Edge{}, err
	}
	now := time.Now().UTC()
	edge := common.Edge{
		ID:           id,
		SourceNodeID: params.SourceNodeID,
		TargetNodeID: params.TargetNodeID,
		RelationType: params.RelationType,
		Confidence:   params.Confidence,
		Metadata:     params.Metadata,
		SentenceID:   params.SentenceID,
		DocumentID:   params.DocumentID,
		Weight:       params.Weight,
		Owner:        params.Owner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.edges[id] = edge
	s.edgeKeys[key] = id
	s.seq++
	s.order[id] = s.seq
	return edge, nil
}

func (s *GraphMemoryStorage) GetEdge(ctx context.Context, owner, edgeID string) (common.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edge, ok := s.edges[edgeID]
	if !ok || edge.Owner != owner {
		return common.Edge{}, common.ErrNotFound
	}
	return edge, nil
}

func (s *GraphMemoryStorage) GetEdges(ctx context.Context, owner string, filter store.EdgeFilter) ([]common.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Edge, 0)
	for _, edge := range s.edges {
		if edge.Owner != owner {
			continue
		}
		if filter.DocumentID != "" && edge.DocumentID != filter.DocumentID {
			continue
		}
		if filter.RelationType != "" && edge.RelationType != filter.RelationType {
			continue
		}
		out = append(out, edge)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[out[i].ID] < s.order[out[j].ID]
	})
	return out, nil
}

func (s *GraphMemoryStorage) DeleteEdge(ctx context.Context, owner, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge, ok := s.edges[edgeID]
	if !ok || edge.Owner != owner {
		return common.ErrNotFound
	}
	delete(s.edges, edgeID)
	delete(s.edgeKeys, edge.Owner+"|"+store.EdgeKey(edge.SourceNodeID, edge.TargetNodeID, edge.RelationType))
	delete(s.order, edgeID)
	return nil
}
