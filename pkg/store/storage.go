// Package store defines the persistence contract for the knowledge graph.
// Backends are interchangeable; domain logic never depends on a concrete
// storage engine.
package store

import (
	"context"

	"github.com/trellis-kg/trellis/pkg/common"
)

// CreateNodeParams describes a node to create or fetch. Identity within one
// owner is (normalized entity text, type).
type CreateNodeParams struct {
	Owner      string
	EntityText string
	Type       string
	Label      string
	DocumentID string
	Properties map[string]string
}

// CreateEdgeParams describes an edge to create. Identity within one owner is
// (source node, target node, relation type). Both endpoints must already
// exist.
type CreateEdgeParams struct {
	Owner        string
	SourceNodeID string
	TargetNodeID string
	RelationType string
	Confidence   float64
	Metadata     map[string]string
	SentenceID   string
	DocumentID   string
	Weight       float64
}

// NodeFilter narrows GetNodes. Zero values match everything; the owner scope
// is always applied on top.
type NodeFilter struct {
	DocumentID string
	Type       string
}

// EdgeFilter narrows GetEdges.
type EdgeFilter struct {
	DocumentID   string
	RelationType string
}

// GraphStore persists and queries owner-scoped nodes and edges. Every
// operation carries the caller's owner; no query or mutation path crosses
// owner boundaries.
//
// GetOrCreateNode and CreateEdge must be safe under concurrent calls for the
// same identity key. Correctness is delegated to the backend's atomic
// create-or-fetch primitive: a unique-key collision is resolved by
// re-fetching, never surfaced to the caller.
type GraphStore interface {
	GetOrCreateNode(ctx context.Context, params CreateNodeParams) (common.Node, error)
	GetNode(ctx context.Context, owner, nodeID string) (common.Node, error)
	GetNodes(ctx context.Context, owner string, filter NodeFilter) ([]common.Node, error)
	DeleteNode(ctx context.Context, owner, nodeID string) error

	CreateEdge(ctx context.Context, params CreateEdgeParams) (common.Edge, error)
	GetEdge(ctx context.Context, owner, edgeID string) (common.Edge, error)
	GetEdges(ctx context.Context, owner string, filter EdgeFilter) ([]common.Edge, error)
	DeleteEdge(ctx context.Context, owner, edgeID string) error
}
