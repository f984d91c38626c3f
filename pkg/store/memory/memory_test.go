package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/store"
)

func TestGetOrCreateNode(t *testing.T) {
	ctx := context.Background()
	s := NewGraphMemoryStorage()

	first, err := s.GetOrCreateNode(ctx, store.CreateNodeParams{
		Owner:      "alice",
		EntityText: "Apple",
		Type:       "ORG",
		Label:      "ORG",
		DocumentID: "doc-1",
		Properties: map[string]string{"sector": "tech"},
	})
	if err != nil {
		t.Fatalf("GetOrCreateNode() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("GetOrCreateNode() returned empty id")
	}

	t.Run("same identity returns existing", func(t *testing.T) {
		again, err := s.GetOrCreateNode(ctx, store.CreateNodeParams{
			Owner:      "alice",
			EntityText: "  apple ",
			Type:       "ORG",
			DocumentID: "doc-2",
		})
		if err != nil {
			t.Fatalf("GetOrCreateNode() error = %v", err)
		}
		if again.ID != first.ID {
			t.Errorf("GetOrCreateNode() id = %s, want %s", again.ID, first.ID)
		}
	})

	t.Run("re-extraction merges properties", func(t *testing.T) {
		merged, err := s.GetOrCreateNode(ctx, store.CreateNodeParams{
			Owner:      "alice",
			EntityText: "Apple",
			Type:       "ORG",
			Properties: map[string]string{"hq": "Cupertino"},
		})
		if err != nil {
			t.Fatalf("GetOrCreateNode() error = %v", err)
		}
		if merged.Properties["sector"] != "tech" || merged.Properties["hq"] != "Cupertino" {
			t.Errorf("GetOrCreateNode() properties = %#v, want merged bag", merged.Properties)
		}
	})

	t.Run("different type is a different node", func(t *testing.T) {
		other, err := s.GetOrCreateNode(ctx, store.CreateNodeParams{
			Owner:      "alice",
			EntityText: "Apple",
			Type:       "FRUIT",
		})
		if err != nil {
			t.Fatalf("GetOrCreateNode() error = %v", err)
		}
		if other.ID == first.ID {
			t.Error("GetOrCreateNode() reused id across types")
		}
	})

	t.Run("different owner is a different node", func(t *testing.T) {
		other, err := s.GetOrCreateNode(ctx, store.CreateNodeParams{
			Owner:      "bob",
			EntityText: "Apple",
			Type:       "ORG",
		})
		if err != nil {
			t.Fatalf("GetOrCreateNode() error = %v", err)
		}
		if other.ID == first.ID {
			t.Error("GetOrCreateNode() reused id across owners")
		}
	})
}

func TestCreateEdge(t *testing.T) {
	ctx := context.Background()
	s := NewGraphMemoryStorage()

	apple, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "Apple", Type: "ORG"})
	iphone, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "iPhone", Type: "PRODUCT"})

	edge, err := s.CreateEdge(ctx, store.CreateEdgeParams{
		Owner:        "alice",
		SourceNodeID: apple.ID,
		TargetNodeID: iphone.ID,
		RelationType: "produce",
		Confidence:   0.7,
		Weight:       1,
	})
	if err != nil {
		t.Fatalf("CreateEdge() error = %v", err)
	}

	t.Run("same identity returns existing", func(t *testing.T) {
		again, err := s.CreateEdge(ctx, store.CreateEdgeParams{
			Owner:        "alice",
			SourceNodeID: apple.ID,
			TargetNodeID: iphone.ID,
			RelationType: "produce",
			Confidence:   0.5,
		})
		if err != nil {
			t.Fatalf("CreateEdge() error = %v", err)
		}
		if again.ID != edge.ID {
			t.Errorf("CreateEdge() id = %s, want %s", again.ID, edge.ID)
		}
		if again.Confidence != 0.7 {
			t.Errorf("CreateEdge() confidence = %v, want stored 0.7", again.Confidence)
		}
	})

	t.Run("missing endpoint", func(t *testing.T) {
		_, err := s.CreateEdge(ctx, store.CreateEdgeParams{
			Owner:        "alice",
			SourceNodeID: apple.ID,
			TargetNodeID: "missing",
			RelationType: "produce",
		})
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("CreateEdge() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("endpoint of another owner", func(t *testing.T) {
		_, err := s.CreateEdge(ctx, store.CreateEdgeParams{
			Owner:        "bob",
			SourceNodeID: apple.ID,
			TargetNodeID: iphone.ID,
			RelationType: "produce",
		})
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("CreateEdge() error = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteNodeCascades(t *testing.T) {
	ctx := context.Background()
	s := NewGraphMemoryStorage()

	apple, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "Apple", Type: "ORG"})
	iphone, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "iPhone", Type: "PRODUCT"})
	macbook, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "MacBook", Type: "PRODUCT"})

	s.CreateEdge(ctx, store.CreateEdgeParams{Owner: "alice", SourceNodeID: apple.ID, TargetNodeID: iphone.ID, RelationType: "produce"})
	s.CreateEdge(ctx, store.CreateEdgeParams{Owner: "alice", SourceNodeID: apple.ID, TargetNodeID: macbook.ID, RelationType: "produce"})

	if err := s.DeleteNode(ctx, "alice", apple.ID); err != nil {
		t.Fatalf("DeleteNode() error = %v", err)
	}

	edges, err := s.GetEdges(ctx, "alice", store.EdgeFilter{})
	if err != nil {
		t.Fatalf("GetEdges() error = %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("GetEdges() after cascade = %d edges, want 0", len(edges))
	}

	if _, err := s.GetNode(ctx, "alice", apple.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetNode() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteNode(ctx, "alice", apple.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("DeleteNode() twice error = %v, want ErrNotFound", err)
	}

	// Recreating after delete yields a fresh node under the same identity.
	again, err := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "Apple", Type: "ORG"})
	if err != nil {
		t.Fatalf("GetOrCreateNode() error = %v", err)
	}
	if again.ID == apple.ID {
		t.Error("GetOrCreateNode() reused a deleted id")
	}
}

func TestFiltersAndOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := NewGraphMemoryStorage()

	apple, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "Apple", Type: "ORG", DocumentID: "doc-1"})
	iphone, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "iPhone", Type: "PRODUCT", DocumentID: "doc-1"})
	s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "Windows", Type: "PRODUCT", DocumentID: "doc-2"})
	s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "bob", EntityText: "Apple", Type: "ORG", DocumentID: "doc-1"})

	s.CreateEdge(ctx, store.CreateEdgeParams{Owner: "alice", SourceNodeID: apple.ID, TargetNodeID: iphone.ID, RelationType: "produce", DocumentID: "doc-1"})

	tests := []struct {
		name   string
		owner  string
		filter store.NodeFilter
		want   int
	}{
		{name: "all for owner", owner: "alice", filter: store.NodeFilter{}, want: 3},
		{name: "by document", owner: "alice", filter: store.NodeFilter{DocumentID: "doc-1"}, want: 2},
		{name: "by type", owner: "alice", filter: store.NodeFilter{Type: "PRODUCT"}, want: 2},
		{name: "by document and type", owner: "alice", filter: store.NodeFilter{DocumentID: "doc-2", Type: "PRODUCT"}, want: 1},
		{name: "other owner sees own only", owner: "bob", filter: store.NodeFilter{}, want: 1},
		{name: "unknown owner sees nothing", owner: "carol", filter: store.NodeFilter{}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := s.GetNodes(ctx, tt.owner, tt.filter)
			if err != nil {
				t.Fatalf("GetNodes() error = %v", err)
			}
			if len(nodes) != tt.want {
				t.Errorf("GetNodes() = %d nodes, want %d", len(nodes), tt.want)
			}
		})
	}

	t.Run("edges scoped to owner", func(t *testing.T) {
		edges, err := s.GetEdges(ctx, "bob", store.EdgeFilter{})
		if err != nil {
			t.Fatalf("GetEdges() error = %v", err)
		}
		if len(edges) != 0 {
			t.Errorf("GetEdges() = %d edges, want 0", len(edges))
		}
	})

	t.Run("listing keeps insertion order", func(t *testing.T) {
		nodes, err := s.GetNodes(ctx, "alice", store.NodeFilter{})
		if err != nil {
			t.Fatalf("GetNodes() error = %v", err)
		}
		if len(nodes) != 3 || nodes[0].EntityText != "Apple" || nodes[1].EntityText != "iPhone" {
			t.Errorf("GetNodes() order = %#v, want insertion order", nodes)
		}
	})
}

func TestDeleteEdge(t *testing.T) {
	ctx := context.Background()
	s := NewGraphMemoryStorage()

	apple, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "Apple", Type: "ORG"})
	iphone, _ := s.GetOrCreateNode(ctx, store.CreateNodeParams{Owner: "alice", EntityText: "iPhone", Type: "PRODUCT"})
	edge, _ := s.CreateEdge(ctx, store.CreateEdgeParams{Owner: "alice", SourceNodeID: apple.ID, TargetNodeID: iphone.ID, RelationType: "produce"})

	if err := s.DeleteEdge(ctx, "bob", edge.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("DeleteEdge() cross-owner error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteEdge(ctx, "alice", edge.ID); err != nil {
		t.Fatalf("DeleteEdge() error = %v", err)
	}
	if _, err := s.GetEdge(ctx, "alice", edge.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetEdge() after delete error = %v, want ErrNotFound", err)
	}

	// Identity freed: the edge can be created anew.
	again, err := s.CreateEdge(ctx, store.CreateEdgeParams{Owner: "alice", SourceNodeID: apple.ID, TargetNodeID: iphone.ID, RelationType: "produce"})
	if err != nil {
		t.Fatalf("CreateEdge() after delete error = %v", err)
	}
	if again.ID == edge.ID {
		t.Error("CreateEdge() reused a deleted id")
	}
}
