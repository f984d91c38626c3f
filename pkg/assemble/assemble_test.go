package assemble

import (
	"reflect"
	"testing"

	"github.com/trellis-kg/trellis/pkg/common"
)

func TestFromTriples(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		view := FromTriples(nil)
		if len(view.Nodes) != 0 || len(view.Edges) != 0 {
			t.Errorf("FromTriples(nil) = %#v, want empty view", view)
		}
	})

	t.Run("shared entities collapse to one node", func(t *testing.T) {
		triples := []common.Triple{
			{Subject: "Apple", Relation: "produce", Object: "iPhone", Type: "lca_dependency", Confidence: 0.7},
			{Subject: "Apple", Relation: "produce", Object: "MacBook", Type: "svo", Confidence: 0.5},
		}

		view := FromTriples(triples)
		if len(view.Nodes) != 3 {
			t.Fatalf("FromTriples() = %d nodes, want 3", len(view.Nodes))
		}
		if len(view.Edges) != 2 {
			t.Fatalf("FromTriples() = %d edges, want 2", len(view.Edges))
		}
		if view.Nodes[0].ID != "apple" || view.Nodes[0].Label != "Apple" {
			t.Errorf("first node = %#v, want canonical id with original label", view.Nodes[0])
		}
		if view.Edges[0].Source != "apple" || view.Edges[0].Target != "iphone" {
			t.Errorf("first edge endpoints = %s -> %s, want apple -> iphone",
				view.Edges[0].Source, view.Edges[0].Target)
		}
		if view.Edges[0].ID == view.Edges[1].ID {
			t.Error("edge ids must be distinct within a view")
		}
	})

	t.Run("edge properties carry confidence, type and metadata", func(t *testing.T) {
		triples := []common.Triple{{
			Subject:    "Smoking",
			Relation:   "cause",
			Object:     "cancer",
			Type:       "causal",
			Confidence: 0.8,
			Metadata:   map[string]string{"pattern": "causes"},
		}}

		view := FromTriples(triples)
		want := map[string]string{
			"confidence": "0.8",
			"type":       "causal",
			"pattern":    "causes",
		}
		if !reflect.DeepEqual(view.Edges[0].Properties, want) {
			t.Errorf("edge properties = %#v, want %#v", view.Edges[0].Properties, want)
		}
		if view.Edges[0].Label != "cause" {
			t.Errorf("edge label = %q, want %q", view.Edges[0].Label, "cause")
		}
	})

	t.Run("same surface text different casing is one node", func(t *testing.T) {
		triples := []common.Triple{
			{Subject: "apple", Relation: "produce", Object: "iPhone"},
			{Subject: "APPLE", Relation: "produce", Object: "MacBook"},
		}
		view := FromTriples(triples)
		if len(view.Nodes) != 3 {
			t.Errorf("FromTriples() = %d nodes, want 3", len(view.Nodes))
		}
	})
}

func TestFromStore(t *testing.T) {
	nodes := []common.Node{
		{ID: "n1", EntityText: "Apple", Type: "ORG", Properties: map[string]string{"label": "ORG"}},
		{ID: "n2", EntityText: "", Label: "PRODUCT"},
	}
	edges := []common.Edge{
		{ID: "e1", SourceNodeID: "n1", TargetNodeID: "n2", RelationType: "produce", Confidence: 0.7,
			Metadata: map[string]string{"type": "svo"}},
		{ID: "e2", SourceNodeID: "n1", TargetNodeID: "gone", RelationType: "produce"},
	}

	view := FromStore(nodes, edges)

	if len(view.Nodes) != 2 {
		t.Fatalf("FromStore() = %d nodes, want 2", len(view.Nodes))
	}
	if view.Nodes[0].ID != "n1" || view.Nodes[0].Label != "Apple" {
		t.Errorf("first node = %#v, want id n1 labelled by entity text", view.Nodes[0])
	}
	if view.Nodes[1].Label != "PRODUCT" {
		t.Errorf("fallback label = %q, want %q", view.Nodes[1].Label, "PRODUCT")
	}

	if len(view.Edges) != 1 {
		t.Fatalf("FromStore() = %d edges, want 1 (dangling edge dropped)", len(view.Edges))
	}
	e := view.Edges[0]
	if e.ID != "e1" || e.Source != "n1" || e.Target != "n2" || e.Label != "produce" {
		t.Errorf("edge = %#v, want e1 n1->n2 produce", e)
	}
	want := map[string]string{"confidence": "0.7", "type": "svo"}
	if !reflect.DeepEqual(e.Properties, want) {
		t.Errorf("edge properties = %#v, want %#v", e.Properties, want)
	}
}
