// Package assemble projects extraction output or persisted graph elements
// into the external GraphView representation. It performs no mutation.
package assemble

import (
	"strconv"

	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/store"
)

// FromTriples builds a directed multigraph view from one extraction call.
// Nodes are keyed by canonical entity text, so the same entity mentioned in
// several triples appears once. Edges keep extraction order.
func FromTriples(triples []common.Triple) *common.GraphView {
	view := &common.GraphView{
		Nodes: make([]common.ViewNode, 0),
		Edges: make([]common.ViewEdge, 0, len(triples)),
	}

	seen := make(map[string]struct{})
	addNode := func(text string) string {
		id := store.NormalizeEntityText(text)
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			view.Nodes = append(view.Nodes, common.ViewNode{ID: id, Label: text})
		}
		return id
	}

	for i, t := range triples {
		src := addNode(t.Subject)
		tgt := addNode(t.Object)

		props := map[string]string{"confidence": strconv.FormatFloat(t.Confidence, 'f', -1, 64)}
		if t.Type != "" {
			props["type"] = t.Type
		}
		for k, v := range t.Metadata {
			props[k] = v
		}

		view.Edges = append(view.Edges, common.ViewEdge{
			ID:         strconv.Itoa(i),
			Source:     src,
			Target:     tgt,
			Label:      t.Relation,
			Properties: props,
		})
	}
	return view
}

// FromStore builds a view over persisted elements, keyed by public IDs.
// Edges whose endpoints are missing from the node set are dropped rather
// than left dangling.
func FromStore(nodes []common.Node, edges []common.Edge) *common.GraphView {
	view := &common.GraphView{
		Nodes: make([]common.ViewNode, 0, len(nodes)),
		Edges: make([]common.ViewEdge, 0, len(edges)),
	}

	present := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.ID] = struct{}{}
		label := n.EntityText
		if label == "" {
			label = n.Label
		}
		view.Nodes = append(view.Nodes, common.ViewNode{
			ID:         n.ID,
			Label:      label,
			Properties: n.Properties,
		})
	}

	for _, e := range edges {
		if _, ok := present[e.SourceNodeID]; !ok {
			continue
		}
		if _, ok := present[e.TargetNodeID]; !ok {
			continue
		}
		props := map[string]string{"confidence": strconv.FormatFloat(e.Confidence, 'f', -1, 64)}
		for k, v := range e.Metadata {
			props[k] = v
		}
		view.Edges = append(view.Edges, common.ViewEdge{
			ID:         e.ID,
			Source:     e.SourceNodeID,
			Target:     e.TargetNodeID,
			Label:      e.RelationType,
			Properties: props,
		})
	}
	return view
}
