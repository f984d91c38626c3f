package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/store"
	"github.com/trellis-kg/trellis/pkg/store/memory"
)

const testOwner = "alice"

// seedGraph loads named nodes and relation edges into a fresh memory store
// and returns the engine plus the name -> public id mapping.
func seedGraph(t *testing.T, names []string, edges [][2]string) (*Engine, map[string]string) {
	t.Helper()
	ctx := context.Background()
	s := memory.NewGraphMemoryStorage()

	ids := make(map[string]string, len(names))
	for _, name := range names {
		node, err := s.GetOrCreateNode(ctx, store.CreateNodeParams{
			Owner:      testOwner,
			EntityText: name,
			Type:       "ENTITY",
		})
		if err != nil {
			t.Fatalf("GetOrCreateNode(%s) error = %v", name, err)
		}
		ids[name] = node.ID
	}
	for _, e := range edges {
		_, err := s.CreateEdge(ctx, store.CreateEdgeParams{
			Owner:        testOwner,
			SourceNodeID: ids[e[0]],
			TargetNodeID: ids[e[1]],
			RelationType: "relates",
			Weight:       1,
		})
		if err != nil {
			t.Fatalf("CreateEdge(%s -> %s) error = %v", e[0], e[1], err)
		}
	}
	return NewEngine(s), ids
}

func TestNeighbors(t *testing.T) {
	engine, ids := seedGraph(t,
		[]string{"Apple", "iPhone", "MacBook", "Microsoft", "Windows"},
		[][2]string{
			{"Apple", "iPhone"},
			{"Apple", "MacBook"},
			{"Microsoft", "Windows"},
		},
	)
	ctx := context.Background()

	t.Run("outgoing adjacency", func(t *testing.T) {
		got, err := engine.Neighbors(ctx, testOwner, ids["Apple"])
		if err != nil {
			t.Fatalf("Neighbors() error = %v", err)
		}
		want := []string{ids["iPhone"], ids["MacBook"]}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Neighbors(Apple) = %v, want %v", got, want)
		}
	})

	t.Run("incoming edges do not count", func(t *testing.T) {
		got, err := engine.Neighbors(ctx, testOwner, ids["iPhone"])
		if err != nil {
			t.Fatalf("Neighbors() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Neighbors(iPhone) = %v, want empty", got)
		}
	})

	t.Run("missing node", func(t *testing.T) {
		_, err := engine.Neighbors(ctx, testOwner, "nope")
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("Neighbors() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		_, err := engine.Neighbors(ctx, "bob", ids["Apple"])
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("Neighbors() error = %v, want ErrNotFound", err)
		}
	})
}

func TestShortestPath(t *testing.T) {
	engine, ids := seedGraph(t,
		[]string{"A", "B", "C", "D", "E"},
		[][2]string{
			{"A", "B"},
			{"B", "C"},
			{"A", "D"},
			{"D", "C"},
			// E stays disconnected.
		},
	)
	ctx := context.Background()

	t.Run("same node", func(t *testing.T) {
		got, err := engine.ShortestPath(ctx, testOwner, ids["A"], ids["A"])
		if err != nil {
			t.Fatalf("ShortestPath() error = %v", err)
		}
		if !reflect.DeepEqual(got, []string{ids["A"]}) {
			t.Errorf("ShortestPath(A, A) = %v, want single-element path", got)
		}
	})

	t.Run("two hops", func(t *testing.T) {
		got, err := engine.ShortestPath(ctx, testOwner, ids["A"], ids["C"])
		if err != nil {
			t.Fatalf("ShortestPath() error = %v", err)
		}
		if len(got) != 3 || got[0] != ids["A"] || got[2] != ids["C"] {
			t.Errorf("ShortestPath(A, C) = %v, want 3-node path from A to C", got)
		}
	})

	t.Run("against edge direction", func(t *testing.T) {
		got, err := engine.ShortestPath(ctx, testOwner, ids["C"], ids["A"])
		if err != nil {
			t.Fatalf("ShortestPath() error = %v", err)
		}
		if len(got) != 3 || got[0] != ids["C"] || got[2] != ids["A"] {
			t.Errorf("ShortestPath(C, A) = %v, want 3-node path from C to A", got)
		}
	})

	t.Run("disconnected pair", func(t *testing.T) {
		_, err := engine.ShortestPath(ctx, testOwner, ids["A"], ids["E"])
		if !errors.Is(err, common.ErrNoPath) {
			t.Errorf("ShortestPath() error = %v, want ErrNoPath", err)
		}
	})

	t.Run("missing endpoint", func(t *testing.T) {
		_, err := engine.ShortestPath(ctx, testOwner, ids["A"], "nope")
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("ShortestPath() error = %v, want ErrNotFound", err)
		}
	})
}
