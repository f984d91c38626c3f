package query

import (
	"context"
	"sort"
	"strings"
	"testing"
)

// groupKeys renders a partition as sorted "a+b+c" strings so membership can
// be compared regardless of group or member order.
func groupKeys(t *testing.T, ids map[string]string, communities [][]string) []string {
	t.Helper()
	names := make(map[string]string, len(ids))
	for name, id := range ids {
		names[id] = name
	}

	keys := make([]string, 0, len(communities))
	for _, group := range communities {
		members := make([]string, 0, len(group))
		for _, id := range group {
			name, ok := names[id]
			if !ok {
				t.Fatalf("community member %s is not a seeded node", id)
			}
			members = append(members, name)
		}
		sort.Strings(members)
		keys = append(keys, strings.Join(members, "+"))
	}
	sort.Strings(keys)
	return keys
}

func TestCommunities(t *testing.T) {
	ctx := context.Background()

	t.Run("two triangles joined by a bridge", func(t *testing.T) {
		engine, ids := seedGraph(t,
			[]string{"A", "B", "C", "D", "E", "F"},
			[][2]string{
				{"A", "B"}, {"B", "C"}, {"C", "A"},
				{"D", "E"}, {"E", "F"}, {"F", "D"},
				{"C", "D"},
			},
		)

		for _, method := range []string{MethodModularity, MethodBetweenness} {
			t.Run(method, func(t *testing.T) {
				got, err := engine.Communities(ctx, testOwner, method)
				if err != nil {
					t.Fatalf("Communities(%s) error = %v", method, err)
				}
				keys := groupKeys(t, ids, got)
				want := []string{"A+B+C", "D+E+F"}
				if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
					t.Errorf("Communities(%s) = %v, want %v", method, keys, want)
				}
			})
		}
	})

	t.Run("default method is modularity", func(t *testing.T) {
		engine, ids := seedGraph(t,
			[]string{"A", "B", "C"},
			[][2]string{{"A", "B"}, {"B", "C"}},
		)

		got, err := engine.Communities(ctx, testOwner, "")
		if err != nil {
			t.Fatalf("Communities() error = %v", err)
		}
		keys := groupKeys(t, ids, got)
		// Below the split threshold the component stays whole.
		if len(keys) != 1 || keys[0] != "A+B+C" {
			t.Errorf("Communities() = %v, want one whole component", keys)
		}
	})

	t.Run("disconnected components are separate communities", func(t *testing.T) {
		engine, ids := seedGraph(t,
			[]string{"Apple", "iPhone", "Microsoft", "Windows", "Loner"},
			[][2]string{
				{"Apple", "iPhone"},
				{"Microsoft", "Windows"},
			},
		)

		for _, method := range []string{MethodModularity, MethodBetweenness} {
			got, err := engine.Communities(ctx, testOwner, method)
			if err != nil {
				t.Fatalf("Communities(%s) error = %v", method, err)
			}
			keys := groupKeys(t, ids, got)
			want := []string{"Apple+iPhone", "Loner", "Microsoft+Windows"}
			if len(keys) != 3 || keys[0] != want[0] || keys[1] != want[1] || keys[2] != want[2] {
				t.Errorf("Communities(%s) = %v, want %v", method, keys, want)
			}
		}
	})

	t.Run("every node lands in exactly one community", func(t *testing.T) {
		engine, ids := seedGraph(t,
			[]string{"A", "B", "C", "D", "E", "F", "G"},
			[][2]string{
				{"A", "B"}, {"B", "C"}, {"C", "A"},
				{"D", "E"}, {"E", "F"}, {"F", "D"},
				{"A", "D"}, {"G", "A"},
			},
		)

		got, err := engine.Communities(ctx, testOwner, MethodModularity)
		if err != nil {
			t.Fatalf("Communities() error = %v", err)
		}
		seen := make(map[string]int)
		for _, group := range got {
			for _, id := range group {
				seen[id]++
			}
		}
		if len(seen) != len(ids) {
			t.Errorf("partition covers %d nodes, want %d", len(seen), len(ids))
		}
		for id, count := range seen {
			if count != 1 {
				t.Errorf("node %s assigned %d times, want exactly once", id, count)
			}
		}
	})

	t.Run("empty graph", func(t *testing.T) {
		engine, _ := seedGraph(t, nil, nil)
		got, err := engine.Communities(ctx, testOwner, MethodModularity)
		if err != nil {
			t.Fatalf("Communities() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Communities() on empty graph = %v, want none", got)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		engine, _ := seedGraph(t, []string{"A"}, nil)
		if _, err := engine.Communities(ctx, testOwner, "louvain-ng"); err == nil {
			t.Error("Communities() with unknown method expected error, got nil")
		}
	})
}
