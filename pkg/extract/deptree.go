package extract

import (
	"fmt"
	"strings"

	"github.com/trellis-kg/trellis/pkg/common"
)

// DepTree is a depth-annotated view of one sentence's dependency parse.
// Parent pointers come straight from the annotator's head indices; depths
// are computed once so ancestor walks are iterative and bounded, never
// recursive.
type DepTree struct {
	tokens []common.Token
	parent []int
	depth  []int
	root   int
}

// NewDepTree builds the tree for a sentence. A token whose head index is out
// of range or self-referential is treated as the root. Cycles in malformed
// parses are broken by capping every walk at the token count.
func NewDepTree(tokens []common.Token) (*DepTree, error) {
	n := len(tokens)
	if n == 0 {
		return nil, fmt.Errorf("empty sentence")
	}

	t := &DepTree{
		tokens: tokens,
		parent: make([]int, n),
		depth:  make([]int, n),
		root:   -1,
	}

	for i, tok := range tokens {
		head := tok.Head
		if head < 0 || head >= n || head == i || strings.EqualFold(tok.Dep, "root") {
			t.parent[i] = -1
			if t.root == -1 {
				t.root = i
			}
			continue
		}
		t.parent[i] = head
	}
	if t.root == -1 {
		// No explicit root. Fall back to the first token so walks still
		// terminate.
		t.root = 0
		t.parent[0] = -1
	}

	for i := range tokens {
		t.depth[i] = t.computeDepth(i)
	}

	return t, nil
}

func (t *DepTree) computeDepth(idx int) int {
	depth := 0
	cur := idx
	for steps := 0; steps <= len(t.tokens); steps++ {
		p := t.parent[cur]
		if p < 0 {
			return depth
		}
		cur = p
		depth++
	}
	// Cycle: report the cap; walks are bounded by it anyway.
	return len(t.tokens)
}

// Root returns the index of the sentence's syntactic root token.
func (t *DepTree) Root() int {
	return t.root
}

// Parent returns the head index of a token, or -1 for the root.
func (t *DepTree) Parent(idx int) int {
	if idx < 0 || idx >= len(t.parent) {
		return -1
	}
	return t.parent[idx]
}

// Dominates reports whether anc lies on node's ancestor chain. A token
// dominates itself.
func (t *DepTree) Dominates(anc, node int) bool {
	if anc < 0 || node < 0 || anc >= len(t.tokens) || node >= len(t.tokens) {
		return false
	}
	cur := node
	for steps := 0; steps <= len(t.tokens); steps++ {
		if cur == anc {
			return true
		}
		cur = t.parent[cur]
		if cur < 0 {
			return false
		}
	}
	return false
}

// LCA finds the lowest common ancestor of tokens a and b: it walks a's
// ancestor chain looking for a token that dominates b, then b's chain
// symmetrically, and finally falls back to whichever token directly
// dominates the other, defaulting to a.
func (t *DepTree) LCA(a, b int) (int, error) {
	n := len(t.tokens)
	if a < 0 || b < 0 || a >= n || b >= n {
		return -1, fmt.Errorf("token index out of range: a=%d b=%d n=%d", a, b, n)
	}

	cur := a
	for steps := 0; steps <= n; steps++ {
		if t.Dominates(cur, b) {
			return cur, nil
		}
		cur = t.parent[cur]
		if cur < 0 {
			break
		}
	}

	cur = b
	for steps := 0; steps <= n; steps++ {
		if t.Dominates(cur, a) {
			return cur, nil
		}
		cur = t.parent[cur]
		if cur < 0 {
			break
		}
	}

	if t.parent[b] == a {
		return a, nil
	}
	if t.parent[a] == b {
		return b, nil
	}
	return a, nil
}

// HeadOfSpan returns the index of the span's head token: the first token
// whose own head falls outside the span. Single-rooted spans always have
// one; for malformed spans the last token is used.
func HeadOfSpan(tree *DepTree, span common.EntitySpan) (int, error) {
	n := len(tree.tokens)
	if span.Start < 0 || span.End > n || span.Start >= span.End {
		return -1, fmt.Errorf("entity span out of range: [%d,%d) with %d tokens", span.Start, span.End, n)
	}
	for i := span.Start; i < span.End; i++ {
		p := tree.parent[i]
		if p < 0 || p < span.Start || p >= span.End {
			return i, nil
		}
	}
	return span.End - 1, nil
}

// isPredicate reports whether a part-of-speech tag marks a token usable as a
// relation predicate: verbs, auxiliaries and adpositions.
func isPredicate(pos string) bool {
	switch strings.ToUpper(pos) {
	case "VERB", "AUX", "ADP":
		return true
	}
	return false
}

// lemmaOrText prefers the lemma, falling back to the surface form.
func lemmaOrText(tok common.Token) string {
	if tok.Lemma != "" {
		return tok.Lemma
	}
	return tok.Text
}
