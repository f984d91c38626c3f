package extract

import (
	"fmt"

	"github.com/trellis-kg/trellis/pkg/common"
)

// EntityPairStrategy inspects every pair of distinct entity mentions in a
// sentence and relates them through the dependency tree: the lowest common
// ancestor of the two entity heads when it is a predicate, or a shared
// predicate head as a weaker fallback. Each pair yields at most one triple,
// with the earlier mention as the subject, so pairs are never duplicated
// combinatorially.
type EntityPairStrategy struct{}

func (s *EntityPairStrategy) Name() string { return "entity_pair" }

func (s *EntityPairStrategy) Extract(sc *SentenceContext) ([]common.Triple, error) {
	if len(sc.Entities) < 2 {
		return nil, nil
	}

	var triples []common.Triple
	var pairErr error
	for i := range sc.Entities {
		for j := i + 1; j < len(sc.Entities); j++ {
			triple, ok, err := s.relatePair(sc, sc.Entities[i], sc.Entities[j])
			if err != nil {
				// A single bad pair never aborts the sentence; the caller
				// logs it as a warning and moves on.
				if pairErr == nil {
					pairErr = err
				}
				continue
			}
			if ok {
				triples = append(triples, triple)
			}
		}
	}
	return triples, pairErr
}

func (s *EntityPairStrategy) relatePair(sc *SentenceContext, a, b common.EntitySpan) (common.Triple, bool, error) {
	tree := sc.Tree

	aHead, err := HeadOfSpan(tree, a)
	if err != nil {
		return common.Triple{}, false, fmt.Errorf("head of %q: %w", a.Text, err)
	}
	bHead, err := HeadOfSpan(tree, b)
	if err != nil {
		return common.Triple{}, false, fmt.Errorf("head of %q: %w", b.Text, err)
	}
	if aHead == bHead {
		return common.Triple{}, false, nil
	}

	lca, err := tree.LCA(aHead, bHead)
	if err != nil {
		return common.Triple{}, false, fmt.Errorf("lca of %q and %q: %w", a.Text, b.Text, err)
	}

	if isPredicate(tree.tokens[lca].POS) {
		return common.Triple{
			Subject:    a.Text,
			Relation:   lemmaOrText(tree.tokens[lca]),
			Object:     b.Text,
			Type:       TagLCADependency,
			Confidence: 0.7,
			Sentence:   sc.Sentence.Index,
		}, true, nil
	}

	// Weaker signal: both entity heads hang off the same predicate token.
	if tree.Parent(aHead) >= 0 && tree.Parent(aHead) == tree.Parent(bHead) {
		shared := tree.Parent(aHead)
		if isPredicate(tree.tokens[shared].POS) {
			return common.Triple{
				Subject:    a.Text,
				Relation:   lemmaOrText(tree.tokens[shared]),
				Object:     b.Text,
				Type:       TagHeadDependency,
				Confidence: 0.6,
				Sentence:   sc.Sentence.Index,
			}, true, nil
		}
	}

	return common.Triple{}, false, nil
}
