package extract

import (
	"strings"

	"github.com/trellis-kg/trellis/pkg/common"
)

// PatternStrategy matches a fixed set of token-sequence patterns for causal,
// temporal and hierarchical phrasing. Each match records which pattern fired
// in the triple metadata.
type PatternStrategy struct {
	rules []patternRule
}

// patternRule tries to produce a triple anchored at token index i. Rules are
// independent; every rule is applied at every position.
type patternRule struct {
	name string
	tag  string
	fire func(sc *SentenceContext, i int) (common.Triple, bool)
}

func NewPatternStrategy() *PatternStrategy {
	return &PatternStrategy{rules: []patternRule{
		{name: "causes", tag: TagCausal, fire: matchCauses},
		{name: "due_to", tag: TagCausal, fire: matchDueTo},
		{name: "temporal", tag: TagTemporal, fire: matchTemporal},
		{name: "is_a_type_of", tag: TagHierarchical, fire: matchTypeOf},
	}}
}

func (s *PatternStrategy) Name() string { return "pattern" }

func (s *PatternStrategy) Extract(sc *SentenceContext) ([]common.Triple, error) {
	var triples []common.Triple
	for _, rule := range s.rules {
		for i := range sc.Sentence.Tokens {
			triple, ok := rule.fire(sc, i)
			if !ok {
				continue
			}
			triple.Type = rule.tag
			triple.Confidence = 0.8
			triple.Metadata = map[string]string{"pattern": rule.name}
			triple.Sentence = sc.Sentence.Index
			triples = append(triples, triple)
		}
	}
	return triples, nil
}

// matchCauses handles "X causes Y".
func matchCauses(sc *SentenceContext, i int) (common.Triple, bool) {
	tok := sc.Sentence.Tokens[i]
	if !strings.EqualFold(tok.Lemma, "cause") || !strings.EqualFold(tok.POS, "VERB") {
		return common.Triple{}, false
	}
	subj, okS := nearestMention(sc, i, -1)
	obj, okO := nearestMention(sc, i, +1)
	if !okS || !okO {
		return common.Triple{}, false
	}
	return common.Triple{Subject: subj, Relation: "cause", Object: obj}, true
}

// matchDueTo handles "Y due to X"; the argument after "due to" is the cause
// and becomes the subject.
func matchDueTo(sc *SentenceContext, i int) (common.Triple, bool) {
	toks := sc.Sentence.Tokens
	if i+1 >= len(toks) {
		return common.Triple{}, false
	}
	if !strings.EqualFold(toks[i].Text, "due") || !strings.EqualFold(toks[i+1].Text, "to") {
		return common.Triple{}, false
	}
	cause, okC := nearestMention(sc, i+1, +1)
	effect, okE := nearestMention(sc, i, -1)
	if !okC || !okE {
		return common.Triple{}, false
	}
	return common.Triple{Subject: cause, Relation: "due to", Object: effect}, true
}

// matchTemporal handles "X before/after/during Y".
func matchTemporal(sc *SentenceContext, i int) (common.Triple, bool) {
	tok := sc.Sentence.Tokens[i]
	lemma := strings.ToLower(lemmaOrText(tok))
	switch lemma {
	case "before", "after", "during":
	default:
		return common.Triple{}, false
	}
	left, okL := nearestMention(sc, i, -1)
	right, okR := nearestMention(sc, i, +1)
	if !okL || !okR {
		return common.Triple{}, false
	}
	return common.Triple{Subject: left, Relation: lemma, Object: right}, true
}

// matchTypeOf handles "X is a type of Y" and "X is a kind of Y".
func matchTypeOf(sc *SentenceContext, i int) (common.Triple, bool) {
	toks := sc.Sentence.Tokens
	if i+3 >= len(toks) {
		return common.Triple{}, false
	}
	if !strings.EqualFold(toks[i].Lemma, "be") {
		return common.Triple{}, false
	}
	kind := strings.ToLower(toks[i+2].Lemma)
	if !strings.EqualFold(toks[i+1].Text, "a") || (kind != "type" && kind != "kind") || !strings.EqualFold(toks[i+3].Text, "of") {
		return common.Triple{}, false
	}
	sub, okS := nearestMention(sc, i, -1)
	super, okO := nearestMention(sc, i+3, +1)
	if !okS || !okO {
		return common.Triple{}, false
	}
	return common.Triple{Subject: sub, Relation: "is a type of", Object: super}, true
}

// nearestMention finds the closest entity mention strictly on one side of a
// token index (dir -1 left, +1 right), falling back to the nearest noun.
func nearestMention(sc *SentenceContext, idx, dir int) (string, bool) {
	best := -1
	for ei, e := range sc.Entities {
		if dir < 0 && e.End <= idx {
			if best == -1 || e.End > sc.Entities[best].End {
				best = ei
			}
		}
		if dir > 0 && e.Start > idx {
			if best == -1 || e.Start < sc.Entities[best].Start {
				best = ei
			}
		}
	}
	if best >= 0 {
		return sc.Entities[best].Text, true
	}

	toks := sc.Sentence.Tokens
	for i := idx + dir; i >= 0 && i < len(toks); i += dir {
		pos := strings.ToUpper(toks[i].POS)
		if pos == "NOUN" || pos == "PROPN" {
			return toks[i].Text, true
		}
	}
	return "", false
}
