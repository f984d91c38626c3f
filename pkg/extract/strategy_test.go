package extract

import (
	"reflect"
	"testing"

	"github.com/trellis-kg/trellis/pkg/common"
)

func sentenceContext(t *testing.T, sent common.Sentence) *SentenceContext {
	t.Helper()
	tree, err := NewDepTree(sent.Tokens)
	if err != nil {
		t.Fatalf("NewDepTree() error = %v", err)
	}
	return &SentenceContext{Sentence: sent, Entities: sent.Entities, Tree: tree}
}

func TestEntityPairStrategy(t *testing.T) {
	t.Run("predicate lca relates the pair", func(t *testing.T) {
		sc := sentenceContext(t, common.Sentence{
			Index:  0,
			Tokens: producesTokens(),
			Entities: []common.EntitySpan{
				{Text: "Apple", Label: "ORG", Start: 0, End: 1},
				{Text: "iPhone", Label: "PRODUCT", Start: 2, End: 3},
			},
		})

		got, err := (&EntityPairStrategy{}).Extract(sc)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		want := []common.Triple{{
			Subject:    "Apple",
			Relation:   "produce",
			Object:     "iPhone",
			Type:       TagLCADependency,
			Confidence: 0.7,
		}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Extract() = %#v, want %#v", got, want)
		}
	})

	t.Run("one triple per pair", func(t *testing.T) {
		// Three entities under one verb must yield three triples, not six.
		tokens := []common.Token{
			{Text: "Apple", Lemma: "Apple", POS: "PROPN", Dep: "nsubj", Head: 3},
			{Text: "Microsoft", Lemma: "Microsoft", POS: "PROPN", Dep: "conj", Head: 3},
			{Text: "and", Lemma: "and", POS: "CCONJ", Dep: "cc", Head: 1},
			{Text: "rival", Lemma: "rival", POS: "VERB", Dep: "root", Head: 3},
			{Text: "Google", Lemma: "Google", POS: "PROPN", Dep: "dobj", Head: 3},
		}
		sc := sentenceContext(t, common.Sentence{
			Tokens: tokens,
			Entities: []common.EntitySpan{
				{Text: "Apple", Label: "ORG", Start: 0, End: 1},
				{Text: "Microsoft", Label: "ORG", Start: 1, End: 2},
				{Text: "Google", Label: "ORG", Start: 4, End: 5},
			},
		})

		got, err := (&EntityPairStrategy{}).Extract(sc)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Extract() produced %d triples, want 3: %#v", len(got), got)
		}
		for _, tr := range got {
			if tr.Subject == tr.Object {
				t.Errorf("Extract() related %q to itself", tr.Subject)
			}
		}
	})

	t.Run("non-predicate lca yields nothing", func(t *testing.T) {
		// Two entities inside one noun phrase share a noun ancestor.
		tokens := []common.Token{
			{Text: "Paris", Lemma: "Paris", POS: "PROPN", Dep: "compound", Head: 2},
			{Text: "France", Lemma: "France", POS: "PROPN", Dep: "compound", Head: 2},
			{Text: "office", Lemma: "office", POS: "NOUN", Dep: "root", Head: 2},
		}
		sc := sentenceContext(t, common.Sentence{
			Tokens: tokens,
			Entities: []common.EntitySpan{
				{Text: "Paris", Label: "LOC", Start: 0, End: 1},
				{Text: "France", Label: "LOC", Start: 1, End: 2},
			},
		})

		got, err := (&EntityPairStrategy{}).Extract(sc)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Extract() = %#v, want none", got)
		}
	})

	t.Run("single entity yields nothing", func(t *testing.T) {
		sc := sentenceContext(t, common.Sentence{
			Tokens:   producesTokens(),
			Entities: []common.EntitySpan{{Text: "Apple", Start: 0, End: 1}},
		})
		got, err := (&EntityPairStrategy{}).Extract(sc)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if got != nil {
			t.Errorf("Extract() = %#v, want nil", got)
		}
	})

	t.Run("bad span reported but does not abort", func(t *testing.T) {
		sc := sentenceContext(t, common.Sentence{
			Tokens: producesTokens(),
			Entities: []common.EntitySpan{
				{Text: "ghost", Start: 5, End: 9},
				{Text: "Apple", Start: 0, End: 1},
				{Text: "iPhone", Start: 2, End: 3},
			},
		})

		got, err := (&EntityPairStrategy{}).Extract(sc)
		if err == nil {
			t.Error("Extract() expected pair error, got nil")
		}
		if len(got) != 1 {
			t.Errorf("Extract() produced %d triples despite bad span, want 1", len(got))
		}
	})
}

func TestRootSVOStrategy(t *testing.T) {
	t.Run("subject and object on root", func(t *testing.T) {
		sc := sentenceContext(t, common.Sentence{
			Index:  2,
			Tokens: producesTokens(),
			Entities: []common.EntitySpan{
				{Text: "Apple", Label: "ORG", Start: 0, End: 1},
				{Text: "iPhone", Label: "PRODUCT", Start: 2, End: 3},
			},
		})

		got, err := (&RootSVOStrategy{}).Extract(sc)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		want := []common.Triple{{
			Subject:    "Apple",
			Relation:   "produce",
			Object:     "iPhone",
			Type:       TagSVO,
			Confidence: 0.5,
			Sentence:   2,
		}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Extract() = %#v, want %#v", got, want)
		}
	})

	t.Run("entity mention preferred over token text", func(t *testing.T) {
		tokens := []common.Token{
			{Text: "Apple", Lemma: "Apple", POS: "PROPN", Dep: "compound", Head: 1},
			{Text: "Inc", Lemma: "Inc", POS: "PROPN", Dep: "nsubj", Head: 2},
			{Text: "makes", Lemma: "make", POS: "VERB", Dep: "root", Head: 2},
			{Text: "phones", Lemma: "phone", POS: "NOUN", Dep: "dobj", Head: 2},
		}
		sc := sentenceContext(t, common.Sentence{
			Tokens: tokens,
			Entities: []common.EntitySpan{
				{Text: "Apple Inc", Label: "ORG", Start: 0, End: 2},
			},
		})

		got, err := (&RootSVOStrategy{}).Extract(sc)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(got) != 1 || got[0].Subject != "Apple Inc" {
			t.Errorf("Extract() = %#v, want subject %q", got, "Apple Inc")
		}
	})

	t.Run("missing object yields nothing", func(t *testing.T) {
		tokens := []common.Token{
			{Text: "Apple", Lemma: "Apple", POS: "PROPN", Dep: "nsubj", Head: 1},
			{Text: "grows", Lemma: "grow", POS: "VERB", Dep: "root", Head: 1},
		}
		sc := sentenceContext(t, common.Sentence{Tokens: tokens})

		got, err := (&RootSVOStrategy{}).Extract(sc)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if got != nil {
			t.Errorf("Extract() = %#v, want nil", got)
		}
	})
}

func TestPatternStrategy(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []common.Token
		want    common.Triple
		pattern string
	}{
		{
			name: "causes",
			tokens: []common.Token{
				{Text: "Smoking", Lemma: "smoking", POS: "NOUN", Dep: "nsubj", Head: 1},
				{Text: "causes", Lemma: "cause", POS: "VERB", Dep: "root", Head: 1},
				{Text: "cancer", Lemma: "cancer", POS: "NOUN", Dep: "dobj", Head: 1},
			},
			want:    common.Triple{Subject: "Smoking", Relation: "cause", Object: "cancer", Type: TagCausal},
			pattern: "causes",
		},
		{
			name: "due to reverses direction",
			tokens: []common.Token{
				{Text: "Flooding", Lemma: "flooding", POS: "NOUN", Dep: "root", Head: 0},
				{Text: "due", Lemma: "due", POS: "ADJ", Dep: "amod", Head: 0},
				{Text: "to", Lemma: "to", POS: "ADP", Dep: "fixed", Head: 1},
				{Text: "rain", Lemma: "rain", POS: "NOUN", Dep: "obl", Head: 1},
			},
			want:    common.Triple{Subject: "rain", Relation: "due to", Object: "Flooding", Type: TagCausal},
			pattern: "due_to",
		},
		{
			name: "temporal",
			tokens: []common.Token{
				{Text: "Breakfast", Lemma: "breakfast", POS: "NOUN", Dep: "root", Head: 0},
				{Text: "before", Lemma: "before", POS: "ADP", Dep: "case", Head: 2},
				{Text: "lunch", Lemma: "lunch", POS: "NOUN", Dep: "nmod", Head: 0},
			},
			want:    common.Triple{Subject: "Breakfast", Relation: "before", Object: "lunch", Type: TagTemporal},
			pattern: "temporal",
		},
		{
			name: "is a type of",
			tokens: []common.Token{
				{Text: "A", Lemma: "a", POS: "DET", Dep: "det", Head: 1},
				{Text: "dog", Lemma: "dog", POS: "NOUN", Dep: "nsubj", Head: 2},
				{Text: "is", Lemma: "be", POS: "AUX", Dep: "cop", Head: 4},
				{Text: "a", Lemma: "a", POS: "DET", Dep: "det", Head: 4},
				{Text: "type", Lemma: "type", POS: "NOUN", Dep: "root", Head: 4},
				{Text: "of", Lemma: "of", POS: "ADP", Dep: "case", Head: 6},
				{Text: "animal", Lemma: "animal", POS: "NOUN", Dep: "nmod", Head: 4},
			},
			want:    common.Triple{Subject: "dog", Relation: "is a type of", Object: "animal", Type: TagHierarchical},
			pattern: "is_a_type_of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := sentenceContext(t, common.Sentence{Tokens: tt.tokens})
			got, err := NewPatternStrategy().Extract(sc)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("Extract() produced %d triples, want 1: %#v", len(got), got)
			}
			tr := got[0]
			if tr.Subject != tt.want.Subject || tr.Relation != tt.want.Relation || tr.Object != tt.want.Object {
				t.Errorf("Extract() = (%q, %q, %q), want (%q, %q, %q)",
					tr.Subject, tr.Relation, tr.Object, tt.want.Subject, tt.want.Relation, tt.want.Object)
			}
			if tr.Type != tt.want.Type {
				t.Errorf("Type = %q, want %q", tr.Type, tt.want.Type)
			}
			if tr.Confidence != 0.8 {
				t.Errorf("Confidence = %v, want 0.8", tr.Confidence)
			}
			if tr.Metadata["pattern"] != tt.pattern {
				t.Errorf("Metadata[pattern] = %q, want %q", tr.Metadata["pattern"], tt.pattern)
			}
		})
	}

	t.Run("no pattern no triple", func(t *testing.T) {
		sc := sentenceContext(t, common.Sentence{Tokens: producesTokens()})
		got, err := NewPatternStrategy().Extract(sc)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Extract() = %#v, want none", got)
		}
	})
}
