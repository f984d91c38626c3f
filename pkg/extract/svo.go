package extract

import (
	"strings"

	"github.com/trellis-kg/trellis/pkg/common"
)

// RootSVOStrategy emits one subject-verb-object triple per sentence whose
// syntactic root has both a nominal subject and a direct object among its
// immediate dependents.
type RootSVOStrategy struct{}

func (s *RootSVOStrategy) Name() string { return "root_svo" }

func (s *RootSVOStrategy) Extract(sc *SentenceContext) ([]common.Triple, error) {
	tree := sc.Tree
	root := tree.Root()
	if root < 0 {
		return nil, nil
	}

	subject := -1
	object := -1
	for i, tok := range sc.Sentence.Tokens {
		if tree.Parent(i) != root {
			continue
		}
		switch strings.ToLower(tok.Dep) {
		case "nsubj", "nsubjpass", "nsubj:pass":
			if subject == -1 {
				subject = i
			}
		case "dobj", "obj":
			if object == -1 {
				object = i
			}
		}
	}
	if subject == -1 || object == -1 {
		return nil, nil
	}

	return []common.Triple{{
		Subject:    s.mentionText(sc, subject),
		Relation:   lemmaOrText(sc.Sentence.Tokens[root]),
		Object:     s.mentionText(sc, object),
		Type:       TagSVO,
		Confidence: 0.5,
		Sentence:   sc.Sentence.Index,
	}}, nil
}

// mentionText prefers the full entity mention covering a token over the bare
// token text, so "Apple Inc." wins over "Inc.".
func (s *RootSVOStrategy) mentionText(sc *SentenceContext, idx int) string {
	for _, e := range sc.Entities {
		if idx >= e.Start && idx < e.End {
			return e.Text
		}
	}
	return sc.Sentence.Tokens[idx].Text
}
