package extract

import "github.com/trellis-kg/trellis/pkg/common"

// DedupeTriples collapses duplicate triples before persistence. The
// canonical key is the lower-cased (subject, relation, object, type) tuple;
// the first occurrence in extraction order wins. Triples differing only in
// relation-type are kept, since independent strategies finding the same
// surface relation are distinct structural signals.
func DedupeTriples(triples []common.Triple) []common.Triple {
	if len(triples) == 0 {
		return triples
	}

	seen := make(map[string]struct{}, len(triples))
	out := make([]common.Triple, 0, len(triples))
	for _, t := range triples {
		key := canonicalKey(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func canonicalKey(t common.Triple) string {
	return lower(t.Subject) + "|" + lower(t.Relation) + "|" + lower(t.Object) + "|" + lower(t.Type)
}
