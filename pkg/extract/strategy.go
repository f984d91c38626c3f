package extract

import "github.com/trellis-kg/trellis/pkg/common"

// Relation type tags attached to extracted triples. Two strategies finding
// the same surface relation under different tags both survive deduplication;
// each tag is a distinct structural signal.
const (
	TagLCADependency  = "LCA_DEPENDENCY"
	TagHeadDependency = "HEAD_DEPENDENCY"
	TagSVO            = "SVO"
	TagCausal         = "CAUSAL"
	TagTemporal       = "TEMPORAL"
	TagHierarchical   = "HIERARCHICAL"
)

// Strategy extracts candidate relationship triples from one annotated
// sentence. Strategies never short-circuit each other; the extractor runs
// every strategy over every sentence and concatenates the results.
type Strategy interface {
	Name() string
	Extract(sentence *SentenceContext) ([]common.Triple, error)
}

// SentenceContext bundles a sentence with its parsed dependency tree and the
// coreference-resolved entity spans. It is built once per sentence and
// shared by all strategies.
type SentenceContext struct {
	Sentence common.Sentence
	Entities []common.EntitySpan
	Tree     *DepTree
}

// DefaultStrategies returns the fixed, ordered strategy list. Order matters
// only for deterministic output; every strategy always runs.
func DefaultStrategies() []Strategy {
	return []Strategy{
		&EntityPairStrategy{},
		&RootSVOStrategy{},
		NewPatternStrategy(),
	}
}
