// Package annotate defines the contract with the external linguistic
// annotator. The annotator performs tokenization, lemmatization,
// part-of-speech tagging, dependency parsing, named-entity recognition and
// optional coreference resolution; this module only consumes its output.
package annotate

import (
	"context"

	"github.com/trellis-kg/trellis/pkg/common"
)

// Annotator turns raw text into sentences of tokens, entity spans and
// optional coreference clusters.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*common.AnnotatedDocument, error)
}
