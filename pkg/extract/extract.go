// Package extract turns annotated documents into relationship triples using
// a fixed, ordered list of independent extraction strategies.
package extract

import (
	"context"
	"strings"

	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/logger"
)

// Extractor runs every configured strategy over every sentence of a
// document. Extraction is CPU-bound and synchronous; concurrent calls over
// different documents share no mutable state.
type Extractor struct {
	strategies []Strategy
}

// NewExtractor creates an extractor with the default strategy list.
func NewExtractor() *Extractor {
	return &Extractor{strategies: DefaultStrategies()}
}

// NewExtractorWithStrategies creates an extractor with a custom strategy
// list, mainly for tests.
func NewExtractorWithStrategies(strategies []Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// Extract produces the deduplicated triple list for one annotated document.
// A failure in one sentence or one strategy is logged as a warning and
// skipped; it never aborts extraction for the rest of the document.
func (e *Extractor) Extract(ctx context.Context, doc *common.AnnotatedDocument) []common.Triple {
	if doc == nil || len(doc.Sentences) == 0 {
		return nil
	}

	// Coreference lookup is scoped to this call and discarded with it.
	canonical := corefCanonicalizer(doc)

	var triples []common.Triple
	for si := range doc.Sentences {
		if ctx.Err() != nil {
			break
		}
		sent := doc.Sentences[si]
		if len(sent.Tokens) == 0 {
			continue
		}

		tree, err := NewDepTree(sent.Tokens)
		if err != nil {
			logger.Warn("[Extract] Skipping unparseable sentence", "sentence", sent.Index, "err", err)
			continue
		}

		sc := &SentenceContext{
			Sentence: sent,
			Entities: canonical(si, sent.Entities),
			Tree:     tree,
		}

		for _, strat := range e.strategies {
			out, err := strat.Extract(sc)
			if err != nil {
				logger.Warn("[Extract] Strategy failure", "strategy", strat.Name(), "sentence", sent.Index, "err", err)
			}
			triples = append(triples, out...)
		}
	}

	return DedupeTriples(triples)
}

// corefCanonicalizer builds a per-document lookup that re-points entity
// spans to the canonical mention of their coreference cluster. The returned
// closure owns the only reference to the lookup, so nothing leaks across
// calls or tenants.
func corefCanonicalizer(doc *common.AnnotatedDocument) func(int, []common.EntitySpan) []common.EntitySpan {
	if len(doc.Coref) == 0 {
		return func(_ int, spans []common.EntitySpan) []common.EntitySpan { return spans }
	}

	type key struct {
		sentence, start, end int
	}
	canonicalByMention := make(map[key]string)
	for _, cluster := range doc.Coref {
		if len(cluster.Mentions) == 0 {
			continue
		}
		canonical := cluster.Mentions[0].Text
		for _, m := range cluster.Mentions {
			canonicalByMention[key{m.Sentence, m.Start, m.End}] = canonical
		}
	}

	return func(sentence int, spans []common.EntitySpan) []common.EntitySpan {
		out := make([]common.EntitySpan, len(spans))
		copy(out, spans)
		for i := range out {
			if canonical, ok := canonicalByMention[key{sentence, out[i].Start, out[i].End}]; ok {
				out[i].Text = canonical
			}
		}
		return out
	}
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
