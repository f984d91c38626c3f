// Package graph is the ingestion pipeline: it turns raw text into persisted
// knowledge-graph nodes and edges via annotation, extraction and
// deduplication.
package graph

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/trellis-kg/trellis/internal/util"
	"github.com/trellis-kg/trellis/pkg/annotate"
	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/extract"
	"github.com/trellis-kg/trellis/pkg/logger"
	"github.com/trellis-kg/trellis/pkg/store"
)

// DefaultNodeType is assigned to entities the annotator did not label.
const DefaultNodeType = "ENTITY"

// GraphClient drives document ingestion. It manages extraction and the
// parallelism of persistence calls.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	extractor      *extract.Extractor
	parallelWrites int
	maxRetries     int
}

// NewGraphClientParams defines the configuration parameters for creating a
// new GraphClient.
//
// ParallelWrites controls how many triples are persisted concurrently.
// MaxRetries bounds the annotator call attempts.
type NewGraphClientParams struct {
	ParallelWrites int
	MaxRetries     int
}

// NewGraphClient creates and returns a new GraphClient configured with the
// provided parameters.
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	parallelWrites := params.ParallelWrites
	if parallelWrites <= 0 {
		parallelWrites = 8
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &GraphClient{
		extractor:      extract.NewExtractor(),
		parallelWrites: parallelWrites,
		maxRetries:     maxRetries,
	}
}

// IngestParams identifies one document ingestion.
type IngestParams struct {
	Owner      string
	DocumentID string
	Text       string
}

// IngestResult carries everything one ingestion produced: the deduplicated
// triples and the persisted elements they resolved to. Nodes are unique even
// when several triples share an endpoint.
type IngestResult struct {
	Triples []common.Triple
	Nodes   []common.Node
	Edges   []common.Edge
}

// IngestDocument annotates the text, extracts and dedupes relationship
// triples, and persists each as a node pair plus an edge. Re-running the
// same document is idempotent: existing nodes merge properties, existing
// edges are kept as stored.
func (g *GraphClient) IngestDocument(
	ctx context.Context,
	params IngestParams,
	annotator annotate.Annotator,
	storeClient store.GraphStore,
) (*IngestResult, error) {
	doc, err := util.RetryWithContext(ctx, g.maxRetries, func(ctx context.Context) (*common.AnnotatedDocument, error) {
		return annotator.Annotate(ctx, params.Text)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to annotate document: %w", err)
	}

	triples := g.extractor.Extract(ctx, doc)
	logger.Info("[Graph] Extraction complete",
		"document_id", params.DocumentID, "sentences", len(doc.Sentences), "triples", len(triples))

	labels := entityLabels(doc)

	nodes, edges, err := g.persistTriples(ctx, params, triples, labels, storeClient)
	if err != nil {
		return nil, err
	}

	logger.Info("[Graph] Ingestion complete",
		"document_id", params.DocumentID, "nodes", len(nodes), "edges", len(edges))

	return &IngestResult{Triples: triples, Nodes: nodes, Edges: edges}, nil
}

// persistTriples writes the node pair and edge for every triple with bounded
// concurrency. Identity collisions between goroutines converge inside the
// store; no lock is held around store calls.
func (g *GraphClient) persistTriples(
	ctx context.Context,
	params IngestParams,
	triples []common.Triple,
	labels map[string]string,
	storeClient store.GraphStore,
) ([]common.Node, []common.Edge, error) {
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelWrites)

	var mu sync.Mutex
	nodesByID := make(map[string]common.Node)
	nodeOrder := make([]string, 0)
	edgesByID := make(map[string]common.Edge)
	edgeOrder := make([]string, 0, len(triples))

	for _, triple := range triples {
		t := triple
		eg.Go(func() error {
			src, err := g.upsertNode(gCtx, params, t.Subject, labels, storeClient)
			if err != nil {
				return fmt.Errorf("failed to persist subject %q: %w", t.Subject, err)
			}
			tgt, err := g.upsertNode(gCtx, params, t.Object, labels, storeClient)
			if err != nil {
				return fmt.Errorf("failed to persist object %q: %w", t.Object, err)
			}

			meta := make(map[string]string, len(t.Metadata)+1)
			for k, v := range t.Metadata {
				meta[k] = v
			}
			if t.Type != "" {
				meta["type"] = t.Type
			}

			edge, err := storeClient.CreateEdge(gCtx, store.CreateEdgeParams{
				Owner:        params.Owner,
				SourceNodeID: src.ID,
				TargetNodeID: tgt.ID,
				RelationType: t.Relation,
				Confidence:   t.Confidence,
				Metadata:     meta,
				SentenceID:   strconv.Itoa(t.Sentence),
				DocumentID:   params.DocumentID,
				Weight:       1,
			})
			if err != nil {
				return fmt.Errorf("failed to persist edge %q: %w", t.Relation, err)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, node := range []common.Node{src, tgt} {
				if _, ok := nodesByID[node.ID]; !ok {
					nodesByID[node.ID] = node
					nodeOrder = append(nodeOrder, node.ID)
				}
			}
			// Triples from different strategies can resolve to the same
			// stored edge; report it once.
			if _, ok := edgesByID[edge.ID]; !ok {
				edgesByID[edge.ID] = edge
				edgeOrder = append(edgeOrder, edge.ID)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to persist triples: %w", err)
	}

	nodes := make([]common.Node, 0, len(nodeOrder))
	for _, id := range nodeOrder {
		nodes = append(nodes, nodesByID[id])
	}
	edges := make([]common.Edge, 0, len(edgeOrder))
	for _, id := range edgeOrder {
		edges = append(edges, edgesByID[id])
	}
	return nodes, edges, nil
}

func (g *GraphClient) upsertNode(
	ctx context.Context,
	params IngestParams,
	entityText string,
	labels map[string]string,
	storeClient store.GraphStore,
) (common.Node, error) {
	label := labels[store.NormalizeEntityText(entityText)]
	typ := label
	if typ == "" {
		typ = DefaultNodeType
	}
	return storeClient.GetOrCreateNode(ctx, store.CreateNodeParams{
		Owner:      params.Owner,
		EntityText: entityText,
		Type:       typ,
		Label:      label,
		DocumentID: params.DocumentID,
	})
}

// DeleteDocument removes every node and edge whose source document matches.
// Edges referencing the document from nodes of other documents go first, then
// the document's nodes cascade their remaining incident edges.
func (g *GraphClient) DeleteDocument(ctx context.Context, owner, documentID string, storeClient store.GraphStore) error {
	logger.Info("[Graph] Deleting document", "document_id", documentID)

	edges, err := storeClient.GetEdges(ctx, owner, store.EdgeFilter{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("failed to list document edges: %w", err)
	}
	for _, edge := range edges {
		if err := storeClient.DeleteEdge(ctx, owner, edge.ID); err != nil {
			return fmt.Errorf("failed to delete edge %s: %w", edge.ID, err)
		}
	}

	nodes, err := storeClient.GetNodes(ctx, owner, store.NodeFilter{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("failed to list document nodes: %w", err)
	}
	for _, node := range nodes {
		if err := storeClient.DeleteNode(ctx, owner, node.ID); err != nil {
			return fmt.Errorf("failed to delete node %s: %w", node.ID, err)
		}
	}

	logger.Info("[Graph] Document deleted", "document_id", documentID, "nodes", len(nodes), "edges", len(edges))
	return nil
}

// entityLabels maps normalized entity surface text to the annotator's label,
// first label wins across the document.
func entityLabels(doc *common.AnnotatedDocument) map[string]string {
	labels := make(map[string]string)
	for _, sent := range doc.Sentences {
		for _, ent := range sent.Entities {
			key := store.NormalizeEntityText(ent.Text)
			if _, ok := labels[key]; !ok && ent.Label != "" {
				labels[key] = ent.Label
			}
		}
	}
	return labels
}
