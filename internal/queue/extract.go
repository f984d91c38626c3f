package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trellis-kg/trellis/pkg/annotate"
	"github.com/trellis-kg/trellis/pkg/graph"
	"github.com/trellis-kg/trellis/pkg/logger"
	"github.com/trellis-kg/trellis/pkg/store"
)

// QueueExtractMsg asks the worker to ingest one document.
type QueueExtractMsg struct {
	Text          string `json:"text"`
	DocumentID    string `json:"document_id"`
	Owner         string `json:"owner"`
	CorrelationID string `json:"correlation_id"`
}

// QueueDeleteMsg asks the worker to remove every element of one document.
type QueueDeleteMsg struct {
	DocumentID    string `json:"document_id"`
	Owner         string `json:"owner"`
	CorrelationID string `json:"correlation_id"`
}

// ProcessExtractMessage runs the ingestion pipeline for one queued document.
// A returned error sends the message to the retry queue.
func ProcessExtractMessage(
	ctx context.Context,
	graphClient *graph.GraphClient,
	annotator annotate.Annotator,
	storeClient store.GraphStore,
	body string,
) error {
	var data QueueExtractMsg
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return fmt.Errorf("failed to unmarshal extract message: %w", err)
	}
	if data.Text == "" || data.Owner == "" {
		return fmt.Errorf("extract message missing text or owner")
	}

	logger.Info("[Queue] Processing extract message",
		"document_id", data.DocumentID, "correlation_id", data.CorrelationID)

	result, err := graphClient.IngestDocument(ctx, graph.IngestParams{
		Owner:      data.Owner,
		DocumentID: data.DocumentID,
		Text:       data.Text,
	}, annotator, storeClient)
	if err != nil {
		return fmt.Errorf("failed to ingest document %s: %w", data.DocumentID, err)
	}

	logger.Info("[Queue] Extract message processed",
		"document_id", data.DocumentID,
		"correlation_id", data.CorrelationID,
		"triples", len(result.Triples),
		"nodes", len(result.Nodes),
		"edges", len(result.Edges))
	return nil
}

// ProcessDeleteMessage removes a document's nodes and edges.
func ProcessDeleteMessage(
	ctx context.Context,
	graphClient *graph.GraphClient,
	storeClient store.GraphStore,
	body string,
) error {
	var data QueueDeleteMsg
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return fmt.Errorf("failed to unmarshal delete message: %w", err)
	}
	if data.DocumentID == "" || data.Owner == "" {
		return fmt.Errorf("delete message missing document_id or owner")
	}

	logger.Info("[Queue] Processing delete message",
		"document_id", data.DocumentID, "correlation_id", data.CorrelationID)

	if err := graphClient.DeleteDocument(ctx, data.Owner, data.DocumentID, storeClient); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", data.DocumentID, err)
	}

	logger.Info("[Queue] Delete message processed",
		"document_id", data.DocumentID, "correlation_id", data.CorrelationID)
	return nil
}
