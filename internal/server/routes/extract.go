package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trellis-kg/trellis/internal/queue"
	"github.com/trellis-kg/trellis/internal/server/middleware"
	"github.com/trellis-kg/trellis/pkg/assemble"
	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/graph"
	"github.com/trellis-kg/trellis/pkg/logger"
)

// ExtractHandler runs the full ingestion pipeline synchronously and returns
// the extracted relationships plus the persisted graph slice.
func ExtractHandler(c echo.Context) error {
	type extractBody struct {
		Text       string `json:"text" validate:"required"`
		DocumentID string `json:"document_id"`
	}

	type extractResponse struct {
		Message       string            `json:"message"`
		DocumentID    string            `json:"document_id,omitempty"`
		Relationships []common.Triple   `json:"relationships,omitempty"`
		Graph         *common.GraphView `json:"graph,omitempty"`
	}

	data := new(extractBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, extractResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, extractResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	documentID := data.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result, err := app.Graph.IngestDocument(ctx, graph.IngestParams{
		Owner:      user.UserID,
		DocumentID: documentID,
		Text:       data.Text,
	}, app.Annotator, app.Store)
	if err != nil {
		if errors.Is(err, common.ErrUpstreamUnavailable) {
			logger.Error("[API] Annotator unavailable", "err", err)
			return c.JSON(http.StatusBadGateway, extractResponse{
				Message: "Annotator service unavailable",
			})
		}
		logger.Error("[API] Extraction failed", "document_id", documentID, "err", err)
		return c.JSON(http.StatusInternalServerError, extractResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, extractResponse{
		Message:       "Extraction completed successfully",
		DocumentID:    documentID,
		Relationships: result.Triples,
		Graph:         assemble.FromStore(result.Nodes, result.Edges),
	})
}

// ExtractAsyncHandler enqueues the ingestion and returns a correlation id.
func ExtractAsyncHandler(c echo.Context) error {
	type extractBody struct {
		Text       string `json:"text" validate:"required"`
		DocumentID string `json:"document_id"`
	}

	type extractAsyncResponse struct {
		Message       string `json:"message"`
		DocumentID    string `json:"document_id,omitempty"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	data := new(extractBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, extractAsyncResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, extractAsyncResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	documentID := data.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	msg := queue.QueueExtractMsg{
		Text:          data.Text,
		DocumentID:    documentID,
		Owner:         user.UserID,
		CorrelationID: uuid.NewString(),
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, extractAsyncResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ExtractQueue, msgBytes); err != nil {
		logger.Error("[API] Failed to publish to extract_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, extractAsyncResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, extractAsyncResponse{
		Message:       "Extraction queued",
		DocumentID:    documentID,
		CorrelationID: msg.CorrelationID,
	})
}

// DeleteDocumentHandler enqueues removal of every element of one document.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentParams struct {
		DocumentID string `param:"id" validate:"required"`
	}

	type deleteDocumentResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	params := new(deleteDocumentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentResponse{
			Message: "Invalid request",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	msg := queue.QueueDeleteMsg{
		DocumentID:    params.DocumentID,
		Owner:         user.UserID,
		CorrelationID: uuid.NewString(),
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.DeleteQueue, msgBytes); err != nil {
		logger.Error("[API] Failed to publish to delete_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, deleteDocumentResponse{
		Message:       "Document deletion queued",
		CorrelationID: msg.CorrelationID,
	})
}
