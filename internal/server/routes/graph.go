package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trellis-kg/trellis/internal/server/middleware"
	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/logger"
	"github.com/trellis-kg/trellis/pkg/store"
)

// GetNodesHandler lists the caller's nodes, optionally filtered by source
// document and type.
func GetNodesHandler(c echo.Context) error {
	type getNodesQuery struct {
		DocumentID string `query:"document_id"`
		Type       string `query:"type"`
	}

	type getNodesResponse struct {
		Message string        `json:"message"`
		Nodes   []common.Node `json:"nodes"`
	}

	query := new(getNodesQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, getNodesResponse{
			Message: "Invalid request",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	nodes, err := app.Store.GetNodes(ctx, user.UserID, store.NodeFilter{
		DocumentID: query.DocumentID,
		Type:       query.Type,
	})
	if err != nil {
		logger.Error("[API] Failed to list nodes", "err", err)
		return c.JSON(http.StatusInternalServerError, getNodesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getNodesResponse{
		Message: "OK",
		Nodes:   nodes,
	})
}

// GetEdgesHandler lists the caller's edges, optionally filtered by source
// document and relation type.
func GetEdgesHandler(c echo.Context) error {
	type getEdgesQuery struct {
		DocumentID   string `query:"document_id"`
		RelationType string `query:"relation_type"`
	}

	type getEdgesResponse struct {
		Message string        `json:"message"`
		Edges   []common.Edge `json:"edges"`
	}

	query := new(getEdgesQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, getEdgesResponse{
			Message: "Invalid request",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	edges, err := app.Store.GetEdges(ctx, user.UserID, store.EdgeFilter{
		DocumentID:   query.DocumentID,
		RelationType: query.RelationType,
	})
	if err != nil {
		logger.Error("[API] Failed to list edges", "err", err)
		return c.JSON(http.StatusInternalServerError, getEdgesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getEdgesResponse{
		Message: "OK",
		Edges:   edges,
	})
}

// DeleteNodeHandler removes one node and cascades its incident edges.
func DeleteNodeHandler(c echo.Context) error {
	type deleteNodeParams struct {
		NodeID string `param:"id" validate:"required"`
	}

	params := new(deleteNodeParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if err := app.Store.DeleteNode(ctx, user.UserID, params.NodeID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Node not found"})
		}
		logger.Error("[API] Failed to delete node", "node_id", params.NodeID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Node deleted successfully"})
}

// DeleteEdgeHandler removes a single edge.
func DeleteEdgeHandler(c echo.Context) error {
	type deleteEdgeParams struct {
		EdgeID string `param:"id" validate:"required"`
	}

	params := new(deleteEdgeParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if err := app.Store.DeleteEdge(ctx, user.UserID, params.EdgeID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Edge not found"})
		}
		logger.Error("[API] Failed to delete edge", "edge_id", params.EdgeID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Edge deleted successfully"})
}
