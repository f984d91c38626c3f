package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trellis-kg/trellis/internal/server/middleware"
	"github.com/trellis-kg/trellis/pkg/common"
	"github.com/trellis-kg/trellis/pkg/logger"
	"github.com/trellis-kg/trellis/pkg/query"
)

// NeighborsHandler returns the outgoing adjacency of one node.
func NeighborsHandler(c echo.Context) error {
	type neighborsParams struct {
		NodeID string `param:"id" validate:"required"`
	}

	type neighborsResponse struct {
		Message   string   `json:"message"`
		Neighbors []string `json:"neighbors"`
	}

	params := new(neighborsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, neighborsResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, neighborsResponse{
			Message: "Invalid request",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	neighbors, err := app.Query.Neighbors(ctx, user.UserID, params.NodeID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"message": "Node not found",
				"error":   "not_found",
			})
		}
		logger.Error("[API] Neighbors query failed", "node_id", params.NodeID, "err", err)
		return c.JSON(http.StatusInternalServerError, neighborsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, neighborsResponse{
		Message:   "OK",
		Neighbors: neighbors,
	})
}

// ShortestPathHandler returns the unweighted shortest path between two
// nodes. A missing endpoint and a disconnected pair are reported as
// distinct errors.
func ShortestPathHandler(c echo.Context) error {
	type pathQuery struct {
		Source string `query:"source" validate:"required"`
		Target string `query:"target" validate:"required"`
	}

	type pathResponse struct {
		Message string   `json:"message"`
		Path    []string `json:"path,omitempty"`
	}

	q := new(pathQuery)
	if err := c.Bind(q); err != nil {
		return c.JSON(http.StatusBadRequest, pathResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(q); err != nil {
		return c.JSON(http.StatusBadRequest, pathResponse{
			Message: "Invalid request",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	path, err := app.Query.ShortestPath(ctx, user.UserID, q.Source, q.Target)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"message": "Node not found",
				"error":   "not_found",
			})
		}
		if errors.Is(err, common.ErrNoPath) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"message": "No path between the given nodes",
				"error":   "no_path",
			})
		}
		logger.Error("[API] Path query failed", "source", q.Source, "target", q.Target, "err", err)
		return c.JSON(http.StatusInternalServerError, pathResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, pathResponse{
		Message: "OK",
		Path:    path,
	})
}

// CentralityHandler returns per-node centrality scores.
func CentralityHandler(c echo.Context) error {
	type centralityResponse struct {
		Message    string                  `json:"message"`
		Centrality *query.CentralityResult `json:"centrality,omitempty"`
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result, err := app.Query.Centrality(ctx, user.UserID)
	if err != nil {
		logger.Error("[API] Centrality query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, centralityResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, centralityResponse{
		Message:    "OK",
		Centrality: result,
	})
}

// CommunitiesHandler partitions the caller's graph into communities.
func CommunitiesHandler(c echo.Context) error {
	type communitiesQuery struct {
		Method string `query:"method"`
	}

	type communitiesResponse struct {
		Message     string     `json:"message"`
		Communities [][]string `json:"communities"`
	}

	q := new(communitiesQuery)
	if err := c.Bind(q); err != nil {
		return c.JSON(http.StatusBadRequest, communitiesResponse{
			Message: "Invalid request",
		})
	}
	switch q.Method {
	case "", query.MethodModularity, query.MethodBetweenness:
	default:
		return c.JSON(http.StatusBadRequest, communitiesResponse{
			Message: "Invalid community detection method",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	communities, err := app.Query.Communities(ctx, user.UserID, q.Method)
	if err != nil {
		logger.Error("[API] Communities query failed", "method", q.Method, "err", err)
		return c.JSON(http.StatusInternalServerError, communitiesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, communitiesResponse{
		Message:     "OK",
		Communities: communities,
	})
}

// LeveragePointsHandler extracts relationships from the given text and
// returns the most connected nodes of the transient graph. Nothing is
// persisted.
func LeveragePointsHandler(c echo.Context) error {
	type leverageBody struct {
		Text  string `json:"text" validate:"required"`
		Limit int    `json:"limit"`
	}

	type leverageResponse struct {
		Message        string                `json:"message"`
		LeveragePoints []query.LeveragePoint `json:"leverage_points"`
	}

	data := new(leverageBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, leverageResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, leverageResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	points, err := app.Query.LeveragePoints(ctx, data.Text, data.Limit, app.Annotator)
	if err != nil {
		if errors.Is(err, common.ErrUpstreamUnavailable) {
			logger.Error("[API] Annotator unavailable", "err", err)
			return c.JSON(http.StatusBadGateway, leverageResponse{
				Message: "Annotator service unavailable",
			})
		}
		logger.Error("[API] Leverage point query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, leverageResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, leverageResponse{
		Message:        "OK",
		LeveragePoints: points,
	})
}
