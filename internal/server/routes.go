package server

import (
	"github.com/trellis-kg/trellis/internal/server/middleware"
	"github.com/trellis-kg/trellis/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Extraction routes
	apiRoutes.POST("/extract", routes.ExtractHandler)
	apiRoutes.POST("/extract/async", routes.ExtractAsyncHandler)
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler)

	// Graph element routes
	apiRoutes.GET("/nodes", routes.GetNodesHandler)
	apiRoutes.GET("/edges", routes.GetEdgesHandler)
	apiRoutes.DELETE("/nodes/:id", routes.DeleteNodeHandler)
	apiRoutes.DELETE("/edges/:id", routes.DeleteEdgeHandler)

	// Query routes
	apiRoutes.GET("/nodes/:id/neighbors", routes.NeighborsHandler)
	apiRoutes.GET("/path", routes.ShortestPathHandler)
	apiRoutes.GET("/centrality", routes.CentralityHandler)
	apiRoutes.GET("/communities", routes.CommunitiesHandler)
	apiRoutes.POST("/leverage-points", routes.LeveragePointsHandler)
}
