package server

import (
	"github.com/mindvault/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	api := e.Group("/api")

	// Vocabulary routes
	api.POST("/vocabulary/predicates", routes.CreatePredicateHandler)
	api.GET("/vocabulary/predicates", routes.LookupPredicateHandler)
	api.GET("/vocabulary/predicates/:code", routes.GetPredicateHandler)
	api.POST("/vocabulary/predicates/inverse", routes.LinkInversePredicatesHandler)
	api.POST("/vocabulary/roles", routes.CreateRoleHandler)

	// Entity routes
	api.POST("/entities", routes.UpsertEntityHandler)
	api.GET("/entities/:id", routes.GetEntityHandler)

	// Relation graph routes
	api.POST("/graph/relations", routes.CreateRelationHandler)
	api.GET("/graph/relations", routes.GetRelationsHandler)

	// Alias routes
	api.POST("/aliases", routes.BindAliasHandler)
	api.GET("/aliases/resolve", routes.ResolveAliasHandler)

	// Fact routes
	api.POST("/facts", routes.WriteFactHandler)
	api.GET("/facts/current", routes.GetCurrentFactHandler)
	api.GET("/facts/history", routes.GetFactHistoryHandler)

	// Ingestion routes
	api.POST("/ingest/items", routes.IngestItemHandler)
	api.POST("/ingest/batch", routes.IngestBatchHandler)
	api.DELETE("/items/:id", routes.DeleteItemHandler)
	api.POST("/reembed", routes.ReembedHandler)

	// Retrieval routes
	api.POST("/search", routes.SearchHandler)
}
