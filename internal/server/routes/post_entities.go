package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// UpsertEntityHandler records an entity sighting. The store either
// merges it into an existing entity matched by email, domain, or name
// and kind, or creates a new one.
func UpsertEntityHandler(c echo.Context) error {
	type upsertEntityBody struct {
		Name       string            `json:"name" validate:"required"`
		Kind       string            `json:"kind" validate:"required"`
		Aliases    []string          `json:"aliases"`
		Emails     []string          `json:"emails"`
		Phones     []string          `json:"phones"`
		Domains    []string          `json:"domains"`
		Attributes map[string]string `json:"attributes"`
	}

	type upsertEntityResponse struct {
		Message string         `json:"message"`
		Entity  *common.Entity `json:"entity,omitempty"`
	}

	data := new(upsertEntityBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	entity, err := storage.UpsertEntity(ctx, common.Entity{
		Name:       data.Name,
		Kind:       data.Kind,
		Aliases:    data.Aliases,
		Emails:     data.Emails,
		Phones:     data.Phones,
		Domains:    data.Domains,
		Attributes: data.Attributes,
	})
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, upsertEntityResponse{
		Message: "Entity saved",
		Entity:  &entity,
	})
}
