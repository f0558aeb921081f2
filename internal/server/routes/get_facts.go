package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// GetCurrentFactHandler returns the winning observation for one entity
// attribute.
func GetCurrentFactHandler(c echo.Context) error {
	type currentFactParams struct {
		EntityID string `query:"entity_id" validate:"required"`
		Key      string `query:"key" validate:"required"`
	}

	type currentFactResponse struct {
		Message string       `json:"message"`
		Fact    *common.Fact `json:"fact,omitempty"`
	}

	params := new(currentFactParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	fact, err := storage.CurrentFact(ctx, params.EntityID, params.Key)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, currentFactResponse{
		Message: "OK",
		Fact:    &fact,
	})
}

// GetFactHistoryHandler returns the full observation history for one
// entity attribute, newest first.
func GetFactHistoryHandler(c echo.Context) error {
	type factHistoryParams struct {
		EntityID string `query:"entity_id" validate:"required"`
		Key      string `query:"key" validate:"required"`
	}

	type factHistoryResponse struct {
		Message string        `json:"message"`
		Facts   []common.Fact `json:"facts"`
	}

	params := new(factHistoryParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	facts, err := storage.FactHistory(ctx, params.EntityID, params.Key)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, factHistoryResponse{
		Message: "OK",
		Facts:   facts,
	})
}
