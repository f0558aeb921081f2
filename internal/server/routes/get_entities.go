package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// GetEntityHandler fetches one entity by its public id.
func GetEntityHandler(c echo.Context) error {
	type getEntityParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getEntityResponse struct {
		Message string         `json:"message"`
		Entity  *common.Entity `json:"entity,omitempty"`
	}

	params := new(getEntityParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	entity, err := storage.GetEntityByPublicID(ctx, params.ID)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, getEntityResponse{
		Message: "OK",
		Entity:  &entity,
	})
}
