package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// BindAliasHandler binds a phrase for an owner to either a fixed target
// entity or a predicate traversed at resolution time. Re-binding an
// existing phrase replaces the binding.
func BindAliasHandler(c echo.Context) error {
	type bindAliasBody struct {
		OwnerID          string  `json:"owner_id" validate:"required"`
		Phrase           string  `json:"phrase" validate:"required"`
		TargetID         *string `json:"target_id"`
		DefaultPredicate *string `json:"default_predicate"`
	}

	type bindAliasResponse struct {
		Message string               `json:"message"`
		Alias   *common.AliasBinding `json:"alias,omitempty"`
	}

	data := new(bindAliasBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	binding, err := storage.BindAlias(ctx, data.OwnerID, common.AliasBinding{
		Phrase:               data.Phrase,
		TargetPublicID:       data.TargetID,
		DefaultPredicateCode: data.DefaultPredicate,
	})
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, bindAliasResponse{
		Message: "Alias bound",
		Alias:   &binding,
	})
}
