package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// ResolveAliasHandler resolves a phrase for an owner to its entity set.
// A pinned target yields exactly one entity; a predicate traversal may
// yield zero, one, or many. The response records which tier matched.
func ResolveAliasHandler(c echo.Context) error {
	type resolveAliasParams struct {
		OwnerID string `query:"owner_id" validate:"required"`
		Phrase  string `query:"phrase" validate:"required"`
	}

	type resolveAliasResponse struct {
		Message string                 `json:"message"`
		Target  *common.ResolvedTarget `json:"target,omitempty"`
	}

	params := new(resolveAliasParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	target, err := storage.ResolveAlias(ctx, params.OwnerID, params.Phrase)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, resolveAliasResponse{
		Message: "OK",
		Target:  &target,
	})
}
