package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// GetPredicateHandler fetches one predicate by its code.
func GetPredicateHandler(c echo.Context) error {
	type getPredicateParams struct {
		Code string `param:"code" validate:"required"`
	}

	type getPredicateResponse struct {
		Message   string            `json:"message"`
		Predicate *common.Predicate `json:"predicate,omitempty"`
	}

	params := new(getPredicateParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	predicate, err := storage.GetPredicateByCode(ctx, params.Code)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, getPredicateResponse{
		Message:   "OK",
		Predicate: &predicate,
	})
}

// LookupPredicateHandler resolves a free-text phrase to a predicate via
// the per-language term table.
func LookupPredicateHandler(c echo.Context) error {
	type lookupPredicateParams struct {
		Lang string `query:"lang" validate:"required"`
		Term string `query:"term" validate:"required"`
	}

	type lookupPredicateResponse struct {
		Message   string            `json:"message"`
		Predicate *common.Predicate `json:"predicate,omitempty"`
	}

	params := new(lookupPredicateParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	predicate, err := storage.LookupPredicateByTerm(ctx, params.Lang, params.Term)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, lookupPredicateResponse{
		Message:   "OK",
		Predicate: &predicate,
	})
}
