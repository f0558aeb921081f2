package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// CreatePredicateHandler registers a predicate code. Re-posting an
// existing code returns the stored row unchanged; a code differing only
// in casing is rejected.
func CreatePredicateHandler(c echo.Context) error {
	type createPredicateBody struct {
		Code        string                  `json:"code" validate:"required"`
		Symmetric   bool                    `json:"symmetric"`
		Cardinality common.Cardinality      `json:"cardinality"`
		InverseCode string                  `json:"inverse_code"`
		Description string                  `json:"description"`
		Labels      []common.PredicateLabel `json:"labels"`
		Terms       []common.PredicateTerm  `json:"terms"`
	}

	type createPredicateResponse struct {
		Message   string            `json:"message"`
		Predicate *common.Predicate `json:"predicate,omitempty"`
	}

	data := new(createPredicateBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	predicate, err := storage.GetOrCreatePredicate(ctx, common.Predicate{
		Code:        data.Code,
		Symmetric:   data.Symmetric,
		Cardinality: data.Cardinality,
		Description: data.Description,
	}, data.Labels, data.Terms)
	if err != nil {
		return storeError(c, err)
	}

	if data.InverseCode != "" {
		if err := storage.LinkInversePredicates(ctx, data.Code, data.InverseCode); err != nil {
			return storeError(c, err)
		}
		predicate, err = storage.GetPredicateByCode(ctx, data.Code)
		if err != nil {
			return storeError(c, err)
		}
	}

	return c.JSON(http.StatusOK, createPredicateResponse{
		Message:   "Predicate registered",
		Predicate: &predicate,
	})
}

// LinkInversePredicatesHandler links two predicates as inverses of each
// other, creating either side on first use.
func LinkInversePredicatesHandler(c echo.Context) error {
	type linkInverseBody struct {
		Code        string `json:"code" validate:"required"`
		InverseCode string `json:"inverse_code" validate:"required"`
	}

	data := new(linkInverseBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	if err := storage.LinkInversePredicates(ctx, data.Code, data.InverseCode); err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Predicates linked"})
}

// CreateRoleHandler registers a relation role qualifier.
func CreateRoleHandler(c echo.Context) error {
	type createRoleBody struct {
		Code        string `json:"code" validate:"required"`
		Description string `json:"description"`
	}

	type createRoleResponse struct {
		Message string       `json:"message"`
		Role    *common.Role `json:"role,omitempty"`
	}

	data := new(createRoleBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	role, err := storage.GetOrCreateRole(ctx, common.Role{
		Code:        data.Code,
		Description: data.Description,
	})
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, createRoleResponse{
		Message: "Role registered",
		Role:    &role,
	})
}
