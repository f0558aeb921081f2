package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/store"
)

// GetRelationsHandler lists edges matching the given filters. ActiveAt
// keeps only relations whose validity interval covers the instant.
func GetRelationsHandler(c echo.Context) error {
	type getRelationsParams struct {
		SubjectID string     `query:"subject_id"`
		ObjectID  string     `query:"object_id"`
		Predicate string     `query:"predicate"`
		Role      string     `query:"role"`
		ActiveAt  *time.Time `query:"active_at"`
	}

	type getRelationsResponse struct {
		Message   string            `json:"message"`
		Relations []common.Relation `json:"relations"`
	}

	params := new(getRelationsParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	relations, err := storage.RelationsBetween(ctx, store.RelationFilter{
		SubjectPublicID: params.SubjectID,
		ObjectPublicID:  params.ObjectID,
		PredicateCode:   params.Predicate,
		Role:            params.Role,
		ActiveAt:        params.ActiveAt,
	})
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, getRelationsResponse{
		Message:   "OK",
		Relations: relations,
	})
}
