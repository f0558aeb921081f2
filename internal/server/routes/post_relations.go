package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// CreateRelationHandler records a directed edge between two entities.
// Symmetric and inverse predicates get their mirror edge written in the
// same transaction; re-posting an existing triple returns the stored
// edge.
func CreateRelationHandler(c echo.Context) error {
	type createRelationBody struct {
		SubjectID  string            `json:"subject_id" validate:"required"`
		Predicate  string            `json:"predicate" validate:"required"`
		ObjectID   string            `json:"object_id" validate:"required"`
		Role       *string           `json:"role"`
		Qualifiers map[string]string `json:"qualifiers"`
		StartAt    *time.Time        `json:"start_at"`
		EndAt      *time.Time        `json:"end_at"`
		Confidence float64           `json:"confidence"`
	}

	type createRelationResponse struct {
		Message  string           `json:"message"`
		Relation *common.Relation `json:"relation,omitempty"`
	}

	data := new(createRelationBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	relation, err := storage.InsertRelation(ctx, common.Relation{
		SubjectPublicID: data.SubjectID,
		PredicateCode:   data.Predicate,
		ObjectPublicID:  data.ObjectID,
		Role:            data.Role,
		Qualifiers:      data.Qualifiers,
		StartAt:         data.StartAt,
		EndAt:           data.EndAt,
		Confidence:      data.Confidence,
	})
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, createRelationResponse{
		Message:  "Relation saved",
		Relation: &relation,
	})
}
