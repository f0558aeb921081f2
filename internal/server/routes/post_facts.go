package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// WriteFactHandler appends one observation to an entity's fact history.
// Existing rows are never touched; the current value of the key is
// derived at read time.
func WriteFactHandler(c echo.Context) error {
	type writeFactBody struct {
		EntityID        string       `json:"entity_id" validate:"required"`
		Key             string       `json:"key" validate:"required"`
		Value           string       `json:"value"`
		NormalizedValue string       `json:"normalized_value"`
		DataType        string       `json:"data_type"`
		Span            *common.Span `json:"span"`
		Confidence      float64      `json:"confidence"`
	}

	type writeFactResponse struct {
		Message string       `json:"message"`
		Fact    *common.Fact `json:"fact,omitempty"`
	}

	data := new(writeFactBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	fact, err := storage.WriteFact(ctx, data.EntityID, common.Fact{
		Key:             data.Key,
		Value:           data.Value,
		NormalizedValue: data.NormalizedValue,
		DataType:        data.DataType,
		Span:            data.Span,
		Confidence:      data.Confidence,
	})
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, writeFactResponse{
		Message: "Fact recorded",
		Fact:    &fact,
	})
}
