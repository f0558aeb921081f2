package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
)

type messageResponse struct {
	Message string `json:"message"`
}

// storeError maps the storage error taxonomy onto HTTP statuses.
// Validation problems become 400, conflicts 409, missing resources 404.
// Everything else is an internal error and gets logged rather than
// leaked to the client.
func storeError(c echo.Context, err error) error {
	var (
		validation  *common.ValidationError
		conflict    *common.ConflictError
		notFound    *common.NotFoundError
		consistency *common.ConsistencyError
	)
	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, messageResponse{Message: validation.Error()})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, messageResponse{Message: conflict.Error()})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, messageResponse{Message: notFound.Error()})
	case errors.As(err, &consistency):
		logger.Error("[Routes] Consistency error", "err", err)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	default:
		logger.Error("[Routes] Storage error", "err", err)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	}
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
}
