package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/queue"
	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/logger"
)

// ReembedHandler queues replacement vectors for existing chunks.
func ReembedHandler(c echo.Context) error {
	type reembedBody struct {
		Updates []queue.ChunkEmbeddingPayload `json:"updates" validate:"required,min=1"`
	}

	type reembedResponse struct {
		Message string `json:"message"`
		Queued  int    `json:"queued"`
	}

	data := new(reembedBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(data); err != nil {
		return invalidBody(c)
	}

	body, err := json.Marshal(queue.ReembedMessage{Updates: data.Updates})
	if err != nil {
		return invalidBody(c)
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ReembedQueue, body); err != nil {
		logger.Error("Failed to publish re-embed", "err", err)
		return c.JSON(http.StatusInternalServerError, reembedResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, reembedResponse{
		Message: "Re-embed queued",
		Queued:  len(data.Updates),
	})
}
