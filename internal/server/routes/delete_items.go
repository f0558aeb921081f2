package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/queue"
	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/logger"
)

// DeleteItemHandler queues a soft delete for one item. The item stays
// readable until the worker picks the message up.
func DeleteItemHandler(c echo.Context) error {
	type deleteItemParams struct {
		ID string `param:"id" validate:"required"`
	}

	type deleteItemResponse struct {
		Message string `json:"message"`
		ItemID  string `json:"item_id,omitempty"`
	}

	params := new(deleteItemParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	body, err := json.Marshal(queue.DeleteMessage{ItemID: params.ID})
	if err != nil {
		return invalidBody(c)
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.DeleteQueue, body); err != nil {
		logger.Error("Failed to publish delete", "item_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteItemResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, deleteItemResponse{
		Message: "Delete queued",
		ItemID:  params.ID,
	})
}
