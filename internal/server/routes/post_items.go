package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mindvault/backend/internal/queue"
	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
)

// IngestItemHandler saves one item synchronously. A content hash that
// matches a live item is a no-op and returns the existing row.
func IngestItemHandler(c echo.Context) error {
	type ingestItemBody struct {
		Item    common.Item          `json:"item"`
		Email   *common.EmailMeta    `json:"email"`
		Doc     *common.DocMeta      `json:"doc"`
		Image   *common.ImageMeta    `json:"image"`
		Voice   *common.VoiceMeta    `json:"voice"`
		Chunks  []queue.ChunkPayload `json:"chunks"`
		RawText string               `json:"raw_text"`
	}

	type ingestItemResponse struct {
		Message string       `json:"message"`
		Item    *common.Item `json:"item,omitempty"`
		Chunks  int          `json:"chunks"`
	}

	data := new(ingestItemBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	item, chunks, err := queue.IngestItem(ctx, storage, queue.ItemPayload{
		Item:    data.Item,
		Email:   data.Email,
		Doc:     data.Doc,
		Image:   data.Image,
		Voice:   data.Voice,
		Chunks:  data.Chunks,
		RawText: data.RawText,
	})
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, ingestItemResponse{
		Message: "Item saved",
		Item:    &item,
		Chunks:  chunks,
	})
}

// IngestBatchHandler queues one extraction batch for the worker. The
// batch is applied asynchronously in dependency order.
func IngestBatchHandler(c echo.Context) error {
	type ingestBatchResponse struct {
		Message string `json:"message"`
		BatchID string `json:"batch_id,omitempty"`
	}

	data := new(queue.IngestMessage)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}
	if data.BatchID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ingestBatchResponse{
				Message: "Internal server error",
			})
		}
		data.BatchID = id
	}

	body, err := json.Marshal(data)
	if err != nil {
		return invalidBody(c)
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.IngestQueue, body); err != nil {
		logger.Error("Failed to publish ingest batch", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestBatchResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, ingestBatchResponse{
		Message: "Batch queued",
		BatchID: data.BatchID,
	})
}
