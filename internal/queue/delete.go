package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
	"github.com/mindvault/backend/pkg/store"
)

// ProcessDeleteMessage soft-deletes one item. An unknown item id is
// logged and dropped instead of cycling through the retry queue, since
// retrying cannot make a missing row appear.
func ProcessDeleteMessage(
	ctx context.Context,
	storage store.VaultStorage,
	msg string,
) error {
	data := new(DeleteMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if data.ItemID == "" {
		logger.Warn("[Queue] Delete message without item id")
		return nil
	}

	err := storage.MarkItemDeleted(ctx, data.ItemID)
	var notFound *common.NotFoundError
	if errors.As(err, &notFound) {
		logger.Warn("[Queue] Delete for unknown item", "item_id", data.ItemID)
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("[Queue] Item soft deleted", "item_id", data.ItemID)
	return nil
}
