package queue

import (
	"context"
	"encoding/json"

	"github.com/mindvault/backend/pkg/logger"
	"github.com/mindvault/backend/pkg/store"
)

// ProcessReembedMessage replaces chunk embeddings in place. Chunks
// that vanished since the message was published (item deleted, ord
// rewritten) are skipped, so a partial re-embed still applies cleanly.
func ProcessReembedMessage(
	ctx context.Context,
	storage store.VaultStorage,
	msg string,
) error {
	data := new(ReembedMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if len(data.Updates) == 0 {
		return nil
	}

	updates := make([]store.ChunkEmbeddingUpdate, 0, len(data.Updates))
	for _, update := range data.Updates {
		updates = append(updates, store.ChunkEmbeddingUpdate{
			ChunkPublicID: update.ChunkID,
			Embedding:     update.Embedding,
		})
	}

	updated, err := storage.UpdateChunkEmbeddings(ctx, updates)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Re-embed applied", "requested", len(updates), "updated", updated)
	return nil
}
