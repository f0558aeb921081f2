package pgx

import (
	"context"
	"errors"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/mindvault/backend/internal/util"
	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
	"github.com/mindvault/backend/pkg/store"
)

const chunkInsertBatch = 500

// SaveChunks writes the chunks of one item. Ords are caller-assigned
// with 0 reserved for the title; a chunk landing on an occupied
// (item, ord) slot fails the whole batch with a ConflictError. Chunks
// may arrive without an embedding and stay keyword-only until a
// re-embed fills the vector in.
func (s *VaultDBStorage) SaveChunks(ctx context.Context, itemPublicID string, chunks []common.Chunk) ([]common.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if err := validateChunkBatch(chunks); err != nil {
		return nil, err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var itemID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM items WHERE public_id = $1 AND deleted_at IS NULL`, itemPublicID,
	).Scan(&itemID)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, common.NewNotFoundError("item", itemPublicID)
	}
	if err != nil {
		return nil, err
	}

	saved := make([]common.Chunk, 0, len(chunks))
	err = store.ChunkRange(len(chunks), chunkInsertBatch, func(start, end int) error {
		part := chunks[start:end]
		logger.Debug("[Store][SaveChunks] Saving chunk batch", "item", itemPublicID, "count", len(part))

		for i := range part {
			chunk := part[i]
			chunk.ItemID = itemID
			chunk.Text = util.SanitizePostgresText(chunk.Text)
			chunk.PublicID, err = newPublicID("chk")
			if err != nil {
				return err
			}

			var embedding any
			if chunk.Embedding != nil {
				embedding = pgvector.NewVector(chunk.Embedding)
			}
			err := tx.QueryRow(ctx, `
				INSERT INTO chunks (public_id, item_id, ord, text, lang, embedding)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (item_id, ord) DO NOTHING
				RETURNING id`,
				chunk.PublicID, itemID, chunk.Ord, chunk.Text, chunk.Lang, embedding,
			).Scan(&chunk.ID)
			if errors.Is(err, pgxv5.ErrNoRows) {
				return common.NewConflictError("chunk", "ord %d already taken for item %s", chunk.Ord, itemPublicID)
			}
			if err != nil {
				return err
			}
			saved = append(saved, chunk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

// validateChunkBatch rejects malformed chunks before any row is
// touched: negative ords, duplicate ords within the batch, empty text,
// and wrong-length embeddings.
func validateChunkBatch(chunks []common.Chunk) error {
	seen := make(map[int]struct{}, len(chunks))
	for _, chunk := range chunks {
		if chunk.Ord < 0 {
			return common.NewValidationError("ord", "must not be negative")
		}
		if _, ok := seen[chunk.Ord]; ok {
			return common.NewValidationError("ord", "duplicate ord %d in batch", chunk.Ord)
		}
		seen[chunk.Ord] = struct{}{}

		if chunk.Ord != 0 && strings.TrimSpace(chunk.Text) == "" {
			return common.NewValidationError("text", "must not be empty for ord %d", chunk.Ord)
		}
		if err := validateEmbeddingDim("embedding", chunk.Embedding, common.ChunkEmbeddingDim); err != nil {
			return err
		}
	}
	return nil
}

// UpdateChunkEmbeddings replaces stored vectors in place and reports
// how many chunks were updated. Unknown public ids are skipped so a
// partial re-embed after an item deletion still applies cleanly.
func (s *VaultDBStorage) UpdateChunkEmbeddings(ctx context.Context, updates []store.ChunkEmbeddingUpdate) (int, error) {
	for _, update := range updates {
		if update.Embedding == nil {
			return 0, common.NewValidationError("embedding", "must be set for chunk %s", update.ChunkPublicID)
		}
		if err := validateEmbeddingDim("embedding", update.Embedding, common.ChunkEmbeddingDim); err != nil {
			return 0, err
		}
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	updated := 0
	for _, update := range updates {
		tag, err := tx.Exec(ctx,
			`UPDATE chunks SET embedding = $2 WHERE public_id = $1`,
			update.ChunkPublicID, pgvector.NewVector(update.Embedding))
		if err != nil {
			return 0, err
		}
		updated += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	logger.Debug("[Store][UpdateChunkEmbeddings] Embeddings replaced",
		"requested", len(updates), "updated", updated)
	return updated, nil
}
