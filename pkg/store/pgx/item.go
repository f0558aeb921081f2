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

// SaveItem persists an ingested item with its kind-specific extension
// record and tags. When a live item with the same content hash already
// exists the call is a no-op and returns that item with created=false;
// re-ingesting previously deleted content creates a fresh row.
func (s *VaultDBStorage) SaveItem(ctx context.Context, item common.Item, ext store.ItemExtension) (common.Item, bool, error) {
	if !item.SourceKind.Valid() {
		return common.Item{}, false, common.NewValidationError("source_kind", "unknown kind %q", item.SourceKind)
	}
	if strings.TrimSpace(item.ContentHash) == "" {
		return common.Item{}, false, common.NewValidationError("content_hash", "must not be empty")
	}
	if item.EventAt.IsZero() {
		return common.Item{}, false, common.NewValidationError("event_at", "must be set")
	}
	if err := validateEmbeddingDim("embedding", item.Embedding, common.ItemEmbeddingDim); err != nil {
		return common.Item{}, false, err
	}
	if err := validateExtension(item.SourceKind, ext); err != nil {
		return common.Item{}, false, err
	}

	item.Title = util.SanitizePostgresText(item.Title)
	item.Snippet = util.SanitizePostgresText(item.Snippet)
	item.Tags = util.NormalizeTags(item.Tags)
	item.People = store.DedupeStrings(item.People)
	item.Orgs = store.DedupeStrings(item.Orgs)
	item.Domains = store.DedupeStrings(item.Domains)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.Item{}, false, err
	}
	defer tx.Rollback(ctx)

	existing, err := scanItem(tx.QueryRow(ctx,
		selectItemSQL+`WHERE content_hash = $1 AND deleted_at IS NULL`, item.ContentHash))
	if err == nil {
		logger.Debug("[Store][SaveItem] Duplicate content hash, keeping existing item",
			"public_id", existing.PublicID)
		if err := tx.Commit(ctx); err != nil {
			return common.Item{}, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, pgxv5.ErrNoRows) {
		return common.Item{}, false, err
	}

	item.PublicID, err = newPublicID("itm")
	if err != nil {
		return common.Item{}, false, err
	}

	var embedding any
	if item.Embedding != nil {
		embedding = pgvector.NewVector(item.Embedding)
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO items
			(public_id, source_kind, origin_source, origin_id, title, snippet,
			 content_hash, event_at, lang, thread_id, people, orgs, domains, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`,
		item.PublicID, item.SourceKind, item.OriginSource, item.OriginID,
		item.Title, item.Snippet, item.ContentHash, item.EventAt, item.Lang,
		item.ThreadID, item.People, item.Orgs, item.Domains, embedding,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return common.Item{}, false, err
	}

	if err := insertExtension(ctx, tx, item.ID, ext); err != nil {
		return common.Item{}, false, err
	}
	if err := attachTags(ctx, tx, item.ID, item.Tags); err != nil {
		return common.Item{}, false, err
	}

	logger.Debug("[Store][SaveItem] Item created",
		"public_id", item.PublicID, "kind", item.SourceKind, "tags", len(item.Tags))
	if err := tx.Commit(ctx); err != nil {
		return common.Item{}, false, err
	}
	return item, true, nil
}

// validateExtension checks that the extension record matches the item's
// source kind and that at most one record is present.
func validateExtension(kind common.SourceKind, ext store.ItemExtension) error {
	set := 0
	if ext.Email != nil {
		set++
	}
	if ext.Doc != nil {
		set++
	}
	if ext.Image != nil {
		set++
	}
	if ext.Voice != nil {
		set++
	}
	if set > 1 {
		return common.NewValidationError("extension", "at most one extension record may be set")
	}
	if set == 0 {
		return nil
	}

	switch {
	case ext.Email != nil && kind != common.SourceKindEmail,
		ext.Doc != nil && kind != common.SourceKindDoc,
		ext.Image != nil && kind != common.SourceKindImage,
		ext.Voice != nil && kind != common.SourceKindVoice:
		return common.NewValidationError("extension", "extension record does not match source kind %q", kind)
	}

	if ext.Image != nil {
		if err := validateEmbeddingDim("image.embedding", ext.Image.Embedding, common.ImageEmbeddingDim); err != nil {
			return err
		}
	}
	return nil
}

func insertExtension(ctx context.Context, tx pgxv5.Tx, itemID int64, ext store.ItemExtension) error {
	switch {
	case ext.Email != nil:
		_, err := tx.Exec(ctx, `
			INSERT INTO item_emails (item_id, from_addr, to_addrs, cc_addrs, message_id, in_reply_to)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			itemID, ext.Email.FromAddr, ext.Email.ToAddrs, ext.Email.CcAddrs,
			ext.Email.MessageID, ext.Email.InReplyTo)
		return err
	case ext.Doc != nil:
		_, err := tx.Exec(ctx, `
			INSERT INTO item_docs (item_id, mime_type, page_count, source_path)
			VALUES ($1, $2, $3, $4)`,
			itemID, ext.Doc.MimeType, ext.Doc.PageCount, ext.Doc.SourcePath)
		return err
	case ext.Image != nil:
		var embedding any
		if ext.Image.Embedding != nil {
			embedding = pgvector.NewVector(ext.Image.Embedding)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO item_images (item_id, width, height, caption, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			itemID, ext.Image.Width, ext.Image.Height, ext.Image.Caption, embedding)
		return err
	case ext.Voice != nil:
		_, err := tx.Exec(ctx, `
			INSERT INTO item_voices (item_id, duration_sec, lang)
			VALUES ($1, $2, $3)`,
			itemID, ext.Voice.DurationSec, ext.Voice.Lang)
		return err
	}
	return nil
}

// attachTags ensures every tag exists in the dictionary and links it
// to the item. Both writes tolerate concurrent duplicates.
func attachTags(ctx context.Context, tx pgxv5.Tx, itemID int64, tags []string) error {
	for _, tag := range tags {
		var tagID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, tag,
		).Scan(&tagID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO item_tags (item_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, itemID, tagID)
		if err != nil {
			return err
		}
	}
	return nil
}

const selectItemSQL = `
SELECT i.id, i.public_id, i.source_kind, i.origin_source, i.origin_id,
       i.title, i.snippet, i.content_hash, i.event_at, i.lang, i.thread_id,
       i.people, i.orgs, i.domains, i.deleted_at, i.created_at,
       ARRAY(
           SELECT t.name FROM item_tags it
           JOIN tags t ON t.id = it.tag_id
           WHERE it.item_id = i.id
           ORDER BY t.name
       )
FROM items i
`

func scanItem(row pgxv5.Row) (common.Item, error) {
	var item common.Item
	err := row.Scan(
		&item.ID, &item.PublicID, &item.SourceKind, &item.OriginSource, &item.OriginID,
		&item.Title, &item.Snippet, &item.ContentHash, &item.EventAt, &item.Lang, &item.ThreadID,
		&item.People, &item.Orgs, &item.Domains, &item.DeletedAt, &item.CreatedAt,
		&item.Tags,
	)
	return item, err
}

// MarkItemDeleted soft-deletes an item. The row stays for provenance
// but disappears from every read path, and its content hash stops
// blocking re-ingestion. Deleting an already deleted item is a no-op.
func (s *VaultDBStorage) MarkItemDeleted(ctx context.Context, publicID string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE items SET deleted_at = now()
		WHERE public_id = $1 AND deleted_at IS NULL`, publicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM items WHERE public_id = $1)`, publicID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return common.NewNotFoundError("item", publicID)
		}
		return nil
	}
	logger.Debug("[Store][MarkItemDeleted] Item soft deleted", "public_id", publicID)
	return nil
}
