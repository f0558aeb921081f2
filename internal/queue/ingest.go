package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mindvault/backend/pkg/chunker"
	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
	"github.com/mindvault/backend/pkg/store"
)

// ProcessIngestMessage applies one extraction batch. Sections run in
// dependency order: vocabulary, entities, relations, items with their
// chunks, facts. Every section is idempotent, so a redelivered batch
// converges to the same graph state instead of duplicating edges.
func ProcessIngestMessage(
	ctx context.Context,
	storage store.VaultStorage,
	msg string,
) error {
	data := new(IngestMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	logger.Info("[Queue] Ingest batch received",
		"batch_id", data.BatchID,
		"predicates", len(data.Predicates),
		"entities", len(data.Entities),
		"relations", len(data.Relations),
		"items", len(data.Items),
		"facts", len(data.Facts),
	)

	for _, payload := range data.Predicates {
		pred := common.Predicate{
			Code:        payload.Code,
			Symmetric:   payload.Symmetric,
			Cardinality: payload.Cardinality,
			Description: payload.Description,
		}
		if _, err := storage.GetOrCreatePredicate(ctx, pred, payload.Labels, payload.Terms); err != nil {
			return fmt.Errorf("predicate %s: %w", payload.Code, err)
		}
		if payload.InverseCode != "" {
			if err := storage.LinkInversePredicates(ctx, payload.Code, payload.InverseCode); err != nil {
				return fmt.Errorf("link %s/%s: %w", payload.Code, payload.InverseCode, err)
			}
		}
	}

	// Batch-local refs resolve to public ids as entities are upserted.
	// A ref that never appears in the entity section is taken to be an
	// existing public id.
	entityIDByRef := make(map[string]string, len(data.Entities))
	for _, payload := range data.Entities {
		entity, err := storage.UpsertEntity(ctx, payload.Entity)
		if err != nil {
			return fmt.Errorf("entity %s: %w", payload.Entity.Name, err)
		}
		if payload.Ref != "" {
			entityIDByRef[payload.Ref] = entity.PublicID
		}
	}

	resolveRef := func(ref string) string {
		if publicID, ok := entityIDByRef[ref]; ok {
			return publicID
		}
		return ref
	}

	for _, payload := range data.Relations {
		relation := common.Relation{
			SubjectPublicID: resolveRef(payload.SubjectRef),
			PredicateCode:   payload.PredicateCode,
			ObjectPublicID:  resolveRef(payload.ObjectRef),
			Role:            payload.Role,
			Qualifiers:      payload.Qualifiers,
			StartAt:         payload.StartAt,
			EndAt:           payload.EndAt,
			Confidence:      payload.Confidence,
		}
		if _, err := storage.InsertRelation(ctx, relation); err != nil {
			return fmt.Errorf("relation %s-%s: %w", payload.SubjectRef, payload.ObjectRef, err)
		}
	}

	for _, payload := range data.Items {
		if _, _, err := IngestItem(ctx, storage, payload); err != nil {
			return err
		}
	}

	for _, payload := range data.Facts {
		fact := common.Fact{
			Key:             payload.Key,
			Value:           payload.Value,
			NormalizedValue: payload.NormalizedValue,
			DataType:        payload.DataType,
			Span:            payload.Span,
			Confidence:      payload.Confidence,
		}
		if _, err := storage.WriteFact(ctx, resolveRef(payload.EntityRef), fact); err != nil {
			return fmt.Errorf("fact %s/%s: %w", payload.EntityRef, payload.Key, err)
		}
	}

	logger.Info("[Queue] Ingest batch applied", "batch_id", data.BatchID)
	return nil
}

// IngestItem saves one item with its chunks and returns the stored
// item plus the number of chunks written. When the payload carries no
// pre-segmented chunks but raw text, the text is segmented here.
func IngestItem(ctx context.Context, storage store.VaultStorage, payload ItemPayload) (common.Item, int, error) {
	ext := store.ItemExtension{
		Email: payload.Email,
		Doc:   payload.Doc,
		Image: payload.Image,
		Voice: payload.Voice,
	}

	item, created, err := storage.SaveItem(ctx, payload.Item, ext)
	if err != nil {
		return common.Item{}, 0, fmt.Errorf("item %s: %w", payload.Item.Title, err)
	}
	if !created {
		// Content hash matched a live item; its chunks already exist.
		logger.Debug("[Queue] Item already ingested", "public_id", item.PublicID)
		return item, 0, nil
	}

	chunks := make([]common.Chunk, 0, len(payload.Chunks))
	for _, c := range payload.Chunks {
		chunks = append(chunks, common.Chunk{
			Ord:       c.Ord,
			Text:      c.Text,
			Lang:      c.Lang,
			Embedding: c.Embedding,
		})
	}

	if len(chunks) == 0 && payload.RawText != "" {
		segments, err := chunker.Split(item.Title, payload.RawText, chunker.Params{
			MaxTokens: 7000,
		})
		if err != nil {
			return common.Item{}, 0, fmt.Errorf("chunk item %s: %w", item.PublicID, err)
		}
		for _, segment := range segments {
			chunks = append(chunks, common.Chunk{Ord: segment.Ord, Text: segment.Text})
		}
		logger.Debug("[Queue] Item text segmented", "public_id", item.PublicID, "chunks", len(chunks))
	}

	if len(chunks) == 0 {
		return item, 0, nil
	}
	saved, err := storage.SaveChunks(ctx, item.PublicID, chunks)
	if err != nil {
		return common.Item{}, 0, fmt.Errorf("chunks for item %s: %w", item.PublicID, err)
	}
	return item, len(saved), nil
}
