package pgx

import (
	"context"
	"errors"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
	"github.com/mindvault/backend/pkg/store"
)

const selectEntitySQL = `
SELECT id, public_id, name, kind, aliases, emails, phones, domains, attributes, created_at, updated_at
FROM entities
`

func scanEntity(row pgxv5.Row) (common.Entity, error) {
	var e common.Entity
	err := row.Scan(
		&e.ID, &e.PublicID, &e.Name, &e.Kind,
		&e.Aliases, &e.Emails, &e.Phones, &e.Domains,
		&e.Attributes, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// UpsertEntity inserts an entity or merges it into an existing match.
// Matching runs in identity-strength order: shared email first, then
// shared domain, then case-insensitive name within the same kind. The
// merge unions all identifier sets and attribute maps; entities are
// never deleted.
func (s *VaultDBStorage) UpsertEntity(ctx context.Context, entity common.Entity) (common.Entity, error) {
	if strings.TrimSpace(entity.Name) == "" {
		return common.Entity{}, common.NewValidationError("name", "must not be empty")
	}
	if strings.TrimSpace(entity.Kind) == "" {
		return common.Entity{}, common.NewValidationError("kind", "must not be empty")
	}

	entity.Emails = store.DedupeStrings(entity.Emails)
	entity.Phones = store.DedupeStrings(entity.Phones)
	entity.Domains = store.DedupeStrings(entity.Domains)
	entity.Aliases = store.DedupeStrings(entity.Aliases)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.Entity{}, err
	}
	defer tx.Rollback(ctx)

	existing, found, err := matchEntity(ctx, tx, entity)
	if err != nil {
		return common.Entity{}, err
	}

	if found {
		merged := mergeEntity(existing, entity)
		err = tx.QueryRow(ctx, `
			UPDATE entities
			SET name = $2, aliases = $3, emails = $4, phones = $5, domains = $6,
			    attributes = $7, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`,
			existing.ID, merged.Name, merged.Aliases, merged.Emails,
			merged.Phones, merged.Domains, merged.Attributes,
		).Scan(&merged.UpdatedAt)
		if err != nil {
			return common.Entity{}, err
		}
		logger.Debug("[Store][UpsertEntity] Merged into existing entity", "public_id", merged.PublicID)
		if err := tx.Commit(ctx); err != nil {
			return common.Entity{}, err
		}
		return merged, nil
	}

	publicID, err := newPublicID("ent")
	if err != nil {
		return common.Entity{}, err
	}
	entity.PublicID = publicID
	if entity.Attributes == nil {
		entity.Attributes = map[string]string{}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO entities (public_id, name, kind, aliases, emails, phones, domains, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		entity.PublicID, entity.Name, entity.Kind, entity.Aliases,
		entity.Emails, entity.Phones, entity.Domains, entity.Attributes,
	).Scan(&entity.ID, &entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		return common.Entity{}, err
	}

	logger.Debug("[Store][UpsertEntity] Created entity", "public_id", entity.PublicID, "kind", entity.Kind)
	if err := tx.Commit(ctx); err != nil {
		return common.Entity{}, err
	}
	return entity, nil
}

// matchEntity finds the strongest existing match for the incoming
// entity: email, then domain, then (lower(name), kind).
func matchEntity(ctx context.Context, tx pgxv5.Tx, entity common.Entity) (common.Entity, bool, error) {
	if len(entity.Emails) > 0 {
		existing, err := scanEntity(tx.QueryRow(ctx,
			selectEntitySQL+`WHERE emails && $1 ORDER BY id LIMIT 1`, entity.Emails))
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, pgxv5.ErrNoRows) {
			return common.Entity{}, false, err
		}
	}

	if len(entity.Domains) > 0 {
		existing, err := scanEntity(tx.QueryRow(ctx,
			selectEntitySQL+`WHERE domains && $1 ORDER BY id LIMIT 1`, entity.Domains))
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, pgxv5.ErrNoRows) {
			return common.Entity{}, false, err
		}
	}

	existing, err := scanEntity(tx.QueryRow(ctx,
		selectEntitySQL+`WHERE lower(name) = lower($1) AND kind = $2 ORDER BY id LIMIT 1`,
		entity.Name, entity.Kind))
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, pgxv5.ErrNoRows) {
		return common.Entity{}, false, err
	}
	return common.Entity{}, false, nil
}

// mergeEntity folds the incoming sighting into the existing row. The
// existing name survives unless it was empty; a differing incoming
// name becomes an alias. Identifier sets union, incoming attribute
// values win.
func mergeEntity(existing, incoming common.Entity) common.Entity {
	merged := existing

	if merged.Name == "" {
		merged.Name = incoming.Name
	} else if incoming.Name != "" && !strings.EqualFold(incoming.Name, merged.Name) {
		merged.Aliases = append(merged.Aliases, incoming.Name)
	}

	merged.Aliases = store.DedupeStrings(append(merged.Aliases, incoming.Aliases...))
	merged.Emails = store.DedupeStrings(append(merged.Emails, incoming.Emails...))
	merged.Phones = store.DedupeStrings(append(merged.Phones, incoming.Phones...))
	merged.Domains = store.DedupeStrings(append(merged.Domains, incoming.Domains...))

	if merged.Attributes == nil {
		merged.Attributes = map[string]string{}
	}
	for key, value := range incoming.Attributes {
		merged.Attributes[key] = value
	}

	return merged
}

// GetEntityByPublicID fetches a single entity.
func (s *VaultDBStorage) GetEntityByPublicID(ctx context.Context, publicID string) (common.Entity, error) {
	entity, err := scanEntity(s.conn.QueryRow(ctx,
		selectEntitySQL+`WHERE public_id = $1`, publicID))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Entity{}, common.NewNotFoundError("entity", publicID)
	}
	return entity, err
}

func entityIDByPublicID(ctx context.Context, conn pgxIConn, publicID string) (int64, error) {
	var id int64
	err := conn.QueryRow(ctx, `SELECT id FROM entities WHERE public_id = $1`, publicID).Scan(&id)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return 0, common.NewNotFoundError("entity", publicID)
	}
	return id, err
}
