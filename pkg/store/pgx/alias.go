package pgx

import (
	"context"
	"errors"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/mindvault/backend/internal/util"
	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
)

// BindAlias stores a phrase binding for the owner entity. The phrase
// is normalized before storage so resolution is insensitive to casing
// and spacing. Rebinding an existing phrase replaces the old binding.
func (s *VaultDBStorage) BindAlias(ctx context.Context, ownerPublicID string, binding common.AliasBinding) (common.AliasBinding, error) {
	binding.Phrase = util.NormalizePhrase(binding.Phrase)
	if binding.Phrase == "" {
		return common.AliasBinding{}, common.NewValidationError("phrase", "must not be empty")
	}

	hasTarget := binding.TargetPublicID != nil && *binding.TargetPublicID != ""
	hasPredicate := binding.DefaultPredicateCode != nil && *binding.DefaultPredicateCode != ""
	if hasTarget == hasPredicate {
		return common.AliasBinding{}, common.NewValidationError("binding",
			"exactly one of target_id and default_predicate must be set")
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.AliasBinding{}, err
	}
	defer tx.Rollback(ctx)

	binding.OwnerEntityID, err = entityIDByPublicID(ctx, tx, ownerPublicID)
	if err != nil {
		return common.AliasBinding{}, err
	}

	if hasTarget {
		targetID, err := entityIDByPublicID(ctx, tx, *binding.TargetPublicID)
		if err != nil {
			return common.AliasBinding{}, err
		}
		binding.TargetEntityID = &targetID
		binding.DefaultPredicateCode = nil
	} else {
		pred, err := scanPredicate(tx.QueryRow(ctx,
			selectPredicateSQL+`WHERE lower(p.code) = lower($1)`, *binding.DefaultPredicateCode))
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.AliasBinding{}, common.NewNotFoundError("predicate", *binding.DefaultPredicateCode)
		}
		if err != nil {
			return common.AliasBinding{}, err
		}
		binding.DefaultPredicateCode = &pred.Code
		binding.TargetEntityID = nil
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO aliases (owner_entity_id, phrase, target_entity_id, default_predicate_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_entity_id, phrase) DO UPDATE
		SET target_entity_id = EXCLUDED.target_entity_id,
		    default_predicate_code = EXCLUDED.default_predicate_code
		RETURNING id`,
		binding.OwnerEntityID, binding.Phrase, binding.TargetEntityID, binding.DefaultPredicateCode,
	).Scan(&binding.ID)
	if err != nil {
		return common.AliasBinding{}, err
	}

	logger.Debug("[Store][BindAlias] Bound phrase", "phrase", binding.Phrase, "owner", ownerPublicID)
	if err := tx.Commit(ctx); err != nil {
		return common.AliasBinding{}, err
	}
	return binding, nil
}

// ResolveAlias resolves a phrase for the owner entity in two tiers: a
// pinned target entity wins outright; otherwise the binding's default
// predicate is traversed from the owner and every currently active
// relation contributes its object, strongest first. The traversal set
// may be empty ("my agent" between agents); only a phrase with no
// binding at all is a NotFoundError, so callers can fall back to
// regular search.
func (s *VaultDBStorage) ResolveAlias(ctx context.Context, ownerPublicID, phrase string) (common.ResolvedTarget, error) {
	normalized := util.NormalizePhrase(phrase)
	if normalized == "" {
		return common.ResolvedTarget{}, common.NewValidationError("phrase", "must not be empty")
	}

	ownerID, err := entityIDByPublicID(ctx, s.conn, ownerPublicID)
	if err != nil {
		return common.ResolvedTarget{}, err
	}

	var targetEntityID *int64
	var defaultPredicateCode *string
	err = s.conn.QueryRow(ctx, `
		SELECT target_entity_id, default_predicate_code
		FROM aliases
		WHERE owner_entity_id = $1 AND phrase = $2`,
		ownerID, normalized,
	).Scan(&targetEntityID, &defaultPredicateCode)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.ResolvedTarget{}, common.NewNotFoundError("alias", normalized)
	}
	if err != nil {
		return common.ResolvedTarget{}, err
	}

	if targetEntityID != nil {
		entity, err := scanEntity(s.conn.QueryRow(ctx, selectEntitySQL+`WHERE id = $1`, *targetEntityID))
		if err != nil {
			return common.ResolvedTarget{}, err
		}
		return common.ResolvedTarget{Entities: []common.Entity{entity}, Via: "direct"}, nil
	}

	// Tier two: every object reachable from the owner through the
	// default predicate, best relation first.
	rows, err := s.conn.Query(ctx, `
		SELECT e.id, e.public_id, e.name, e.kind, e.aliases, e.emails, e.phones, e.domains,
		       e.attributes, e.created_at, e.updated_at,
		       r.start_at, r.end_at
		FROM relations r
		JOIN predicates p ON p.id = r.predicate_id
		JOIN entities e ON e.id = r.object_id
		WHERE r.subject_id = $1 AND lower(p.code) = lower($2)
		ORDER BY r.confidence DESC, r.created_at DESC, r.id DESC`,
		ownerID, *defaultPredicateCode)
	if err != nil {
		return common.ResolvedTarget{}, err
	}
	defer rows.Close()

	var candidates []aliasCandidate
	for rows.Next() {
		var c aliasCandidate
		err := rows.Scan(
			&c.entity.ID, &c.entity.PublicID, &c.entity.Name, &c.entity.Kind,
			&c.entity.Aliases, &c.entity.Emails, &c.entity.Phones, &c.entity.Domains,
			&c.entity.Attributes, &c.entity.CreatedAt, &c.entity.UpdatedAt,
			&c.startAt, &c.endAt,
		)
		if err != nil {
			return common.ResolvedTarget{}, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return common.ResolvedTarget{}, err
	}

	return common.ResolvedTarget{
		Entities: activeAliasTargets(candidates, time.Now()),
		Via:      "relation",
	}, nil
}

// aliasCandidate pairs one traversal hit with the validity interval of
// the relation that produced it. The candidate order is the relation
// order, strongest first.
type aliasCandidate struct {
	entity  common.Entity
	startAt *time.Time
	endAt   *time.Time
}

// activeAliasTargets keeps the candidates whose relation is active at
// the given instant and drops repeated entities, preserving order. An
// edge ending exactly at the instant no longer holds the role.
func activeAliasTargets(candidates []aliasCandidate, at time.Time) []common.Entity {
	var targets []common.Entity
	seen := make(map[int64]struct{}, len(candidates))
	for _, candidate := range candidates {
		if !common.IntervalActive(candidate.startAt, candidate.endAt, at) {
			continue
		}
		if _, ok := seen[candidate.entity.ID]; ok {
			continue
		}
		seen[candidate.entity.ID] = struct{}{}
		targets = append(targets, candidate.entity)
	}
	return targets
}
