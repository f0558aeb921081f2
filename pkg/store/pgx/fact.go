package pgx

import (
	"context"
	"strings"

	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
)

// WriteFact appends one observation to an entity's fact history.
// Facts are never updated or deleted; contradicting observations
// coexist and the current value is derived at read time.
func (s *VaultDBStorage) WriteFact(ctx context.Context, entityPublicID string, fact common.Fact) (common.Fact, error) {
	if strings.TrimSpace(fact.Key) == "" {
		return common.Fact{}, common.NewValidationError("key", "must not be empty")
	}
	if fact.Confidence < 0 || fact.Confidence > 1 {
		return common.Fact{}, common.NewValidationError("confidence", "must be within [0, 1]")
	}
	if err := validateFactSpan(fact.Span); err != nil {
		return common.Fact{}, err
	}

	entityID, err := entityIDByPublicID(ctx, s.conn, entityPublicID)
	if err != nil {
		return common.Fact{}, err
	}
	fact.EntityID = entityID

	fact.PublicID, err = newPublicID("fct")
	if err != nil {
		return common.Fact{}, err
	}

	var spanStart, spanEnd *int
	if fact.Span != nil {
		spanStart = &fact.Span.Start
		spanEnd = &fact.Span.End
	}
	err = s.conn.QueryRow(ctx, `
		INSERT INTO facts
			(public_id, entity_id, key, value, normalized_value, data_type,
			 span_start, span_end, confidence, source_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		fact.PublicID, entityID, fact.Key, fact.Value, fact.NormalizedValue,
		fact.DataType, spanStart, spanEnd, fact.Confidence, fact.SourceItemID,
	).Scan(&fact.ID, &fact.CreatedAt)
	if err != nil {
		return common.Fact{}, err
	}

	logger.Debug("[Store][WriteFact] Fact appended", "entity", entityPublicID, "key", fact.Key)
	return fact, nil
}

// validateFactSpan checks the half-open offset range backing a fact.
func validateFactSpan(span *common.Span) error {
	if span == nil {
		return nil
	}
	if span.Start < 0 {
		return common.NewValidationError("span", "start must not be negative")
	}
	if span.End < span.Start {
		return common.NewValidationError("span", "end must not precede start")
	}
	return nil
}

// CurrentFact returns the winning observation for an entity attribute:
// the most recent one, with confidence and then insertion order
// breaking ties.
func (s *VaultDBStorage) CurrentFact(ctx context.Context, entityPublicID, key string) (common.Fact, error) {
	facts, err := s.FactHistory(ctx, entityPublicID, key)
	if err != nil {
		return common.Fact{}, err
	}

	current, ok := pickCurrentFact(facts)
	if !ok {
		return common.Fact{}, common.NewNotFoundError("fact", entityPublicID+"/"+key)
	}
	return current, nil
}

// pickCurrentFact selects the current observation from a fact history:
// latest created_at wins, ties fall to the higher confidence, then to
// the higher id.
func pickCurrentFact(facts []common.Fact) (common.Fact, bool) {
	if len(facts) == 0 {
		return common.Fact{}, false
	}

	best := facts[0]
	for _, fact := range facts[1:] {
		switch {
		case fact.CreatedAt.After(best.CreatedAt):
			best = fact
		case fact.CreatedAt.Equal(best.CreatedAt):
			if fact.Confidence > best.Confidence ||
				(fact.Confidence == best.Confidence && fact.ID > best.ID) {
				best = fact
			}
		}
	}
	return best, true
}

// FactHistory lists all observations for an entity attribute, newest
// first.
func (s *VaultDBStorage) FactHistory(ctx context.Context, entityPublicID, key string) ([]common.Fact, error) {
	entityID, err := entityIDByPublicID(ctx, s.conn, entityPublicID)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT f.id, f.public_id, f.entity_id, f.key, f.value,
		       f.normalized_value, f.data_type, f.span_start, f.span_end,
		       f.confidence, f.source_item_id, i.public_id, f.created_at
		FROM facts f
		LEFT JOIN items i ON i.id = f.source_item_id
		WHERE f.entity_id = $1 AND f.key = $2
		ORDER BY f.created_at DESC, f.id DESC`,
		entityID, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []common.Fact
	for rows.Next() {
		var fact common.Fact
		var spanStart, spanEnd *int
		err := rows.Scan(
			&fact.ID, &fact.PublicID, &fact.EntityID, &fact.Key, &fact.Value,
			&fact.NormalizedValue, &fact.DataType, &spanStart, &spanEnd,
			&fact.Confidence, &fact.SourceItemID, &fact.SourceItemRef, &fact.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if spanStart != nil && spanEnd != nil {
			fact.Span = &common.Span{Start: *spanStart, End: *spanEnd}
		}
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}
