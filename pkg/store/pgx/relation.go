package pgx

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
	"github.com/mindvault/backend/pkg/store"
)

// InsertRelation writes one edge into the relation graph. When the
// predicate is symmetric or has a registered inverse, the mirror edge
// is written in the same transaction with system_generated set, so the
// graph is never observable in a half-mirrored state. Re-inserting an
// existing triple returns the stored edge unchanged.
//
// Callers cannot write system-generated edges themselves; that flag is
// reserved for mirrors.
func (s *VaultDBStorage) InsertRelation(ctx context.Context, relation common.Relation) (common.Relation, error) {
	if relation.SystemGenerated {
		return common.Relation{}, common.NewValidationError("system_generated", "reserved for mirror edges")
	}
	if relation.Confidence < 0 || relation.Confidence > 1 {
		return common.Relation{}, common.NewValidationError("confidence", "must be within [0, 1]")
	}
	if relation.StartAt != nil && relation.EndAt != nil && relation.EndAt.Before(*relation.StartAt) {
		return common.Relation{}, common.NewValidationError("end_at", "must not precede start_at")
	}
	if err := validateQualifiers(relation.Qualifiers); err != nil {
		return common.Relation{}, err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.Relation{}, err
	}
	defer tx.Rollback(ctx)

	subjectID, err := entityIDByPublicID(ctx, tx, relation.SubjectPublicID)
	if err != nil {
		return common.Relation{}, err
	}
	objectID, err := entityIDByPublicID(ctx, tx, relation.ObjectPublicID)
	if err != nil {
		return common.Relation{}, err
	}
	pred, err := scanPredicate(tx.QueryRow(ctx,
		selectPredicateSQL+`WHERE lower(p.code) = lower($1)`, relation.PredicateCode))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Relation{}, common.NewNotFoundError("predicate", relation.PredicateCode)
	}
	if err != nil {
		return common.Relation{}, err
	}

	relation.SubjectID = subjectID
	relation.ObjectID = objectID
	relation.PredicateCode = pred.Code

	existing, err := findRelationByTriple(ctx, tx, subjectID, pred.ID, objectID)
	if err == nil {
		logger.Debug("[Store][InsertRelation] Triple already present", "public_id", existing.PublicID)
		if err := tx.Commit(ctx); err != nil {
			return common.Relation{}, err
		}
		return existing, nil
	}
	if !errors.Is(err, pgxv5.ErrNoRows) {
		return common.Relation{}, err
	}

	relation.PublicID, err = newPublicID("rel")
	if err != nil {
		return common.Relation{}, err
	}
	if err := insertRelationRow(ctx, tx, &relation, pred.ID); err != nil {
		return common.Relation{}, err
	}

	mirror, err := planMirror(pred, relation)
	if err != nil {
		return common.Relation{}, err
	}
	if mirror != nil {
		mirrorPredID := pred.ID
		if !pred.Symmetric {
			mirrorPredID = *pred.InverseID
		}
		mirror.PublicID, err = newPublicID("rel")
		if err != nil {
			return common.Relation{}, err
		}
		if err := insertMirrorRow(ctx, tx, mirror, mirrorPredID); err != nil {
			return common.Relation{}, err
		}
		logger.Debug("[Store][InsertRelation] Mirror edge written",
			"predicate", mirror.PredicateCode, "subject", mirror.SubjectPublicID)
	}

	if err := tx.Commit(ctx); err != nil {
		return common.Relation{}, err
	}
	return relation, nil
}

var qualifierKeyRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validateQualifiers rejects malformed edge annotations before any row
// is written. Keys are snake_case identifiers, values non-empty text.
func validateQualifiers(qualifiers map[string]string) error {
	for key, value := range qualifiers {
		if !qualifierKeyRe.MatchString(key) {
			return common.NewValidationError("qualifiers",
				"key %q must be a lowercase snake_case identifier", key)
		}
		if strings.TrimSpace(value) == "" {
			return common.NewValidationError("qualifiers", "value for %q must not be empty", key)
		}
	}
	return nil
}

// planMirror computes the mirror edge for a freshly inserted relation,
// or nil when the predicate is asymmetric without an inverse. A
// symmetric self-relation has no distinct mirror. The predicate row
// must carry its inverse code whenever an inverse id is set.
func planMirror(pred common.Predicate, relation common.Relation) (*common.Relation, error) {
	if relation.SystemGenerated {
		return nil, nil
	}

	mirror := relation
	mirror.ID = 0
	mirror.PublicID = ""
	mirror.SubjectID = relation.ObjectID
	mirror.SubjectPublicID = relation.ObjectPublicID
	mirror.ObjectID = relation.SubjectID
	mirror.ObjectPublicID = relation.SubjectPublicID
	mirror.SystemGenerated = true

	switch {
	case pred.Symmetric:
		if relation.SubjectID == relation.ObjectID {
			return nil, nil
		}
		return &mirror, nil
	case pred.InverseID != nil:
		if pred.InverseCode == nil || *pred.InverseCode == "" {
			return nil, common.NewConsistencyError("predicate %s has an inverse id but no inverse code", pred.Code)
		}
		mirror.PredicateCode = *pred.InverseCode
		return &mirror, nil
	default:
		return nil, nil
	}
}

func insertRelationRow(ctx context.Context, tx pgxv5.Tx, relation *common.Relation, predicateID int64) error {
	if relation.Qualifiers == nil {
		relation.Qualifiers = map[string]string{}
	}
	return tx.QueryRow(ctx, `
		INSERT INTO relations
			(public_id, subject_id, predicate_id, object_id, role, qualifiers,
			 start_at, end_at, confidence, system_generated, source_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		relation.PublicID, relation.SubjectID, predicateID, relation.ObjectID,
		relation.Role, relation.Qualifiers, relation.StartAt, relation.EndAt,
		relation.Confidence, relation.SystemGenerated, relation.SourceItemID,
	).Scan(&relation.ID, &relation.CreatedAt)
}

// insertMirrorRow tolerates an already existing mirror triple. The
// mirror of a fresh edge can only pre-exist when the user wrote the
// reverse direction explicitly; that edge stays authoritative.
func insertMirrorRow(ctx context.Context, tx pgxv5.Tx, mirror *common.Relation, predicateID int64) error {
	if mirror.Qualifiers == nil {
		mirror.Qualifiers = map[string]string{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO relations
			(public_id, subject_id, predicate_id, object_id, role, qualifiers,
			 start_at, end_at, confidence, system_generated, source_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (subject_id, predicate_id, object_id) DO NOTHING`,
		mirror.PublicID, mirror.SubjectID, predicateID, mirror.ObjectID,
		mirror.Role, mirror.Qualifiers, mirror.StartAt, mirror.EndAt,
		mirror.Confidence, mirror.SystemGenerated, mirror.SourceItemID)
	return err
}

const selectRelationSQL = `
SELECT r.id, r.public_id,
       r.subject_id, se.public_id,
       p.code,
       r.object_id, oe.public_id,
       r.role, r.qualifiers, r.start_at, r.end_at, r.confidence, r.system_generated,
       r.source_item_id, r.created_at
FROM relations r
JOIN entities se ON se.id = r.subject_id
JOIN entities oe ON oe.id = r.object_id
JOIN predicates p ON p.id = r.predicate_id
`

func scanRelation(row pgxv5.Row) (common.Relation, error) {
	var r common.Relation
	err := row.Scan(
		&r.ID, &r.PublicID,
		&r.SubjectID, &r.SubjectPublicID,
		&r.PredicateCode,
		&r.ObjectID, &r.ObjectPublicID,
		&r.Role, &r.Qualifiers, &r.StartAt, &r.EndAt, &r.Confidence, &r.SystemGenerated,
		&r.SourceItemID, &r.CreatedAt,
	)
	return r, err
}

func findRelationByTriple(ctx context.Context, tx pgxv5.Tx, subjectID, predicateID, objectID int64) (common.Relation, error) {
	return scanRelation(tx.QueryRow(ctx, selectRelationSQL+`
		WHERE r.subject_id = $1 AND r.predicate_id = $2 AND r.object_id = $3`,
		subjectID, predicateID, objectID))
}

// RelationsBetween lists relations matching the filter, newest first.
// ActiveAt keeps only edges whose validity interval covers the given
// instant; open bounds always pass, and an edge ending exactly at the
// instant is already inactive.
func (s *VaultDBStorage) RelationsBetween(ctx context.Context, filter store.RelationFilter) ([]common.Relation, error) {
	var conditions []string
	var args []any

	addArg := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.SubjectPublicID != "" {
		addArg("se.public_id = $%d", filter.SubjectPublicID)
	}
	if filter.ObjectPublicID != "" {
		addArg("oe.public_id = $%d", filter.ObjectPublicID)
	}
	if filter.PredicateCode != "" {
		addArg("lower(p.code) = lower($%d)", filter.PredicateCode)
	}
	if filter.Role != "" {
		addArg("r.role = $%d", filter.Role)
	}

	query := selectRelationSQL
	if len(conditions) > 0 {
		query += "WHERE " + strings.Join(conditions, " AND ") + "\n"
	}
	query += "ORDER BY r.created_at DESC, r.id DESC"

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []common.Relation
	for rows.Next() {
		relation, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		if filter.ActiveAt != nil && !relation.ActiveAt(*filter.ActiveAt) {
			continue
		}
		relations = append(relations, relation)
	}
	return relations, rows.Err()
}
