package pgx

import (
	"context"
	"errors"
	"regexp"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/mindvault/backend/internal/util"
	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
)

var predicateCodeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// validatePredicateCode checks the shape of a vocabulary code. Codes
// are compared case-insensitively everywhere, so the stored casing is
// the canonical one.
func validatePredicateCode(code string) error {
	if code == "" {
		return common.NewValidationError("code", "must not be empty")
	}
	if !predicateCodeRe.MatchString(code) {
		return common.NewValidationError("code", "%q must start with a letter and contain only letters, digits, and underscores", code)
	}
	return nil
}

const selectPredicateSQL = `
SELECT p.id, p.code, p.is_symmetric, p.cardinality, p.inverse_id, p.description, inv.code
FROM predicates p
LEFT JOIN predicates inv ON inv.id = p.inverse_id
`

func scanPredicate(row pgxv5.Row) (common.Predicate, error) {
	var pred common.Predicate
	err := row.Scan(&pred.ID, &pred.Code, &pred.Symmetric, &pred.Cardinality, &pred.InverseID, &pred.Description, &pred.InverseCode)
	return pred, err
}

// GetOrCreatePredicate returns the predicate registered under the given
// code, creating it on first use. A code that collides with an existing
// one only by casing is rejected. Labels and lookup terms passed along
// are merged into the vocabulary: labels union, terms first writer
// wins.
func (s *VaultDBStorage) GetOrCreatePredicate(
	ctx context.Context,
	pred common.Predicate,
	labels []common.PredicateLabel,
	terms []common.PredicateTerm,
) (common.Predicate, error) {
	if err := validatePredicateCode(pred.Code); err != nil {
		return common.Predicate{}, err
	}
	if pred.Cardinality == "" {
		pred.Cardinality = common.CardinalityManyToMany
	}
	if !pred.Cardinality.Valid() {
		return common.Predicate{}, common.NewValidationError("cardinality", "unknown cardinality %q", pred.Cardinality)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.Predicate{}, err
	}
	defer tx.Rollback(ctx)

	pred, err = ensurePredicate(ctx, tx, pred)
	if err != nil {
		return common.Predicate{}, err
	}

	for _, label := range labels {
		if strings.TrimSpace(label.Label) == "" {
			continue
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO predicate_labels (predicate_id, lang, label)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			pred.ID, label.Lang, label.Label)
		if err != nil {
			return common.Predicate{}, err
		}
	}

	for _, term := range terms {
		normalized := util.NormalizePhrase(term.Term)
		if normalized == "" {
			continue
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO predicate_terms (lang, term, predicate_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (lang, term) DO NOTHING`,
			term.Lang, normalized, pred.ID)
		if err != nil {
			return common.Predicate{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return common.Predicate{}, err
	}
	return pred, nil
}

// ensurePredicate fetches the predicate stored under the code or
// inserts it inside the caller's transaction. A code that collides with
// an existing one only by casing is rejected; on a fetch the stored row
// wins over the requested direction and cardinality.
func ensurePredicate(ctx context.Context, tx pgxv5.Tx, pred common.Predicate) (common.Predicate, error) {
	existing, err := scanPredicate(tx.QueryRow(ctx,
		selectPredicateSQL+`WHERE lower(p.code) = lower($1)`, pred.Code))
	switch {
	case err == nil:
		if existing.Code != pred.Code {
			return common.Predicate{}, common.NewValidationError("code",
				"%q collides with existing predicate %q", pred.Code, existing.Code)
		}
		return existing, nil
	case errors.Is(err, pgxv5.ErrNoRows):
		err = tx.QueryRow(ctx, `
			INSERT INTO predicates (code, is_symmetric, cardinality, description)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			pred.Code, pred.Symmetric, pred.Cardinality, pred.Description,
		).Scan(&pred.ID)
		if err != nil {
			return common.Predicate{}, err
		}
		logger.Debug("[Store][GetOrCreatePredicate] Created predicate", "code", pred.Code)
		return pred, nil
	default:
		return common.Predicate{}, err
	}
}

// GetPredicateByCode fetches a predicate by its code, matched
// case-insensitively.
func (s *VaultDBStorage) GetPredicateByCode(ctx context.Context, code string) (common.Predicate, error) {
	pred, err := scanPredicate(s.conn.QueryRow(ctx,
		selectPredicateSQL+`WHERE lower(p.code) = lower($1)`, code))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Predicate{}, common.NewNotFoundError("predicate", code)
	}
	return pred, err
}

// LookupPredicateByTerm resolves a natural-language phrase to its
// predicate in the given language.
func (s *VaultDBStorage) LookupPredicateByTerm(ctx context.Context, lang, term string) (common.Predicate, error) {
	normalized := util.NormalizePhrase(term)
	pred, err := scanPredicate(s.conn.QueryRow(ctx, selectPredicateSQL+`
		JOIN predicate_terms pt ON pt.predicate_id = p.id
		WHERE pt.lang = $1 AND pt.term = $2`, lang, normalized))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Predicate{}, common.NewNotFoundError("predicate term", normalized)
	}
	return pred, err
}

// LinkInversePredicates marks two asymmetric predicates as inverses of
// each other in a single transaction, creating either side on first use
// so a pair like ("employee_of", "employs") can be declared before the
// codes ever appeared. Symmetric predicates mirror onto themselves and
// cannot take an inverse; re-linking an already linked pair is a no-op,
// while linking against a different existing inverse is a conflict.
func (s *VaultDBStorage) LinkInversePredicates(ctx context.Context, codeA, codeB string) error {
	if err := validatePredicateCode(codeA); err != nil {
		return err
	}
	if err := validatePredicateCode(codeB); err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	a, err := ensurePredicate(ctx, tx, common.Predicate{Code: codeA, Cardinality: common.CardinalityManyToMany})
	if err != nil {
		return err
	}
	b, err := ensurePredicate(ctx, tx, common.Predicate{Code: codeB, Cardinality: common.CardinalityManyToMany})
	if err != nil {
		return err
	}

	if err := checkInverseLink(a, b); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE predicates SET inverse_id = $2 WHERE id = $1`, a.ID, b.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE predicates SET inverse_id = $2 WHERE id = $1`, b.ID, a.ID); err != nil {
		return err
	}

	logger.Debug("[Store][LinkInversePredicates] Linked", "a", a.Code, "b", b.Code)
	return tx.Commit(ctx)
}

// checkInverseLink verifies two loaded predicates may be linked as
// inverses: neither symmetric, neither already linked elsewhere, and
// not the same predicate.
func checkInverseLink(a, b common.Predicate) error {
	if a.ID == b.ID {
		return common.NewValidationError("code", "a predicate cannot be its own inverse")
	}
	if a.Symmetric || b.Symmetric {
		return common.NewValidationError("code", "symmetric predicates cannot take an inverse")
	}
	if a.InverseID != nil && *a.InverseID != b.ID {
		return common.NewConflictError("predicate", "%q is already linked to a different inverse", a.Code)
	}
	if b.InverseID != nil && *b.InverseID != a.ID {
		return common.NewConflictError("predicate", "%q is already linked to a different inverse", b.Code)
	}
	return nil
}

// GetOrCreateRole returns the role registered under the given code,
// creating it on first use. Casing collisions follow the predicate
// rule.
func (s *VaultDBStorage) GetOrCreateRole(ctx context.Context, role common.Role) (common.Role, error) {
	if err := validatePredicateCode(role.Code); err != nil {
		return common.Role{}, err
	}

	var existing common.Role
	err := s.conn.QueryRow(ctx,
		`SELECT id, code, description FROM roles WHERE lower(code) = lower($1)`, role.Code,
	).Scan(&existing.ID, &existing.Code, &existing.Description)
	switch {
	case err == nil:
		if existing.Code != role.Code {
			return common.Role{}, common.NewValidationError("code",
				"%q collides with existing role %q", role.Code, existing.Code)
		}
		return existing, nil
	case errors.Is(err, pgxv5.ErrNoRows):
	default:
		return common.Role{}, err
	}

	requested := role.Code
	err = s.conn.QueryRow(ctx, `
		INSERT INTO roles (code, description)
		VALUES ($1, $2)
		ON CONFLICT ((lower(code))) DO UPDATE SET code = roles.code
		RETURNING id, code, description`,
		requested, role.Description,
	).Scan(&role.ID, &role.Code, &role.Description)
	if err != nil {
		return common.Role{}, err
	}
	if role.Code != requested {
		return common.Role{}, common.NewValidationError("code",
			"%q collides with existing role %q", requested, role.Code)
	}
	logger.Debug("[Store][GetOrCreateRole] Role created", "code", role.Code)
	return role, nil
}
