package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mindvault/backend/pkg/common"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// VaultDBStorage implements the VaultStorage interface using PostgreSQL
// with pgvector for vector similarity search.
type VaultDBStorage struct {
	conn pgxIConn
	rank RankConfig
}

type VaultDBStorageOption func(*VaultDBStorage)

// WithRankConfig overrides the hybrid ranking configuration. Use this
// to wire the SEARCH_* environment settings in; the zero option keeps
// the built-in defaults.
func WithRankConfig(cfg RankConfig) VaultDBStorageOption {
	return func(s *VaultDBStorage) {
		s.rank = cfg.withDefaults()
	}
}

// NewVaultDBStorageWithConnection creates a VaultDBStorage on top of an
// existing connection or pool. The connection must have pgvector types
// registered.
func NewVaultDBStorageWithConnection(conn pgxIConn, opts ...VaultDBStorageOption) *VaultDBStorage {
	s := &VaultDBStorage{
		conn: conn,
		rank: DefaultRankConfig(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

func newPublicID(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate public id: %w", err)
	}
	return prefix + "_" + id, nil
}

func validateEmbeddingDim(field string, embedding []float32, dim int) error {
	if embedding == nil {
		return nil
	}
	if len(embedding) != dim {
		return common.NewValidationError(field, "expected %d dimensions, got %d", dim, len(embedding))
	}
	return nil
}
