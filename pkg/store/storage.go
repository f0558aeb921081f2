package store

import (
	"context"
	"time"

	"github.com/mindvault/backend/pkg/common"
)

// VaultStorage is the persistence contract for the relation graph and
// the hybrid retrieval core. Implementations own transactional
// integrity: every operation that writes multiple rows commits or
// rolls back as a unit.
type VaultStorage interface {
	GetOrCreatePredicate(ctx context.Context, pred common.Predicate, labels []common.PredicateLabel, terms []common.PredicateTerm) (common.Predicate, error)
	GetPredicateByCode(ctx context.Context, code string) (common.Predicate, error)
	LookupPredicateByTerm(ctx context.Context, lang, term string) (common.Predicate, error)
	LinkInversePredicates(ctx context.Context, codeA, codeB string) error
	GetOrCreateRole(ctx context.Context, role common.Role) (common.Role, error)

	UpsertEntity(ctx context.Context, entity common.Entity) (common.Entity, error)
	GetEntityByPublicID(ctx context.Context, publicID string) (common.Entity, error)

	InsertRelation(ctx context.Context, relation common.Relation) (common.Relation, error)
	RelationsBetween(ctx context.Context, filter RelationFilter) ([]common.Relation, error)

	BindAlias(ctx context.Context, ownerPublicID string, binding common.AliasBinding) (common.AliasBinding, error)
	ResolveAlias(ctx context.Context, ownerPublicID, phrase string) (common.ResolvedTarget, error)

	SaveItem(ctx context.Context, item common.Item, ext ItemExtension) (common.Item, bool, error)
	MarkItemDeleted(ctx context.Context, publicID string) error
	SaveChunks(ctx context.Context, itemPublicID string, chunks []common.Chunk) ([]common.Chunk, error)
	UpdateChunkEmbeddings(ctx context.Context, updates []ChunkEmbeddingUpdate) (int, error)

	WriteFact(ctx context.Context, entityPublicID string, fact common.Fact) (common.Fact, error)
	CurrentFact(ctx context.Context, entityPublicID, key string) (common.Fact, error)
	FactHistory(ctx context.Context, entityPublicID, key string) ([]common.Fact, error)

	Search(ctx context.Context, query common.SearchQuery) (common.SearchResult, error)
}

// ItemExtension carries the kind-specific metadata record saved next
// to an item. At most one field may be set, and it must match the
// item's source kind.
type ItemExtension struct {
	Email *common.EmailMeta
	Doc   *common.DocMeta
	Image *common.ImageMeta
	Voice *common.VoiceMeta
}

// RelationFilter narrows a relation graph query. Empty fields match
// everything. ActiveAt keeps only relations whose validity interval
// covers the instant; an open bound on either side always passes, and
// end_at is exclusive.
type RelationFilter struct {
	SubjectPublicID string
	ObjectPublicID  string
	PredicateCode   string
	Role            string
	ActiveAt        *time.Time
}

// ChunkEmbeddingUpdate replaces the stored vector of one chunk.
type ChunkEmbeddingUpdate struct {
	ChunkPublicID string
	Embedding     []float32
}
