package pgx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"github.com/mindvault/backend/internal/util"
	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/logger"
	"github.com/mindvault/backend/pkg/store"
)

// Search runs hybrid retrieval over the chunk store. The vector and
// keyword candidate queries run concurrently; their union is blended,
// boosted, thread-deduplicated, and paginated in memory. Either signal
// may be absent and the other still ranks alone, but a query carrying
// neither is rejected.
func (s *VaultDBStorage) Search(ctx context.Context, query common.SearchQuery) (common.SearchResult, error) {
	hasVector := len(query.Embedding) > 0
	hasText := strings.TrimSpace(query.Text) != ""
	if !hasVector && !hasText {
		return common.SearchResult{}, &common.ValidationError{Reason: "embedding or text required"}
	}
	if hasVector {
		if err := validateEmbeddingDim("embedding", query.Embedding, common.ChunkEmbeddingDim); err != nil {
			return common.SearchResult{}, err
		}
	}

	filter := candidateFilter{
		tags:    util.NormalizeTags(query.Tags),
		domains: store.DedupeStrings(query.Domains),
	}
	if query.DateRange != nil {
		filter.dateFrom = query.DateRange.From
		filter.dateTo = query.DateRange.To
	}
	if len(query.Entities) > 0 {
		var err error
		filter.entityIDs, filter.entityNames, err = s.entityFilterRefs(ctx, query.Entities)
		if err != nil {
			return common.SearchResult{}, err
		}
	}
	boostTags := util.NormalizeTags(query.BoostTags)

	var vectorCandidates, keywordCandidates []rankCandidate
	eg, ectx := errgroup.WithContext(ctx)
	if hasVector {
		eg.Go(func() error {
			var err error
			vectorCandidates, err = s.vectorCandidates(ectx, query.Embedding, filter)
			return err
		})
	}
	if hasText {
		eg.Go(func() error {
			var err error
			keywordCandidates, err = s.keywordCandidates(ectx, query.Text, filter)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return common.SearchResult{}, err
	}

	pool := mergeCandidates(vectorCandidates, keywordCandidates)
	logger.Debug("[Store][Search] Candidate pool assembled",
		"vector", len(vectorCandidates), "keyword", len(keywordCandidates), "pool", len(pool))

	scored := blendCandidates(pool, boostTags, time.Now(), s.rank)
	if !query.IncludeAllThreadMatches {
		scored = dedupeThreads(scored)
	}

	return paginate(scored, query.Limit, query.Offset, s.rank), nil
}

// mergeCandidates unions the two candidate sets by chunk, keeping both
// signals when a chunk appears in both.
func mergeCandidates(vector, keyword []rankCandidate) []rankCandidate {
	merged := make([]rankCandidate, 0, len(vector)+len(keyword))
	index := make(map[string]int, len(vector))

	for _, candidate := range vector {
		index[candidate.chunkPublicID] = len(merged)
		merged = append(merged, candidate)
	}
	for _, candidate := range keyword {
		if i, ok := index[candidate.chunkPublicID]; ok {
			merged[i].keywordScore = candidate.keywordScore
			merged[i].hasKeyword = true
			continue
		}
		merged = append(merged, candidate)
	}
	return merged
}

const candidateSelectSQL = `
SELECT c.public_id, i.public_id, c.ord, c.text, i.title, i.thread_id, i.event_at,
       ARRAY(
           SELECT t.name FROM item_tags it
           JOIN tags t ON t.id = it.tag_id
           WHERE it.item_id = i.id
           ORDER BY t.name
       ),
`

// candidateFilter is the set of hard pre-filters both candidate queries
// apply to items before any ranking happens.
type candidateFilter struct {
	tags        []string
	domains     []string
	dateFrom    *time.Time
	dateTo      *time.Time
	entityIDs   []int64
	entityNames []string
}

// appendCandidateFilters renders the filters as SQL conjuncts appended
// to a candidate query whose signal argument is already bound. The date
// range is half-open: from inclusive, to exclusive. The entity filter
// keeps items that mention one of the entities by name or back one of
// its relations or facts.
func appendCandidateFilters(query string, args []any, filter candidateFilter) (string, []any) {
	if len(filter.tags) > 0 {
		args = append(args, filter.tags)
		query += fmt.Sprintf(`  AND EXISTS (
      SELECT 1 FROM item_tags it
      JOIN tags t ON t.id = it.tag_id
      WHERE it.item_id = i.id AND t.name = ANY($%d)
  )
`, len(args))
	}
	if len(filter.domains) > 0 {
		args = append(args, filter.domains)
		query += fmt.Sprintf("  AND i.domains && $%d\n", len(args))
	}
	if filter.dateFrom != nil {
		args = append(args, *filter.dateFrom)
		query += fmt.Sprintf("  AND i.event_at >= $%d\n", len(args))
	}
	if filter.dateTo != nil {
		args = append(args, *filter.dateTo)
		query += fmt.Sprintf("  AND i.event_at < $%d\n", len(args))
	}
	if len(filter.entityIDs) > 0 {
		args = append(args, filter.entityNames)
		names := len(args)
		args = append(args, filter.entityIDs)
		ids := len(args)
		query += fmt.Sprintf(`  AND (
      i.people && $%[1]d OR i.orgs && $%[1]d
      OR EXISTS (
          SELECT 1 FROM relations r
          WHERE r.source_item_id = i.id
            AND (r.subject_id = ANY($%[2]d) OR r.object_id = ANY($%[2]d))
      )
      OR EXISTS (
          SELECT 1 FROM facts f
          WHERE f.source_item_id = i.id AND f.entity_id = ANY($%[2]d)
      )
  )
`, names, ids)
	}
	return query, args
}

// entityFilterRefs resolves the entity filter to internal ids plus the
// name and alias set used for mention matching. Every public id must
// resolve; an unknown reference rejects the query.
func (s *VaultDBStorage) entityFilterRefs(ctx context.Context, publicIDs []string) ([]int64, []string, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT id, public_id, name, aliases FROM entities WHERE public_id = ANY($1)`, publicIDs)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0, len(publicIDs))
	var names []string
	resolved := make(map[string]struct{}, len(publicIDs))
	for rows.Next() {
		var id int64
		var publicID, name string
		var aliases []string
		if err := rows.Scan(&id, &publicID, &name, &aliases); err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		names = append(names, name)
		names = append(names, aliases...)
		resolved[publicID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	for _, publicID := range publicIDs {
		if _, ok := resolved[publicID]; !ok {
			return nil, nil, common.NewValidationError("entities", "unknown entity %q", publicID)
		}
	}
	return ids, store.DedupeStrings(names), nil
}

func (s *VaultDBStorage) vectorCandidates(ctx context.Context, embedding []float32, filter candidateFilter) ([]rankCandidate, error) {
	query := candidateSelectSQL + `
       1 - (c.embedding <=> $1) AS score
FROM chunks c
JOIN items i ON i.id = c.item_id
WHERE i.deleted_at IS NULL
  AND c.embedding IS NOT NULL
`
	query, args := appendCandidateFilters(query, []any{pgvector.NewVector(embedding)}, filter)
	query += `ORDER BY c.embedding <=> $1
LIMIT ` + strconv.Itoa(s.rank.CandidateVectorLimit)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCandidates(rows, true)
}

func (s *VaultDBStorage) keywordCandidates(ctx context.Context, text string, filter candidateFilter) ([]rankCandidate, error) {
	query := candidateSelectSQL + `
       ts_rank_cd(c.tsv, websearch_to_tsquery('simple', $1)) AS score
FROM chunks c
JOIN items i ON i.id = c.item_id
WHERE i.deleted_at IS NULL
  AND c.tsv @@ websearch_to_tsquery('simple', $1)
`
	query, args := appendCandidateFilters(query, []any{text}, filter)
	query += `ORDER BY score DESC
LIMIT ` + strconv.Itoa(s.rank.CandidateKeywordLimit)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCandidates(rows, false)
}

func collectCandidates(rows pgxv5.Rows, vector bool) ([]rankCandidate, error) {
	var candidates []rankCandidate
	for rows.Next() {
		var c rankCandidate
		var score float64
		err := rows.Scan(
			&c.chunkPublicID, &c.itemPublicID, &c.ord, &c.text,
			&c.title, &c.threadID, &c.eventAt, &c.tags, &score,
		)
		if err != nil {
			return nil, err
		}
		if vector {
			c.vectorScore = score
			c.hasVector = true
		} else {
			c.keywordScore = score
			c.hasKeyword = true
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

