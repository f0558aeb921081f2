package pgx

import (
	"sort"
	"time"

	"github.com/mindvault/backend/pkg/common"
)

// RankConfig tunes hybrid score blending. All weights are runtime
// configuration; the defaults mirror the tuning the retrieval quality
// was validated with.
type RankConfig struct {
	VectorWeight          float64
	KeywordWeight         float64
	RecencyBoost          float64
	RecencyDays           int
	TagBoost              float64
	TitleBoost            float64
	CandidateVectorLimit  int
	CandidateKeywordLimit int
	DefaultLimit          int
	MaxLimit              int
}

// DefaultRankConfig returns the built-in tuning.
func DefaultRankConfig() RankConfig {
	return RankConfig{
		VectorWeight:          0.35,
		KeywordWeight:         0.55,
		RecencyBoost:          0.03,
		RecencyDays:           7,
		TagBoost:              0.07,
		TitleBoost:            1.2,
		CandidateVectorLimit:  50,
		CandidateKeywordLimit: 50,
		DefaultLimit:          20,
		MaxLimit:              100,
	}
}

// withDefaults replaces out-of-range values with the built-in tuning.
// Weights and boosts may be set to an explicit zero to switch a signal
// off; only negative values fall back.
func (c RankConfig) withDefaults() RankConfig {
	defaults := DefaultRankConfig()
	if c.VectorWeight < 0 {
		c.VectorWeight = defaults.VectorWeight
	}
	if c.KeywordWeight < 0 {
		c.KeywordWeight = defaults.KeywordWeight
	}
	if c.RecencyBoost < 0 {
		c.RecencyBoost = defaults.RecencyBoost
	}
	if c.RecencyDays <= 0 || c.RecencyDays > 30 {
		c.RecencyDays = defaults.RecencyDays
	}
	if c.TagBoost < 0 {
		c.TagBoost = defaults.TagBoost
	}
	if c.TitleBoost < 0 {
		c.TitleBoost = defaults.TitleBoost
	}
	if c.CandidateVectorLimit <= 0 {
		c.CandidateVectorLimit = defaults.CandidateVectorLimit
	}
	if c.CandidateKeywordLimit <= 0 {
		c.CandidateKeywordLimit = defaults.CandidateKeywordLimit
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = defaults.DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = defaults.MaxLimit
	}
	return c
}

// rankCandidate is one chunk in the candidate pool with its raw
// retrieval signals. A candidate surfaced by only one signal keeps the
// other marked absent rather than zero, so normalization treats the
// two cases differently.
type rankCandidate struct {
	chunkPublicID string
	itemPublicID  string
	ord           int
	text          string
	title         string
	threadID      *string
	eventAt       time.Time
	tags          []string
	vectorScore   float64
	keywordScore  float64
	hasVector     bool
	hasKeyword    bool
}

// blendCandidates turns the raw candidate pool into scored hits:
// min-max normalize each signal within the pool, weight and sum,
// multiply title chunks up, then add the recency and boost-tag
// bonuses. The result is sorted by score, then recency, then chunk id
// for determinism.
func blendCandidates(candidates []rankCandidate, boostTags []string, now time.Time, cfg RankConfig) []common.ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}

	normVector := minMaxNormalize(candidates, func(c rankCandidate) (float64, bool) {
		return c.vectorScore, c.hasVector
	})
	normKeyword := minMaxNormalize(candidates, func(c rankCandidate) (float64, bool) {
		return c.keywordScore, c.hasKeyword
	})

	boostSet := make(map[string]struct{}, len(boostTags))
	for _, tag := range boostTags {
		boostSet[tag] = struct{}{}
	}
	window := time.Duration(cfg.RecencyDays) * 24 * time.Hour

	scored := make([]common.ScoredChunk, 0, len(candidates))
	for i, candidate := range candidates {
		score := cfg.VectorWeight*normVector[i] + cfg.KeywordWeight*normKeyword[i]

		if candidate.ord == 0 {
			score *= cfg.TitleBoost
		}

		age := now.Sub(candidate.eventAt)
		if age < 0 {
			age = 0
		}
		if age < window {
			score += cfg.RecencyBoost * (1 - float64(age)/float64(window))
		}

		for _, tag := range candidate.tags {
			if _, ok := boostSet[tag]; ok {
				score += cfg.TagBoost
			}
		}

		scored = append(scored, common.ScoredChunk{
			ChunkPublicID: candidate.chunkPublicID,
			ItemPublicID:  candidate.itemPublicID,
			Ord:           candidate.ord,
			Text:          candidate.text,
			Title:         candidate.title,
			ThreadID:      candidate.threadID,
			EventAt:       candidate.eventAt,
			Tags:          candidate.tags,
			Score:         score,
			VectorScore:   normVector[i],
			KeywordScore:  normKeyword[i],
		})
	}

	sortScored(scored)
	return scored
}

func sortScored(scored []common.ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].EventAt.Equal(scored[j].EventAt) {
			return scored[i].EventAt.After(scored[j].EventAt)
		}
		return scored[i].ChunkPublicID < scored[j].ChunkPublicID
	})
}

// minMaxNormalize scales one signal into [0, 1] across the candidates
// that carry it. Candidates without the signal get 0. When every
// present value is identical they all normalize to 1, so a
// single-signal pool still ranks.
func minMaxNormalize(candidates []rankCandidate, signal func(rankCandidate) (float64, bool)) []float64 {
	const eps = 1e-9

	lo, hi := 0.0, 0.0
	present := 0
	for _, candidate := range candidates {
		value, ok := signal(candidate)
		if !ok {
			continue
		}
		if present == 0 || value < lo {
			lo = value
		}
		if present == 0 || value > hi {
			hi = value
		}
		present++
	}

	out := make([]float64, len(candidates))
	if present == 0 {
		return out
	}
	for i, candidate := range candidates {
		value, ok := signal(candidate)
		if !ok {
			continue
		}
		if hi-lo < eps {
			out[i] = 1
			continue
		}
		out[i] = (value - lo) / (hi - lo)
	}
	return out
}

// dedupeThreads keeps only the best hit per thread. Hits without a
// thread id always survive. The input must already be sorted best
// first.
func dedupeThreads(scored []common.ScoredChunk) []common.ScoredChunk {
	seen := make(map[string]struct{})
	out := make([]common.ScoredChunk, 0, len(scored))
	for _, hit := range scored {
		if hit.ThreadID != nil && *hit.ThreadID != "" {
			if _, ok := seen[*hit.ThreadID]; ok {
				continue
			}
			seen[*hit.ThreadID] = struct{}{}
		}
		out = append(out, hit)
	}
	return out
}

// paginate applies limit and offset to the final ranking and fills in
// the result bookkeeping.
func paginate(scored []common.ScoredChunk, limit, offset int, cfg RankConfig) common.SearchResult {
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	total := len(scored)
	start := min(offset, total)
	end := min(start+limit, total)

	return common.SearchResult{
		Results:    scored[start:end],
		Total:      total,
		HasMore:    end < total,
		NextOffset: end,
	}
}
