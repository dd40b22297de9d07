package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/promptvault/promptvault/internal/ai"
	"github.com/promptvault/promptvault/internal/model"
	appErr "github.com/promptvault/promptvault/internal/pkg/errors"
	"github.com/promptvault/promptvault/internal/pkg/timeutil"
	"github.com/promptvault/promptvault/internal/repo"
)

var ErrAIUnavailable = ai.ErrUnavailable

const (
	defaultSearchLimit = 10
	rebuildConcurrency = 4
	taskTypeDocument   = "RETRIEVAL_DOCUMENT"
	taskTypeQuery      = "RETRIEVAL_QUERY"
)

// SearchService owns the embedding index and the brute-force similarity
// scan over it. The scan is O(N*D) per query, which is fine at the corpus
// sizes this serves; anything bigger should swap in an indexed backend
// behind the same Search contract.
type SearchService struct {
	prompts       *repo.PromptRepo
	embeddings    *repo.EmbeddingRepo
	docEmbedder   ai.IEmbedder
	queryEmbedder ai.IEmbedder
	dimension     int
	timeout       time.Duration
}

// NewSearchService takes two embedders: queryEmbedder may be cache-wrapped,
// docEmbedder must not be, so document syncs always hit the provider.
func NewSearchService(prompts *repo.PromptRepo, embeddings *repo.EmbeddingRepo, docEmbedder, queryEmbedder ai.IEmbedder, dimension int, timeout time.Duration) *SearchService {
	return &SearchService{
		prompts:       prompts,
		embeddings:    embeddings,
		docEmbedder:   docEmbedder,
		queryEmbedder: queryEmbedder,
		dimension:     dimension,
		timeout:       timeout,
	}
}

type SearchResult struct {
	Prompt model.Prompt `json:"prompt"`
	Score  float64      `json:"score"`
}

type RebuildStats struct {
	Embedded int `json:"embedded"`
	Failed   int `json:"failed"`
	Total    int `json:"total"`
}

// embed calls the external service with a bounded timeout. Every failure
// mode collapses into ErrAIUnavailable at this boundary; callers decide
// whether that is fatal (search) or merely logged (mutations, rebuild).
func (s *SearchService) embed(ctx context.Context, embedder ai.IEmbedder, text, taskType string) ([]float32, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	vec, err := embedder.Embed(ctx, text, taskType)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding call failed", zap.String("task_type", taskType), zap.Error(err))
		return nil, ErrAIUnavailable
	}
	if s.dimension > 0 && len(vec) != s.dimension {
		logutil.GetLogger(ctx).Warn("embedding dimension mismatch",
			zap.Int("want", s.dimension), zap.Int("got", len(vec)))
		return nil, ErrAIUnavailable
	}
	return vec, nil
}

// SyncEmbedding re-embeds unconditionally. The stored fingerprint lets a
// caller detect staleness; it is not used to skip identical content.
func (s *SearchService) SyncEmbedding(ctx context.Context, promptID, content string) error {
	hash := sha256.Sum256([]byte(content))
	vec, err := s.embed(ctx, s.docEmbedder, content, taskTypeDocument)
	if err != nil {
		return err
	}
	if err := s.embeddings.Save(ctx, &model.PromptEmbedding{
		PromptID:    promptID,
		Embedding:   vec,
		ContentHash: hex.EncodeToString(hash[:]),
		Mtime:       timeutil.NowUnix(),
	}); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Debug("embedding synced", zap.String("prompt_id", promptID))
	return nil
}

func (s *SearchService) Search(ctx context.Context, query string, limit int, minScore float64) ([]SearchResult, error) {
	if query == "" {
		return nil, appErr.ErrInvalid
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	queryVec, err := s.embed(ctx, s.queryEmbedder, query, taskTypeQuery)
	if err != nil {
		return nil, err
	}
	records, err := s.embeddings.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	matches := rankEmbeddings(records, queryVec, limit, minScore)
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		prompt, err := s.prompts.GetByID(ctx, m.promptID)
		if appErr.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			Prompt: *prompt,
			Score:  roundScore(m.score),
		})
	}
	return results, nil
}

type scoredMatch struct {
	promptID string
	score    float32
}

// rankEmbeddings filters by minScore, sorts descending (stable, so ties
// keep insertion order) and truncates to limit.
func rankEmbeddings(records []model.PromptEmbedding, queryVec []float32, limit int, minScore float64) []scoredMatch {
	matches := make([]scoredMatch, 0, len(records))
	for _, item := range records {
		score := cosineSimilarity(queryVec, item.Embedding)
		if float64(score) >= minScore {
			matches = append(matches, scoredMatch{promptID: item.PromptID, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// cosineSimilarity returns 0 on length mismatch or when either vector has
// zero norm, so an all-zero query scores 0 everywhere instead of failing.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func roundScore(score float32) float64 {
	return math.Round(float64(score)*10000) / 10000
}

// RebuildAll re-embeds every live prompt. Per-item failures are counted,
// never propagated; a partially failed batch is a normal outcome.
func (s *SearchService) RebuildAll(ctx context.Context) (*RebuildStats, error) {
	prompts, err := s.prompts.List(ctx, repo.PromptListFilter{})
	if err != nil {
		return nil, err
	}
	var embedded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildConcurrency)
	for _, prompt := range prompts {
		p := prompt
		g.Go(func() error {
			if err := s.SyncEmbedding(gctx, p.ID, p.Content); err != nil {
				logutil.GetLogger(gctx).Warn("rebuild: embedding failed",
					zap.String("prompt_id", p.ID), zap.Error(err))
				failed.Add(1)
				return nil
			}
			embedded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats := &RebuildStats{
		Embedded: int(embedded.Load()),
		Failed:   int(failed.Load()),
		Total:    len(prompts),
	}
	logutil.GetLogger(ctx).Info("embedding rebuild finished",
		zap.Int("embedded", stats.Embedded),
		zap.Int("failed", stats.Failed),
		zap.Int("total", stats.Total))
	return stats, nil
}

// RefreshStale sweeps prompts whose embedding is missing or older than the
// prompt row. Runs from the scheduler as a backstop for refreshes lost to
// service outages.
func (s *SearchService) RefreshStale(ctx context.Context, limit int) error {
	stale, err := s.embeddings.ListStalePrompts(ctx, limit)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	logutil.GetLogger(ctx).Info("refreshing stale embeddings", zap.Int("count", len(stale)))
	for _, p := range stale {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.SyncEmbedding(ctx, p.ID, p.Content); err != nil {
			logutil.GetLogger(ctx).Warn("stale refresh failed",
				zap.String("prompt_id", p.ID), zap.Error(err))
		}
	}
	return nil
}
