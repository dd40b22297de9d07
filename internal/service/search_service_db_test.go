package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promptvault/promptvault/internal/ai"
	"github.com/promptvault/promptvault/internal/repo"
	"github.com/promptvault/promptvault/internal/service"
	"github.com/promptvault/promptvault/internal/testutil"
)

// mapEmbedder returns canned vectors keyed by input text.
type mapEmbedder struct {
	vectors map[string][]float32
	failOn  map[string]bool
}

func (m *mapEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.failOn[text] {
		return nil, errors.New("provider down")
	}
	vec, ok := m.vectors[text]
	if !ok {
		return nil, errors.New("no vector for input")
	}
	return vec, nil
}

func (m *mapEmbedder) ModelName() string { return "map-model" }

var _ ai.IEmbedder = (*mapEmbedder)(nil)

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	promptRepo := repo.NewPromptRepo(db)
	embedder := &mapEmbedder{vectors: map[string][]float32{
		"close content":    {1, 0},
		"diagonal content": {1, 1},
		"far content":      {0, 1},
		"the query":        {1, 0},
	}}
	search := service.NewSearchService(promptRepo, repo.NewEmbeddingRepo(db), embedder, embedder, 2, time.Second)
	prompts := service.NewPromptService(db, promptRepo, repo.NewVersionRepo(db), nil)

	ids := map[string]string{}
	for name, content := range map[string]string{
		"close":    "close content",
		"diagonal": "diagonal content",
		"far":      "far content",
	} {
		p, err := prompts.Create(ctx, service.PromptCreateInput{
			Name:    uniqueName("search-" + name),
			Title:   name,
			Content: content,
		})
		require.NoError(t, err)
		require.NoError(t, search.SyncEmbedding(ctx, p.ID, p.Content))
		ids[name] = p.ID
	}

	// the store may hold rows from other tests, so assert on our subset
	mine := func(results []service.SearchResult) []service.SearchResult {
		out := make([]service.SearchResult, 0, len(results))
		for _, r := range results {
			for _, id := range ids {
				if r.Prompt.ID == id {
					out = append(out, r)
				}
			}
		}
		return out
	}

	results, err := search.Search(ctx, "the query", 1000, 0.5)
	require.NoError(t, err)
	results = mine(results)
	require.Len(t, results, 2)
	require.Equal(t, ids["close"], results[0].Prompt.ID)
	require.Equal(t, 1.0, results[0].Score)
	require.Equal(t, ids["diagonal"], results[1].Prompt.ID)
	require.Equal(t, 0.7071, results[1].Score)

	// deleted prompts drop out of the result set
	require.NoError(t, prompts.Delete(ctx, ids["close"]))
	results, err = search.Search(ctx, "the query", 1000, 0.5)
	require.NoError(t, err)
	results = mine(results)
	require.Len(t, results, 1)
	require.Equal(t, ids["diagonal"], results[0].Prompt.ID)
}

func TestSearchRequiresQuery(t *testing.T) {
	search := service.NewSearchService(nil, nil, nil, nil, 2, time.Second)
	_, err := search.Search(context.Background(), "", 10, 0)
	require.Error(t, err)
}

func TestRebuildAllCountsFailures(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	promptRepo := repo.NewPromptRepo(db)
	embedder := &mapEmbedder{
		vectors: map[string][]float32{},
		failOn:  map[string]bool{},
	}
	search := service.NewSearchService(promptRepo, repo.NewEmbeddingRepo(db), embedder, embedder, 2, time.Second)
	prompts := service.NewPromptService(db, promptRepo, repo.NewVersionRepo(db), nil)

	existing, err := prompts.List(ctx, repo.PromptListFilter{})
	require.NoError(t, err)
	base := len(existing)
	for _, p := range existing {
		embedder.vectors[p.Content] = []float32{1, 0}
	}

	for i := 0; i < 3; i++ {
		content := uniqueName("rebuild-ok")
		embedder.vectors[content] = []float32{1, 0}
		_, err := prompts.Create(ctx, service.PromptCreateInput{Name: uniqueName("rb-ok"), Title: "ok", Content: content})
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		content := uniqueName("rebuild-bad")
		embedder.failOn[content] = true
		_, err := prompts.Create(ctx, service.PromptCreateInput{Name: uniqueName("rb-bad"), Title: "bad", Content: content})
		require.NoError(t, err)
	}

	stats, err := search.RebuildAll(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, stats.Total, base+5)
	require.Equal(t, base+3, stats.Embedded)
	require.GreaterOrEqual(t, stats.Failed, 2)
	require.Equal(t, stats.Total, stats.Embedded+stats.Failed)
}
