package job

import (
	"context"

	"github.com/promptvault/promptvault/internal/service"
)

const refreshBatch = 32

// EmbeddingRefreshJob re-embeds prompts whose content changed since the
// last embedding was written.
type EmbeddingRefreshJob struct {
	search *service.SearchService
}

func NewEmbeddingRefreshJob(search *service.SearchService) *EmbeddingRefreshJob {
	return &EmbeddingRefreshJob{search: search}
}

func (j *EmbeddingRefreshJob) Name() string {
	return "embedding_refresh"
}

func (j *EmbeddingRefreshJob) Run(ctx context.Context) error {
	return j.search.RefreshStale(ctx, refreshBatch)
}
