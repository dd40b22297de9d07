package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/promptvault/promptvault/internal/model"
	"github.com/promptvault/promptvault/internal/pkg/dbutil"
	appErr "github.com/promptvault/promptvault/internal/pkg/errors"
	"github.com/promptvault/promptvault/internal/pkg/timeutil"
	"github.com/promptvault/promptvault/internal/repo"
)

const (
	defaultCreateNote = "Initial version"
	defaultUpdateNote = "Updated prompt"
)

// PromptService coordinates prompt mutations. Every content-affecting
// transition writes the prompt row and a ledger entry in one transaction,
// then kicks off a best-effort embedding refresh that never blocks or fails
// the mutation.
type PromptService struct {
	db       *sql.DB
	prompts  *repo.PromptRepo
	versions *repo.VersionRepo
	search   *SearchService
}

func NewPromptService(db *sql.DB, prompts *repo.PromptRepo, versions *repo.VersionRepo, search *SearchService) *PromptService {
	return &PromptService{db: db, prompts: prompts, versions: versions, search: search}
}

type PromptCreateInput struct {
	Name       string
	Title      string
	Category   string
	Tags       []string
	Content    string
	Variables  json.RawMessage
	ChangeNote string
}

type PromptUpdateInput struct {
	Title      *string
	Category   *string
	Tags       *[]string
	Content    *string
	Variables  *json.RawMessage
	ChangeNote string
}

func (s *PromptService) Create(ctx context.Context, input PromptCreateInput) (*model.Prompt, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Title) == "" {
		return nil, appErr.ErrInvalid
	}
	note := input.ChangeNote
	if note == "" {
		note = defaultCreateNote
	}
	now := timeutil.NowUnix()
	prompt := &model.Prompt{
		ID:             newID(),
		Name:           input.Name,
		Title:          input.Title,
		Category:       input.Category,
		Tags:           input.Tags,
		Content:        input.Content,
		Variables:      input.Variables,
		CurrentVersion: 1,
		State:          repo.PromptStateNormal,
		Ctime:          now,
		Mtime:          now,
	}
	err := dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repo.NewPromptRepo(tx).Create(ctx, prompt); err != nil {
			return err
		}
		return repo.NewVersionRepo(tx).Create(ctx, &model.PromptVersion{
			ID:         newID(),
			PromptID:   prompt.ID,
			Version:    1,
			Content:    prompt.Content,
			ChangeNote: note,
			Ctime:      now,
		})
	})
	if err != nil {
		return nil, err
	}
	s.scheduleEmbeddingRefresh(prompt.ID, prompt.Content)
	return prompt, nil
}

// Update bumps the version unconditionally: a metadata-only edit still
// appends a ledger entry with the unchanged content.
func (s *PromptService) Update(ctx context.Context, id string, input PromptUpdateInput) (*model.Prompt, error) {
	note := input.ChangeNote
	if note == "" {
		note = defaultUpdateNote
	}
	var updated *model.Prompt
	err := dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		prompts := repo.NewPromptRepo(tx)
		prompt, err := prompts.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if input.Title != nil {
			prompt.Title = *input.Title
		}
		if input.Category != nil {
			prompt.Category = *input.Category
		}
		if input.Tags != nil {
			prompt.Tags = *input.Tags
		}
		if input.Content != nil {
			prompt.Content = *input.Content
		}
		if input.Variables != nil {
			prompt.Variables = *input.Variables
		}
		prompt.CurrentVersion++
		prompt.Mtime = timeutil.NowUnix()
		if err := prompts.Update(ctx, prompt); err != nil {
			return err
		}
		if err := repo.NewVersionRepo(tx).Create(ctx, &model.PromptVersion{
			ID:         newID(),
			PromptID:   prompt.ID,
			Version:    prompt.CurrentVersion,
			Content:    prompt.Content,
			ChangeNote: note,
			Ctime:      prompt.Mtime,
		}); err != nil {
			return err
		}
		updated = prompt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.scheduleEmbeddingRefresh(updated.ID, updated.Content)
	return updated, nil
}

func (s *PromptService) Delete(ctx context.Context, id string) error {
	return s.prompts.SoftDelete(ctx, id, timeutil.NowUnix())
}

// Restore writes a fresh version carrying the target version's content.
// Restoring to version 2 when current is 5 produces version 6, never a
// rewind of the counter.
func (s *PromptService) Restore(ctx context.Context, id string, targetVersion int) (*model.Prompt, error) {
	var restored *model.Prompt
	err := dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		prompts := repo.NewPromptRepo(tx)
		versions := repo.NewVersionRepo(tx)
		prompt, err := prompts.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		target, err := versions.GetByVersion(ctx, id, targetVersion)
		if err != nil {
			return err
		}
		prompt.Content = target.Content
		prompt.CurrentVersion++
		prompt.Mtime = timeutil.NowUnix()
		if err := prompts.Update(ctx, prompt); err != nil {
			return err
		}
		if err := versions.Create(ctx, &model.PromptVersion{
			ID:         newID(),
			PromptID:   prompt.ID,
			Version:    prompt.CurrentVersion,
			Content:    prompt.Content,
			ChangeNote: fmt.Sprintf("Restored from version %d", targetVersion),
			Ctime:      prompt.Mtime,
		}); err != nil {
			return err
		}
		restored = prompt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.scheduleEmbeddingRefresh(restored.ID, restored.Content)
	return restored, nil
}

func (s *PromptService) Get(ctx context.Context, id string) (*model.Prompt, error) {
	return s.prompts.GetByID(ctx, id)
}

func (s *PromptService) GetByName(ctx context.Context, name string) (*model.Prompt, error) {
	return s.prompts.GetByName(ctx, name)
}

func (s *PromptService) List(ctx context.Context, filter repo.PromptListFilter) ([]model.Prompt, error) {
	return s.prompts.List(ctx, filter)
}

func (s *PromptService) Count(ctx context.Context) (int64, error) {
	return s.prompts.Count(ctx)
}

func (s *PromptService) ListCategories(ctx context.Context) ([]model.CategoryCount, error) {
	return s.prompts.ListCategories(ctx)
}

// ListVersions resolves through GetByIDAny: ledger history stays readable
// after a soft delete.
func (s *PromptService) ListVersions(ctx context.Context, id string) ([]model.PromptVersion, error) {
	if _, err := s.prompts.GetByIDAny(ctx, id); err != nil {
		return nil, err
	}
	return s.versions.List(ctx, id)
}

func (s *PromptService) GetVersion(ctx context.Context, id string, version int) (*model.PromptVersion, error) {
	if _, err := s.prompts.GetByIDAny(ctx, id); err != nil {
		return nil, err
	}
	return s.versions.GetByVersion(ctx, id, version)
}

func (s *PromptService) scheduleEmbeddingRefresh(promptID, content string) {
	if s.search == nil {
		return
	}
	go func() {
		ctx := context.Background()
		if err := s.search.SyncEmbedding(ctx, promptID, content); err != nil {
			logutil.GetLogger(ctx).Warn("embedding refresh failed",
				zap.String("prompt_id", promptID),
				zap.Error(err),
			)
		}
	}()
}
