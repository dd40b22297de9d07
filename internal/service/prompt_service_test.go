package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/promptvault/promptvault/internal/pkg/errors"
	"github.com/promptvault/promptvault/internal/repo"
	"github.com/promptvault/promptvault/internal/service"
	"github.com/promptvault/promptvault/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func newPromptService(t *testing.T) (*service.PromptService, func()) {
	t.Helper()
	db, cleanup := testutil.OpenTestDB(t)
	prompts := service.NewPromptService(db, repo.NewPromptRepo(db), repo.NewVersionRepo(db), nil)
	return prompts, cleanup
}

func TestPromptVersionSequence(t *testing.T) {
	prompts, cleanup := newPromptService(t)
	defer cleanup()
	ctx := context.Background()

	created, err := prompts.Create(ctx, service.PromptCreateInput{
		Name:    uniqueName("seq"),
		Title:   "seq",
		Content: "v1 content",
	})
	require.NoError(t, err)
	require.Equal(t, 1, created.CurrentVersion)

	for i := 2; i <= 5; i++ {
		content := fmt.Sprintf("v%d content", i)
		updated, err := prompts.Update(ctx, created.ID, service.PromptUpdateInput{Content: &content})
		require.NoError(t, err)
		require.Equal(t, i, updated.CurrentVersion)
	}

	versions, err := prompts.ListVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 5)
	// newest first, gap-free down to 1
	for i, v := range versions {
		require.Equal(t, 5-i, v.Version)
	}
}

func TestPromptUpdateBumpsVersionWithoutContentChange(t *testing.T) {
	prompts, cleanup := newPromptService(t)
	defer cleanup()
	ctx := context.Background()

	created, err := prompts.Create(ctx, service.PromptCreateInput{
		Name:    uniqueName("meta"),
		Title:   "before",
		Content: "unchanged",
	})
	require.NoError(t, err)

	title := "after"
	updated, err := prompts.Update(ctx, created.ID, service.PromptUpdateInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, 2, updated.CurrentVersion)
	require.Equal(t, "unchanged", updated.Content)

	v2, err := prompts.GetVersion(ctx, created.ID, 2)
	require.NoError(t, err)
	require.Equal(t, "unchanged", v2.Content)
}

func TestPromptRestore(t *testing.T) {
	prompts, cleanup := newPromptService(t)
	defer cleanup()
	ctx := context.Background()

	created, err := prompts.Create(ctx, service.PromptCreateInput{
		Name:    uniqueName("restore"),
		Title:   "restore",
		Content: "hello",
	})
	require.NoError(t, err)

	content := "world"
	_, err = prompts.Update(ctx, created.ID, service.PromptUpdateInput{Content: &content})
	require.NoError(t, err)

	restored, err := prompts.Restore(ctx, created.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 3, restored.CurrentVersion)
	require.Equal(t, "hello", restored.Content)

	v3, err := prompts.GetVersion(ctx, created.ID, 3)
	require.NoError(t, err)
	require.Equal(t, "hello", v3.Content)
	require.Equal(t, "Restored from version 1", v3.ChangeNote)

	_, err = prompts.Restore(ctx, created.ID, 99)
	require.True(t, appErr.IsNotFound(err))
}

func TestPromptNameConflict(t *testing.T) {
	prompts, cleanup := newPromptService(t)
	defer cleanup()
	ctx := context.Background()

	name := uniqueName("conflict")
	_, err := prompts.Create(ctx, service.PromptCreateInput{Name: name, Title: "a", Content: "a"})
	require.NoError(t, err)

	_, err = prompts.Create(ctx, service.PromptCreateInput{Name: name, Title: "b", Content: "b"})
	require.True(t, appErr.IsConflict(err))
}

func TestPromptSoftDelete(t *testing.T) {
	prompts, cleanup := newPromptService(t)
	defer cleanup()
	ctx := context.Background()

	name := uniqueName("del")
	created, err := prompts.Create(ctx, service.PromptCreateInput{Name: name, Title: "del", Content: "body"})
	require.NoError(t, err)

	require.NoError(t, prompts.Delete(ctx, created.ID))

	_, err = prompts.Get(ctx, created.ID)
	require.True(t, appErr.IsNotFound(err))

	_, err = prompts.GetByName(ctx, name)
	require.True(t, appErr.IsNotFound(err))

	// deleting twice is still not found
	err = prompts.Delete(ctx, created.ID)
	require.True(t, appErr.IsNotFound(err))

	// history stays readable after the delete
	versions, err := prompts.ListVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	// the name is never freed
	_, err = prompts.Create(ctx, service.PromptCreateInput{Name: name, Title: "again", Content: "body"})
	require.True(t, appErr.IsConflict(err))
}

func TestPromptCreateValidation(t *testing.T) {
	prompts, cleanup := newPromptService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := prompts.Create(ctx, service.PromptCreateInput{Name: "", Title: "t", Content: "c"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = prompts.Create(ctx, service.PromptCreateInput{Name: uniqueName("v"), Title: "  ", Content: "c"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestPromptListFilters(t *testing.T) {
	prompts, cleanup := newPromptService(t)
	defer cleanup()
	ctx := context.Background()

	marker := fmt.Sprintf("marker%d", time.Now().UnixNano())
	_, err := prompts.Create(ctx, service.PromptCreateInput{
		Name:     uniqueName("filter-a"),
		Title:    "filter a",
		Category: marker,
		Tags:     []string{"alpha", marker},
		Content:  "alpha content",
	})
	require.NoError(t, err)
	_, err = prompts.Create(ctx, service.PromptCreateInput{
		Name:     uniqueName("filter-b"),
		Title:    "filter b",
		Category: "other",
		Tags:     []string{"beta"},
		Content:  "beta content " + marker,
	})
	require.NoError(t, err)

	byCategory, err := prompts.List(ctx, repo.PromptListFilter{Category: marker})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	require.Equal(t, "filter a", byCategory[0].Title)

	byTag, err := prompts.List(ctx, repo.PromptListFilter{Tag: marker})
	require.NoError(t, err)
	require.Len(t, byTag, 1)

	bySearch, err := prompts.List(ctx, repo.PromptListFilter{Search: marker})
	require.NoError(t, err)
	require.Len(t, bySearch, 2)
}
