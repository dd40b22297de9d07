package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/promptvault/promptvault/internal/pkg/errors"
	"github.com/promptvault/promptvault/internal/repo"
	"github.com/promptvault/promptvault/internal/service"
	"github.com/promptvault/promptvault/internal/testutil"
)

func TestExportService(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	promptRepo := repo.NewPromptRepo(db)
	prompts := service.NewPromptService(db, promptRepo, repo.NewVersionRepo(db), nil)
	export := service.NewExportService(promptRepo)

	created, err := prompts.Create(ctx, service.PromptCreateInput{
		Name:    uniqueName("export"),
		Title:   "export",
		Content: "# Heading\n\nSome **bold** text.",
	})
	require.NoError(t, err)

	name, md, err := export.ExportMarkdown(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Name, name)
	require.Equal(t, created.Content, md)

	_, html, err := export.ExportHTML(ctx, created.ID)
	require.NoError(t, err)
	require.Contains(t, html, `<h1 id="heading">Heading</h1>`)
	require.Contains(t, html, "<strong>bold</strong>")

	_, _, err = export.ExportMarkdown(ctx, "missing-id")
	require.True(t, appErr.IsNotFound(err))
}
