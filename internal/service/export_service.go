package service

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	rendererhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/promptvault/promptvault/internal/repo"
)

// ExportService renders prompt content out of the vault, either as the raw
// markdown or as standalone HTML.
type ExportService struct {
	prompts *repo.PromptRepo
	md      goldmark.Markdown
}

func NewExportService(prompts *repo.PromptRepo) *ExportService {
	return &ExportService{
		prompts: prompts,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(rendererhtml.WithHardWraps()),
		),
	}
}

func (s *ExportService) ExportMarkdown(ctx context.Context, id string) (string, string, error) {
	prompt, err := s.prompts.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return prompt.Name, prompt.Content, nil
}

func (s *ExportService) ExportHTML(ctx context.Context, id string) (string, string, error) {
	prompt, err := s.prompts.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	var out bytes.Buffer
	if err := s.md.Convert([]byte(prompt.Content), &out); err != nil {
		return "", "", err
	}
	return prompt.Name, out.String(), nil
}
