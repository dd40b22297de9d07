package seed

import (
	"context"
	"encoding/json"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/promptvault/promptvault/internal/pkg/errors"
	"github.com/promptvault/promptvault/internal/service"
)

type demoPrompt struct {
	Name     string
	Title    string
	Category string
	Tags     []string
	Content  string
}

var demoPrompts = []demoPrompt{
	{
		Name:     "Code Review Checklist",
		Title:    "Code Review Checklist",
		Category: "development",
		Tags:     []string{"code-review", "quality", "checklist"},
		Content: `# Code Review Checklist

Review the following code for:

## Security
- Input validation and sanitization
- Authentication/authorization checks
- No hardcoded secrets or credentials

## Quality
- Clear naming conventions
- DRY principles followed
- Error handling present
- Edge cases covered

## Performance
- No unnecessary loops or allocations
- Database queries optimized
- Caching where appropriate

Provide feedback as actionable items with line references.`,
	},
	{
		Name:     "API Documentation Generator",
		Title:    "API Documentation Generator",
		Category: "documentation",
		Tags:     []string{"api", "docs", "openapi"},
		Content: `# API Documentation Generator

Given an API endpoint or codebase, generate documentation including:

1. **Endpoint Summary**: Method, path, description
2. **Parameters**: Query params, path params, request body schema
3. **Response**: Status codes, response body schema, examples
4. **Authentication**: Required auth method
5. **Error Handling**: Common error responses

Format as OpenAPI-compatible markdown.`,
	},
	{
		Name:     "Git Commit Message",
		Title:    "Git Commit Message",
		Category: "development",
		Tags:     []string{"git", "commits", "conventional"},
		Content: `# Git Commit Message Generator

Write a conventional commit message for the given changes.

Format:
` + "```" + `
<type>(<scope>): <subject>

<body>
` + "```" + `

Types: feat, fix, docs, style, refactor, perf, test, chore
- Subject: imperative, lowercase, no period, max 50 chars
- Body: explain what and why (not how), wrap at 72 chars`,
	},
	{
		Name:     "Bug Report Template",
		Title:    "Bug Report Template",
		Category: "project-management",
		Tags:     []string{"bugs", "reporting", "template"},
		Content: `# Bug Report

## Environment
- OS:
- Browser/Runtime:
- Version:

## Description
Brief description of the issue.

## Steps to Reproduce
1. Step one
2. Step two
3. Step three

## Expected Behavior
What should happen.

## Actual Behavior
What actually happens.

## Screenshots/Logs
Attach relevant evidence.

## Severity
- [ ] Critical (system down)
- [ ] High (major feature broken)
- [ ] Medium (workaround exists)
- [ ] Low (cosmetic/minor)`,
	},
	{
		Name:     "Unit Test Generator",
		Title:    "Unit Test Generator",
		Category: "development",
		Tags:     []string{"testing", "unit-tests", "tdd"},
		Content: `# Unit Test Generator

Given a function or module, generate comprehensive unit tests covering:

1. **Happy path**: Normal expected inputs
2. **Edge cases**: Empty inputs, boundary values, null/undefined
3. **Error cases**: Invalid inputs, thrown exceptions
4. **Type checking**: Wrong types passed to parameters

Use descriptive test names: ` + "`should [expected behavior] when [condition]`" + `

Include setup/teardown where needed. Mock external dependencies.`,
	},
	{
		Name:     "Security Audit Prompt",
		Title:    "Security Audit Prompt",
		Category: "security",
		Tags:     []string{"security", "audit", "vulnerabilities"},
		Content: `# Security Audit

Review the provided code/configuration for:

## OWASP Top 10
- Injection (SQL, XSS, Command)
- Broken authentication
- Sensitive data exposure
- Broken access control
- Security misconfiguration
- Insecure deserialization
- Known vulnerable components
- Insufficient logging

## Infrastructure
- Exposed ports/services
- Default credentials
- Unencrypted traffic
- Missing rate limiting

Rate each finding: Critical / High / Medium / Low / Info`,
	},
	{
		Name:     "Database Schema Review",
		Title:    "Database Schema Review",
		Category: "development",
		Tags:     []string{"database", "schema", "review"},
		Content: `# Database Schema Review

Analyze the provided schema for:

1. **Normalization**: Is it properly normalized? Over-normalized?
2. **Indexing**: Are queries covered by indexes?
3. **Naming**: Consistent conventions (snake_case, singular/plural)
4. **Constraints**: Foreign keys, NOT NULL, CHECK, UNIQUE
5. **Data Types**: Appropriate sizes, avoiding TEXT for everything
6. **Scalability**: Will this hold up at 10x, 100x current volume?

Provide recommendations with SQL migration snippets.`,
	},
}

// Apply inserts the demo prompts on a fresh install. It refuses to touch a
// store that already has prompts and tolerates name conflicts from a
// concurrent seed.
func Apply(ctx context.Context, prompts *service.PromptService) (int, error) {
	existing, err := prompts.Count(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		logutil.GetLogger(ctx).Info("store not empty, skipping seed", zap.Int64("existing", existing))
		return 0, nil
	}
	seeded := 0
	for _, p := range demoPrompts {
		_, err := prompts.Create(ctx, service.PromptCreateInput{
			Name:      p.Name,
			Title:     p.Title,
			Category:  p.Category,
			Tags:      p.Tags,
			Content:   p.Content,
			Variables: json.RawMessage("[]"),
		})
		if err != nil {
			if appErr.IsConflict(err) {
				continue
			}
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
