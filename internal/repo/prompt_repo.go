package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/didi/gendry/builder"

	"github.com/promptvault/promptvault/internal/model"
	"github.com/promptvault/promptvault/internal/pkg/dbutil"
	appErr "github.com/promptvault/promptvault/internal/pkg/errors"
)

const (
	PromptStateNormal  = 1
	PromptStateDeleted = 2
)

var promptColumns = []string{"id", "name", "title", "category", "tags", "content", "variables", "current_version", "state", "ctime", "mtime"}

type PromptRepo struct {
	db dbutil.Queryer
}

func NewPromptRepo(db dbutil.Queryer) *PromptRepo {
	return &PromptRepo{db: db}
}

type PromptListFilter struct {
	Category string
	Tag      string
	Search   string
	Limit    int
}

func (r *PromptRepo) Create(ctx context.Context, p *model.Prompt) error {
	data := map[string]interface{}{
		"id":              p.ID,
		"name":            p.Name,
		"title":           p.Title,
		"category":        p.Category,
		"tags":            joinTags(p.Tags),
		"content":         p.Content,
		"variables":       variablesText(p.Variables),
		"current_version": p.CurrentVersion,
		"state":           p.State,
		"ctime":           p.Ctime,
		"mtime":           p.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("prompts", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsUniqueViolation(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *PromptRepo) GetByID(ctx context.Context, id string) (*model.Prompt, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id, "state": PromptStateNormal})
}

// GetByIDAny also resolves soft-deleted prompts. Version history stays
// readable after deletion, so the ledger endpoints look up through this.
func (r *PromptRepo) GetByIDAny(ctx context.Context, id string) (*model.Prompt, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id})
}

func (r *PromptRepo) GetByName(ctx context.Context, name string) (*model.Prompt, error) {
	return r.getOne(ctx, map[string]interface{}{"name": name, "state": PromptStateNormal})
}

// GetByIDForUpdate locks the prompt row for the rest of the transaction so
// concurrent mutations of the same prompt serialize instead of racing the
// version counter.
func (r *PromptRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Prompt, error) {
	query := `SELECT ` + strings.Join(promptColumns, ", ") + ` FROM prompts WHERE id = $1 AND state = $2 FOR UPDATE`
	row := r.db.QueryRowContext(ctx, query, id, PromptStateNormal)
	p, err := scanPromptRow(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PromptRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Prompt, error) {
	sqlStr, args, err := builder.BuildSelect("prompts", where, promptColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanPrompt(rows)
}

func (r *PromptRepo) List(ctx context.Context, filter PromptListFilter) ([]model.Prompt, error) {
	query := `SELECT ` + strings.Join(promptColumns, ", ") + ` FROM prompts WHERE state = $1`
	args := []interface{}{PromptStateNormal}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	if filter.Tag != "" {
		args = append(args, "%"+filter.Tag+"%")
		query += ` AND tags ILIKE $` + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		wildcard := "%" + filter.Search + "%"
		base := len(args)
		args = append(args, wildcard, wildcard, wildcard, wildcard)
		query += ` AND (name ILIKE $` + strconv.Itoa(base+1) +
			` OR title ILIKE $` + strconv.Itoa(base+2) +
			` OR content ILIKE $` + strconv.Itoa(base+3) +
			` OR tags ILIKE $` + strconv.Itoa(base+4) + `)`
	}
	query += ` ORDER BY mtime DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	prompts := make([]model.Prompt, 0)
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, *p)
	}
	return prompts, rows.Err()
}

// Count covers live prompts only.
func (r *PromptRepo) Count(ctx context.Context) (int64, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM prompts WHERE state = $1`, PromptStateNormal)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PromptRepo) Update(ctx context.Context, p *model.Prompt) error {
	where := map[string]interface{}{
		"id":    p.ID,
		"state": PromptStateNormal,
	}
	update := map[string]interface{}{
		"title":           p.Title,
		"category":        p.Category,
		"tags":            joinTags(p.Tags),
		"content":         p.Content,
		"variables":       variablesText(p.Variables),
		"current_version": p.CurrentVersion,
		"mtime":           p.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("prompts", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PromptRepo) SoftDelete(ctx context.Context, id string, mtime int64) error {
	where := map[string]interface{}{
		"id":    id,
		"state": PromptStateNormal,
	}
	update := map[string]interface{}{
		"state": PromptStateDeleted,
		"mtime": mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("prompts", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PromptRepo) ListCategories(ctx context.Context) ([]model.CategoryCount, error) {
	const query = `
		SELECT category, COUNT(1)
		FROM prompts
		WHERE state = $1
		GROUP BY category
		ORDER BY category
	`
	rows, err := r.db.QueryContext(ctx, query, PromptStateNormal)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	categories := make([]model.CategoryCount, 0)
	for rows.Next() {
		var item model.CategoryCount
		if err := rows.Scan(&item.Category, &item.Count); err != nil {
			return nil, err
		}
		categories = append(categories, item)
	}
	return categories, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrompt(rows *sql.Rows) (*model.Prompt, error) {
	return scanPromptRow(rows)
}

func scanPromptRow(row rowScanner) (*model.Prompt, error) {
	var p model.Prompt
	var tags, variables string
	if err := row.Scan(&p.ID, &p.Name, &p.Title, &p.Category, &tags, &p.Content, &variables, &p.CurrentVersion, &p.State, &p.Ctime, &p.Mtime); err != nil {
		return nil, err
	}
	p.Tags = splitTags(tags)
	p.Variables = json.RawMessage(variables)
	return &p, nil
}

func joinTags(tags []string) string {
	items := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		items = append(items, tag)
	}
	return strings.Join(items, ",")
}

func splitTags(raw string) []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

func variablesText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "[]"
	}
	return string(raw)
}
