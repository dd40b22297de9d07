package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/promptvault/promptvault/internal/model"
	"github.com/promptvault/promptvault/internal/pkg/dbutil"
	appErr "github.com/promptvault/promptvault/internal/pkg/errors"
)

// VersionRepo is append-only. Ledger rows are never updated or deleted;
// the UNIQUE(prompt_id, version) index is the backstop against concurrent
// writers producing duplicate version numbers.
type VersionRepo struct {
	db dbutil.Queryer
}

func NewVersionRepo(db dbutil.Queryer) *VersionRepo {
	return &VersionRepo{db: db}
}

func (r *VersionRepo) Create(ctx context.Context, version *model.PromptVersion) error {
	data := map[string]interface{}{
		"id":          version.ID,
		"prompt_id":   version.PromptID,
		"version":     version.Version,
		"content":     version.Content,
		"change_note": version.ChangeNote,
		"ctime":       version.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("prompt_versions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsUniqueViolation(err) {
			return appErr.ErrIntegrity
		}
		return err
	}
	return nil
}

func (r *VersionRepo) List(ctx context.Context, promptID string) ([]model.PromptVersion, error) {
	where := map[string]interface{}{
		"prompt_id": promptID,
		"_orderby":  "version desc",
	}
	sqlStr, args, err := builder.BuildSelect("prompt_versions", where, []string{"id", "prompt_id", "version", "content", "change_note", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	versions := make([]model.PromptVersion, 0)
	for rows.Next() {
		var v model.PromptVersion
		if err := rows.Scan(&v.ID, &v.PromptID, &v.Version, &v.Content, &v.ChangeNote, &v.Ctime); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *VersionRepo) GetByVersion(ctx context.Context, promptID string, version int) (*model.PromptVersion, error) {
	where := map[string]interface{}{
		"prompt_id": promptID,
		"version":   version,
	}
	sqlStr, args, err := builder.BuildSelect("prompt_versions", where, []string{"id", "prompt_id", "version", "content", "change_note", "ctime"})
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
	var v model.PromptVersion
	if err := rows.Scan(&v.ID, &v.PromptID, &v.Version, &v.Content, &v.ChangeNote, &v.Ctime); err != nil {
		return nil, err
	}
	return &v, nil
}
