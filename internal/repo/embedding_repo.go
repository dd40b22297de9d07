package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/promptvault/promptvault/internal/model"
	"github.com/promptvault/promptvault/internal/pkg/dbutil"
)

type EmbeddingRepo struct {
	db dbutil.Queryer
}

func NewEmbeddingRepo(db dbutil.Queryer) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Save upserts, one row per prompt.
func (r *EmbeddingRepo) Save(ctx context.Context, emb *model.PromptEmbedding) error {
	const query = `
		INSERT INTO prompt_embeddings (prompt_id, embedding, content_hash, mtime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (prompt_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content_hash = EXCLUDED.content_hash,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query,
		emb.PromptID,
		pgvector.NewVector(emb.Embedding),
		emb.ContentHash,
		emb.Mtime,
	)
	return err
}

func (r *EmbeddingRepo) GetByPromptID(ctx context.Context, promptID string) (*model.PromptEmbedding, bool, error) {
	const query = `
		SELECT prompt_id, embedding, content_hash, mtime
		FROM prompt_embeddings
		WHERE prompt_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, promptID)
	var item model.PromptEmbedding
	var embedding pgvector.Vector
	if err := row.Scan(&item.PromptID, &embedding, &item.ContentHash, &item.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	item.Embedding = embedding.Slice()
	return &item, true, nil
}

// ListActive returns the records whose prompt is still live. Orphaned rows
// for deleted prompts stay in the table and are excluded by this join.
func (r *EmbeddingRepo) ListActive(ctx context.Context) ([]model.PromptEmbedding, error) {
	const query = `
		SELECT e.prompt_id, e.embedding, e.content_hash, e.mtime
		FROM prompt_embeddings e
		JOIN prompts p ON p.id = e.prompt_id
		WHERE p.state = $1
		ORDER BY e.prompt_id
	`
	rows, err := r.db.QueryContext(ctx, query, PromptStateNormal)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var results []model.PromptEmbedding
	for rows.Next() {
		var item model.PromptEmbedding
		var embedding pgvector.Vector
		if err := rows.Scan(&item.PromptID, &embedding, &item.ContentHash, &item.Mtime); err != nil {
			return nil, err
		}
		item.Embedding = embedding.Slice()
		results = append(results, item)
	}
	return results, rows.Err()
}

// ListStalePrompts finds live prompts with no embedding row or one older
// than the prompt itself. The periodic refresh job sweeps these up after
// lost fire-and-forget syncs.
func (r *EmbeddingRepo) ListStalePrompts(ctx context.Context, limit int) ([]model.Prompt, error) {
	const query = `
		SELECT p.id, p.content
		FROM prompts p
		LEFT JOIN prompt_embeddings e ON p.id = e.prompt_id
		WHERE (e.prompt_id IS NULL OR p.mtime > e.mtime) AND p.state = $1
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, PromptStateNormal, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var prompts []model.Prompt
	for rows.Next() {
		var p model.Prompt
		if err := rows.Scan(&p.ID, &p.Content); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}
