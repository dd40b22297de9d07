package model

type PromptEmbedding struct {
	PromptID    string    `json:"prompt_id"`
	Embedding   []float32 `json:"embedding"`
	ContentHash string    `json:"content_hash"`
	Mtime       int64     `json:"updated_at"`
}
