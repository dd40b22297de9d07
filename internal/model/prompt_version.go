package model

type PromptVersion struct {
	ID         string `json:"id"`
	PromptID   string `json:"prompt_id"`
	Version    int    `json:"version"`
	Content    string `json:"content"`
	ChangeNote string `json:"change_note"`
	Ctime      int64  `json:"created_at"`
}
