package model

import "encoding/json"

type Prompt struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Title          string          `json:"title"`
	Category       string          `json:"category"`
	Tags           []string        `json:"tags"`
	Content        string          `json:"content"`
	Variables      json.RawMessage `json:"variables"`
	CurrentVersion int             `json:"current_version"`
	State          int             `json:"state"`
	Ctime          int64           `json:"created_at"`
	Mtime          int64           `json:"updated_at"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
