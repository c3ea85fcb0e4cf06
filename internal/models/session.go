package models

import "time"

// ChatSession groups the message history and attached files of one
// conversation. Sessions are volatile server-side state with no automatic
// expiry; they live until explicitly deleted or the process exits.
type ChatSession struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Messages  []ChatMessage  `json:"messages"`
	Files     []AttachedFile `json:"files"`
}

// ChatMessage is one completed query/response exchange. The history is
// append-only.
type ChatMessage struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// FileInfo describes an attached file without exposing its content.
type FileInfo struct {
	FileID     string    `json:"file_id"`
	Name       string    `json:"name"`
	MediaType  string    `json:"type"`
	Size       int       `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}
