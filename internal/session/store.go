// Package session holds short-lived conversational state: per-session
// message history and attached files. Sessions have no automatic expiry;
// they end by explicit deletion or process teardown.
package session

import (
	"context"
	"errors"

	"medichat/internal/models"
)

// ErrNotFound reports a session id with no live session behind it.
var ErrNotFound = errors.New("chat session not found")

// Store is the session state contract. The default implementation is
// in-memory; a redis-backed implementation exists for deployments that want
// sessions to survive a restart (best effort, not a durability guarantee).
type Store interface {
	// Create allocates a new session with empty history and file list.
	Create(ctx context.Context) (*models.ChatSession, error)

	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*models.ChatSession, error)

	// AppendMessage atomically appends one query/response exchange.
	// Returns ErrNotFound without side effects when the session is absent.
	AppendMessage(ctx context.Context, id, query, response string) error

	// AppendFile attaches a file and returns its generated id. When
	// createMissing is set an absent session is created on demand; this
	// tolerance exists only for uploads, every other mutation fails closed.
	AppendFile(ctx context.Context, id, name, mediaType string, content []byte, createMissing bool) (string, error)

	// ListFiles returns file metadata in upload order, never content.
	ListFiles(ctx context.Context, id string) ([]models.FileInfo, error)

	// Delete removes the session and all owned files. Deliberately not
	// idempotent: a second delete returns ErrNotFound so a double delete
	// surfaces as a caller error.
	Delete(ctx context.Context, id string) error
}
