package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"medichat/internal/models"
)

// MemoryStore keeps all sessions in process memory behind one RWMutex.
// Mutations hold the write lock for the whole append so concurrent readers
// never observe a torn message or file entry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatSession
	now      func() time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.ChatSession),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context) (*models.ChatSession, error) {
	session := &models.ChatSession{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
		Messages:  make([]models.ChatMessage, 0),
		Files:     make([]models.AttachedFile, 0),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return cloneSession(session), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, id, query, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Messages = append(session.Messages, models.ChatMessage{
		Query:     query,
		Response:  response,
		Timestamp: s.now(),
	})
	return nil
}

func (s *MemoryStore) AppendFile(ctx context.Context, id, name, mediaType string, content []byte, createMissing bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		if !createMissing {
			return "", ErrNotFound
		}
		log.Printf("creating session on upload: %s", id)
		session = &models.ChatSession{
			ID:        id,
			CreatedAt: s.now(),
			Messages:  make([]models.ChatMessage, 0),
			Files:     make([]models.AttachedFile, 0),
		}
		s.sessions[id] = session
	}

	file := models.AttachedFile{
		FileID:     uuid.NewString(),
		Name:       name,
		MediaType:  mediaType,
		Content:    append([]byte(nil), content...),
		UploadedAt: s.now(),
	}
	session.Files = append(session.Files, file)
	return file.FileID, nil
}

func (s *MemoryStore) ListFiles(ctx context.Context, id string) ([]models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	infos := make([]models.FileInfo, 0, len(session.Files))
	for _, f := range session.Files {
		infos = append(infos, f.Info())
	}
	return infos, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// cloneSession copies the session so callers cannot mutate store state
// behind the lock. File content shares the underlying bytes; attached files
// are immutable once appended.
func cloneSession(src *models.ChatSession) *models.ChatSession {
	dst := &models.ChatSession{
		ID:        src.ID,
		CreatedAt: src.CreatedAt,
		Messages:  append([]models.ChatMessage(nil), src.Messages...),
		Files:     append([]models.AttachedFile(nil), src.Files...),
	}
	return dst
}
