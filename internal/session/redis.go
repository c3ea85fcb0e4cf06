package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"medichat/internal/models"
	"medichat/internal/redis"
)

const redisKeyPrefix = "medichat:session:"

// RedisStore keeps sessions as JSON blobs in redis so they survive a process
// restart. Read-modify-write cycles are serialized by a store-local mutex;
// the store assumes a single writer process, matching the deployment shape
// this backend targets.
type RedisStore struct {
	mu     sync.Mutex
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an already-connected redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) load(ctx context.Context, id string) (*models.ChatSession, error) {
	raw, err := s.client.Get(ctx, redisKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var session models.ChatSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *RedisStore) save(ctx context.Context, session *models.ChatSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	if err := s.client.Set(ctx, redisKey(session.ID), data, 0); err != nil {
		return fmt.Errorf("store session %s: %w", session.ID, err)
	}
	return nil
}

func (s *RedisStore) Create(ctx context.Context) (*models.ChatSession, error) {
	session := &models.ChatSession{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
		Messages:  make([]models.ChatMessage, 0),
		Files:     make([]models.AttachedFile, 0),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, id)
}

func (s *RedisStore) AppendMessage(ctx context.Context, id, query, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	session.Messages = append(session.Messages, models.ChatMessage{
		Query:     query,
		Response:  response,
		Timestamp: s.now(),
	})
	return s.save(ctx, session)
}

func (s *RedisStore) AppendFile(ctx context.Context, id, name, mediaType string, content []byte, createMissing bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) || !createMissing {
			return "", err
		}
		session = &models.ChatSession{
			ID:        id,
			CreatedAt: s.now(),
			Messages:  make([]models.ChatMessage, 0),
			Files:     make([]models.AttachedFile, 0),
		}
	}

	file := models.AttachedFile{
		FileID:     uuid.NewString(),
		Name:       name,
		MediaType:  mediaType,
		Content:    append([]byte(nil), content...),
		UploadedAt: s.now(),
	}
	session.Files = append(session.Files, file)
	if err := s.save(ctx, session); err != nil {
		return "", err
	}
	return file.FileID, nil
}

func (s *RedisStore) ListFiles(ctx context.Context, id string) ([]models.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	infos := make([]models.FileInfo, 0, len(session.Files))
	for _, f := range session.Files {
		infos = append(infos, f.Info())
	}
	return infos, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.client.Del(ctx, redisKey(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
