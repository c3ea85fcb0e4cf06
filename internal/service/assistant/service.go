// Package assistant orchestrates the chat flows: patient persistence,
// session state, file-analysis caching, and context assembly feed one AI
// call per chat turn.
package assistant

import (
	"database/sql"

	"medichat/internal/config"
	"medichat/internal/filecache"
	"medichat/internal/prompt"
	"medichat/internal/service/ai"
	"medichat/internal/session"
	"medichat/internal/worker"
)

// Service wires the collaborators together. All dependencies are injected;
// the service owns none of their lifecycles.
type Service struct {
	db        *sql.DB
	sessions  session.Store
	cache     *filecache.Cache
	assembler *prompt.Assembler
	ai        ai.Client
	pool      *worker.Pool
	ctxCfg    config.ContextConfig
}

func New(db *sql.DB, sessions session.Store, cache *filecache.Cache, assembler *prompt.Assembler, aiClient ai.Client, pool *worker.Pool, ctxCfg config.ContextConfig) *Service {
	return &Service{
		db:        db,
		sessions:  sessions,
		cache:     cache,
		assembler: assembler,
		ai:        aiClient,
		pool:      pool,
		ctxCfg:    ctxCfg,
	}
}

// Sessions exposes the session store for the HTTP layer.
func (s *Service) Sessions() session.Store {
	return s.sessions
}

// Cache exposes the file-analysis cache for the stats and clear endpoints.
func (s *Service) Cache() *filecache.Cache {
	return s.cache
}
