package main

import (
	"context"
	"log"
	"os"
	"time"

	"medichat/internal/api"
	"medichat/internal/config"
	"medichat/internal/filecache"
	"medichat/internal/prompt"
	"medichat/internal/redis"
	"medichat/internal/service/ai"
	"medichat/internal/service/assistant"
	"medichat/internal/session"
	"medichat/internal/storage"
	"medichat/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("MEDICHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("MEDICHAT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	var sessions session.Store
	switch cfg.BasicConfig.SessionBackend {
	case "redis":
		rdb, err := redis.NewClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb)
	default:
		sessions = session.NewMemoryStore()
	}

	aiClient, err := ai.NewAiService(cfg, cfg.BasicConfig.Provider, "")
	if err != nil {
		log.Fatalf("init ai service: %v", err)
	}

	cache := filecache.NewWithCapacity(time.Duration(cfg.Cache.TTLSeconds)*time.Second, cfg.Cache.MaxEntries)
	pool := worker.NewPool(cfg.Workers.MinWorkers, cfg.Workers.MaxWorkers,
		time.Duration(cfg.Workers.IdleTimeoutSeconds)*time.Second)
	defer pool.Close()
	assembler := prompt.New(cfg.Context)

	assistantService := assistant.New(db, sessions, cache, assembler, aiClient, pool, cfg.Context)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	sweepInterval := time.Duration(cfg.BasicConfig.SweepInterval) * time.Minute
	if sweepInterval <= 0 {
		sweepInterval = assistant.DefaultSweepInterval
	}
	assistantService.StartCacheSweeper(sweepCtx, sweepInterval)

	handlers := api.NewHandler(assistantService)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
