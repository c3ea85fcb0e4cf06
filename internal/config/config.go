package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Cache       CacheConfig               `json:"cache"`
	Context     ContextConfig             `json:"context"`
	Workers     WorkerConfig              `json:"workers"`
}

type BasicConfig struct {
	ServerAddress  string `json:"server_address"`
	Provider       string `json:"provider"`
	SessionBackend string `json:"session_backend"` // "memory" (default) or "redis"
	SweepInterval  int    `json:"sweep_interval_minutes"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// CacheConfig controls the file-analysis cache.
type CacheConfig struct {
	TTLSeconds int `json:"ttl_seconds"`
	MaxEntries int `json:"max_entries"`
}

// ContextConfig carries the character budgets applied during context
// assembly. Zero values fall back to the defaults below.
type ContextConfig struct {
	MaxPatientsFull      int `json:"max_patients_full"`
	MaxPatientsOptimized int `json:"max_patients_optimized"`
	FieldLimitFull       int `json:"field_limit_full"`
	FieldLimitOptimized  int `json:"field_limit_optimized"`
	NotesLimit           int `json:"notes_limit"`
	PatientBudget        int `json:"patient_budget"`
	FilesBudget          int `json:"files_budget"`
}

type WorkerConfig struct {
	MinWorkers         int `json:"min_workers"`
	MaxWorkers         int `json:"max_workers"`
	IdleTimeoutSeconds int `json:"idle_timeout_seconds"`
}

// Defaults preserved from the reference deployment; the budgets are raw
// character counts, not tokens.
const (
	DefaultCacheTTLSeconds      = 3600
	DefaultCacheMaxEntries      = 1024
	DefaultMaxPatientsFull      = 10
	DefaultMaxPatientsOptimized = 5
	DefaultFieldLimitFull       = 100
	DefaultFieldLimitOptimized  = 50
	DefaultNotesLimit           = 500
	DefaultPatientBudget        = 1500
	DefaultFilesBudget          = 2000
)

// Load reads configuration from the provided path (defaults to config.json)
// and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if len(cfg.Databases) == 0 {
		return nil, fmt.Errorf("at least one database must be configured")
	}
	for name, db := range cfg.Databases {
		if db.DSN != "" && !filepath.IsAbs(db.DSN) && db.Host == "" {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = DefaultCacheTTLSeconds
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	ctx := &c.Context
	if ctx.MaxPatientsFull <= 0 {
		ctx.MaxPatientsFull = DefaultMaxPatientsFull
	}
	if ctx.MaxPatientsOptimized <= 0 {
		ctx.MaxPatientsOptimized = DefaultMaxPatientsOptimized
	}
	if ctx.FieldLimitFull <= 0 {
		ctx.FieldLimitFull = DefaultFieldLimitFull
	}
	if ctx.FieldLimitOptimized <= 0 {
		ctx.FieldLimitOptimized = DefaultFieldLimitOptimized
	}
	if ctx.NotesLimit <= 0 {
		ctx.NotesLimit = DefaultNotesLimit
	}
	if ctx.PatientBudget <= 0 {
		ctx.PatientBudget = DefaultPatientBudget
	}
	if ctx.FilesBudget <= 0 {
		ctx.FilesBudget = DefaultFilesBudget
	}
	if c.Workers.MinWorkers <= 0 {
		c.Workers.MinWorkers = 1
	}
	if c.Workers.MaxWorkers < c.Workers.MinWorkers {
		c.Workers.MaxWorkers = c.Workers.MinWorkers
	}
	if c.BasicConfig.SessionBackend == "" {
		c.BasicConfig.SessionBackend = "memory"
	}
}
