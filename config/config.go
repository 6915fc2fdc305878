package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for the dictionary.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	ListenAddr string // JDICT_LISTEN_ADDR, e.g. :8080

	// Source files
	JMdictPath   string // JDICT_JMDICT_PATH
	JMnedictPath string // JDICT_JMNEDICT_PATH
	KanjidicPath string // JDICT_KANJIDIC_PATH

	// Dictionary store
	Store      string // JDICT_STORE=memory|mongo|sqlite
	MongoURI   string // JDICT_MONGO_URI
	MongoDB    string // JDICT_MONGO_DB
	SQLitePath string // JDICT_SQLITE_PATH

	// Lookup caches
	RedisAddr string        // JDICT_REDIS_ADDR; empty disables the Redis cache
	RedisTTL  time.Duration // JDICT_REDIS_TTL
	CacheSize int           // JDICT_CACHE_SIZE, in-process LRU entries

	LookupLimit  int    // JDICT_LOOKUP_LIMIT, entries per dictionary lookup
	TokenizeMode string // JDICT_TOKENIZE_MODE=normal|search|extended

	Telemetry    bool   // JDICT_TELEMETRY=true enables tracing
	OTLPEndpoint string // OTEL_EXPORTER_OTLP_ENDPOINT; empty writes spans to stderr
	LogDir       string // JDICT_LOG_DIR, JSON debug dumps; empty disables them
}

// Load reads .env (if present) then environment variables and returns Config.
func Load() *Config {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	return &Config{
		ListenAddr:   env("JDICT_LISTEN_ADDR", ":8080"),
		JMdictPath:   env("JDICT_JMDICT_PATH", "data/JMdict_e.xml"),
		JMnedictPath: env("JDICT_JMNEDICT_PATH", ""),
		KanjidicPath: env("JDICT_KANJIDIC_PATH", "data/kanjidic2.xml"),
		Store:        strings.ToLower(env("JDICT_STORE", StoreMemory)),
		MongoURI:     env("JDICT_MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      env("JDICT_MONGO_DB", "japanesedict"),
		SQLitePath:   env("JDICT_SQLITE_PATH", "data/dictionary.db"),
		RedisAddr:    env("JDICT_REDIS_ADDR", ""),
		RedisTTL:     envDuration("JDICT_REDIS_TTL", 24*time.Hour),
		CacheSize:    envInt("JDICT_CACHE_SIZE", 4096),
		LookupLimit:  envInt("JDICT_LOOKUP_LIMIT", 10),
		TokenizeMode: strings.ToLower(env("JDICT_TOKENIZE_MODE", "normal")),
		Telemetry:    envBool("JDICT_TELEMETRY"),
		OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogDir:       env("JDICT_LOG_DIR", ""),
	}
}

// Validate checks the fields the selected store and server need.
func (c *Config) Validate() error {
	v := NewValidator()
	v.RequireNonEmpty("listenAddr", c.ListenAddr)
	v.ValidateOneOf("store", c.Store, StoreMemory, StoreMongo, StoreSQLite)
	switch c.Store {
	case StoreMongo:
		v.RequireNonEmpty("mongoURI", c.MongoURI)
		v.RequireNonEmpty("mongoDB", c.MongoDB)
	case StoreSQLite:
		v.RequireNonEmpty("sqlitePath", c.SQLitePath)
	}
	v.RequirePositive("cacheSize", c.CacheSize)
	v.RequirePositive("lookupLimit", c.LookupLimit)
	v.ValidateOneOf("tokenizeMode", c.TokenizeMode, "normal", "search", "extended")
	return v.Error()
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return v == "1" || strings.EqualFold(v, "true")
}
