package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DbDsn      string
	TgToken    string
	ListenAddr string
	UploadDir  string

	// Cleaning thresholds. Documented defaults, overridable per deployment.
	MaxNullRatio      float64 // column flagged high-missing above this
	MaxDistinctRatio  float64 // string column is categorical at or below this
	CardinalityFloor  int     // categorical flagged low-variety below this
	CardinalityRowMin int     // low-variety only checked above this many rows

	PreviewRows int
	TopValues   int
	CacheTTL    time.Duration
}

var (
	config *Config
	once   sync.Once
)

// GetConfig returns the singleton configuration, loading .env on first use.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file, using environment")
		}

		config = &Config{
			DbDsn:             os.Getenv("DB_DSN"),
			TgToken:           os.Getenv("TG_TOKEN"),
			ListenAddr:        envStr("LISTEN_ADDR", ":8005"),
			UploadDir:         envStr("UPLOAD_DIR", "uploads"),
			MaxNullRatio:      envFloat("MAX_NULL_RATIO", 0.3),
			MaxDistinctRatio:  envFloat("MAX_DISTINCT_RATIO", 0.5),
			CardinalityFloor:  envInt("CARDINALITY_FLOOR", 2),
			CardinalityRowMin: envInt("CARDINALITY_ROW_MIN", 100),
			PreviewRows:       envInt("PREVIEW_ROWS", 10),
			TopValues:         envInt("TOP_VALUES", 10),
			CacheTTL:          envDuration("CACHE_TTL", time.Hour),
		}
	})
	return config
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
