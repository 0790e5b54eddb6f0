// Package config centralizes environment-driven configuration so main stays
// lean. A .env file is honored when present; real environment variables win.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures the full node configuration.
type Server struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string

	// Organization is the local party name the mirror reports itself as.
	Organization string

	// MirrorBackend selects the mirror store: "memory" or "redis".
	MirrorBackend string
	Redis         RedisConfig

	// PostgresDSN enables the durable audit store; empty keeps audit in
	// memory.
	PostgresDSN string

	// JournalPath enables the LevelDB event journal; empty keeps the
	// journal in memory.
	JournalPath string

	// KafkaBrokers enables the broker-backed event feed for split-process
	// deployments; empty keeps sync in-process.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string
}

// RedisConfig carries go-redis client tuning.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from the environment.
func FromEnv() Server {
	_ = godotenv.Load()

	cfg := Server{
		Addr:          envOr("INSURECHAIN_ADDR", ":8080"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Organization:  envOr("ORGANIZATION_NAME", "insurechain-node"),
		MirrorBackend: envOr("MIRROR_BACKEND", "memory"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		JournalPath:   os.Getenv("JOURNAL_PATH"),
		KafkaTopic:    os.Getenv("KAFKA_TOPIC"),
		KafkaGroup:    envOr("KAFKA_GROUP", "insurechain-mirror"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
