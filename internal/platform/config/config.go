// Package config centralizes environment-driven configuration so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "claimcheck/pkg/platform/strings"
)

// Config aggregates all runtime configuration for the service.
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Upstream UpstreamConfig
	Review   ReviewConfig
	Audit    AuditConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
}

// AuthConfig configures access token validation.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// DatabaseConfig configures the PostgreSQL connection.
// An empty URL means postgres is not configured and in-memory stores are used.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the Redis connection for session state.
// An empty URL means Redis is not configured and the in-memory store is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// SessionTTL bounds how long an untouched session survives. Zero keeps
	// sessions until they are cleared explicitly.
	SessionTTL time.Duration
}

// KafkaConfig configures the audit event pipeline. No brokers means Kafka is
// disabled and audit events stay in the configured store.
type KafkaConfig struct {
	Brokers        []string
	AuditTopic     string
	ConsumerGroup  string
	RelayInterval  time.Duration
	RelayBatchSize int
}

// Enabled reports whether Kafka publishing is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// UpstreamConfig locates the document services this engine orchestrates.
type UpstreamConfig struct {
	ExtractorURL  string
	PolicyURL     string
	ExplainerURL  string
	SubmissionURL string
	// Timeout bounds each upstream round-trip. Extraction gets its own,
	// longer bound because receipt uploads carry file payloads.
	Timeout        time.Duration
	ExtractTimeout time.Duration
}

// ReviewConfig tunes the review session workflow.
type ReviewConfig struct {
	// DefaultPaymentMethod fills the payment_type field when extraction
	// leaves it empty.
	DefaultPaymentMethod string
	// SubmissionBackend selects where confirmed submissions land:
	// "postgres" writes to this service's database, "remote" calls the
	// upstream submission endpoint.
	SubmissionBackend string
}

// Submission backend choices.
const (
	SubmissionBackendPostgres = "postgres"
	SubmissionBackendRemote   = "remote"
)

// AuditConfig tunes audit event emission.
type AuditConfig struct {
	// BufferSize enables async emission when positive; zero emits synchronously.
	BufferSize int
}

// FromEnv builds a Config from environment variables, applying development
// defaults for anything unset.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:            getEnv("CLAIMCHECK_ADDR", ":8080"),
			ShutdownTimeout: getDuration("CLAIMCHECK_SHUTDOWN_TIMEOUT", 10*time.Second),
			LogLevel:        getEnv("CLAIMCHECK_LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			// Development default - must be overridden in production
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        getEnv("JWT_ISSUER", "claimcheck"),
			Audience:      getEnv("JWT_AUDIENCE", "claimcheck-api"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			SessionTTL:   getDuration("REVIEW_SESSION_TTL", 0),
		},
		Kafka: KafkaConfig{
			Brokers:        getList("KAFKA_BROKERS"),
			AuditTopic:     getEnv("KAFKA_AUDIT_TOPIC", "claimcheck.audit.events"),
			ConsumerGroup:  getEnv("KAFKA_CONSUMER_GROUP", "claimcheck-audit-materializer"),
			RelayInterval:  getDuration("KAFKA_RELAY_INTERVAL", 2*time.Second),
			RelayBatchSize: getInt("KAFKA_RELAY_BATCH_SIZE", 100),
		},
		Upstream: UpstreamConfig{
			ExtractorURL:   getEnv("EXTRACTOR_URL", "http://localhost:8000"),
			PolicyURL:      getEnv("POLICY_URL", "http://localhost:8000"),
			ExplainerURL:   getEnv("EXPLAINER_URL", "http://localhost:8000"),
			SubmissionURL:  getEnv("SUBMISSION_URL", "http://localhost:8000"),
			Timeout:        getDuration("UPSTREAM_TIMEOUT", 15*time.Second),
			ExtractTimeout: getDuration("UPSTREAM_EXTRACT_TIMEOUT", 30*time.Second),
		},
		Review: ReviewConfig{
			DefaultPaymentMethod: getEnv("REVIEW_DEFAULT_PAYMENT_METHOD", "corporate_card"),
			SubmissionBackend:    getEnv("SUBMISSION_BACKEND", SubmissionBackendRemote),
		},
		Audit: AuditConfig{
			BufferSize: getInt("AUDIT_BUFFER_SIZE", 0),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := pstrings.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
