package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration for the registry service.
type Server struct {
	Addr string

	// PostgresDSN selects the postgres record store when non-empty; the
	// in-memory store is used otherwise.
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig

	// JWTSigningKey signs coordinator access tokens.
	JWTSigningKey string
	// CoordinatorID and CoordinatorSecretHash (bcrypt) authenticate the
	// reconciliation coordinator when it requests a token.
	CoordinatorID         string
	CoordinatorSecretHash string

	// EnclaveSecret parameterizes the development proof verifier. Production
	// deployments replace the verifier with the real coprocessor client.
	EnclaveSecret string
}

// RedisConfig holds connection settings for the token revocation list.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds audit publishing settings. Empty brokers disable the
// kafka audit sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SEALEDREG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "sealedreg.audit"
	}
	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}

	return Server{
		Addr:        addr,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		JWTSigningKey:         jwtSigningKey,
		CoordinatorID:         os.Getenv("COORDINATOR_ID"),
		CoordinatorSecretHash: os.Getenv("COORDINATOR_SECRET_HASH"),
		EnclaveSecret:         os.Getenv("ENCLAVE_SECRET"),
	}
}
