package config

import (
	"os"
	"strings"

	id "parareg/pkg/domain"
)

// Server captures process-level configuration. FromEnv keeps main lean;
// empty optional URLs mean the in-memory fallbacks are used.
type Server struct {
	Addr          string
	OwnerIdentity string
	JWTSigningKey string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("PARAREG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("PARAREG_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("PARAREG_KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "parareg.audit"
	}

	var brokers []string
	if raw := os.Getenv("PARAREG_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		OwnerIdentity: os.Getenv("PARAREG_OWNER_IDENTITY"),
		JWTSigningKey: jwtSigningKey,
		PostgresURL:   os.Getenv("PARAREG_POSTGRES_URL"),
		RedisURL:      os.Getenv("PARAREG_REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
	}
}

// Owner parses the configured owner identity. The registry cannot start
// without one: institution administration would be unreachable.
func (s Server) Owner() (id.Identity, error) {
	return id.ParseIdentity(s.OwnerIdentity)
}
