package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings, loaded from environment variables.
type Config struct {
	Port        string
	Environment string

	MongoURI string
	MongoDB  string

	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	EncryptSecret string

	AMQPURL      string
	AMQPExchange string

	OTLPEndpoint string
}

// Load reads configuration from the environment, with a best-effort .env file.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	return Config{
		Port:        getEnv("PORT", "8083"),
		Environment: getEnv("ENVIRONMENT", "development"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "chatapp"),

		JWTSecret:     getEnv("JWT_SECRET", "dev_secret"),
		AccessTTL:     getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		EncryptSecret: getEnv("ENCRYPT_SECRET", "default_secret"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "chatapp.events"),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid duration for %s: %v", key, err)
		return fallback
	}
	return d
}
