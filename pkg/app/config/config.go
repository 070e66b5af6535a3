// Package config reads service configuration from the environment. A
// .env file is honoured when present (godotenv); explicit environment
// variables win.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is passed explicitly to constructors; there is no shared global.
type Config struct {
	ServiceName string

	MongoURL    string
	MongoDB     string
	MatAggColl  string
	ExpressPort string
	LogPath     string

	KafkaBrokers    []string
	KafkaBuildTopic string
	KafkaGroupID    string
}

// Load reads the environment (plus an optional .env file) into a Config
// with the service defaults applied.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "gameday-cross-collection-aggregations"),
		MongoURL:    getEnv("MONGOURL", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGODB", "gameday"),
		MatAggColl:  getEnv("MAT_AGG_COLLECTION_NAME", "materialisedAggregations"),
		ExpressPort: getEnv("EXPRESS_PORT", "3000"),
		LogPath:     os.Getenv("LOG_PATH"),

		KafkaBuildTopic: os.Getenv("KAFKA_BUILD_TOPIC"),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "gameday-aggregations"),
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

// KafkaEnabled reports whether the build-trigger consumer should start.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBuildTopic != ""
}

// UseMemoryStore selects the in-memory adapter for local runs.
func (c Config) UseMemoryStore() bool {
	return c.MongoURL == "memory"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
