package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	StorageBackend string

	RedisAddr     string
	RedisPassword string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	CatalogBaseURL  string
	CatalogCacheTTL string

	KafkaBrokers           string
	KafkaClientID          string
	KafkaTopicPartitions   string
	KafkaReplicationFactor string
	EventsEnabled          string
}

func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),

		StorageBackend: getEnv("STORAGE_BACKEND", "redis"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "cartdb"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		CatalogBaseURL:  getEnv("CATALOG_BASE_URL", "https://fakestoreapi.com"),
		CatalogCacheTTL: getEnv("CATALOG_CACHE_TTL_SECONDS", "300"),

		KafkaBrokers:           getEnv("KAFKA_BROKERS", "kafka:9092"),
		KafkaClientID:          getEnv("KAFKA_CLIENT_ID", "cart-service"),
		KafkaTopicPartitions:   getEnv("KAFKA_TOPIC_PARTITIONS", "3"),
		KafkaReplicationFactor: getEnv("KAFKA_REPLICATION_FACTOR", "1"),
		EventsEnabled:          getEnv("EVENTS_ENABLED", "false"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) TopicPartitions() int {
	return parseInt(c.KafkaTopicPartitions, 3)
}

func (c *Config) ReplicationFactor() int16 {
	value := parseInt(c.KafkaReplicationFactor, 1)
	return int16(value)
}

func (c *Config) CatalogTTL() time.Duration {
	return time.Duration(parseInt(c.CatalogCacheTTL, 300)) * time.Second
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
