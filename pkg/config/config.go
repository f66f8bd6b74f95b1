// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	// Storage backends
	Minio *MinioConfig
	Mongo *MongoConfig

	// Bucket layout
	SourcesBucket string
	SilverBucket  string
	GoldBucket    string

	// Source objects processed by the silver flow
	SourceObjects []string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		SourcesBucket: getEnv("BUCKET_SOURCES", "sources"),
		SilverBucket:  getEnv("BUCKET_SILVER", "silver"),
		GoldBucket:    getEnv("BUCKET_GOLD", "gold"),
		SourceObjects: []string{
			getEnv("SOURCE_CLIENTS_OBJECT", "clients.csv"),
			getEnv("SOURCE_ACHATS_OBJECT", "achats.csv"),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	minioConfig, err := LoadMinioConfig()
	if err != nil {
		return nil, errors.New("failed to load MinIO configuration: " + err.Error())
	}
	cfg.Minio = minioConfig

	mongoConfig, err := LoadMongoConfig()
	if err != nil {
		return nil, errors.New("failed to load MongoDB configuration: " + err.Error())
	}
	cfg.Mongo = mongoConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Minio == nil {
		return errors.New("minio configuration is required")
	}

	if c.Mongo == nil {
		return errors.New("mongodb configuration is required")
	}

	if c.SourcesBucket == "" || c.SilverBucket == "" || c.GoldBucket == "" {
		return errors.New("bucket names cannot be empty")
	}

	if len(c.SourceObjects) == 0 {
		return errors.New("at least one source object is required")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
