// pkg/config/stores.go
package config

import "errors"

// MinioConfig holds the object store connection settings
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// LoadMinioConfig loads MinIO settings from environment variables
func LoadMinioConfig() (*MinioConfig, error) {
	cfg := &MinioConfig{
		Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		SecretKey: getEnv("MINIO_SECRET_KEY", ""),
		UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the MinIO configuration is complete
func (c *MinioConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("MINIO_ENDPOINT is required")
	}
	if c.AccessKey == "" {
		return errors.New("MINIO_ACCESS_KEY is required")
	}
	if c.SecretKey == "" {
		return errors.New("MINIO_SECRET_KEY is required")
	}
	return nil
}

// MongoConfig holds the document store connection settings
type MongoConfig struct {
	URI      string
	Database string
}

// LoadMongoConfig loads MongoDB settings from environment variables
func LoadMongoConfig() (*MongoConfig, error) {
	cfg := &MongoConfig{
		URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGO_DATABASE", "gold"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the MongoDB configuration is complete
func (c *MongoConfig) Validate() error {
	if c.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.Database == "" {
		return errors.New("MONGO_DATABASE is required")
	}
	return nil
}
