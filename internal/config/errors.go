package config

import "errors"

var (
	ErrReadingConfigFile     = errors.New("failed to read config file")
	ErrUnmarshallingConfig   = errors.New("failed to unmarshal config")
	ErrConfigFileMissing     = errors.New("config file not found")
	ErrUnknownSourceType     = errors.New("source type must be 'csv' or 'kafka'")
	ErrEmptyCSVPath          = errors.New("csv source path cannot be empty")
	ErrEmptyKafkaBrokers     = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic       = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID     = errors.New("kafka groupID cannot be empty")
	ErrNoSinksConfigured     = errors.New("at least one sink (csv, sqlite, kafka) must be configured")
	ErrInvalidDetectorConfig = errors.New("invalid detector configuration")
)
