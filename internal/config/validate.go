package config

import (
	"fmt"

	"github.com/KilimcininKorOglu/obatxn/internal/storage/wal"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the configuration and returns a list of validation errors.
// An empty slice indicates the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error

	errs = append(errs, validateStorageConfig(&config.Storage)...)
	errs = append(errs, validateLogConfig(&config.Logging)...)

	if config.Metrics.Enabled && config.Metrics.Namespace == "" {
		errs = append(errs, ValidationError{
			Field:   "metrics.namespace",
			Message: "namespace is required when metrics are enabled",
		})
	}

	return errs
}

func validateStorageConfig(config *StorageConfig) []error {
	var errs []error

	if config.DataDir == "" {
		errs = append(errs, ValidationError{Field: "storage.data_dir", Message: "data directory is required"})
	}
	if config.WALFile == "" {
		errs = append(errs, ValidationError{Field: "storage.wal_file", Message: "WAL file name is required"})
	}
	if config.WALBufferSize < 0 || config.WALBufferSize > wal.MaxPayloadSize {
		errs = append(errs, ValidationError{
			Field:   "storage.wal_buffer_size",
			Message: fmt.Sprintf("must be between 0 and %d", wal.MaxPayloadSize),
		})
	}

	return errs
}

func validateLogConfig(config *LogConfig) []error {
	var errs []error

	switch config.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q", config.Level),
		})
	}

	switch config.Format {
	case "json", "text":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format %q", config.Format),
		})
	}

	return errs
}
