package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errs []error
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if cfg.ServerPort == "" {
		add("server_port", "is required")
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			add("db_host", "is required for postgres")
		}
		if cfg.DBName == "" {
			add("db_name", "is required for postgres")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("sqlite_path", "is required for sqlite")
		}
	default:
		add("db_driver", "must be postgres or sqlite")
	}

	switch cfg.StorageBackend {
	case "local":
		if cfg.MediaRoot == "" {
			add("media_root", "is required for local storage")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			add("s3_bucket", "is required for s3 storage")
		}
	default:
		add("storage_backend", "must be local or s3")
	}

	if cfg.JWTTTL <= 0 {
		add("jwt_ttl", "must be positive")
	}
	if cfg.RateLimit < 0 {
		add("rate_limit", "must not be negative")
	}

	// Sensitive values are mandatory outside local development
	if env == CI || env == Production {
		if cfg.JWTSecret == "" {
			add("jwt_secret", "secret is required")
		}
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			add("db_password", "secret is required")
		}
	} else if cfg.JWTSecret == "" {
		add("jwt_secret", "secret is required")
	}

	return errors.Join(errs...)
}
