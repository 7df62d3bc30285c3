package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string
	JWTTTL    time.Duration

	// Image storage
	StorageBackend string
	MediaRoot      string
	MediaURL       string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PathStyle    bool
	S3PublicURL    string
	S3AccessKey    string
	S3SecretKey    string

	// Logging
	LogLevel  string
	LogPretty bool

	// HTTP middleware
	CORSOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration
}

// secretKeys are read from SECRETS_DIR when present and override env values.
var secretKeys = []string{
	"db_user",
	"db_password",
	"jwt_secret",
	"redis_password",
	"s3_access_key",
	"s3_secret_key",
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)

	// Load sensitive values based on environment
	switch env {
	case CI:
		loadCISecrets(cfg)
	case Development, Test, Production:
		loadDockerSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", "8080")
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_name", "foodgram")
	v.SetDefault("db_ssl_mode", "disable")
	v.SetDefault("sqlite_path", "foodgram.db")
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("storage_backend", "local")
	v.SetDefault("media_root", "media")
	v.SetDefault("media_url", "/media/")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("rate_limit", 60)
	v.SetDefault("rate_limit_window", "1m")
	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		ServerPort:      v.GetString("server_port"),
		ServerHost:      v.GetString("server_host"),
		DBDriver:        strings.ToLower(v.GetString("db_driver")),
		DBHost:          v.GetString("db_host"),
		DBPort:          v.GetString("db_port"),
		DBUser:          v.GetString("db_user"),
		DBPassword:      v.GetString("db_password"),
		DBName:          v.GetString("db_name"),
		DBSSLMode:       v.GetString("db_ssl_mode"),
		SQLitePath:      v.GetString("sqlite_path"),
		RedisURL:        v.GetString("redis_url"),
		RedisHost:       v.GetString("redis_host"),
		RedisPort:       v.GetString("redis_port"),
		RedisPassword:   v.GetString("redis_password"),
		RedisDB:         v.GetInt("redis_db"),
		JWTSecret:       v.GetString("jwt_secret"),
		JWTTTL:          v.GetDuration("jwt_ttl"),
		StorageBackend:  strings.ToLower(v.GetString("storage_backend")),
		MediaRoot:       v.GetString("media_root"),
		MediaURL:        v.GetString("media_url"),
		S3Bucket:        v.GetString("s3_bucket"),
		S3Region:        v.GetString("s3_region"),
		S3Endpoint:      v.GetString("s3_endpoint"),
		S3PathStyle:     v.GetBool("s3_path_style"),
		S3PublicURL:     v.GetString("s3_public_url"),
		S3AccessKey:     v.GetString("s3_access_key"),
		S3SecretKey:     v.GetString("s3_secret_key"),
		LogLevel:        v.GetString("log_level"),
		LogPretty:       v.GetBool("log_pretty"),
		CORSOrigins:     splitList(v.GetString("cors_origins")),
		RateLimit:       v.GetInt("rate_limit"),
		RateLimitWindow: v.GetDuration("rate_limit_window"),
	}
}

// loadCISecrets reads sensitive values from the TEST_* variables set by GitHub Actions
func loadCISecrets(cfg *Config) {
	if s := os.Getenv("TEST_DB_PASSWORD"); s != "" {
		cfg.DBPassword = s
	}
	if s := os.Getenv("TEST_JWT_SECRET"); s != "" {
		cfg.JWTSecret = s
	}
	if s := os.Getenv("TEST_REDIS_PASSWORD"); s != "" {
		cfg.RedisPassword = s
	}
	if s := os.Getenv("TEST_REDIS_URL"); s != "" {
		cfg.RedisURL = s
	}
}

// loadDockerSecrets overrides sensitive values with Docker secrets when they exist
func loadDockerSecrets(cfg *Config) {
	targets := map[string]*string{
		"db_user":        &cfg.DBUser,
		"db_password":    &cfg.DBPassword,
		"jwt_secret":     &cfg.JWTSecret,
		"redis_password": &cfg.RedisPassword,
		"s3_access_key":  &cfg.S3AccessKey,
		"s3_secret_key":  &cfg.S3SecretKey,
	}
	for _, name := range secretKeys {
		if value := readSecret(name); value != "" {
			*targets[name] = value
		}
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
