// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mediashelf/mediashelf-server/internal/domain"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Cache     CacheConfig
	Providers ProvidersConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
type DataConfig struct {
	// BasePath holds the badger database and the search index.
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)

	// CORSAllowedOrigins lists origins allowed to call the API (default: *).
	CORSAllowedOrigins []string
}

// CacheConfig holds the freshness policy settings.
type CacheConfig struct {
	// FreshnessWindow is how long a refreshed record is reused (default: 24h).
	FreshnessWindow time.Duration
	// PermanentTypes are never refetched once cached (default: movie,book,game).
	PermanentTypes []domain.MediaType
	// RetryIncompleteTypes are refetched while their status is "Unknown" (default: comic).
	RetryIncompleteTypes []domain.MediaType
}

// ProvidersConfig holds upstream metadata provider settings.
type ProvidersConfig struct {
	// Timeout bounds every upstream call (default: 10s).
	Timeout   time.Duration
	Jikan     ProviderEndpoint
	TMDB      ProviderEndpoint
	ComicVine ProviderEndpoint
}

// ProviderEndpoint is the base URL and optional API key of one provider.
type ProviderEndpoint struct {
	BaseURL string
	APIKey  string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for the cache database and search index")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Cache flags
	freshnessWindow := flag.String("freshness-window", "", "How long cached metadata is reused (default: 24h)")
	permanentTypes := flag.String("permanent-types", "", "Media types never refetched once cached (default: movie,book,game)")
	retryIncomplete := flag.String("retry-incomplete-types", "", "Media types refetched while status is Unknown (default: comic)")

	// Provider flags
	providerTimeout := flag.String("provider-timeout", "", "Upstream call timeout (default: 10s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:               getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSAllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "*")),
		},
		Providers: ProvidersConfig{
			Jikan: ProviderEndpoint{
				BaseURL: getConfigValue("", "JIKAN_BASE_URL", "https://api.jikan.moe/v4"),
			},
			TMDB: ProviderEndpoint{
				BaseURL: getConfigValue("", "TMDB_BASE_URL", "https://api.themoviedb.org/3"),
				APIKey:  getConfigValue("", "TMDB_API_KEY", ""),
			},
			ComicVine: ProviderEndpoint{
				BaseURL: getConfigValue("", "COMICVINE_BASE_URL", "https://comicvine.gamespot.com/api"),
				APIKey:  getConfigValue("", "COMICVINE_API_KEY", ""),
			},
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Cache.FreshnessWindow, err = getDurationConfigValue(*freshnessWindow, "CACHE_FRESHNESS_WINDOW", "24h"); err != nil {
		return nil, fmt.Errorf("invalid freshness window: %w", err)
	}
	if cfg.Providers.Timeout, err = getDurationConfigValue(*providerTimeout, "PROVIDER_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid provider timeout: %w", err)
	}

	if cfg.Cache.PermanentTypes, err = parseMediaTypes(getConfigValue(*permanentTypes, "CACHE_PERMANENT_TYPES", "movie,book,game")); err != nil {
		return nil, fmt.Errorf("invalid permanent types: %w", err)
	}
	if cfg.Cache.RetryIncompleteTypes, err = parseMediaTypes(getConfigValue(*retryIncomplete, "CACHE_RETRY_INCOMPLETE_TYPES", "comic")); err != nil {
		return nil, fmt.Errorf("invalid retry-incomplete types: %w", err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Cache.FreshnessWindow <= 0 {
		return fmt.Errorf("freshness window must be positive, got %s", c.Cache.FreshnessWindow)
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.Providers.Timeout)
	}

	for _, t := range append(append([]domain.MediaType{}, c.Cache.PermanentTypes...), c.Cache.RetryIncompleteTypes...) {
		if !t.Valid() {
			return fmt.Errorf("unknown media type in cache policy: %q", t)
		}
	}

	return nil
}

// parseMediaTypes parses a comma-separated list of media type names.
// Legacy plural names are accepted. An empty list is allowed.
func parseMediaTypes(s string) ([]domain.MediaType, error) {
	var types []domain.MediaType
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, ok := domain.ParseMediaType(part)
		if !ok {
			return nil, fmt.Errorf("unknown media type %q", part)
		}
		types = append(types, t)
	}
	return types, nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "MediaShelf", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", envKey, s, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
