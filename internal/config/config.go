package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dest-ash/bnncache/internal/types"
	"github.com/dest-ash/bnncache/internal/utils"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.json"
	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "BNNCACHE_"
)

// Config holds application configuration
type Config struct {
	// CacheDir overrides the cache location; empty means
	// ~/.bnn_for_14C_calibration
	CacheDir string `json:"cacheDir"`

	// RepoOwner and RepoName identify the GitHub repository that hosts
	// the model artifacts
	RepoOwner string `json:"repoOwner"`
	RepoName  string `json:"repoName"`

	// RemoteFolder is the repository subfolder mirrored into the cache
	RemoteFolder string `json:"remoteFolder"`

	// APIBaseURL and RawBaseURL point at the GitHub API and raw content
	// hosts; only changed for tests or GitHub Enterprise
	APIBaseURL string `json:"apiBaseUrl"`
	RawBaseURL string `json:"rawBaseUrl"`

	// DriveAPIKey authenticates Google Drive downloads of publicly
	// shared override files; empty means unauthenticated access
	DriveAPIKey string `json:"driveApiKey,omitempty"`

	// MaxRetries is the number of retry rounds for deferred fetches
	MaxRetries int `json:"maxRetries"`

	// RetryBaseDelay is the pause between retry rounds in milliseconds
	RetryBaseDelay int `json:"retryBaseDelay"`

	// RequestTimeout is the per-request timeout in seconds
	RequestTimeout int `json:"requestTimeout"`

	// RequestDelay is the rate-limiting pause after every fetch attempt
	// in milliseconds
	RequestDelay int `json:"requestDelay"`

	// DefaultOutputFormat is the default output format (json, table)
	DefaultOutputFormat types.OutputFormat `json:"defaultOutputFormat"`

	// LogLevel sets the logging verbosity (quiet, normal, verbose, debug)
	LogLevel string `json:"logLevel"`

	// ColorOutput enables color output for console logging
	ColorOutput bool `json:"colorOutput"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheDir:            "",
		RepoOwner:           utils.DefaultRepoOwner,
		RepoName:            utils.DefaultRepoName,
		RemoteFolder:        utils.DefaultRemoteFolder,
		APIBaseURL:          utils.GitHubAPIBaseURL,
		RawBaseURL:          utils.GitHubRawBaseURL,
		MaxRetries:          utils.DefaultMaxRetries,
		RetryBaseDelay:      utils.DefaultRetryBaseDelayMs,
		RequestTimeout:      utils.DefaultRequestTimeoutSec,
		RequestDelay:        utils.DefaultRequestDelayMs,
		DefaultOutputFormat: types.OutputFormatTable,
		LogLevel:            "normal",
		ColorOutput:         true,
	}
}

// Load loads configuration with precedence: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file not existing is not an error
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv(EnvPrefix + "CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv(EnvPrefix + "REPO_OWNER"); v != "" {
		c.RepoOwner = v
	}
	if v := os.Getenv(EnvPrefix + "REPO_NAME"); v != "" {
		c.RepoName = v
	}
	if v := os.Getenv(EnvPrefix + "REMOTE_FOLDER"); v != "" {
		c.RemoteFolder = v
	}
	if v := os.Getenv(EnvPrefix + "API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "RAW_BASE_URL"); v != "" {
		c.RawBaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "DRIVE_API_KEY"); v != "" {
		c.DriveAPIKey = v
	}
	if v := os.Getenv(EnvPrefix + "MAX_RETRIES"); v != "" {
		if retries, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = retries
		}
	}
	if v := os.Getenv(EnvPrefix + "RETRY_BASE_DELAY"); v != "" {
		if delay, err := strconv.Atoi(v); err == nil {
			c.RetryBaseDelay = delay
		}
	}
	if v := os.Getenv(EnvPrefix + "REQUEST_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			c.RequestTimeout = timeout
		}
	}
	if v := os.Getenv(EnvPrefix + "REQUEST_DELAY"); v != "" {
		if delay, err := strconv.Atoi(v); err == nil {
			c.RequestDelay = delay
		}
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT_FORMAT"); v != "" {
		c.DefaultOutputFormat = types.OutputFormat(v)
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "COLOR_OUTPUT"); v != "" {
		c.ColorOutput = parseBool(v)
	}
}

// Save saves the configuration to the config file
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Restricted permissions: the file may carry a Drive API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.RepoOwner == "" || c.RepoName == "" {
		return fmt.Errorf("repository owner and name must be set")
	}

	if c.RemoteFolder == "" {
		return fmt.Errorf("remote folder must be set")
	}

	if c.DefaultOutputFormat != types.OutputFormatJSON &&
		c.DefaultOutputFormat != types.OutputFormatTable {
		return fmt.Errorf("invalid output format: %s (must be 'json' or 'table')", c.DefaultOutputFormat)
	}

	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max retries must be between 0 and 10, got: %d", c.MaxRetries)
	}

	if c.RetryBaseDelay < 0 || c.RetryBaseDelay > 60000 {
		return fmt.Errorf("retry base delay must be between 0ms and 60000ms, got: %d", c.RetryBaseDelay)
	}

	if c.RequestTimeout < 1 || c.RequestTimeout > 3600 {
		return fmt.Errorf("request timeout must be between 1 and 3600 seconds, got: %d", c.RequestTimeout)
	}

	if c.RequestDelay < 0 || c.RequestDelay > 60000 {
		return fmt.Errorf("request delay must be between 0ms and 60000ms, got: %d", c.RequestDelay)
	}

	validLogLevels := []string{"quiet", "normal", "verbose", "debug"}
	isValid := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			isValid = true
			break
		}
	}
	if !isValid {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// GetCacheDir returns the resolved cache directory path
func (c *Config) GetCacheDir() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, utils.CacheDirName), nil
}

// GetRetryBaseDelay returns the retry round delay as a duration
func (c *Config) GetRetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelay) * time.Millisecond
}

// GetRequestTimeout returns the request timeout as a duration
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetRequestDelay returns the inter-request delay as a duration
func (c *Config) GetRequestDelay() time.Duration {
	return time.Duration(c.RequestDelay) * time.Millisecond
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "bnncache"), nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
