package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort                 = "8080"
	defaultDBDriver             = "sqlite"
	defaultStoragePath          = "./.catalog"
	defaultLogLevel             = "info"
	defaultGenerateCount        = 100
	defaultGenerateMaxCount     = 10000
	defaultSearchMaxTermLength  = 1000
	defaultServerReadTimeout    = 15 * time.Second
	defaultServerWriteTimeout   = 60 * time.Second
	defaultDBFileName           = "catalog.db"
	defaultKVDBFileName         = "runs.db"
	defaultRequestHeaderTimeout = 5 * time.Second
)

type Config struct {
	env    string
	config *viper.Viper
}

// Load reads config/config.<ENV>.yaml (ENV defaults to "local") and lets
// environment variables override any value found there.
func Load() (*Config, error) {

	env := os.Getenv(keyEnv)
	if len(env) == 0 {
		env = envLocal
	}

	viperConfig := viper.New()
	configPath, err := getConfigPath(env)
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		env:    env,
		config: viperConfig,
	}

	return cfg, nil
}

func (c *Config) GetEnvironment() string {
	return c.env
}

func (c *Config) GetPort() string {
	return c.getString("PORT", "server.port", defaultPort)
}

func (c *Config) GetReadTimeout() time.Duration {
	return c.getDuration("SERVER_READ_TIMEOUT", "server.read_timeout", defaultServerReadTimeout)
}

func (c *Config) GetWriteTimeout() time.Duration {
	return c.getDuration("SERVER_WRITE_TIMEOUT", "server.write_timeout", defaultServerWriteTimeout)
}

func (c *Config) GetReadHeaderTimeout() time.Duration {
	return defaultRequestHeaderTimeout
}

func (c *Config) GetDBDriver() string {
	return c.getString("DB_DRIVER", "database.driver", defaultDBDriver)
}

// GetDBDSN returns the connection string for the product database. For sqlite
// it falls back to the database file path.
func (c *Config) GetDBDSN() string {
	dsn := c.getString("DB_DSN", "database.dsn", "")
	if len(dsn) == 0 && c.GetDBDriver() == defaultDBDriver {
		return c.GetDBPath()
	}

	return dsn
}

func (c *Config) GetDBPath() string {
	return c.getString("DB_PATH", "database.path", filepath.Join(c.GetStoragePath(), defaultDBFileName))
}

func (c *Config) GetKVDBPath() string {
	return c.getString("KVDB_PATH", "database.kvdb_path", filepath.Join(c.GetStoragePath(), defaultKVDBFileName))
}

func (c *Config) GetStoragePath() string {
	return c.getString("STORAGE_PATH", "database.storage_path", defaultStoragePath)
}

func (c *Config) GetLogLevel() string {
	return c.getString("LOG_LEVEL", "log.level", defaultLogLevel)
}

func (c *Config) GetGenerateDefaultCount() int {
	return c.getInt("GENERATE_DEFAULT_COUNT", "generate.default_count", defaultGenerateCount)
}

func (c *Config) GetGenerateMaxCount() int {
	return c.getInt("GENERATE_MAX_COUNT", "generate.max_count", defaultGenerateMaxCount)
}

func (c *Config) GetSearchMaxTermLength() int {
	return c.getInt("SEARCH_MAX_TERM_LENGTH", "search.max_term_length", defaultSearchMaxTermLength)
}

func (c *Config) getString(envKey string, fileKey string, fallback string) string {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(fileKey)
	}
	if len(value) == 0 {
		value = fallback
	}

	return value
}

func (c *Config) getInt(envKey string, fileKey string, fallback int) int {
	if c.config.IsSet(envKey) {
		return c.config.GetInt(envKey)
	}
	if c.config.IsSet(fileKey) {
		return c.config.GetInt(fileKey)
	}

	return fallback
}

func (c *Config) getDuration(envKey string, fileKey string, fallback time.Duration) time.Duration {
	if c.config.IsSet(envKey) {
		return c.config.GetDuration(envKey)
	}
	if c.config.IsSet(fileKey) {
		return c.config.GetDuration(fileKey)
	}

	return fallback
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "path", configPath)
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
