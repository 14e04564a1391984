package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigDirPerm is the permission for the config directory (0700 = rwx------)
	ConfigDirPerm os.FileMode = 0700
	// ConfigFilePerm is the permission for the config file (0600 = rw-------)
	// Restrictive permissions protect the API key from being read by other users
	ConfigFilePerm os.FileMode = 0600

	// DirName is the directory under $HOME holding config, cache and logs
	DirName = ".esmify"

	DefaultProvider           = "gemini"
	DefaultModel              = "gemini-3-pro-preview"
	DefaultTemperature        = 0.1
	DefaultThinkingBudget     = 4096
	DefaultHighlightThreshold = 20000
	DefaultOutputFile         = "migrated-output.js"
)

// EnvAPIKeys lists the environment variables consulted for the credential, in order
var EnvAPIKeys = []string{"API_KEY", "GEMINI_API_KEY"}

type Config struct {
	Provider              string  `mapstructure:"provider"`
	APIKey                string  `mapstructure:"api_key"`
	Model                 string  `mapstructure:"model"`
	Temperature           float32 `mapstructure:"temperature"`
	ThinkingBudget        int     `mapstructure:"thinking_budget"`
	HighlightThreshold    int     `mapstructure:"highlight_threshold"`
	HighlightStyle        string  `mapstructure:"highlight_style"`
	OutputFile            string  `mapstructure:"output_file"`
	InlineTransportErrors bool    `mapstructure:"inline_transport_errors"`
	CacheEnabled          bool    `mapstructure:"cache_enabled"`
	CacheTTLDays          int     `mapstructure:"cache_ttl_days"`
	RateLimitEnabled      bool    `mapstructure:"rate_limit_enabled"`
	RateLimitRequests     int     `mapstructure:"rate_limit_requests"`
	RateLimitWindow       int     `mapstructure:"rate_limit_window_seconds"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds"`
	LogFile               string  `mapstructure:"log_file"`
	LogLevel              string  `mapstructure:"log_level"`
}

// Dir returns the esmify directory under the user's home
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

func setDefaults(configPath string) {
	viper.SetDefault("provider", DefaultProvider)
	viper.SetDefault("model", DefaultModel)
	viper.SetDefault("temperature", DefaultTemperature)
	viper.SetDefault("thinking_budget", DefaultThinkingBudget)
	viper.SetDefault("highlight_threshold", DefaultHighlightThreshold)
	viper.SetDefault("highlight_style", "monokai")
	viper.SetDefault("output_file", DefaultOutputFile)
	viper.SetDefault("inline_transport_errors", true)
	viper.SetDefault("cache_enabled", false) // nothing is persisted unless asked for
	viper.SetDefault("cache_ttl_days", 7)
	viper.SetDefault("rate_limit_enabled", false)
	viper.SetDefault("rate_limit_requests", 10)
	viper.SetDefault("rate_limit_window_seconds", 60)
	viper.SetDefault("request_timeout_seconds", 0) // 0 = wait for the transport
	viper.SetDefault("log_file", filepath.Join(configPath, "esmify.log"))
	viper.SetDefault("log_level", "info")
}

func bindEnv() error {
	viper.SetEnvPrefix("ESMIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// api_key also honours the bare variables the hosting environment sets
	keys := append([]string{"api_key", "ESMIFY_API_KEY"}, EnvAPIKeys...)
	if err := viper.BindEnv(keys...); err != nil {
		return fmt.Errorf("failed to bind environment: %w", err)
	}
	return nil
}

func Load() (*Config, error) {
	configPath, err := Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	setDefaults(configPath)
	if err := bindEnv(); err != nil {
		return nil, err
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; create directory and fall through to defaults
		if err := os.MkdirAll(configPath, ConfigDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	return &config, nil
}

// fileViper reads only the config file: no defaults and no environment, so
// writing it back never persists values that came from elsewhere.
func fileViper() (*viper.Viper, string, error) {
	configPath, err := Dir()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(configPath, ConfigDirPerm); err != nil {
		return nil, "", fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	if _, err := os.Stat(configFile); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, configFile, nil
}

func writeFileViper(v *viper.Viper, configFile string) error {
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(configFile, ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	return nil
}

// envAPIKey returns the credential supplied by the environment, if any
func envAPIKey() string {
	for _, name := range append([]string{"ESMIFY_API_KEY"}, EnvAPIKeys...) {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

func Save(cfg *Config) error {
	v, configFile, err := fileViper()
	if err != nil {
		return err
	}

	v.Set("provider", cfg.Provider)
	if env := envAPIKey(); env == "" || cfg.APIKey != env {
		v.Set("api_key", cfg.APIKey)
	}
	v.Set("model", cfg.Model)
	v.Set("temperature", cfg.Temperature)
	v.Set("thinking_budget", cfg.ThinkingBudget)
	v.Set("highlight_threshold", cfg.HighlightThreshold)
	v.Set("highlight_style", cfg.HighlightStyle)
	v.Set("output_file", cfg.OutputFile)
	v.Set("inline_transport_errors", cfg.InlineTransportErrors)
	v.Set("cache_enabled", cfg.CacheEnabled)
	v.Set("cache_ttl_days", cfg.CacheTTLDays)
	v.Set("rate_limit_enabled", cfg.RateLimitEnabled)
	v.Set("rate_limit_requests", cfg.RateLimitRequests)
	v.Set("rate_limit_window_seconds", cfg.RateLimitWindow)
	v.Set("request_timeout_seconds", cfg.RequestTimeoutSeconds)
	v.Set("log_file", cfg.LogFile)
	v.Set("log_level", cfg.LogLevel)

	return writeFileViper(v, configFile)
}

func Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("config key cannot be empty")
	}

	key = strings.TrimSpace(key)
	if strings.ContainsAny(key, " \t\n\r") {
		return fmt.Errorf("config key contains invalid characters")
	}

	v, configFile, err := fileViper()
	if err != nil {
		return err
	}
	v.Set(key, value)
	return writeFileViper(v, configFile)
}

func Get(key string) interface{} {
	if key == "" {
		return nil
	}

	configPath, err := Dir()
	if err != nil {
		return nil
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	setDefaults(configPath)
	_ = bindEnv()
	_ = viper.ReadInConfig() // Ignore error if config doesn't exist
	return viper.Get(key)
}

// SetupInstructions describes how to supply a credential; shown when none is configured
func SetupInstructions() string {
	return "1. For local use: export API_KEY=your_key (or GEMINI_API_KEY).\n" +
		"2. Or store it: esmify config set api_key YOUR_KEY"
}
