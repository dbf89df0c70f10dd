// Package config loads leaftran settings from defaults, an optional
// leaftran.yaml, a .env file and LEAFTRAN_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "LEAFTRAN"
	ConfigName     = "leaftran"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	ModeDev        = "development"
	ModeProduction = "production"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Translate TranslateConfig `mapstructure:"translate"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
	// URL is where CLI commands reach a running server.
	URL string `mapstructure:"url"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type TranslateConfig struct {
	Services    []string         `mapstructure:"services"`
	Source      string           `mapstructure:"source"`
	Target      string           `mapstructure:"target"`
	Timeout     time.Duration    `mapstructure:"timeout"`
	MaxAttempts int              `mapstructure:"max_attempts"`
	// ChunkSize is the longest text in runes sent in one provider request.
	ChunkSize   int              `mapstructure:"chunk_size"`
	Memory      bool             `mapstructure:"memory"`
	Google      GoogleConfig     `mapstructure:"google"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Ollama      OllamaConfig     `mapstructure:"ollama"`
	MyMemory    MyMemoryConfig   `mapstructure:"mymemory"`
}

type GoogleConfig struct {
	Credentials string `mapstructure:"credentials"`
	APIKey      string `mapstructure:"api_key"`
}

type OpenRouterConfig struct {
	APIKey  string   `mapstructure:"api_key"`
	BaseURL string   `mapstructure:"base_url"`
	Models  []string `mapstructure:"models"`
}

type OllamaConfig struct {
	BaseURL string   `mapstructure:"base_url"`
	Models  []string `mapstructure:"models"`
}

type MyMemoryConfig struct {
	Email string `mapstructure:"email"`
}

// SetDefaults registers every key so environment variables can override keys
// that appear in no config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.mode", ModeProduction)
	v.SetDefault("server.url", "http://localhost:5000")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "leaftran.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)

	v.SetDefault("translate.services", []string{"google"})
	v.SetDefault("translate.source", "heb")
	v.SetDefault("translate.target", "eng")
	v.SetDefault("translate.timeout", 60*time.Second)
	v.SetDefault("translate.max_attempts", 3)
	v.SetDefault("translate.chunk_size", 450)
	v.SetDefault("translate.memory", true)
	v.SetDefault("translate.google.credentials", "")
	v.SetDefault("translate.google.api_key", "")
	v.SetDefault("translate.openrouter.api_key", "")
	v.SetDefault("translate.openrouter.base_url", "")
	v.SetDefault("translate.openrouter.models", []string{})
	v.SetDefault("translate.ollama.base_url", "")
	v.SetDefault("translate.ollama.models", []string{})
	v.SetDefault("translate.mymemory.email", "")
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configFile (or leaftran.yaml from the working directory when
// empty) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{DriverSQLite, DriverRedis}, c.Storage.Driver) {
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", DriverSQLite, DriverRedis, c.Storage.Driver))
	}
	if !slices.Contains([]string{ModeDev, ModeProduction}, c.Server.Mode) {
		errs = append(errs, fmt.Errorf("server.mode must be %q or %q, got %q", ModeDev, ModeProduction, c.Server.Mode))
	}
	if len(c.Translate.Services) == 0 {
		errs = append(errs, errors.New("translate.services must name at least one service"))
	}
	if c.Translate.Target == "" {
		errs = append(errs, errors.New("translate.target is required"))
	}
	return errors.Join(errs...)
}
