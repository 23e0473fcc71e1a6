package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment overrides: ANNOSKEMA_TEMPLATES_DIR,
// ANNOSKEMA_REDIS_ADDR, ANNOSKEMA_LOG_LEVEL and so on.
const EnvPrefix = "ANNOSKEMA"

// Template sources.
const (
	SourceDir   = "dir"
	SourceRedis = "redis"
)

// Config is the annoskema configuration.
type Config struct {
	Templates  TemplatesConfig  `mapstructure:"templates"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Validation ValidationConfig `mapstructure:"validation"`
	Lang       string           `mapstructure:"lang"`
}

// TemplatesConfig selects where templates come from.
type TemplatesConfig struct {
	Source string   `mapstructure:"source"`
	Dir    string   `mapstructure:"dir"`
	Ext    []string `mapstructure:"ext"`
	Watch  bool     `mapstructure:"watch"`
}

// RedisConfig holds Redis connection and key settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Prefix is prepended to template ids to form keys.
	Prefix string `mapstructure:"prefix"`
	// Channel carries invalidation messages; empty disables the subscription.
	Channel string `mapstructure:"channel"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ValidationConfig struct {
	RejectUnknown bool `mapstructure:"reject_unknown"`
}

// Load reads configuration from file (annoskema.yaml in the working
// directory when path is empty) and ANNOSKEMA_* environment variables. A
// missing default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("templates.source", SourceDir)
	v.SetDefault("templates.dir", "templates")
	v.SetDefault("templates.ext", []string{".yaml", ".yml", ".json"})
	v.SetDefault("templates.watch", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "annoskema:template:")
	v.SetDefault("redis.channel", "annoskema:invalidate")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("validation.reject_unknown", false)
	v.SetDefault("lang", "en")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("annoskema")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Templates.Source {
	case SourceDir:
		if cfg.Templates.Dir == "" {
			return errors.New("templates.dir must be set for the dir source")
		}
	case SourceRedis:
		if cfg.Redis.Addr == "" {
			return errors.New("redis.addr must be set for the redis source")
		}
		if cfg.Templates.Watch {
			return errors.New("templates.watch applies to the dir source only")
		}
	default:
		return fmt.Errorf("templates.source must be %q or %q, got: %s", SourceDir, SourceRedis, cfg.Templates.Source)
	}
	for _, ext := range cfg.Templates.Ext {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("templates.ext entries must start with '.', got: %s", ext)
		}
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json, got: %s", cfg.Log.Format)
	}
	if cfg.Lang != "en" && cfg.Lang != "zh" {
		return fmt.Errorf("lang must be en or zh, got: %s", cfg.Lang)
	}
	return nil
}

// NewLogger builds a zap logger writing to stderr.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
