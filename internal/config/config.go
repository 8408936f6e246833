package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from an optional config file
// and environment variables.
type Config struct {
	Env         string        `mapstructure:"env"`          // local, dev, production
	HTTPAddr    string        `mapstructure:"http_addr"`    // listen address
	CatalogPath string        `mapstructure:"catalog_path"` // path to the quiz spec JSON
	CORSOrigins []string      `mapstructure:"cors_origins"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`

	Store Store `mapstructure:"store"`
}

// Store selects and configures the progress/account backend.
type Store struct {
	Backend string `mapstructure:"backend"` // memory|sql|redis

	DBDriver string `mapstructure:"db_driver"` // sqlite|postgres
	DBDSN    string `mapstructure:"-"`         // from DATABASE_URL

	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("catalog_path", "assets/quiz_spec.json")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("store.backend", "sql")
	v.SetDefault("store.db_driver", "sqlite")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("http_addr", "HTTP_ADDR")
	_ = v.BindEnv("catalog_path", "CATALOG_PATH")
	_ = v.BindEnv("store.backend", "STORE_BACKEND")
	_ = v.BindEnv("store.db_driver", "DB_DRIVER")
	_ = v.BindEnv("store.redis_addr", "REDIS_ADDR")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.Store.DBDSN = v.GetString("database_url")

	switch cfg.Store.Backend {
	case "memory", "sql", "redis":
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return &cfg, nil
}
