package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides. Nested keys use a double
// underscore: QUIZ_REDIS__ADDR sets redis.addr.
const EnvPrefix = "QUIZ_"

type Config struct {
	LogLevel string `koanf:"log_level"`
	Server   struct {
		Port string `koanf:"port"`
	} `koanf:"server"`
	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
		TTL      string `koanf:"ttl"`
	} `koanf:"redis"`
	Postgres struct {
		URL string `koanf:"url"`
	} `koanf:"postgres"`
	Auth struct {
		// Driver is the account store: memory, sqlite or postgres.
		Driver    string `koanf:"driver"`
		DSN       string `koanf:"dsn"`
		JWTSecret string `koanf:"jwt_secret"`
		TokenTTL  string `koanf:"token_ttl"`
	} `koanf:"auth"`
	Quiz struct {
		TTL               string `koanf:"ttl"`
		DefaultArea       string `koanf:"default_area"`
		DefaultDifficulty int    `koanf:"default_difficulty"`
		DefaultCount      int    `koanf:"default_count"`
		AutoAdvanceDelay  string `koanf:"auto_advance_delay"`
		TickInterval      string `koanf:"tick_interval"`
		LeaderboardLimit  int    `koanf:"leaderboard_limit"`
	} `koanf:"quiz"`
	CORS struct {
		Origins []string `koanf:"origins"`
	} `koanf:"cors"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	var c Config
	c.LogLevel = "info"
	c.Server.Port = "8080"
	c.Redis.TTL = "5m"
	c.Auth.Driver = "memory"
	c.Auth.JWTSecret = "change-me"
	c.Auth.TokenTTL = "24h"
	c.Quiz.TTL = "30m"
	c.Quiz.DefaultArea = "Yahlēh"
	c.Quiz.DefaultDifficulty = 1
	c.Quiz.DefaultCount = 10
	c.Quiz.AutoAdvanceDelay = "5s"
	c.Quiz.TickInterval = "1s"
	c.Quiz.LeaderboardLimit = 10
	c.CORS.Origins = []string{"*"}
	return c
}

// Load layers defaults, the YAML file at path (optional; skipped when empty)
// and QUIZ_ environment variables, in increasing precedence.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "cors.origins" {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, err
	}
	if cfg.Server.Port == "" {
		return Config{}, errors.New("server.port must not be empty")
	}
	return cfg, nil
}

// PathFromEnv returns QUIZ_CONFIG when no explicit path was given.
func PathFromEnv(path string) string {
	if path != "" {
		return path
	}
	return os.Getenv(EnvPrefix + "CONFIG")
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
