package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Question sources.
const (
	SourceOpenTDB = "opentdb"
	SourceStatic  = "static"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Store struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Trivia struct {
		Source     string `yaml:"source"`
		BaseURL    string `yaml:"base_url"`
		Category   int    `yaml:"category"`
		Difficulty string `yaml:"difficulty"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"trivia"`
	Quiz struct {
		Questions int    `yaml:"questions"`
		Duration  string `yaml:"duration"`
	} `yaml:"quiz"`
	Sound struct {
		Mute bool `yaml:"mute"`
	} `yaml:"sound"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Store.Driver = DriverSQLite
	cfg.Store.Path = "quiz-master.db"
	cfg.Redis.Prefix = "quiz"
	cfg.Trivia.Source = SourceOpenTDB
	cfg.Trivia.BaseURL = "https://opentdb.com"
	cfg.Trivia.Timeout = "10s"
	cfg.Quiz.Questions = 10
	cfg.Quiz.Duration = "60s"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Trivia.Source {
	case SourceOpenTDB, SourceStatic:
	default:
		return fmt.Errorf("unknown trivia source %q", c.Trivia.Source)
	}
	if c.Quiz.Questions <= 0 {
		return fmt.Errorf("quiz.questions must be positive, got %d", c.Quiz.Questions)
	}
	if c.Store.Driver == DriverRedis && c.Redis.Addr == "" {
		return errors.New("redis.addr not configured")
	}
	if c.Store.Driver == DriverPostgres && c.Postgres.URL == "" {
		return errors.New("postgres.url not configured")
	}
	return nil
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
