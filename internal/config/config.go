package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage Storage `yaml:"storage" envPrefix:"STUDYSCOPE_STORAGE_"`
	Server  Server  `yaml:"server" envPrefix:"STUDYSCOPE_SERVER_"`
	Log     Log     `yaml:"log" envPrefix:"STUDYSCOPE_LOG_"`
	Report  Report  `yaml:"report" envPrefix:"STUDYSCOPE_REPORT_"`
}

type Storage struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	// Path is the sqlite database file or the file backend's base directory.
	Path  string `yaml:"path" env:"PATH"`
	Redis Redis  `yaml:"redis" envPrefix:"REDIS_"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Prefix   string `yaml:"prefix" env:"PREFIX"`
}

type Server struct {
	Addr        string        `yaml:"addr" env:"ADDR"`
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
}

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type Report struct {
	Format   string `yaml:"format" env:"FORMAT"`
	Parallel int    `yaml:"parallel" env:"PARALLEL"`
}

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Load reads the YAML file at path, applies STUDYSCOPE_* environment
// overrides, and fills defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		if path == "" {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// ParseEnv loads configuration overrides from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func validate(cfg *Config) error {
	s := &cfg.Storage
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = BackendSQLite
	}
	switch s.Backend {
	case BackendMemory:
	case BackendSQLite:
		if s.Path == "" {
			s.Path = "studyscope.db"
		}
	case BackendFile:
		if s.Path == "" {
			s.Path = "studies"
		}
	case BackendRedis:
		if s.Redis.Addr == "" {
			s.Redis.Addr = "localhost:6379"
		}
		if s.Redis.DB < 0 {
			return fmt.Errorf("storage.redis.db must not be negative")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must not be negative")
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}

	switch cfg.Report.Format {
	case "":
		cfg.Report.Format = "table"
	case "table", "markdown", "json":
	default:
		return fmt.Errorf("unknown report format %q", cfg.Report.Format)
	}
	if cfg.Report.Parallel == 0 {
		cfg.Report.Parallel = 4
	}
	if cfg.Report.Parallel < 0 {
		return fmt.Errorf("report.parallel must be at least 1")
	}
	return nil
}
