package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Query     QueryConfig     `yaml:"query"`
	Aggregate AggregateConfig `yaml:"aggregate"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Activity  ActivityConfig  `yaml:"activity"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// DBConfig locates the SQLite database used for documents and the activity log.
type DBConfig struct {
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Backend   string          `yaml:"backend"`
	Firestore FirestoreConfig `yaml:"firestore"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Database        string `yaml:"database"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// QueryConfig bounds filtered queries over the universal collection.
type QueryConfig struct {
	PageSize        int `yaml:"page_size"`
	MaxFilterValues int `yaml:"max_filter_values"`
}

type AggregateConfig struct {
	Parallel bool `yaml:"parallel"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ActivityConfig bounds the activity log. Entries older than RetentionDays
// are pruned when the server starts; zero keeps everything.
type ActivityConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		DB: DBConfig{
			Path: "arcview.db",
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		Log: LogConfig{
			Level: "info",
		},
		Query: QueryConfig{
			PageSize:        500,
			MaxFilterValues: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Activity: ActivityConfig{
			RetentionDays: 30,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("ARC_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("ARC_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("ARC_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ARC_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("ARC_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = strings.ToLower(mode)
	}
	if dbPath := os.Getenv("ARC_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if backend := os.Getenv("ARC_STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = strings.ToLower(backend)
	}
	if project := os.Getenv("ARC_FIRESTORE_PROJECT"); project != "" {
		cfg.Store.Firestore.ProjectID = project
	}
	if creds := os.Getenv("ARC_FIRESTORE_CREDENTIALS"); creds != "" {
		cfg.Store.Firestore.CredentialsFile = creds
	}
	if level := os.Getenv("ARC_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if parallel := os.Getenv("ARC_AGGREGATE_PARALLEL"); parallel != "" {
		v, err := strconv.ParseBool(parallel)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ARC_AGGREGATE_PARALLEL: %w", err)
		}
		cfg.Aggregate.Parallel = v
	}

	if days := os.Getenv("ARC_ACTIVITY_RETENTION_DAYS"); days != "" {
		v, err := strconv.Atoi(days)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ARC_ACTIVITY_RETENTION_DAYS: %w", err)
		}
		cfg.Activity.RetentionDays = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if c.DB.Path == "" {
			return errors.New("db path is required for the sqlite backend")
		}
	case BackendFirestore:
		if c.Store.Firestore.ProjectID == "" {
			return errors.New("firestore project id is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Query.PageSize <= 0 {
		return fmt.Errorf("query page size must be positive, got %d", c.Query.PageSize)
	}
	if c.Query.MaxFilterValues <= 0 {
		return fmt.Errorf("max filter values must be positive, got %d", c.Query.MaxFilterValues)
	}
	if c.Activity.RetentionDays < 0 {
		return fmt.Errorf("activity retention days must not be negative, got %d", c.Activity.RetentionDays)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
