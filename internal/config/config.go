package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Store    StoreConfig    `yaml:"store"`
	HTTP     HTTPConfig     `yaml:"http"`
	Graph    GraphConfig    `yaml:"graph"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig controls the merge, sample and report stages.
type PipelineConfig struct {
	SampleSize int `yaml:"sampleSize" validate:"gte=1"`
	// MaxAttempts is fixed and cannot be overridden.
	MaxAttempts   int    `yaml:"-" validate:"gte=1"`
	Seed          int64  `yaml:"seed"`
	DataDir       string `yaml:"dataDir" validate:"required"`
	CheckInsFile  string `yaml:"checkInsFile" validate:"required"`
	EdgesFile     string `yaml:"edgesFile" validate:"required"`
	CombinedFile  string `yaml:"combinedFile" validate:"required"`
	SampledFile   string `yaml:"sampledFile" validate:"required"`
	GraphFile     string `yaml:"graphFile" validate:"required"`
	ExportWorkers int    `yaml:"exportWorkers" validate:"gte=1"`
}

// StoreConfig locates the SQLite document store.
type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	AllowedOriginsCSV string        `yaml:"allowedOrigins"`
}

// GraphConfig describes connectivity to the graph database (Neo4j). An empty
// URI disables graph export.
type GraphConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxConnections int    `yaml:"maxConnections" validate:"gte=0"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format        string `yaml:"format" validate:"oneof=text json"` // text|json
	IncludeCaller bool   `yaml:"includeCaller"`
}

const (
	defaultSampleSize       = 100
	defaultMaxAttempts      = 10
	defaultDataDir          = "data"
	defaultCheckInsFile     = "user_total_checkin.csv"
	defaultEdgesFile        = "user_edges.csv"
	defaultCombinedFile     = "combined_user_data.json"
	defaultSampledFile      = "sampled_combined_user_data.json"
	defaultGraphFile        = "graph.json"
	defaultExportWorkers    = 4
	defaultStorePath        = "data/users.db"
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
)

// ConfigFileEnv names the environment variable pointing at an optional YAML file.
const ConfigFileEnv = "GEOSOCIAL_CONFIG"

// Load builds configuration from defaults, the YAML file named by
// GEOSOCIAL_CONFIG (if any) and environment variables, in that order.
func Load() (Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Pipeline.MaxAttempts = defaultMaxAttempts
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Pipeline: PipelineConfig{
			SampleSize:    defaultSampleSize,
			MaxAttempts:   defaultMaxAttempts,
			DataDir:       defaultDataDir,
			CheckInsFile:  defaultCheckInsFile,
			EdgesFile:     defaultEdgesFile,
			CombinedFile:  defaultCombinedFile,
			SampledFile:   defaultSampledFile,
			GraphFile:     defaultGraphFile,
			ExportWorkers: defaultExportWorkers,
		},
		Store: StoreConfig{
			Path: defaultStorePath,
		},
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
		Graph: GraphConfig{
			MaxConnections: defaultGraphMaxSessions,
		},
	}
}

// Validate checks struct constraints and reports every violated field.
func Validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func applyEnv(cfg *Config) error {
	cfg.Pipeline.DataDir = valueOrDefault("DATA_DIR", cfg.Pipeline.DataDir)
	cfg.Pipeline.CheckInsFile = valueOrDefault("CHECKINS_FILE", cfg.Pipeline.CheckInsFile)
	cfg.Pipeline.EdgesFile = valueOrDefault("EDGES_FILE", cfg.Pipeline.EdgesFile)
	cfg.Pipeline.CombinedFile = valueOrDefault("COMBINED_FILE", cfg.Pipeline.CombinedFile)
	cfg.Pipeline.SampledFile = valueOrDefault("SAMPLED_FILE", cfg.Pipeline.SampledFile)
	cfg.Pipeline.GraphFile = valueOrDefault("GRAPH_FILE", cfg.Pipeline.GraphFile)
	cfg.Store.Path = valueOrDefault("STORE_PATH", cfg.Store.Path)

	if v := os.Getenv("SAMPLE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_SIZE: %w", err)
		}
		cfg.Pipeline.SampleSize = n
	}
	if v := os.Getenv("SAMPLE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_SEED: %w", err)
		}
		cfg.Pipeline.Seed = seed
	}
	cfg.Pipeline.ExportWorkers = parseIntWithDefault("EXPORT_WORKERS", cfg.Pipeline.ExportWorkers)

	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.IncludeCaller = parseBoolWithDefault("LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)

	cfg.Graph.URI = valueOrDefault("GRAPH_URI", cfg.Graph.URI)
	cfg.Graph.Database = valueOrDefault("GRAPH_DATABASE", cfg.Graph.Database)
	cfg.Graph.Username = valueOrDefault("GRAPH_USERNAME", cfg.Graph.Username)
	cfg.Graph.Password = valueOrDefault("GRAPH_PASSWORD", cfg.Graph.Password)
	cfg.Graph.MaxConnections = parseIntWithDefault("GRAPH_MAX_CONNECTIONS", cfg.Graph.MaxConnections)

	cfg.HTTP.Host = valueOrDefault("SERVER_HOST", cfg.HTTP.Host)
	port, err := parsePort("SERVER_PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	cfg.HTTP.AllowedOriginsCSV = valueOrDefault("SERVER_ALLOWED_ORIGINS", cfg.HTTP.AllowedOriginsCSV)
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
