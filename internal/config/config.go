// Package config loads the petalpath YAML configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/scheduler"
	"github.com/fentz26/petalpath/internal/solver"
)

// Config holds all daemon and CLI settings.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Database   DatabaseConfig    `yaml:"database"`
	Planner    PlannerConfig     `yaml:"planner"`
	Generator  GeneratorConfig   `yaml:"generator"`
	Strategies StrategyConfig    `yaml:"strategies"`
	Scheduler  *scheduler.Config `yaml:"scheduler" validate:"required"`
	Log        LogConfig         `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen" validate:"required,hostname_port"`
	// LockTTLSec bounds how long one write may hold a game.
	LockTTLSec int `yaml:"lock_ttl_sec" validate:"min=1"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// PlannerConfig tunes the solvers. Zero values keep the solver defaults,
// except exact_limit where zero turns exact ordering off and
// lookahead_width where zero scores every reachable flower.
type PlannerConfig struct {
	MaxIterations  int `yaml:"max_iterations" validate:"gte=0"`
	BatchSize      int `yaml:"batch_size" validate:"gte=0"`
	ExactLimit     int `yaml:"exact_limit" validate:"gte=0,lte=7"`
	ClearRadius    int `yaml:"clear_radius" validate:"gte=0"`
	LookaheadWidth int `yaml:"lookahead_width" validate:"gte=0"`
}

// GeneratorConfig sets the densities for generated boards.
type GeneratorConfig struct {
	FlowerRatio   float64 `yaml:"flower_ratio" validate:"gt=0,lt=1"`
	ObstacleRatio float64 `yaml:"obstacle_ratio" validate:"gte=0,lt=1"`
	Capacity      int     `yaml:"capacity" validate:"gte=0"`
}

// StrategyConfig limits which strategies callers may request.
type StrategyConfig struct {
	Allowed []string `yaml:"allowed"`
	Default string   `yaml:"default" validate:"required"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// DefaultDir is the per-user state directory, ~/.petalpath.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".petalpath"
	}
	return filepath.Join(home, ".petalpath")
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	gen := grid.DefaultGenerateOptions()
	return &Config{
		Server: ServerConfig{
			Listen:     "127.0.0.1:7477",
			LockTTLSec: 30,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(DefaultDir(), "petalpath.db"),
		},
		Planner: PlannerConfig{
			MaxIterations:  solver.DefaultMaxIterations,
			BatchSize:      solver.DefaultBatchSize,
			ExactLimit:     solver.DefaultExactLimit,
			ClearRadius:    solver.DefaultClearRadius,
			LookaheadWidth: solver.DefaultLookaheadWidth,
		},
		Generator: GeneratorConfig{
			FlowerRatio:   gen.FlowerRatio,
			ObstacleRatio: gen.ObstacleRatio,
		},
		Strategies: StrategyConfig{
			Default: solver.StrategyOptimal,
		},
		Scheduler: scheduler.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file over the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = scheduler.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromHome loads configuration from ~/.petalpath/config.yaml.
func LoadFromHome() (*Config, error) {
	return Load(filepath.Join(DefaultDir(), "config.yaml"))
}

// Save writes the configuration to a YAML file, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Scheduler.PollInterval < 0 {
		return fmt.Errorf("scheduler.poll_interval must not be negative")
	}
	for name, limit := range c.Scheduler.ByStrategy {
		if limit < 1 {
			return fmt.Errorf("scheduler.by_strategy[%s] must be at least 1", name)
		}
	}
	if len(c.Strategies.Allowed) > 0 && !c.IsAllowed(c.Strategies.Default) {
		return fmt.Errorf("default strategy %q is not in the allowed list", c.Strategies.Default)
	}
	return nil
}

// IsAllowed reports whether name passes the strategy allowlist. An empty
// list allows everything.
func (c *Config) IsAllowed(name string) bool {
	if len(c.Strategies.Allowed) == 0 {
		return true
	}
	for _, n := range c.Strategies.Allowed {
		if n == name {
			return true
		}
	}
	return false
}

// SolverOptions converts the planner settings.
func (c *Config) SolverOptions(logger *slog.Logger) []solver.Option {
	p := c.Planner
	return []solver.Option{
		solver.WithMaxIterations(p.MaxIterations),
		solver.WithBatchSize(p.BatchSize),
		solver.WithExactLimit(p.ExactLimit),
		solver.WithClearRadius(p.ClearRadius),
		solver.WithLookaheadWidth(p.LookaheadWidth),
		solver.WithLogger(logger),
	}
}

// GenerateOptions converts the generator settings for the given seed.
func (c *Config) GenerateOptions(seed int64) grid.GenerateOptions {
	return grid.GenerateOptions{
		Seed:          seed,
		FlowerRatio:   c.Generator.FlowerRatio,
		ObstacleRatio: c.Generator.ObstacleRatio,
		Capacity:      c.Generator.Capacity,
	}
}

// NewLogger builds the slog logger described by the log settings.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
