// Package config loads runtime settings from a fiber.yaml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/on-the-ground/fiber_ive_go/model"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level fiber.yaml configuration.
type Config struct {
	Runtime Runtime `yaml:"runtime"`
	Log     Log     `yaml:"log"`
}

// Runtime configures the scheduler and the fiber registry.
type Runtime struct {
	// Scheduler is single or partitioned.
	Scheduler string `yaml:"scheduler,omitempty"`

	// BufferSize is the initial capacity of each worker lane.
	BufferSize int `yaml:"buffer_size,omitempty"`

	// NumWorkers is the number of worker goroutines of a partitioned scheduler.
	NumWorkers int `yaml:"num_workers,omitempty"`

	// Registry enables the in-memory registry of live fibers.
	Registry bool `yaml:"registry,omitempty"`
}

type Log struct {
	Level    string `yaml:"level,omitempty"`
	Encoding string `yaml:"encoding,omitempty"`
}

// Default is the configuration used when no fiber.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a fiber.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses fiber.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for fiber.yaml starting from dir and walking up to
// parent directories. It returns an empty path and nil error if none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{"fiber.yaml", "fiber.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// RuntimeConfig converts the runtime section for fiber.WithRuntime.
func (c *Config) RuntimeConfig() model.RuntimeConfig {
	cfg := model.NewRuntimeConfig(c.Runtime.BufferSize, c.Runtime.NumWorkers, model.SchedulerKind(c.Runtime.Scheduler))
	cfg.Registry = c.Runtime.Registry
	return cfg
}

func (c *Config) LogConfig() model.LogConfig {
	return model.LogConfig{Level: c.Log.Level, Encoding: c.Log.Encoding}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	switch model.SchedulerKind(c.Runtime.Scheduler) {
	case "", model.SchedulerSingle, model.SchedulerPartitioned:
	case "manual":
		return fmt.Errorf("%s: runtime.scheduler: the manual scheduler is for tests and cannot be configured", path)
	default:
		return fmt.Errorf("%s: runtime.scheduler: unknown scheduler %q", path, c.Runtime.Scheduler)
	}
	if c.Runtime.BufferSize < 0 {
		return fmt.Errorf("%s: runtime.buffer_size must not be negative", path)
	}
	if c.Runtime.NumWorkers < 0 {
		return fmt.Errorf("%s: runtime.num_workers must not be negative", path)
	}
	if model.SchedulerKind(c.Runtime.Scheduler) == model.SchedulerSingle && c.Runtime.NumWorkers > 1 {
		return fmt.Errorf("%s: runtime.num_workers must be 1 for the single scheduler", path)
	}

	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%s: log.level: %w", path, err)
		}
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("%s: log.encoding: unknown encoding %q", path, c.Log.Encoding)
	}
	return nil
}

func (c *Config) setDefaults() {
	rc := model.NewRuntimeConfig(c.Runtime.BufferSize, c.Runtime.NumWorkers, model.SchedulerKind(c.Runtime.Scheduler))
	c.Runtime.BufferSize = rc.BufferSize
	c.Runtime.NumWorkers = rc.NumWorkers
	c.Runtime.Scheduler = string(rc.Scheduler)
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "json"
	}
}
