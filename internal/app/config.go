package app

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/specialistvlad/texgridgo/internal/cache"
)

// ScriptHostConfig points at a remote script host. An empty URL runs scripts
// with the handlers compiled into the binary.
type ScriptHostConfig struct {
	URL                string `toml:"url"`
	Namespace          string `toml:"namespace"`
	Timeout            string `toml:"timeout"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// LibraryPaths are extra library directories layered over the builtin
	// one. Later paths override earlier ones.
	LibraryPaths []string `toml:"library_paths"`
	ProjectPath  string   `toml:"project"`

	LogFormat       string `toml:"log_format"`
	LogLevel        string `toml:"log_level"`
	HealthcheckPort int    `toml:"healthcheck_port"`

	WorkerCount int  `toml:"workers"`
	Synchronous bool `toml:"synchronous"`
	// MaxPasses bounds the passes spent on one frame.
	MaxPasses int `toml:"max_passes"`
	// FrameStart and FrameEnd select the rendered frames. When FrameEnd is
	// below FrameStart the project's frame range is used.
	FrameStart  int `toml:"frame_start"`
	FrameEnd    int `toml:"frame_end"`
	DefaultSize int `toml:"default_size"`

	ScriptHost ScriptHostConfig `toml:"script_host"`
	Cache      cache.Config     `toml:"cache"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogFormat:   "text",
		LogLevel:    "info",
		WorkerCount: 4,
		MaxPasses:   1000,
		FrameStart:  0,
		FrameEnd:    -1,
		DefaultSize: 256,
		Cache:       cache.Config{Backend: "none"},
	}
}

// LoadConfig reads a toml file over the defaults. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if !slices.Contains(logLevels, cfg.LogLevel) {
		errs = append(errs, fmt.Errorf("log level must be one of %s, got %q", strings.Join(logLevels, ", "), cfg.LogLevel))
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		errs = append(errs, fmt.Errorf("log format must be one of %s, got %q", strings.Join(logFormats, ", "), cfg.LogFormat))
	}
	if cfg.WorkerCount < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative, got %d", cfg.WorkerCount))
	}
	if cfg.MaxPasses <= 0 {
		errs = append(errs, fmt.Errorf("max passes must be positive, got %d", cfg.MaxPasses))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck port out of range: %d", cfg.HealthcheckPort))
	}
	if _, err := cache.ParseTTL(cfg.Cache.TTL); err != nil {
		errs = append(errs, err)
	}
	if cfg.ScriptHost.Timeout != "" {
		if _, err := cache.ParseTTL(cfg.ScriptHost.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("invalid script host timeout: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode writes cfg as toml.
func (cfg Config) Encode() (string, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return "", err
	}
	return sb.String(), nil
}
