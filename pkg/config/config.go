package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory
const FileName = "net-topology.toml"

// EnvPrefix prefixes environment overrides, e.g. NET_TOPOLOGY_PORT=9090
const EnvPrefix = "NET_TOPOLOGY_"

// Config holds all configuration for the application
type Config struct {
	Input            string `koanf:"input"`
	Output           string `koanf:"output"`
	Format           string `koanf:"format"`
	Ext              string `koanf:"ext"`
	Aggregate        bool   `koanf:"aggregate"`
	MinComponentSize int    `koanf:"min-component-size"`
	WebMode          bool   `koanf:"web"`
	Port             int    `koanf:"port"`
	Watch            bool   `koanf:"watch"`
	OpenBrowser      bool   `koanf:"open"`
	Verbosity        string `koanf:"verbosity"`
	VerboseCnt       int    `koanf:"verbose"`
	JSONLogs         bool   `koanf:"json-logs"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"input":              ".",
		"output":             "topology.html",
		"format":             "",
		"ext":                ".json",
		"aggregate":          false,
		"min-component-size": 6,
		"web":                false,
		"port":               8080,
		"watch":              false,
		"open":               true,
		"verbosity":          "",
		"verbose":            0,
		"json-logs":          false,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(FileName, f)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	if path != "" {
		_ = k.Load(file.Provider(path), toml.Parser())
	}

	// 3. Environment Variables
	// Keys are flat, so underscores map back to hyphens
	// (NET_TOPOLOGY_MIN_COMPONENT_SIZE -> min-component-size)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.MinComponentSize < 0 {
		return nil, fmt.Errorf("min-component-size must not be negative, got %d", cfg.MinComponentSize)
	}

	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
