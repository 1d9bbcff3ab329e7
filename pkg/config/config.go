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
const FileName = "fm-ecosystem.toml"

// EnvPrefix prefixes environment overrides, e.g. FM_ECOSYSTEM_PORT=9090
const EnvPrefix = "FM_ECOSYSTEM_"

// Config holds all configuration for the application
type Config struct {
	Nodes       string `koanf:"nodes"`
	Edges       string `koanf:"edges"`
	WebMode     bool   `koanf:"web"`
	Port        int    `koanf:"port"`
	Watch       bool   `koanf:"watch"`
	OpenBrowser bool   `koanf:"open"`
	JSONLogs    bool   `koanf:"json-logs"`
	Verbosity   string `koanf:"verbosity"`
	VerboseCnt  int    `koanf:"verbose"`

	Names         []string `koanf:"name"`
	Organizations []string `koanf:"organization"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"nodes":     "nodes.csv",
		"edges":     "edges.csv",
		"web":       false,
		"port":      8050,
		"watch":     false,
		"open":      true,
		"json-logs": false,
		"verbosity": "",
		"verbose":   0,
	}
}

// RegisterFlags declares the command-line flags Load understands
func RegisterFlags(f *pflag.FlagSet) {
	f.String("nodes", "nodes.csv", "Path to the nodes table (CSV)")
	f.String("edges", "edges.csv", "Path to the edges table (CSV)")
	f.Bool("web", false, "Serve the interactive map instead of printing a summary")
	f.Int("port", 8050, "Port for the web server")
	f.Bool("watch", false, "Reload the graph when the tables change")
	f.Bool("open", true, "Open a browser when the web server starts")
	f.Bool("json-logs", false, "Write logs as JSON lines")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.StringSlice("name", nil, "Entity names to select (CLI mode)")
	f.StringSlice("organization", nil, "Organizations to select (CLI mode)")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return load(f, FileName)
}

func load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The file is optional; a missing file is not an error.
	_ = k.Load(file.Provider(path), toml.Parser())

	// FM_ECOSYSTEM_JSON_LOGS -> json-logs
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// posflag only overrides with flags the user actually set
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed through flag types
func (c *Config) Validate() error {
	if c.Nodes == "" {
		return fmt.Errorf("nodes table path must not be empty")
	}
	if c.Edges == "" {
		return fmt.Errorf("edges table path must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// mapProvider exposes a plain map as a koanf provider
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
