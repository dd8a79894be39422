// Package config loads CLI settings from defaults, an optional TOML file
// and MARGINALIA_ environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys. MARGINALIA_OUTPUT_FORMAT sets output.format.
const EnvPrefix = "MARGINALIA_"

// DefaultPaths are searched in order when no config file is given.
var DefaultPaths = []string{"./marginalia.toml", "$HOME/.marginalia.toml"}

// Config is the resolved CLI configuration.
type Config struct {
	Output struct {
		Format  string `koanf:"format"`
		Verbose bool   `koanf:"verbose"`
	} `koanf:"output"`

	Store struct {
		Path string `koanf:"path"`
	} `koanf:"store"`

	Harness struct {
		Scenarios string `koanf:"scenarios"`
	} `koanf:"harness"`
}

func defaults() map[string]any {
	return map[string]any{
		"output.format":     "text",
		"output.verbose":    false,
		"store.path":        "marginalia.db",
		"harness.scenarios": "scenarios",
	}
}

// Load resolves the configuration. An explicit path must exist; otherwise
// the first readable file in DefaultPaths is used, if any.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
	} else {
		for _, p := range DefaultPaths {
			p = os.ExpandEnv(p)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := k.Load(file.Provider(p), toml.Parser()); err == nil {
				break
			}
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values no command can use.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format %q must be text or json", c.Output.Format)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}
