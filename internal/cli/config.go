package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Configuration defaults and sources.
const (
	ConfigFileName = "sqlir.yaml"
	EnvPrefix      = "SQLIR_"
	DefaultDialect = "postgres"
	DefaultFormat  = "text"
)

// Config is the merged CLI configuration.
type Config struct {
	Dialect     string `koanf:"dialect"`
	Format      string `koanf:"format"`
	Params      bool   `koanf:"params"`
	MaxDepth    int    `koanf:"max_depth"`
	DialectFile string `koanf:"dialect_file"`
	Verbose     bool   `koanf:"verbose"`
}

// LoadConfig loads configuration from defaults, the config file,
// environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// An empty cfgFile selects ./sqlir.yaml when it exists. Only flags that
// were explicitly set override earlier sources.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"dialect":      DefaultDialect,
		"format":       DefaultFormat,
		"params":       false,
		"max_depth":    0,
		"dialect_file": "",
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		if _, err := os.Stat(ConfigFileName); err == nil {
			cfgFile = ConfigFileName
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: SQLIR_MAX_DEPTH -> max_depth
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}
