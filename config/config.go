// Package config hydrates the proxy configuration with
// env > file > default precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Listen  ListenConfig  `koanf:"listen"`
	Origin  string        `koanf:"origin"`
	Logging LoggingConfig `koanf:"logging"`
	Journal string        `koanf:"journal"`
	Metrics bool          `koanf:"metrics"`
}

type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

func DefaultConfig() Config {
	return Config{
		Listen:  ListenConfig{Address: "", Port: 8080},
		Logging: LoggingConfig{Level: "debug"},
		Metrics: true,
	}
}

// Loader assembles the effective configuration snapshot.
type Loader struct {
	envPrefix string
	files     []string
}

func NewLoader(envPrefix string, files ...string) *Loader {
	return &Loader{
		envPrefix: envPrefix,
		files:     files,
	}
}

func (l *Loader) Load() (Config, error) {
	defaults := DefaultConfig()
	k := koanf.New(".")

	defaultMap := map[string]interface{}{
		"listen.address": defaults.Listen.Address,
		"listen.port":    defaults.Listen.Port,
		"origin":         defaults.Origin,
		"logging.level":  defaults.Logging.Level,
		"logging.file":   defaults.Logging.File,
		"journal":        defaults.Journal,
		"metrics":        defaults.Metrics,
	}
	if err := k.Load(confmap.Provider(defaultMap, "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	for _, path := range l.files {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: file %s not found", path)
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if l.envPrefix != "" {
		transform := func(s string) string {
			// Double underscores signal a nested path
			// (APICACHE_LISTEN__PORT -> listen.port).
			key := strings.TrimPrefix(s, l.envPrefix+"_")
			key = strings.ReplaceAll(key, "__", ".")
			return strings.ToLower(key)
		}
		if err := k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
			return Config{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
