package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lucasmnd/hkroster/core/metrics"
	"github.com/lucasmnd/hkroster/infra/mqtt"
)

// Config is the root service configuration.
type Config struct {
	API     APIConfig      `json:"api"`
	MQTT    MQTTConfig     `json:"mqtt"`
	Metrics metrics.Config `json:"metrics"`
	Logging LoggingConfig  `json:"logging"`
	Effort  EffortConfig   `json:"effort"`
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token guards the run-history endpoint when non-empty.
	Token string `json:"token"`
}

// MQTTConfig wraps the notifier connection settings with an enable flag.
type MQTTConfig struct {
	Enabled     bool `json:"enabled"`
	mqtt.Config `json:",squash"`
}

// EffortConfig seeds the cleaning-type effort table.
type EffortConfig struct {
	// Minutes maps cleaning type tags to estimated minutes. Types not
	// listed fall back to the built-in default.
	Minutes map[string]int `json:"minutes"`
}

// Load reads the configuration file, applies environment overrides with the
// HK_ prefix and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. HK_API__ADDR.
	if err := k.Load(env.Provider("HK_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "hk_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every sub-config.
func (c *Config) SetDefaults() {
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}
