package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/blockwire/internal/protocol/instance"
)

const (
	DefaultFormat     = "json"
	DefaultBufferSize = 4096
)

// ToolConfig is the wirectl configuration file. Command line flags override
// every field.
type ToolConfig struct {
	Schema       string `toml:"schema"`
	PoolCapacity int    `toml:"pool_capacity"`
	Format       string `toml:"format"`
	BufferSize   int    `toml:"buffer_size"`
	Metrics      bool   `toml:"metrics"`
}

func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		PoolCapacity: instance.DefaultCapacity,
		Format:       DefaultFormat,
		BufferSize:   DefaultBufferSize,
	}
}

func LoadToolConfig(path string) (ToolConfig, error) {
	var cfg ToolConfig
	if err := loadToml(path, &cfg); err != nil {
		return ToolConfig{}, err
	}
	cfg = cfg.withDefaults()
	if err := ValidateToolConfig(cfg); err != nil {
		return ToolConfig{}, err
	}
	return cfg, nil
}

func (c ToolConfig) withDefaults() ToolConfig {
	def := DefaultToolConfig()
	if c.PoolCapacity == 0 {
		c.PoolCapacity = def.PoolCapacity
	}
	if strings.TrimSpace(c.Format) == "" {
		c.Format = def.Format
	}
	if c.BufferSize == 0 {
		c.BufferSize = def.BufferSize
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Schema = strings.TrimSpace(c.Schema)
	return c
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateToolConfig(cfg ToolConfig) error {
	if cfg.PoolCapacity < 1 {
		return fmt.Errorf("pool_capacity must be positive, got %d", cfg.PoolCapacity)
	}
	if cfg.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be positive, got %d", cfg.BufferSize)
	}
	switch cfg.Format {
	case "json", "cbor":
	default:
		return fmt.Errorf("format must be json or cbor, got %q", cfg.Format)
	}
	return nil
}
