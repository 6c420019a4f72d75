package config

import "github.com/danmuck/blockwire/internal/protocol/codec"

// EngineConfig is the codec configuration a tool config asks for.
func (c ToolConfig) EngineConfig() codec.Config {
	return codec.Config{PoolCapacity: c.PoolCapacity}
}
