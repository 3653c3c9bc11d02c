package config

import "go.uber.org/fx"

// NewStrategyConfig resolves simulator parameters for the configured app.
func NewStrategyConfig(cfg Config) (StrategyConfig, error) {
	return LoadStrategyConfig(cfg.StrategyConfigPath)
}

// Module wires application and strategy configuration.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewStrategyConfig,
	),
)
