package config_fx

import (
	"go.uber.org/fx"

	"placesmap/internal/config"
	"placesmap/pkg/logging"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(
		func(cfg *config.Config) config.ServerConfig { return cfg.Server },
		func(cfg *config.Config) config.DatabaseConfig { return cfg.Database },
		func(cfg *config.Config) config.WhopConfig { return cfg.Whop },
		func(cfg *config.Config) config.MapboxConfig { return cfg.Mapbox },
		func(cfg *config.Config) config.PipelineConfig { return cfg.Pipeline },
		func(cfg *config.Config) config.OpenAIConfig { return cfg.OpenAI },
		func(cfg *config.Config) config.WebhookConfig { return cfg.Webhook },
	),
)

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}
