package generator_fx

import (
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/fx"

	"placesmap/internal/config"
	"placesmap/internal/services"
	"placesmap/pkg/logging"
)

var Module = fx.Provide(
	provideImageEditor,
	services.NewGeneratorService,
)

// provideImageEditor returns nil without an API key; generation then fails with 502.
func provideImageEditor(cfg config.OpenAIConfig) services.ImageEditor {
	if cfg.APIKey == "" {
		logging.Warn().Msg("OPENAI_API_KEY is not set, image generation is disabled")
		return nil
	}
	logging.Info().Str("model", cfg.Model).Msg("initializing openai image client")
	return openai.NewClient(cfg.APIKey)
}
