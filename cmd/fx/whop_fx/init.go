package whop_fx

import (
	"go.uber.org/fx"

	"placesmap/internal/config"
	"placesmap/internal/services"
	"placesmap/pkg/logging"
	"placesmap/pkg/middleware"
	"placesmap/pkg/whop"
)

var Module = fx.Provide(
	provideClient,
	provideTokenVerifier,
	func(c *whop.Client) services.ExperienceDirectory { return c },
	func(c *whop.Client) services.ForumAPI { return c },
	func(c *whop.Client) services.AttachmentUploader { return c },
	func(c *whop.Client) middleware.AccessChecker { return c },
)

func provideClient(cfg config.WhopConfig) *whop.Client {
	if cfg.APIKey == "" {
		logging.Warn().Msg("WHOP_API_KEY is not set, Whop calls will be rejected")
	}
	return whop.NewClient(whop.Config{
		APIKey:     cfg.APIKey,
		GraphQLURL: cfg.GraphQLURL,
		Timeout:    cfg.Timeout,
	})
}

// provideTokenVerifier returns a nil verifier when no key is configured, which
// makes every protected route answer 401.
func provideTokenVerifier(cfg config.WhopConfig) middleware.UserTokenVerifier {
	verifier, err := whop.NewTokenVerifier(cfg.PublicKey, cfg.AppID)
	if err != nil {
		logging.Error().Err(err).Msg("whop user tokens cannot be verified")
		return nil
	}
	return verifier
}
