package controllers_fx

import (
	"go.uber.org/fx"

	"placesmap/internal/api"
	"placesmap/internal/api/controllers"
	"placesmap/pkg/middleware"
)

var Module = fx.Options(
	fx.Provide(controllers.NewPlacesController),
	fx.Provide(controllers.NewExperienceController),
	fx.Provide(controllers.NewMediaController),
	fx.Provide(controllers.NewGeneratorController),
	fx.Provide(controllers.NewGeocodeController),
	fx.Provide(provideControllers, provideAuth),
)

func provideControllers(
	places *controllers.PlacesController,
	experiences *controllers.ExperienceController,
	media *controllers.MediaController,
	generator *controllers.GeneratorController,
	geocode *controllers.GeocodeController,
) api.Controllers {
	return api.Controllers{
		Places:      places,
		Experiences: experiences,
		Media:       media,
		Generator:   generator,
		Geocode:     geocode,
	}
}

func provideAuth(verifier middleware.UserTokenVerifier, checker middleware.AccessChecker) api.Auth {
	return api.Auth{Verifier: verifier, Checker: checker}
}
