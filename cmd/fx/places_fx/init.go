package places_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"placesmap/internal/repositories"
	"placesmap/internal/services"
)

var Module = fx.Provide(
	providePlaceRepo,
	provideExperienceRepo,
	services.NewExperienceService,
	services.NewPlaceService,
	services.NewMediaService,
	services.NewAnnouncementService,
)

func providePlaceRepo(db *gorm.DB) repositories.PlaceRepository {
	return repositories.NewPlaceRepository(db)
}

func provideExperienceRepo(db *gorm.DB) repositories.ExperienceRepository {
	return repositories.NewExperienceRepository(db)
}
