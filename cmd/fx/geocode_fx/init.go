package geocode_fx

import (
	"go.uber.org/fx"

	"placesmap/internal/services"
)

var Module = fx.Provide(services.NewMapboxGeocoder)
