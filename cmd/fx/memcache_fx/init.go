package memcache_fx

import (
	"go.uber.org/fx"

	"placesmap/internal/models/response_models"
	mem "placesmap/pkg/memcache"
)

var Module = fx.Provide(provideGeocodeCache)

func provideGeocodeCache() mem.Store[response_models.GeocodeResult] {
	return mem.NewTTLCache[response_models.GeocodeResult]()
}
