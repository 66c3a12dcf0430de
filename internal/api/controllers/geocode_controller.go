package controllers

import (
	"github.com/gin-gonic/gin"

	"placesmap/internal/services"
	"placesmap/pkg/utils"
)

type GeocodeController struct {
	geocodeService services.GeocodeServiceInterface
}

func NewGeocodeController(geocodeService services.GeocodeServiceInterface) *GeocodeController {
	return &GeocodeController{geocodeService: geocodeService}
}

func (g *GeocodeController) Geocode(c *gin.Context) {
	result, err := g.geocodeService.Geocode(c.Request.Context(), c.Query("address"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Address geocoded successfully")
}
