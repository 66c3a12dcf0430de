package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"placesmap/internal/models/request_models"
	"placesmap/internal/models/response_models"
	"placesmap/internal/services"
	"placesmap/pkg/middleware"
	"placesmap/pkg/utils"
)

type PlacesController struct {
	placeService services.PlaceServiceInterface
}

func NewPlacesController(placeService services.PlaceServiceInterface) *PlacesController {
	return &PlacesController{
		placeService: placeService,
	}
}

func (p *PlacesController) ListPlaces(c *gin.Context) {
	places, err := p.placeService.ListPlaces(c.Request.Context(), c.Param("experienceId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, places, "Places fetched successfully")
}

func (p *PlacesController) CreatePlace(c *gin.Context) {
	var req request_models.CreatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Name, latitude, and longitude are required")
		return
	}

	place, err := p.placeService.CreatePlace(c.Request.Context(), c.Param("experienceId"), middleware.UserID(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, place, "Place created successfully")
}

func (p *PlacesController) UpdatePlace(c *gin.Context) {
	var req request_models.UpdatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	place, err := p.placeService.UpdatePlace(c.Request.Context(), c.Param("experienceId"), c.Param("placeId"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, place, "Place updated successfully")
}

func (p *PlacesController) DeletePlace(c *gin.Context) {
	if err := p.placeService.DeletePlace(c.Request.Context(), c.Param("experienceId"), c.Param("placeId")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.Deleted{Success: true}, "Place deleted successfully")
}
