package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"placesmap/internal/models/request_models"
	"placesmap/internal/services"
	"placesmap/pkg/utils"
)

type GeneratorController struct {
	generatorService services.GeneratorServiceInterface
}

func NewGeneratorController(generatorService services.GeneratorServiceInterface) *GeneratorController {
	return &GeneratorController{generatorService: generatorService}
}

func (g *GeneratorController) Generate(c *gin.Context) {
	var req request_models.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	resp, err := g.generatorService.GenerateImage(c.Request.Context(), c.Param("experienceId"), req.Image)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Image generated successfully")
}
