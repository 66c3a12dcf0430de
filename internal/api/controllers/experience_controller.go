package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"placesmap/internal/models/request_models"
	"placesmap/internal/services"
	"placesmap/pkg/middleware"
	"placesmap/pkg/utils"
)

type ExperienceController struct {
	experienceService services.ExperienceServiceInterface
}

func NewExperienceController(experienceService services.ExperienceServiceInterface) *ExperienceController {
	return &ExperienceController{experienceService: experienceService}
}

func (e *ExperienceController) GetExperience(c *gin.Context) {
	experience, err := e.experienceService.GetExperience(c.Request.Context(), c.Param("experienceId"), middleware.AccessLevel(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, experience, "Experience fetched successfully")
}

func (e *ExperienceController) UpdatePrompt(c *gin.Context) {
	var req request_models.UpdatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	experience, err := e.experienceService.UpdatePrompt(c.Request.Context(), c.Param("experienceId"), req.Prompt)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, experience, "Prompt updated successfully")
}
