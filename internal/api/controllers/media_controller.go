package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"placesmap/internal/config"
	"placesmap/internal/models/request_models"
	"placesmap/internal/services"
	"placesmap/pkg/middleware"
	"placesmap/pkg/utils"
)

type MediaController struct {
	mediaService        services.MediaServiceInterface
	announcementService services.AnnouncementServiceInterface
	maxImageBytes       int64
}

func NewMediaController(
	cfg config.PipelineConfig,
	mediaService services.MediaServiceInterface,
	announcementService services.AnnouncementServiceInterface,
) *MediaController {
	return &MediaController{
		mediaService:        mediaService,
		announcementService: announcementService,
		maxImageBytes:       cfg.MaxImageBytes,
	}
}

// UploadImage takes the raw image bytes as the request body.
func (m *MediaController) UploadImage(c *gin.Context) {
	if c.Request.ContentLength > m.maxImageBytes {
		utils.HandleServiceError(c, utils.ErrImageTooLarge)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, m.maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.HandleServiceError(c, utils.ErrImageTooLarge)
			return
		}
		utils.RespondError(c, http.StatusBadRequest, "Could not read request body")
		return
	}

	resp, err := m.mediaService.UploadImage(c.Request.Context(), c.Param("experienceId"), middleware.UserID(c), data, c.ContentType())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Image uploaded successfully")
}

func (m *MediaController) CreateForumPost(c *gin.Context) {
	var req request_models.CreateForumPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Place name is required")
		return
	}

	resp, err := m.announcementService.CreateForumPost(c.Request.Context(), c.Param("experienceId"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Forum post created successfully")
}
