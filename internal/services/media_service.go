package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"placesmap/internal/models/response_models"
	"placesmap/pkg/logging"
	"placesmap/pkg/utils"
)

// MediaServiceInterface backs the upload-image endpoint.
type MediaServiceInterface interface {
	UploadImage(ctx context.Context, experienceID, userID string, data []byte, contentType string) (response_models.UploadImage, error)
}

type MediaService struct {
	experienceService ExperienceServiceInterface
	uploader          MediaUploader
}

func NewMediaService(experienceService ExperienceServiceInterface, uploader MediaUploader) MediaServiceInterface {
	return &MediaService{experienceService: experienceService, uploader: uploader}
}

func (s *MediaService) UploadImage(ctx context.Context, experienceID, userID string, data []byte, contentType string) (response_models.UploadImage, error) {
	if len(data) == 0 {
		return response_models.UploadImage{}, fmt.Errorf("no file provided: %w", utils.ErrValidation)
	}

	experience, err := s.experienceService.Sync(ctx, experienceID)
	if err != nil {
		return response_models.UploadImage{}, err
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	start := time.Now()
	attachmentID, err := s.uploader.Upload(ctx, userID, experience.BizID, &Image{
		Data:        data,
		ContentType: contentType,
		Filename:    filenameFor(contentType),
	})
	if err != nil {
		if utils.IsAny(err, utils.ErrImageTooLarge, utils.ErrValidation) {
			return response_models.UploadImage{}, err
		}
		logging.Ctx(ctx).Error().Err(err).Str("experience_id", experienceID).Msg("upload image")
		return response_models.UploadImage{}, fmt.Errorf("%v: %w", err, utils.ErrUpstream)
	}

	return response_models.UploadImage{
		Success:      true,
		AttachmentID: attachmentID,
		UploadTimeMs: time.Since(start).Milliseconds(),
	}, nil
}
