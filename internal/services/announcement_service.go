package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"placesmap/internal/models/db_models"
	"placesmap/internal/models/request_models"
	"placesmap/internal/models/response_models"
	"placesmap/internal/repositories"
	"placesmap/pkg/logging"
	"placesmap/pkg/utils"
)

// AnnouncementServiceInterface backs the client-driven create-forum-post endpoint.
type AnnouncementServiceInterface interface {
	CreateForumPost(ctx context.Context, experienceID string, req request_models.CreateForumPostRequest) (response_models.ForumPost, error)
}

type AnnouncementService struct {
	experienceService ExperienceServiceInterface
	placeRepository   repositories.PlaceRepository
	publisher         AnnouncementPublisher
}

func NewAnnouncementService(
	experienceService ExperienceServiceInterface,
	placeRepository repositories.PlaceRepository,
	publisher AnnouncementPublisher,
) AnnouncementServiceInterface {
	return &AnnouncementService{
		experienceService: experienceService,
		placeRepository:   placeRepository,
		publisher:         publisher,
	}
}

func (s *AnnouncementService) CreateForumPost(ctx context.Context, experienceID string, req request_models.CreateForumPostRequest) (response_models.ForumPost, error) {
	experience, err := s.experienceService.Sync(ctx, experienceID)
	if err != nil {
		return response_models.ForumPost{}, err
	}

	a := Announcement{
		ExperienceID:    experience.ID,
		ExperienceTitle: experience.Title,
		BizID:           experience.BizID,
		BizTitle:        experience.BizName,
		PlaceName:       req.PlaceName,
		Description:     req.PlaceDescription,
		Address:         req.Address,
		Category:        req.Category,
	}
	if req.AttachmentID != nil {
		a.AttachmentID = *req.AttachmentID
	}

	var placeID uuid.UUID
	if req.PlaceID != "" {
		placeID, err = s.claim(ctx, experienceID, req.PlaceID)
		if err != nil {
			return response_models.ForumPost{}, err
		}
		if place, _ := s.placeRepository.GetByID(ctx, placeID); place != nil {
			lat, lng := place.Latitude, place.Longitude
			a.Latitude, a.Longitude = &lat, &lng
		}
	}

	result, err := s.publisher.Publish(ctx, a)
	if placeID != uuid.Nil {
		s.record(ctx, placeID, result, err)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("experience_id", experienceID).Msg("create forum post")
		return response_models.ForumPost{}, fmt.Errorf("%v: %w", err, utils.ErrUpstream)
	}

	return response_models.ForumPost{Success: true, PostID: result.PostID, ForumID: result.ForumID}, nil
}

func (s *AnnouncementService) claim(ctx context.Context, experienceID, rawID string) (uuid.UUID, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, utils.ErrPlaceNotFound
	}
	place, err := s.placeRepository.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, utils.ErrDatabaseError
	}
	if place == nil || place.ExperienceID != experienceID {
		return uuid.Nil, utils.ErrPlaceNotFound
	}

	claimed, err := s.placeRepository.ClaimAnnouncement(ctx, id)
	if err != nil {
		return uuid.Nil, utils.ErrDatabaseError
	}
	if !claimed {
		return uuid.Nil, utils.ErrAlreadyAnnounced
	}
	return id, nil
}

func (s *AnnouncementService) record(ctx context.Context, placeID uuid.UUID, result PublishResult, publishErr error) {
	outcome := repositories.AnnouncementOutcome{ForumID: result.ForumID, PostID: result.PostID}
	switch {
	case publishErr != nil:
		outcome.Status, outcome.Error = db_models.AnnouncementFailed, publishErr.Error()
	case result.WithAttachment:
		outcome.Status = db_models.AnnouncementImageAttached
	default:
		outcome.Status = db_models.AnnouncementTextOnly
	}
	if err := s.placeRepository.RecordAnnouncement(ctx, placeID, outcome); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("place_id", placeID.String()).Msg("record announcement")
	}
}
