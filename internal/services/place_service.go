package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"placesmap/internal/models/db_models"
	"placesmap/internal/models/request_models"
	"placesmap/internal/models/response_models"
	"placesmap/internal/repositories"
	"placesmap/pkg/logging"
	"placesmap/pkg/utils"
)

// AnnouncementJob is handed off to the background pipeline once a place is committed.
type AnnouncementJob struct {
	PlaceID      uuid.UUID `json:"place_id"`
	ExperienceID string    `json:"experience_id"`
	UserID       string    `json:"user_id"`
	AttachmentID string    `json:"attachment_id,omitempty"`
	TraceID      string    `json:"trace_id,omitempty"`
}

// PipelineDispatcher schedules an announcement off the request path.
type PipelineDispatcher interface {
	Dispatch(ctx context.Context, job AnnouncementJob) error
}

type PlaceServiceInterface interface {
	CreatePlace(ctx context.Context, experienceID, userID string, req request_models.CreatePlaceRequest) (response_models.Place, error)
	ListPlaces(ctx context.Context, experienceID string) ([]response_models.Place, error)
	UpdatePlace(ctx context.Context, experienceID, placeID string, req request_models.UpdatePlaceRequest) (response_models.Place, error)
	DeletePlace(ctx context.Context, experienceID, placeID string) error
}

type PlaceService struct {
	placeRepository   repositories.PlaceRepository
	experienceService ExperienceServiceInterface
	dispatcher        PipelineDispatcher
}

func NewPlaceService(
	placeRepository repositories.PlaceRepository,
	experienceService ExperienceServiceInterface,
	dispatcher PipelineDispatcher,
) PlaceServiceInterface {
	return &PlaceService{
		placeRepository:   placeRepository,
		experienceService: experienceService,
		dispatcher:        dispatcher,
	}
}

func (s *PlaceService) CreatePlace(ctx context.Context, experienceID, userID string, req request_models.CreatePlaceRequest) (response_models.Place, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return response_models.Place{}, fmt.Errorf("name is required: %w", utils.ErrValidation)
	}
	if req.Latitude == nil || req.Longitude == nil {
		return response_models.Place{}, fmt.Errorf("latitude and longitude are required: %w", utils.ErrValidation)
	}
	if !finite(*req.Latitude) || !finite(*req.Longitude) {
		return response_models.Place{}, fmt.Errorf("latitude and longitude must be numbers: %w", utils.ErrValidation)
	}

	// The experience row must exist before any place references it.
	if _, err := s.experienceService.Sync(ctx, experienceID); err != nil {
		return response_models.Place{}, err
	}

	place := &db_models.Place{
		ExperienceID: experienceID,
		Name:         name,
		Description:  trimmed(req.Description),
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		Address:      trimmed(req.Address),
		Category:     trimmed(req.Category),
	}
	if _, err := s.placeRepository.CreatePlace(ctx, place); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("experience_id", experienceID).Msg("create place")
		return response_models.Place{}, utils.ErrDatabaseError
	}

	job := AnnouncementJob{
		PlaceID:      place.ID,
		ExperienceID: experienceID,
		UserID:       userID,
		TraceID:      logging.TraceIDFromContext(ctx),
	}
	if req.AttachmentID != nil {
		job.AttachmentID = strings.TrimSpace(*req.AttachmentID)
	}
	// The place is already committed; a failed handoff only costs the announcement.
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("place_id", place.ID.String()).Msg("dispatch announcement")
	}

	return placeResponse(*place), nil
}

func (s *PlaceService) ListPlaces(ctx context.Context, experienceID string) ([]response_models.Place, error) {
	places, err := s.placeRepository.ListByExperience(ctx, experienceID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("experience_id", experienceID).Msg("list places")
		return nil, utils.ErrDatabaseError
	}

	resp := make([]response_models.Place, 0, len(places))
	for _, p := range places {
		resp = append(resp, placeResponse(p))
	}
	return resp, nil
}

func (s *PlaceService) UpdatePlace(ctx context.Context, experienceID, placeID string, req request_models.UpdatePlaceRequest) (response_models.Place, error) {
	id, err := uuid.Parse(placeID)
	if err != nil {
		return response_models.Place{}, utils.ErrPlaceNotFound
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return response_models.Place{}, fmt.Errorf("name cannot be empty: %w", utils.ErrValidation)
		}
		fields["name"] = name
	}
	if req.Latitude != nil {
		if !finite(*req.Latitude) {
			return response_models.Place{}, fmt.Errorf("latitude must be a number: %w", utils.ErrValidation)
		}
		fields["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		if !finite(*req.Longitude) {
			return response_models.Place{}, fmt.Errorf("longitude must be a number: %w", utils.ErrValidation)
		}
		fields["longitude"] = *req.Longitude
	}
	if req.Description != nil {
		fields["description"] = trimmed(req.Description)
	}
	if req.Address != nil {
		fields["address"] = trimmed(req.Address)
	}
	if req.Category != nil {
		fields["category"] = trimmed(req.Category)
	}

	place, err := s.placeRepository.UpdatePlace(ctx, experienceID, id, fields)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("place_id", placeID).Msg("update place")
		return response_models.Place{}, utils.ErrDatabaseError
	}
	if place == nil {
		return response_models.Place{}, utils.ErrPlaceNotFound
	}
	return placeResponse(*place), nil
}

func (s *PlaceService) DeletePlace(ctx context.Context, experienceID, placeID string) error {
	id, err := uuid.Parse(placeID)
	if err != nil {
		return utils.ErrPlaceNotFound
	}

	deleted, err := s.placeRepository.Delete(ctx, experienceID, id)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("place_id", placeID).Msg("delete place")
		return utils.ErrDatabaseError
	}
	if !deleted {
		return utils.ErrPlaceNotFound
	}
	return nil
}

func placeResponse(p db_models.Place) response_models.Place {
	return response_models.Place{
		ID:           p.ID.String(),
		ExperienceID: p.ExperienceID,
		Name:         p.Name,
		Description:  p.Description,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Address:      p.Address,
		Category:     p.Category,
		CreatedAt:    utils.FromUnixNano(p.CreatedAt),
		UpdatedAt:    utils.FromUnixNano(p.UpdatedAt),
		Announcement: response_models.Announcement{
			Status:  string(p.AnnouncementStatus),
			PostID:  p.AnnouncementPostID,
			ForumID: p.AnnouncementForumID,
			Error:   p.AnnouncementError,
		},
	}
}

// trimmed returns nil for absent or blank values.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
