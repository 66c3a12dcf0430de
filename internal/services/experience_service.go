package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"placesmap/internal/models/db_models"
	"placesmap/internal/models/response_models"
	"placesmap/internal/repositories"
	"placesmap/pkg/logging"
	"placesmap/pkg/utils"
	"placesmap/pkg/whop"
)

// ExperienceDirectory resolves experience metadata from Whop.
type ExperienceDirectory interface {
	GetExperience(ctx context.Context, experienceID string) (*whop.Experience, error)
}

type ExperienceServiceInterface interface {
	// Sync upserts the experience row from Whop, falling back to the stored row when Whop is unreachable.
	Sync(ctx context.Context, experienceID string) (*db_models.Experience, error)
	GetExperience(ctx context.Context, experienceID string, level whop.AccessLevel) (response_models.Experience, error)
	UpdatePrompt(ctx context.Context, experienceID, prompt string) (response_models.Experience, error)
}

type ExperienceService struct {
	experienceRepository repositories.ExperienceRepository
	placeRepository      repositories.PlaceRepository
	directory            ExperienceDirectory
	notifier             WebhookNotifier
}

func NewExperienceService(
	experienceRepository repositories.ExperienceRepository,
	placeRepository repositories.PlaceRepository,
	directory ExperienceDirectory,
	notifier WebhookNotifier,
) ExperienceServiceInterface {
	return &ExperienceService{
		experienceRepository: experienceRepository,
		placeRepository:      placeRepository,
		directory:            directory,
		notifier:             notifier,
	}
}

func (s *ExperienceService) Sync(ctx context.Context, experienceID string) (*db_models.Experience, error) {
	if strings.TrimSpace(experienceID) == "" {
		return nil, fmt.Errorf("experience id is required: %w", utils.ErrValidation)
	}

	remote, err := s.directory.GetExperience(ctx, experienceID)
	if err != nil {
		cached, dbErr := s.experienceRepository.GetByID(ctx, experienceID)
		if dbErr != nil {
			logging.Ctx(ctx).Error().Err(dbErr).Str("experience_id", experienceID).Msg("load cached experience")
			return nil, utils.ErrDatabaseError
		}
		if cached != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("experience_id", experienceID).Msg("whop lookup failed, using stored experience")
			return cached, nil
		}
		if errors.Is(err, whop.ErrRequest) {
			return nil, fmt.Errorf("%s: %w", experienceID, utils.ErrExperienceNotFound)
		}
		return nil, fmt.Errorf("whop experience lookup: %v: %w", err, utils.ErrUpstream)
	}

	experience, created, err := s.experienceRepository.Upsert(ctx, db_models.Experience{
		ID:      experienceID,
		Title:   remote.Name,
		BizID:   remote.Company.ID,
		BizName: remote.Company.Title,
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("experience_id", experienceID).Msg("upsert experience")
		return nil, utils.ErrDatabaseError
	}

	if created {
		logging.Ctx(ctx).Info().Str("experience_id", experienceID).Str("biz_id", experience.BizID).Msg("experience installed")
		go s.notifier.Notify(context.WithoutCancel(ctx), "", installMessage)
	}
	return experience, nil
}

func (s *ExperienceService) GetExperience(ctx context.Context, experienceID string, level whop.AccessLevel) (response_models.Experience, error) {
	experience, err := s.Sync(ctx, experienceID)
	if err != nil {
		return response_models.Experience{}, err
	}

	places, err := s.placeRepository.ListByExperience(ctx, experienceID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("experience_id", experienceID).Msg("list places")
		return response_models.Experience{}, utils.ErrDatabaseError
	}

	resp := experienceResponse(experience, places)
	resp.AccessLevel = string(level)
	return resp, nil
}

func (s *ExperienceService) UpdatePrompt(ctx context.Context, experienceID, prompt string) (response_models.Experience, error) {
	if _, err := s.Sync(ctx, experienceID); err != nil {
		return response_models.Experience{}, err
	}

	experience, err := s.experienceRepository.UpdatePrompt(ctx, experienceID, strings.TrimSpace(prompt))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("experience_id", experienceID).Msg("update prompt")
		return response_models.Experience{}, utils.ErrDatabaseError
	}
	if experience == nil {
		return response_models.Experience{}, utils.ErrExperienceNotFound
	}
	return experienceResponse(experience, nil), nil
}

func experienceResponse(e *db_models.Experience, places []db_models.Place) response_models.Experience {
	resp := response_models.Experience{
		ID:      e.ID,
		Title:   e.Title,
		BizID:   e.BizID,
		BizName: e.BizName,
		Prompt:  e.Prompt,
		Places:  make([]response_models.Place, 0, len(places)),
	}
	for _, p := range places {
		resp.Places = append(resp.Places, placeResponse(p))
	}
	return resp
}
