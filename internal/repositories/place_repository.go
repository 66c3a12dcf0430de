package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"placesmap/internal/models/db_models"
	"placesmap/pkg/utils"
)

type PlaceRepository interface {
	CreatePlace(ctx context.Context, place *db_models.Place) (uuid.UUID, error)
	UpdatePlace(ctx context.Context, experienceID string, id uuid.UUID, fields map[string]interface{}) (*db_models.Place, error)
	Delete(ctx context.Context, experienceID string, id uuid.UUID) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Place, error)
	ListByExperience(ctx context.Context, experienceID string) ([]db_models.Place, error)

	// ClaimAnnouncement reports true exactly once per place.
	ClaimAnnouncement(ctx context.Context, id uuid.UUID) (bool, error)
	RecordAnnouncement(ctx context.Context, id uuid.UUID, outcome AnnouncementOutcome) error
}

type AnnouncementOutcome struct {
	Status  db_models.AnnouncementStatus
	PostID  string
	ForumID string
	Error   string
}

type placeRepository struct {
	db *gorm.DB
}

func NewPlaceRepository(db *gorm.DB) PlaceRepository {
	return &placeRepository{db: db}
}

func (r *placeRepository) CreatePlace(ctx context.Context, place *db_models.Place) (uuid.UUID, error) {
	if place.AnnouncementStatus == "" {
		place.AnnouncementStatus = db_models.AnnouncementPending
	}
	if err := r.db.WithContext(ctx).Create(place).Error; err != nil {
		return uuid.Nil, err
	}
	return place.ID, nil
}

func (r *placeRepository) UpdatePlace(ctx context.Context, experienceID string, id uuid.UUID, fields map[string]interface{}) (*db_models.Place, error) {
	var updated *db_models.Place

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			fields["updated_at"] = utils.NowUnixNano()
			result := tx.Model(&db_models.Place{}).
				Where("id = ? AND experience_id = ?", id, experienceID).
				Updates(fields)
			if result.Error != nil {
				return fmt.Errorf("failed to update place: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		var place db_models.Place
		if err := tx.First(&place, "id = ? AND experience_id = ?", id, experienceID).Error; err != nil {
			return err
		}
		updated = &place
		return nil
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete reports whether a row was removed; deleting twice yields false the second time.
func (r *placeRepository) Delete(ctx context.Context, experienceID string, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND experience_id = ?", id, experienceID).
		Delete(&db_models.Place{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ────────────────────────────────────────────────────────────────
// Read helpers return nil, nil when no rows are found.
// ────────────────────────────────────────────────────────────────

func (r *placeRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Place, error) {
	var place db_models.Place
	err := r.db.WithContext(ctx).First(&place, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &place, nil
}

func (r *placeRepository) ListByExperience(ctx context.Context, experienceID string) ([]db_models.Place, error) {
	var places []db_models.Place
	err := r.db.WithContext(ctx).
		Where("experience_id = ?", experienceID).
		Order("created_at DESC").
		Find(&places).Error
	if err != nil {
		return nil, err
	}
	return places, nil
}

func (r *placeRepository) ClaimAnnouncement(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("id = ? AND announcement_claimed_at IS NULL", id).
		Update("announcement_claimed_at", utils.NowUnixNano())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *placeRepository) RecordAnnouncement(ctx context.Context, id uuid.UUID, outcome AnnouncementOutcome) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"announcement_status":   outcome.Status,
			"announcement_post_id":  outcome.PostID,
			"announcement_forum_id": outcome.ForumID,
			"announcement_error":    outcome.Error,
		}).Error
}
