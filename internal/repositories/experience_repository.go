package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"placesmap/internal/models/db_models"
)

type ExperienceRepository interface {
	// Upsert creates the row on first sight and refreshes the cached Whop fields afterwards.
	Upsert(ctx context.Context, experience db_models.Experience) (*db_models.Experience, bool, error)
	GetByID(ctx context.Context, id string) (*db_models.Experience, error)
	UpdatePrompt(ctx context.Context, id, prompt string) (*db_models.Experience, error)
}

type experienceRepository struct {
	db *gorm.DB
}

func NewExperienceRepository(db *gorm.DB) ExperienceRepository {
	return &experienceRepository{db: db}
}

func (r *experienceRepository) Upsert(ctx context.Context, experience db_models.Experience) (*db_models.Experience, bool, error) {
	existing, err := r.GetByID(ctx, experience.ID)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		if err := r.db.WithContext(ctx).Create(&experience).Error; err != nil {
			// Lost a race with a concurrent first access.
			if again, getErr := r.GetByID(ctx, experience.ID); getErr == nil && again != nil {
				return r.refresh(ctx, again, experience)
			}
			return nil, false, err
		}
		return &experience, true, nil
	}

	return r.refresh(ctx, existing, experience)
}

func (r *experienceRepository) refresh(ctx context.Context, existing *db_models.Experience, fresh db_models.Experience) (*db_models.Experience, bool, error) {
	err := r.db.WithContext(ctx).
		Model(existing).
		Updates(map[string]interface{}{
			"title":    fresh.Title,
			"biz_id":   fresh.BizID,
			"biz_name": fresh.BizName,
		}).Error
	if err != nil {
		return nil, false, err
	}
	existing.Title = fresh.Title
	existing.BizID = fresh.BizID
	existing.BizName = fresh.BizName
	return existing, false, nil
}

func (r *experienceRepository) GetByID(ctx context.Context, id string) (*db_models.Experience, error) {
	var experience db_models.Experience
	err := r.db.WithContext(ctx).First(&experience, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &experience, nil
}

func (r *experienceRepository) UpdatePrompt(ctx context.Context, id, prompt string) (*db_models.Experience, error) {
	result := r.db.WithContext(ctx).
		Model(&db_models.Experience{}).
		Where("id = ?", id).
		Update("prompt", prompt)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}
