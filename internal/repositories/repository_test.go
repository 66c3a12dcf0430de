package repositories_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"placesmap/internal/infra"
	"placesmap/internal/models/db_models"
	"placesmap/internal/repositories"
)

// setupTestDB opens an in-memory SQLite database with the service schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("could not get sql.DB: %v", err)
	}
	// A second connection would see a different in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := infra.Migrate(db); err != nil {
		t.Fatalf("could not migrate: %v", err)
	}
	return db
}

func seedExperience(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	repo := repositories.NewExperienceRepository(db)
	if _, _, err := repo.Upsert(context.Background(), db_models.Experience{ID: id, Title: "Map", BizID: "biz_1", BizName: "Biz"}); err != nil {
		t.Fatalf("seed experience: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestPlaceRepository_CreateAndListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	seedExperience(t, db, "exp_alpha")
	seedExperience(t, db, "exp_beta")
	repo := repositories.NewPlaceRepository(db)
	ctx := context.Background()

	names := []string{"First", "Second", "Third"}
	for _, name := range names {
		if _, err := repo.CreatePlace(ctx, &db_models.Place{ExperienceID: "exp_alpha", Name: name, Latitude: 1, Longitude: 2}); err != nil {
			t.Fatalf("CreatePlace(%s) failed: %v", name, err)
		}
	}
	if _, err := repo.CreatePlace(ctx, &db_models.Place{ExperienceID: "exp_beta", Name: "Other", Latitude: 3, Longitude: 4}); err != nil {
		t.Fatalf("CreatePlace(Other) failed: %v", err)
	}

	places, err := repo.ListByExperience(ctx, "exp_alpha")
	if err != nil {
		t.Fatalf("ListByExperience failed: %v", err)
	}
	if len(places) != 3 {
		t.Fatalf("expected 3 places, got %d", len(places))
	}
	for i, want := range []string{"Third", "Second", "First"} {
		if places[i].Name != want {
			t.Errorf("places[%d] = %s, want %s", i, places[i].Name, want)
		}
		if places[i].AnnouncementStatus != db_models.AnnouncementPending {
			t.Errorf("places[%d] status = %s, want pending", i, places[i].AnnouncementStatus)
		}
	}
}

func TestPlaceRepository_DeleteIsNotIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seedExperience(t, db, "exp_alpha")
	repo := repositories.NewPlaceRepository(db)
	ctx := context.Background()

	id, err := repo.CreatePlace(ctx, &db_models.Place{ExperienceID: "exp_alpha", Name: "Gone", Latitude: 1, Longitude: 1})
	if err != nil {
		t.Fatalf("CreatePlace failed: %v", err)
	}

	deleted, err := repo.Delete(ctx, "exp_beta", id)
	if err != nil || deleted {
		t.Fatalf("Delete from another experience = (%v, %v), want (false, nil)", deleted, err)
	}

	deleted, err = repo.Delete(ctx, "exp_alpha", id)
	if err != nil || !deleted {
		t.Fatalf("first Delete = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = repo.Delete(ctx, "exp_alpha", id)
	if err != nil || deleted {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", deleted, err)
	}

	places, _ := repo.ListByExperience(ctx, "exp_alpha")
	for _, p := range places {
		if p.ID == id {
			t.Fatal("deleted place is still listed")
		}
	}
}

func TestPlaceRepository_UpdateAppliesOnlyGivenFields(t *testing.T) {
	db := setupTestDB(t)
	seedExperience(t, db, "exp_alpha")
	repo := repositories.NewPlaceRepository(db)
	ctx := context.Background()

	id, err := repo.CreatePlace(ctx, &db_models.Place{
		ExperienceID: "exp_alpha",
		Name:         "Cafe",
		Latitude:     10,
		Longitude:    20,
		Category:     strPtr("food"),
	})
	if err != nil {
		t.Fatalf("CreatePlace failed: %v", err)
	}

	updated, err := repo.UpdatePlace(ctx, "exp_alpha", id, map[string]interface{}{"name": "Better Cafe"})
	if err != nil {
		t.Fatalf("UpdatePlace failed: %v", err)
	}
	if updated == nil {
		t.Fatal("UpdatePlace returned nil place")
	}
	if updated.Name != "Better Cafe" {
		t.Errorf("Name = %s, want Better Cafe", updated.Name)
	}
	if updated.Latitude != 10 || updated.Longitude != 20 {
		t.Errorf("coordinates changed: %v,%v", updated.Latitude, updated.Longitude)
	}
	if updated.Category == nil || *updated.Category != "food" {
		t.Errorf("Category changed: %v", updated.Category)
	}

	missing, err := repo.UpdatePlace(ctx, "exp_alpha", uuid.New(), map[string]interface{}{"name": "x"})
	if err != nil || missing != nil {
		t.Errorf("UpdatePlace(unknown) = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestPlaceRepository_ClaimAnnouncementOnce(t *testing.T) {
	db := setupTestDB(t)
	seedExperience(t, db, "exp_alpha")
	repo := repositories.NewPlaceRepository(db)
	ctx := context.Background()

	id, err := repo.CreatePlace(ctx, &db_models.Place{ExperienceID: "exp_alpha", Name: "Pier", Latitude: 1, Longitude: 1})
	if err != nil {
		t.Fatalf("CreatePlace failed: %v", err)
	}

	first, err := repo.ClaimAnnouncement(ctx, id)
	if err != nil || !first {
		t.Fatalf("first claim = (%v, %v), want (true, nil)", first, err)
	}
	second, err := repo.ClaimAnnouncement(ctx, id)
	if err != nil || second {
		t.Fatalf("second claim = (%v, %v), want (false, nil)", second, err)
	}

	err = repo.RecordAnnouncement(ctx, id, repositories.AnnouncementOutcome{
		Status:  db_models.AnnouncementTextOnly,
		PostID:  "post_1",
		ForumID: "forum_1",
	})
	if err != nil {
		t.Fatalf("RecordAnnouncement failed: %v", err)
	}

	place, err := repo.GetByID(ctx, id)
	if err != nil || place == nil {
		t.Fatalf("GetByID = (%v, %v)", place, err)
	}
	if place.AnnouncementStatus != db_models.AnnouncementTextOnly || place.AnnouncementPostID != "post_1" {
		t.Errorf("announcement = %s/%s", place.AnnouncementStatus, place.AnnouncementPostID)
	}
}

func TestExperienceRepository_UpsertRefreshesCachedFields(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewExperienceRepository(db)
	ctx := context.Background()

	created, isNew, err := repo.Upsert(ctx, db_models.Experience{ID: "exp_1", Title: "Old", BizID: "biz_1", BizName: "Biz"})
	if err != nil || !isNew {
		t.Fatalf("first Upsert = (%v, %v), want new", isNew, err)
	}
	if created.Title != "Old" {
		t.Errorf("Title = %s", created.Title)
	}

	if _, err := repo.UpdatePrompt(ctx, "exp_1", "make it a watercolor"); err != nil {
		t.Fatalf("UpdatePrompt failed: %v", err)
	}

	refreshed, isNew, err := repo.Upsert(ctx, db_models.Experience{ID: "exp_1", Title: "New", BizID: "biz_1", BizName: "Biz Renamed"})
	if err != nil || isNew {
		t.Fatalf("second Upsert = (%v, %v), want existing", isNew, err)
	}
	if refreshed.Title != "New" || refreshed.BizName != "Biz Renamed" {
		t.Errorf("refreshed = %+v", refreshed)
	}
	if refreshed.Prompt != "make it a watercolor" {
		t.Errorf("Prompt lost on refresh: %q", refreshed.Prompt)
	}

	missing, err := repo.UpdatePrompt(ctx, "exp_missing", "x")
	if err != nil || missing != nil {
		t.Errorf("UpdatePrompt(missing) = (%v, %v), want (nil, nil)", missing, err)
	}
}
