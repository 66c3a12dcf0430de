package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"placesmap/internal/infra"
	"placesmap/internal/repositories"
	"placesmap/pkg/whop"
)

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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := infra.Migrate(db); err != nil {
		t.Fatalf("could not migrate: %v", err)
	}
	return db
}

func newTestExperienceService(t *testing.T) ExperienceServiceInterface {
	t.Helper()
	db := setupTestDB(t)
	directory := &fakeDirectory{experience: &whop.Experience{
		Name:    "Cool Map",
		Company: whop.Company{ID: "biz_1", Title: "Acme Co"},
	}}
	return NewExperienceService(
		repositories.NewExperienceRepository(db),
		repositories.NewPlaceRepository(db),
		directory,
		newFakeNotifier(),
	)
}

type fakeDirectory struct {
	experience *whop.Experience
	err        error
}

func (f *fakeDirectory) GetExperience(ctx context.Context, experienceID string) (*whop.Experience, error) {
	if f.err != nil {
		return nil, f.err
	}
	exp := *f.experience
	exp.ID = experienceID
	return &exp, nil
}

// fakeForums records every call. Delays ignore ctx on purpose, like a stuck client.
type fakeForums struct {
	mu         sync.Mutex
	forumID    string
	forumErr   error
	forumDelay time.Duration
	postDelay  time.Duration
	postErrs   []error
	posts      []whop.ForumPostInput
}

func (f *fakeForums) FindOrCreateForum(ctx context.Context, companyID string, input whop.ForumInput) (string, error) {
	if f.forumDelay > 0 {
		time.Sleep(f.forumDelay)
	}
	return f.forumID, f.forumErr
}

func (f *fakeForums) CreateForumPost(ctx context.Context, companyID string, input whop.ForumPostInput) (string, error) {
	f.mu.Lock()
	f.posts = append(f.posts, input)
	var err error
	if len(f.postErrs) > 0 {
		err, f.postErrs = f.postErrs[0], f.postErrs[1:]
	}
	f.mu.Unlock()

	if f.postDelay > 0 {
		time.Sleep(f.postDelay)
	}
	if err != nil {
		return "", err
	}
	return "post_1", nil
}

func (f *fakeForums) Posts() []whop.ForumPostInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]whop.ForumPostInput(nil), f.posts...)
}

type fakeAttachments struct {
	id    string
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeAttachments) UploadAttachment(ctx context.Context, userID, companyID string, file whop.Attachment) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.id, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	notified chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{notified: make(chan struct{}, 16)}
}

func (f *fakeNotifier) Notify(ctx context.Context, webhookURL, content string) {
	f.mu.Lock()
	f.messages = append(f.messages, content)
	f.mu.Unlock()
	f.notified <- struct{}{}
}

func (f *fakeNotifier) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type recordingDispatcher struct {
	jobs []AnnouncementJob
	err  error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, job AnnouncementJob) error {
	d.jobs = append(d.jobs, job)
	return d.err
}

func strPtr(s string) *string     { return &s }
func floatPtr(v float64) *float64 { return &v }
