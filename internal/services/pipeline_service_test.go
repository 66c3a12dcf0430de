package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"placesmap/internal/config"
	"placesmap/internal/models/db_models"
	"placesmap/internal/models/request_models"
	"placesmap/internal/repositories"
	"placesmap/pkg/whop"
)

type pipelineFixture struct {
	places      repositories.PlaceRepository
	placeSvc    PlaceServiceInterface
	dispatcher  *recordingDispatcher
	forums      *fakeForums
	attachments *fakeAttachments
	notifier    *fakeNotifier
	pipeline    PipelineServiceInterface
}

type fixtureOptions struct {
	mapboxToken string
	cfg         config.PipelineConfig
}

func newPipelineFixture(t *testing.T, opts fixtureOptions) *pipelineFixture {
	t.Helper()
	db := setupTestDB(t)

	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	t.Cleanup(images.Close)

	f := &pipelineFixture{
		places:      repositories.NewPlaceRepository(db),
		dispatcher:  &recordingDispatcher{},
		forums:      &fakeForums{forumID: "forum_1"},
		attachments: &fakeAttachments{id: "du_1"},
		notifier:    newFakeNotifier(),
	}
	experiences := repositories.NewExperienceRepository(db)
	directory := &fakeDirectory{experience: &whop.Experience{
		Name:    "Cool Map",
		Company: whop.Company{ID: "biz_1", Title: "Acme Co"},
	}}

	cfg := opts.cfg
	if cfg.MaxImageBytes == 0 {
		cfg = testPipelineConfig()
	}
	renderer := &MapboxStaticRenderer{AccessToken: opts.mapboxToken, BaseURL: images.URL}

	experienceSvc := NewExperienceService(experiences, f.places, directory, f.notifier)
	f.placeSvc = NewPlaceService(f.places, experienceSvc, f.dispatcher)
	f.pipeline = NewPipelineService(
		f.places,
		experiences,
		renderer,
		NewMediaUploader(cfg, f.attachments),
		newTestPublisher(f.forums, cfg),
		f.notifier,
	)
	return f
}

func (f *pipelineFixture) createPlace(t *testing.T, req request_models.CreatePlaceRequest) AnnouncementJob {
	t.Helper()
	if _, err := f.placeSvc.CreatePlace(context.Background(), "exp_1234abcd", "user_1", req); err != nil {
		t.Fatalf("CreatePlace: %v", err)
	}
	if len(f.dispatcher.jobs) == 0 {
		t.Fatal("no announcement dispatched")
	}
	return f.dispatcher.jobs[len(f.dispatcher.jobs)-1]
}

func (f *pipelineFixture) status(t *testing.T, job AnnouncementJob) *db_models.Place {
	t.Helper()
	place, err := f.places.GetByID(context.Background(), job.PlaceID)
	if err != nil || place == nil {
		t.Fatalf("GetByID = (%v, %v)", place, err)
	}
	return place
}

func centralPark() request_models.CreatePlaceRequest {
	return request_models.CreatePlaceRequest{
		Name:      "Central Park",
		Latitude:  floatPtr(40.785091),
		Longitude: floatPtr(-73.968285),
	}
}

func TestPipeline_CentralParkEndToEnd(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	job := f.createPlace(t, centralPark())

	report := f.pipeline.Run(context.Background(), job)

	posts := f.forums.Posts()
	if len(posts) != 1 {
		t.Fatalf("post attempts = %d, want 1", len(posts))
	}
	if !strings.Contains(posts[0].Title, "Central Park") {
		t.Errorf("Title = %q", posts[0].Title)
	}
	if !strings.Contains(posts[0].Content, "View on Map: https://whop.com/acmeco/coolmap-1234abcd/app\n") {
		t.Errorf("Content missing deep link:\n%s", posts[0].Content)
	}
	if !strings.Contains(posts[0].Content, "Coordinates: 40.785091, -73.968285\n") {
		t.Errorf("Content missing coordinates:\n%s", posts[0].Content)
	}

	// No Mapbox token: the post goes out text-only.
	wantStates := []PipelineState{StateCreated, StateThumbnailSkipped, StateUploadSkipped, StateAnnounced}
	if !reflect.DeepEqual(report.States, wantStates) {
		t.Errorf("States = %v, want %v", report.States, wantStates)
	}
	if len(posts[0].Attachments) != 0 {
		t.Errorf("Attachments = %+v, want none", posts[0].Attachments)
	}

	place := f.status(t, job)
	if place.AnnouncementStatus != db_models.AnnouncementTextOnly || place.AnnouncementPostID != "post_1" || place.AnnouncementForumID != "forum_1" {
		t.Errorf("persisted announcement = %s %s %s", place.AnnouncementStatus, place.AnnouncementPostID, place.AnnouncementForumID)
	}
}

func TestPipeline_AttachesThumbnail(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{mapboxToken: "pk.test"})
	job := f.createPlace(t, centralPark())

	report := f.pipeline.Run(context.Background(), job)

	wantStates := []PipelineState{StateCreated, StateThumbnailReady, StateUploaded, StateAnnounced}
	if !reflect.DeepEqual(report.States, wantStates) {
		t.Errorf("States = %v, want %v", report.States, wantStates)
	}
	posts := f.forums.Posts()
	if len(posts) != 1 || len(posts[0].Attachments) != 1 || posts[0].Attachments[0].DirectUploadID != "du_1" {
		t.Fatalf("posts = %+v", posts)
	}
	if got := f.status(t, job).AnnouncementStatus; got != db_models.AnnouncementImageAttached {
		t.Errorf("status = %s, want image_attached", got)
	}
}

func TestPipeline_ClientAttachmentSkipsThumbnail(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{mapboxToken: "pk.test"})
	req := centralPark()
	req.AttachmentID = strPtr("du_client")
	job := f.createPlace(t, req)

	report := f.pipeline.Run(context.Background(), job)

	if report.Final() != StateAnnounced || report.AttachmentID != "du_client" {
		t.Errorf("report = %+v", report)
	}
	if f.attachments.calls != 0 {
		t.Errorf("uploads = %d, want 0", f.attachments.calls)
	}
}

func TestPipeline_UploadTimeoutStillAnnouncesWithinBudget(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.UploadTimeout = 40 * time.Millisecond
	f := newPipelineFixture(t, fixtureOptions{mapboxToken: "pk.test", cfg: cfg})
	f.attachments.delay = 2 * time.Second
	job := f.createPlace(t, centralPark())

	start := time.Now()
	report := f.pipeline.Run(context.Background(), job)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("pipeline took %v with a stuck uploader", elapsed)
	}

	wantStates := []PipelineState{StateCreated, StateThumbnailReady, StateUploadSkipped, StateAnnounced}
	if !reflect.DeepEqual(report.States, wantStates) {
		t.Errorf("States = %v, want %v", report.States, wantStates)
	}
	posts := f.forums.Posts()
	if len(posts) != 1 || len(posts[0].Attachments) != 0 {
		t.Errorf("posts = %+v, want one text-only post", posts)
	}
	if got := f.status(t, job).AnnouncementStatus; got != db_models.AnnouncementTextOnly {
		t.Errorf("status = %s, want text_only", got)
	}
}

func TestPipeline_AnnouncesAtMostOnce(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	job := f.createPlace(t, centralPark())

	first := f.pipeline.Run(context.Background(), job)
	second := f.pipeline.Run(context.Background(), job)

	if first.Skipped || !second.Skipped {
		t.Errorf("skipped = %v then %v, want false then true", first.Skipped, second.Skipped)
	}
	if n := len(f.forums.Posts()); n != 1 {
		t.Errorf("posts = %d, want 1", n)
	}
}

func TestPipeline_FailureIsRecordedAndNotified(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	job := f.createPlace(t, centralPark())
	// Drain the install notification fired on first access.
	<-f.notifier.notified
	f.forums.postErrs = []error{errors.New("connection reset")}

	report := f.pipeline.Run(context.Background(), job)

	if report.Final() != StateAnnounceFailed || report.Err == nil {
		t.Errorf("report = %+v", report)
	}
	place := f.status(t, job)
	if place.AnnouncementStatus != db_models.AnnouncementFailed || place.AnnouncementError == "" {
		t.Errorf("persisted = %s %q", place.AnnouncementStatus, place.AnnouncementError)
	}

	var found bool
	for _, m := range f.notifier.Messages() {
		if strings.Contains(m, "Central Park") {
			found = true
		}
	}
	if !found {
		t.Errorf("notifier messages = %v", f.notifier.Messages())
	}
}

func TestPipeline_DeletedPlaceIsSkipped(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	job := f.createPlace(t, centralPark())
	if err := f.placeSvc.DeletePlace(context.Background(), job.ExperienceID, job.PlaceID.String()); err != nil {
		t.Fatalf("DeletePlace: %v", err)
	}

	report := f.pipeline.Run(context.Background(), job)
	if !report.Skipped {
		t.Errorf("report = %+v, want skipped", report)
	}
	if n := len(f.forums.Posts()); n != 0 {
		t.Errorf("posts = %d, want 0", n)
	}
}
