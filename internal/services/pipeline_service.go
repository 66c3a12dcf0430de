package services

import (
	"context"
	"fmt"

	"placesmap/internal/models/db_models"
	"placesmap/internal/repositories"
	"placesmap/pkg/logging"
	"placesmap/pkg/metrics"
)

// PipelineState tracks how far an announcement got. Transitions are linear:
// CREATED, then THUMBNAIL_READY or THUMBNAIL_SKIPPED, then UPLOADED or UPLOAD_SKIPPED,
// then ANNOUNCED or ANNOUNCE_FAILED.
type PipelineState string

const (
	StateCreated          PipelineState = "CREATED"
	StateThumbnailReady   PipelineState = "THUMBNAIL_READY"
	StateThumbnailSkipped PipelineState = "THUMBNAIL_SKIPPED"
	StateUploaded         PipelineState = "UPLOADED"
	StateUploadSkipped    PipelineState = "UPLOAD_SKIPPED"
	StateAnnounced        PipelineState = "ANNOUNCED"
	StateAnnounceFailed   PipelineState = "ANNOUNCE_FAILED"
)

type PipelineReport struct {
	States       []PipelineState
	Status       db_models.AnnouncementStatus
	Skipped      bool
	ThumbnailURL string
	AttachmentID string
	ForumID      string
	PostID       string
	Err          error
}

func (r *PipelineReport) enter(s PipelineState) {
	r.States = append(r.States, s)
}

func (r *PipelineReport) Final() PipelineState {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

type PipelineServiceInterface interface {
	// Run executes one announcement. It never returns an error: every failure is
	// absorbed into the report and the persisted announcement status.
	Run(ctx context.Context, job AnnouncementJob) PipelineReport
}

type PipelineService struct {
	placeRepository      repositories.PlaceRepository
	experienceRepository repositories.ExperienceRepository
	renderer             ThumbnailRenderer
	uploader             MediaUploader
	publisher            AnnouncementPublisher
	notifier             WebhookNotifier
}

func NewPipelineService(
	placeRepository repositories.PlaceRepository,
	experienceRepository repositories.ExperienceRepository,
	renderer ThumbnailRenderer,
	uploader MediaUploader,
	publisher AnnouncementPublisher,
	notifier WebhookNotifier,
) PipelineServiceInterface {
	return &PipelineService{
		placeRepository:      placeRepository,
		experienceRepository: experienceRepository,
		renderer:             renderer,
		uploader:             uploader,
		publisher:            publisher,
		notifier:             notifier,
	}
}

func (s *PipelineService) Run(ctx context.Context, job AnnouncementJob) PipelineReport {
	if job.TraceID != "" {
		ctx = logging.ContextWithTraceID(ctx, job.TraceID)
	}
	log := logging.Ctx(ctx).With().Str("component", "pipeline").Str("place_id", job.PlaceID.String()).Logger()

	report := PipelineReport{}
	report.enter(StateCreated)

	claimed, err := s.placeRepository.ClaimAnnouncement(ctx, job.PlaceID)
	if err != nil {
		log.Error().Err(err).Msg("claim announcement")
		report.Skipped, report.Err = true, err
		metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return report
	}
	if !claimed {
		log.Info().Msg("announcement already claimed")
		report.Skipped = true
		metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return report
	}

	place, err := s.placeRepository.GetByID(ctx, job.PlaceID)
	if err == nil && place == nil {
		err = fmt.Errorf("place %s no longer exists", job.PlaceID)
	}
	if err != nil {
		log.Warn().Err(err).Msg("load place")
		report.Skipped, report.Err = true, err
		metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return report
	}
	experience, err := s.experienceRepository.GetByID(ctx, place.ExperienceID)
	if err != nil || experience == nil {
		// Announce anyway; the deep link degrades and the forum falls back to the experience.
		log.Warn().Err(err).Msg("experience row unavailable")
		experience = &db_models.Experience{ID: place.ExperienceID}
	}

	// Thumbnail and upload, unless the client already uploaded an image.
	if job.AttachmentID != "" {
		report.enter(StateThumbnailSkipped)
		report.enter(StateUploaded)
		report.AttachmentID = job.AttachmentID
	} else {
		s.attachThumbnail(ctx, job, place, experience, &report)
	}

	lat, lng := place.Latitude, place.Longitude
	result, err := s.publisher.Publish(ctx, Announcement{
		ExperienceID:    experience.ID,
		ExperienceTitle: experience.Title,
		BizID:           experience.BizID,
		BizTitle:        experience.BizName,
		PlaceName:       place.Name,
		Description:     place.Description,
		Address:         place.Address,
		Category:        place.Category,
		Latitude:        &lat,
		Longitude:       &lng,
		AttachmentID:    report.AttachmentID,
		ThumbnailURL:    report.ThumbnailURL,
	})
	report.ForumID = result.ForumID

	outcome := repositories.AnnouncementOutcome{ForumID: result.ForumID}
	if err != nil {
		report.enter(StateAnnounceFailed)
		report.Status, report.Err = db_models.AnnouncementFailed, err
		outcome.Status, outcome.Error = db_models.AnnouncementFailed, err.Error()
		log.Error().Err(err).Bool("timeout", isTimeout(err)).Msg("announcement failed")

		s.notifier.Notify(ctx, experience.WebhookURL,
			fmt.Sprintf("New place added to the map: %s (forum post failed: %v)", place.Name, err))
	} else {
		report.enter(StateAnnounced)
		report.PostID = result.PostID
		report.Status = db_models.AnnouncementTextOnly
		if result.WithAttachment {
			report.Status = db_models.AnnouncementImageAttached
		}
		outcome.Status, outcome.PostID = report.Status, result.PostID
		log.Info().Str("post_id", result.PostID).Str("status", string(report.Status)).Msg("place announced")
	}

	if err := s.placeRepository.RecordAnnouncement(ctx, job.PlaceID, outcome); err != nil {
		log.Error().Err(err).Msg("record announcement")
	}
	metrics.PipelineRuns.WithLabelValues(string(report.Status)).Inc()
	return report
}

func (s *PipelineService) attachThumbnail(ctx context.Context, job AnnouncementJob, place *db_models.Place, experience *db_models.Experience, report *PipelineReport) {
	log := logging.Ctx(ctx).With().Str("component", "pipeline").Str("place_id", place.ID.String()).Logger()

	url, ok := s.renderer.Render(place.Latitude, place.Longitude)
	if !ok {
		report.enter(StateThumbnailSkipped)
		report.enter(StateUploadSkipped)
		return
	}
	report.enter(StateThumbnailReady)
	report.ThumbnailURL = url

	img, err := s.uploader.FetchImage(ctx, url)
	if err != nil {
		log.Warn().Err(err).Msg("thumbnail fetch skipped")
		report.enter(StateUploadSkipped)
		return
	}
	attachmentID, err := s.uploader.Upload(ctx, job.UserID, experience.BizID, img)
	if err != nil || attachmentID == "" {
		log.Warn().Err(err).Msg("thumbnail upload skipped")
		report.enter(StateUploadSkipped)
		return
	}

	report.enter(StateUploaded)
	report.AttachmentID = attachmentID
}
