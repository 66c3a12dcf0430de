package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"placesmap/internal/config"
	"placesmap/pkg/logging"
	"placesmap/pkg/utils"
	"placesmap/pkg/whop"
)

const (
	forumName       = "Places Forum"
	forumWhoCanPost = "everyone"
	postTitlePrefix = "📍 New Place Added: "
)

// ForumAPI is the slice of the Whop client used to announce places.
type ForumAPI interface {
	FindOrCreateForum(ctx context.Context, companyID string, input whop.ForumInput) (string, error)
	CreateForumPost(ctx context.Context, companyID string, input whop.ForumPostInput) (string, error)
}

// Announcement is everything needed to compose one forum post.
type Announcement struct {
	ExperienceID    string
	ExperienceTitle string
	BizID           string
	BizTitle        string

	PlaceName   string
	Description *string
	Address     *string
	Category    *string
	Latitude    *float64
	Longitude   *float64

	AttachmentID string
	ThumbnailURL string
}

type PublishResult struct {
	ForumID        string
	PostID         string
	WithAttachment bool
}

type AnnouncementPublisher interface {
	// ResolveForum never fails: on any error the experience itself is used as the forum.
	ResolveForum(ctx context.Context, bizID, experienceID string) string
	Publish(ctx context.Context, a Announcement) (PublishResult, error)
}

type announcementPublisher struct {
	forums         ForumAPI
	host           string
	forumTimeout   time.Duration
	postTimeout    time.Duration
	inlineImageURL bool
}

func NewAnnouncementPublisher(whopCfg config.WhopConfig, pipelineCfg config.PipelineConfig, forums ForumAPI) AnnouncementPublisher {
	return &announcementPublisher{
		forums:         forums,
		host:           whopCfg.PublicHost,
		forumTimeout:   pipelineCfg.ForumTimeout,
		postTimeout:    pipelineCfg.PostTimeout,
		inlineImageURL: pipelineCfg.InlineImageURL,
	}
}

func (p *announcementPublisher) ResolveForum(ctx context.Context, bizID, experienceID string) string {
	forumID, err := runStep(ctx, "forum", p.forumTimeout, func(ctx context.Context) (string, error) {
		return p.forums.FindOrCreateForum(ctx, bizID, whop.ForumInput{
			ExperienceID: experienceID,
			Name:         forumName,
			WhoCanPost:   forumWhoCanPost,
		})
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("experience_id", experienceID).Msg("forum lookup failed, posting to experience")
		return experienceID
	}
	if forumID == "" {
		return experienceID
	}
	return forumID
}

func (p *announcementPublisher) Publish(ctx context.Context, a Announcement) (PublishResult, error) {
	forumID := p.ResolveForum(ctx, a.BizID, a.ExperienceID)
	link := DeepLink(p.host, a.BizTitle, a.ExperienceTitle, a.ExperienceID)

	input := whop.ForumPostInput{
		ForumExperienceID: forumID,
		Title:             postTitlePrefix + a.PlaceName,
		IsMention:         true,
	}
	withAttachment := a.AttachmentID != ""
	if withAttachment {
		input.Attachments = []whop.ForumPostAttachment{{DirectUploadID: a.AttachmentID}}
		input.Content = ComposePostContent(a, link, "")
	} else {
		input.Content = ComposePostContent(a, link, p.inlinePreview(a))
	}

	postID, err := p.post(ctx, a.BizID, input)
	if err != nil && withAttachment && errors.Is(err, whop.ErrRequest) {
		// Rejected outright, so nothing was posted. Timeouts stay final to avoid double posts.
		logging.Ctx(ctx).Warn().Err(err).Str("forum_id", forumID).Msg("post with attachment rejected, retrying text-only")
		input.Attachments = nil
		input.Content = ComposePostContent(a, link, p.inlinePreview(a))
		withAttachment = false
		postID, err = p.post(ctx, a.BizID, input)
	}
	if err != nil {
		return PublishResult{ForumID: forumID}, err
	}

	return PublishResult{ForumID: forumID, PostID: postID, WithAttachment: withAttachment}, nil
}

func (p *announcementPublisher) post(ctx context.Context, bizID string, input whop.ForumPostInput) (string, error) {
	postID, err := runStep(ctx, "post", p.postTimeout, func(ctx context.Context) (string, error) {
		return p.forums.CreateForumPost(ctx, bizID, input)
	})
	if err != nil {
		return "", fmt.Errorf("create forum post: %w", err)
	}
	return postID, nil
}

func (p *announcementPublisher) inlinePreview(a Announcement) string {
	if !p.inlineImageURL {
		return ""
	}
	return a.ThumbnailURL
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slug lowercases s and keeps only [a-z0-9-]; whitespace is dropped, not dashed.
func Slug(s string) string {
	s = strings.ToLower(s)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// DeepLink points at the app view of an experience: https://host/<biz>/<exp>-<id suffix>/app.
func DeepLink(host, bizTitle, experienceTitle, experienceID string) string {
	if host == "" {
		host = "whop.com"
	}
	suffix := ""
	if len(experienceID) > 4 {
		suffix = experienceID[4:]
	}
	return fmt.Sprintf("https://%s/%s/%s-%s/app", host, Slug(bizTitle), Slug(experienceTitle), suffix)
}

// ComposePostContent renders the plain-text post body. preview is an optional image URL
// included inline when the post carries no attachment.
func ComposePostContent(a Announcement, link, preview string) string {
	var b strings.Builder
	b.WriteString("\nA new place has been added to the map! 🗺️\n\n")

	switch {
	case nonEmpty(a.Address):
		fmt.Fprintf(&b, "Address: %s\n", strings.TrimSpace(*a.Address))
	case a.Latitude != nil && a.Longitude != nil:
		fmt.Fprintf(&b, "Coordinates: %s, %s\n", formatCoord(*a.Latitude), formatCoord(*a.Longitude))
	}
	if nonEmpty(a.Category) {
		fmt.Fprintf(&b, "Category: %s\n", strings.TrimSpace(*a.Category))
	}
	if nonEmpty(a.Description) {
		fmt.Fprintf(&b, "Description: %s\n", strings.TrimSpace(*a.Description))
	}
	if preview != "" {
		fmt.Fprintf(&b, "Map preview: %s\n", preview)
	}

	fmt.Fprintf(&b, "\nView on Map: %s\n\n", link)
	b.WriteString("Click the link above to explore this location and all other places on our interactive map!")
	return b.String()
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// isTimeout reports whether err came from a step budget running out.
func isTimeout(err error) bool {
	return errors.Is(err, utils.ErrTimeout)
}
