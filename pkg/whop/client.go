// Package whop is a small client for the parts of the Whop public GraphQL API this
// service uses: experiences, access checks, forums and media uploads.
package whop

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"placesmap/pkg/logging"
	"placesmap/pkg/metrics"
)

type AccessLevel string

const (
	AccessAdmin    AccessLevel = "admin"
	AccessCustomer AccessLevel = "customer"
	AccessNone     AccessLevel = "no_access"
)

// ErrRequest marks errors Whop answered definitively (4xx or GraphQL errors).
// Anything else (network, 5xx, open breaker) is transient.
var ErrRequest = errors.New("whop rejected request")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whop api error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRequest && e.StatusCode < http.StatusInternalServerError
}

type Experience struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Company Company `json:"company"`
}

type Company struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ForumInput struct {
	ExperienceID string `json:"experienceId"`
	Name         string `json:"name"`
	WhoCanPost   string `json:"whoCanPost"`
}

type ForumPostAttachment struct {
	DirectUploadID string `json:"directUploadId"`
}

type ForumPostInput struct {
	ForumExperienceID string                `json:"forumExperienceId"`
	Title             string                `json:"title"`
	Content           string                `json:"content"`
	IsMention         bool                  `json:"isMention"`
	Attachments       []ForumPostAttachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Config struct {
	APIKey     string
	GraphQLURL string
	Timeout    time.Duration
}

type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[[]byte]
}

const breakerName = "whop-api"

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejections are Whop answering; only transport trouble should trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRequest)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: cfg.GraphQLURL,
		http:     &http.Client{Timeout: timeout},
		cb:       cb,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// scope selects the identity a request is made on behalf of.
type scope struct {
	userID    string
	companyID string
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) query(ctx context.Context, s scope, q string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: q, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	raw, err := c.cb.Execute(func() ([]byte, error) {
		return c.post(ctx, s, body)
	})
	if err != nil {
		outcome := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.UpstreamRequests.WithLabelValues(breakerName, outcome).Inc()
		return err
	}
	metrics.UpstreamRequests.WithLabelValues(breakerName, "success").Inc()

	var resp graphQLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return &APIError{StatusCode: http.StatusOK, Message: strings.Join(msgs, "; ")}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, s scope, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if s.userID != "" {
		req.Header.Set("x-on-behalf-of", s.userID)
	}
	if s.companyID != "" {
		req.Header.Set("x-company-id", s.companyID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whop http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read whop response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

const getExperienceQuery = `query getExperience($experienceId: ID!) {
  experience(id: $experienceId) { id name company { id title } }
}`

func (c *Client) GetExperience(ctx context.Context, experienceID string) (*Experience, error) {
	var out struct {
		Experience *Experience `json:"experience"`
	}
	err := c.query(ctx, scope{}, getExperienceQuery, map[string]interface{}{"experienceId": experienceID}, &out)
	if err != nil {
		return nil, err
	}
	if out.Experience == nil {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "experience not found"}
	}
	return out.Experience, nil
}

const accessQuery = `query checkIfUserHasAccessToExperience($experienceId: ID!, $userId: ID) {
  hasAccessToExperience(experienceId: $experienceId, userId: $userId) { hasAccess accessLevel }
}`

func (c *Client) CheckAccess(ctx context.Context, userID, experienceID string) (AccessLevel, error) {
	var out struct {
		HasAccessToExperience struct {
			HasAccess   bool        `json:"hasAccess"`
			AccessLevel AccessLevel `json:"accessLevel"`
		} `json:"hasAccessToExperience"`
	}
	vars := map[string]interface{}{"experienceId": experienceID, "userId": userID}
	if err := c.query(ctx, scope{}, accessQuery, vars, &out); err != nil {
		return AccessNone, err
	}

	res := out.HasAccessToExperience
	if !res.HasAccess {
		return AccessNone, nil
	}
	switch res.AccessLevel {
	case AccessAdmin, AccessCustomer:
		return res.AccessLevel, nil
	default:
		return AccessNone, nil
	}
}

const findOrCreateForumMutation = `mutation findOrCreateForum($input: CreateForumInput!) {
  createForum(input: $input) { id }
}`

// FindOrCreateForum returns the id of the forum experience, creating it when missing.
func (c *Client) FindOrCreateForum(ctx context.Context, companyID string, input ForumInput) (string, error) {
	var out struct {
		CreateForum *struct {
			ID string `json:"id"`
		} `json:"createForum"`
	}
	err := c.query(ctx, scope{companyID: companyID}, findOrCreateForumMutation, map[string]interface{}{"input": input}, &out)
	if err != nil {
		return "", err
	}
	if out.CreateForum == nil {
		return "", nil
	}
	return out.CreateForum.ID, nil
}

const createForumPostMutation = `mutation createForumPost($input: CreateForumPostInput!) {
  createForumPost(input: $input) { id }
}`

func (c *Client) CreateForumPost(ctx context.Context, companyID string, input ForumPostInput) (string, error) {
	var out struct {
		CreateForumPost *struct {
			ID string `json:"id"`
		} `json:"createForumPost"`
	}
	err := c.query(ctx, scope{companyID: companyID}, createForumPostMutation, map[string]interface{}{"input": input}, &out)
	if err != nil {
		return "", err
	}
	if out.CreateForumPost == nil || out.CreateForumPost.ID == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: "no post id returned"}
	}
	return out.CreateForumPost.ID, nil
}

const directUploadMutation = `mutation mediaDirectUpload($input: DirectUploadInput!) {
  mediaDirectUpload(input: $input) { id uploadUrl headers }
}`

// UploadAttachment performs Whop's two-step direct upload and returns the direct upload id
// that forum posts reference as an attachment.
func (c *Client) UploadAttachment(ctx context.Context, userID, companyID string, file Attachment) (string, error) {
	sum := md5.Sum(file.Data)
	input := map[string]interface{}{
		"filename":    file.Filename,
		"contentType": file.ContentType,
		"byteSizeV2":  len(file.Data),
		"checksum":    base64.StdEncoding.EncodeToString(sum[:]),
		"record":      "forum_post",
	}

	var out struct {
		MediaDirectUpload *struct {
			ID        string            `json:"id"`
			UploadURL string            `json:"uploadUrl"`
			Headers   map[string]string `json:"headers"`
		} `json:"mediaDirectUpload"`
	}
	s := scope{userID: userID, companyID: companyID}
	if err := c.query(ctx, s, directUploadMutation, map[string]interface{}{"input": input}, &out); err != nil {
		return "", err
	}
	upload := out.MediaDirectUpload
	if upload == nil || upload.ID == "" || upload.UploadURL == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: "no direct upload returned"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, upload.UploadURL, bytes.NewReader(file.Data))
	if err != nil {
		return "", err
	}
	for k, v := range upload.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", file.ContentType)
	}
	req.ContentLength = int64(len(file.Data))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload bytes: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "direct upload rejected"}
	}
	return upload.ID, nil
}
