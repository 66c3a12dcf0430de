package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"placesmap/internal/config"
	"placesmap/pkg/utils"
	"placesmap/pkg/whop"
)

// AttachmentUploader is the slice of the Whop client the uploader needs.
type AttachmentUploader interface {
	UploadAttachment(ctx context.Context, userID, companyID string, file whop.Attachment) (string, error)
}

type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

type MediaUploader interface {
	// FetchImage downloads an image, bounded by the fetch budget and the size ceiling.
	FetchImage(ctx context.Context, url string) (*Image, error)
	// Upload stores the image on Whop and returns the attachment handle.
	Upload(ctx context.Context, userID, bizID string, img *Image) (string, error)
}

type mediaUploader struct {
	http          *http.Client
	whop          AttachmentUploader
	fetchTimeout  time.Duration
	uploadTimeout time.Duration
	maxBytes      int64
}

func NewMediaUploader(cfg config.PipelineConfig, whopClient AttachmentUploader) MediaUploader {
	return &mediaUploader{
		http:          &http.Client{},
		whop:          whopClient,
		fetchTimeout:  cfg.FetchTimeout,
		uploadTimeout: cfg.UploadTimeout,
		maxBytes:      cfg.MaxImageBytes,
	}
}

func (m *mediaUploader) FetchImage(ctx context.Context, url string) (*Image, error) {
	return runStep(ctx, "fetch", m.fetchTimeout, func(ctx context.Context) (*Image, error) {
		return m.fetch(ctx, url)
	})
}

func (m *mediaUploader) fetch(ctx context.Context, url string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch image bad status %s: %w", resp.Status, utils.ErrUpstream)
	}
	if resp.ContentLength > m.maxBytes {
		return nil, fmt.Errorf("image is %d bytes: %w", resp.ContentLength, utils.ErrImageTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, m.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > m.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes: %w", m.maxBytes, utils.ErrImageTooLarge)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &Image{Data: data, ContentType: contentType, Filename: filenameFor(contentType)}, nil
}

func (m *mediaUploader) Upload(ctx context.Context, userID, bizID string, img *Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("empty image: %w", utils.ErrValidation)
	}
	if int64(len(img.Data)) > m.maxBytes {
		return "", fmt.Errorf("image is %d bytes: %w", len(img.Data), utils.ErrImageTooLarge)
	}

	return runStep(ctx, "upload", m.uploadTimeout, func(ctx context.Context) (string, error) {
		id, err := m.whop.UploadAttachment(ctx, userID, bizID, whop.Attachment{
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Data:        img.Data,
		})
		if err != nil {
			return "", fmt.Errorf("whop upload: %w", err)
		}
		return id, nil
	})
}

func filenameFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "place-image"
	}
	switch mediaType {
	case "image/jpeg":
		return "place-image.jpg"
	case "image/png":
		return "place-image.png"
	case "image/webp":
		return "place-image.webp"
	case "image/gif":
		return "place-image.gif"
	}
	if ext := strings.TrimPrefix(mediaType, "image/"); ext != mediaType {
		return "place-image." + ext
	}
	return "place-image"
}
