package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"placesmap/internal/config"
	"placesmap/internal/models/response_models"
	"placesmap/pkg/logging"
	"placesmap/pkg/utils"
)

// ImageEditor is satisfied by *openai.Client.
type ImageEditor interface {
	CreateEditImage(ctx context.Context, request openai.ImageEditRequest) (openai.ImageResponse, error)
}

type GeneratorServiceInterface interface {
	// GenerateImage restyles a data URL image with the experience prompt.
	GenerateImage(ctx context.Context, experienceID, imageDataURL string) (response_models.GeneratedImage, error)
}

type GeneratorService struct {
	experienceService ExperienceServiceInterface
	editor            ImageEditor
	model             string
	size              string
}

func NewGeneratorService(cfg config.OpenAIConfig, experienceService ExperienceServiceInterface, editor ImageEditor) GeneratorServiceInterface {
	return &GeneratorService{
		experienceService: experienceService,
		editor:            editor,
		model:             cfg.Model,
		size:              cfg.Size,
	}
}

func (s *GeneratorService) GenerateImage(ctx context.Context, experienceID, imageDataURL string) (response_models.GeneratedImage, error) {
	if strings.TrimSpace(imageDataURL) == "" {
		return response_models.GeneratedImage{}, utils.ErrPromptMissing
	}
	experience, err := s.experienceService.Sync(ctx, experienceID)
	if err != nil {
		return response_models.GeneratedImage{}, err
	}
	if strings.TrimSpace(experience.Prompt) == "" {
		return response_models.GeneratedImage{}, utils.ErrPromptMissing
	}
	if s.editor == nil {
		return response_models.GeneratedImage{}, fmt.Errorf("openai is not configured: %w", utils.ErrImageGeneration)
	}

	data, contentType, err := decodeDataURL(imageDataURL)
	if err != nil {
		return response_models.GeneratedImage{}, err
	}

	resp, err := s.editor.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:  &namedReader{Reader: bytes.NewReader(data), name: filenameFor(contentType), contentType: contentType},
		Prompt: experience.Prompt,
		Model:  s.model,
		Size:   s.size,
		N:      1,
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("experience_id", experienceID).Msg("openai image edit")
		return response_models.GeneratedImage{}, fmt.Errorf("%v: %w", err, utils.ErrImageGeneration)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return response_models.GeneratedImage{}, fmt.Errorf("no image returned: %w", utils.ErrImageGeneration)
	}

	return response_models.GeneratedImage{
		Success:  true,
		ImageURL: "data:image/png;base64," + resp.Data[0].B64JSON,
	}, nil
}

// namedReader gives the multipart form a filename and content type for the upload.
type namedReader struct {
	*bytes.Reader
	name        string
	contentType string
}

func (r *namedReader) Name() string        { return r.name }
func (r *namedReader) ContentType() string { return r.contentType }

var editableTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// decodeDataURL parses data:<type>;base64,<payload>.
func decodeDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", fmt.Errorf("image must be a data URL: %w", utils.ErrValidation)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("image must be base64 encoded: %w", utils.ErrValidation)
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if !editableTypes[contentType] {
		return nil, "", fmt.Errorf("unsupported image type %q: %w", contentType, utils.ErrValidation)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", utils.ErrValidation)
	}
	return data, contentType, nil
}
