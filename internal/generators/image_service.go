package generators

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
	"hakawati/server/internal/prompts"
)

// ImageService implements interfaces.ImageGenerator on top of an image
// backend and the media store. At most maxWorkers renders run at once.
type ImageService struct {
	backend interfaces.ImageBackend
	media   *MediaStore
	slots   chan struct{}
	logger  *zap.Logger
}

func NewImageService(backend interfaces.ImageBackend, media *MediaStore, maxWorkers int, logger *zap.Logger) *ImageService {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{
		backend: backend,
		media:   media,
		slots:   make(chan struct{}, maxWorkers),
		logger:  logger,
	}
}

// GenerateImage renders prompt and returns a displayable URL. Character
// sheets get the fixed portrait framing. Every error wraps
// models.ErrGeneration.
func (s *ImageService) GenerateImage(ctx context.Context, prompt, aspectRatio string, characterSheet bool) (string, error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, ctx.Err())
	}
	defer func() { <-s.slots }()

	req := &interfaces.ImageRequest{
		Prompt:         prompt,
		AspectRatio:    aspectRatio,
		CharacterSheet: characterSheet,
	}
	source := SourceScene
	if characterSheet {
		req.Prompt = prompts.CharacterSheetPrompt(prompt)
		source = SourceCharacter
	}

	start := time.Now()
	img, err := s.backend.RenderImage(ctx, req)
	if err != nil {
		s.logger.Warn("image render failed", zap.String("aspect", aspectRatio), zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	if img == nil || len(img.Bytes) == 0 {
		return "", fmt.Errorf("%w: empty image", models.ErrGeneration)
	}

	url, err := s.media.Put(ctx, img.Bytes, MediaEntry{
		MimeType:    img.MimeType,
		Source:      source,
		Prompt:      req.Prompt,
		AspectRatio: aspectRatio,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}

	s.logger.Info("image rendered",
		zap.String("source", source),
		zap.String("aspect", aspectRatio),
		zap.Duration("took", time.Since(start)),
	)
	return url, nil
}

// HealthCheck checks the image backend.
func (s *ImageService) HealthCheck(ctx context.Context) error {
	return s.backend.HealthCheck(ctx)
}
