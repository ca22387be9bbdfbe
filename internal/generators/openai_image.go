package generators

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"hakawati/server/internal/config"
	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
)

// OpenAIImageBackend renders images through an OpenAI-compatible images API.
type OpenAIImageBackend struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	logger     *zap.Logger
}

func NewOpenAIImageBackend(cfg config.ImageConfig, logger *zap.Logger) *OpenAIImageBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	clientCfg.HTTPClient = httpClient

	return &OpenAIImageBackend{
		client:     openai.NewClientWithConfig(clientCfg),
		httpClient: httpClient,
		model:      cfg.Model,
		logger:     logger,
	}
}

// RenderImage requests one image and returns its bytes.
func (b *OpenAIImageBackend) RenderImage(ctx context.Context, req *interfaces.ImageRequest) (*interfaces.ImageData, error) {
	imgReq := openai.ImageRequest{
		Prompt: req.Prompt,
		Model:  b.model,
		N:      1,
		Size:   b.size(req.AspectRatio),
	}
	// gpt-image models always answer in base64 and reject response_format.
	if !b.isGPTImage() {
		imgReq.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := b.client.CreateImage(ctx, imgReq)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image response contained no data")
	}

	item := resp.Data[0]
	if item.RevisedPrompt != "" {
		b.logger.Debug("prompt revised by provider", zap.String("revised", item.RevisedPrompt))
	}
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		return &interfaces.ImageData{Bytes: data, MimeType: "image/png"}, nil
	}
	if item.URL != "" {
		return b.download(ctx, item.URL)
	}
	return nil, fmt.Errorf("image response contained neither data nor url")
}

// HealthCheck lists models to verify the endpoint and key.
func (b *OpenAIImageBackend) HealthCheck(ctx context.Context) error {
	_, err := b.client.ListModels(ctx)
	return err
}

func (b *OpenAIImageBackend) download(ctx context.Context, url string) (*interfaces.ImageData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	mimeType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return &interfaces.ImageData{Bytes: data, MimeType: mimeType}, nil
}

func (b *OpenAIImageBackend) isGPTImage() bool {
	return strings.HasPrefix(b.model, "gpt-image")
}

// size picks the closest size the model supports for an aspect ratio.
func (b *OpenAIImageBackend) size(aspect string) string {
	if aspect == models.AspectSquare {
		return openai.CreateImageSize1024x1024
	}
	landscape := aspect == models.AspectLandscape || aspect == ""
	if b.isGPTImage() {
		if landscape {
			return "1536x1024"
		}
		return "1024x1536"
	}
	if landscape {
		return openai.CreateImageSize1792x1024
	}
	return openai.CreateImageSize1024x1792
}
