package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"hakawati/server/internal/config"
	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
	"hakawati/server/internal/prompts"
)

const (
	maxRetries = 3
	retryDelay = 1 * time.Second
)

// OpenAITextGenerator implements interfaces.TextGenerator against any
// OpenAI-compatible chat completion endpoint.
type OpenAITextGenerator struct {
	client      *openai.Client
	templates   *prompts.TemplateEngine
	model       string
	temperature float32
	timeout     time.Duration
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewOpenAITextGenerator creates a text generator from config.
func NewOpenAITextGenerator(cfg config.TextConfig, logger *zap.Logger) *OpenAITextGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAITextGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		templates:   prompts.NewTemplateEngine(),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		retryDelay:  retryDelay,
		logger:      logger,
	}
}

// ExpandIdeaToStory writes a full story from a one-line idea.
func (g *OpenAITextGenerator) ExpandIdeaToStory(ctx context.Context, idea, genre, style, lengthHint string) (*interfaces.StoryDraft, error) {
	prompt, err := g.templates.Render(prompts.ExpandIdea, map[string]string{
		"idea":   idea,
		"genre":  genre,
		"style":  style,
		"length": lengthHint,
	})
	if err != nil {
		return nil, err
	}

	var draft interfaces.StoryDraft
	if err := g.completeJSON(ctx, prompt, &draft); err != nil {
		return nil, err
	}
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Story = strings.TrimSpace(draft.Story)
	if draft.Story == "" {
		return nil, fmt.Errorf("%w: empty story", models.ErrGeneration)
	}
	return &draft, nil
}

type characterList struct {
	Characters []struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		VisualPrompt string `json:"visualPrompt"`
	} `json:"characters"`
}

// AnalyzeStoryAndExtractCharacters lists the story's cast with fresh ids.
func (g *OpenAITextGenerator) AnalyzeStoryAndExtractCharacters(ctx context.Context, storyText, style string) ([]models.Character, error) {
	prompt, err := g.templates.Render(prompts.ExtractCharacters, map[string]string{
		"story": storyText,
		"style": style,
	})
	if err != nil {
		return nil, err
	}

	var out characterList
	if err := g.completeJSON(ctx, prompt, &out); err != nil {
		return nil, err
	}

	characters := make([]models.Character, 0, len(out.Characters))
	for _, c := range out.Characters {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		characters = append(characters, models.Character{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(c.Name),
			Description:  c.Description,
			VisualPrompt: c.VisualPrompt,
		})
	}
	return characters, nil
}

type sceneList struct {
	Scenes []struct {
		Text string `json:"text"`
	} `json:"scenes"`
}

// BreakdownStoryIntoScenes splits the story into ordered scenes.
func (g *OpenAITextGenerator) BreakdownStoryIntoScenes(ctx context.Context, storyText string) ([]models.Scene, error) {
	prompt, err := g.templates.Render(prompts.BreakdownScenes, map[string]string{"story": storyText})
	if err != nil {
		return nil, err
	}

	var out sceneList
	if err := g.completeJSON(ctx, prompt, &out); err != nil {
		return nil, err
	}

	scenes := make([]models.Scene, 0, len(out.Scenes))
	for _, s := range out.Scenes {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		scenes = append(scenes, models.Scene{ID: uuid.NewString(), Text: text})
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes returned", models.ErrGeneration)
	}
	return scenes, nil
}

// completeJSON sends one user prompt and decodes the JSON object reply into v.
func (g *OpenAITextGenerator) completeJSON(ctx context.Context, prompt string, v any) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a JSON API. Reply with one JSON object and nothing else."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	content, err := g.chat(ctx, req)
	if err != nil {
		g.logger.Warn("chat completion failed", zap.String("model", g.model), zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	g.logger.Debug("chat completion",
		zap.String("model", g.model),
		zap.Duration("took", time.Since(start)),
		zap.Int("bytes", len(content)),
	)

	if err := json.Unmarshal([]byte(stripCodeFence(content)), v); err != nil {
		return fmt.Errorf("%w: decode reply: %v", models.ErrGeneration, err)
	}
	return nil
}

func (g *OpenAITextGenerator) chat(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.retryDelay * time.Duration(attempt)):
			}
		}

		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
				return "", errors.New("empty response")
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}
	return "", lastErr
}

// isRetryableError reports rate limiting and upstream overload.
func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode == http.StatusServiceUnavailable
	}
	return false
}

// stripCodeFence removes a ```json fence some compatible servers add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
