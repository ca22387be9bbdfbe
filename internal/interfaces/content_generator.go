package interfaces

import (
	"context"

	"hakawati/server/internal/models"
)

// StoryDraft is the result of expanding an idea into prose.
type StoryDraft struct {
	Title string `json:"title,omitempty"`
	Story string `json:"story"`
}

// TextGenerator covers the text side of the generative service.
type TextGenerator interface {
	ExpandIdeaToStory(ctx context.Context, idea, genre, style, lengthHint string) (*StoryDraft, error)
	AnalyzeStoryAndExtractCharacters(ctx context.Context, storyText, style string) ([]models.Character, error)
	BreakdownStoryIntoScenes(ctx context.Context, storyText string) ([]models.Scene, error)
}

// ImageGenerator returns a displayable image resource (URL or data URI).
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string, characterSheet bool) (string, error)
}

// ContentGenerator is the full generative-AI boundary used by the studio.
// Every failure is reported as a single error kind wrapping
// models.ErrGeneration; there are no partial results.
type ContentGenerator interface {
	TextGenerator
	ImageGenerator
}
