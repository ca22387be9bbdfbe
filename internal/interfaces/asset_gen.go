package interfaces

import "context"

// ImageRequest describes one image to render.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	// CharacterSheet selects the portrait mode: fixed framing and a neutral
	// background regardless of the project style.
	CharacterSheet bool
}

// ImageData is the raw output of an image backend.
type ImageData struct {
	Bytes    []byte
	MimeType string
}

// ImageBackend renders images from prompts.
type ImageBackend interface {
	RenderImage(ctx context.Context, req *ImageRequest) (*ImageData, error)
	HealthCheck(ctx context.Context) error
}
