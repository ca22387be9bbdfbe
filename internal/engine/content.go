package engine

import "hakawati/server/internal/interfaces"

// ContentService joins a text generator and an image generator into the
// single generative boundary the studio depends on.
type ContentService struct {
	interfaces.TextGenerator
	interfaces.ImageGenerator
}

var _ interfaces.ContentGenerator = ContentService{}
