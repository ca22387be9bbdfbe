package prompts

import (
	"fmt"
	"strings"

	"hakawati/server/internal/models"
)

// ConstructScenePrompt builds the image prompt for one scene. The whole cast
// is listed so that recurring characters keep the same look across scenes.
func ConstructScenePrompt(sceneText string, characters []models.Character, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Art style: %s. Cinematic storyboard frame, highly detailed, dramatic lighting, no text or captions.\n", style)
	fmt.Fprintf(&b, "Scene: %s\n", strings.TrimSpace(sceneText))

	if len(characters) > 0 {
		b.WriteString("Characters (keep their appearance consistent):\n")
		for _, c := range characters {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.VisualPrompt)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// CharacterSheetPrompt wraps a character's visual prompt in the fixed
// portrait framing used for avatars.
func CharacterSheetPrompt(visualPrompt string) string {
	return fmt.Sprintf(
		"Character sheet portrait, head and shoulders, centered, facing the viewer, plain neutral grey background, soft studio lighting, no text. %s",
		strings.TrimSpace(visualPrompt),
	)
}
