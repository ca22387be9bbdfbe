package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hakawati/server/internal/models"
)

func TestRenderDefaultTemplates(t *testing.T) {
	e := NewTemplateEngine()

	out, err := e.Render(ExpandIdea, map[string]string{
		"idea":   "a lantern that remembers",
		"genre":  "Folklore",
		"style":  "Ghibli Soft Touch",
		"length": "Short",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Idea: a lantern that remembers")
	assert.NotContains(t, out, "{{")
}

func TestRenderMissingVariable(t *testing.T) {
	e := NewTemplateEngine()
	_, err := e.Render(BreakdownScenes, map[string]string{})
	assert.Error(t, err)

	_, err = e.Render("nope", nil)
	assert.Error(t, err)
}

func TestParseTemplateVariables(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseTemplateVariables("{{b}} {{a}} {{b}}"))
}

func TestConstructScenePrompt(t *testing.T) {
	chars := []models.Character{
		{Name: "الفارس", VisualPrompt: "tall knight in silver armor"},
		{Name: "Nour", VisualPrompt: "young girl with a red scarf"},
	}

	p := ConstructScenePrompt("  A hero rises at dawn. ", chars, "Dark Fantasy Illustration")

	assert.Contains(t, p, "Art style: Dark Fantasy Illustration")
	assert.Contains(t, p, "Scene: A hero rises at dawn.")
	assert.Contains(t, p, "- الفارس: tall knight in silver armor")
	assert.Contains(t, p, "- Nour: young girl with a red scarf")
	assert.Equal(t, p, ConstructScenePrompt("  A hero rises at dawn. ", chars, "Dark Fantasy Illustration"))
}

func TestConstructScenePromptWithoutCast(t *testing.T) {
	p := ConstructScenePrompt("Empty desert.", nil, "Vintage 90s Anime")
	assert.NotContains(t, p, "Characters")
}

func TestCharacterSheetPrompt(t *testing.T) {
	p := CharacterSheetPrompt("old merchant")
	assert.Contains(t, p, "neutral grey background")
	assert.Contains(t, p, "old merchant")
}
