package studio

import (
	"fmt"
	"strings"

	"hakawati/server/internal/models"
)

// ConfigPatch carries optional updates to the working config.
type ConfigPatch struct {
	Title        *string `json:"title,omitempty"`
	Style        *string `json:"style,omitempty"`
	Genre        *string `json:"genre,omitempty"`
	AspectRatio  *string `json:"aspectRatio,omitempty"`
	SceneCount   *int    `json:"sceneCount,omitempty"`
	StoryTextRaw *string `json:"storyTextRaw,omitempty"`
}

func (s *Studio) Config() models.ProjectConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// ApplyConfig validates and applies a patch to the working config.
func (s *Studio) ApplyConfig(patch ConfigPatch) (models.ProjectConfig, error) {
	if patch.AspectRatio != nil && !models.ValidAspectRatio(*patch.AspectRatio) {
		return models.ProjectConfig{}, fmt.Errorf("aspect ratio %q: %w", *patch.AspectRatio, models.ErrValidation)
	}
	if patch.SceneCount != nil && *patch.SceneCount < 1 {
		return models.ProjectConfig{}, fmt.Errorf("scene count must be positive: %w", models.ErrValidation)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.ProjectConfig{}, fmt.Errorf("title is required: %w", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Title != nil {
		s.config.Title = *patch.Title
	}
	if patch.Style != nil {
		s.config.Style = *patch.Style
	}
	if patch.Genre != nil {
		s.config.Genre = *patch.Genre
	}
	if patch.AspectRatio != nil {
		s.config.AspectRatio = *patch.AspectRatio
	}
	if patch.SceneCount != nil {
		s.config.SceneCount = *patch.SceneCount
	}
	if patch.StoryTextRaw != nil {
		s.config.StoryTextRaw = *patch.StoryTextRaw
	}
	return s.config, nil
}

// SetStory stores generated prose; an empty title keeps the current one.
func (s *Studio) SetStory(title, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.StoryTextRaw = text
	if title != "" {
		s.config.Title = title
	}
}

// ReplaceAnalysis swaps in a freshly analysed cast and scene list.
func (s *Studio) ReplaceAnalysis(characters []models.Character, scenes []models.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters = nonNilCharacters(models.CloneCharacters(characters))
	s.scenes = nonNilScenes(models.CloneScenes(scenes))
}

func (s *Studio) Characters() []models.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneCharacters(s.characters)
}

func (s *Studio) Scenes() []models.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneScenes(s.scenes)
}

func (s *Studio) Scene(id string) (models.Scene, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.scenes {
		if sc.ID == id {
			return models.CloneScenes([]models.Scene{sc})[0], true
		}
	}
	return models.Scene{}, false
}

func (s *Studio) Character(id string) (models.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.characters {
		if c.ID == id {
			return models.CloneCharacters([]models.Character{c})[0], true
		}
	}
	return models.Character{}, false
}

// UpdateScene applies fn to the scene with the given id. It reports false
// when the scene is no longer in the working list.
func (s *Studio) UpdateScene(id string, fn func(*models.Scene)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.scenes {
		if s.scenes[i].ID == id {
			fn(&s.scenes[i])
			return true
		}
	}
	return false
}

// UpdateCharacter applies fn to the character with the given id.
func (s *Studio) UpdateCharacter(id string, fn func(*models.Character)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.characters {
		if s.characters[i].ID == id {
			fn(&s.characters[i])
			return true
		}
	}
	return false
}
