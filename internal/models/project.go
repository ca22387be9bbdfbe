package models

// Character is a story participant with a reusable visual description.
// AvatarURL is nil until a portrait is generated or uploaded.
type Character struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	VisualPrompt string  `json:"visualPrompt"`
	AvatarURL    *string `json:"avatarUrl,omitempty"`
	IsLoading    bool    `json:"isLoading,omitempty"`
}

// Scene is one illustrated story beat. ImagePrompt keeps the exact prompt
// that produced ImageURL so it can be reused by external animation tools.
type Scene struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	ImageURL       *string `json:"imageUrl,omitempty"`
	ImagePrompt    *string `json:"imagePrompt,omitempty"`
	IsLoadingImage bool    `json:"isLoadingImage,omitempty"`
}

// HasImage reports whether the scene already carries a generated image.
func (s Scene) HasImage() bool {
	return s.ImageURL != nil && *s.ImageURL != ""
}

type ProjectConfig struct {
	Title        string `json:"title"`
	Style        string `json:"style"`
	Genre        string `json:"genre"`
	AspectRatio  string `json:"aspectRatio"`
	SceneCount   int    `json:"sceneCount"`
	StoryTextRaw string `json:"storyTextRaw"`
}

// Project is one story's full working state. UpdatedAt is a unix millisecond
// write timestamp used for gallery ordering only.
type Project struct {
	ID         string        `json:"id"`
	UserID     string        `json:"userId"`
	Title      string        `json:"title"`
	Config     ProjectConfig `json:"config"`
	Characters []Character   `json:"characters"`
	Scenes     []Scene       `json:"scenes"`
	UpdatedAt  int64         `json:"updatedAt"`
}

// ResetTransient clears the per-entity loading flags. Stored projects can
// carry stale flags from a write that happened mid-generation.
func (p *Project) ResetTransient() {
	for i := range p.Characters {
		p.Characters[i].IsLoading = false
	}
	for i := range p.Scenes {
		p.Scenes[i].IsLoadingImage = false
	}
}

// CloneCharacters returns a deep copy of the slice.
func CloneCharacters(in []Character) []Character {
	out := make([]Character, len(in))
	for i, c := range in {
		c.AvatarURL = cloneString(c.AvatarURL)
		out[i] = c
	}
	return out
}

// CloneScenes returns a deep copy of the slice.
func CloneScenes(in []Scene) []Scene {
	out := make([]Scene, len(in))
	for i, s := range in {
		s.ImageURL = cloneString(s.ImageURL)
		s.ImagePrompt = cloneString(s.ImagePrompt)
		out[i] = s
	}
	return out
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	p.Characters = CloneCharacters(p.Characters)
	p.Scenes = CloneScenes(p.Scenes)
	return p
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
