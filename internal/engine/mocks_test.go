package engine

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
)

// MockContentGenerator is a mock type for interfaces.ContentGenerator
type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) ExpandIdeaToStory(ctx context.Context, idea, genre, style, lengthHint string) (*interfaces.StoryDraft, error) {
	ret := m.Called(ctx, idea, genre, style, lengthHint)
	var draft *interfaces.StoryDraft
	if v := ret.Get(0); v != nil {
		draft = v.(*interfaces.StoryDraft)
	}
	return draft, ret.Error(1)
}

func (m *MockContentGenerator) AnalyzeStoryAndExtractCharacters(ctx context.Context, storyText, style string) ([]models.Character, error) {
	ret := m.Called(ctx, storyText, style)
	var out []models.Character
	if v := ret.Get(0); v != nil {
		out = v.([]models.Character)
	}
	return out, ret.Error(1)
}

func (m *MockContentGenerator) BreakdownStoryIntoScenes(ctx context.Context, storyText string) ([]models.Scene, error) {
	ret := m.Called(ctx, storyText)
	var out []models.Scene
	if v := ret.Get(0); v != nil {
		out = v.([]models.Scene)
	}
	return out, ret.Error(1)
}

func (m *MockContentGenerator) GenerateImage(ctx context.Context, prompt, aspectRatio string, characterSheet bool) (string, error) {
	ret := m.Called(ctx, prompt, aspectRatio, characterSheet)
	return ret.String(0), ret.Error(1)
}

var _ interfaces.ContentGenerator = (*MockContentGenerator)(nil)

type recordingNotifier struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (n *recordingNotifier) Publish(evt interfaces.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

func (n *recordingNotifier) ofType(t string) []interfaces.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []interfaces.Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeAvatarStore struct {
	saved [][]byte
}

func (f *fakeAvatarStore) SaveUpload(_ context.Context, data []byte, _ string) (string, error) {
	f.saved = append(f.saved, data)
	return "/media/upload.png", nil
}
