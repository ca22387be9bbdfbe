package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
	"hakawati/server/internal/prompts"
	"hakawati/server/internal/studio"
)

// DefaultStoryLength is used when an idea is expanded without a length hint.
const DefaultStoryLength = "Medium - 6 scenes"

const portraitConcurrency = 4

// AvatarStore keeps uploaded avatar images and returns a displayable URL.
type AvatarStore interface {
	SaveUpload(ctx context.Context, data []byte, mimeType string) (string, error)
}

// StoryEngine runs the generative steps against the studio's working state.
type StoryEngine struct {
	studio   *studio.Studio
	gen      interfaces.ContentGenerator
	avatars  AvatarStore
	notifier interfaces.Notifier
	logger   *zap.Logger

	defaultLength string
}

// NewStoryEngine wires the engine. avatars may be nil, in which case uploads
// are rejected.
func NewStoryEngine(
	st *studio.Studio,
	gen interfaces.ContentGenerator,
	avatars AvatarStore,
	notifier interfaces.Notifier,
	logger *zap.Logger,
) *StoryEngine {
	if notifier == nil {
		notifier = interfaces.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoryEngine{
		studio:        st,
		gen:           gen,
		avatars:       avatars,
		notifier:      notifier,
		logger:        logger,
		defaultLength: DefaultStoryLength,
	}
}

// SetDefaultLength changes the length hint used when none is given.
func (e *StoryEngine) SetDefaultLength(hint string) {
	if strings.TrimSpace(hint) != "" {
		e.defaultLength = hint
	}
}

// GenerateIdea expands a one-line idea into the working story text.
func (e *StoryEngine) GenerateIdea(ctx context.Context, idea, lengthHint string) (*interfaces.StoryDraft, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, fmt.Errorf("idea is required: %w", models.ErrValidation)
	}
	if _, ok := e.studio.User(); !ok {
		return nil, models.ErrNotSignedIn
	}
	if strings.TrimSpace(lengthHint) == "" {
		lengthHint = e.defaultLength
	}

	cfg := e.studio.Config()
	draft, err := e.gen.ExpandIdeaToStory(ctx, idea, cfg.Genre, cfg.Style, lengthHint)
	if err == nil && (draft == nil || strings.TrimSpace(draft.Story) == "") {
		err = errors.New("empty story")
	}
	if err != nil {
		return nil, e.fail("تعذر توليد القصة", asGenerationError(err))
	}

	e.studio.SetStory(draft.Title, draft.Story)
	e.studio.SetStep(models.StepStoryPreview)
	if err := e.studio.PersistCurrentProject(ctx); err != nil {
		return nil, err
	}
	return draft, nil
}

// AnalyzeStory extracts the cast and the scene list from the working story,
// renders a portrait per character and replaces the working analysis. A
// portrait failure leaves that character without an avatar.
func (e *StoryEngine) AnalyzeStory(ctx context.Context) (studio.Workspace, error) {
	cfg := e.studio.Config()
	if strings.TrimSpace(cfg.StoryTextRaw) == "" {
		return studio.Workspace{}, fmt.Errorf("story text is required: %w", models.ErrValidation)
	}
	if _, ok := e.studio.User(); !ok {
		return studio.Workspace{}, models.ErrNotSignedIn
	}

	var (
		characters []models.Character
		scenes     []models.Scene
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		characters, err = e.gen.AnalyzeStoryAndExtractCharacters(gctx, cfg.StoryTextRaw, cfg.Style)
		return err
	})
	g.Go(func() error {
		var err error
		scenes, err = e.gen.BreakdownStoryIntoScenes(gctx, cfg.StoryTextRaw)
		return err
	})
	if err := g.Wait(); err != nil {
		return studio.Workspace{}, e.fail("تعذر تحليل القصة", asGenerationError(err))
	}

	e.renderPortraits(ctx, characters)

	e.studio.ReplaceAnalysis(characters, scenes)
	e.studio.SetStep(models.StepInputStory)
	if err := e.studio.PersistCurrentProject(ctx); err != nil {
		return studio.Workspace{}, err
	}

	e.logger.Info("story analysed",
		zap.Int("characters", len(characters)),
		zap.Int("scenes", len(scenes)),
	)
	return e.studio.Snapshot(), nil
}

func (e *StoryEngine) renderPortraits(ctx context.Context, characters []models.Character) {
	var g errgroup.Group
	g.SetLimit(portraitConcurrency)
	for i := range characters {
		c := &characters[i]
		g.Go(func() error {
			url, err := e.gen.GenerateImage(ctx, c.VisualPrompt, models.AspectSheet, true)
			if err != nil {
				e.logger.Warn("portrait failed", zap.String("character", c.Name), zap.Error(err))
				return nil
			}
			c.AvatarURL = models.StringPtr(url)
			return nil
		})
	}
	_ = g.Wait()
}

// GenerateSceneImage renders one scene from its text, the current cast and
// the project style. The scene's loading flag is set for the duration of the
// call. On failure the scene keeps whatever image it had.
func (e *StoryEngine) GenerateSceneImage(ctx context.Context, sceneID string) error {
	scene, ok := e.studio.Scene(sceneID)
	if !ok {
		return fmt.Errorf("scene %s: %w", sceneID, models.ErrNotFound)
	}

	e.studio.UpdateScene(sceneID, func(s *models.Scene) { s.IsLoadingImage = true })
	defer e.studio.UpdateScene(sceneID, func(s *models.Scene) { s.IsLoadingImage = false })

	cfg := e.studio.Config()
	prompt := prompts.ConstructScenePrompt(scene.Text, e.studio.Characters(), cfg.Style)

	url, err := e.gen.GenerateImage(ctx, prompt, cfg.AspectRatio, false)
	if err != nil {
		return e.fail("تعذر توليد صورة المشهد", fmt.Errorf("scene %s: %w", sceneID, asGenerationError(err)))
	}

	var updated models.Scene
	found := e.studio.UpdateScene(sceneID, func(s *models.Scene) {
		s.ImageURL = models.StringPtr(url)
		s.ImagePrompt = models.StringPtr(prompt)
		s.IsLoadingImage = false
		updated = *s
	})
	if !found {
		e.logger.Info("scene removed during generation", zap.String("scene_id", sceneID))
		return nil
	}

	if err := e.studio.PersistCurrentProject(ctx); err != nil {
		return err
	}
	e.notifier.Publish(interfaces.Event{
		Type:     interfaces.EventSceneUpdated,
		EntityID: sceneID,
		Payload:  updated,
	})
	return nil
}

// RegenerateCharacter renders a new character-sheet portrait.
func (e *StoryEngine) RegenerateCharacter(ctx context.Context, characterID string) error {
	c, ok := e.studio.Character(characterID)
	if !ok {
		return fmt.Errorf("character %s: %w", characterID, models.ErrNotFound)
	}

	e.studio.UpdateCharacter(characterID, func(c *models.Character) { c.IsLoading = true })
	defer e.studio.UpdateCharacter(characterID, func(c *models.Character) { c.IsLoading = false })

	url, err := e.gen.GenerateImage(ctx, c.VisualPrompt, models.AspectSheet, true)
	if err != nil {
		return e.fail("تعذر توليد صورة الشخصية", fmt.Errorf("character %s: %w", characterID, asGenerationError(err)))
	}
	return e.setAvatar(ctx, characterID, url)
}

// UploadCharacterAvatar stores a user supplied image as the character's avatar.
func (e *StoryEngine) UploadCharacterAvatar(ctx context.Context, characterID string, data []byte, mimeType string) error {
	if e.avatars == nil {
		return fmt.Errorf("avatar uploads are disabled: %w", models.ErrValidation)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty upload: %w", models.ErrValidation)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("unsupported media type %q: %w", mimeType, models.ErrValidation)
	}
	if _, ok := e.studio.Character(characterID); !ok {
		return fmt.Errorf("character %s: %w", characterID, models.ErrNotFound)
	}

	url, err := e.avatars.SaveUpload(ctx, data, mimeType)
	if err != nil {
		return fmt.Errorf("save avatar: %w", err)
	}
	return e.setAvatar(ctx, characterID, url)
}

func (e *StoryEngine) setAvatar(ctx context.Context, characterID, url string) error {
	var updated models.Character
	found := e.studio.UpdateCharacter(characterID, func(c *models.Character) {
		c.AvatarURL = models.StringPtr(url)
		c.IsLoading = false
		updated = *c
	})
	if !found {
		return nil
	}
	if err := e.studio.PersistCurrentProject(ctx); err != nil {
		return err
	}
	e.notifier.Publish(interfaces.Event{
		Type:     interfaces.EventCharacterReady,
		EntityID: characterID,
		Payload:  updated,
	})
	return nil
}

// fail logs a generation failure and surfaces it to the user as a notice.
func (e *StoryEngine) fail(message string, err error) error {
	e.logger.Warn(message, zap.Error(err))
	e.notifier.Publish(interfaces.Event{Type: interfaces.EventNotice, Message: message})
	return err
}

func asGenerationError(err error) error {
	if errors.Is(err, models.ErrGeneration) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrGeneration, err)
}
