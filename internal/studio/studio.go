// Package studio holds the signed-in user and the open project, and is the
// only writer of the persisted documents.
package studio

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
)

const (
	manualProjectTitle = "قصة يدوية جديدة"
	ideaProjectTitle   = "مغامرة جديدة"
)

// Studio is the in-memory session and project model. Mutations stay in memory
// until PersistCurrentProject is called.
type Studio struct {
	mu     sync.RWMutex
	store  interfaces.DocumentStore
	logger *zap.Logger

	now   func() time.Time
	newID func() string

	step       models.AppStep
	user       *models.User
	projects   []models.Project
	currentID  string
	config     models.ProjectConfig
	characters []models.Character
	scenes     []models.Scene
	lastWrite  int64
}

// Workspace is a copy of the open project's working state.
type Workspace struct {
	Step       models.AppStep       `json:"step"`
	User       *models.User         `json:"user,omitempty"`
	ProjectID  string               `json:"projectId,omitempty"`
	Config     models.ProjectConfig `json:"config"`
	Characters []models.Character   `json:"characters"`
	Scenes     []models.Scene       `json:"scenes"`
}

func New(store interfaces.DocumentStore, defaults models.ProjectConfig, logger *zap.Logger) *Studio {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Studio{
		store:      store,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
		step:       models.StepAuth,
		projects:   []models.Project{},
		config:     defaults,
		characters: []models.Character{},
		scenes:     []models.Scene{},
	}
}

// Restore loads the active session and the project collection.
func (s *Studio) Restore(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.store.LoadSession(ctx); ok {
		s.user = user
		s.step = models.StepSetup
	}
	s.projects = s.store.LoadProjects(ctx)
	s.logger.Info("studio restored",
		zap.Bool("signed_in", s.user != nil),
		zap.Int("projects", len(s.projects)),
	)
}

func (s *Studio) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Studio) Step() models.AppStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

func (s *Studio) SetStep(step models.AppStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
}

// CurrentProjectID returns the open project id, or "" when none is open.
func (s *Studio) CurrentProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// Snapshot returns a deep copy of the working state.
func (s *Studio) Snapshot() Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws := Workspace{
		Step:       s.step,
		ProjectID:  s.currentID,
		Config:     s.config,
		Characters: models.CloneCharacters(s.characters),
		Scenes:     models.CloneScenes(s.scenes),
	}
	if s.user != nil {
		u := *s.user
		ws.User = &u
	}
	return ws
}

// Gallery lists the signed-in user's projects, most recently saved first.
func (s *Studio) Gallery() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Project{}
	if s.user == nil {
		return out
	}
	for _, p := range s.projects {
		if p.UserID == s.user.ID {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out
}

// CreateProject starts an empty project for the signed-in user, prepends it
// to the collection, persists it and makes it current. The working config is
// carried over with the story text cleared.
func (s *Studio) CreateProject(ctx context.Context, manual bool) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return models.Project{}, models.ErrNotSignedIn
	}

	title := ideaProjectTitle
	step := models.StepIdeaGenerator
	if manual {
		title = manualProjectTitle
		step = models.StepStoryPreview
	}

	cfg := s.config
	cfg.StoryTextRaw = ""
	cfg.Title = title

	p := models.Project{
		ID:         s.newID(),
		UserID:     s.user.ID,
		Title:      title,
		Config:     cfg,
		Characters: []models.Character{},
		Scenes:     []models.Scene{},
		UpdatedAt:  s.nextTimestamp(),
	}

	updated := make([]models.Project, 0, len(s.projects)+1)
	updated = append(updated, p)
	updated = append(updated, s.projects...)
	if err := s.store.SaveProjects(ctx, updated); err != nil {
		return models.Project{}, fmt.Errorf("create project: %w", err)
	}

	s.projects = updated
	s.currentID = p.ID
	s.config = cfg
	s.characters = []models.Character{}
	s.scenes = []models.Scene{}
	s.step = step

	s.logger.Info("project created", zap.String("project_id", p.ID), zap.Bool("manual", manual))
	return p.Clone(), nil
}

// PersistCurrentProject writes the working config, characters and scenes into
// the open project's entry and saves the whole collection. It is a no-op when
// no user is signed in or no project is open.
func (s *Studio) PersistCurrentProject(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Studio) persistLocked(ctx context.Context) error {
	if s.currentID == "" || s.user == nil {
		return nil
	}

	updated := make([]models.Project, len(s.projects))
	copy(updated, s.projects)
	found := false
	for i := range updated {
		if updated[i].ID != s.currentID {
			continue
		}
		updated[i].Config = s.config
		updated[i].Characters = models.CloneCharacters(s.characters)
		updated[i].Scenes = models.CloneScenes(s.scenes)
		updated[i].UpdatedAt = s.nextTimestamp()
		found = true
	}
	if !found {
		return nil
	}

	if err := s.store.SaveProjects(ctx, updated); err != nil {
		return fmt.Errorf("persist project %s: %w", s.currentID, err)
	}
	s.projects = updated
	return nil
}

// DeleteProject removes a project owned by the signed-in user. confirmed
// must be true. Deleting the open project closes it and returns to SETUP.
func (s *Studio) DeleteProject(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return models.ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return models.ErrNotSignedIn
	}

	updated := make([]models.Project, 0, len(s.projects))
	found := false
	for _, p := range s.projects {
		if p.ID == id && p.UserID == s.user.ID {
			found = true
			continue
		}
		updated = append(updated, p)
	}
	if !found {
		return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}

	if err := s.store.SaveProjects(ctx, updated); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	s.projects = updated

	if s.currentID == id {
		s.currentID = ""
		s.step = models.StepSetup
	}
	s.logger.Info("project deleted", zap.String("project_id", id))
	return nil
}

// LoadProject makes a stored project current, replacing the working state.
// Loading flags are reset on the way in.
func (s *Studio) LoadProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return models.ErrNotSignedIn
	}

	for _, p := range s.projects {
		if p.ID != id || p.UserID != s.user.ID {
			continue
		}
		p = p.Clone()
		p.ResetTransient()
		s.currentID = p.ID
		s.config = p.Config
		s.characters = nonNilCharacters(p.Characters)
		s.scenes = nonNilScenes(p.Scenes)
		s.step = models.StepInputStory
		return nil
	}
	return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
}

// nextTimestamp returns a unix millisecond timestamp strictly greater than
// the previous one handed out.
func (s *Studio) nextTimestamp() int64 {
	ts := s.now().UnixMilli()
	if ts <= s.lastWrite {
		ts = s.lastWrite + 1
	}
	for _, p := range s.projects {
		if ts <= p.UpdatedAt {
			ts = p.UpdatedAt + 1
		}
	}
	s.lastWrite = ts
	return ts
}

func nonNilCharacters(in []models.Character) []models.Character {
	if in == nil {
		return []models.Character{}
	}
	return in
}

func nonNilScenes(in []models.Scene) []models.Scene {
	if in == nil {
		return []models.Scene{}
	}
	return in
}
