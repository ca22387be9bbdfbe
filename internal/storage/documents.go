package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
)

// Document keys, kept identical to the ones the browser build used so stored
// data can be imported as-is.
const (
	SessionKey       = "hakawati_user"
	UserDirectoryKey = "hakawati_users_db"
	ProjectsKey      = "hakawati_projects"
)

// LocalStore maps the three studio documents onto a KV.
type LocalStore struct {
	kv     interfaces.KV
	prefix string
	logger *zap.Logger
}

var _ interfaces.DocumentStore = (*LocalStore)(nil)

func NewLocalStore(kv interfaces.KV, prefix string, logger *zap.Logger) *LocalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalStore{kv: kv, prefix: prefix, logger: logger}
}

func (s *LocalStore) key(name string) string {
	return s.prefix + name
}

// load decodes the document under name into dst. It reports false for
// missing, unreadable or malformed documents.
func (s *LocalStore) load(ctx context.Context, name string, dst any) bool {
	raw, ok, err := s.kv.Get(ctx, s.key(name))
	if err != nil {
		s.logger.Warn("document read failed, treating as absent", zap.String("key", name), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("malformed document, treating as absent", zap.String("key", name), zap.Error(err))
		return false
	}
	return true
}

func (s *LocalStore) save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := s.kv.Set(ctx, s.key(name), string(data)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (s *LocalStore) LoadSession(ctx context.Context) (*models.User, bool) {
	var user *models.User
	if !s.load(ctx, SessionKey, &user) || user == nil {
		return nil, false
	}
	return user, true
}

func (s *LocalStore) SaveSession(ctx context.Context, user models.User) error {
	return s.save(ctx, SessionKey, user)
}

func (s *LocalStore) ClearSession(ctx context.Context) error {
	if err := s.kv.Del(ctx, s.key(SessionKey)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *LocalStore) LoadUserDirectory(ctx context.Context) []models.User {
	var users []models.User
	if !s.load(ctx, UserDirectoryKey, &users) || users == nil {
		return []models.User{}
	}
	return users
}

func (s *LocalStore) SaveUserDirectory(ctx context.Context, users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	return s.save(ctx, UserDirectoryKey, users)
}

// LoadProjects returns the whole collection with transient loading flags
// forced off.
func (s *LocalStore) LoadProjects(ctx context.Context) []models.Project {
	var projects []models.Project
	if !s.load(ctx, ProjectsKey, &projects) || projects == nil {
		return []models.Project{}
	}
	for i := range projects {
		projects[i].ResetTransient()
	}
	return projects
}

func (s *LocalStore) SaveProjects(ctx context.Context, projects []models.Project) error {
	if projects == nil {
		projects = []models.Project{}
	}
	return s.save(ctx, ProjectsKey, projects)
}

func (s *LocalStore) UpdateProject(ctx context.Context, id string, fn func(*models.Project)) error {
	projects := s.LoadProjects(ctx)
	for i := range projects {
		if projects[i].ID == id {
			fn(&projects[i])
			return s.SaveProjects(ctx, projects)
		}
	}
	return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
}
