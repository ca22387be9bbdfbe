package interfaces

import (
	"context"

	"hakawati/server/internal/models"
)

// KV is a string key-value medium. Get reports ok=false for missing keys.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
	Close() error
}

// DocumentStore persists the three studio documents. Loads never fail:
// missing or malformed documents read as absent or empty. All writes replace
// the whole document.
type DocumentStore interface {
	LoadSession(ctx context.Context) (*models.User, bool)
	SaveSession(ctx context.Context, user models.User) error
	ClearSession(ctx context.Context) error

	LoadUserDirectory(ctx context.Context) []models.User
	SaveUserDirectory(ctx context.Context, users []models.User) error

	LoadProjects(ctx context.Context) []models.Project
	SaveProjects(ctx context.Context, projects []models.Project) error

	// UpdateProject is a read-modify-write of one project record. fn is not
	// called and models.ErrNotFound is returned when no project has the id.
	UpdateProject(ctx context.Context, id string, fn func(*models.Project)) error
}
