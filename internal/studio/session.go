package studio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"hakawati/server/internal/models"
)

const avatarURLTemplate = "https://api.dicebear.com/7.x/micah/svg?seed=%s"

// AvatarURL derives the generated avatar for a display name.
func AvatarURL(name string) string {
	return fmt.Sprintf(avatarURLTemplate, url.QueryEscape(name))
}

// Login resolves the user for (name, email) and makes it the active session.
// A non-blank email that matches a directory entry case-insensitively reuses
// that record and overwrites its name; otherwise a new user is created. A
// blank email always creates a fresh, unrecoverable identity.
func (s *Studio) Login(ctx context.Context, name, email string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return models.User{}, fmt.Errorf("name is required: %w", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.store.LoadUserDirectory(ctx)

	idx := -1
	if email != "" {
		for i, u := range users {
			if strings.EqualFold(u.Email, email) {
				idx = i
				break
			}
		}
	}

	var user models.User
	if idx >= 0 {
		users[idx].Name = name
		user = users[idx]
	} else {
		id := strings.ToLower(email)
		if id == "" {
			id = s.newID()
		}
		user = models.User{
			ID:     id,
			Name:   name,
			Email:  email,
			Avatar: AvatarURL(name),
		}
		users = append(users, user)
	}

	if err := s.store.SaveUserDirectory(ctx, users); err != nil {
		return models.User{}, fmt.Errorf("save user directory: %w", err)
	}
	if err := s.store.SaveSession(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("save session: %w", err)
	}

	if s.user == nil || s.user.ID != user.ID {
		s.closeProjectLocked()
	}
	s.user = &user
	s.step = models.StepSetup

	s.logger.Info("user signed in", zap.String("user_id", user.ID), zap.Bool("returning", idx >= 0))
	return user, nil
}

// Logout clears the active session and closes the open project.
func (s *Studio) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.user = nil
	s.closeProjectLocked()
	s.step = models.StepAuth
	return nil
}

func (s *Studio) closeProjectLocked() {
	s.currentID = ""
	s.characters = []models.Character{}
	s.scenes = []models.Scene{}
	s.config.StoryTextRaw = ""
}
