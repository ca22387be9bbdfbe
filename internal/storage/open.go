package storage

import (
	"fmt"

	"hakawati/server/internal/config"
	"hakawati/server/internal/interfaces"
)

// Open connects the KV selected by cfg.Storage.Driver.
func Open(cfg *config.Config) (interfaces.KV, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Storage.Dir)
	case "redis":
		store, err := NewRedisStore(cfg.Database.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil
	case "mysql":
		store, err := NewMySQLStore(cfg.Database.MySQL)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
