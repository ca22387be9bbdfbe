package generators

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Media sources recorded in sidecars.
const (
	SourceScene     = "scene"
	SourceCharacter = "character"
	SourceUpload    = "upload"
)

// MediaEntry is the sidecar written next to every stored image.
type MediaEntry struct {
	Name        string    `json:"name"`
	MimeType    string    `json:"mime_type"`
	Source      string    `json:"source"`
	Prompt      string    `json:"prompt,omitempty"`
	AspectRatio string    `json:"aspect_ratio,omitempty"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// MediaStore keeps generated and uploaded images. With an empty directory
// images are not written anywhere and are returned as data URIs.
type MediaStore struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger

	mu      sync.RWMutex
	entries map[string]*MediaEntry
}

func NewMediaStore(dir, urlPrefix string, logger *zap.Logger) *MediaStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaStore{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		logger:    logger,
		entries:   make(map[string]*MediaEntry),
	}
}

// Inline reports whether images are returned as data URIs.
func (m *MediaStore) Inline() bool {
	return m.dir == ""
}

// Initialize creates the media directory and indexes existing sidecars.
func (m *MediaStore) Initialize(_ context.Context) error {
	if m.Inline() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	files, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read media directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".meta") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(m.dir, f.Name()))
		if err != nil {
			continue
		}
		var entry MediaEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Name == "" {
			m.logger.Warn("skipping unreadable media sidecar", zap.String("file", f.Name()))
			continue
		}
		if _, err := os.Stat(filepath.Join(m.dir, entry.Name)); err != nil {
			continue
		}
		m.entries[entry.Name] = &entry
	}

	m.logger.Info("media store ready", zap.String("dir", m.dir), zap.Int("entries", len(m.entries)))
	return nil
}

// Put stores an image and returns the URL the front end should display.
func (m *MediaStore) Put(_ context.Context, data []byte, entry MediaEntry) (string, error) {
	if entry.MimeType == "" {
		entry.MimeType = "image/png"
	}
	if m.Inline() {
		return DataURI(entry.MimeType, data), nil
	}

	entry.Name = uuid.NewString() + extensionFor(entry.MimeType)
	entry.Size = int64(len(data))
	entry.CreatedAt = time.Now().UTC()

	meta, err := json.Marshal(&entry)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(m.dir, entry.Name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, entry.Name+".meta"), meta, 0o644); err != nil {
		_ = os.Remove(filepath.Join(m.dir, entry.Name))
		return "", fmt.Errorf("failed to write image metadata: %w", err)
	}

	m.mu.Lock()
	m.entries[entry.Name] = &entry
	m.mu.Unlock()

	return path.Join(m.urlPrefix, entry.Name), nil
}

// SaveUpload stores a user supplied image.
func (m *MediaStore) SaveUpload(ctx context.Context, data []byte, mimeType string) (string, error) {
	return m.Put(ctx, data, MediaEntry{MimeType: mimeType, Source: SourceUpload})
}

// Lookup returns the entry and its file path for a stored image name.
func (m *MediaStore) Lookup(name string) (MediaEntry, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[name]
	if !ok {
		return MediaEntry{}, "", false
	}
	return *entry, filepath.Join(m.dir, entry.Name), true
}

// Len returns the number of indexed images.
func (m *MediaStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".img"
	}
}
