package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/service/logger"
)

// FileStore persists the pair as one JSON object in a file, the desktop
// equivalent of the browser's single "tokens" storage key.
type FileStore struct {
	path   string
	logger logger.Logger

	mu sync.Mutex
}

func NewFileStore(path string, log logger.Logger) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("token file path is required")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &FileStore{path: path, logger: log}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(_ context.Context, pair valueobject.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir token dir: %w", err)
	}

	// write-then-rename so a crash never leaves a half written file
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (*valueobject.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn(ctx, "Token file unreadable, treating as no session", map[string]interface{}{
				"path":  s.path,
				"error": err.Error(),
			})
		}
		return nil, nil
	}
	return decodePair(ctx, s.logger, s.path, b), nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
