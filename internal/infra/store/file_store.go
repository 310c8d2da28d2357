// File: internal/infra/store/file_store.go
package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"mbti-assessment-client/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*FileStore)(nil)

// FileStore persists the active session id as a single line in a local file.
// Write failures (read-only filesystem, sandboxed environments) degrade to
// no-ops; a missing file reads as "no prior session".
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Available(ctx context.Context) bool {
	dir := filepath.Dir(s.path)
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

func (s *FileStore) Save(ctx context.Context, sessionID string) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sessionID+"\n"), 0o600); err != nil {
		return nil // best-effort
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
	}
	return nil
}

func (s *FileStore) Read(ctx context.Context) (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	_ = os.Remove(s.path)
	return nil
}
