// File: internal/infra/store/noop_store.go
package store

import (
	"context"

	"mbti-assessment-client/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*NoopStore)(nil)

// NoopStore disables cross-restart restoration. Used when store.backend is
// "none" or the configured backend cannot be constructed.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (NoopStore) Available(ctx context.Context) bool              { return false }
func (NoopStore) Save(ctx context.Context, sessionID string) error { return nil }
func (NoopStore) Read(ctx context.Context) (string, error)         { return "", nil }
func (NoopStore) Clear(ctx context.Context) error                  { return nil }
