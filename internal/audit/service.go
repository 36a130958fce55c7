// Package audit records admin mutations into a queryable trail.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded admin action.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	ActorID   uuid.UUID `json:"actorId"`
	ActorRole string    `json:"actorRole"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the audit persistence surface.
type Store interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit, offset int) ([]Entry, error)
}

// Service reads and writes the trail.
type Service struct {
	Audit Store
}

// Record persists one entry.
func (s *Service) Record(ctx context.Context, e *Entry) error {
	return s.Audit.Insert(ctx, e)
}

// List returns the trail newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Entry, error) {
	entries, err := s.Audit.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
