package store

import (
	"context"

	"famhelpdesk/internal/profile/models"
	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in a map guarded by the shared MemoryDB.
type InMemoryStore struct {
	db       *storage.MemoryDB
	profiles map[id.UserID]*models.Profile
}

func NewInMemoryStore(db *storage.MemoryDB) *InMemoryStore {
	return &InMemoryStore{db: db, profiles: make(map[id.UserID]*models.Profile)}
}

// Create stores p unless the user already has a profile, in which case it
// returns sentinel.ErrAlreadyUsed.
func (s *InMemoryStore) Create(ctx context.Context, p *models.Profile) error {
	return s.db.Write(ctx, func(u storage.Undo) error {
		if _, ok := s.profiles[p.UserID]; ok {
			return sentinel.ErrAlreadyUsed
		}
		stored := *p
		s.profiles[p.UserID] = &stored
		u.Add(func() { delete(s.profiles, p.UserID) })
		return nil
	})
}

func (s *InMemoryStore) FindByUser(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	var out *models.Profile
	s.db.Read(ctx, func() {
		if p, ok := s.profiles[userID]; ok {
			c := *p
			out = &c
		}
	})
	if out == nil {
		return nil, sentinel.ErrNotFound
	}
	return out, nil
}

// Execute validates and mutates the stored profile under the write lock.
func (s *InMemoryStore) Execute(ctx context.Context, userID id.UserID, mutate func(*models.Profile) error) (*models.Profile, error) {
	var out *models.Profile
	err := s.db.Write(ctx, func(u storage.Undo) error {
		p, ok := s.profiles[userID]
		if !ok {
			return sentinel.ErrNotFound
		}
		working := *p
		if err := mutate(&working); err != nil {
			return err
		}
		s.profiles[userID] = &working
		u.Add(func() { s.profiles[userID] = p })
		c := working
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
