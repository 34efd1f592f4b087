// Package store persists notifications for the in-memory and Postgres
// backends.
package store

import (
	"context"
	"maps"

	"famhelpdesk/internal/notification/models"
	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps each user's notifications in sequence order.
type InMemoryStore struct {
	db     *storage.MemoryDB
	seq    int64
	byUser map[id.UserID][]*models.Notification
}

func NewInMemoryStore(db *storage.MemoryDB) *InMemoryStore {
	return &InMemoryStore{db: db, byUser: make(map[id.UserID][]*models.Notification)}
}

func clone(n *models.Notification) *models.Notification {
	c := *n
	c.Data = maps.Clone(n.Data)
	return &c
}

// Insert assigns sequence numbers and stores the notifications. Sequence
// numbers consumed by a rolled back unit of work are not reused.
func (s *InMemoryStore) Insert(ctx context.Context, notifications []*models.Notification) error {
	return s.db.Write(ctx, func(u storage.Undo) error {
		for _, n := range notifications {
			s.seq++
			n.Seq = s.seq
			userID := n.UserID
			prevLen := len(s.byUser[userID])
			s.byUser[userID] = append(s.byUser[userID], clone(n))
			u.Add(func() { s.byUser[userID] = s.byUser[userID][:prevLen] })
		}
		return nil
	})
}

func matches(n *models.Notification, f models.ViewedFilter) bool {
	switch f {
	case models.FilterUnread:
		return !n.Viewed
	case models.FilterViewed:
		return n.Viewed
	}
	return true
}

// List returns up to q.Limit notifications newest first.
func (s *InMemoryStore) List(ctx context.Context, userID id.UserID, q models.Query) ([]*models.Notification, error) {
	var out []*models.Notification
	s.db.Read(ctx, func() {
		list := s.byUser[userID]
		for i := len(list) - 1; i >= 0 && len(out) < q.Limit; i-- {
			n := list[i]
			if q.BeforeSeq > 0 && n.Seq >= q.BeforeSeq {
				continue
			}
			if matches(n, q.Filter) {
				out = append(out, clone(n))
			}
		}
	})
	return out, nil
}

// MarkViewed sets viewed on the user's notification. Another user's
// notification is reported as not found.
func (s *InMemoryStore) MarkViewed(ctx context.Context, userID id.UserID, notificationID id.NotificationID) (*models.Notification, error) {
	var out *models.Notification
	err := s.db.Write(ctx, func(u storage.Undo) error {
		for _, n := range s.byUser[userID] {
			if n.ID != notificationID {
				continue
			}
			if !n.Viewed {
				n.Viewed = true
				u.Add(func() { n.Viewed = false })
			}
			out = clone(n)
			return nil
		}
		return sentinel.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAllViewed marks the user's unread notifications up to the last
// assigned sequence and returns how many changed.
func (s *InMemoryStore) MarkAllViewed(ctx context.Context, userID id.UserID) (int, error) {
	var updated int
	err := s.db.Write(ctx, func(u storage.Undo) error {
		watermark := s.seq
		for _, n := range s.byUser[userID] {
			if n.Seq > watermark || n.Viewed {
				continue
			}
			n.Viewed = true
			u.Add(func() { n.Viewed = false })
			updated++
		}
		return nil
	})
	return updated, err
}

func (s *InMemoryStore) CountUnread(ctx context.Context, userID id.UserID) (int, error) {
	var count int
	s.db.Read(ctx, func() {
		for _, n := range s.byUser[userID] {
			if !n.Viewed {
				count++
			}
		}
	})
	return count, nil
}
