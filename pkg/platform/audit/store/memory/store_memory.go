package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	audit "famhelpdesk/pkg/platform/audit"
)

type entry struct {
	event       audit.Event
	outbox      audit.OutboxEntry
	publishedAt *time.Time
}

// InMemoryStore keeps the audit trail and its outbox in memory. Appends join the
// unit of work of the shared MemoryDB.
type InMemoryStore struct {
	db      *storage.MemoryDB
	entries []*entry
}

func NewInMemoryStore(db *storage.MemoryDB) *InMemoryStore {
	return &InMemoryStore{db: db}
}

func (s *InMemoryStore) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	aggregateType, aggregateID := event.Aggregate()
	return s.db.Write(ctx, func(u storage.Undo) error {
		s.entries = append(s.entries, &entry{
			event: event,
			outbox: audit.OutboxEntry{
				ID:            uuid.New(),
				AggregateType: aggregateType,
				AggregateID:   aggregateID,
				EventType:     event.EventType(),
				Payload:       payload,
				CreatedAt:     event.Timestamp,
			},
		})
		n := len(s.entries) - 1
		u.Add(func() { s.entries = s.entries[:n] })
		return nil
	})
}

// ListByFamily returns a family's audit trail in append order.
func (s *InMemoryStore) ListByFamily(ctx context.Context, familyID id.FamilyID) ([]audit.Event, error) {
	var out []audit.Event
	s.db.Read(ctx, func() {
		for _, e := range s.entries {
			if e.event.FamilyID == familyID {
				out = append(out, e.event)
			}
		}
	})
	return out, nil
}

func (s *InMemoryStore) FetchPending(ctx context.Context, limit int) ([]audit.OutboxEntry, error) {
	var out []audit.OutboxEntry
	s.db.Read(ctx, func() {
		for _, e := range s.entries {
			if len(out) >= limit {
				return
			}
			if e.publishedAt == nil {
				out = append(out, e.outbox)
			}
		}
	})
	return out, nil
}

func (s *InMemoryStore) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, i := range ids {
		want[i] = struct{}{}
	}
	return s.db.Write(ctx, func(u storage.Undo) error {
		for _, e := range s.entries {
			if _, ok := want[e.outbox.ID]; ok && e.publishedAt == nil {
				published := at
				e.publishedAt = &published
				u.Add(func() { e.publishedAt = nil })
			}
		}
		return nil
	})
}
