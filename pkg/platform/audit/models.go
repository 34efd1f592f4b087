package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "famhelpdesk/pkg/domain"
)

// EntityType names the record an audit event is about.
type EntityType string

const (
	EntityFamily EntityType = "FAMILY"
	EntityMember EntityType = "MEMBER"
	EntityGroup  EntityType = "GROUP"
	// EntityUser events belong to a user rather than a family, e.g. profile
	// changes. FamilyID stays nil.
	EntityUser EntityType = "USER"
)

// Action is the kind of change recorded.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Event is one entry of a family's or user's audit trail. It is appended in the same unit
// of work as the change it describes.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	FamilyID   id.FamilyID     `json:"family_id"`
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     Action          `json:"action"`
	ActorID    id.UserID       `json:"actor_id"`
	RequestID  string          `json:"request_id,omitempty"`
	Client     string          `json:"client,omitempty"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// EventType is the outbox event type, e.g. "MEMBER.UPDATE".
func (e Event) EventType() string {
	return string(e.EntityType) + "." + string(e.Action)
}

// Aggregate returns the outbox aggregate the event is filed under.
func (e Event) Aggregate() (aggregateType, aggregateID string) {
	if e.EntityType == EntityUser {
		return "user", e.EntityID
	}
	return "family", e.FamilyID.String()
}

// Snapshot encodes v for the Before/After fields. Nil values yield nil.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// Store persists audit events. Implementations join the unit of work carried
// by ctx.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is an audit event waiting to be relayed to the event bus.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Outbox is the relay side of the store.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
