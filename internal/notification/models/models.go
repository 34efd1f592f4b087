package models

import (
	"encoding/base64"
	"strconv"
	"time"

	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
)

// Type is the closed set of notification kinds clients know how to render.
type Type string

const (
	TypeWelcome             Type = "welcome"
	TypeWelcomeToFamily     Type = "welcome-to-family"
	TypeMembershipRequest   Type = "membership-request"
	TypeMembershipApproved  Type = "membership-approved"
	TypeMembershipDenied    Type = "membership-denied"
	TypeGroupInvitation     Type = "group-invitation"
	TypeTicketAssigned      Type = "ticket-assigned"
	TypeTicketComment       Type = "ticket-comment"
	TypeTicketStatusChanged Type = "ticket-status-changed"
)

var titles = map[Type]string{
	TypeWelcome:             "Welcome",
	TypeWelcomeToFamily:     "Welcome to Family",
	TypeMembershipRequest:   "Membership Request",
	TypeMembershipApproved:  "Membership Approved",
	TypeMembershipDenied:    "Membership Denied",
	TypeGroupInvitation:     "Group Invitation",
	TypeTicketAssigned:      "Ticket Assigned",
	TypeTicketComment:       "Ticket Comment",
	TypeTicketStatusChanged: "Ticket Status Changed",
}

func (t Type) IsValid() bool {
	_, ok := titles[t]
	return ok
}

// Title is the default display title for the type.
func (t Type) Title() string {
	return titles[t]
}

// Notification is created only by the dispatcher. The sole mutation is
// Viewed going from false to true.
type Notification struct {
	ID        id.NotificationID `json:"notification_id"`
	UserID    id.UserID         `json:"user_id"`
	Type      Type              `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Viewed    bool              `json:"viewed"`
	CreatedAt time.Time         `json:"created_at"`

	// Seq orders notifications and backs page cursors. Assigned by the store.
	Seq int64 `json:"-"`
}

// ViewedFilter narrows a listing.
type ViewedFilter int

const (
	FilterAll ViewedFilter = iota
	FilterUnread
	FilterViewed
)

// ParseViewedFilter reads the "viewed" query parameter: empty means all,
// "false" unread only, "true" viewed only.
func ParseViewedFilter(raw string) (ViewedFilter, error) {
	if raw == "" {
		return FilterAll, nil
	}
	viewed, err := strconv.ParseBool(raw)
	if err != nil {
		return FilterAll, dErrors.New(dErrors.CodeValidation, "viewed must be true or false")
	}
	if viewed {
		return FilterViewed, nil
	}
	return FilterUnread, nil
}

// Query selects one page of a user's notifications, newest first.
type Query struct {
	Limit  int
	Filter ViewedFilter
	// BeforeSeq excludes notifications at or after this sequence. Zero means
	// start from the newest.
	BeforeSeq int64
}

// Page is one page of notifications. An empty NextToken means no more pages.
type Page struct {
	Notifications []*Notification `json:"notifications"`
	NextToken     string          `json:"next_token,omitempty"`
}

// EncodeCursor returns the opaque continuation token for a page ending at seq.
func EncodeCursor(seq int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(seq, 10)))
}

// DecodeCursor parses a token from EncodeCursor. An empty token means the
// first page.
func DecodeCursor(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid next_token")
	}
	seq, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || seq <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid next_token")
	}
	return seq, nil
}

// UnreadCount is the response body of the unread counter endpoint.
type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}

// AcknowledgeAllResult reports how many notifications were marked viewed.
type AcknowledgeAllResult struct {
	Updated int `json:"updated"`
}
