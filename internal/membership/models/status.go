package models

import (
	"encoding/json"
	"strings"

	dErrors "famhelpdesk/pkg/domain-errors"
)

// Status is the membership state shared by family and group memberships.
//
//	        request            approve
//	(none) -------> AWAITING -----------> MEMBER
//	                   |          decline
//	                   +--------------------> DECLINED
//	DECLINED --request--> AWAITING
//	MEMBER   --remove-->  (row deleted, group level only)
type Status string

const (
	StatusAwaiting Status = "AWAITING"
	StatusMember   Status = "MEMBER"
	StatusDeclined Status = "DECLINED"
)

// Legacy spellings still sent by older mobile builds. Accepted on input only.
const (
	aliasPending  = "PENDING"
	aliasRejected = "REJECTED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAwaiting, StatusMember, StatusDeclined:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus accepts the canonical names and their legacy aliases,
// case-insensitively.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(StatusAwaiting), aliasPending:
		return StatusAwaiting, nil
	case string(StatusMember):
		return StatusMember, nil
	case string(StatusDeclined), aliasRejected:
		return StatusDeclined, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown membership status: "+raw)
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CanRequestFrom reports whether a request is legal given the current row
// status. Pass "" when no row exists.
func CanRequestFrom(current Status) error {
	switch current {
	case "", StatusDeclined:
		return nil
	case StatusMember:
		return dErrors.New(dErrors.CodeAlreadyMember, "already a member")
	case StatusAwaiting:
		return dErrors.New(dErrors.CodeAlreadyRequested, "membership already requested")
	}
	return dErrors.New(dErrors.CodeInvalidTransition, "membership is in an unknown state")
}
