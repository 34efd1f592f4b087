package consistency

import (
	id "famhelpdesk/pkg/domain"
	platformstrings "famhelpdesk/pkg/platform/strings"
)

// MutationKind identifies a state change that can stale cached reads.
type MutationKind int

const (
	CreateFamily MutationKind = iota + 1
	UpdateFamily
	RequestFamilyMembership
	ReviewFamilyMembership
	CreateGroup
	UpdateGroup
	DeleteGroup
	RequestGroupMembership
	ReviewGroupMembership
	AddGroupMember
	UpdateGroupMemberRole
	RemoveGroupMember
	AcknowledgeNotification
	AcknowledgeAllNotifications
	CreateProfile
	UpdateProfile
)

var kindNames = map[MutationKind]string{
	CreateFamily:                "create_family",
	UpdateFamily:                "update_family",
	RequestFamilyMembership:     "request_family_membership",
	ReviewFamilyMembership:      "review_family_membership",
	CreateGroup:                 "create_group",
	UpdateGroup:                 "update_group",
	DeleteGroup:                 "delete_group",
	RequestGroupMembership:      "request_group_membership",
	ReviewGroupMembership:       "review_group_membership",
	AddGroupMember:              "add_group_member",
	UpdateGroupMemberRole:       "update_group_member_role",
	RemoveGroupMember:           "remove_group_member",
	AcknowledgeNotification:     "acknowledge_notification",
	AcknowledgeAllNotifications: "acknowledge_all_notifications",
	CreateProfile:               "create_profile",
	UpdateProfile:               "update_profile",
}

func (k MutationKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Mutation describes a committed change.
type Mutation struct {
	Kind     MutationKind
	FamilyID id.FamilyID
	GroupID  id.GroupID
	// UserID is the user whose membership or notifications changed.
	UserID id.UserID
	// Members are users whose "my families" or "my groups" listing embeds the
	// changed family or group.
	Members []id.UserID
	// Notified are the recipients of notifications emitted by the change.
	Notified []id.UserID
}

// Affected returns the keys whose cached reads the mutation makes stale.
// Approving a family membership, for example, stales that family's member and
// request lists and the approved user's family list, and nothing else besides
// the notification keys of the recipients.
func Affected(m Mutation) []Key {
	var keys []Key
	switch m.Kind {
	case CreateFamily:
		keys = append(keys, Families(), FamilyMembers(m.FamilyID), UserFamilies(m.UserID))
	case UpdateFamily:
		keys = append(keys, Families(), Family(m.FamilyID))
		for _, u := range m.Members {
			keys = append(keys, UserFamilies(u))
		}
	case RequestFamilyMembership:
		keys = append(keys, FamilyRequests(m.FamilyID), UserFamilies(m.UserID))
	case ReviewFamilyMembership:
		keys = append(keys, FamilyMembers(m.FamilyID), FamilyRequests(m.FamilyID), UserFamilies(m.UserID))
	case CreateGroup:
		keys = append(keys, FamilyGroups(m.FamilyID), GroupMembers(m.GroupID), UserGroups(m.UserID))
	case UpdateGroup:
		keys = append(keys, FamilyGroups(m.FamilyID), Group(m.GroupID))
		for _, u := range m.Members {
			keys = append(keys, UserGroups(u))
		}
	case DeleteGroup:
		keys = append(keys, FamilyGroups(m.FamilyID), Group(m.GroupID), GroupMembers(m.GroupID), GroupRequests(m.GroupID))
		for _, u := range m.Members {
			keys = append(keys, UserGroups(u))
		}
	case RequestGroupMembership:
		keys = append(keys, GroupRequests(m.GroupID), UserGroups(m.UserID))
	case ReviewGroupMembership, AddGroupMember, RemoveGroupMember:
		keys = append(keys, GroupMembers(m.GroupID), GroupRequests(m.GroupID), UserGroups(m.UserID))
	case UpdateGroupMemberRole:
		keys = append(keys, GroupMembers(m.GroupID), UserGroups(m.UserID))
	case CreateProfile, UpdateProfile:
		keys = append(keys, UserProfile(m.UserID))
	case AcknowledgeNotification, AcknowledgeAllNotifications:
		keys = append(keys, UserNotifications(m.UserID), UserUnread(m.UserID))
	}
	for _, u := range m.Notified {
		keys = append(keys, UserNotifications(u), UserUnread(u))
	}
	return platformstrings.Dedupe(keys)
}
