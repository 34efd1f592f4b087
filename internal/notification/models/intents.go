package models

import (
	"fmt"

	id "famhelpdesk/pkg/domain"
)

// Intent describes notifications to emit for one committed transition. The
// dispatcher turns it into one record per recipient.
type Intent struct {
	Type       Type
	Recipients []id.UserID
	Title      string
	Message    string
	Data       map[string]string
}

const (
	DataFamilyID = "family_id"
	DataGroupID  = "group_id"
	DataUserID   = "user_id"
)

func familyData(familyID id.FamilyID, userID id.UserID) map[string]string {
	return map[string]string{DataFamilyID: familyID.String(), DataUserID: userID.String()}
}

func groupData(familyID id.FamilyID, groupID id.GroupID, userID id.UserID) map[string]string {
	d := familyData(familyID, userID)
	d[DataGroupID] = groupID.String()
	return d
}

// Welcome greets a user whose profile was just created.
func Welcome(user id.UserID) Intent {
	return Intent{
		Type:       TypeWelcome,
		Recipients: []id.UserID{user},
		Message:    "Welcome to Fam Help Desk! We're excited to have you here.",
		Data:       map[string]string{DataUserID: user.String()},
	}
}

func WelcomeToFamily(creator id.UserID, familyID id.FamilyID, familyName string) Intent {
	return Intent{
		Type:       TypeWelcomeToFamily,
		Recipients: []id.UserID{creator},
		Message:    fmt.Sprintf("Welcome to %s! You are its first member and admin.", familyName),
		Data:       familyData(familyID, creator),
	}
}

func FamilyMembershipRequested(admins []id.UserID, requester id.UserID, familyID id.FamilyID) Intent {
	return Intent{
		Type:       TypeMembershipRequest,
		Recipients: admins,
		Message:    fmt.Sprintf("User %s has requested to join the family.", requester),
		Data:       familyData(familyID, requester),
	}
}

func FamilyMembershipReviewed(target id.UserID, familyID id.FamilyID, approved bool) Intent {
	return reviewed(target, "family", approved, familyData(familyID, target))
}

func GroupMembershipRequested(admins []id.UserID, requester id.UserID, familyID id.FamilyID, groupID id.GroupID) Intent {
	return Intent{
		Type:       TypeGroupInvitation,
		Recipients: admins,
		Message:    fmt.Sprintf("User %s has requested to join the group.", requester),
		Data:       groupData(familyID, groupID, requester),
	}
}

func GroupMembershipReviewed(target id.UserID, familyID id.FamilyID, groupID id.GroupID, approved bool) Intent {
	return reviewed(target, "group", approved, groupData(familyID, groupID, target))
}

func AddedToGroup(target id.UserID, familyID id.FamilyID, groupID id.GroupID, groupName string) Intent {
	return Intent{
		Type:       TypeGroupInvitation,
		Recipients: []id.UserID{target},
		Message:    fmt.Sprintf("You have been added to the group %s.", groupName),
		Data:       groupData(familyID, groupID, target),
	}
}

func reviewed(target id.UserID, scope string, approved bool, data map[string]string) Intent {
	if approved {
		return Intent{
			Type:       TypeMembershipApproved,
			Recipients: []id.UserID{target},
			Message:    fmt.Sprintf("Your request to join the %s has been approved.", scope),
			Data:       data,
		}
	}
	return Intent{
		Type:       TypeMembershipDenied,
		Recipients: []id.UserID{target},
		Message:    fmt.Sprintf("Your request to join the %s has been denied.", scope),
		Data:       data,
	}
}
