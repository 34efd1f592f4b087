package consistency

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "famhelpdesk/pkg/domain"
)

func TestAffected(t *testing.T) {
	familyID := id.NewFamilyID()
	groupID := id.NewGroupID()
	target := id.UserID(uuid.New())
	admin := id.UserID(uuid.New())

	t.Run("family approval", func(t *testing.T) {
		keys := Affected(Mutation{Kind: ReviewFamilyMembership, FamilyID: familyID, UserID: target, Notified: []id.UserID{target}})
		assert.ElementsMatch(t, []Key{
			FamilyMembers(familyID),
			FamilyRequests(familyID),
			UserFamilies(target),
			UserNotifications(target),
			UserUnread(target),
		}, keys)
	})

	t.Run("family request notifies admins", func(t *testing.T) {
		keys := Affected(Mutation{Kind: RequestFamilyMembership, FamilyID: familyID, UserID: target, Notified: []id.UserID{admin}})
		assert.Contains(t, keys, FamilyRequests(familyID))
		assert.Contains(t, keys, UserUnread(admin))
		assert.NotContains(t, keys, FamilyMembers(familyID))
	})

	t.Run("role change leaves requests alone", func(t *testing.T) {
		keys := Affected(Mutation{Kind: UpdateGroupMemberRole, FamilyID: familyID, GroupID: groupID, UserID: target})
		assert.ElementsMatch(t, []Key{GroupMembers(groupID), UserGroups(target)}, keys)
	})

	t.Run("group deletion reaches every member", func(t *testing.T) {
		keys := Affected(Mutation{Kind: DeleteGroup, FamilyID: familyID, GroupID: groupID, Members: []id.UserID{target, admin}})
		assert.Contains(t, keys, UserGroups(target))
		assert.Contains(t, keys, UserGroups(admin))
		assert.Contains(t, keys, FamilyGroups(familyID))
	})

	t.Run("acknowledge", func(t *testing.T) {
		keys := Affected(Mutation{Kind: AcknowledgeAllNotifications, UserID: target})
		assert.ElementsMatch(t, []Key{UserNotifications(target), UserUnread(target)}, keys)
	})

	t.Run("first profile welcomes the user", func(t *testing.T) {
		keys := Affected(Mutation{Kind: CreateProfile, UserID: target, Notified: []id.UserID{target}})
		assert.ElementsMatch(t, []Key{UserProfile(target), UserNotifications(target), UserUnread(target)}, keys)
	})

	t.Run("duplicates removed", func(t *testing.T) {
		keys := Affected(Mutation{Kind: AcknowledgeNotification, UserID: target, Notified: []id.UserID{target}})
		assert.Len(t, keys, 2)
	})
}

func TestMutationKindString(t *testing.T) {
	assert.Equal(t, "review_group_membership", ReviewGroupMembership.String())
	assert.Equal(t, "unknown", MutationKind(0).String())
}
