package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/membership/models"
	familystore "famhelpdesk/internal/membership/store/family"
	groupstore "famhelpdesk/internal/membership/store/group"
	notificationModels "famhelpdesk/internal/notification/models"
	notificationService "famhelpdesk/internal/notification/service"
	notificationStore "famhelpdesk/internal/notification/store"
	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	audit "famhelpdesk/pkg/platform/audit"
	"famhelpdesk/pkg/platform/audit/publisher"
	auditmemory "famhelpdesk/pkg/platform/audit/store/memory"
	"famhelpdesk/pkg/requestcontext"
	"famhelpdesk/pkg/testutil"
)

type MembershipServiceSuite struct {
	suite.Suite
	ctx           context.Context
	db            *storage.MemoryDB
	families      *familystore.InMemoryStore
	groups        *groupstore.InMemoryStore
	auditStore    *auditmemory.InMemoryStore
	notifications *notificationService.Service
	service       *Service
}

func TestMembershipServiceSuite(t *testing.T) {
	suite.Run(t, new(MembershipServiceSuite))
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func (s *MembershipServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), testNow)
	s.db = storage.NewMemoryDB()
	s.families = familystore.NewInMemoryStore(s.db)
	s.groups = groupstore.NewInMemoryStore(s.db)
	s.auditStore = auditmemory.NewInMemoryStore(s.db)

	layer := consistency.New(consistency.NewMemoryVersions())
	s.notifications = notificationService.New(notificationStore.NewInMemoryStore(s.db),
		notificationService.WithConsistency(layer))
	s.service = New(s.families, s.groups, s.db, s.notifications,
		WithAuditPublisher(publisher.New(s.auditStore)),
		WithConsistency(layer),
	)
}

func newUser() id.UserID {
	return id.UserID(uuid.New())
}

func (s *MembershipServiceSuite) createFamily(owner id.UserID) id.FamilyID {
	created, err := s.service.CreateFamily(s.ctx, "Smith", "The Smith household", owner)
	s.Require().NoError(err)
	return created.Family.ID
}

// joinFamily takes user through request and approval by admin.
func (s *MembershipServiceSuite) joinFamily(familyID id.FamilyID, admin, user id.UserID) {
	_, err := s.service.RequestFamilyMembership(s.ctx, familyID, user)
	s.Require().NoError(err)
	_, err = s.service.ReviewFamilyMembership(s.ctx, familyID, user, true, admin)
	s.Require().NoError(err)
}

func (s *MembershipServiceSuite) createGroup(familyID id.FamilyID, owner id.UserID) id.GroupID {
	created, err := s.service.CreateGroup(s.ctx, familyID, "Kids", "", owner)
	s.Require().NoError(err)
	return created.Group.ID
}

func (s *MembershipServiceSuite) notificationsOf(userID id.UserID) []*notificationModels.Notification {
	page, _, err := s.notifications.ListNotifications(s.ctx, userID, notificationService.MaxPageSize, notificationModels.FilterAll, "")
	s.Require().NoError(err)
	return page.Notifications
}

func (s *MembershipServiceSuite) countOfType(userID id.UserID, t notificationModels.Type) int {
	n := 0
	for _, rec := range s.notificationsOf(userID) {
		if rec.Type == t {
			n++
		}
	}
	return n
}

func (s *MembershipServiceSuite) requireCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(code, dErrors.CodeOf(err), "unexpected error: %v", err)
}

func (s *MembershipServiceSuite) TestCreateFamily() {
	s.Run("creator becomes admin member and is welcomed", func() {
		owner := newUser()
		created, err := s.service.CreateFamily(s.ctx, "  Smith  ", "", owner)
		s.Require().NoError(err)
		s.Equal("Smith", created.Family.Name)
		s.Equal(models.StatusMember, created.Membership.Status)
		s.True(created.Membership.IsAdmin)

		mine, _, err := s.service.ListMyFamilies(s.ctx, owner)
		s.Require().NoError(err)
		s.Require().Len(mine, 1)
		s.Equal(created.Family.ID, mine[0].Family.ID)

		s.Equal(1, s.countOfType(owner, notificationModels.TypeWelcomeToFamily))

		events, err := s.auditStore.ListByFamily(s.ctx, created.Family.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal("FAMILY.CREATE", events[0].EventType())
		s.Equal("MEMBER.CREATE", events[1].EventType())
	})

	s.Run("invalid name", func() {
		_, err := s.service.CreateFamily(s.ctx, "<script>", "", newUser())
		s.requireCode(err, dErrors.CodeValidation)

		families, _, err := s.service.ListFamilies(s.ctx)
		s.Require().NoError(err)
		for _, f := range families {
			s.NotEqual("<script>", f.Name)
		}
	})
}

func (s *MembershipServiceSuite) TestRequestFamilyMembership() {
	owner, user := newUser(), newUser()
	familyID := s.createFamily(owner)

	s.Run("unknown family", func() {
		_, err := s.service.RequestFamilyMembership(s.ctx, id.NewFamilyID(), user)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("request notifies admins", func() {
		m, err := s.service.RequestFamilyMembership(s.ctx, familyID, user)
		s.Require().NoError(err)
		s.Equal(models.StatusAwaiting, m.Status)
		s.Equal(1, s.countOfType(owner, notificationModels.TypeMembershipRequest))
	})

	s.Run("retry while awaiting", func() {
		_, err := s.service.RequestFamilyMembership(s.ctx, familyID, user)
		s.requireCode(err, dErrors.CodeAlreadyRequested)

		requests, _, err := s.service.ListFamilyRequests(s.ctx, familyID, owner)
		s.Require().NoError(err)
		s.Len(requests, 1)
		s.Equal(1, s.countOfType(owner, notificationModels.TypeMembershipRequest))
	})

	s.Run("already a member", func() {
		_, err := s.service.RequestFamilyMembership(s.ctx, familyID, owner)
		s.requireCode(err, dErrors.CodeAlreadyMember)
	})
}

func (s *MembershipServiceSuite) TestRequestFamilyMembership_ConcurrentRequestsCreateOneRow() {
	owner, user := newUser(), newUser()
	familyID := s.createFamily(owner)

	const workers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.RequestFamilyMembership(s.ctx, familyID, user)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.requireCode(err, dErrors.CodeAlreadyRequested)
	}
	s.Equal(1, succeeded)

	requests, _, err := s.service.ListFamilyRequests(s.ctx, familyID, owner)
	s.Require().NoError(err)
	s.Len(requests, 1)
	s.Equal(1, s.countOfType(owner, notificationModels.TypeMembershipRequest))
}

func (s *MembershipServiceSuite) TestReviewFamilyMembership() {
	s.Run("non-admin reviewer is refused and the row is unchanged", func() {
		owner, member, user := newUser(), newUser(), newUser()
		familyID := s.createFamily(owner)
		s.joinFamily(familyID, owner, member)
		_, err := s.service.RequestFamilyMembership(s.ctx, familyID, user)
		s.Require().NoError(err)

		_, err = s.service.ReviewFamilyMembership(s.ctx, familyID, user, true, member)
		s.requireCode(err, dErrors.CodeForbidden)

		row, err := s.families.FindMembership(s.ctx, familyID, user)
		s.Require().NoError(err)
		s.Equal(models.StatusAwaiting, row.Status)
		s.Zero(s.countOfType(user, notificationModels.TypeMembershipApproved))
	})

	s.Run("second review fails with invalid transition", func() {
		owner, user := newUser(), newUser()
		familyID := s.createFamily(owner)
		_, err := s.service.RequestFamilyMembership(s.ctx, familyID, user)
		s.Require().NoError(err)

		m, err := s.service.ReviewFamilyMembership(s.ctx, familyID, user, false, owner)
		s.Require().NoError(err)
		s.Equal(models.StatusDeclined, m.Status)

		_, err = s.service.ReviewFamilyMembership(s.ctx, familyID, user, false, owner)
		s.requireCode(err, dErrors.CodeInvalidTransition)
		_, err = s.service.ReviewFamilyMembership(s.ctx, familyID, user, true, owner)
		s.requireCode(err, dErrors.CodeInvalidTransition)

		s.Equal(1, s.countOfType(user, notificationModels.TypeMembershipDenied))
		s.Zero(s.countOfType(user, notificationModels.TypeMembershipApproved))
	})

	s.Run("no request to review", func() {
		owner := newUser()
		familyID := s.createFamily(owner)
		_, err := s.service.ReviewFamilyMembership(s.ctx, familyID, newUser(), true, owner)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("re-request after decline reuses the row", func() {
		owner, user := newUser(), newUser()
		familyID := s.createFamily(owner)
		_, err := s.service.RequestFamilyMembership(s.ctx, familyID, user)
		s.Require().NoError(err)
		_, err = s.service.ReviewFamilyMembership(s.ctx, familyID, user, false, owner)
		s.Require().NoError(err)

		m, err := s.service.RequestFamilyMembership(s.ctx, familyID, user)
		s.Require().NoError(err)
		s.Equal(models.StatusAwaiting, m.Status)

		requests, _, err := s.service.ListFamilyRequests(s.ctx, familyID, owner)
		s.Require().NoError(err)
		s.Len(requests, 1)

		mine, _, err := s.service.ListMyFamilies(s.ctx, user)
		s.Require().NoError(err)
		s.Require().Len(mine, 1)
		s.Equal(models.StatusAwaiting, mine[0].Membership.Status)
	})
}

func (s *MembershipServiceSuite) TestReviewFamilyMembership_ConcurrentReviewersExactlyOneWins() {
	owner, second, user := newUser(), newUser(), newUser()
	familyID := s.createFamily(owner)
	s.joinFamily(familyID, owner, second)
	// promote second through the store; families expose no role endpoint
	_, err := s.families.ExecuteMembership(s.ctx, familyID, second,
		func(*models.FamilyMembership) error { return nil },
		func(m *models.FamilyMembership) { m.IsAdmin = true },
	)
	s.Require().NoError(err)
	_, err = s.service.RequestFamilyMembership(s.ctx, familyID, user)
	s.Require().NoError(err)

	reviewers := []struct {
		id      id.UserID
		approve bool
	}{{owner, true}, {second, false}}
	results := make([]error, len(reviewers))
	var wg sync.WaitGroup
	for i, r := range reviewers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = s.service.ReviewFamilyMembership(s.ctx, familyID, user, r.approve, r.id)
		}()
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		if err == nil {
			wins++
		} else if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
			losses++
		}
	}
	s.Equal(1, wins)
	s.Equal(1, losses)

	decisions := s.countOfType(user, notificationModels.TypeMembershipApproved) +
		s.countOfType(user, notificationModels.TypeMembershipDenied)
	s.Equal(1, decisions)
}

func (s *MembershipServiceSuite) TestUpdateFamily() {
	owner, member := newUser(), newUser()
	familyID := s.createFamily(owner)
	s.joinFamily(familyID, owner, member)

	// warm the cache so the update has to invalidate it
	mine, _, err := s.service.ListMyFamilies(s.ctx, member)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)

	s.Run("members may not rename", func() {
		name := "Jones"
		_, err := s.service.UpdateFamily(s.ctx, familyID, &name, nil, member)
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("nothing to update", func() {
		_, err := s.service.UpdateFamily(s.ctx, familyID, nil, nil, owner)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("admin rename is visible in my families", func() {
		name := "Jones"
		updated, err := s.service.UpdateFamily(s.ctx, familyID, &name, nil, owner)
		s.Require().NoError(err)
		s.Equal("Jones", updated.Name)

		mine, _, err := s.service.ListMyFamilies(s.ctx, member)
		s.Require().NoError(err)
		s.Require().Len(mine, 1)
		s.Equal("Jones", mine[0].Family.Name)

		got, _, err := s.service.GetFamily(s.ctx, familyID)
		s.Require().NoError(err)
		s.Equal("Jones", got.Name)
	})
}

func (s *MembershipServiceSuite) TestListFamilyMembersAndRequests() {
	owner, member, outsider := newUser(), newUser(), newUser()
	familyID := s.createFamily(owner)
	s.joinFamily(familyID, owner, member)

	members, _, err := s.service.ListFamilyMembers(s.ctx, familyID, member)
	s.Require().NoError(err)
	s.Len(members, 2)

	_, _, err = s.service.ListFamilyMembers(s.ctx, familyID, outsider)
	s.requireCode(err, dErrors.CodeForbidden)

	_, _, err = s.service.ListFamilyRequests(s.ctx, familyID, member)
	s.requireCode(err, dErrors.CodeForbidden)

	requests, _, err := s.service.ListFamilyRequests(s.ctx, familyID, owner)
	s.Require().NoError(err)
	s.NotNil(requests)
	s.Empty(requests)
}

func (s *MembershipServiceSuite) TestMembershipScenario() {
	t := s.T()
	userA, adminB, adminC := newUser(), newUser(), newUser()
	var (
		familyID id.FamilyID
		groupID  id.GroupID
	)

	testutil.Given(t, "family F administered by B with group G administered by C", func(t *testing.T) {
		familyID = s.createFamily(adminB)
		s.joinFamily(familyID, adminB, adminC)
		groupID = s.createGroup(familyID, adminC)
	})

	testutil.When(t, "A requests F and B approves", func(t *testing.T) {
		m, err := s.service.RequestFamilyMembership(s.ctx, familyID, userA)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAwaiting, m.Status)

		m, err = s.service.ReviewFamilyMembership(s.ctx, familyID, userA, true, adminB)
		require.NoError(t, err)
		assert.Equal(t, models.StatusMember, m.Status)
	})

	testutil.When(t, "A requests G and C declines", func(t *testing.T) {
		m, err := s.service.RequestGroupMembership(s.ctx, familyID, groupID, userA)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAwaiting, m.Status)
		assert.Equal(t, 1, s.countOfType(adminC, notificationModels.TypeGroupInvitation))

		m, err = s.service.ReviewGroupMembership(s.ctx, familyID, groupID, userA, false, adminC)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeclined, m.Status)
	})

	testutil.Then(t, "A can re-request G and the same row returns to AWAITING", func(t *testing.T) {
		m, err := s.service.RequestGroupMembership(s.ctx, familyID, groupID, userA)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAwaiting, m.Status)

		requests, _, err := s.service.ListGroupRequests(s.ctx, familyID, groupID, adminC)
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, userA, requests[0].UserID)

		assert.Equal(t, 1, s.countOfType(userA, notificationModels.TypeMembershipApproved))
		assert.Equal(t, 1, s.countOfType(userA, notificationModels.TypeMembershipDenied))
	})
}

func (s *MembershipServiceSuite) TestRequestGroupMembership() {
	owner, pending := newUser(), newUser()
	familyID := s.createFamily(owner)
	groupID := s.createGroup(familyID, owner)
	_, err := s.service.RequestFamilyMembership(s.ctx, familyID, pending)
	s.Require().NoError(err)

	s.Run("awaiting family member may not request", func() {
		_, err := s.service.RequestGroupMembership(s.ctx, familyID, groupID, pending)
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("group under another family is not found", func() {
		otherFamily := s.createFamily(owner)
		_, err := s.service.RequestGroupMembership(s.ctx, otherFamily, groupID, owner)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("group admin already a member", func() {
		_, err := s.service.RequestGroupMembership(s.ctx, familyID, groupID, owner)
		s.requireCode(err, dErrors.CodeAlreadyMember)
	})
}

func (s *MembershipServiceSuite) TestCreateGroup() {
	owner, outsider := newUser(), newUser()
	familyID := s.createFamily(owner)

	_, err := s.service.CreateGroup(s.ctx, familyID, "Kids", "", outsider)
	s.requireCode(err, dErrors.CodeForbidden)

	created, err := s.service.CreateGroup(s.ctx, familyID, "Kids", "Homework help", owner)
	s.Require().NoError(err)
	s.True(created.Membership.IsActiveAdmin())

	groups, _, err := s.service.ListGroups(s.ctx, familyID, owner)
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Equal("Homework help", groups[0].Description)

	mine, _, err := s.service.ListMyGroups(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(created.Group.ID, mine[0].Group.ID)

	_, _, err = s.service.ListGroups(s.ctx, familyID, outsider)
	s.requireCode(err, dErrors.CodeForbidden)
}

func (s *MembershipServiceSuite) TestAddGroupMemberDirect() {
	owner, userX := newUser(), newUser()
	familyID := s.createFamily(owner)
	s.joinFamily(familyID, owner, userX)
	groupID := s.createGroup(familyID, owner)

	s.Run("grant is visible to the admin's next listing", func() {
		before, _, err := s.service.ListGroupMembers(s.ctx, familyID, groupID, owner)
		s.Require().NoError(err)
		s.Len(before, 1)

		m, err := s.service.AddGroupMemberDirect(s.ctx, familyID, groupID, userX, true, owner)
		s.Require().NoError(err)
		s.Equal(models.StatusMember, m.Status)
		s.True(m.IsAdmin)

		after, _, err := s.service.ListGroupMembers(s.ctx, familyID, groupID, owner)
		s.Require().NoError(err)
		s.Len(after, 2)
		s.Equal(1, s.countOfType(userX, notificationModels.TypeGroupInvitation))
	})

	s.Run("target must belong to the family", func() {
		_, err := s.service.AddGroupMemberDirect(s.ctx, familyID, groupID, newUser(), false, owner)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("non-admin may not grant", func() {
		member := newUser()
		s.joinFamily(familyID, owner, member)
		_, err := s.service.AddGroupMemberDirect(s.ctx, familyID, groupID, member, false, member)
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("admin adding themselves is not notified", func() {
		otherGroup, err := s.service.CreateGroup(s.ctx, familyID, "Chores", "", userX)
		s.Require().NoError(err)
		before := len(s.notificationsOf(owner))

		// owner is not in the group yet, so userX adds owner, then owner re-grants itself
		_, err = s.service.AddGroupMemberDirect(s.ctx, familyID, otherGroup.Group.ID, owner, true, userX)
		s.Require().NoError(err)
		s.Len(s.notificationsOf(owner), before+1)

		_, err = s.service.AddGroupMemberDirect(s.ctx, familyID, otherGroup.Group.ID, owner, true, owner)
		s.Require().NoError(err)
		s.Len(s.notificationsOf(owner), before+1)
	})
}

func (s *MembershipServiceSuite) TestUpdateGroupMemberRole() {
	owner, member, requester := newUser(), newUser(), newUser()
	familyID := s.createFamily(owner)
	s.joinFamily(familyID, owner, member)
	s.joinFamily(familyID, owner, requester)
	groupID := s.createGroup(familyID, owner)
	_, err := s.service.AddGroupMemberDirect(s.ctx, familyID, groupID, member, false, owner)
	s.Require().NoError(err)
	_, err = s.service.RequestGroupMembership(s.ctx, familyID, groupID, requester)
	s.Require().NoError(err)

	s.Run("role change on an awaiting row", func() {
		_, err := s.service.UpdateGroupMemberRole(s.ctx, familyID, groupID, requester, true, owner)
		s.requireCode(err, dErrors.CodeInvalidTransition)
	})

	s.Run("promote", func() {
		m, err := s.service.UpdateGroupMemberRole(s.ctx, familyID, groupID, member, true, owner)
		s.Require().NoError(err)
		s.True(m.IsAdmin)
	})

	s.Run("already at target value writes nothing", func() {
		events, err := s.auditStore.ListByFamily(s.ctx, familyID)
		s.Require().NoError(err)
		later := requestcontext.WithTime(context.Background(), testNow.Add(time.Hour))

		m, err := s.service.UpdateGroupMemberRole(later, familyID, groupID, member, true, owner)
		s.Require().NoError(err)
		s.True(m.IsAdmin)
		s.Equal(testNow, m.UpdatedAt)

		after, err := s.auditStore.ListByFamily(s.ctx, familyID)
		s.Require().NoError(err)
		s.Len(after, len(events))
	})

	s.Run("unknown member", func() {
		_, err := s.service.UpdateGroupMemberRole(s.ctx, familyID, groupID, newUser(), true, owner)
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *MembershipServiceSuite) TestRemoveGroupMember() {
	owner, member, other := newUser(), newUser(), newUser()
	familyID := s.createFamily(owner)
	s.joinFamily(familyID, owner, member)
	s.joinFamily(familyID, owner, other)
	groupID := s.createGroup(familyID, owner)
	for _, u := range []id.UserID{member, other} {
		_, err := s.service.AddGroupMemberDirect(s.ctx, familyID, groupID, u, false, owner)
		s.Require().NoError(err)
	}

	s.Run("member may not remove someone else", func() {
		_, err := s.service.RemoveGroupMember(s.ctx, familyID, groupID, other, member)
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("self removal", func() {
		removed, err := s.service.RemoveGroupMember(s.ctx, familyID, groupID, member, member)
		s.Require().NoError(err)
		s.Equal(member, removed.UserID)

		mine, _, err := s.service.ListMyGroups(s.ctx, member)
		s.Require().NoError(err)
		s.Empty(mine)
	})

	s.Run("admin removal and removed user may request again", func() {
		_, err := s.service.RemoveGroupMember(s.ctx, familyID, groupID, other, owner)
		s.Require().NoError(err)

		members, _, err := s.service.ListGroupMembers(s.ctx, familyID, groupID, owner)
		s.Require().NoError(err)
		s.Len(members, 1)

		m, err := s.service.RequestGroupMembership(s.ctx, familyID, groupID, other)
		s.Require().NoError(err)
		s.Equal(models.StatusAwaiting, m.Status)
	})

	s.Run("no such membership", func() {
		_, err := s.service.RemoveGroupMember(s.ctx, familyID, groupID, newUser(), owner)
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *MembershipServiceSuite) TestRemoveGroupMember_OnlyActiveRows() {
	owner, waiting, declined := newUser(), newUser(), newUser()
	familyID := s.createFamily(owner)
	s.joinFamily(familyID, owner, waiting)
	s.joinFamily(familyID, owner, declined)
	groupID := s.createGroup(familyID, owner)
	for _, u := range []id.UserID{waiting, declined} {
		_, err := s.service.RequestGroupMembership(s.ctx, familyID, groupID, u)
		s.Require().NoError(err)
	}
	_, err := s.service.ReviewGroupMembership(s.ctx, familyID, groupID, declined, false, owner)
	s.Require().NoError(err)

	s.Run("admin may not drop a pending request", func() {
		_, err := s.service.RemoveGroupMember(s.ctx, familyID, groupID, waiting, owner)
		s.requireCode(err, dErrors.CodeInvalidTransition)

		requests, _, err := s.service.ListGroupRequests(s.ctx, familyID, groupID, owner)
		s.Require().NoError(err)
		s.Require().Len(requests, 1)
		s.Equal(waiting, requests[0].UserID)
	})

	s.Run("declined user may not erase the decline", func() {
		_, err := s.service.RemoveGroupMember(s.ctx, familyID, groupID, declined, declined)
		s.requireCode(err, dErrors.CodeInvalidTransition)

		found, err := s.groups.FindMembership(s.ctx, groupID, declined)
		s.Require().NoError(err)
		s.Equal(models.StatusDeclined, found.Status)
	})
}

func (s *MembershipServiceSuite) TestUpdateAndDeleteGroup() {
	owner, member := newUser(), newUser()
	familyID := s.createFamily(owner)
	s.joinFamily(familyID, owner, member)
	groupID := s.createGroup(familyID, owner)
	_, err := s.service.AddGroupMemberDirect(s.ctx, familyID, groupID, member, false, owner)
	s.Require().NoError(err)

	name := "Teens"
	_, err = s.service.UpdateGroup(s.ctx, familyID, groupID, &name, nil, member)
	s.requireCode(err, dErrors.CodeForbidden)

	mine, _, err := s.service.ListMyGroups(s.ctx, member)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)

	updated, err := s.service.UpdateGroup(s.ctx, familyID, groupID, &name, nil, owner)
	s.Require().NoError(err)
	s.Equal("Teens", updated.Name)

	mine, _, err = s.service.ListMyGroups(s.ctx, member)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal("Teens", mine[0].Group.Name)

	s.requireCode(s.service.DeleteGroup(s.ctx, familyID, groupID, member), dErrors.CodeForbidden)
	s.Require().NoError(s.service.DeleteGroup(s.ctx, familyID, groupID, owner))

	mine, _, err = s.service.ListMyGroups(s.ctx, member)
	s.Require().NoError(err)
	s.Empty(mine)

	groups, _, err := s.service.ListGroups(s.ctx, familyID, owner)
	s.Require().NoError(err)
	s.Empty(groups)

	_, err = s.groups.FindMembership(s.ctx, groupID, member)
	s.Error(err)
}

func (s *MembershipServiceSuite) TestMutationSurvivesCallerCancellation() {
	owner, user := newUser(), newUser()
	familyID := s.createFamily(owner)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.service.RequestFamilyMembership(ctx, familyID, user)
	s.Require().NoError(err)

	row, err := s.families.FindMembership(s.ctx, familyID, user)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaiting, row.Status)
}

type failingAudit struct{}

func (failingAudit) Emit(context.Context, audit.Event) error {
	return errors.New("outbox unavailable")
}

func (s *MembershipServiceSuite) TestAuditFailureRollsBackTransition() {
	owner, user := newUser(), newUser()
	familyID := s.createFamily(owner)
	before := len(s.notificationsOf(owner))

	svc := New(s.families, s.groups, s.db, s.notifications, WithAuditPublisher(failingAudit{}))
	_, err := svc.RequestFamilyMembership(s.ctx, familyID, user)
	s.requireCode(err, dErrors.CodeInternal)

	_, err = s.families.FindMembership(s.ctx, familyID, user)
	s.Error(err)
	s.Len(s.notificationsOf(owner), before)
}

func (s *MembershipServiceSuite) TestUnreadCountTracksTransitions() {
	owner, user := newUser(), newUser()
	familyID := s.createFamily(owner)

	count, _, err := s.notifications.UnreadCount(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(1, count)

	_, err = s.service.RequestFamilyMembership(s.ctx, familyID, user)
	s.Require().NoError(err)

	count, _, err = s.notifications.UnreadCount(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(2, count)

	_, err = s.notifications.AcknowledgeAll(s.ctx, owner)
	s.Require().NoError(err)
	count, _, err = s.notifications.UnreadCount(s.ctx, owner)
	s.Require().NoError(err)
	s.Zero(count)
}
