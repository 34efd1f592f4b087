package group

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"famhelpdesk/internal/membership/models"
	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	"famhelpdesk/pkg/platform/sentinel"
)

type GroupStoreSuite struct {
	suite.Suite
	store    *InMemoryStore
	ctx      context.Context
	now      time.Time
	familyID id.FamilyID
}

func (s *GroupStoreSuite) SetupTest() {
	s.store = NewInMemoryStore(storage.NewMemoryDB())
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.familyID = id.NewFamilyID()
}

func TestGroupStoreSuite(t *testing.T) {
	suite.Run(t, new(GroupStoreSuite))
}

func (s *GroupStoreSuite) newGroup(name string) *models.Group {
	g, err := models.NewGroup(id.NewGroupID(), s.familyID, name, "", id.UserID(uuid.New()), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, g))
	s.now = s.now.Add(time.Second)
	return g
}

func (s *GroupStoreSuite) grant(g *models.Group, user id.UserID, isAdmin bool) {
	_, err := s.store.ExecuteMembership(s.ctx, g.FamilyID, g.ID, user,
		func(*models.GroupMembership) error { return nil },
		func(m *models.GroupMembership) { m.ApplyGrant(isAdmin, s.now) },
	)
	s.Require().NoError(err)
}

func (s *GroupStoreSuite) TestGroupsAreScopedToFamily() {
	g := s.newGroup("Kids")

	found, err := s.store.FindByID(s.ctx, s.familyID, g.ID)
	s.Require().NoError(err)
	s.Equal("Kids", found.Name)

	_, err = s.store.FindByID(s.ctx, id.NewFamilyID(), g.ID)
	s.ErrorIs(err, sentinel.ErrNotFound, "group under the wrong family")

	_, err = s.store.ExecuteMembership(s.ctx, id.NewFamilyID(), g.ID, id.UserID(uuid.New()),
		func(*models.GroupMembership) error { return nil },
		func(m *models.GroupMembership) { m.ApplyGrant(false, s.now) },
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *GroupStoreSuite) TestListByFamily() {
	a := s.newGroup("A")
	b := s.newGroup("B")
	other, err := models.NewGroup(id.NewGroupID(), id.NewFamilyID(), "Other", "", id.UserID(uuid.New()), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, other))

	groups, err := s.store.ListByFamily(s.ctx, s.familyID)
	s.Require().NoError(err)
	s.Require().Len(groups, 2)
	s.Equal(a.ID, groups[0].ID)
	s.Equal(b.ID, groups[1].ID)
}

func (s *GroupStoreSuite) TestDeleteCascadesMemberships() {
	g := s.newGroup("Doomed")
	user := id.UserID(uuid.New())
	s.grant(g, user, true)

	s.Require().NoError(s.store.Delete(s.ctx, s.familyID, g.ID))

	_, err := s.store.FindByID(s.ctx, s.familyID, g.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindMembership(s.ctx, g.ID, user)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(s.ctx, s.familyID, g.ID), sentinel.ErrNotFound)
}

func (s *GroupStoreSuite) TestDeleteMembership() {
	g := s.newGroup("Leave")
	user := id.UserID(uuid.New())
	s.grant(g, user, false)

	active := func(m *models.GroupMembership) error { return m.CanRemove() }
	removed, err := s.store.DeleteMembership(s.ctx, g.ID, user, active)
	s.Require().NoError(err)
	s.Equal(models.StatusMember, removed.Status)

	_, err = s.store.DeleteMembership(s.ctx, g.ID, user, active)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *GroupStoreSuite) TestDeleteMembershipRejectedKeepsRow() {
	g := s.newGroup("Pending")
	user := id.UserID(uuid.New())
	_, err := s.store.ExecuteMembership(s.ctx, s.familyID, g.ID, user,
		func(m *models.GroupMembership) error { return m.CanRequest() },
		func(m *models.GroupMembership) { m.ApplyRequest(s.now) },
	)
	s.Require().NoError(err)

	_, err = s.store.DeleteMembership(s.ctx, g.ID, user, func(m *models.GroupMembership) error { return m.CanRemove() })
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	found, err := s.store.FindMembership(s.ctx, g.ID, user)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaiting, found.Status)
}

func (s *GroupStoreSuite) TestReRequestAfterDeclineReusesRow() {
	g := s.newGroup("Again")
	user := id.UserID(uuid.New())
	request := func() (*models.GroupMembership, error) {
		return s.store.ExecuteMembership(s.ctx, s.familyID, g.ID, user,
			func(m *models.GroupMembership) error {
				if m == nil {
					return nil
				}
				return m.CanRequest()
			},
			func(m *models.GroupMembership) { m.ApplyRequest(s.now) },
		)
	}

	_, err := request()
	s.Require().NoError(err)
	_, err = request()
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRequested))

	_, err = s.store.ExecuteMembership(s.ctx, s.familyID, g.ID, user,
		func(m *models.GroupMembership) error { return m.CanReview() },
		func(m *models.GroupMembership) { m.ApplyReview(false, s.now) },
	)
	s.Require().NoError(err)

	m, err := request()
	s.Require().NoError(err)
	s.Equal(models.StatusAwaiting, m.Status)
	s.Len(s.store.memberships, 1)
}

func (s *GroupStoreSuite) TestListAdminsAndByUser() {
	g := s.newGroup("Admins")
	declined := s.newGroup("Declined")
	admin := id.UserID(uuid.New())
	s.grant(g, admin, true)
	s.grant(g, id.UserID(uuid.New()), false)
	_, err := s.store.ExecuteMembership(s.ctx, s.familyID, declined.ID, admin,
		func(*models.GroupMembership) error { return nil },
		func(m *models.GroupMembership) { m.Status = models.StatusDeclined },
	)
	s.Require().NoError(err)

	admins, err := s.store.ListAdmins(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal([]id.UserID{admin}, admins)

	mine, err := s.store.ListByUser(s.ctx, admin)
	s.Require().NoError(err)
	s.Require().Len(mine, 1, "declined rows are not listed")
	s.Equal(g.ID, mine[0].Group.ID)
}
