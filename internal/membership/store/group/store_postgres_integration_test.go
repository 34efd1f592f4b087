//go:build integration

package group_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"famhelpdesk/internal/membership/models"
	"famhelpdesk/internal/membership/store/family"
	"famhelpdesk/internal/membership/store/group"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/sentinel"
	"famhelpdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	families *family.PostgresStore
	store    *group.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.families = family.NewPostgres(s.postgres.DB)
	s.store = group.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) newGroup() *models.Group {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	f, err := models.NewFamily(id.NewFamilyID(), "Smiths", "", id.UserID(uuid.New()), now)
	s.Require().NoError(err)
	s.Require().NoError(s.families.Create(ctx, f))
	g, err := models.NewGroup(id.NewGroupID(), f.ID, "Kids", "", f.CreatedBy, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, g))
	return g
}

func (s *PostgresStoreSuite) TestMembershipLifecycle() {
	ctx := context.Background()
	g := s.newGroup()
	user := id.UserID(uuid.New())

	m, err := s.store.ExecuteMembership(ctx, g.FamilyID, g.ID, user,
		func(*models.GroupMembership) error { return nil },
		func(m *models.GroupMembership) { m.ApplyGrant(true, time.Now().UTC()) },
	)
	s.Require().NoError(err)
	s.True(m.IsActiveAdmin())

	m, err = s.store.ExecuteMembership(ctx, g.FamilyID, g.ID, user,
		func(m *models.GroupMembership) error { return m.CanChangeRole() },
		func(m *models.GroupMembership) { m.ApplyRole(false, time.Now().UTC()) },
	)
	s.Require().NoError(err)
	s.False(m.IsAdmin)

	found, err := s.store.FindMembership(ctx, g.ID, user)
	s.Require().NoError(err)
	s.False(found.IsAdmin)

	removed, err := s.store.DeleteMembership(ctx, g.ID, user,
		func(m *models.GroupMembership) error { return m.CanRemove() },
	)
	s.Require().NoError(err)
	s.Equal(user, removed.UserID)
}

func (s *PostgresStoreSuite) TestWrongFamilyIsNotFound() {
	ctx := context.Background()
	g := s.newGroup()

	_, err := s.store.FindByID(ctx, id.NewFamilyID(), g.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, id.NewFamilyID(), g.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteCascades() {
	ctx := context.Background()
	g := s.newGroup()
	user := id.UserID(uuid.New())
	_, err := s.store.ExecuteMembership(ctx, g.FamilyID, g.ID, user,
		func(*models.GroupMembership) error { return nil },
		func(m *models.GroupMembership) { m.ApplyGrant(false, time.Now().UTC()) },
	)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(ctx, g.FamilyID, g.ID))
	_, err = s.store.FindMembership(ctx, g.ID, user)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
