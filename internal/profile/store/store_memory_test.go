package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"famhelpdesk/internal/profile/models"
	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/sentinel"
	"famhelpdesk/pkg/requestcontext"
)

type ProfileStoreSuite struct {
	suite.Suite
	db    *storage.MemoryDB
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) SetupTest() {
	s.db = storage.NewMemoryDB()
	s.store = NewInMemoryStore(s.db)
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ProfileStoreSuite) TestCreateOncePerUser() {
	userID := id.UserID(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, models.NewProfile(userID, requestcontext.Identity{Name: "Ann"}, s.now)))

	err := s.store.Create(s.ctx, models.NewProfile(userID, requestcontext.Identity{Name: "Other"}, s.now))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal("Ann", found.DisplayName)
}

func (s *ProfileStoreSuite) TestFindUnknownUser() {
	_, err := s.store.FindByUser(s.ctx, id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ProfileStoreSuite) TestExecute() {
	userID := id.UserID(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, models.NewProfile(userID, requestcontext.Identity{Name: "Ann"}, s.now)))

	s.Run("applies the mutation", func() {
		nick := "Nan"
		updated, err := s.store.Execute(s.ctx, userID, func(p *models.Profile) error {
			return p.ApplyUpdate(nil, &nick, s.now)
		})
		s.Require().NoError(err)
		s.Equal("Nan", updated.NickName)
	})

	s.Run("rejected mutation leaves the row", func() {
		_, err := s.store.Execute(s.ctx, userID, func(p *models.Profile) error {
			p.NickName = "changed"
			return errors.New("nope")
		})
		s.Require().Error(err)

		found, err := s.store.FindByUser(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal("Nan", found.NickName)
	})

	s.Run("unknown user", func() {
		_, err := s.store.Execute(s.ctx, id.UserID(uuid.New()), func(*models.Profile) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ProfileStoreSuite) TestCreateRolledBackWithUnitOfWork() {
	userID := id.UserID(uuid.New())
	err := s.db.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Create(ctx, models.NewProfile(userID, requestcontext.Identity{}, s.now)))
		return errors.New("welcome failed")
	})
	s.Require().Error(err)

	_, err = s.store.FindByUser(s.ctx, userID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
