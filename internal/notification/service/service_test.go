package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/notification/models"
	"famhelpdesk/internal/notification/store"
	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	"famhelpdesk/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	db      *storage.MemoryDB
	store   *store.InMemoryStore
	service *Service
	ctx     context.Context
	user    id.UserID
}

func (s *ServiceSuite) SetupTest() {
	s.db = storage.NewMemoryDB()
	s.store = store.NewInMemoryStore(s.db)
	s.service = New(s.store, WithConsistency(consistency.New(consistency.NewMemoryVersions())))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.user = id.UserID(uuid.New())
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) dispatch(n int) {
	for range n {
		_, err := s.service.Dispatch(s.ctx, models.FamilyMembershipReviewed(s.user, id.NewFamilyID(), true))
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestDispatch() {
	s.Run("one record per distinct recipient", func() {
		admin := id.UserID(uuid.New())
		recipients, err := s.service.Dispatch(s.ctx,
			models.FamilyMembershipRequested([]id.UserID{admin, admin, s.user}, s.user, id.NewFamilyID()))
		s.Require().NoError(err)
		s.ElementsMatch([]id.UserID{admin, s.user}, recipients)

		page, _, err := s.service.ListNotifications(s.ctx, admin, 0, models.FilterAll, "")
		s.Require().NoError(err)
		s.Require().Len(page.Notifications, 1)
		n := page.Notifications[0]
		s.Equal(models.TypeMembershipRequest, n.Type)
		s.Equal("Membership Request", n.Title)
		s.False(n.Viewed)
	})

	s.Run("no recipients writes nothing", func() {
		recipients, err := s.service.Dispatch(s.ctx, models.FamilyMembershipRequested(nil, s.user, id.NewFamilyID()))
		s.Require().NoError(err)
		s.Empty(recipients)
	})

	s.Run("unknown type is rejected", func() {
		_, err := s.service.Dispatch(s.ctx, models.Intent{Type: "poke", Recipients: []id.UserID{s.user}})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestListPaging() {
	s.dispatch(5)

	first, _, err := s.service.ListNotifications(s.ctx, s.user, 2, models.FilterAll, "")
	s.Require().NoError(err)
	s.Len(first.Notifications, 2)
	s.NotEmpty(first.NextToken)

	second, _, err := s.service.ListNotifications(s.ctx, s.user, 2, models.FilterAll, first.NextToken)
	s.Require().NoError(err)
	s.Len(second.Notifications, 2)
	s.Greater(first.Notifications[1].Seq, second.Notifications[0].Seq)

	last, _, err := s.service.ListNotifications(s.ctx, s.user, 2, models.FilterAll, second.NextToken)
	s.Require().NoError(err)
	s.Len(last.Notifications, 1)
	s.Empty(last.NextToken, "no token on the final page")

	_, _, err = s.service.ListNotifications(s.ctx, s.user, 2, models.FilterAll, "garbage!")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestClampLimit() {
	s.Equal(DefaultPageSize, ClampLimit(0))
	s.Equal(1, ClampLimit(-4))
	s.Equal(MaxPageSize, ClampLimit(1000))
	s.Equal(7, ClampLimit(7))
}

func (s *ServiceSuite) TestEmptyPageEncodesAsArray() {
	page, _, err := s.service.ListNotifications(s.ctx, s.user, 0, models.FilterAll, "")
	s.Require().NoError(err)
	s.NotNil(page.Notifications)
}

func (s *ServiceSuite) TestAcknowledge() {
	s.dispatch(2)
	page, _, err := s.service.ListNotifications(s.ctx, s.user, 0, models.FilterAll, "")
	s.Require().NoError(err)
	target := page.Notifications[0].ID

	for range 2 {
		n, err := s.service.Acknowledge(s.ctx, s.user, target)
		s.Require().NoError(err, "acknowledge is idempotent")
		s.True(n.Viewed)
	}

	count, _, err := s.service.UnreadCount(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(1, count, "read-your-writes on the unread counter")

	_, err = s.service.Acknowledge(s.ctx, id.UserID(uuid.New()), target)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "another user's notification")

	_, err = s.service.Acknowledge(s.ctx, s.user, id.NewNotificationID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUnreadCountMatchesUnreadListing() {
	s.dispatch(4)
	page, _, err := s.service.ListNotifications(s.ctx, s.user, 0, models.FilterAll, "")
	s.Require().NoError(err)
	_, err = s.service.Acknowledge(s.ctx, s.user, page.Notifications[1].ID)
	s.Require().NoError(err)

	unread, _, err := s.service.ListNotifications(s.ctx, s.user, MaxPageSize, models.FilterUnread, "")
	s.Require().NoError(err)
	count, _, err := s.service.UnreadCount(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(len(unread.Notifications), count)
	s.Equal(3, count)
}

func (s *ServiceSuite) TestAcknowledgeAll() {
	s.dispatch(3)

	updated, err := s.service.AcknowledgeAll(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(3, updated)

	count, _, err := s.service.UnreadCount(s.ctx, s.user)
	s.Require().NoError(err)
	s.Zero(count)

	updated, err = s.service.AcknowledgeAll(s.ctx, s.user)
	s.Require().NoError(err)
	s.Zero(updated)
}

// racingStore inserts a notification once the bulk update has run and
// before AcknowledgeAll returns.
type racingStore struct {
	*store.InMemoryStore
	race func()
}

func (r *racingStore) MarkAllViewed(ctx context.Context, userID id.UserID) (int, error) {
	n, err := r.InMemoryStore.MarkAllViewed(ctx, userID)
	r.race()
	return n, err
}

func (s *ServiceSuite) TestAcknowledgeAllLeavesConcurrentNotificationsUnread() {
	s.dispatch(3)
	racing := &racingStore{InMemoryStore: s.store}
	svc := New(racing)
	racing.race = func() {
		_, err := svc.Dispatch(s.ctx, models.FamilyMembershipReviewed(s.user, id.NewFamilyID(), false))
		s.Require().NoError(err)
	}

	updated, err := svc.AcknowledgeAll(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(3, updated)

	unread, _, err := svc.ListNotifications(s.ctx, s.user, 0, models.FilterUnread, "")
	s.Require().NoError(err)
	s.Require().Len(unread.Notifications, 1)
	s.Equal(models.TypeMembershipDenied, unread.Notifications[0].Type)
}

func (s *ServiceSuite) TestConcurrentAcknowledgeAndDispatch() {
	s.dispatch(20)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.service.AcknowledgeAll(s.ctx, s.user)
		s.NoError(err)
	}()
	go func() {
		defer wg.Done()
		s.dispatch(5)
	}()
	wg.Wait()

	all, err := s.store.List(s.ctx, s.user, models.Query{Limit: 100})
	s.Require().NoError(err)
	s.Len(all, 25)
	for _, n := range all {
		if n.Seq <= 20 {
			s.True(n.Viewed, "notification %d existed before the call", n.Seq)
		}
	}
}
