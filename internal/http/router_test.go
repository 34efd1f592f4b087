package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"famhelpdesk/internal/consistency"
	jwttoken "famhelpdesk/internal/jwt_token"
	membershipHandler "famhelpdesk/internal/membership/handler"
	"famhelpdesk/internal/membership/models"
	membershipService "famhelpdesk/internal/membership/service"
	familystore "famhelpdesk/internal/membership/store/family"
	groupstore "famhelpdesk/internal/membership/store/group"
	notificationHandler "famhelpdesk/internal/notification/handler"
	notificationModels "famhelpdesk/internal/notification/models"
	notificationService "famhelpdesk/internal/notification/service"
	notificationStore "famhelpdesk/internal/notification/store"
	profileHandler "famhelpdesk/internal/profile/handler"
	profileModels "famhelpdesk/internal/profile/models"
	profileService "famhelpdesk/internal/profile/service"
	profilestore "famhelpdesk/internal/profile/store"
	"famhelpdesk/internal/storage"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/audit/publisher"
	request "famhelpdesk/pkg/platform/middleware/request"
	auditmemory "famhelpdesk/pkg/platform/audit/store/memory"
	"famhelpdesk/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	router http.Handler
	jwt    *jwttoken.JWTService
	owner  id.UserID
	member id.UserID
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := storage.NewMemoryDB()
	layer := consistency.New(consistency.NewMemoryVersions(), consistency.WithLogger(logger))

	notifications := notificationService.New(notificationStore.NewInMemoryStore(db),
		notificationService.WithLogger(logger),
		notificationService.WithConsistency(layer),
	)
	auditPublisher := publisher.New(auditmemory.NewInMemoryStore(db))
	membership := membershipService.New(
		familystore.NewInMemoryStore(db),
		groupstore.NewInMemoryStore(db),
		db,
		notifications,
		membershipService.WithLogger(logger),
		membershipService.WithAuditPublisher(auditPublisher),
		membershipService.WithConsistency(layer),
	)
	profiles := profileHandler.New(profileService.New(profilestore.NewInMemoryStore(db), db, notifications,
		profileService.WithLogger(logger),
		profileService.WithAuditPublisher(auditPublisher),
		profileService.WithConsistency(layer),
	), logger)

	s.jwt = jwttoken.NewJWTService("router-test-key", "", "")
	s.router = NewRouter(Config{
		Logger:    logger,
		Validator: jwttoken.NewJWTServiceAdapter(s.jwt),
		HealthChecks: map[string]HealthCheck{
			"memory": func(context.Context) error { return nil },
		},
		AuthMiddlewares: []func(http.Handler) http.Handler{profiles.EnsureProfile},
	},
		membershipHandler.New(membership, logger),
		notificationHandler.New(notifications, logger),
		profiles,
	)
	s.owner = id.UserID(uuid.New())
	s.member = id.UserID(uuid.New())
}

func (s *RouterSuite) authorize(req *http.Request, userID id.UserID) *http.Request {
	token, err := s.jwt.GenerateAccessToken(uuid.UUID(userID), "", time.Hour)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (s *RouterSuite) do(userID id.UserID, method, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	} else {
		req = testutil.NewRequest(s.T(), method, path)
	}
	return testutil.DoRequest(s.router, s.authorize(req, userID))
}

func (s *RouterSuite) createFamily() id.FamilyID {
	rr := s.do(s.owner, http.MethodPost, "/family", models.CreateFamilyRequest{Name: "Smith"})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.MyFamily](s.T(), rr)
	return created.Family.ID
}

func (s *RouterSuite) TestHealthAndMetricsAreOpen() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")
	s.NotEmpty(rr.Header().Get(request.HeaderRequestID))

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *RouterSuite) TestHealthReportsFailingDependency() {
	router := NewRouter(Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		HealthChecks: map[string]HealthCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		},
	})
	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	s.NotContains(rr.Body.String(), "connection refused")
}

func (s *RouterSuite) TestDomainRoutesRequireToken() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/family/mine"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")

	req := testutil.NewRequest(s.T(), http.MethodGet, "/notifications")
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *RouterSuite) TestApprovalIsVisibleOnTheNextRead() {
	familyID := s.createFamily()
	base := "/membership/" + familyID.String()

	rr := s.do(s.member, http.MethodGet, "/family/mine", nil)
	testutil.AssertStatusOK(s.T(), rr)
	s.JSONEq("[]", rr.Body.String())

	rr = s.do(s.member, http.MethodPost, base+"/request", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = s.do(s.owner, http.MethodGet, base+"/requests", nil)
	testutil.AssertStatusOK(s.T(), rr)
	pending := testutil.UnmarshalResponse[[]models.FamilyMembership](s.T(), rr)
	s.Require().Len(*pending, 1)
	s.Equal(s.member, (*pending)[0].UserID)

	rr = s.do(s.owner, http.MethodPut, base+"/review", map[string]any{"target_user_id": s.member, "approve": true})
	testutil.AssertStatusOK(s.T(), rr)

	rr = s.do(s.member, http.MethodGet, "/family/mine", nil)
	testutil.AssertStatusOK(s.T(), rr)
	mine := testutil.UnmarshalResponse[[]models.MyFamily](s.T(), rr)
	s.Require().Len(*mine, 1)
	s.Equal(models.StatusMember, (*mine)[0].Membership.Status)

	rr = s.do(s.member, http.MethodGet, "/notifications", nil)
	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[notificationModels.Page](s.T(), rr)
	s.Require().Len(page.Notifications, 2)
	s.ElementsMatch(
		[]notificationModels.Type{notificationModels.TypeMembershipApproved, notificationModels.TypeWelcome},
		[]notificationModels.Type{page.Notifications[0].Type, page.Notifications[1].Type},
	)

	rr = s.do(s.member, http.MethodGet, base+"/members", nil)
	testutil.AssertStatusOK(s.T(), rr)
	members := testutil.UnmarshalResponse[[]models.FamilyMembership](s.T(), rr)
	s.Len(*members, 2)
}

func (s *RouterSuite) TestStaleETagIsRefreshedAfterWrite() {
	familyID := s.createFamily()

	rr := s.do(s.owner, http.MethodGet, "/notifications/unread", nil)
	testutil.AssertStatusOK(s.T(), rr)
	etag := testutil.AssertWeakETag(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "unread_count", float64(2))

	req := s.authorize(testutil.NewConditionalRequest(s.T(), "/notifications/unread", etag), s.owner)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNotModified)

	rr = s.do(s.member, http.MethodPost, "/membership/"+familyID.String()+"/request", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	req = s.authorize(testutil.NewConditionalRequest(s.T(), "/notifications/unread", etag), s.owner)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	s.NotEqual(etag, rr.Header().Get("ETag"))
	testutil.AssertJSONContains(s.T(), rr, "unread_count", float64(3))

	rr = s.do(s.owner, http.MethodPut, "/notifications/acknowledge-all", nil)
	testutil.AssertStatusOK(s.T(), rr)

	rr = s.do(s.owner, http.MethodGet, "/notifications/unread", nil)
	testutil.AssertJSONContains(s.T(), rr, "unread_count", float64(0))
}

func (s *RouterSuite) TestGroupFlowOverHTTP() {
	familyID := s.createFamily()
	base := "/membership/" + familyID.String()
	s.do(s.member, http.MethodPost, base+"/request", nil)
	s.do(s.owner, http.MethodPut, base+"/review", map[string]any{"target_user_id": s.member, "approve": true})

	rr := s.do(s.owner, http.MethodPost, "/group", models.CreateGroupRequest{FamilyID: familyID, Name: "Kids"})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	group := testutil.UnmarshalResponse[models.MyGroup](s.T(), rr)
	groupBase := base + "/" + group.Group.ID.String()

	rr = s.do(s.owner, http.MethodPost, groupBase+"/members", models.AddMemberRequest{TargetUserID: s.member})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = s.do(s.member, http.MethodGet, "/group/mine", nil)
	testutil.AssertStatusOK(s.T(), rr)
	mine := testutil.UnmarshalResponse[[]models.MyGroup](s.T(), rr)
	s.Require().Len(*mine, 1)
	s.False((*mine)[0].Membership.IsAdmin)

	rr = s.do(s.member, http.MethodDelete, groupBase+"/members/"+s.member.String(), nil)
	testutil.AssertStatusOK(s.T(), rr)

	rr = s.do(s.member, http.MethodGet, "/group/mine", nil)
	s.JSONEq("[]", rr.Body.String())

	rr = s.do(s.member, http.MethodDelete, "/group/"+familyID.String()+"/"+group.Group.ID.String(), nil)
	testutil.AssertStatus(s.T(), rr, http.StatusForbidden)

	rr = s.do(s.owner, http.MethodDelete, "/group/"+familyID.String()+"/"+group.Group.ID.String(), nil)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}

func (s *RouterSuite) TestFirstRequestCreatesProfileAndWelcomes() {
	rr := s.do(s.member, http.MethodGet, "/user/profile", nil)
	testutil.AssertStatusOK(s.T(), rr)
	profile := testutil.UnmarshalResponse[profileModels.Profile](s.T(), rr)
	s.Equal(s.member, profile.UserID)
	s.Equal(profileModels.UnknownName, profile.DisplayName)

	rr = s.do(s.member, http.MethodPut, "/user/profile", map[string]any{"display_name": "Jo"})
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "display_name", "Jo")

	rr = s.do(s.owner, http.MethodGet, "/user/profile/"+s.member.String(), nil)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "display_name", "Jo")

	rr = s.do(s.member, http.MethodGet, "/notifications", nil)
	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[notificationModels.Page](s.T(), rr)
	s.Require().Len(page.Notifications, 1)
	s.Equal(notificationModels.TypeWelcome, page.Notifications[0].Type)
}
