package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

func serve(v JWTValidator, header string) (*httptest.ResponseRecorder, id.UserID) {
	var seen id.UserID
	h := RequireAuth(v, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.UserID(r.Context())
		}))
	req := httptest.NewRequest(http.MethodGet, "/family/mine", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, seen
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()

	t.Run("valid token sets user", func(t *testing.T) {
		rr, seen := serve(stubValidator{claims: &JWTClaims{UserID: userID.String()}}, "Bearer good")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, id.UserID(userID), seen)
	})

	t.Run("profile claims reach the context", func(t *testing.T) {
		var ident requestcontext.Identity
		h := RequireAuth(stubValidator{claims: &JWTClaims{UserID: userID.String(), Email: "ann@example.com", Name: "Ann Smith", Nickname: "Annie"}},
			slog.New(slog.NewTextHandler(io.Discard, nil)))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ident = requestcontext.IdentityFrom(r.Context())
			}))
		req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
		req.Header.Set("Authorization", "Bearer good")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, requestcontext.Identity{Email: "ann@example.com", Name: "Ann Smith", Nickname: "Annie"}, ident)
	})

	t.Run("missing header", func(t *testing.T) {
		rr, seen := serve(stubValidator{}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`, rr.Body.String())
		assert.True(t, seen.IsNil())
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rr, _ := serve(stubValidator{}, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rr, _ := serve(stubValidator{err: errors.New("bad signature")}, "Bearer bad")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Invalid or expired token"}`, rr.Body.String())
	})

	t.Run("subject is not a uuid", func(t *testing.T) {
		rr, _ := serve(stubValidator{claims: &JWTClaims{UserID: "not-a-uuid"}}, "Bearer odd")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
