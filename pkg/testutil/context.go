package testutil

import (
	"net/http"

	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/requestcontext"
)

// WithUser marks req as authenticated for userID, as the bearer middleware
// would after validating a token.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}
