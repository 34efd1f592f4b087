package consistency

import (
	"net/http"

	"famhelpdesk/pkg/platform/httputil"
)

// WriteJSON writes v with the stamp's ETag, or 304 Not Modified when the
// request's If-None-Match already names the stamp.
func WriteJSON(w http.ResponseWriter, r *http.Request, stamp Stamp, v any) {
	if tag := stamp.ETag(); tag != "" {
		w.Header().Set("ETag", tag)
		w.Header().Set("Cache-Control", "private, no-cache")
	}
	if stamp.MatchesIfNoneMatch(r.Header.Get("If-None-Match")) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}
