package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/natuspati/jeopardy/internal/auth"
)

const authCookieName = "auth_token"

// tokenFromRequest reads the auth token from the auth_token cookie, falling
// back to the token query parameter for clients that cannot set cookies.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(authCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// authenticate resolves the caller, writing 401/403 and returning false on failure.
func (s *APIServer) authenticate(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	id, err := s.Issuer.AuthenticateJWT(token)
	if err != nil {
		s.Logger.Debugf("rejected token: %v", err)
		http.Error(w, "invalid token", http.StatusForbidden)
		return auth.Identity{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
