package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/genesisvoice/internal/session"
)

type sessionContextKey struct{}

// withSession gives every browser a stable opaque id in a cookie and attaches
// the matching session to the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(s.cfg.SessionCookieName); err == nil {
			id = strings.TrimSpace(c.Value)
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			s.setSessionCookie(w, id)
			s.metrics.SessionEvent("cookie_issued")
		}
		sess := session.New(s.store, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sess)))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionCookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.cfg.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// rotateSession moves the browser to a new, empty session id.
func (s *Server) rotateSession(w http.ResponseWriter) {
	s.setSessionCookie(w, uuid.NewString())
	s.metrics.SessionEvent("rotated")
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionContextKey{}).(*session.Session)
	return sess
}

type sessionInfoResponse struct {
	Authenticated bool   `json:"authenticated"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	resp := sessionInfoResponse{Authenticated: sess.IsAuthenticated(r.Context())}
	if resp.Authenticated {
		if user, ok, err := sess.User(r.Context()); err == nil && ok {
			resp.Name = user.DisplayName()
			resp.Email = user.Email
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, resp)
}
