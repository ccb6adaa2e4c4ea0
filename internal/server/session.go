package server

import (
	"context"
	"net/http"

	"github.com/joseph-ayodele/mediscan/internal/chat"
	"github.com/joseph-ayodele/mediscan/internal/common"
)

// SessionCookie carries the signed session token.
const SessionCookie = "mediscan_session"

type sessionKey struct{}

// withSession resolves the caller's chat session from the cookie, starting a
// new one when the cookie is missing, invalid or refers to a swept session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			if parsed, err := s.tokens.Parse(c.Value); err == nil {
				id = parsed
			} else {
				s.logger.Debug("http.session.invalid_token", "req_id", common.RequestIDFromContext(r.Context()), "err", err)
			}
		}

		sess, created := s.sessions.GetOrCreate(id)
		if created {
			token, err := s.tokens.Issue(sess.ID)
			if err != nil {
				writeError(w, "failed to start session", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.SecureCookie,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(s.tokens.TTL().Seconds()),
			})
			if s.metrics != nil {
				s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
			}
		}

		ctx := common.WithSessionID(r.Context(), sess.ID)
		ctx = context.WithValue(ctx, sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *chat.Session {
	sess, _ := ctx.Value(sessionKey{}).(*chat.Session)
	return sess
}
