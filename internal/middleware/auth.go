package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"starconquest-server/internal/auth"
	"starconquest-server/internal/shared/errors"
	"starconquest-server/internal/shared/response"
)

type contextKey string

const SessionContextKey contextKey = "session"

// SessionMiddleware admits requests carrying a token for the session that is
// running right now. current is called on every request.
type SessionMiddleware struct {
	tokens  *auth.Service
	current func() string
}

func NewSessionMiddleware(tokens *auth.Service, current func() string) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, current: current}
}

func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "session",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		token, err := auth.TokenFromRequest(r)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}

		claims, err := m.tokens.Validate(token)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}

		if claims.SessionID != m.current() {
			logger.Debug("Token belongs to a previous session", "token_session_id", claims.SessionID)
			m.tokens.ClearCookie(w)
			response.Error(w, r, logger, errors.Unauthorized("session has ended"))
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) HandlerFunc(next http.HandlerFunc) http.Handler {
	return m.Middleware(next)
}

func GetSessionFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(SessionContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
