// Package auth issues the tokens that bind a browser to the running session.
package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"starconquest-server/internal/shared/errors"
)

const MinSecretLength = 32

type Claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Token is a signed session token and the moment it stops being accepted.
type Token struct {
	Value     string
	SessionID string
	ExpiresAt time.Time
}

type Service struct {
	secret     []byte
	expiration time.Duration
	cookie     CookiePolicy
	logger     *slog.Logger
}

type Option func(*Service)

// WithCookiePolicy scopes the cookies SetCookie writes. Without it the cookie
// is host-only, lax and not secure.
func WithCookiePolicy(p CookiePolicy) Option {
	return func(s *Service) { s.cookie = p }
}

func NewService(secret string, expiration time.Duration, logger *slog.Logger, opts ...Option) (*Service, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d characters long", MinSecretLength)
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	logger.Debug("Initializing session token service", "expiration", expiration)

	s := &Service{
		secret:     []byte(secret),
		expiration: expiration,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for sessionID. The token stops being useful as soon as
// the session is reset, whatever its expiry.
func (s *Service) Issue(sessionID string) (Token, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration).Truncate(time.Second)
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   "session_" + sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Token{}, errors.WrapInternal("failed to sign session token", err)
	}
	return Token{Value: signed, SessionID: sessionID, ExpiresAt: expiresAt.UTC()}, nil
}

func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, errors.WrapUnauthorized("invalid session token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, errors.Unauthorized("invalid session token")
	}
	return claims, nil
}
