package auth

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"starconquest-server/internal/shared/config"
	"starconquest-server/internal/shared/errors"
)

const CookieName = "session_token"

// CookiePolicy scopes the session cookie to the renderer's site.
type CookiePolicy struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// NewCookiePolicy reads the cookie flags from the auth config. The domain is
// the frontend host, left empty for local development.
func NewCookiePolicy(auth config.AuthConfig, frontendURL string) CookiePolicy {
	return CookiePolicy{
		Domain:   cookieDomain(frontendURL),
		Secure:   auth.CookieSecure,
		SameSite: parseSameSite(auth.CookieSameSite),
	}
}

// SetCookie stores tok in the browser until the token itself expires.
func (s *Service) SetCookie(w http.ResponseWriter, tok Token) {
	c := s.cookie.base()
	c.Value = tok.Value
	c.Expires = tok.ExpiresAt
	c.MaxAge = int(time.Until(tok.ExpiresAt).Seconds())
	if c.MaxAge <= 0 {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// ClearCookie removes the session cookie, e.g. one left over from a session
// that has been reset.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	c := s.cookie.base()
	c.MaxAge = -1
	http.SetCookie(w, c)
}

// TokenFromRequest returns the raw session token carried by r.
func TokenFromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", errors.Unauthorized("session token required")
	}
	return c.Value, nil
}

func (p CookiePolicy) base() *http.Cookie {
	sameSite := p.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: sameSite,
	}
}

func cookieDomain(frontendURL string) string {
	u, err := url.Parse(frontendURL)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.Split(u.Host, ":")[0]
	if host == "localhost" || host == "127.0.0.1" {
		return ""
	}
	return host
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
