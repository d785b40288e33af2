package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/domain"
)

// CookieJar carries session tokens in an http-only cookie.
type CookieJar struct {
	name   string
	secure string
}

// NewCookieJar builds a jar from cookie settings.
func NewCookieJar(cfg config.CookieConfig) *CookieJar {
	name := cfg.Name
	if name == "" {
		name = "token"
	}
	return &CookieJar{name: name, secure: cfg.Secure}
}

// Name returns the cookie name.
func (j *CookieJar) Name() string {
	return j.name
}

// Token returns the raw session token sent by the client, if any.
func (j *CookieJar) Token(c *fiber.Ctx) string {
	return c.Cookies(j.name)
}

// Set delivers the session token to the client.
func (j *CookieJar) Set(c *fiber.Ctx, session *domain.Session) {
	secure := j.isSecure(c)
	c.Cookie(&fiber.Cookie{
		Name:     j.name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	})
}

// Clear expires the session cookie on the client.
func (j *CookieJar) Clear(c *fiber.Ctx) {
	secure := j.isSecure(c)
	c.Cookie(&fiber.Cookie{
		Name:     j.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	})
}

func (j *CookieJar) isSecure(c *fiber.Ctx) bool {
	switch j.secure {
	case config.CookieSecureAlways:
		return true
	case config.CookieSecureNever:
		return false
	default:
		return c.Protocol() == "https"
	}
}

// Browsers drop SameSite=None cookies that are not Secure.
func sameSite(secure bool) string {
	if secure {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}
