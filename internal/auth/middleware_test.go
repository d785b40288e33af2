package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

type sessionFixture struct {
	app    *fiber.App
	tokens *TokenManager
	users  *repository.MemoryUserRepository
	user   *domain.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	user := &domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Phone: "5550001111"}
	require.NoError(t, users.Create(context.Background(), user))

	tokens := NewTokenManager("secret")
	jar := NewCookieJar(config.CookieConfig{Secure: config.CookieSecureNever})
	mw := NewSessionMiddleware(tokens, users, jar)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"message": de.Message})
		},
	})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(principal.User.ID)
	})
	app.Get("/login", func(c *fiber.Ctx) error {
		session, err := tokens.Issue(user.ID)
		if err != nil {
			return err
		}
		jar.Set(c, session)
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/logout", func(c *fiber.Ctx) error {
		jar.Clear(c)
		return c.SendStatus(http.StatusNoContent)
	})

	return &sessionFixture{app: app, tokens: tokens, users: users, user: user}
}

func (f *sessionFixture) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSessionMiddlewareAcceptsValidCookie(t *testing.T) {
	f := newSessionFixture(t)
	session, err := f.tokens.Issue(f.user.ID)
	require.NoError(t, err)

	resp := f.get(t, "/me", session.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionMiddlewareRejectsUniformly(t *testing.T) {
	f := newSessionFixture(t)
	foreign, err := NewTokenManager("other").Issue(f.user.ID)
	require.NoError(t, err)
	orphan, err := f.tokens.Issue("3f1c2a9e-0000-4000-8000-000000000000")
	require.NoError(t, err)

	cases := map[string]string{
		"missing":      "",
		"garbage":      "abc.def.ghi",
		"foreign key":  foreign.Token,
		"unknown user": orphan.Token,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			resp := f.get(t, "/me", token)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSessionMiddlewareRejectsDeletedUser(t *testing.T) {
	f := newSessionFixture(t)
	session, err := f.tokens.Issue(f.user.ID)
	require.NoError(t, err)
	require.NoError(t, f.users.Delete(context.Background(), f.user.ID))

	resp := f.get(t, "/me", session.Token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCookieJarSetAndClear(t *testing.T) {
	f := newSessionFixture(t)

	resp := f.get(t, "/login", "")
	header := resp.Header.Get(fiber.HeaderSetCookie)
	assert.True(t, strings.HasPrefix(header, "token="))
	assert.Contains(t, strings.ToLower(header), "httponly")
	assert.Contains(t, strings.ToLower(header), "samesite=lax")
	assert.NotContains(t, strings.ToLower(header), "secure")

	resp = f.get(t, "/logout", "")
	header = resp.Header.Get(fiber.HeaderSetCookie)
	assert.True(t, strings.HasPrefix(header, "token=;"), header)
	assert.Contains(t, header, "1970")
}

func TestCookieJarSecureAlways(t *testing.T) {
	jar := NewCookieJar(config.CookieConfig{Name: "sid", Secure: config.CookieSecureAlways})
	assert.Equal(t, "sid", jar.Name())

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		jar.Set(c, &domain.Session{Token: "tok"})
		return nil
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	header := strings.ToLower(resp.Header.Get(fiber.HeaderSetCookie))
	assert.Contains(t, header, "sid=tok")
	assert.Contains(t, header, "secure")
	assert.Contains(t, header, "samesite=none")
}
