package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// NotAuthorizedMessage is the single message returned for every rejected session.
const NotAuthorizedMessage = "Not authorized"

// ErrNoSession is returned by Resolve when the token is missing, invalid,
// expired, or points to a user that no longer exists.
var ErrNoSession = errors.New("no valid session")

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// SessionMiddleware validates session cookies and loads principals.
type SessionMiddleware struct {
	tokens  *TokenManager
	users   repository.UserRepository
	cookies *CookieJar
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, users repository.UserRepository, cookies *CookieJar) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, users: users, cookies: cookies}
}

// Handle enforces authentication for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	user, err := ResolveSession(c.UserContext(), m.tokens, m.users, m.cookies.Token(c))
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return apperrors.NewUnauthorized(NotAuthorizedMessage)
		}
		return apperrors.NewInternalError(err)
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// ResolveSession maps a raw token to its user. Every verification failure
// collapses into ErrNoSession; only store faults come back as other errors.
func ResolveSession(ctx context.Context, tokens *TokenManager, users repository.UserRepository, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims, err := tokens.Parse(token)
	if err != nil {
		return nil, ErrNoSession
	}
	user, err := users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return user, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.User != nil
}
