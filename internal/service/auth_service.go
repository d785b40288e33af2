package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// InvalidCredentialsMessage is shared by every login failure.
const InvalidCredentialsMessage = "Invalid credentials"

// RegisterInput describes a new account.
type RegisterInput struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,simple_email"`
	Password  string `json:"password" validate:"required,min=6,max=15"`
	Phone     string `json:"phone" validate:"required,phone10"`
	Bio       string `json:"bio" validate:"max=200"`
	AvatarURL string `json:"avatarUrl"`
}

// ProfileUpdate is a partial profile change. Nil fields are left alone.
type ProfileUpdate struct {
	Name      *string `json:"name" validate:"omitnil,min=1"`
	Email     *string `json:"email" validate:"omitnil,simple_email"`
	Phone     *string `json:"phone" validate:"omitnil,phone10"`
	Bio       *string `json:"bio" validate:"omitnil,max=200"`
	AvatarURL *string `json:"avatarUrl"`
}

// PasswordChange carries the old and new plaintext passwords.
type PasswordChange struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=15"`
}

// AuthService coordinates registration, login and profile flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Register creates an account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.Session, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := validateStruct(input); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Phone:        input.Phone,
		Bio:          orDefault(input.Bio, domain.DefaultBio),
		AvatarURL:    orDefault(input.AvatarURL, domain.DefaultAvatarURL),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// a concurrent registration can still win the unique index
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, emailTaken()
		}
		return nil, nil, apperrors.NewInternalError(err)
	}

	session, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, session, nil
}

// Login authenticates by email and password. Unknown email and wrong password
// produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, apperrors.NewAuthError(InvalidCredentialsMessage)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("login failed", zap.String("reason", "unknown email"))
			return nil, nil, apperrors.NewAuthError(InvalidCredentialsMessage)
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Debug("login failed", zap.String("reason", "password mismatch"), zap.String("user_id", user.ID))
		return nil, nil, apperrors.NewAuthError(InvalidCredentialsMessage)
	}

	session, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return user, session, nil
}

// Logout is a no-op for stateless tokens; the transport clears the cookie.
func (s *AuthService) Logout(_ context.Context) error {
	return nil
}

// GetProfile returns the account for userID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return user, nil
}

// UpdateProfile applies a partial update. Passwords are never touched here.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	update.Name = trimPtr(update.Name)
	update.Phone = trimPtr(update.Phone)
	update.AvatarURL = trimPtr(update.AvatarURL)
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		update.Email = &email
	}
	if err := validateStruct(update); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	if update.Email != nil && *update.Email != user.Email {
		if _, err := s.users.GetByEmail(ctx, *update.Email); err == nil {
			return nil, emailTaken()
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		user.Email = *update.Email
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Bio != nil {
		user.Bio = orDefault(*update.Bio, domain.DefaultBio)
	}
	if update.AvatarURL != nil {
		user.AvatarURL = orDefault(*update.AvatarURL, domain.DefaultAvatarURL)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, mapUserErr(err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing a fresh hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, change PasswordChange) error {
	if err := validateStruct(change); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapUserErr(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, change.OldPassword); err != nil {
		return apperrors.NewAuthError("Old password is incorrect")
	}

	hash, err := auth.HashPassword(change.NewPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return mapUserErr(err)
	}
	s.logger.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// CheckSession reports whether token maps to a live session and, if so, whose.
func (s *AuthService) CheckSession(ctx context.Context, token string) (*domain.User, bool, error) {
	user, err := auth.ResolveSession(ctx, s.tokenMgr, s.users, token)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewInternalError(err)
	}
	return user, true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func emailTaken() error {
	return apperrors.NewConflict("This email is already registered", map[string]any{"email": "already registered"})
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("User", nil)
	}
	return apperrors.NewInternalError(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
