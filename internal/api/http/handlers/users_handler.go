package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/dto"
	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/service"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// UsersHandler exposes account and session endpoints.
type UsersHandler struct {
	auth    *service.AuthService
	cookies *auth.CookieJar
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, cookies *auth.CookieJar) *UsersHandler {
	return &UsersHandler{auth: authService, cookies: cookies}
}

// Register handles POST /users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	user, session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	h.cookies.Set(c, session)

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// Login handles POST /users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	user, session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookies.Set(c, session)

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    dto.NewUserResponse(user),
	})
}

// Logout handles GET /users/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext()); err != nil {
		return err
	}
	h.cookies.Clear(c)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// LoggedIn handles GET /users/loggedin. It never fails on a missing or bad
// session.
func (h *UsersHandler) LoggedIn(c *fiber.Ctx) error {
	user, ok, err := h.auth.CheckSession(c.UserContext(), h.cookies.Token(c))
	if err != nil {
		return err
	}
	resp := dto.LoggedInResponse{LoggedIn: ok}
	if ok {
		u := dto.NewUserResponse(user)
		resp.User = &u
	}
	return c.JSON(resp)
}

// Profile handles GET /users/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.NotAuthorizedMessage)
	}
	user, err := h.auth.GetProfile(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Update handles PUT /users/update.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.NotAuthorizedMessage)
	}
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	user, err := h.auth.UpdateProfile(c.UserContext(), principal.User.ID, service.ProfileUpdate{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// ChangePassword handles PUT /users/changepassword.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.NotAuthorizedMessage)
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	change := service.PasswordChange{OldPassword: req.OldPassword, NewPassword: req.NewPassword}
	if err := h.auth.ChangePassword(c.UserContext(), principal.User.ID, change); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
