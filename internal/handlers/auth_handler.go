package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/services"
)

// AuthHandler handles HTTP requests for authentication and profiles.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)

	protected := authRoutes.Group("", middleware.AuthRequired(h.authService))
	protected.Get("/me", h.HandleMe)
	protected.Put("/profile", h.HandleUpdateProfile)
	protected.Put("/change-password", h.HandleChangePassword)
	protected.Post("/logout", h.HandleLogout)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := h.authService.RegisterUser(&user); err != nil {
		return respondError(c, err, "Could not register user")
	}

	// For security, do not return the password hash
	user.Password = ""
	return respondMessage(c, fiber.StatusCreated, "User registered successfully", fiber.Map{"user": user})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	token, user, err := h.authService.LoginUser(req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "Authentication failed")
	}

	user.Password = ""
	return respondMessage(c, fiber.StatusOK, "Login successful", fiber.Map{
		"token": token,
		"user":  user,
	})
}

// HandleMe returns the authenticated user's account.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not load profile")
	}
	user.Password = ""
	return respondData(c, fiber.StatusOK, fiber.Map{"user": user})
}

// HandleUpdateProfile applies a partial profile update.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req services.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	user, err := h.authService.UpdateProfile(middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err, "Could not update profile")
	}
	user.Password = ""
	return respondMessage(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{"user": user})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// HandleChangePassword verifies the current password and stores the new one.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	if err := h.authService.ChangePassword(middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err, "Could not change password")
	}
	return respondMessage(c, fiber.StatusOK, "Password changed successfully", nil)
}

// HandleLogout acknowledges a logout. Tokens are stateless, so the client
// simply discards its copy.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	return respondMessage(c, fiber.StatusOK, "Logged out successfully", nil)
}
