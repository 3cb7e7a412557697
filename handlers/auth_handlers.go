package handlers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"salesforecast/database"
	"salesforecast/middleware"
	"salesforecast/models"
	"salesforecast/utils"
)

// TokenTTL is how long an access token stays valid.
const TokenTTL = 30 * time.Minute

// HandleRegister creates a user account with the default role.
// POST /api/v1/auth/register
func (h *Handler) HandleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Cannot parse request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Missing required fields (username, email, password)")
	}
	if len(req.Username) > 50 {
		return errorResponse(c, fiber.StatusBadRequest, "Username must be at most 50 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || len(req.Email) > 100 {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid email address")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger().Error("error hashing password", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Could not process password")
	}

	user, err := h.Users.Create(c.UserContext(), req.Username, req.Email, string(hashedPassword))
	if err != nil {
		if errors.Is(err, database.ErrDuplicateUser) {
			return errorResponse(c, fiber.StatusConflict, "Username or email already registered")
		}
		h.logger().Error("error creating user", zap.String("username", req.Username), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Could not create user")
	}
	if err := h.Users.AssignRole(c.UserContext(), user.ID, utils.RoleUser); err != nil {
		h.logger().Error("error assigning default role", zap.Int64("user_id", user.ID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Could not create user")
	}
	user.Roles = append(user.Roles, utils.RoleUser)

	h.logger().Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return successResponse(c, fiber.StatusCreated, user)
}

// HandleLogin authenticates a user and returns a JWT token, also set as an
// HTTP-only cookie.
// POST /api/v1/auth/login
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Cannot parse request body")
	}

	user, err := h.Users.GetByUsername(c.UserContext(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		h.logger().Error("database error during login", zap.String("username", req.Username), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Database error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, expiresAt, err := middleware.IssueToken(h.JWTSecret, user, TokenTTL)
	if err != nil {
		h.logger().Error("error creating JWT", zap.Int64("user_id", user.ID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Could not sign token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"accessToken": token, "expiresAt": expiresAt, "user": user})
}

// HandleLogout clears the access token cookie.
// POST /api/v1/auth/logout
func (h *Handler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"status": "success", "message": "Logged out"})
}

// HandleMe returns the account behind the current token.
// GET /api/v1/auth/me
func (h *Handler) HandleMe(c *fiber.Ctx) error {
	claims, err := middleware.ExtractClaims(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.Users.GetByUsername(c.UserContext(), claims.Username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return errorResponse(c, fiber.StatusUnauthorized, "User no longer exists")
		}
		h.logger().Error("error loading current user", zap.String("username", claims.Username), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Database error")
	}
	return successResponse(c, fiber.StatusOK, user)
}
