package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/config"
	"github.com/transportpass/api/internal/model"
	"github.com/transportpass/api/internal/repository"
	"github.com/transportpass/api/internal/utils"
)

// AuthHandler handles registration, login and the authenticated profile
// endpoint. On success both register and login return a signed access
// token together with the public user fields.
type AuthHandler struct {
	Users *repository.UserRepo
	Cfg   *config.Config
}

func NewAuthHandler(users *repository.UserRepo, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Users: users, Cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userPayload(u model.User) echo.Map {
	return echo.Map{
		"id":             u.ID,
		"name":           u.Name,
		"email":          u.Email,
		"wallet_balance": u.WalletBalance,
		"role":           u.Role,
	}
}

// Register creates a new user account with role 'user' and a zero wallet.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name, email and password are required"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 6 characters"})
	}

	ctx := c.Request().Context()
	id, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email already registered"})
		}
		c.Logger().Error("register: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to register user"})
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		c.Logger().Error("register load: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to register user"})
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		c.Logger().Error("register token: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to register user"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Registration successful",
		"token":   tok.Token,
		"user":    userPayload(u),
	})
}

// Login verifies credentials and issues an access token. A missing account
// and a wrong password return the same message.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
		}
		c.Logger().Error("login: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		c.Logger().Error("login token: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   tok.Token,
		"user":    userPayload(u),
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		c.Logger().Error("me: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load profile"})
	}
	return c.JSON(http.StatusOK, userPayload(u))
}
