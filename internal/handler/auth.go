package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tourbooking/internal/config"
	"tourbooking/internal/utils"
)

// AuthHandler issues admin session tokens. The dashboard has a single
// operator account whose credentials live in the environment, so there
// is no user table behind this.
type AuthHandler struct {
	Cfg config.Config
}

// NewAuthHandler constructs an AuthHandler bound to the loaded config.
func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

// Login handles POST /v1/auth/login. The body carries username and
// password; the password is compared against the bcrypt hash from the
// environment. On success an HS256 token with the admin role is
// returned. Wrong credentials always yield the same 401 so the
// response does not reveal which part was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Username == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	if body.Username != h.Cfg.AdminUser || !utils.VerifyPassword(h.Cfg.AdminPassHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, body.Username, "admin", h.Cfg.AdminTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp.Format(time.RFC3339),
	})
}
