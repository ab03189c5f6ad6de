package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// TokenValidator resolves a bearer token to its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*ports.Claims, error)
}

// Authenticate requires a valid "Authorization: Bearer <token>" header and
// stores the caller's id in the context.
func Authenticate(auth TokenValidator, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := auth.ValidateToken(parts[1])
			if err != nil {
				log.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error":    err.Error(),
					"endpoint": c.Request().URL.Path,
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxUsername, claims.Username)
			return next(c)
		}
	}
}

func getUserIDFromContext(c echo.Context) uuid.UUID {
	if id, ok := c.Get(ctxUserID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
