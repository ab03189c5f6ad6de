package push

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/ports"
)

// originChecker accepts requests without an Origin header (non-browser
// clients), any origin when "*" is configured, and otherwise only the listed
// origins.
func (h *Hub) originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		h.logger.LogSecurityEvent("ws_rejected", "", r.RemoteAddr, map[string]interface{}{
			"reason": "origin not allowed",
			"origin": origin,
		})
		return false
	}
}

// TokenValidator resolves a bearer token to its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*ports.Claims, error)
}

// ServeWS returns the handler for GET /ws?token=. Anonymous and invalid
// tokens are rejected before the connection is upgraded, and browsers may
// only connect from allowedOrigins.
func (h *Hub) ServeWS(auth TokenValidator, allowedOrigins []string) echo.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originChecker(allowedOrigins),
	}

	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			h.logger.LogSecurityEvent("ws_rejected", "", c.RealIP(), map[string]interface{}{
				"reason": "token missing",
			})
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "token is required"})
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			h.logger.LogSecurityEvent("ws_rejected", "", c.RealIP(), map[string]interface{}{
				"reason": "invalid token",
			})
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			h.logger.Errorw("Failed to upgrade connection",
				"user_id", claims.UserID,
				"error", err,
			)
			return nil
		}

		h.Attach(conn, ports.PushTopic(claims.UserID))
		return nil
	}
}
