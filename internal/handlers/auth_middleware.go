package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/services"
)

const (
	contextKeyActor = "actor"
	contextKeyToken = "session_token"
)

// SessionAuthMiddleware authenticates requests against the Redis-backed
// session store via the auth service.
type SessionAuthMiddleware struct {
	authService services.AuthService
}

func NewSessionAuthMiddleware(authService services.AuthService) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{authService: authService}
}

// AuthMiddleware resolves the bearer token into an Actor and aborts with 401
// when the token is missing, malformed, or expired.
func (m *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, newErrorResponse("unauthorized", "missing or malformed authorization header", nil))
			c.Abort()
			return
		}

		session, err := m.authService.ResolveSession(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, newErrorResponse("unauthorized", "invalid or expired session", nil))
			c.Abort()
			return
		}

		c.Set(contextKeyToken, token)
		c.Set(contextKeyActor, services.Actor{
			UserID: session.UserID,
			OrgID:  session.OrgID,
			Email:  session.Email,
			Role:   models.Role(session.Role),
		})
		c.Next()
	}
}

// RequireRoleMiddleware rejects authenticated callers whose role is not in the
// allowed set.
func (m *SessionAuthMiddleware) RequireRoleMiddleware(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, newErrorResponse("unauthorized", "not authenticated", nil))
			c.Abort()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, newErrorResponse("access_denied", "insufficient role", nil))
		c.Abort()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func currentActor(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(contextKeyActor)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}

func sessionToken(c *gin.Context) string {
	return c.GetString(contextKeyToken)
}
