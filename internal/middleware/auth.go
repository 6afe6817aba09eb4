package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/handler"
	"github.com/jwalitptl/eservice-api/internal/service/rbac"
	"github.com/jwalitptl/eservice-api/pkg/auth"
)

// Authorizer decides whether a user may call a route.
type Authorizer interface {
	CheckAction(ctx context.Context, userID uuid.UUID, method, path string) rbac.Decision
}

type AuthMiddleware struct {
	tokens     auth.JWTService
	authorizer Authorizer
}

func NewAuthMiddleware(tokens auth.JWTService, authorizer Authorizer) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:     tokens,
		authorizer: authorizer,
	}
}

// Authenticate reads the bearer token and stores the user id on the context.
// A missing or invalid token leaves the request anonymous; Authorize decides.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("ignoring invalid token")
			c.Next()
			return
		}

		handler.SetUserID(c, claims.UserID)
		c.Next()
	}
}

// Authorize checks the request against the route table.
func (m *AuthMiddleware) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := handler.UserID(c)
		d := m.authorizer.CheckAction(c.Request.Context(), userID, c.Request.Method, c.Request.URL.Path)
		if !d.Allowed {
			log.Debug().
				Str("user_id", userID.String()).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("reason", d.Message).
				Msg("access denied")
			c.AbortWithStatusJSON(d.StatusCode, handler.NewErrorResponse(d.Message))
			return
		}
		if d.Actor != nil {
			handler.SetActor(c, d.Actor)
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
