package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-companion/internal/http/response"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

type SessionState interface {
	Authenticated() bool
}

type AuthMiddleware struct {
	log     *logger.Logger
	session SessionState
}

func NewAuthMiddleware(log *logger.Logger, session SessionState) *AuthMiddleware {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), session: session}
}

// RequireAuth rejects requests while the companion is signed out. Nothing is forwarded to the
// backend in that state.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.session == nil || !am.session.Authenticated() {
			am.log.Debug("rejecting request while signed out", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorEnvelope{
				Error: response.APIError{Message: "not signed in", Code: "unauthorized", Redirect: "/login"},
			})
			return
		}
		c.Next()
	}
}
