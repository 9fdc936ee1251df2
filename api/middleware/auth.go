package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/hasty/pkg/logger"
)

// Authorizer turns a bearer token into the authorized flag.
type Authorizer interface {
	Authorize(token string) (bool, error)
}

// RequireAuth 拒绝没有有效令牌的请求
func RequireAuth(auth Authorizer, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))

		ok, err := auth.Authorize(token)
		if err != nil || !ok {
			logger.FromContext(c.Request.Context(), log).Warn("Request not authorized",
				logger.String("path", c.Request.URL.Path),
				logger.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "Authorization required",
			})
			return
		}

		if token != "" {
			c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.UserKey, "authorized"))
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
