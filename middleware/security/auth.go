package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys populated by the middleware for downstream handlers.
const (
	CtxTokenKey  = "authorization"
	CtxUserIDKey = "userId"
)

type Options struct {
	HeaderToken               string
	EnableAuthorizationBearer bool
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               CtxTokenKey,
		EnableAuthorizationBearer: true,
	}
}

// Middleware extracts the bearer token, verifies it and stores the
// authenticated user id in the request context.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(CtxTokenKey, token)
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}
