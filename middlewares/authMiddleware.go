package middlewares

import (
	"net/http"
	"os"
	"strings"

	"github.com/arrematai/auditor_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware guards the audit trigger endpoints with a single operator
// token, checked against AUDIT_TOKEN_BCRYPT_HASH. An empty hash leaves the
// API open (local/dev convenience, same posture the marketplace uses for
// internal ops endpoints).
func AuthMiddleware() gin.HandlerFunc {
	hash := strings.TrimSpace(os.Getenv("AUDIT_TOKEN_BCRYPT_HASH"))
	return func(c *gin.Context) {
		if hash == "" {
			c.Next()
			return
		}

		auth := c.Request.Header.Get("Authorization")
		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		token := auth[len(bearer):]

		if err := utils.CompareToken(hash, token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
