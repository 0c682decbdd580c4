package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireBearer.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ClaimsFromContext(c); !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if !HasRole(c, required) {
			abortJSON(c, http.StatusForbidden, "forbidden", required+" role required")
			return
		}
		c.Next()
	}
}

// RequirePageRole is the HTML variant: signed-in users without the role see
// the access denied page instead of JSON.
func (m *AuthMiddleware) RequirePageRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ClaimsFromContext(c); !ok {
			RedirectToLogin(c)
			return
		}
		if !HasRole(c, required) {
			c.Redirect(http.StatusFound, "/Home/Error?status=403")
			c.Abort()
			return
		}
		c.Next()
	}
}
