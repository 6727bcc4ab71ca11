package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/response"
)

// RouteGuard enforces the route-access table for the authenticated role.
// Browser navigations are redirected home on denial; API clients get 403.
func RouteGuard(table *authz.RouteTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.SessionClaims)

		if table.Allowed(c.Request.URL.Path, claims.Role) {
			c.Next()
			return
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
