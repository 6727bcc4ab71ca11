package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/pkg/config"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/response"
)

// ContextUserKey is the gin context key storing session claims.
const ContextUserKey = "currentUser"

// Session protects routes by requiring a valid identity-provider session
// token. The token carries the user ID and the role in its metadata; both
// are validated here once and exposed to downstream handlers.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithLeeway(cfg.Leeway),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims := &models.SessionClaims{}
		if _, err := parser.ParseWithClaims(token, claims, keyFunc); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token"))
			c.Abort()
			return
		}

		if _, err := authz.PrincipalFromClaims(claims); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		// browser clients carry the session in a cookie instead
		cookie, err := c.Cookie("__session")
		if err != nil {
			return ""
		}
		return cookie
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
