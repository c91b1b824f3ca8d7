package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/service"
)

const (
	contextUserID      = "user_id"
	contextClaims      = "claims"
	contextAccessToken = "access_token"
)

// AuthMiddleware validates the bearer token and adds the claims to the context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "Authorization header is required", nil)
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "Invalid authorization header format", nil)
			return
		}
		token = strings.TrimSpace(token)

		claims, err := authService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", nil)
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextClaims, claims)
		c.Set(contextAccessToken, token)

		c.Next()
	}
}

func claimsFrom(c *gin.Context) (*domain.TokenClaims, bool) {
	v, ok := c.Get(contextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*domain.TokenClaims)
	return claims, ok && claims != nil
}
