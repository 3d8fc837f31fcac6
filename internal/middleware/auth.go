package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"realty/api/internal/config"
	"realty/api/internal/models"
	"realty/api/internal/security"
	"realty/api/internal/store"
)

const (
	currentUserKey  = "current_user"
	accessClaimsKey = "access_claims"
)

func Auth(cfg *config.AppConfig, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}
		if status, code := authenticate(c, cfg, st, strings.TrimPrefix(authHeader, "Bearer ")); code != "" {
			c.AbortWithStatusJSON(status, gin.H{"error": code})
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A token that is present
// must still be valid.
func OptionalAuth(cfg *config.AppConfig, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		if status, code := authenticate(c, cfg, st, strings.TrimPrefix(authHeader, "Bearer ")); code != "" {
			c.AbortWithStatusJSON(status, gin.H{"error": code})
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, cfg *config.AppConfig, st *store.Store, tokenStr string) (int, string) {
	claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
	if err != nil {
		return http.StatusUnauthorized, "invalid_token"
	}

	session, err := st.GetSession(claims.SessionID)
	if err != nil {
		return http.StatusUnauthorized, "session_not_found"
	}
	if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
		return http.StatusUnauthorized, "session_mismatch"
	}

	user, err := st.GetUser(claims.UserID)
	if err != nil {
		return http.StatusUnauthorized, "user_not_found"
	}

	st.TouchSession(session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

	c.Set(accessClaimsKey, *claims)
	c.Set(currentUserKey, user)
	return 0, ""
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

func AccessClaims(c *gin.Context) (security.AccessClaims, bool) {
	claimsVal, exists := c.Get(accessClaimsKey)
	if !exists {
		return security.AccessClaims{}, false
	}
	claims, ok := claimsVal.(security.AccessClaims)
	return claims, ok
}
