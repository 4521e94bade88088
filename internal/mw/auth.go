package mw

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"farmtrack-backend/internal/auth"
	"farmtrack-backend/internal/model"
	"farmtrack-backend/internal/store"
)

const userKey = "authenticated_user"

// RequireAuth authenticates the request from its bearer token and
// places the resolved user into the gin context. Parsed tokens are
// cached briefly so repeated requests skip signature verification; the
// user row is still loaded every time, so a deleted user is rejected
// immediately regardless of the cache.
func RequireAuth(tokens *auth.TokenManager, s store.Store, tokenCache *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		var userID uint
		if cached, found := tokenCache.Get(tokenString); found {
			userID = cached.(uint)
		} else {
			id, err := tokens.ParseSubject(tokenString)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			userID = id
			tokenCache.Set(tokenString, userID, ttl)
		}

		user, err := s.UserByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireAuth.
func CurrentUser(c *gin.Context) *model.User {
	return c.MustGet(userKey).(*model.User)
}
