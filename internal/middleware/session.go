package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

// SessionRequired resolves the persisted login session. The device holds one
// session at a time, so authorization is a preference lookup plus a user row
// check rather than a token parse.
func SessionRequired(sessions *prefs.Store, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := sessions.Current()
		if !snap.IsLoggedIn || snap.LoggedInUserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), snap.LoggedInUserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if user == nil {
			// Stale session pointing at a deleted account.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("userRole", user.Role)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get("userID")
	uid, _ := id.(uuid.UUID)
	return uid
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get("userRole")
	r, _ := role.(string)
	return r
}
