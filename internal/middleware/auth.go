package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/apperr"
	"pollup/internal/models"
	"pollup/internal/services"
	"pollup/internal/utils"
)

const CheckUserKey = "user"

const mirrorCacheTTL = time.Minute

// AuthRequired ensures a verified identity is present; LoadUser must run
// first on the chain.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   string(apperr.KindAuthenticationRequired),
				"message": "sign in first",
			})
			return
		}
		c.Next()
	}
}

// LoadUser resolves the caller's identity from the session cookie or a
// provider-issued bearer token, mirrors it into a local User on first
// sight, and sets the user on the context. A short TTL cache keeps the
// per-request lookup off the store. The unread notification count is not
// loaded here; clients poll /api/notifications/unread for it.
func LoadUser(content *services.ContentService, identity *services.IdentityService, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := userFromSession(c, content, cache)
		if user == nil {
			user = userFromBearer(c, content, identity)
		}

		if user != nil {
			c.Set(CheckUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser pulls the loaded user off the context, nil when anonymous.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		return v.(*models.User)
	}
	return nil
}

func userFromSession(c *gin.Context, content *services.ContentService, cache *utils.Cache) *models.User {
	session := sessions.Default(c)
	userID, _ := session.Get("user_id").(string)
	if userID == "" {
		return nil
	}

	if cached := cache.Get("user:" + userID); cached != nil {
		return cached.(*models.User)
	}

	user, err := lookupUserHex(c, content, userID)
	if err != nil {
		return nil
	}
	cache.Set("user:"+userID, user, mirrorCacheTTL)
	return user
}

func lookupUserHex(c *gin.Context, content *services.ContentService, hexID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, err
	}
	return content.GetUserByID(c.Request.Context(), id)
}

func userFromBearer(c *gin.Context, content *services.ContentService, identity *services.IdentityService) *models.User {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	ident, err := identity.VerifyToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil
	}
	user, err := content.MirrorIdentity(c.Request.Context(), *ident)
	if err != nil {
		return nil
	}
	return user
}
