package middleware

import (
	"context"
	"errors"

	"main/model"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

const (
	RefreshTokenCookie = "refreshToken"
	AccessTokenCookie  = "accessToken"

	// ContextUserIDKey holds the verified caller identity. Handlers must use
	// this, never an identity supplied in the request body.
	ContextUserIDKey = "user_id"
	ContextUserKey   = "current_user"
)

// UserResolver loads the caller's record once the token checks out. The
// implementation excludes the password hash from the projection.
type UserResolver interface {
	FindByID(ctx context.Context, userID string) (*model.User, error)
}

// AuthMiddleware is the single gate in front of every protected operation.
// It resolves the caller from the refresh-token cookie and attaches the user
// to the request context. Authorization is re-derived from the store on every
// request, so a deleted user is locked out without any token bookkeeping.
func AuthMiddleware(tokens *services.TokenService, users UserResolver, blacklist services.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(RefreshTokenCookie)
		if err != nil || cookie == "" {
			utils.Unauthorized(c, "no token provided")
			c.Abort()
			return
		}

		if blacklist != nil && blacklist.Contains(c.Request.Context(), cookie) {
			utils.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		claims, err := tokens.Verify(cookie)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				utils.Unauthorized(c, "token expired")
			} else {
				utils.Unauthorized(c, "invalid token")
			}
			c.Abort()
			return
		}

		if claims.Type != services.TokenTypeRefresh {
			utils.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			// A token for a user that no longer exists is treated as an
			// unauthorized session, not a missing resource.
			utils.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, user.UserID)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the resolved caller attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}
