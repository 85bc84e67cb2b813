package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "pfa/internal/errors"
)

const userIDKey = "userID"

// Authenticator reports who is signed in.
type Authenticator interface {
	UserID() (int64, error)
}

// RequireSession rejects requests while no user is signed in and sets the
// user id in the context otherwise.
func RequireSession(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.UserID()
		if err != nil {
			WriteError(c, apperrors.ErrNotLoggedIn)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id set by RequireSession.
func UserID(c *gin.Context) (int64, error) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, apperrors.ErrNotLoggedIn
	}
	return v.(int64), nil
}
