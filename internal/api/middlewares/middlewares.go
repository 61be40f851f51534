// Package middlewares holds the shared gin middlewares.
package middlewares

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"github.com/avoronov/notigate/internal/api/respond"
)

// SessionCookie is the cookie carrying the session id.
const SessionCookie = "session_id"

const contextKeyUserID = "user_id"

type sessionStore interface {
	Get(ctx context.Context, id string) (uuid.UUID, error)
}

// CORSMiddleware allows cross-origin requests from the web frontend.
func CORSMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SessionAuth resolves the session cookie to a user id and injects it
// into the gin context. Requests without a valid session get 401.
func SessionAuth(sessions sessionStore) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || sid == "" {
			respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
			c.Abort()
			return
		}

		userID, err := sessions.Get(c.Request.Context(), sid)
		if err != nil {
			respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
			c.Abort()
			return
		}

		c.Set(contextKeyUserID, userID)
		c.Next()
	}
}

// UserID extracts the authenticated user id set by SessionAuth.
func UserID(c *ginext.Context) (uuid.UUID, bool) {
	id, ok := c.Get(contextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}

	userID, ok := id.(uuid.UUID)
	return userID, ok
}
