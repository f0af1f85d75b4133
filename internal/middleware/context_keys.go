package middleware

import (
	"context"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// userIDKey is the key used to store the authenticated user's ID.
const userIDKey = contextKey("userID")

// actorKey holds the resolved actor (user id plus effective permissions).
const actorKey = contextKey("actor")

// authMethodKey records which middleware authenticated the request.
const authMethodKey = "authMethod"

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// withUserID stores the user id in the request context and enriches the logger.
func withUserID(c *gin.Context, userID, method string) {
	ctx := context.WithValue(c.Request.Context(), userIDKey, userID)
	ctx = WithLogger(ctx, GetLoggerFromCtx(ctx).With("user_id", userID))
	c.Request = c.Request.WithContext(ctx)
	c.Set(authMethodKey, method)
}

// GetActorFromContext returns the actor resolved by ActorMiddleware.
func GetActorFromContext(c *gin.Context) (domain.Actor, bool) {
	actor, ok := c.Request.Context().Value(actorKey).(domain.Actor)
	return actor, ok
}
