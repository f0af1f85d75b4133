package middleware

import (
	"log/slog"

	"github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// APITokenHeader carries machine credentials, e.g. for the rate provider.
const APITokenHeader = "x-api-key"

// APITokenAuth is a middleware that authenticates requests using API tokens.
// Requests without a valid key fall through to the JWT middleware.
func APITokenAuth(tokenSvc services.APITokenSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(APITokenHeader)
		if apiKey == "" {
			c.Next() // No api key provided, let it continue
			return
		}

		userID, err := tokenSvc.ValidateToken(c.Request.Context(), apiKey)
		if err != nil {
			GetLoggerFromCtx(c.Request.Context()).Warn("API token rejected", slog.String("error", err.Error()))
			c.Next()
			return
		}

		withUserID(c, userID, "api_token")
		c.Next()
	}
}
