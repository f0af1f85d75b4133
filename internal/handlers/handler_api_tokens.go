package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APITokenHandler handles HTTP requests for API token operations
type APITokenHandler struct {
	tokenSvc services.APITokenSvc
}

// NewAPITokenHandler creates a new APITokenHandler
func NewAPITokenHandler(tokenSvc services.APITokenSvc) *APITokenHandler {
	return &APITokenHandler{
		tokenSvc: tokenSvc,
	}
}

// RegisterAPITokenRoutes registers the API token routes
func RegisterAPITokenRoutes(router *gin.RouterGroup, tokenSvc services.APITokenSvc) {
	handler := NewAPITokenHandler(tokenSvc)

	tokensGroup := router.Group("/api-tokens")
	{
		tokensGroup.POST("", handler.CreateToken)
		tokensGroup.GET("", handler.ListTokens)
		tokensGroup.DELETE("/:id", handler.RevokeToken)
	}
}

// CreateToken handles the creation of a new API token
// @Summary Issue an API token
// @Description Issues a token for a machine user such as the rate provider. The token is shown only once.
// @Description Send it in the x-api-key header. Requires ADMIN.
// @Tags tokens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAPITokenRequest true "Token creation details"
// @Success 201 {object} dto.CreateAPITokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api-tokens [post]
func (h *APITokenHandler) CreateToken(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateAPITokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var expiresIn *time.Duration
	if req.ExpiresIn != nil {
		if *req.ExpiresIn <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "expiresIn must be positive"})
			return
		}
		d := time.Duration(*req.ExpiresIn) * time.Second
		expiresIn = &d
	}

	tokenStr, token, err := h.tokenSvc.CreateToken(c.Request.Context(), actor, req.UserID, req.Name, expiresIn)
	if err != nil {
		respondError(c, err, "Failed to create token")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("API token issued", slog.String("token_id", token.ID))
	c.JSON(http.StatusCreated, dto.CreateAPITokenResponse{
		TokenString: tokenStr,
		Details:     dto.ToAPITokenResponse(*token),
	})
}

// ListTokens handles listing the API tokens of a user
// @Summary List API tokens
// @Description Lists token metadata, never the token values. Defaults to the caller; other users require ADMIN.
// @Tags tokens
// @Produce json
// @Security BearerAuth
// @Param userId query string false "Owner of the tokens"
// @Success 200 {array} dto.APITokenResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api-tokens [get]
func (h *APITokenHandler) ListTokens(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	userID := c.DefaultQuery("userId", actor.UserID)
	tokens, err := h.tokenSvc.ListTokens(c.Request.Context(), actor, userID)
	if err != nil {
		respondError(c, err, "Failed to list tokens")
		return
	}

	resp := make([]dto.APITokenResponse, len(tokens))
	for i, t := range tokens {
		resp[i] = dto.ToAPITokenResponse(t)
	}
	c.JSON(http.StatusOK, resp)
}

// RevokeToken handles revoking a specific API token
// @Summary Revoke an API token
// @Description Revokes a token by ID. Owners may revoke their own tokens; others require ADMIN.
// @Tags tokens
// @Produce json
// @Security BearerAuth
// @Param id path string true "Token ID (UUID format)" format(uuid)
// @Success 204 "Token revoked successfully"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api-tokens/{id} [delete]
func (h *APITokenHandler) RevokeToken(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	// Parse token ID from URL
	tokenID := c.Param("id")
	if _, err := uuid.Parse(tokenID); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid token ID"})
		return
	}

	if err := h.tokenSvc.RevokeToken(c.Request.Context(), actor, tokenID); err != nil {
		respondError(c, err, "Failed to revoke token")
		return
	}

	c.Status(http.StatusNoContent)
}
