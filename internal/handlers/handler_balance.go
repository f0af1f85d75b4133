package handlers

import (
	"net/http"
	"strings"

	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

type balanceHandler struct {
	balanceService portssvc.BalanceSvcFacade
}

func newBalanceHandler(bs portssvc.BalanceSvcFacade) *balanceHandler {
	return &balanceHandler{balanceService: bs}
}

func registerBalanceRoutes(rg *gin.RouterGroup, bs portssvc.BalanceSvcFacade) {
	h := newBalanceHandler(bs)

	balances := rg.Group("/balances")
	{
		balances.GET("", h.listBalances)
		balances.GET("/verify", h.verifyBalances)
		balances.GET("/entities/:entityID/unified", h.unifiedByEntity)
		balances.GET("/tags/:tagName/unified", h.unifiedByTag)
	}
}

// listBalances godoc
// @Summary List balance cells
// @Description Lists the balance cells of the entities the caller may see.
// @Tags balances
// @Produce  json
// @Param   entityId query int false "Entity ID"
// @Param   currency query string false "Currency code"
// @Param   account query bool false "true for current account, false for cash"
// @Success 200 {array} domain.Balance
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /balances [get]
func (h *balanceHandler) listBalances(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var params dto.ListBalancesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	balances, err := h.balanceService.ListBalances(c.Request.Context(), actor, params)
	if err != nil {
		respondError(c, err, "Failed to list balances")
		return
	}
	c.JSON(http.StatusOK, balances)
}

// unifiedByEntity godoc
// @Summary Unified balances of an entity
// @Description Balances of the entity against each counterparty, per account kind, converted to usd with the latest rates.
// @Tags balances
// @Produce  json
// @Param   entityID path int true "Entity ID"
// @Success 200 {object} domain.UnifiedBalances
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /balances/entities/{entityID}/unified [get]
func (h *balanceHandler) unifiedByEntity(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	entityID, ok := int64Param(c, "entityID")
	if !ok {
		return
	}

	unified, err := h.balanceService.UnifiedByEntity(c.Request.Context(), actor, entityID)
	if err != nil {
		respondError(c, err, "Failed to compute unified balances")
		return
	}
	c.JSON(http.StatusOK, unified)
}

// unifiedByTag godoc
// @Summary Unified balances of a tag
// @Description Aggregated balances of every entity under the tag, excluding movements between members of the group.
// @Tags balances
// @Produce  json
// @Param   tagName path string true "Tag name"
// @Success 200 {object} domain.UnifiedBalances
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /balances/tags/{tagName}/unified [get]
func (h *balanceHandler) unifiedByTag(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	tagName := strings.TrimSpace(c.Param("tagName"))
	if tagName == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Tag name is required"})
		return
	}

	unified, err := h.balanceService.UnifiedByTag(c.Request.Context(), actor, tagName)
	if err != nil {
		respondError(c, err, "Failed to compute unified balances")
		return
	}
	c.JSON(http.StatusOK, unified)
}

// verifyBalances godoc
// @Summary Verify balance cells
// @Description Recomputes every balance from its movements and lists the cells that disagree. Requires ADMIN.
// @Tags balances
// @Produce  json
// @Success 200 {array} domain.BalanceDiscrepancy
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /balances/verify [get]
func (h *balanceHandler) verifyBalances(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	discrepancies, err := h.balanceService.VerifyBalances(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to verify balances")
		return
	}
	c.JSON(http.StatusOK, discrepancies)
}
