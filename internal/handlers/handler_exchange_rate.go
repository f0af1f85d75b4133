package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// exchangeRateHandler handles HTTP requests related to exchange rates.
type exchangeRateHandler struct {
	exchangeRateService portssvc.ExchangeRateSvcFacade
}

// newExchangeRateHandler creates a new exchangeRateHandler.
func newExchangeRateHandler(ers portssvc.ExchangeRateSvcFacade) *exchangeRateHandler {
	return &exchangeRateHandler{
		exchangeRateService: ers,
	}
}

// registerExchangeRateRoutes registers routes related to exchange rates.
func registerExchangeRateRoutes(rg *gin.RouterGroup, exchangeRateService portssvc.ExchangeRateSvcFacade, write ...gin.HandlerFunc) {
	h := newExchangeRateHandler(exchangeRateService)

	exchangeRates := rg.Group("/exchange-rates")
	{
		exchangeRates.GET("/latest", h.listLatestExchangeRates)
	}
	rg.Group("/exchange-rates", write...).POST("", h.createExchangeRate)
}

// createExchangeRate godoc
// @Summary Ingest an exchange rate
// @Description Stores the rate of a currency against usd. Usually called by the rate provider with an API token.
// @Tags exchange rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.CreateExchangeRateRequest true "Exchange Rate details"
// @Success 201 {object} dto.ExchangeRateResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Missing EXCHANGE_RATES_MANAGE"
// @Failure 500 {object} dto.ErrorResponse "Failed to create exchange rate"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exchange-rates [post]
func (h *exchangeRateHandler) createExchangeRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateExchangeRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	logger.Info("Received request to create exchange rate",
		slog.String("currency", req.CurrencyCode),
		slog.String("rate", req.Rate.String()),
	)

	createdRate, err := h.exchangeRateService.CreateExchangeRate(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err, "Failed to create exchange rate")
		return
	}

	logger.Info("Exchange rate created successfully", slog.String("rate_id", createdRate.ExchangeRateID))
	c.JSON(http.StatusCreated, dto.ToExchangeRateResponse(*createdRate))
}

// listLatestExchangeRates godoc
// @Summary Latest exchange rates
// @Description Returns, per currency, the rate with the latest effective date.
// @Tags exchange rates
// @Produce  json
// @Success 200 {array} dto.ExchangeRateResponse
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve exchange rates"
// @Security BearerAuth
// @Router /exchange-rates/latest [get]
func (h *exchangeRateHandler) listLatestExchangeRates(c *gin.Context) {
	rates, err := h.exchangeRateService.ListLatestExchangeRates(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve exchange rates")
		return
	}
	c.JSON(http.StatusOK, dto.ToListExchangeRateResponse(rates))
}
