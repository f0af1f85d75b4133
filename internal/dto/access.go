package dto

import (
	"strings"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReplacePermissionsRequest replaces the whole grant list of a user or role.
type ReplacePermissionsRequest struct {
	Permissions []domain.Permission `json:"permissions" binding:"dive"`
}

// AssignRoleRequest sets the role of a user.
type AssignRoleRequest struct {
	RoleName string `json:"roleName" binding:"required"`
}

// ListBalancesParams defines the query parameters for listing balance cells.
type ListBalancesParams struct {
	EntityID *int64  `form:"entityId"`
	Currency *string `form:"currency"`
	Account  *bool   `form:"account"`
}

// Filter converts the params to a repository filter.
func (p ListBalancesParams) Filter() domain.BalanceFilter {
	f := domain.BalanceFilter{Account: p.Account}
	if p.EntityID != nil {
		f.EntityIDs = []int64{*p.EntityID}
	}
	if p.Currency != nil {
		c := strings.ToLower(*p.Currency)
		f.Currency = &c
	}
	return f
}

// CreateExchangeRateRequest ingests the rate of a currency against usd.
type CreateExchangeRateRequest struct {
	CurrencyCode  string          `json:"currencyCode" binding:"required,currency"`
	Rate          decimal.Decimal `json:"rate"`
	DateEffective *time.Time      `json:"dateEffective,omitempty"`
}

// ExchangeRateResponse defines the structure for API responses containing exchange rate details.
type ExchangeRateResponse struct {
	ExchangeRateID string          `json:"exchangeRateID"`
	CurrencyCode   string          `json:"currencyCode"`
	Rate           decimal.Decimal `json:"rate"`
	DateEffective  time.Time       `json:"dateEffective"`
	CreatedAt      time.Time       `json:"createdAt"`
	CreatedBy      string          `json:"createdBy"`
}

// ToExchangeRateResponse converts a domain.ExchangeRate to ExchangeRateResponse DTO
func ToExchangeRateResponse(rate domain.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		ExchangeRateID: rate.ExchangeRateID,
		CurrencyCode:   rate.CurrencyCode,
		Rate:           rate.Rate,
		DateEffective:  rate.DateEffective,
		CreatedAt:      rate.CreatedAt,
		CreatedBy:      rate.CreatedBy,
	}
}

// ToListExchangeRateResponse converts a slice of domain.ExchangeRate.
func ToListExchangeRateResponse(rates []domain.ExchangeRate) []ExchangeRateResponse {
	responses := make([]ExchangeRateResponse, len(rates))
	for i, rate := range rates {
		responses[i] = ToExchangeRateResponse(rate)
	}
	return responses
}

// CreateAPITokenRequest represents the request body for creating a new API token
type CreateAPITokenRequest struct {
	UserID    string `json:"userId" binding:"required"`
	Name      string `json:"name" binding:"required,min=3,max=100"`
	ExpiresIn *int64 `json:"expiresIn,omitempty"` // seconds
}

// APITokenResponse represents an API token in the API responses
type APITokenResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CreateAPITokenResponse represents the response when creating a new API token
type CreateAPITokenResponse struct {
	TokenString string           `json:"token"` // Only shown once when created
	Details     APITokenResponse `json:"details"`
}

// ToAPITokenResponse converts a domain.APIToken to an APITokenResponse
func ToAPITokenResponse(token domain.APIToken) APITokenResponse {
	return APITokenResponse{
		ID:         token.ID,
		UserID:     token.UserID,
		Name:       token.Name,
		LastUsedAt: token.LastUsedAt,
		ExpiresAt:  token.ExpiresAt,
		CreatedAt:  token.CreatedAt,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Kind          string `json:"kind,omitempty"`
	TransactionID *int64 `json:"transactionId,omitempty"`
}
