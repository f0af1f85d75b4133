package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the quote of a currency against the usd base unit.
// For weak currencies Rate is units per usd; for usdt it is a percentage premium.
type ExchangeRate struct {
	ExchangeRateID string          `json:"exchangeRateID"`
	CurrencyCode   string          `json:"currencyCode"`
	Rate           decimal.Decimal `json:"rate"`
	DateEffective  time.Time       `json:"dateEffective"`
	AuditFields
}
