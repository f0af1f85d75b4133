package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the materialized running total of a cell.
type Balance struct {
	ID            int64           `json:"id"`
	EntityID      int64           `json:"entityID"`
	Currency      string          `json:"currency"`
	Account       bool            `json:"account"`
	Balance       decimal.Decimal `json:"balance"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// Key returns the cell identity.
func (b Balance) Key() BalanceKey {
	return BalanceKey{EntityID: b.EntityID, Currency: b.Currency, Account: b.Account}
}

// BalanceFilter narrows down balance listings.
type BalanceFilter struct {
	EntityIDs []int64
	Currency  *string
	Account   *bool
}

// PairBalance is the signed balance of an entity against one counterparty.
type PairBalance struct {
	EntityID       int64           `json:"entityID"`
	CounterpartyID int64           `json:"counterpartyID"`
	Currency       string          `json:"currency"`
	Account        bool            `json:"account"`
	Balance        decimal.Decimal `json:"balance"`
}

// UnifiedPair is a pair balance projected to usd.
type UnifiedPair struct {
	CounterpartyID int64           `json:"counterpartyID"`
	Account        bool            `json:"account"`
	Amount         decimal.Decimal `json:"amount"`
}

// UnifiedBalances is a display rollup in usd. It never feeds back into the ledger.
type UnifiedBalances struct {
	Pairs          []UnifiedPair   `json:"pairs"`
	Cash           decimal.Decimal `json:"cash"`
	CurrentAccount decimal.Decimal `json:"currentAccount"`
	Unconvertible  []string        `json:"unconvertible,omitempty"`
}

// BalanceDiscrepancy reports a cell whose stored value disagrees with its movements.
type BalanceDiscrepancy struct {
	BalanceID int64           `json:"balanceID"`
	EntityID  int64           `json:"entityID"`
	Currency  string          `json:"currency"`
	Account   bool            `json:"account"`
	Stored    decimal.Decimal `json:"stored"`
	Expected  decimal.Decimal `json:"expected"`
}
