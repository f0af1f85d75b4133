package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account kinds of a balance cell.
const (
	AccountCash    = false
	AccountCurrent = true
)

// AccountName renders the account kind for logs and responses.
func AccountName(account bool) string {
	if account == AccountCurrent {
		return "current_account"
	}
	return "cash"
}

// MovementType is the lifecycle event that produced a movement.
type MovementType string

const (
	MovementUpload       MovementType = "upload"
	MovementConfirmation MovementType = "confirmation"
	MovementCancellation MovementType = "cancellation"
)

// Movement is an immutable signed posting against one balance cell.
type Movement struct {
	ID            int64        `json:"id"`
	TransactionID int64        `json:"transactionID"`
	BalanceID     int64        `json:"balanceID"`
	Account       bool         `json:"account"`
	Direction     int          `json:"direction"`
	Type          MovementType `json:"type"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// BalanceKey identifies a balance cell.
type BalanceKey struct {
	EntityID int64
	Currency string
	Account  bool
}

// Posting is a movement that has not been written yet.
type Posting struct {
	Key       BalanceKey
	Direction int
	Amount    decimal.Decimal
	Type      MovementType
}

// Delta is the signed amount the posting adds to its balance cell.
func (p Posting) Delta() decimal.Decimal {
	return p.Amount.Mul(decimal.NewFromInt(int64(p.Direction)))
}
