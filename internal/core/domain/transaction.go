package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusConfirmed TransactionStatus = "confirmed"
	StatusCancelled TransactionStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible from the status.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Valid reports whether the status is one of the known values.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a status change is legal.
// Leaving confirmed is only possible through a reversal, which callers request
// explicitly with viaReversal.
func CanTransition(from, to TransactionStatus, viaReversal bool) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return viaReversal && to == StatusCancelled
	default:
		return false
	}
}

// TransactionType drives which accounts a transaction posts to.
type TransactionType string

const (
	TypeCaja            TransactionType = "caja"
	TypeGasto           TransactionType = "gasto"
	TypeIngreso         TransactionType = "ingreso"
	TypeCambio          TransactionType = "cambio"
	TypeCable           TransactionType = "cable"
	TypeCuentaCorriente TransactionType = "cuenta corriente"
	TypeFee             TransactionType = "fee"
	TypePagoCtaCte      TransactionType = "pago por cta cte"
)

// Routing groups transaction types by the accounts they affect.
type Routing int

const (
	RoutingCashOnly Routing = iota + 1
	RoutingCurrentAccountOnly
	RoutingDual
)

func (r Routing) String() string {
	switch r {
	case RoutingCashOnly:
		return "cash-only"
	case RoutingCurrentAccountOnly:
		return "current-account-only"
	case RoutingDual:
		return "dual"
	}
	return "unknown"
}

var routingTable = map[TransactionType]Routing{
	TypeCaja:            RoutingCashOnly,
	TypeGasto:           RoutingCashOnly,
	TypeIngreso:         RoutingCashOnly,
	TypeCambio:          RoutingCurrentAccountOnly,
	TypeCable:           RoutingCurrentAccountOnly,
	TypeCuentaCorriente: RoutingCurrentAccountOnly,
	TypeFee:             RoutingCurrentAccountOnly,
	TypePagoCtaCte:      RoutingDual,
}

// Routing returns the routing category of the type.
func (t TransactionType) Routing() (Routing, error) {
	r, ok := routingTable[t]
	if !ok {
		return 0, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, string(t))
	}
	return r, nil
}

// RequiresConfirmation reports whether transactions of this type stay pending after upload.
func (t TransactionType) RequiresConfirmation() bool {
	return routingTable[t] == RoutingCurrentAccountOnly
}

// TransactionTypes lists every known type.
func TransactionTypes() []TransactionType {
	return []TransactionType{TypeCaja, TypeGasto, TypeIngreso, TypeCambio, TypeCable, TypeCuentaCorriente, TypeFee, TypePagoCtaCte}
}

var currencies = map[string]struct{}{
	"ars":  {},
	"usd":  {},
	"usdt": {},
	"eur":  {},
	"brl":  {},
}

// IsKnownCurrency reports whether the currency code can be used in transactions.
func IsKnownCurrency(code string) bool {
	_, ok := currencies[code]
	return ok
}

// Transaction is a single directional ledger entry between two entities.
type Transaction struct {
	ID               int64               `json:"id"`
	OperationID      int64               `json:"operationID"`
	Type             TransactionType     `json:"type"`
	FromEntityID     int64               `json:"fromEntityID"`
	ToEntityID       int64               `json:"toEntityID"`
	OperatorEntityID int64               `json:"operatorEntityID"`
	Currency         string              `json:"currency"`
	Amount           decimal.Decimal     `json:"amount"`
	Method           *string             `json:"method,omitempty"`
	Status           TransactionStatus   `json:"status"`
	Date             time.Time           `json:"date"`
	ReversalOfID     *int64              `json:"reversalOfID,omitempty"`
	Metadata         TransactionMetadata `json:"metadata"`
}

// Validate checks the invariants that must hold before any write.
func (t Transaction) Validate() error {
	if _, err := t.Type.Routing(); err != nil {
		return err
	}
	if t.FromEntityID == 0 || t.ToEntityID == 0 {
		return fmt.Errorf("%w: from and to entities are required", apperrors.ErrValidation)
	}
	if t.FromEntityID == t.ToEntityID {
		return fmt.Errorf("%w: from and to entities must differ", apperrors.ErrValidation)
	}
	if t.OperatorEntityID == 0 {
		return fmt.Errorf("%w: operator entity is required", apperrors.ErrValidation)
	}
	if !IsKnownCurrency(strings.ToLower(t.Currency)) {
		return fmt.Errorf("%w: unknown currency %q", apperrors.ErrValidation, t.Currency)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if t.Status != "" && !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, string(t.Status))
	}
	return t.Metadata.Extra.Validate()
}

// IsEditable reports whether the monetary fields may still change.
func (t Transaction) IsEditable() bool {
	return t.Status == StatusPending
}

// IsReversal reports whether the transaction was synthesized to cancel another one.
func (t Transaction) IsReversal() bool {
	return t.ReversalOfID != nil
}

// Endpoints returns the from and to entity ids.
func (t Transaction) Endpoints() (int64, int64) {
	return t.FromEntityID, t.ToEntityID
}

// Counterparty returns the other endpoint for the given entity.
func (t Transaction) Counterparty(entityID int64) (int64, bool) {
	switch entityID {
	case t.FromEntityID:
		return t.ToEntityID, true
	case t.ToEntityID:
		return t.FromEntityID, true
	}
	return 0, false
}

// TransactionChanges carries the editable fields of a pending transaction.
// Nil fields are left untouched.
type TransactionChanges struct {
	FromEntityID     *int64
	ToEntityID       *int64
	OperatorEntityID *int64
	Currency         *string
	Amount           *decimal.Decimal
}

// IsEmpty reports whether no field was requested to change.
func (c TransactionChanges) IsEmpty() bool {
	return c.FromEntityID == nil && c.ToEntityID == nil && c.OperatorEntityID == nil && c.Currency == nil && c.Amount == nil
}

// Apply returns a copy of t with the requested changes applied.
func (c TransactionChanges) Apply(t Transaction) Transaction {
	if c.FromEntityID != nil {
		t.FromEntityID = *c.FromEntityID
	}
	if c.ToEntityID != nil {
		t.ToEntityID = *c.ToEntityID
	}
	if c.OperatorEntityID != nil {
		t.OperatorEntityID = *c.OperatorEntityID
	}
	if c.Currency != nil {
		t.Currency = strings.ToLower(*c.Currency)
	}
	if c.Amount != nil {
		t.Amount = *c.Amount
	}
	return t
}
