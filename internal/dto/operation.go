package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is one leg submitted by the presentation layer.
type CreateTransactionRequest struct {
	Type             string          `json:"type" binding:"required,txtype"`
	FromEntityID     int64           `json:"fromEntityId" binding:"required,gt=0"`
	ToEntityID       int64           `json:"toEntityId" binding:"required,gt=0,nefield=FromEntityID"`
	OperatorEntityID int64           `json:"operatorEntityId" binding:"required,gt=0"`
	Currency         string          `json:"currency" binding:"required,currency"`
	Amount           decimal.Decimal `json:"amount"`
	Method           *string         `json:"method,omitempty"`
	Date             *time.Time      `json:"date,omitempty"`
	// RelatedTransactionIndex pairs this leg with another leg of the same request,
	// e.g. both sides of a currency exchange.
	RelatedTransactionIndex *int            `json:"relatedTransactionIndex,omitempty"`
	Metadata                json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// ToDomain validates the request and converts it to an unsaved transaction.
func (r CreateTransactionRequest) ToDomain(operationID int64, fallbackDate time.Time) (domain.Transaction, error) {
	extra, err := domain.ParseExtra(r.Metadata)
	if err != nil {
		return domain.Transaction{}, err
	}
	date := fallbackDate
	if r.Date != nil {
		date = *r.Date
	}
	tx := domain.Transaction{
		OperationID:      operationID,
		Type:             domain.TransactionType(strings.ToLower(r.Type)),
		FromEntityID:     r.FromEntityID,
		ToEntityID:       r.ToEntityID,
		OperatorEntityID: r.OperatorEntityID,
		Currency:         strings.ToLower(r.Currency),
		Amount:           r.Amount,
		Method:           r.Method,
		Date:             date,
		Metadata:         domain.TransactionMetadata{History: []domain.ChangeRecord{}, Extra: extra},
	}
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// CreateOperationRequest creates an operation with its first transactions.
type CreateOperationRequest struct {
	Date         time.Time                  `json:"date" binding:"required"`
	Observations string                     `json:"observations"`
	Transactions []CreateTransactionRequest `json:"transactions" binding:"required,min=1,dive"`
}

// Validate checks the cross-leg references of the request.
func (r CreateOperationRequest) Validate() error {
	if len(r.Transactions) == 0 {
		return fmt.Errorf("%w: an operation needs at least one transaction", apperrors.ErrValidation)
	}
	for i, t := range r.Transactions {
		if t.RelatedTransactionIndex == nil {
			continue
		}
		j := *t.RelatedTransactionIndex
		if j < 0 || j >= len(r.Transactions) || j == i {
			return fmt.Errorf("%w: transaction %d references invalid related index %d", apperrors.ErrValidation, i, j)
		}
	}
	return nil
}

// UpdateTransactionRequest edits the monetary fields of a pending transaction.
type UpdateTransactionRequest struct {
	FromEntityID     *int64           `json:"fromEntityId,omitempty" binding:"omitempty,gt=0"`
	ToEntityID       *int64           `json:"toEntityId,omitempty" binding:"omitempty,gt=0"`
	OperatorEntityID *int64           `json:"operatorEntityId,omitempty" binding:"omitempty,gt=0"`
	Currency         *string          `json:"currency,omitempty" binding:"omitempty,currency"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
}

// ToChanges converts the request to domain changes.
func (r UpdateTransactionRequest) ToChanges() domain.TransactionChanges {
	return domain.TransactionChanges{
		FromEntityID:     r.FromEntityID,
		ToEntityID:       r.ToEntityID,
		OperatorEntityID: r.OperatorEntityID,
		Currency:         r.Currency,
		Amount:           r.Amount,
	}
}

// ListOperationsParams defines the query parameters for listing operations.
type ListOperationsParams struct {
	Limit     int        `form:"limit" binding:"omitempty,min=1,max=200"`
	NextToken *string    `form:"nextToken"`
	FromDate  *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate    *time.Time `form:"toDate" time_format:"2006-01-02"`
	EntityID  *int64     `form:"entityId"`
	Currency  *string    `form:"currency"`
	Status    *string    `form:"status" binding:"omitempty,oneof=pending confirmed cancelled"`
}

// Filter converts the params to a repository filter.
func (p ListOperationsParams) Filter() domain.OperationFilter {
	f := domain.OperationFilter{
		FromDate: p.FromDate,
		ToDate:   p.ToDate,
		EntityID: p.EntityID,
	}
	if p.Currency != nil {
		c := strings.ToLower(*p.Currency)
		f.Currency = &c
	}
	if p.Status != nil {
		s := domain.TransactionStatus(*p.Status)
		f.Status = &s
	}
	return f
}

// AnnotatedTransaction is a transaction plus what the caller may do with it.
type AnnotatedTransaction struct {
	domain.Transaction
	domain.TransactionCapabilities
}

// AnnotatedOperation is an operation plus what the caller may do with it.
type AnnotatedOperation struct {
	ID                 int64                  `json:"id"`
	Date               time.Time              `json:"date"`
	Observations       string                 `json:"observations"`
	Transactions       []AnnotatedTransaction `json:"transactions"`
	HiddenTransactions int                    `json:"hiddenTransactions"`
	IsVisualizeAllowed bool                   `json:"isVisualizeAllowed"`
	IsCreateAllowed    bool                   `json:"isCreateAllowed"`
}

// NewAnnotatedOperation merges an operation with its evaluated capabilities.
// Transactions the caller may not visualize are left out and only counted,
// even when another transaction makes the operation itself visible.
func NewAnnotatedOperation(op domain.Operation, caps domain.OperationCapabilities) AnnotatedOperation {
	out := AnnotatedOperation{
		ID:                 op.ID,
		Date:               op.Date,
		Observations:       op.Observations,
		Transactions:       make([]AnnotatedTransaction, 0, len(op.Transactions)),
		IsVisualizeAllowed: caps.Visualize,
		IsCreateAllowed:    caps.Create,
	}
	for _, tx := range op.Transactions {
		txCaps := caps.Transactions[tx.ID]
		if !txCaps.Visualize {
			out.HiddenTransactions++
			continue
		}
		out.Transactions = append(out.Transactions, AnnotatedTransaction{
			Transaction:             tx,
			TransactionCapabilities: txCaps,
		})
	}
	return out
}

// ListOperationsResponse is a page of annotated operations.
type ListOperationsResponse struct {
	Operations []AnnotatedOperation `json:"operations"`
	NextToken  *string              `json:"nextToken,omitempty"`
}

// CancelResponse lists what a cancellation touched.
type CancelResponse struct {
	Cancelled []domain.Transaction `json:"cancelled"`
	Reversals []domain.Transaction `json:"reversals"`
}
