package domain

import "time"

// Operation is a dated batch grouping one or more transactions.
type Operation struct {
	ID           int64         `json:"id"`
	Date         time.Time     `json:"date"`
	Observations string        `json:"observations"`
	Transactions []Transaction `json:"transactions,omitempty"`
	AuditFields
}

// OperationFilter narrows down operation listings.
type OperationFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	EntityID *int64
	Currency *string
	Status   *TransactionStatus
}
