package services

import (
	"context"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/SscSPs/maika_backend/internal/dto"
)

// OperationReaderSvc defines permission-annotated read operations.
type OperationReaderSvc interface {
	// GetOperation retrieves one operation annotated with the actor's capabilities.
	GetOperation(ctx context.Context, actor domain.Actor, operationID int64) (*dto.AnnotatedOperation, error)

	// GetOperations retrieves a page of operations visible to the actor.
	GetOperations(ctx context.Context, actor domain.Actor, params dto.ListOperationsParams) (*dto.ListOperationsResponse, error)
}

// OperationWriterSvc defines the ledger write units. Each call runs in a single
// database transaction.
type OperationWriterSvc interface {
	// CreateOperation persists an operation, its transactions and their upload movements.
	CreateOperation(ctx context.Context, actor domain.Actor, req dto.CreateOperationRequest) (*domain.Operation, error)

	// CreateTransaction adds a transaction to an existing operation.
	CreateTransaction(ctx context.Context, actor domain.Actor, operationID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error)

	// UpdateTransactionValues edits a pending transaction and re-derives its movements.
	UpdateTransactionValues(ctx context.Context, actor domain.Actor, transactionID int64, changes domain.TransactionChanges) (*domain.Transaction, error)

	// UpdateTransactionStatus confirms a pending transaction and posts its cash movements.
	UpdateTransactionStatus(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error)

	// CancelTransaction cancels one transaction through a reversal.
	CancelTransaction(ctx context.Context, actor domain.Actor, transactionID int64) (*dto.CancelResponse, error)

	// CancelOperation cancels every non-terminal transaction of an operation.
	CancelOperation(ctx context.Context, actor domain.Actor, operationID int64) (*dto.CancelResponse, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	OperationReaderSvc
	OperationWriterSvc
}

// BalanceSvcFacade exposes read-only balance views.
type BalanceSvcFacade interface {
	ListBalances(ctx context.Context, actor domain.Actor, params dto.ListBalancesParams) ([]domain.Balance, error)
	UnifiedByEntity(ctx context.Context, actor domain.Actor, entityID int64) (*domain.UnifiedBalances, error)
	UnifiedByTag(ctx context.Context, actor domain.Actor, tagName string) (*domain.UnifiedBalances, error)
	// VerifyBalances checks every cell against its movements. ADMIN only.
	VerifyBalances(ctx context.Context, actor domain.Actor) ([]domain.BalanceDiscrepancy, error)
}
