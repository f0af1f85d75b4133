package repositories

import (
	"context"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerReader defines read operations on operations, transactions and movements.
// Reads run outside any transaction.
type LedgerReader interface {
	// FindOperationByID retrieves an operation together with its transactions.
	FindOperationByID(ctx context.Context, operationID int64) (*domain.Operation, error)

	// ListOperations retrieves a page of operations (with transactions) using token-based pagination.
	// It returns the operations, a token for the next page, and an error.
	ListOperations(ctx context.Context, filter domain.OperationFilter, limit int, nextToken *string) ([]domain.Operation, *string, error)

	// FindTransactionByID retrieves a single transaction.
	FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error)

	// FindMovementsByTransactionID lists the movements posted for a transaction.
	FindMovementsByTransactionID(ctx context.Context, transactionID int64) ([]domain.Movement, error)
}

// LedgerTx is the set of writes available inside one ledger transaction.
type LedgerTx interface {
	// LockTransaction reads a transaction and holds a row lock until the end of the transaction.
	LockTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error)

	// LockOperationTransactions locks every transaction of an operation.
	LockOperationTransactions(ctx context.Context, operationID int64) ([]domain.Transaction, error)

	// InsertOperation persists the operation header and sets its ID.
	InsertOperation(ctx context.Context, op *domain.Operation) error

	// InsertTransaction persists a transaction with its metadata and sets its ID.
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error

	// UpdateTransaction overwrites the mutable columns and metadata of a transaction.
	UpdateTransaction(ctx context.Context, tx domain.Transaction) error

	// FindMovementsByTransactionID lists the movements of a transaction inside the transaction.
	FindMovementsByTransactionID(ctx context.Context, transactionID int64) ([]domain.Movement, error)

	// DeleteMovementsByTransactionID removes the movements of a transaction.
	DeleteMovementsByTransactionID(ctx context.Context, transactionID int64) error

	// EnsureBalances creates missing balance cells, locks all of them and returns their ids.
	EnsureBalances(ctx context.Context, keys []domain.BalanceKey) (map[domain.BalanceKey]int64, error)

	// IncrementBalances applies relative deltas keyed by balance id.
	IncrementBalances(ctx context.Context, deltas map[int64]decimal.Decimal) error

	// InsertMovements persists movements.
	InsertMovements(ctx context.Context, movements []domain.Movement) error
}

// LedgerRepositoryFacade combines ledger reads with transactional writes.
type LedgerRepositoryFacade interface {
	LedgerReader
	TxRunner[LedgerTx]
}

// BalanceRepositoryFacade defines read operations on the balance ledger.
type BalanceRepositoryFacade interface {
	// ListBalances lists balance cells matching the filter.
	ListBalances(ctx context.Context, filter domain.BalanceFilter) ([]domain.Balance, error)

	// ListPairBalances derives, from movements, the signed balance of each entity
	// against each counterparty.
	ListPairBalances(ctx context.Context, entityIDs []int64) ([]domain.PairBalance, error)

	// SumMovementsByBalance returns Σ direction × amount per balance id.
	SumMovementsByBalance(ctx context.Context) (map[int64]decimal.Decimal, error)
}
