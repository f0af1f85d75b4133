package repositories

import (
	"context"
)

// TxRunner runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type TxRunner[T any] interface {
	WithTx(ctx context.Context, fn func(tx T) error) error
}
