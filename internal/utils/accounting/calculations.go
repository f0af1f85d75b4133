package accounting

import (
	"fmt"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Directions of the two legs of a posting pair.
const (
	DirectionFrom = -1
	DirectionTo   = 1
)

// postingPair returns the from leg (-1) and the to leg (+1) for one account kind.
func postingPair(tx domain.Transaction, account bool, typ domain.MovementType) []domain.Posting {
	return []domain.Posting{
		{
			Key:       domain.BalanceKey{EntityID: tx.FromEntityID, Currency: tx.Currency, Account: account},
			Direction: DirectionFrom,
			Amount:    tx.Amount,
			Type:      typ,
		},
		{
			Key:       domain.BalanceKey{EntityID: tx.ToEntityID, Currency: tx.Currency, Account: account},
			Direction: DirectionTo,
			Amount:    tx.Amount,
			Type:      typ,
		},
	}
}

// InitialStatus is the status a freshly uploaded transaction of the given type lands in.
func InitialStatus(t domain.TransactionType) (domain.TransactionStatus, error) {
	r, err := t.Routing()
	if err != nil {
		return "", err
	}
	if r == domain.RoutingCurrentAccountOnly {
		return domain.StatusPending, nil
	}
	return domain.StatusConfirmed, nil
}

// UploadPostings derives the postings written together with a new transaction.
// Dual types post the current account leg and the auto-confirmation cash leg at once.
func UploadPostings(tx domain.Transaction) ([]domain.Posting, error) {
	r, err := tx.Type.Routing()
	if err != nil {
		return nil, err
	}
	switch r {
	case domain.RoutingCashOnly:
		return postingPair(tx, domain.AccountCash, domain.MovementUpload), nil
	case domain.RoutingCurrentAccountOnly:
		return postingPair(tx, domain.AccountCurrent, domain.MovementUpload), nil
	default:
		out := postingPair(tx, domain.AccountCurrent, domain.MovementUpload)
		return append(out, postingPair(tx, domain.AccountCash, domain.MovementConfirmation)...), nil
	}
}

// ConfirmationPostings derives the cash postings of an explicit confirmation.
func ConfirmationPostings(tx domain.Transaction) ([]domain.Posting, error) {
	r, err := tx.Type.Routing()
	if err != nil {
		return nil, err
	}
	if r != domain.RoutingCurrentAccountOnly {
		return nil, fmt.Errorf("%w: type %q is confirmed on upload", apperrors.ErrValidation, string(tx.Type))
	}
	return postingPair(tx, domain.AccountCash, domain.MovementConfirmation), nil
}

// CancellationPostings derives the compensating postings for a mirror transaction.
// originalStatus is the status the cancelled transaction had before cancellation.
// Dual types compensate both account kinds regardless of that status.
func CancellationPostings(mirror domain.Transaction, originalStatus domain.TransactionStatus) ([]domain.Posting, error) {
	r, err := mirror.Type.Routing()
	if err != nil {
		return nil, err
	}
	switch r {
	case domain.RoutingCashOnly:
		return postingPair(mirror, domain.AccountCash, domain.MovementCancellation), nil
	case domain.RoutingCurrentAccountOnly:
		out := postingPair(mirror, domain.AccountCurrent, domain.MovementCancellation)
		if originalStatus == domain.StatusConfirmed {
			out = append(out, postingPair(mirror, domain.AccountCash, domain.MovementCancellation)...)
		}
		return out, nil
	default:
		out := postingPair(mirror, domain.AccountCurrent, domain.MovementCancellation)
		return append(out, postingPair(mirror, domain.AccountCash, domain.MovementCancellation)...), nil
	}
}

// ValidatePostingsBalance checks that the postings cancel out per currency and account kind.
func ValidatePostingsBalance(postings []domain.Posting) error {
	type bucket struct {
		currency string
		account  bool
	}
	sums := make(map[bucket]decimal.Decimal)
	for _, p := range postings {
		if p.Direction != DirectionFrom && p.Direction != DirectionTo {
			return fmt.Errorf("invalid direction %d", p.Direction)
		}
		if !p.Amount.IsPositive() {
			return fmt.Errorf("posting amount must be positive, got %s", p.Amount.String())
		}
		b := bucket{p.Key.Currency, p.Key.Account}
		sums[b] = sums[b].Add(p.Delta())
	}
	for b, sum := range sums {
		if !sum.IsZero() {
			return fmt.Errorf("postings for %s/%s do not balance to zero: sum is %s", b.currency, domain.AccountName(b.account), sum.String())
		}
	}
	return nil
}

// BalanceDeltas folds postings into one relative increment per cell.
func BalanceDeltas(postings []domain.Posting) map[domain.BalanceKey]decimal.Decimal {
	deltas := make(map[domain.BalanceKey]decimal.Decimal, len(postings))
	for _, p := range postings {
		deltas[p.Key] = deltas[p.Key].Add(p.Delta())
	}
	return deltas
}

// RemovalDeltas returns the increments that undo the given movements.
func RemovalDeltas(movements []domain.Movement, amount decimal.Decimal) map[int64]decimal.Decimal {
	deltas := make(map[int64]decimal.Decimal, len(movements))
	for _, m := range movements {
		d := amount.Mul(decimal.NewFromInt(int64(-m.Direction)))
		deltas[m.BalanceID] = deltas[m.BalanceID].Add(d)
	}
	return deltas
}
