package memory

import (
	"context"
	"sort"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/SscSPs/maika_backend/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// ListBalances implements repositories.BalanceRepositoryFacade.
func (s *Store) ListBalances(_ context.Context, filter domain.BalanceFilter) ([]domain.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids map[int64]struct{}
	if filter.EntityIDs != nil {
		ids = make(map[int64]struct{}, len(filter.EntityIDs))
		for _, id := range filter.EntityIDs {
			ids[id] = struct{}{}
		}
	}
	out := []domain.Balance{}
	for _, b := range s.st.balances {
		if ids != nil {
			if _, ok := ids[b.EntityID]; !ok {
				continue
			}
		}
		if filter.Currency != nil && b.Currency != *filter.Currency {
			continue
		}
		if filter.Account != nil && b.Account != *filter.Account {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListPairBalances implements repositories.BalanceRepositoryFacade.
func (s *Store) ListPairBalances(_ context.Context, entityIDs []int64) ([]domain.PairBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		wanted[id] = struct{}{}
	}
	var entries []accounting.PairEntry
	for _, m := range s.st.movements {
		b := s.st.balances[m.BalanceID]
		if _, ok := wanted[b.EntityID]; !ok {
			continue
		}
		tx := s.st.transactions[m.TransactionID]
		counterparty, ok := tx.Counterparty(b.EntityID)
		if !ok {
			continue
		}
		entries = append(entries, accounting.PairEntry{
			EntityID:       b.EntityID,
			CounterpartyID: counterparty,
			Currency:       b.Currency,
			Account:        b.Account,
			Delta:          tx.Amount.Mul(decimal.NewFromInt(int64(m.Direction))),
		})
	}
	return accounting.SumPairs(entries), nil
}

// SumMovementsByBalance implements repositories.BalanceRepositoryFacade.
func (s *Store) SumMovementsByBalance(_ context.Context) (map[int64]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]decimal.Decimal, len(s.st.balances))
	for _, m := range s.st.movements {
		tx := s.st.transactions[m.TransactionID]
		out[m.BalanceID] = out[m.BalanceID].Add(tx.Amount.Mul(decimal.NewFromInt(int64(m.Direction))))
	}
	return out, nil
}
