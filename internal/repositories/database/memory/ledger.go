package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/SscSPs/maika_backend/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

func (st *state) operationWithTransactions(id int64) (*domain.Operation, bool) {
	op, ok := st.operations[id]
	if !ok {
		return nil, false
	}
	op.Transactions = st.operationTransactions(id)
	return &op, true
}

func (st *state) operationTransactions(opID int64) []domain.Transaction {
	var txs []domain.Transaction
	for _, t := range st.transactions {
		if t.OperationID == opID {
			txs = append(txs, cloneTransaction(t))
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs
}

func (st *state) movementsOf(txID int64) []domain.Movement {
	var out []domain.Movement
	for _, m := range st.movements {
		if m.TransactionID == txID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindOperationByID implements repositories.LedgerReader.
func (s *Store) FindOperationByID(_ context.Context, operationID int64) (*domain.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.st.operationWithTransactions(operationID)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("operation %d", operationID))
	}
	return op, nil
}

func matchesFilter(op domain.Operation, f domain.OperationFilter) bool {
	if f.FromDate != nil && op.Date.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && op.Date.After(*f.ToDate) {
		return false
	}
	if f.EntityID == nil && f.Currency == nil && f.Status == nil {
		return true
	}
	for _, t := range op.Transactions {
		if f.EntityID != nil && t.FromEntityID != *f.EntityID && t.ToEntityID != *f.EntityID && t.OperatorEntityID != *f.EntityID {
			continue
		}
		if f.Currency != nil && t.Currency != *f.Currency {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		return true
	}
	return false
}

// ListOperations implements repositories.LedgerReader. Operations are ordered by
// date then id, newest first.
func (s *Store) ListOperations(_ context.Context, filter domain.OperationFilter, limit int, nextToken *string) ([]domain.Operation, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Operation, 0, len(s.st.operations))
	for id := range s.st.operations {
		op, _ := s.st.operationWithTransactions(id)
		if matchesFilter(*op, filter) {
			all = append(all, *op)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID > all[j].ID
	})

	if nextToken != nil && *nextToken != "" {
		date, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		start := len(all)
		for i, op := range all {
			if op.Date.Before(date) || (op.Date.Equal(date) && op.ID < id) {
				start = i
				break
			}
		}
		all = all[start:]
	}

	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	if len(all) <= limit {
		return all, nil, nil
	}
	page := all[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.Date, last.ID)
	return page, &token, nil
}

// FindTransactionByID implements repositories.LedgerReader.
func (s *Store) FindTransactionByID(_ context.Context, transactionID int64) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.transactions[transactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("transaction %d", transactionID))
	}
	t = cloneTransaction(t)
	return &t, nil
}

// FindMovementsByTransactionID implements repositories.LedgerReader.
func (s *Store) FindMovementsByTransactionID(_ context.Context, transactionID int64) ([]domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.movementsOf(transactionID), nil
}

// ledgerTx runs with the store lock already held by WithTx.
type ledgerTx struct {
	s *Store
}

func (t *ledgerTx) LockTransaction(_ context.Context, transactionID int64) (*domain.Transaction, error) {
	if err := t.s.fail("LockTransaction"); err != nil {
		return nil, err
	}
	tx, ok := t.s.st.transactions[transactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("transaction %d", transactionID))
	}
	tx = cloneTransaction(tx)
	return &tx, nil
}

func (t *ledgerTx) LockOperationTransactions(_ context.Context, operationID int64) ([]domain.Transaction, error) {
	if err := t.s.fail("LockOperationTransactions"); err != nil {
		return nil, err
	}
	if _, ok := t.s.st.operations[operationID]; !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("operation %d", operationID))
	}
	return t.s.st.operationTransactions(operationID), nil
}

func (t *ledgerTx) InsertOperation(_ context.Context, op *domain.Operation) error {
	if err := t.s.fail("InsertOperation"); err != nil {
		return err
	}
	op.ID = t.s.st.id("operations")
	stored := *op
	stored.Transactions = nil
	t.s.st.operations[op.ID] = stored
	return nil
}

func (t *ledgerTx) checkEntities(ids ...int64) error {
	for _, id := range ids {
		if _, ok := t.s.st.entities[id]; !ok {
			return fmt.Errorf("%w: entity %d does not exist", apperrors.ErrValidation, id)
		}
	}
	return nil
}

func (t *ledgerTx) InsertTransaction(_ context.Context, tx *domain.Transaction) error {
	if err := t.s.fail("InsertTransaction"); err != nil {
		return err
	}
	if _, ok := t.s.st.operations[tx.OperationID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("operation %d", tx.OperationID))
	}
	if err := t.checkEntities(tx.FromEntityID, tx.ToEntityID, tx.OperatorEntityID); err != nil {
		return err
	}
	tx.ID = t.s.st.id("transactions")
	t.s.st.transactions[tx.ID] = cloneTransaction(*tx)
	return nil
}

func (t *ledgerTx) UpdateTransaction(_ context.Context, tx domain.Transaction) error {
	if err := t.s.fail("UpdateTransaction"); err != nil {
		return err
	}
	if _, ok := t.s.st.transactions[tx.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("transaction %d", tx.ID))
	}
	if err := t.checkEntities(tx.FromEntityID, tx.ToEntityID, tx.OperatorEntityID); err != nil {
		return err
	}
	t.s.st.transactions[tx.ID] = cloneTransaction(tx)
	return nil
}

func (t *ledgerTx) FindMovementsByTransactionID(_ context.Context, transactionID int64) ([]domain.Movement, error) {
	return t.s.st.movementsOf(transactionID), nil
}

func (t *ledgerTx) DeleteMovementsByTransactionID(_ context.Context, transactionID int64) error {
	if err := t.s.fail("DeleteMovementsByTransactionID"); err != nil {
		return err
	}
	for id, m := range t.s.st.movements {
		if m.TransactionID == transactionID {
			delete(t.s.st.movements, id)
		}
	}
	return nil
}

func (t *ledgerTx) EnsureBalances(_ context.Context, keys []domain.BalanceKey) (map[domain.BalanceKey]int64, error) {
	if err := t.s.fail("EnsureBalances"); err != nil {
		return nil, err
	}
	out := make(map[domain.BalanceKey]int64, len(keys))
	for _, k := range keys {
		id, ok := t.s.st.balanceIdx[k]
		if !ok {
			if err := t.checkEntities(k.EntityID); err != nil {
				return nil, err
			}
			id = t.s.st.id("balances")
			t.s.st.balances[id] = domain.Balance{
				ID:            id,
				EntityID:      k.EntityID,
				Currency:      k.Currency,
				Account:       k.Account,
				Balance:       decimal.Zero,
				LastUpdatedAt: t.s.now(),
			}
			t.s.st.balanceIdx[k] = id
		}
		out[k] = id
	}
	return out, nil
}

func (t *ledgerTx) IncrementBalances(_ context.Context, deltas map[int64]decimal.Decimal) error {
	if err := t.s.fail("IncrementBalances"); err != nil {
		return err
	}
	for id, d := range deltas {
		b, ok := t.s.st.balances[id]
		if !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("balance %d", id))
		}
		b.Balance = b.Balance.Add(d)
		b.LastUpdatedAt = t.s.now()
		t.s.st.balances[id] = b
	}
	return nil
}

func (t *ledgerTx) InsertMovements(_ context.Context, movements []domain.Movement) error {
	if err := t.s.fail("InsertMovements"); err != nil {
		return err
	}
	for _, m := range movements {
		if _, ok := t.s.st.transactions[m.TransactionID]; !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("transaction %d", m.TransactionID))
		}
		if _, ok := t.s.st.balances[m.BalanceID]; !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("balance %d", m.BalanceID))
		}
		m.ID = t.s.st.id("movements")
		if m.CreatedAt.IsZero() {
			m.CreatedAt = t.s.now()
		}
		t.s.st.movements[m.ID] = m
	}
	return nil
}
