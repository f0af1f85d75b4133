package pgsql

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/SscSPs/maika_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a repository for operations, transactions, movements and balance cells.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const (
	selectTransactionFields = `
		t.transaction_id, t.operation_id, t.transaction_type, t.from_entity_id, t.to_entity_id,
		t.operator_entity_id, t.currency, t.amount, t.method, t.status, t.transaction_date, t.reversal_of_id,
		m.uploaded_by, m.uploaded_date, m.confirmed_by, m.confirmed_date, m.cancelled_by, m.cancelled_date,
		m.related_transaction_id, m.history, m.extra
	`

	fromTransactions = `
		FROM transactions t
		JOIN transaction_metadata m ON m.transaction_id = t.transaction_id
	`

	selectOperationFields = `
		operation_id, operation_date, observations, created_at, created_by, last_updated_at, last_updated_by
	`

	selectMovementFields = `
		movement_id, transaction_id, balance_id, account, direction, movement_type, created_at
	`
)

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		t        domain.Transaction
		typ      string
		status   string
		history  []byte
		extraRaw []byte
	)
	err := row.Scan(
		&t.ID, &t.OperationID, &typ, &t.FromEntityID, &t.ToEntityID,
		&t.OperatorEntityID, &t.Currency, &t.Amount, &t.Method, &status, &t.Date, &t.ReversalOfID,
		&t.Metadata.UploadedBy, &t.Metadata.UploadedDate, &t.Metadata.ConfirmedBy, &t.Metadata.ConfirmedDate,
		&t.Metadata.CancelledBy, &t.Metadata.CancelledDate, &t.Metadata.RelatedTransactionID,
		&history, &extraRaw,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	t.Type = domain.TransactionType(typ)
	t.Status = domain.TransactionStatus(status)

	t.Metadata.History = []domain.ChangeRecord{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &t.Metadata.History); err != nil {
			return domain.Transaction{}, fmt.Errorf("failed to decode history of transaction %d: %w", t.ID, err)
		}
	}
	extra, err := domain.ParseExtra(extraRaw)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("stored metadata of transaction %d is invalid: %w", t.ID, err)
	}
	t.Metadata.Extra = extra
	return t, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()
	out := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanOperation(row rowScanner) (domain.Operation, error) {
	var op domain.Operation
	err := row.Scan(&op.ID, &op.Date, &op.Observations,
		&op.CreatedAt, &op.CreatedBy, &op.LastUpdatedAt, &op.LastUpdatedBy)
	return op, err
}

func findMovements(ctx context.Context, q querier, transactionID int64) ([]domain.Movement, error) {
	rows, err := q.Query(ctx, `SELECT `+selectMovementFields+` FROM movements WHERE transaction_id = $1 ORDER BY movement_id`, transactionID)
	if err != nil {
		return nil, wrapDBError("failed to query movements", err)
	}
	defer rows.Close()

	out := []domain.Movement{}
	for rows.Next() {
		var m domain.Movement
		var typ string
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.BalanceID, &m.Account, &m.Direction, &typ, &m.CreatedAt); err != nil {
			return nil, wrapDBError("failed to scan movement", err)
		}
		m.Type = domain.MovementType(typ)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating movements", err)
	}
	return out, nil
}

// transactionsByOperation groups the transactions of the given operations by operation id.
func (r *PgxLedgerRepository) transactionsByOperation(ctx context.Context, operationIDs []int64) (map[int64][]domain.Transaction, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+selectTransactionFields+fromTransactions+`
		WHERE t.operation_id = ANY($1) ORDER BY t.transaction_id`, operationIDs)
	if err != nil {
		return nil, wrapDBError("failed to query transactions", err)
	}
	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, wrapDBError("failed to scan transactions", err)
	}
	out := make(map[int64][]domain.Transaction, len(operationIDs))
	for _, t := range txs {
		out[t.OperationID] = append(out[t.OperationID], t)
	}
	return out, nil
}

// FindOperationByID retrieves an operation together with its transactions.
func (r *PgxLedgerRepository) FindOperationByID(ctx context.Context, operationID int64) (*domain.Operation, error) {
	op, err := scanOperation(r.Pool.QueryRow(ctx, `SELECT `+selectOperationFields+` FROM operations WHERE operation_id = $1`, operationID))
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("operation %d", operationID), "failed to find")
	}
	byOp, err := r.transactionsByOperation(ctx, []int64{operationID})
	if err != nil {
		return nil, err
	}
	op.Transactions = byOp[operationID]
	return &op, nil
}

// ListOperations pages operations newest first, keyed on (date, id).
// Entity, currency and status filters match when any transaction of the operation matches all of them.
func (r *PgxLedgerRepository) ListOperations(ctx context.Context, filter domain.OperationFilter, limit int, nextToken *string) ([]domain.Operation, *string, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.FromDate != nil {
		where = append(where, "o.operation_date >= "+arg(*filter.FromDate))
	}
	if filter.ToDate != nil {
		where = append(where, "o.operation_date <= "+arg(*filter.ToDate))
	}
	var txConds []string
	if filter.EntityID != nil {
		p := arg(*filter.EntityID)
		txConds = append(txConds, fmt.Sprintf("(t.from_entity_id = %[1]s OR t.to_entity_id = %[1]s OR t.operator_entity_id = %[1]s)", p))
	}
	if filter.Currency != nil {
		txConds = append(txConds, "t.currency = "+arg(*filter.Currency))
	}
	if filter.Status != nil {
		txConds = append(txConds, "t.status = "+arg(string(*filter.Status)))
	}
	if len(txConds) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM transactions t WHERE t.operation_id = o.operation_id AND "+strings.Join(txConds, " AND ")+")")
	}

	if nextToken != nil && *nextToken != "" {
		date, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		where = append(where, fmt.Sprintf("(o.operation_date, o.operation_id) < (%s, %s)", arg(date), arg(id)))
	}

	query := `SELECT o.operation_id, o.operation_date, o.observations, o.created_at, o.created_by, o.last_updated_at, o.last_updated_by
		FROM operations o`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	// Fetch one extra row to know whether another page exists.
	query += " ORDER BY o.operation_date DESC, o.operation_id DESC LIMIT " + arg(limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, wrapDBError("failed to list operations", err)
	}
	ops := []domain.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			rows.Close()
			return nil, nil, wrapDBError("failed to scan operation", err)
		}
		ops = append(ops, op)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, wrapDBError("error iterating operations", err)
	}

	var token *string
	if len(ops) > limit {
		ops = ops[:limit]
		last := ops[len(ops)-1]
		t := pagination.EncodeToken(last.Date, last.ID)
		token = &t
	}
	if len(ops) == 0 {
		return ops, nil, nil
	}

	ids := make([]int64, len(ops))
	for i, op := range ops {
		ids[i] = op.ID
	}
	byOp, err := r.transactionsByOperation(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	for i := range ops {
		ops[i].Transactions = byOp[ops[i].ID]
	}
	return ops, token, nil
}

// FindTransactionByID retrieves a single transaction.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	t, err := scanTransaction(r.Pool.QueryRow(ctx, `SELECT `+selectTransactionFields+fromTransactions+` WHERE t.transaction_id = $1`, transactionID))
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("transaction %d", transactionID), "failed to find")
	}
	return &t, nil
}

// FindMovementsByTransactionID lists the movements posted for a transaction.
func (r *PgxLedgerRepository) FindMovementsByTransactionID(ctx context.Context, transactionID int64) ([]domain.Movement, error) {
	return findMovements(ctx, r.Pool, transactionID)
}

// WithTx runs fn inside one database transaction.
func (r *PgxLedgerRepository) WithTx(ctx context.Context, fn func(tx portsrepo.LedgerTx) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgxLedgerTx{tx: tx})
	})
}

// pgxLedgerTx implements the writes of one ledger unit of work.
type pgxLedgerTx struct {
	tx pgx.Tx
}

func (l *pgxLedgerTx) LockTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	t, err := scanTransaction(l.tx.QueryRow(ctx, `SELECT `+selectTransactionFields+fromTransactions+`
		WHERE t.transaction_id = $1 FOR UPDATE OF t, m`, transactionID))
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("transaction %d", transactionID), "failed to lock")
	}
	return &t, nil
}

func (l *pgxLedgerTx) LockOperationTransactions(ctx context.Context, operationID int64) ([]domain.Transaction, error) {
	var id int64
	err := l.tx.QueryRow(ctx, `SELECT operation_id FROM operations WHERE operation_id = $1 FOR UPDATE`, operationID).Scan(&id)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("operation %d", operationID), "failed to lock")
	}
	rows, err := l.tx.Query(ctx, `SELECT `+selectTransactionFields+fromTransactions+`
		WHERE t.operation_id = $1 ORDER BY t.transaction_id FOR UPDATE OF t, m`, operationID)
	if err != nil {
		return nil, wrapDBError("failed to lock operation transactions", err)
	}
	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, wrapDBError("failed to scan operation transactions", err)
	}
	return txs, nil
}

func (l *pgxLedgerTx) InsertOperation(ctx context.Context, op *domain.Operation) error {
	err := l.tx.QueryRow(ctx, `
		INSERT INTO operations (operation_date, observations, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING operation_id`,
		op.Date, op.Observations, op.CreatedAt, op.CreatedBy, op.LastUpdatedAt, op.LastUpdatedBy,
	).Scan(&op.ID)
	if err != nil {
		return wrapDBError("failed to insert operation", err)
	}
	return nil
}

// entityReferenceError maps foreign key violations on transaction columns.
func entityReferenceError(err error, t domain.Transaction) error {
	code, constraint := pgErrorCode(err)
	if code != pgForeignKeyViolation {
		return nil
	}
	if constraint == "transactions_operation_id_fkey" {
		return apperrors.NewNotFoundError(fmt.Sprintf("operation %d", t.OperationID))
	}
	return fmt.Errorf("%w: entity referenced by transaction does not exist (from %d, to %d, operator %d)",
		apperrors.ErrValidation, t.FromEntityID, t.ToEntityID, t.OperatorEntityID)
}

func encodeMetadata(md domain.TransactionMetadata) ([]byte, []byte, error) {
	history := md.History
	if history == nil {
		history = []domain.ChangeRecord{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode history: %w", err)
	}
	extraJSON, err := json.Marshal(md.Extra.Normalize())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return historyJSON, extraJSON, nil
}

func (l *pgxLedgerTx) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	historyJSON, extraJSON, err := encodeMetadata(t.Metadata)
	if err != nil {
		return err
	}

	err = l.tx.QueryRow(ctx, `
		INSERT INTO transactions (
			operation_id, transaction_type, from_entity_id, to_entity_id, operator_entity_id,
			currency, amount, method, status, transaction_date, reversal_of_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING transaction_id`,
		t.OperationID, string(t.Type), t.FromEntityID, t.ToEntityID, t.OperatorEntityID,
		t.Currency, t.Amount, t.Method, string(t.Status), t.Date, t.ReversalOfID,
	).Scan(&t.ID)
	if err != nil {
		if mapped := entityReferenceError(err, *t); mapped != nil {
			return mapped
		}
		return wrapDBError("failed to insert transaction", err)
	}

	md := t.Metadata
	_, err = l.tx.Exec(ctx, `
		INSERT INTO transaction_metadata (
			transaction_id, uploaded_by, uploaded_date, confirmed_by, confirmed_date,
			cancelled_by, cancelled_date, related_transaction_id, history, extra
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, md.UploadedBy, md.UploadedDate, md.ConfirmedBy, md.ConfirmedDate,
		md.CancelledBy, md.CancelledDate, md.RelatedTransactionID, historyJSON, extraJSON,
	)
	if err != nil {
		return wrapDBError(fmt.Sprintf("failed to insert metadata of transaction %d", t.ID), err)
	}
	return nil
}

func (l *pgxLedgerTx) UpdateTransaction(ctx context.Context, t domain.Transaction) error {
	historyJSON, extraJSON, err := encodeMetadata(t.Metadata)
	if err != nil {
		return err
	}

	ct, err := l.tx.Exec(ctx, `
		UPDATE transactions
		SET from_entity_id = $2, to_entity_id = $3, operator_entity_id = $4, currency = $5, amount = $6,
		    method = $7, status = $8, transaction_date = $9, reversal_of_id = $10
		WHERE transaction_id = $1`,
		t.ID, t.FromEntityID, t.ToEntityID, t.OperatorEntityID, t.Currency, t.Amount,
		t.Method, string(t.Status), t.Date, t.ReversalOfID,
	)
	if err != nil {
		if mapped := entityReferenceError(err, t); mapped != nil {
			return mapped
		}
		return wrapDBError(fmt.Sprintf("failed to update transaction %d", t.ID), err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("transaction %d", t.ID))
	}

	md := t.Metadata
	_, err = l.tx.Exec(ctx, `
		UPDATE transaction_metadata
		SET confirmed_by = $2, confirmed_date = $3, cancelled_by = $4, cancelled_date = $5,
		    related_transaction_id = $6, history = $7, extra = $8
		WHERE transaction_id = $1`,
		t.ID, md.ConfirmedBy, md.ConfirmedDate, md.CancelledBy, md.CancelledDate,
		md.RelatedTransactionID, historyJSON, extraJSON,
	)
	if err != nil {
		return wrapDBError(fmt.Sprintf("failed to update metadata of transaction %d", t.ID), err)
	}
	return nil
}

func (l *pgxLedgerTx) FindMovementsByTransactionID(ctx context.Context, transactionID int64) ([]domain.Movement, error) {
	return findMovements(ctx, l.tx, transactionID)
}

func (l *pgxLedgerTx) DeleteMovementsByTransactionID(ctx context.Context, transactionID int64) error {
	if _, err := l.tx.Exec(ctx, `DELETE FROM movements WHERE transaction_id = $1`, transactionID); err != nil {
		return wrapDBError(fmt.Sprintf("failed to delete movements of transaction %d", transactionID), err)
	}
	return nil
}

// EnsureBalances upserts the missing cells and then locks every requested cell
// in balance id order, so concurrent writers always acquire locks in the same order.
func (l *pgxLedgerTx) EnsureBalances(ctx context.Context, keys []domain.BalanceKey) (map[domain.BalanceKey]int64, error) {
	out := make(map[domain.BalanceKey]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	sorted := append([]domain.BalanceKey(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return !a.Account && b.Account
	})
	entityIDs := make([]int64, len(sorted))
	currencies := make([]string, len(sorted))
	accounts := make([]bool, len(sorted))
	for i, k := range sorted {
		entityIDs[i], currencies[i], accounts[i] = k.EntityID, k.Currency, k.Account
	}

	_, err := l.tx.Exec(ctx, `
		INSERT INTO balances (entity_id, currency, account, balance, last_updated_at)
		SELECT k.entity_id, k.currency, k.account, 0, NOW()
		FROM unnest($1::bigint[], $2::text[], $3::boolean[]) AS k(entity_id, currency, account)
		ON CONFLICT (entity_id, currency, account) DO NOTHING`,
		entityIDs, currencies, accounts,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return nil, fmt.Errorf("%w: balance cell references an unknown entity", apperrors.ErrValidation)
		}
		return nil, wrapDBError("failed to create balance cells", err)
	}

	rows, err := l.tx.Query(ctx, `
		SELECT b.balance_id, b.entity_id, b.currency, b.account
		FROM balances b
		JOIN unnest($1::bigint[], $2::text[], $3::boolean[]) AS k(entity_id, currency, account)
		  ON b.entity_id = k.entity_id AND b.currency = k.currency AND b.account = k.account
		ORDER BY b.balance_id
		FOR UPDATE OF b`,
		entityIDs, currencies, accounts,
	)
	if err != nil {
		return nil, wrapDBError("failed to lock balance cells", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var k domain.BalanceKey
		if err := rows.Scan(&id, &k.EntityID, &k.Currency, &k.Account); err != nil {
			return nil, wrapDBError("failed to scan balance cell", err)
		}
		out[k] = id
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating balance cells", err)
	}

	for _, k := range keys {
		if _, ok := out[k]; !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("balance cell %d/%s/%s", k.EntityID, k.Currency, domain.AccountName(k.Account)))
		}
	}
	return out, nil
}

// IncrementBalances adds relative deltas; the stored value is never overwritten.
func (l *pgxLedgerTx) IncrementBalances(ctx context.Context, deltas map[int64]decimal.Decimal) error {
	ids := make([]int64, 0, len(deltas))
	for id, d := range deltas {
		if !d.IsZero() {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	const query = `UPDATE balances SET balance = balance + $2, last_updated_at = NOW() WHERE balance_id = $1`
	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(query, id, deltas[id])
	}

	br := l.tx.SendBatch(ctx, batch)
	var batchErr error
	for _, id := range ids {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = wrapDBError(fmt.Sprintf("failed to increment balance %d", id), err)
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = apperrors.NewNotFoundError(fmt.Sprintf("balance %d", id))
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = wrapDBError("failed to close balance increment batch", err)
	}
	return batchErr
}

func (l *pgxLedgerTx) InsertMovements(ctx context.Context, movements []domain.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	const query = `
		INSERT INTO movements (transaction_id, balance_id, account, direction, movement_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	batch := &pgx.Batch{}
	for _, m := range movements {
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		batch.Queue(query, m.TransactionID, m.BalanceID, m.Account, m.Direction, string(m.Type), createdAt)
	}

	br := l.tx.SendBatch(ctx, batch)
	var batchErr error
	for _, m := range movements {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
				batchErr = apperrors.NewNotFoundError(fmt.Sprintf("transaction %d or balance %d", m.TransactionID, m.BalanceID))
			} else {
				batchErr = wrapDBError(fmt.Sprintf("failed to insert movement for transaction %d", m.TransactionID), err)
			}
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = wrapDBError("failed to close movement batch", err)
	}
	return batchErr
}
