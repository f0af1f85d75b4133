package pgsql

import (
	"context"
	"strconv"
	"strings"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxBalanceRepository struct {
	BaseRepository
}

func newPgxBalanceRepository(pool *pgxpool.Pool) portsrepo.BalanceRepositoryFacade {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BalanceRepositoryFacade = (*PgxBalanceRepository)(nil)

// ListBalances lists balance cells matching the filter, ordered by id.
func (r *PgxBalanceRepository) ListBalances(ctx context.Context, filter domain.BalanceFilter) ([]domain.Balance, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.EntityIDs != nil {
		where = append(where, "entity_id = ANY("+arg(filter.EntityIDs)+")")
	}
	if filter.Currency != nil {
		where = append(where, "currency = "+arg(*filter.Currency))
	}
	if filter.Account != nil {
		where = append(where, "account = "+arg(*filter.Account))
	}

	query := `SELECT balance_id, entity_id, currency, account, balance, last_updated_at FROM balances`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY balance_id"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("failed to list balances", err)
	}
	defer rows.Close()

	out := []domain.Balance{}
	for rows.Next() {
		var b domain.Balance
		if err := rows.Scan(&b.ID, &b.EntityID, &b.Currency, &b.Account, &b.Balance, &b.LastUpdatedAt); err != nil {
			return nil, wrapDBError("failed to scan balance", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating balances", err)
	}
	return out, nil
}

// ListPairBalances sums, per entity and counterparty, the movements posted on the entity's cells.
// The counterparty of a movement is the other endpoint of its transaction.
func (r *PgxBalanceRepository) ListPairBalances(ctx context.Context, entityIDs []int64) ([]domain.PairBalance, error) {
	out := []domain.PairBalance{}
	if len(entityIDs) == 0 {
		return out, nil
	}
	rows, err := r.Pool.Query(ctx, `
		SELECT b.entity_id,
		       CASE WHEN t.from_entity_id = b.entity_id THEN t.to_entity_id ELSE t.from_entity_id END AS counterparty_id,
		       b.currency, b.account,
		       SUM(mv.direction * t.amount) AS balance
		FROM movements mv
		JOIN balances b ON b.balance_id = mv.balance_id
		JOIN transactions t ON t.transaction_id = mv.transaction_id
		WHERE b.entity_id = ANY($1)
		  AND (t.from_entity_id = b.entity_id OR t.to_entity_id = b.entity_id)
		GROUP BY 1, 2, 3, 4
		ORDER BY 1, 2, 3, 4`, entityIDs)
	if err != nil {
		return nil, wrapDBError("failed to query pair balances", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.PairBalance
		if err := rows.Scan(&p.EntityID, &p.CounterpartyID, &p.Currency, &p.Account, &p.Balance); err != nil {
			return nil, wrapDBError("failed to scan pair balance", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating pair balances", err)
	}
	return out, nil
}

// SumMovementsByBalance returns Σ direction × amount per balance id.
func (r *PgxBalanceRepository) SumMovementsByBalance(ctx context.Context) (map[int64]decimal.Decimal, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT mv.balance_id, SUM(mv.direction * t.amount)
		FROM movements mv
		JOIN transactions t ON t.transaction_id = mv.transaction_id
		GROUP BY mv.balance_id`)
	if err != nil {
		return nil, wrapDBError("failed to sum movements", err)
	}
	defer rows.Close()

	out := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var id int64
		var sum decimal.Decimal
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, wrapDBError("failed to scan movement sum", err)
		}
		out[id] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating movement sums", err)
	}
	return out, nil
}
