package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxExchangeRateRepository struct {
	BaseRepository
}

func newPgxExchangeRateRepository(db *pgxpool.Pool) portsrepo.ExchangeRateRepositoryFacade {
	return &PgxExchangeRateRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (
			exchange_rate_id, currency_code, rate, date_effective,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		rate.ExchangeRateID,
		rate.CurrencyCode,
		rate.Rate,
		rate.DateEffective,
		rate.CreatedAt,
		rate.CreatedBy,
		rate.LastUpdatedAt,
		rate.LastUpdatedBy,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return fmt.Errorf("%w: exchange rate %s", apperrors.ErrDuplicate, rate.ExchangeRateID)
		}
		return wrapDBError("failed to save exchange rate "+rate.ExchangeRateID, err)
	}
	return nil
}

// ListLatestExchangeRates picks, per currency, the rate with the latest effective
// date; ties go to the most recently created row.
func (r *PgxExchangeRateRepository) ListLatestExchangeRates(ctx context.Context) ([]domain.ExchangeRate, error) {
	query := `
		SELECT DISTINCT ON (currency_code)
			exchange_rate_id, currency_code, rate, date_effective,
			created_at, created_by, last_updated_at, last_updated_by
		FROM exchange_rates
		ORDER BY currency_code, date_effective DESC, created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, wrapDBError("failed to list latest exchange rates", err)
	}
	defer rows.Close()

	rates := []domain.ExchangeRate{}
	for rows.Next() {
		var rate domain.ExchangeRate
		err := rows.Scan(
			&rate.ExchangeRateID,
			&rate.CurrencyCode,
			&rate.Rate,
			&rate.DateEffective,
			&rate.CreatedAt,
			&rate.CreatedBy,
			&rate.LastUpdatedAt,
			&rate.LastUpdatedBy,
		)
		if err != nil {
			return nil, wrapDBError("failed to scan exchange rate", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating exchange rates", err)
	}
	return rates, nil
}
