package pgsql

import (
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:       newPgxLedgerRepository(dbPool),
		BalanceRepo:      newPgxBalanceRepository(dbPool),
		TagRepo:          newPgxTagRepository(dbPool),
		EntityRepo:       newPgxEntityRepository(dbPool),
		PermissionRepo:   newPgxPermissionRepository(dbPool),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
		APITokenRepo:     newPgxAPITokenRepository(dbPool),
		AuditRepo:        newPgxAuditRepository(dbPool),
	}
}
