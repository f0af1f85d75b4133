package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	LedgerRepo       LedgerRepositoryFacade
	BalanceRepo      BalanceRepositoryFacade
	TagRepo          TagRepositoryFacade
	EntityRepo       EntityRepositoryFacade
	PermissionRepo   PermissionRepositoryFacade
	ExchangeRateRepo ExchangeRateRepositoryFacade
	APITokenRepo     APITokenRepository
	AuditRepo        AuditRepository
}
