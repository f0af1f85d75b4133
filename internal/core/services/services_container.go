package services

import (
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/platform/cache"
	"github.com/SscSPs/maika_backend/internal/platform/config"
)

// ContainerOption tweaks how the service container is assembled.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	audit       portssvc.AuditSink
	invalidator portssvc.Invalidator
	now         func() time.Time
}

// WithAuditSink overrides the audit sink built from the repository provider.
func WithAuditSink(sink portssvc.AuditSink) ContainerOption {
	return func(o *containerOptions) { o.audit = sink }
}

// WithInvalidator adds an external invalidation target next to the local caches.
func WithInvalidator(inv portssvc.Invalidator) ContainerOption {
	return func(o *containerOptions) { o.invalidator = inv }
}

// WithClock sets the clock used to stamp writes.
func WithClock(now func() time.Time) ContainerOption {
	return func(o *containerOptions) { o.now = now }
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ContainerOption) *portssvc.ServiceContainer {
	o := containerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.audit == nil {
		o.audit = NewAuditService(repos.AuditRepo)
	}

	unified := cache.NewStore[domain.UnifiedBalances](cfg.BalanceCacheSize, cfg.BalanceCacheTTL)
	fanout := cache.Fanout{unified}
	if o.invalidator != nil {
		fanout = append(fanout, o.invalidator)
	}

	base := BaseService{Audit: o.audit, Invalidator: fanout, Now: o.now}

	// The tag service owns the tree every evaluator reads.
	tags := NewTagService(repos.TagRepo, base)

	return &portssvc.ServiceContainer{
		Tag:    tags,
		Entity: NewEntityService(repos.EntityRepo, tags, base),
		Ledger: NewLedgerService(repos.LedgerRepo, repos.EntityRepo, tags, base,
			WithDefaultPageSize(cfg.DefaultPageSize)),
		Balance:      NewBalanceService(repos.BalanceRepo, repos.EntityRepo, repos.ExchangeRateRepo, tags, unified, base),
		Permission:   NewPermissionService(repos.PermissionRepo, base),
		ExchangeRate: NewExchangeRateService(repos.ExchangeRateRepo, base),
		APIToken:     NewAPITokenService(repos.APITokenRepo, base),
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.LedgerSvcFacade       = (*ledgerService)(nil)
	_ portssvc.BalanceSvcFacade      = (*balanceService)(nil)
	_ portssvc.TagSvcFacade          = (*tagService)(nil)
	_ portssvc.EntitySvcFacade       = (*entityService)(nil)
	_ portssvc.PermissionSvcFacade   = (*permissionService)(nil)
	_ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)
	_ portssvc.APITokenSvc           = (*apiTokenService)(nil)
	_ portssvc.AuditSink             = (*auditService)(nil)
)
