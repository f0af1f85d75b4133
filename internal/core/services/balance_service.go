package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/platform/cache"
	"github.com/SscSPs/maika_backend/internal/utils/accounting"
	"github.com/SscSPs/maika_backend/internal/utils/permissions"
	"github.com/shopspring/decimal"
)

type balanceService struct {
	BaseService
	balanceRepo portsrepo.BalanceRepositoryFacade
	entityRepo  portsrepo.EntityRepositoryFacade
	rateRepo    portsrepo.ExchangeRateRepositoryFacade
	tags        portssvc.TagTreeProvider
	unified     *cache.Store[domain.UnifiedBalances] // nil disables caching
}

// NewBalanceService creates the read side of the balance ledger.
func NewBalanceService(
	balanceRepo portsrepo.BalanceRepositoryFacade,
	entityRepo portsrepo.EntityRepositoryFacade,
	rateRepo portsrepo.ExchangeRateRepositoryFacade,
	tags portssvc.TagTreeProvider,
	unified *cache.Store[domain.UnifiedBalances],
	base BaseService,
) portssvc.BalanceSvcFacade {
	return &balanceService{
		BaseService: base,
		balanceRepo: balanceRepo,
		entityRepo:  entityRepo,
		rateRepo:    rateRepo,
		tags:        tags,
		unified:     unified,
	}
}

// ListBalances lists the balance cells of the entities visible to the actor.
func (s *balanceService) ListBalances(ctx context.Context, actor domain.Actor, params dto.ListBalancesParams) ([]domain.Balance, error) {
	filter := params.Filter()
	if !permissions.HasGlobal(actor.Permissions, domain.PermAccountsVisualize) {
		tree, err := s.tags.Tree(ctx)
		if err != nil {
			return nil, err
		}
		if params.EntityID != nil {
			entity, err := s.entityRepo.FindEntityByID(ctx, *params.EntityID)
			if err != nil {
				return nil, fmt.Errorf("failed to get entity %d: %w", *params.EntityID, err)
			}
			if !permissions.EvaluateEntity(actor.Permissions, tree, entity.Ref()) {
				return nil, fmt.Errorf("%w: not allowed to see balances of entity %d", apperrors.ErrForbidden, entity.ID)
			}
		} else {
			entities, err := s.entityRepo.ListEntities(ctx, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to list entities: %w", err)
			}
			refs := make([]domain.EntityRef, len(entities))
			for i, e := range entities {
				refs[i] = e.Ref()
			}
			filter.EntityIDs = permissions.VisibleEntityIDs(actor.Permissions, tree, refs)
		}
	}
	if filter.EntityIDs != nil && len(filter.EntityIDs) == 0 {
		return []domain.Balance{}, nil
	}
	balances, err := s.balanceRepo.ListBalances(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list balances")
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return balances, nil
}

func (s *balanceService) rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	rates, err := s.rateRepo.ListLatestExchangeRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}
	return accounting.RatesByCurrency(rates), nil
}

// cached returns the value under key, computing and storing it on a miss.
func (s *balanceService) cached(key string, compute func() (domain.UnifiedBalances, error)) (*domain.UnifiedBalances, error) {
	var gen uint64
	if s.unified != nil {
		if v, ok := s.unified.Get(key); ok {
			return &v, nil
		}
		gen = s.unified.Generation()
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	if s.unified != nil {
		// Skipped when a write invalidated the cache during compute.
		s.unified.SetIfCurrent(key, v, gen)
	}
	return &v, nil
}

// UnifiedByEntity projects the entity's pairwise balances to usd.
func (s *balanceService) UnifiedByEntity(ctx context.Context, actor domain.Actor, entityID int64) (*domain.UnifiedBalances, error) {
	entity, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity %d: %w", entityID, err)
	}
	tree, err := s.tags.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if !permissions.EvaluateEntity(actor.Permissions, tree, entity.Ref()) {
		return nil, fmt.Errorf("%w: not allowed to see balances of entity %d", apperrors.ErrForbidden, entityID)
	}

	key := cache.Key(PrefixBalances, "entity", strconv.FormatInt(entityID, 10))
	return s.cached(key, func() (domain.UnifiedBalances, error) {
		pairs, err := s.balanceRepo.ListPairBalances(ctx, []int64{entityID})
		if err != nil {
			return domain.UnifiedBalances{}, fmt.Errorf("failed to list pair balances: %w", err)
		}
		rates, err := s.rates(ctx)
		if err != nil {
			return domain.UnifiedBalances{}, err
		}
		return accounting.UnifyPairs(pairs, rates, nil), nil
	})
}

// UnifiedByTag aggregates the balances of every entity under the tag against
// counterparties outside of it.
func (s *balanceService) UnifiedByTag(ctx context.Context, actor domain.Actor, tagName string) (*domain.UnifiedBalances, error) {
	tree, err := s.tags.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if !tree.Contains(tagName) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("tag %q", tagName))
	}
	entities, err := s.entityRepo.ListEntities(ctx, tree.Descendants(tagName))
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	refs := make([]domain.EntityRef, len(entities))
	ids := make([]int64, len(entities))
	group := make(map[int64]struct{}, len(entities))
	for i, e := range entities {
		refs[i] = e.Ref()
		ids[i] = e.ID
		group[e.ID] = struct{}{}
	}
	if !permissions.HasGlobal(actor.Permissions, domain.PermAccountsVisualize) &&
		(len(refs) == 0 || !permissions.Allowed(actor.Permissions, tree, domain.PermAccountsVisualize, refs...)) {
		return nil, fmt.Errorf("%w: not allowed to see balances of tag %q", apperrors.ErrForbidden, tagName)
	}

	key := cache.Key(PrefixBalances, "tag", tagName)
	return s.cached(key, func() (domain.UnifiedBalances, error) {
		if len(ids) == 0 {
			return accounting.UnifyPairs(nil, nil, nil), nil
		}
		pairs, err := s.balanceRepo.ListPairBalances(ctx, ids)
		if err != nil {
			return domain.UnifiedBalances{}, fmt.Errorf("failed to list pair balances: %w", err)
		}
		rates, err := s.rates(ctx)
		if err != nil {
			return domain.UnifiedBalances{}, err
		}
		return accounting.UnifyPairs(pairs, rates, func(counterparty int64) bool {
			_, inside := group[counterparty]
			return inside
		}), nil
	})
}

// VerifyBalances compares every stored balance with the sum of its movements.
func (s *balanceService) VerifyBalances(ctx context.Context, actor domain.Actor) ([]domain.BalanceDiscrepancy, error) {
	if err := s.RequireGlobal(ctx, actor, domain.PermAdmin); err != nil {
		return nil, err
	}
	balances, err := s.balanceRepo.ListBalances(ctx, domain.BalanceFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	sums, err := s.balanceRepo.SumMovementsByBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum movements: %w", err)
	}
	discrepancies := accounting.VerifyBalances(balances, sums)
	if len(discrepancies) > 0 {
		s.GetLogger(ctx).Warn("Balance discrepancies found", "count", len(discrepancies))
	}
	if discrepancies == nil {
		discrepancies = []domain.BalanceDiscrepancy{}
	}
	return discrepancies, nil
}
