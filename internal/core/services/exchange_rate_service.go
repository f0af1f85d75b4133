package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type exchangeRateService struct {
	BaseService
	rateRepo portsrepo.ExchangeRateRepositoryFacade
}

// NewExchangeRateService creates the service that ingests provider rates.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepositoryFacade, base BaseService) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{BaseService: base, rateRepo: rateRepo}
}

// CreateExchangeRate stores a new quote. Rates are ingested as given and never derived.
func (s *exchangeRateService) CreateExchangeRate(ctx context.Context, actor domain.Actor, req dto.CreateExchangeRateRequest) (*domain.ExchangeRate, error) {
	if err := s.RequireGlobal(ctx, actor, domain.PermExchangeRatesManage); err != nil {
		return nil, err
	}

	code := strings.ToLower(req.CurrencyCode)
	if !domain.IsKnownCurrency(code) {
		return nil, fmt.Errorf("%w: unknown currency %q", apperrors.ErrValidation, req.CurrencyCode)
	}
	if code == accounting.BaseCurrency {
		return nil, fmt.Errorf("%w: %s is the base currency and has no rate", apperrors.ErrValidation, code)
	}
	// usdt is quoted as a premium percentage, which may be zero or negative.
	if code != accounting.PremiumCurrency && req.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}

	now := s.now()
	effective := now
	if req.DateEffective != nil {
		effective = req.DateEffective.UTC()
	}
	rate := domain.ExchangeRate{
		ExchangeRateID: uuid.NewString(),
		CurrencyCode:   code,
		Rate:           req.Rate,
		DateEffective:  effective,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		s.LogError(ctx, err, "Failed to save exchange rate", slog.String("currency", code))
		return nil, fmt.Errorf("failed to save exchange rate: %w", err)
	}
	s.afterWrite(ctx, "createExchangeRate", actor, req, rate, PrefixBalances)
	s.LogInfo(ctx, "Exchange rate ingested", slog.String("currency", code), slog.String("rate", rate.Rate.String()))
	return &rate, nil
}

func (s *exchangeRateService) ListLatestExchangeRates(ctx context.Context) ([]domain.ExchangeRate, error) {
	rates, err := s.rateRepo.ListLatestExchangeRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	return rates, nil
}
