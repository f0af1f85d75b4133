package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetOperation(ctx context.Context, actor domain.Actor, operationID int64) (*dto.AnnotatedOperation, error) {
	args := m.Called(ctx, actor, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AnnotatedOperation), args.Error(1)
}
func (m *MockLedgerService) GetOperations(ctx context.Context, actor domain.Actor, params dto.ListOperationsParams) (*dto.ListOperationsResponse, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListOperationsResponse), args.Error(1)
}
func (m *MockLedgerService) CreateOperation(ctx context.Context, actor domain.Actor, req dto.CreateOperationRequest) (*domain.Operation, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operation), args.Error(1)
}
func (m *MockLedgerService) CreateTransaction(ctx context.Context, actor domain.Actor, operationID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, actor, operationID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockLedgerService) UpdateTransactionValues(ctx context.Context, actor domain.Actor, transactionID int64, changes domain.TransactionChanges) (*domain.Transaction, error) {
	args := m.Called(ctx, actor, transactionID, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockLedgerService) UpdateTransactionStatus(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, actor, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockLedgerService) CancelTransaction(ctx context.Context, actor domain.Actor, transactionID int64) (*dto.CancelResponse, error) {
	args := m.Called(ctx, actor, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CancelResponse), args.Error(1)
}
func (m *MockLedgerService) CancelOperation(ctx context.Context, actor domain.Actor, operationID int64) (*dto.CancelResponse, error) {
	args := m.Called(ctx, actor, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CancelResponse), args.Error(1)
}

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) ListBalances(ctx context.Context, actor domain.Actor, params dto.ListBalancesParams) ([]domain.Balance, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Balance), args.Error(1)
}
func (m *MockBalanceService) UnifiedByEntity(ctx context.Context, actor domain.Actor, entityID int64) (*domain.UnifiedBalances, error) {
	args := m.Called(ctx, actor, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UnifiedBalances), args.Error(1)
}
func (m *MockBalanceService) UnifiedByTag(ctx context.Context, actor domain.Actor, tagName string) (*domain.UnifiedBalances, error) {
	args := m.Called(ctx, actor, tagName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UnifiedBalances), args.Error(1)
}
func (m *MockBalanceService) VerifyBalances(ctx context.Context, actor domain.Actor) ([]domain.BalanceDiscrepancy, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BalanceDiscrepancy), args.Error(1)
}

// --- Mock TagService ---
type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) Tree(ctx context.Context) (*domain.TagTree, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TagTree), args.Error(1)
}
func (m *MockTagService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tag), args.Error(1)
}
func (m *MockTagService) CreateTag(ctx context.Context, actor domain.Actor, req dto.CreateTagRequest) (*domain.Tag, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}
func (m *MockTagService) ReparentTag(ctx context.Context, actor domain.Actor, name string, req dto.UpdateTagRequest) (*domain.Tag, error) {
	args := m.Called(ctx, actor, name, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}
func (m *MockTagService) DeleteTag(ctx context.Context, actor domain.Actor, name string) error {
	return m.Called(ctx, actor, name).Error(0)
}

// --- Mock EntityService ---
type MockEntityService struct {
	mock.Mock
}

func (m *MockEntityService) GetEntity(ctx context.Context, entityID int64) (*domain.Entity, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}
func (m *MockEntityService) GetEntitiesByIDs(ctx context.Context, entityIDs []int64) (map[int64]domain.Entity, error) {
	args := m.Called(ctx, entityIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]domain.Entity), args.Error(1)
}
func (m *MockEntityService) ListEntities(ctx context.Context, params dto.ListEntitiesParams) ([]domain.Entity, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entity), args.Error(1)
}
func (m *MockEntityService) CreateEntity(ctx context.Context, actor domain.Actor, req dto.CreateEntityRequest) (*domain.Entity, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}
func (m *MockEntityService) UpdateEntity(ctx context.Context, actor domain.Actor, entityID int64, req dto.UpdateEntityRequest) (*domain.Entity, error) {
	args := m.Called(ctx, actor, entityID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}
func (m *MockEntityService) DeleteEntity(ctx context.Context, actor domain.Actor, entityID int64) error {
	return m.Called(ctx, actor, entityID).Error(0)
}

// --- Mock PermissionService ---
type MockPermissionService struct {
	mock.Mock
}

func (m *MockPermissionService) ResolveActor(ctx context.Context, userID string) (domain.Actor, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Actor), args.Error(1)
}
func (m *MockPermissionService) GetUserPermissions(ctx context.Context, actor domain.Actor, userID string) ([]domain.Permission, error) {
	args := m.Called(ctx, actor, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Permission), args.Error(1)
}
func (m *MockPermissionService) ReplaceUserPermissions(ctx context.Context, actor domain.Actor, userID string, perms []domain.Permission) error {
	return m.Called(ctx, actor, userID, perms).Error(0)
}
func (m *MockPermissionService) ReplaceRolePermissions(ctx context.Context, actor domain.Actor, roleName string, perms []domain.Permission) error {
	return m.Called(ctx, actor, roleName, perms).Error(0)
}
func (m *MockPermissionService) AssignRole(ctx context.Context, actor domain.Actor, userID, roleName string) error {
	return m.Called(ctx, actor, userID, roleName).Error(0)
}

// --- Mock ExchangeRateService ---
type MockExchangeRateService struct {
	mock.Mock
}

func (m *MockExchangeRateService) CreateExchangeRate(ctx context.Context, actor domain.Actor, req dto.CreateExchangeRateRequest) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}
func (m *MockExchangeRateService) ListLatestExchangeRates(ctx context.Context) ([]domain.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeRate), args.Error(1)
}

// --- Mock APITokenService ---
type MockAPITokenService struct {
	mock.Mock
}

func (m *MockAPITokenService) CreateToken(ctx context.Context, actor domain.Actor, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	args := m.Called(ctx, actor, userID, name, expiresIn)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.APIToken), args.Error(2)
}
func (m *MockAPITokenService) ListTokens(ctx context.Context, actor domain.Actor, userID string) ([]domain.APIToken, error) {
	args := m.Called(ctx, actor, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIToken), args.Error(1)
}
func (m *MockAPITokenService) RevokeToken(ctx context.Context, actor domain.Actor, tokenID string) error {
	return m.Called(ctx, actor, tokenID).Error(0)
}
func (m *MockAPITokenService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	args := m.Called(ctx, tokenString)
	return args.String(0), args.Error(1)
}

// Ensure mocks implement the interfaces
var (
	_ portssvc.LedgerSvcFacade       = (*MockLedgerService)(nil)
	_ portssvc.BalanceSvcFacade      = (*MockBalanceService)(nil)
	_ portssvc.TagSvcFacade          = (*MockTagService)(nil)
	_ portssvc.EntitySvcFacade       = (*MockEntityService)(nil)
	_ portssvc.PermissionSvcFacade   = (*MockPermissionService)(nil)
	_ portssvc.ExchangeRateSvcFacade = (*MockExchangeRateService)(nil)
	_ portssvc.APITokenSvc           = (*MockAPITokenService)(nil)
)
