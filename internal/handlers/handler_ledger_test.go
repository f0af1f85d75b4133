package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/handlers"
	"github.com/SscSPs/maika_backend/internal/platform/config"
	"github.com/SscSPs/maika_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testJWTSecret = "test-secret-key-that-is-long-enough"
	testIssuer    = "maika-test"
)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router *gin.Engine

	mockLedger     *MockLedgerService
	mockBalance    *MockBalanceService
	mockTag        *MockTagService
	mockEntity     *MockEntityService
	mockPermission *MockPermissionService
	mockRates      *MockExchangeRateService
	mockTokens     *MockAPITokenService
	userID         string
	actor          domain.Actor
}

// newRouter builds the full route table over mocked services.
func (suite *HandlerTestSuite) newRouter(rateLimit string) *gin.Engine {
	r := gin.New()
	cfg := &config.Config{
		JWTSecret:    testJWTSecret,
		JWTIssuer:    testIssuer,
		RateLimit:    rateLimit,
		IsProduction: true,
	}
	container := &portssvc.ServiceContainer{
		Ledger:       suite.mockLedger,
		Balance:      suite.mockBalance,
		Tag:          suite.mockTag,
		Entity:       suite.mockEntity,
		Permission:   suite.mockPermission,
		ExchangeRate: suite.mockRates,
		APIToken:     suite.mockTokens,
	}
	suite.Require().NoError(handlers.RegisterRoutes(r, cfg, container, &utils.PosthogClientWrapper{}))
	return r
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.mockLedger = new(MockLedgerService)
	suite.mockBalance = new(MockBalanceService)
	suite.mockTag = new(MockTagService)
	suite.mockEntity = new(MockEntityService)
	suite.mockPermission = new(MockPermissionService)
	suite.mockRates = new(MockExchangeRateService)
	suite.mockTokens = new(MockAPITokenService)

	suite.userID = uuid.NewString()
	suite.actor = domain.Actor{
		UserID:      suite.userID,
		Permissions: []domain.Permission{{Name: domain.PermOperationsCreate}},
	}
	suite.mockPermission.On("ResolveActor", mock.Anything, suite.userID).Return(suite.actor, nil).Maybe()

	suite.router = suite.newRouter("")
}

func (suite *HandlerTestSuite) token(userID string) string {
	token, err := utils.GenerateJWT(userID, testJWTSecret, time.Hour, testIssuer)
	suite.Require().NoError(err)
	return token
}

func (suite *HandlerTestSuite) do(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+suite.token(suite.userID))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func operationBody(currency, txType string) map[string]any {
	return map[string]any{
		"date":         "2024-05-01T00:00:00Z",
		"observations": "weekly settlement",
		"transactions": []map[string]any{{
			"type":             txType,
			"fromEntityId":     1,
			"toEntityId":       2,
			"operatorEntityId": 3,
			"currency":         currency,
			"amount":           "150.25",
		}},
	}
}

// --- Test Cases ---

func (suite *HandlerTestSuite) TestCreateOperation_Success() {
	created := &domain.Operation{ID: 7, Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	suite.mockLedger.On("CreateOperation", mock.Anything, suite.actor,
		mock.MatchedBy(func(req dto.CreateOperationRequest) bool {
			return len(req.Transactions) == 1 &&
				req.Transactions[0].Currency == "USD" &&
				req.Transactions[0].Amount.Equal(decimal.RequireFromString("150.25"))
		}),
	).Return(created, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/operations", operationBody("USD", "cambio"))

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp domain.Operation
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(7), resp.ID)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestCreateOperation_UnknownCurrency() {
	w := suite.do(suite.router, http.MethodPost, "/api/v1/operations", operationBody("XYZ", "cambio"))

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateOperation")
}

func (suite *HandlerTestSuite) TestCreateOperation_UnknownType() {
	w := suite.do(suite.router, http.MethodPost, "/api/v1/operations", operationBody("usd", "barter"))

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateOperation")
}

func (suite *HandlerTestSuite) TestCreateOperation_Forbidden() {
	suite.mockLedger.On("CreateOperation", mock.Anything, suite.actor, mock.Anything).
		Return(nil, fmt.Errorf("%w: no create grant on entity 2", apperrors.ErrForbidden)).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/operations", operationBody("usd", "caja"))

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestMissingAuthorization() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/operations", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockPermission.AssertNotCalled(suite.T(), "ResolveActor", mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestListOperations_PassesFilters() {
	next := "token-2"
	expected := &dto.ListOperationsResponse{
		Operations: []dto.AnnotatedOperation{{ID: 3, IsVisualizeAllowed: true}},
		NextToken:  &next,
	}
	suite.mockLedger.On("GetOperations", mock.Anything, suite.actor,
		mock.MatchedBy(func(p dto.ListOperationsParams) bool {
			return p.Limit == 5 && p.Status != nil && *p.Status == "pending" &&
				p.EntityID != nil && *p.EntityID == 9
		}),
	).Return(expected, nil).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/operations?limit=5&status=pending&entityId=9", nil)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.ListOperationsResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Operations, 1)
	suite.Equal("token-2", *resp.NextToken)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestListOperations_InvalidStatus() {
	w := suite.do(suite.router, http.MethodGet, "/api/v1/operations?status=archived", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "GetOperations")
}

func (suite *HandlerTestSuite) TestGetOperation_InvalidID() {
	w := suite.do(suite.router, http.MethodGet, "/api/v1/operations/abc", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "GetOperation")
}

func (suite *HandlerTestSuite) TestGetOperation_NotFound() {
	suite.mockLedger.On("GetOperation", mock.Anything, suite.actor, int64(404)).
		Return(nil, apperrors.NewNotFoundError("operation 404")).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/operations/404", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateTransactionValues_ForwardsChanges() {
	updated := &domain.Transaction{ID: 11, Amount: decimal.NewFromInt(90), Status: domain.StatusPending}
	suite.mockLedger.On("UpdateTransactionValues", mock.Anything, suite.actor, int64(11),
		mock.MatchedBy(func(ch domain.TransactionChanges) bool {
			return ch.Amount != nil && ch.Amount.Equal(decimal.NewFromInt(90)) && ch.Currency == nil
		}),
	).Return(updated, nil).Once()

	w := suite.do(suite.router, http.MethodPatch, "/api/v1/transactions/11", map[string]any{"amount": "90"})

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestConfirmTransaction_Conflict() {
	suite.mockLedger.On("UpdateTransactionStatus", mock.Anything, suite.actor, int64(5)).
		Return(nil, apperrors.NewConflictError(apperrors.ConflictInvalidTransition, 5, "transaction is confirmed")).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/transactions/5/confirm", nil)

	suite.Equal(http.StatusConflict, w.Code)
	var resp dto.ErrorResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(apperrors.ConflictInvalidTransition, resp.Kind)
	suite.Require().NotNil(resp.TransactionID)
	suite.Equal(int64(5), *resp.TransactionID)
}

func (suite *HandlerTestSuite) TestCancelTransaction_ReturnsReversal() {
	reversalOf := int64(8)
	resp := &dto.CancelResponse{
		Cancelled: []domain.Transaction{{ID: 8, Status: domain.StatusCancelled}},
		Reversals: []domain.Transaction{{ID: 9, Status: domain.StatusCancelled, ReversalOfID: &reversalOf}},
	}
	suite.mockLedger.On("CancelTransaction", mock.Anything, suite.actor, int64(8)).Return(resp, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/transactions/8/cancel", nil)

	suite.Equal(http.StatusOK, w.Code)
	var body dto.CancelResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Require().Len(body.Reversals, 1)
	suite.Equal(int64(8), *body.Reversals[0].ReversalOfID)
}

func (suite *HandlerTestSuite) TestCancelOperation_InternalErrorIsGeneric() {
	suite.mockLedger.On("CancelOperation", mock.Anything, suite.actor, int64(2)).
		Return(nil, errors.New("connection reset by peer")).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/operations/2/cancel", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "connection reset")
}

func (suite *HandlerTestSuite) TestWriteRoutesAreRateLimited() {
	router := suite.newRouter("2-M")
	suite.mockLedger.On("UpdateTransactionStatus", mock.Anything, suite.actor, int64(1)).
		Return(&domain.Transaction{ID: 1, Status: domain.StatusConfirmed}, nil)
	suite.mockLedger.On("GetOperation", mock.Anything, suite.actor, int64(1)).
		Return(&dto.AnnotatedOperation{ID: 1}, nil)

	suite.Equal(http.StatusOK, suite.do(router, http.MethodPost, "/api/v1/transactions/1/confirm", nil).Code)
	suite.Equal(http.StatusOK, suite.do(router, http.MethodPost, "/api/v1/transactions/1/confirm", nil).Code)
	suite.Equal(http.StatusTooManyRequests, suite.do(router, http.MethodPost, "/api/v1/transactions/1/confirm", nil).Code)

	// Reads are not limited.
	suite.Equal(http.StatusOK, suite.do(router, http.MethodGet, "/api/v1/operations/1", nil).Code)
}

// --- Run Test Suite ---
func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
