package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func (suite *HandlerTestSuite) TestExchangeRate_WithAPIToken() {
	bot := domain.Actor{UserID: "rate-bot", Permissions: []domain.Permission{{Name: domain.PermExchangeRatesManage}}}
	suite.mockTokens.On("ValidateToken", mock.Anything, "tok-1.s3cret").Return("rate-bot", nil).Once()
	suite.mockPermission.On("ResolveActor", mock.Anything, "rate-bot").Return(bot, nil).Once()
	suite.mockRates.On("CreateExchangeRate", mock.Anything, bot,
		mock.MatchedBy(func(req dto.CreateExchangeRateRequest) bool {
			return req.CurrencyCode == "ars" && req.Rate.Equal(decimal.NewFromInt(1050))
		}),
	).Return(&domain.ExchangeRate{ExchangeRateID: "r1", CurrencyCode: "ars", Rate: decimal.NewFromInt(1050)}, nil).Once()

	raw, _ := json.Marshal(map[string]any{"currencyCode": "ars", "rate": "1050"})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/exchange-rates", bytes.NewReader(raw))
	req.Header.Set(middleware.APITokenHeader, "tok-1.s3cret")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.ExchangeRateResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("r1", resp.ExchangeRateID)
	suite.mockRates.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestInvalidAPITokenWithoutJWT() {
	suite.mockTokens.On("ValidateToken", mock.Anything, "bogus").
		Return("", fmt.Errorf("%w: invalid api token", apperrors.ErrUnauthorized)).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/exchange-rates/latest", nil)
	req.Header.Set(middleware.APITokenHeader, "bogus")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockRates.AssertNotCalled(suite.T(), "ListLatestExchangeRates", mock.Anything)
}

func (suite *HandlerTestSuite) TestMe_ReturnsActor() {
	w := suite.do(suite.router, http.MethodGet, "/api/v1/me", nil)

	suite.Equal(http.StatusOK, w.Code)
	var actor domain.Actor
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &actor))
	suite.Equal(suite.userID, actor.UserID)
	suite.Len(actor.Permissions, 1)
}

func (suite *HandlerTestSuite) TestReplaceUserPermissions() {
	expected := []domain.Permission{{Name: domain.PermOperationsVisualizeSome, EntitiesTags: []string{"clients"}}}
	suite.mockPermission.On("ReplaceUserPermissions", mock.Anything, suite.actor, "user-2", expected).Return(nil).Once()

	w := suite.do(suite.router, http.MethodPut, "/api/v1/users/user-2/permissions", map[string]any{
		"permissions": []map[string]any{{"name": "OPERATIONS_VISUALIZE_SOME", "entitiesTags": []string{"clients"}}},
	})

	suite.Equal(http.StatusNoContent, w.Code, w.Body.String())
	suite.mockPermission.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestReplaceRolePermissions_Invalid() {
	suite.mockPermission.On("ReplaceRolePermissions", mock.Anything, suite.actor, "cashier", mock.Anything).
		Return(fmt.Errorf("%w: TRANSACTIONS_UPDATE_SOME needs at least one entity or tag", apperrors.ErrValidation)).Once()

	w := suite.do(suite.router, http.MethodPut, "/api/v1/roles/cashier/permissions", map[string]any{
		"permissions": []map[string]any{{"name": "TRANSACTIONS_UPDATE_SOME"}},
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteEntity_InUse() {
	suite.mockEntity.On("DeleteEntity", mock.Anything, suite.actor, int64(4)).
		Return(apperrors.NewConflictError(apperrors.ConflictEntityInUse, 31, "entity 4 is referenced by transactions")).Once()

	w := suite.do(suite.router, http.MethodDelete, "/api/v1/entities/4", nil)

	suite.Equal(http.StatusConflict, w.Code)
	var resp dto.ErrorResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(apperrors.ConflictEntityInUse, resp.Kind)
	suite.Require().NotNil(resp.TransactionID)
	suite.Equal(int64(31), *resp.TransactionID)
}

func (suite *HandlerTestSuite) TestCreateTag_Duplicate() {
	suite.mockTag.On("CreateTag", mock.Anything, suite.actor, dto.CreateTagRequest{Name: "clients"}).
		Return(nil, fmt.Errorf("%w: tag clients", apperrors.ErrDuplicate)).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/tags", map[string]any{"name": "clients"})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestUnifiedByTag() {
	unified := &domain.UnifiedBalances{Cash: decimal.NewFromInt(10), CurrentAccount: decimal.NewFromInt(-4)}
	suite.mockBalance.On("UnifiedByTag", mock.Anything, suite.actor, "clients").Return(unified, nil).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/balances/tags/clients/unified", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp domain.UnifiedBalances
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.CurrentAccount.Equal(decimal.NewFromInt(-4)))
}

func (suite *HandlerTestSuite) TestVerifyBalances_RequiresAdmin() {
	suite.mockBalance.On("VerifyBalances", mock.Anything, suite.actor).
		Return(nil, fmt.Errorf("%w: ADMIN required", apperrors.ErrForbidden)).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/balances/verify", nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestCreateAPIToken() {
	created := &domain.APIToken{ID: "3f1c8a52-2f0e-4d4c-9a57-5b0a3c2f7e11", UserID: "rate-bot", Name: "rates", CreatedAt: time.Now()}
	suite.mockTokens.On("CreateToken", mock.Anything, suite.actor, "rate-bot", "rates",
		mock.MatchedBy(func(d *time.Duration) bool { return d != nil && *d == time.Hour }),
	).Return(created.ID+".plain", created, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/api-tokens", map[string]any{
		"userId": "rate-bot", "name": "rates", "expiresIn": 3600,
	})

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.CreateAPITokenResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(created.ID+".plain", resp.TokenString)
	suite.Equal("rate-bot", resp.Details.UserID)
}

func (suite *HandlerTestSuite) TestRevokeAPIToken_InvalidID() {
	w := suite.do(suite.router, http.MethodDelete, "/api/v1/api-tokens/not-a-uuid", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockTokens.AssertNotCalled(suite.T(), "RevokeToken", mock.Anything, mock.Anything, mock.Anything)
}
