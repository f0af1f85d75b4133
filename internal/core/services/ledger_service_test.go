package services_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type LedgerServiceTestSuite struct {
	suite.Suite
	f *ledgerFixture
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.f = newLedgerFixture(suite.T())
}

func (suite *LedgerServiceTestSuite) movementsOf(txID int64) []domain.Movement {
	movements, err := suite.f.store.FindMovementsByTransactionID(suite.f.ctx, txID)
	suite.Require().NoError(err)
	return movements
}

func (suite *LedgerServiceTestSuite) assertBalance(entity domain.Entity, currency string, account bool, want string) {
	suite.T().Helper()
	got := suite.f.balance(suite.T(), entity, currency, account)
	suite.Equal(want, got.String(), "balance of %s %s %s", entity.Name, currency, domain.AccountName(account))
}

// --- Test Cases ---

func (suite *LedgerServiceTestSuite) TestCreate_CurrentOnlyPostsCurrentAccount() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)

	suite.Equal(domain.StatusPending, tx.Status)
	suite.Equal("admin", tx.Metadata.UploadedBy)
	suite.Nil(tx.Metadata.ConfirmedBy)

	movements := suite.movementsOf(tx.ID)
	suite.Require().Len(movements, 2)
	for _, m := range movements {
		suite.True(m.Account, "upload of a current-only type must hit the current account")
		suite.Equal(domain.MovementUpload, m.Type)
	}
	suite.ElementsMatch([]int{-1, 1}, []int{movements[0].Direction, movements[1].Direction})

	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "-100")
	suite.assertBalance(f.supplierB, "usd", domain.AccountCurrent, "100")
	suite.assertBalance(f.clientA, "usd", domain.AccountCash, "0")
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestConfirm_PostsCashLegOnly() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)

	confirmed, err := f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusConfirmed, confirmed.Status)
	suite.Require().NotNil(confirmed.Metadata.ConfirmedBy)
	suite.Equal("admin", *confirmed.Metadata.ConfirmedBy)

	suite.assertBalance(f.clientA, "usd", domain.AccountCash, "-100")
	suite.assertBalance(f.supplierB, "usd", domain.AccountCash, "100")
	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "-100")
	suite.assertBalance(f.supplierB, "usd", domain.AccountCurrent, "100")
	suite.Len(suite.movementsOf(tx.ID), 4)
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCancelConfirmed_ReversalNetsToZero() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)
	_, err := f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)

	resp, err := f.svc.Ledger.CancelTransaction(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)
	suite.Require().Len(resp.Cancelled, 1)
	suite.Require().Len(resp.Reversals, 1)

	reversal := resp.Reversals[0]
	suite.Equal(domain.StatusCancelled, resp.Cancelled[0].Status)
	suite.Equal(domain.StatusCancelled, reversal.Status)
	suite.Require().NotNil(reversal.ReversalOfID)
	suite.Equal(tx.ID, *reversal.ReversalOfID)
	suite.Equal(f.supplierB.ID, reversal.FromEntityID)
	suite.Equal(f.clientA.ID, reversal.ToEntityID)

	// Both account kinds are compensated.
	reversalMovements := suite.movementsOf(reversal.ID)
	suite.Len(reversalMovements, 4)
	for _, m := range reversalMovements {
		suite.Equal(domain.MovementCancellation, m.Type)
	}

	for _, account := range []bool{domain.AccountCash, domain.AccountCurrent} {
		suite.assertBalance(f.clientA, "usd", account, "0")
		suite.assertBalance(f.supplierB, "usd", account, "0")
	}
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCancelPending_CompensatesCurrentAccountOnly() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCable, f.clientA, f.supplierB, "usd", 70)

	resp, err := f.svc.Ledger.CancelTransaction(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)

	movements := suite.movementsOf(resp.Reversals[0].ID)
	suite.Len(movements, 2)
	for _, m := range movements {
		suite.True(m.Account)
	}
	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "0")

	cash := false
	balances, err := f.store.ListBalances(f.ctx, domain.BalanceFilter{Account: &cash})
	suite.Require().NoError(err)
	suite.Empty(balances, "no cash cell should exist for a never confirmed transaction")
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCashOnly_ConfirmedOnUpload() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCaja, f.clientA, f.supplierB, "ars", 5000)

	suite.Equal(domain.StatusConfirmed, tx.Status)
	suite.NotNil(tx.Metadata.ConfirmedBy)
	suite.assertBalance(f.clientA, "ars", domain.AccountCash, "-5000")
	suite.assertBalance(f.clientA, "ars", domain.AccountCurrent, "0")

	_, err := f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, tx.ID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestDual_PostsBothLegsAndCancelsBoth() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypePagoCtaCte, f.clientA, f.supplierB, "usd", 40)

	suite.Equal(domain.StatusConfirmed, tx.Status)
	movements := suite.movementsOf(tx.ID)
	suite.Require().Len(movements, 4)
	types := map[domain.MovementType]int{}
	for _, m := range movements {
		types[m.Type]++
	}
	suite.Equal(2, types[domain.MovementUpload])
	suite.Equal(2, types[domain.MovementConfirmation])
	suite.assertBalance(f.supplierB, "usd", domain.AccountCurrent, "40")
	suite.assertBalance(f.supplierB, "usd", domain.AccountCash, "40")

	_, err := f.svc.Ledger.CancelTransaction(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)
	suite.assertBalance(f.supplierB, "usd", domain.AccountCurrent, "0")
	suite.assertBalance(f.supplierB, "usd", domain.AccountCash, "0")
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestUpdateAmount_RederivesMovements() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)
	before := suite.movementsOf(tx.ID)

	amount := decimal.NewFromInt(150)
	updated, err := f.svc.Ledger.UpdateTransactionValues(f.ctx, f.admin, tx.ID, domain.TransactionChanges{Amount: &amount})
	suite.Require().NoError(err)

	suite.Equal("150", updated.Amount.String())
	suite.Require().Len(updated.Metadata.History, 1)
	record := updated.Metadata.History[0]
	suite.Equal("admin", record.ChangedBy)
	suite.Equal([]domain.FieldChange{{Key: "amount", Before: "100", After: "150"}}, record.ChangeData)

	after := suite.movementsOf(tx.ID)
	suite.Len(after, 2)
	for _, old := range before {
		for _, m := range after {
			suite.NotEqual(old.ID, m.ID, "old movements must be deleted")
		}
	}
	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "-150")
	suite.assertBalance(f.supplierB, "usd", domain.AccountCurrent, "150")
	f.requireConsistent(suite.T())

	stored, err := f.store.FindTransactionByID(f.ctx, tx.ID)
	suite.Require().NoError(err)
	suite.Len(stored.Metadata.History, 1)
}

func (suite *LedgerServiceTestSuite) TestUpdateEndpoints_MovesBalances() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)

	to := f.clientC.ID
	_, err := f.svc.Ledger.UpdateTransactionValues(f.ctx, f.admin, tx.ID, domain.TransactionChanges{ToEntityID: &to})
	suite.Require().NoError(err)

	suite.assertBalance(f.supplierB, "usd", domain.AccountCurrent, "0")
	suite.assertBalance(f.clientC, "usd", domain.AccountCurrent, "100")
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestUpdate_SameValuesIsNoop() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)
	audits := len(f.store.AuditRecords())

	amount := decimal.NewFromInt(100)
	updated, err := f.svc.Ledger.UpdateTransactionValues(f.ctx, f.admin, tx.ID, domain.TransactionChanges{Amount: &amount})
	suite.Require().NoError(err)
	suite.Empty(updated.Metadata.History)
	suite.Len(f.store.AuditRecords(), audits)
}

func (suite *LedgerServiceTestSuite) TestUpdate_Rejected() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)

	_, err := f.svc.Ledger.UpdateTransactionValues(f.ctx, f.admin, tx.ID, domain.TransactionChanges{})
	suite.ErrorIs(err, apperrors.ErrValidation)

	zero := decimal.Zero
	_, err = f.svc.Ledger.UpdateTransactionValues(f.ctx, f.admin, tx.ID, domain.TransactionChanges{Amount: &zero})
	suite.ErrorIs(err, apperrors.ErrValidation)

	same := f.clientA.ID
	_, err = f.svc.Ledger.UpdateTransactionValues(f.ctx, f.admin, tx.ID, domain.TransactionChanges{ToEntityID: &same})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)
	amount := decimal.NewFromInt(1)
	_, err = f.svc.Ledger.UpdateTransactionValues(f.ctx, f.admin, tx.ID, domain.TransactionChanges{Amount: &amount})
	var conflict *apperrors.ConflictError
	suite.Require().ErrorAs(err, &conflict)
	suite.Equal(apperrors.ConflictInvalidTransition, conflict.Kind)
	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "-100")
}

func (suite *LedgerServiceTestSuite) TestUpdateOperator_ScopedByEndpointsOnly() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.clientC, "usd", 100)
	actor := actorWith(scoped(domain.PermTransactionsUpdateSome, tagClientes))

	// The new operator sits outside the actor's scope; the endpoints do not.
	operator := f.supplierB.ID
	updated, err := f.svc.Ledger.UpdateTransactionValues(f.ctx, actor, tx.ID, domain.TransactionChanges{OperatorEntityID: &operator})
	suite.Require().NoError(err)
	suite.Equal(f.supplierB.ID, updated.OperatorEntityID)
	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "-100")

	missing := int64(9999)
	_, err = f.svc.Ledger.UpdateTransactionValues(f.ctx, actor, tx.ID, domain.TransactionChanges{OperatorEntityID: &missing})
	suite.ErrorIs(err, apperrors.ErrValidation)

	// Moving an endpoint out of scope is still refused.
	to := f.supplierB.ID
	_, err = f.svc.Ledger.UpdateTransactionValues(f.ctx, actor, tx.ID, domain.TransactionChanges{ToEntityID: &to})
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *LedgerServiceTestSuite) TestConfirmTwice_Conflict() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeFee, f.clientA, f.supplierB, "usd", 3)
	_, err := f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)

	_, err = f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, tx.ID)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.assertBalance(f.clientA, "usd", domain.AccountCash, "-3")
}

func (suite *LedgerServiceTestSuite) TestCancel_TerminalAndReversalRejected() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)
	resp, err := f.svc.Ledger.CancelTransaction(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)

	_, err = f.svc.Ledger.CancelTransaction(f.ctx, f.admin, tx.ID)
	var conflict *apperrors.ConflictError
	suite.Require().ErrorAs(err, &conflict)
	suite.Equal(apperrors.ConflictInvalidTransition, conflict.Kind)

	_, err = f.svc.Ledger.CancelTransaction(f.ctx, f.admin, resp.Reversals[0].ID)
	suite.Require().ErrorAs(err, &conflict)
	suite.Equal(apperrors.ConflictReversal, conflict.Kind)

	_, err = f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, tx.ID)
	suite.ErrorIs(err, apperrors.ErrConflict)
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestFailingStepRollsBackWholeUnit() {
	f := suite.f
	boom := errors.New("disk full")
	f.store.FailOn("InsertMovements", boom)

	_, err := f.svc.Ledger.CreateOperation(f.ctx, f.admin, dto.CreateOperationRequest{
		Date: fixedNow,
		Transactions: []dto.CreateTransactionRequest{
			f.txRequest(domain.TypeCaja, f.clientA, f.supplierB, "usd", 10),
		},
	})
	suite.ErrorIs(err, boom)

	ops, _, err := f.store.ListOperations(f.ctx, domain.OperationFilter{}, 10, nil)
	suite.Require().NoError(err)
	suite.Empty(ops)
	balances, err := f.store.ListBalances(f.ctx, domain.BalanceFilter{})
	suite.Require().NoError(err)
	suite.Empty(balances)
	suite.Empty(f.store.Movements())
	suite.Empty(f.store.AuditRecords())

	f.store.FailOn("InsertMovements", nil)
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)

	// A failed edit leaves movements, balances and history untouched.
	f.store.FailOn("InsertMovements", boom)
	amount := decimal.NewFromInt(150)
	_, err = f.svc.Ledger.UpdateTransactionValues(f.ctx, f.admin, tx.ID, domain.TransactionChanges{Amount: &amount})
	suite.ErrorIs(err, boom)
	f.store.FailOn("InsertMovements", nil)

	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "-100")
	suite.Len(suite.movementsOf(tx.ID), 2)
	stored, err := f.store.FindTransactionByID(f.ctx, tx.ID)
	suite.Require().NoError(err)
	suite.Equal("100", stored.Amount.String())
	suite.Empty(stored.Metadata.History)
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCancelledContextCommitsNothing() {
	f := suite.f
	ctx, cancel := context.WithCancel(f.ctx)
	cancel()

	_, err := f.svc.Ledger.CreateOperation(ctx, f.admin, dto.CreateOperationRequest{
		Date:         fixedNow,
		Transactions: []dto.CreateTransactionRequest{f.txRequest(domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)},
	})
	suite.ErrorIs(err, context.Canceled)

	suite.Empty(f.store.Movements())
	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "0")
	suite.assertBalance(f.supplierB, "usd", domain.AccountCurrent, "0")
	ops, _, err := f.store.ListOperations(f.ctx, domain.OperationFilter{}, 10, nil)
	suite.Require().NoError(err)
	suite.Empty(ops)

	// The same request succeeds once and only once on a live context.
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)
	suite.Len(suite.movementsOf(tx.ID), 2)
	suite.assertBalance(f.clientA, "usd", domain.AccountCurrent, "-100")
	f.requireConsistent(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCreateOperation_LinksRelatedLegsAndCancelsAll() {
	f := suite.f
	zero, one := 0, 1
	usdLeg := f.txRequest(domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)
	usdLeg.RelatedTransactionIndex = &one
	usdLeg.Metadata = []byte(`{"kind":"exchange","exchangeRate":"1000"}`)
	arsLeg := f.txRequest(domain.TypeCambio, f.supplierB, f.clientA, "ars", 100000)
	arsLeg.RelatedTransactionIndex = &zero

	op, err := f.svc.Ledger.CreateOperation(f.ctx, f.admin, dto.CreateOperationRequest{
		Date:         fixedNow,
		Observations: "usd to ars",
		Transactions: []dto.CreateTransactionRequest{usdLeg, arsLeg},
	})
	suite.Require().NoError(err)
	suite.Require().Len(op.Transactions, 2)
	usd, ars := op.Transactions[0], op.Transactions[1]
	suite.Require().NotNil(usd.Metadata.RelatedTransactionID)
	suite.Equal(ars.ID, *usd.Metadata.RelatedTransactionID)
	suite.Require().NotNil(ars.Metadata.RelatedTransactionID)
	suite.Equal(usd.ID, *ars.Metadata.RelatedTransactionID)
	suite.Equal(domain.ExtraExchange, usd.Metadata.Extra.Kind)

	_, err = f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, usd.ID)
	suite.Require().NoError(err)

	resp, err := f.svc.Ledger.CancelOperation(f.ctx, f.admin, op.ID)
	suite.Require().NoError(err)
	suite.Require().Len(resp.Reversals, 2)
	r0, r1 := resp.Reversals[0], resp.Reversals[1]
	suite.Require().NotNil(r0.Metadata.RelatedTransactionID)
	suite.Equal(r1.ID, *r0.Metadata.RelatedTransactionID)
	suite.Require().NotNil(r1.Metadata.RelatedTransactionID)
	suite.Equal(r0.ID, *r1.Metadata.RelatedTransactionID)

	for _, currency := range []string{"usd", "ars"} {
		for _, account := range []bool{domain.AccountCash, domain.AccountCurrent} {
			suite.assertBalance(f.clientA, currency, account, "0")
			suite.assertBalance(f.supplierB, currency, account, "0")
		}
	}
	f.requireConsistent(suite.T())

	// A second call has nothing left to cancel.
	again, err := f.svc.Ledger.CancelOperation(f.ctx, f.admin, op.ID)
	suite.Require().NoError(err)
	suite.Empty(again.Cancelled)
}

func (suite *LedgerServiceTestSuite) TestCancelOperation_AllOrNothingPermission() {
	f := suite.f
	op, err := f.svc.Ledger.CreateOperation(f.ctx, f.admin, dto.CreateOperationRequest{
		Date: fixedNow,
		Transactions: []dto.CreateTransactionRequest{
			f.txRequest(domain.TypeCaja, f.clientA, f.clientC, "usd", 10),
			f.txRequest(domain.TypeCaja, f.clientA, f.supplierB, "usd", 20),
		},
	})
	suite.Require().NoError(err)

	actor := actorWith(scoped(domain.PermTransactionsDeleteSome, tagClientes))
	_, err = f.svc.Ledger.CancelOperation(f.ctx, actor, op.ID)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	stored, err := f.store.FindOperationByID(f.ctx, op.ID)
	suite.Require().NoError(err)
	for _, tx := range stored.Transactions {
		suite.Equal(domain.StatusConfirmed, tx.Status)
	}
}

func (suite *LedgerServiceTestSuite) TestCreate_RequiresPermissionOnBothSides() {
	f := suite.f
	req := func(from, to domain.Entity) dto.CreateOperationRequest {
		return dto.CreateOperationRequest{
			Date:         fixedNow,
			Transactions: []dto.CreateTransactionRequest{f.txRequest(domain.TypeCaja, from, to, "usd", 1)},
		}
	}

	_, err := f.svc.Ledger.CreateOperation(f.ctx, actorWith(), req(f.clientA, f.clientC))
	suite.ErrorIs(err, apperrors.ErrForbidden)

	actor := actorWith(scoped(domain.PermOperationsCreateSome, tagClientes))
	_, err = f.svc.Ledger.CreateOperation(f.ctx, actor, req(f.clientA, f.wholesale))
	suite.NoError(err, "Mayoristas descends from Clientes")

	_, err = f.svc.Ledger.CreateOperation(f.ctx, actor, req(f.clientA, f.supplierB))
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *LedgerServiceTestSuite) TestCreate_ValidationBeforeAnyWrite() {
	f := suite.f
	bad := f.txRequest(domain.TypeCaja, f.clientA, f.clientA, "usd", 1)
	_, err := f.svc.Ledger.CreateOperation(f.ctx, f.admin, dto.CreateOperationRequest{Date: fixedNow, Transactions: []dto.CreateTransactionRequest{bad}})
	suite.ErrorIs(err, apperrors.ErrValidation)

	unknown := f.txRequest(domain.TypeCaja, f.clientA, f.clientC, "usd", 1)
	unknown.ToEntityID = 999
	_, err = f.svc.Ledger.CreateOperation(f.ctx, f.admin, dto.CreateOperationRequest{Date: fixedNow, Transactions: []dto.CreateTransactionRequest{unknown}})
	suite.ErrorIs(err, apperrors.ErrValidation)

	negative := f.txRequest(domain.TypeCaja, f.clientA, f.clientC, "usd", -5)
	_, err = f.svc.Ledger.CreateOperation(f.ctx, f.admin, dto.CreateOperationRequest{Date: fixedNow, Transactions: []dto.CreateTransactionRequest{negative}})
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.Empty(f.store.Movements())
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_AddsToOperation() {
	f := suite.f
	first := f.createOne(suite.T(), domain.TypeCaja, f.clientA, f.clientC, "usd", 10)

	tx, err := f.svc.Ledger.CreateTransaction(f.ctx, f.admin, first.OperationID, f.txRequest(domain.TypeGasto, f.clientC, f.supplierB, "usd", 4))
	suite.Require().NoError(err)
	suite.Equal(first.OperationID, tx.OperationID)
	suite.Equal(fixedNow, tx.Date)

	op, err := f.svc.Ledger.GetOperation(f.ctx, f.admin, first.OperationID)
	suite.Require().NoError(err)
	suite.Len(op.Transactions, 2)
	suite.assertBalance(f.clientC, "usd", domain.AccountCash, "6")
}

func (suite *LedgerServiceTestSuite) TestGetOperation_AnnotatesCapabilities() {
	f := suite.f
	op, err := f.svc.Ledger.CreateOperation(f.ctx, f.admin, dto.CreateOperationRequest{
		Date: fixedNow,
		Transactions: []dto.CreateTransactionRequest{
			f.txRequest(domain.TypeCambio, f.clientA, f.clientC, "usd", 10),
			f.txRequest(domain.TypeCambio, f.clientA, f.supplierB, "usd", 20),
		},
	})
	suite.Require().NoError(err)
	inside, across := op.Transactions[0], op.Transactions[1]

	actor := actorWith(
		scoped(domain.PermOperationsVisualizeSome, tagClientes),
		scoped(domain.PermTransactionsValidateSome, tagClientes),
	)
	annotated, err := f.svc.Ledger.GetOperation(f.ctx, actor, op.ID)
	suite.Require().NoError(err)
	suite.True(annotated.IsVisualizeAllowed, "one visible transaction makes the operation visible")
	suite.False(annotated.IsCreateAllowed)

	// Only the transaction inside the actor's scope is returned.
	suite.Require().Len(annotated.Transactions, 1)
	suite.Equal(1, annotated.HiddenTransactions)
	shown := annotated.Transactions[0]
	suite.Equal(inside.ID, shown.ID)
	suite.True(shown.TransactionCapabilities.Validate)
	suite.True(shown.Visualize)
	suite.False(shown.Delete)

	full, err := f.svc.Ledger.GetOperation(f.ctx, f.admin, op.ID)
	suite.Require().NoError(err)
	suite.Len(full.Transactions, 2)
	suite.Zero(full.HiddenTransactions)

	_, err = f.svc.Ledger.GetOperation(f.ctx, actorWith(), op.ID)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	_, err = f.svc.Ledger.UpdateTransactionStatus(f.ctx, actor, across.ID)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	_, err = f.svc.Ledger.UpdateTransactionStatus(f.ctx, actor, inside.ID)
	suite.NoError(err)
}

func (suite *LedgerServiceTestSuite) TestGetOperations_PaginatesAndFiltersVisibility() {
	f := suite.f
	for i := 0; i < 5; i++ {
		f.createOne(suite.T(), domain.TypeCaja, f.clientA, f.clientC, "usd", int64(i+1))
	}
	hidden := f.createOne(suite.T(), domain.TypeCaja, f.supplierB, f.office, "usd", 1)

	page, err := f.svc.Ledger.GetOperations(f.ctx, f.admin, dto.ListOperationsParams{Limit: 4})
	suite.Require().NoError(err)
	suite.Len(page.Operations, 4)
	suite.Require().NotNil(page.NextToken)
	suite.Equal(hidden.OperationID, page.Operations[0].ID, "newest first")

	rest, err := f.svc.Ledger.GetOperations(f.ctx, f.admin, dto.ListOperationsParams{Limit: 4, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Len(rest.Operations, 2)
	suite.Nil(rest.NextToken)

	actor := actorWith(scoped(domain.PermOperationsVisualizeSome, tagClientes))
	visible, err := f.svc.Ledger.GetOperations(f.ctx, actor, dto.ListOperationsParams{})
	suite.Require().NoError(err)
	suite.Len(visible.Operations, 5)
	for _, op := range visible.Operations {
		suite.NotEqual(hidden.OperationID, op.ID)
	}

	bad := "not-a-token"
	_, err = f.svc.Ledger.GetOperations(f.ctx, f.admin, dto.ListOperationsParams{NextToken: &bad})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestWritesAreAudited() {
	f := suite.f
	tx := f.createOne(suite.T(), domain.TypeCambio, f.clientA, f.supplierB, "usd", 100)
	_, err := f.svc.Ledger.UpdateTransactionStatus(f.ctx, f.admin, tx.ID)
	suite.Require().NoError(err)

	records := f.store.AuditRecords()
	suite.Require().Len(records, 2)
	suite.Equal("createOperation", records[0].Name)
	suite.Equal("updateTransactionStatus", records[1].Name)
	suite.Equal("admin", records[1].Actor)
	suite.NotEmpty(records[0].ID)
	assert.JSONEq(suite.T(), strconv.FormatInt(tx.ID, 10), string(records[1].Input))
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
