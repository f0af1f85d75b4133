package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/core/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/platform/config"
	"github.com/SscSPs/maika_backend/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	tagClientes    = "Clientes"
	tagMayoristas  = "Mayoristas" // child of Clientes
	tagProveedores = "Proveedores"
	tagInterno     = "Interno"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// ledgerFixture wires every service to a fresh in-memory store seeded with a
// small tag forest and a few entities.
type ledgerFixture struct {
	ctx   context.Context
	store *memory.Store
	svc   *portssvc.ServiceContainer

	admin domain.Actor

	clientA   domain.Entity // Clientes
	clientC   domain.Entity // Clientes
	wholesale domain.Entity // Mayoristas
	supplierB domain.Entity // Proveedores
	office    domain.Entity // Interno, used as operator
}

func strPtr(s string) *string { return &s }

func newLedgerFixture(t require.TestingT) *ledgerFixture {
	f := &ledgerFixture{ctx: context.Background(), store: memory.New()}

	for _, tag := range []domain.Tag{
		{Name: tagClientes},
		{Name: tagMayoristas, ParentName: strPtr(tagClientes)},
		{Name: tagProveedores},
		{Name: tagInterno},
	} {
		require.NoError(t, f.store.SaveTag(f.ctx, tag))
	}
	seed := func(name, tag string) domain.Entity {
		e := domain.Entity{Name: name, TagName: tag}
		require.NoError(t, f.store.SaveEntity(f.ctx, &e))
		return e
	}
	f.clientA = seed("Cliente A", tagClientes)
	f.clientC = seed("Cliente C", tagClientes)
	f.wholesale = seed("Mayorista M", tagMayoristas)
	f.supplierB = seed("Proveedor B", tagProveedores)
	f.office = seed("Oficina", tagInterno)

	cfg := &config.Config{BalanceCacheSize: 64, BalanceCacheTTL: time.Minute, DefaultPageSize: 20}
	f.svc = services.NewServiceContainer(cfg, f.store.Provider(), services.WithClock(func() time.Time { return fixedNow }))
	f.admin = domain.Actor{UserID: "admin", Permissions: []domain.Permission{{Name: domain.PermAdmin}}}
	return f
}

func (f *ledgerFixture) txRequest(typ domain.TransactionType, from, to domain.Entity, currency string, amount int64) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{
		Type:             string(typ),
		FromEntityID:     from.ID,
		ToEntityID:       to.ID,
		OperatorEntityID: f.office.ID,
		Currency:         currency,
		Amount:           decimal.NewFromInt(amount),
	}
}

// createOne uploads a single-transaction operation as admin.
func (f *ledgerFixture) createOne(t require.TestingT, typ domain.TransactionType, from, to domain.Entity, currency string, amount int64) domain.Transaction {
	op, err := f.svc.Ledger.CreateOperation(f.ctx, f.admin, dto.CreateOperationRequest{
		Date:         fixedNow,
		Transactions: []dto.CreateTransactionRequest{f.txRequest(typ, from, to, currency, amount)},
	})
	require.NoError(t, err)
	require.Len(t, op.Transactions, 1)
	return op.Transactions[0]
}

// balance returns the stored value of a cell, zero when the cell was never created.
func (f *ledgerFixture) balance(t require.TestingT, entity domain.Entity, currency string, account bool) decimal.Decimal {
	balances, err := f.store.ListBalances(f.ctx, domain.BalanceFilter{
		EntityIDs: []int64{entity.ID},
		Currency:  &currency,
		Account:   &account,
	})
	require.NoError(t, err)
	if len(balances) == 0 {
		return decimal.Zero
	}
	require.Len(t, balances, 1)
	return balances[0].Balance
}

// requireConsistent checks the balance invariant over the whole store.
func (f *ledgerFixture) requireConsistent(t require.TestingT) {
	discrepancies, err := f.svc.Balance.VerifyBalances(f.ctx, f.admin)
	require.NoError(t, err)
	require.Empty(t, discrepancies)
}

func scoped(name domain.PermissionName, tags ...string) domain.Permission {
	return domain.Permission{Name: name, EntitiesTags: tags}
}

func actorWith(perms ...domain.Permission) domain.Actor {
	return domain.Actor{UserID: "operator-1", Permissions: perms}
}
