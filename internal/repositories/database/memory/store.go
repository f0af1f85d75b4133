// Package memory is an in-process implementation of every repository port.
// Writes inside WithTx are serialised and rolled back from a snapshot when the
// callback fails, which mirrors the all-or-nothing behaviour of the Postgres store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
)

type state struct {
	nextID map[string]int64

	tags         map[string]domain.Tag
	entities     map[int64]domain.Entity
	operations   map[int64]domain.Operation
	transactions map[int64]domain.Transaction
	movements    map[int64]domain.Movement
	balances     map[int64]domain.Balance
	balanceIdx   map[domain.BalanceKey]int64

	userPerms map[string][]domain.Permission
	rolePerms map[string][]domain.Permission
	userRoles map[string]string

	rates  []domain.ExchangeRate
	tokens map[string]domain.APIToken
	audit  []domain.AuditRecord
}

func newState() *state {
	return &state{
		nextID:       map[string]int64{},
		tags:         map[string]domain.Tag{},
		entities:     map[int64]domain.Entity{},
		operations:   map[int64]domain.Operation{},
		transactions: map[int64]domain.Transaction{},
		movements:    map[int64]domain.Movement{},
		balances:     map[int64]domain.Balance{},
		balanceIdx:   map[domain.BalanceKey]int64{},
		userPerms:    map[string][]domain.Permission{},
		rolePerms:    map[string][]domain.Permission{},
		userRoles:    map[string]string{},
		tokens:       map[string]domain.APIToken{},
	}
}

func (s *state) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func copyMap[K comparable, V any](in map[K]V, cp func(V) V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		if cp != nil {
			v = cp(v)
		}
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	c := &state{
		nextID:       copyMap(s.nextID, nil),
		tags:         copyMap(s.tags, nil),
		entities:     copyMap(s.entities, nil),
		operations:   copyMap(s.operations, nil),
		transactions: copyMap(s.transactions, cloneTransaction),
		movements:    copyMap(s.movements, nil),
		balances:     copyMap(s.balances, nil),
		balanceIdx:   copyMap(s.balanceIdx, nil),
		userPerms:    copyMap(s.userPerms, clonePermissions),
		rolePerms:    copyMap(s.rolePerms, clonePermissions),
		userRoles:    copyMap(s.userRoles, nil),
		rates:        append([]domain.ExchangeRate(nil), s.rates...),
		tokens:       copyMap(s.tokens, nil),
		audit:        append([]domain.AuditRecord(nil), s.audit...),
	}
	return c
}

// cloneTransaction detaches the slices of a transaction so that callers can
// append to the history without touching stored state.
func cloneTransaction(t domain.Transaction) domain.Transaction {
	if t.Metadata.History != nil {
		h := make([]domain.ChangeRecord, len(t.Metadata.History))
		copy(h, t.Metadata.History)
		t.Metadata.History = h
	}
	return t
}

func clonePermissions(perms []domain.Permission) []domain.Permission {
	out := make([]domain.Permission, len(perms))
	for i, p := range perms {
		p.EntitiesIDs = append([]int64(nil), p.EntitiesIDs...)
		p.EntitiesTags = append([]string(nil), p.EntitiesTags...)
		out[i] = p
	}
	return out
}

// Store keeps all data in memory. The zero value is not usable; call New.
type Store struct {
	mu     sync.Mutex
	st     *state
	failOn map[string]error
	now    func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState(), failOn: map[string]error{}, now: time.Now}
}

// FailOn makes the named write method return err until cleared with a nil error.
// It is used to prove that a failing step rolls back the whole write unit.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOn, method)
		return
	}
	s.failOn[method] = err
}

func (s *Store) fail(method string) error {
	if err, ok := s.failOn[method]; ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// Provider exposes the store through every repository port.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:       s,
		BalanceRepo:      s,
		TagRepo:          s,
		EntityRepo:       s,
		PermissionRepo:   s,
		ExchangeRateRepo: s,
		APITokenRepo:     (*apiTokenStore)(s),
		AuditRepo:        s,
	}
}

// WithTx implements repositories.TxRunner. The store lock is held for the whole
// callback, so fn must only use the tx it receives.
func (s *Store) WithTx(ctx context.Context, fn func(tx portsrepo.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	err := fn(&ledgerTx{s: s})
	if err == nil {
		// A cancelled caller never commits.
		err = ctx.Err()
	}
	if err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// AuditRecords returns a copy of everything written to the audit table.
func (s *Store) AuditRecords() []domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditRecord(nil), s.st.audit...)
}

// Movements returns every movement ordered by id.
func (s *Store) Movements() []domain.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Movement, 0, len(s.st.movements))
	for _, m := range s.st.movements {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SaveAuditRecord implements repositories.AuditRepository.
func (s *Store) SaveAuditRecord(_ context.Context, record domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SaveAuditRecord"); err != nil {
		return err
	}
	s.st.audit = append(s.st.audit, record)
	return nil
}

var (
	_ portsrepo.LedgerRepositoryFacade       = (*Store)(nil)
	_ portsrepo.BalanceRepositoryFacade      = (*Store)(nil)
	_ portsrepo.TagRepositoryFacade          = (*Store)(nil)
	_ portsrepo.EntityRepositoryFacade       = (*Store)(nil)
	_ portsrepo.PermissionRepositoryFacade   = (*Store)(nil)
	_ portsrepo.ExchangeRateRepositoryFacade = (*Store)(nil)
	_ portsrepo.AuditRepository              = (*Store)(nil)
	_ portsrepo.APITokenRepository           = (*apiTokenStore)(nil)
	_ portsrepo.LedgerTx                     = (*ledgerTx)(nil)
)
