package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/utils/accounting"
	"github.com/SscSPs/maika_backend/internal/utils/pagination"
	"github.com/SscSPs/maika_backend/internal/utils/permissions"
	"github.com/shopspring/decimal"
)

// maxPageSize caps GetOperations pages.
const maxPageSize = 200

type ledgerService struct {
	BaseService
	ledgerRepo      portsrepo.LedgerRepositoryFacade
	entityRepo      portsrepo.EntityRepositoryFacade
	tags            portssvc.TagTreeProvider
	defaultPageSize int
}

// LedgerOption configures the ledger service.
type LedgerOption func(*ledgerService)

// WithDefaultPageSize sets the page size used when the caller sends none.
func WithDefaultPageSize(size int) LedgerOption {
	return func(s *ledgerService) {
		s.defaultPageSize = size
	}
}

// NewLedgerService creates the service that owns every ledger write unit.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, entityRepo portsrepo.EntityRepositoryFacade, tags portssvc.TagTreeProvider, base BaseService, opts ...LedgerOption) portssvc.LedgerSvcFacade {
	s := &ledgerService{
		BaseService:     base,
		ledgerRepo:      ledgerRepo,
		entityRepo:      entityRepo,
		tags:            tags,
		defaultPageSize: pagination.DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// entityRefs loads the permission view of the given entities. Unknown ids are
// validation errors.
func (s *ledgerService) entityRefs(ctx context.Context, ids ...int64) (map[int64]domain.EntityRef, error) {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	entities, err := s.entityRepo.FindEntitiesByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	refs := make(map[int64]domain.EntityRef, len(entities))
	for _, id := range unique {
		e, ok := entities[id]
		if !ok {
			return nil, fmt.Errorf("%w: entity %d does not exist", apperrors.ErrValidation, id)
		}
		refs[id] = e.Ref()
	}
	return refs, nil
}

func transactionEntityIDs(txs []domain.Transaction) []int64 {
	ids := make([]int64, 0, len(txs)*3)
	for _, t := range txs {
		ids = append(ids, t.FromEntityID, t.ToEntityID, t.OperatorEntityID)
	}
	return ids
}

func subjectOf(t domain.Transaction, refs map[int64]domain.EntityRef) domain.TransactionSubject {
	return domain.TransactionSubject{TransactionID: t.ID, From: refs[t.FromEntityID], To: refs[t.ToEntityID]}
}

func forbidden(action string, txID int64) error {
	if txID == 0 {
		return fmt.Errorf("%w: not allowed to %s", apperrors.ErrForbidden, action)
	}
	return fmt.Errorf("%w: not allowed to %s transaction %d", apperrors.ErrForbidden, action, txID)
}

// post writes postings for one transaction: balance cells are created and locked
// in a stable order, incremented by relative deltas, then the movements are inserted.
func (s *ledgerService) post(ctx context.Context, tx portsrepo.LedgerTx, transactionID int64, postings []domain.Posting) error {
	if err := accounting.ValidatePostingsBalance(postings); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "unbalanced postings", err)
	}
	deltas := accounting.BalanceDeltas(postings)
	keys := make([]domain.BalanceKey, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].EntityID != keys[j].EntityID {
			return keys[i].EntityID < keys[j].EntityID
		}
		if keys[i].Currency != keys[j].Currency {
			return keys[i].Currency < keys[j].Currency
		}
		return !keys[i].Account && keys[j].Account
	})

	ids, err := tx.EnsureBalances(ctx, keys)
	if err != nil {
		return fmt.Errorf("failed to ensure balances: %w", err)
	}
	byID := make(map[int64]decimal.Decimal, len(deltas))
	for k, d := range deltas {
		byID[ids[k]] = byID[ids[k]].Add(d)
	}
	if err := tx.IncrementBalances(ctx, byID); err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
	}

	now := s.now()
	movements := make([]domain.Movement, 0, len(postings))
	for _, p := range postings {
		movements = append(movements, domain.Movement{
			TransactionID: transactionID,
			BalanceID:     ids[p.Key],
			Account:       p.Key.Account,
			Direction:     p.Direction,
			Type:          p.Type,
			CreatedAt:     now,
		})
	}
	if err := tx.InsertMovements(ctx, movements); err != nil {
		return fmt.Errorf("failed to insert movements: %w", err)
	}
	return nil
}

// upload stamps the upload metadata, inserts the transaction and posts its upload movements.
func (s *ledgerService) upload(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transaction, actor string) error {
	status, err := accounting.InitialStatus(t.Type)
	if err != nil {
		return err
	}
	now := s.now()
	t.Status = status
	t.Metadata.UploadedBy = actor
	t.Metadata.UploadedDate = now
	if t.Metadata.History == nil {
		t.Metadata.History = []domain.ChangeRecord{}
	}
	if status == domain.StatusConfirmed {
		*t = accounting.MarkConfirmed(*t, actor, now)
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	postings, err := accounting.UploadPostings(*t)
	if err != nil {
		return err
	}
	return s.post(ctx, tx, t.ID, postings)
}

// CreateOperation persists an operation with its transactions in one write unit.
func (s *ledgerService) CreateOperation(ctx context.Context, actor domain.Actor, req dto.CreateOperationRequest) (*domain.Operation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, len(req.Transactions))
	for i, r := range req.Transactions {
		t, err := r.ToDomain(0, req.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs[i] = t
	}

	refs, err := s.entityRefs(ctx, transactionEntityIDs(txs)...)
	if err != nil {
		return nil, err
	}
	tree, err := s.tags.Tree(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		if !permissions.CanCreate(actor.Permissions, tree, refs[t.FromEntityID], refs[t.ToEntityID]) {
			return nil, forbidden("create", 0)
		}
	}

	now := s.now()
	op := domain.Operation{
		Date:         req.Date,
		Observations: req.Observations,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	err = s.ledgerRepo.WithTx(ctx, func(tx portsrepo.LedgerTx) error {
		if err := tx.InsertOperation(ctx, &op); err != nil {
			return fmt.Errorf("failed to insert operation: %w", err)
		}
		for i := range txs {
			txs[i].OperationID = op.ID
			if err := s.upload(ctx, tx, &txs[i], actor.UserID); err != nil {
				return fmt.Errorf("transaction %d: %w", i, err)
			}
		}
		for i, r := range req.Transactions {
			if r.RelatedTransactionIndex == nil {
				continue
			}
			related := txs[*r.RelatedTransactionIndex].ID
			txs[i].Metadata.RelatedTransactionID = &related
			if err := tx.UpdateTransaction(ctx, txs[i]); err != nil {
				return fmt.Errorf("failed to link transaction %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create operation")
		return nil, err
	}

	op.Transactions = txs
	s.afterWrite(ctx, "createOperation", actor, req, op, PrefixBalances, PrefixOperations)
	s.LogInfo(ctx, "Operation created", slog.Int64("operation_id", op.ID), slog.Int("transactions", len(txs)))
	return &op, nil
}

// CreateTransaction adds a transaction to an existing operation.
func (s *ledgerService) CreateTransaction(ctx context.Context, actor domain.Actor, operationID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	op, err := s.ledgerRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation %d: %w", operationID, err)
	}
	t, err := req.ToDomain(op.ID, op.Date)
	if err != nil {
		return nil, err
	}
	refs, err := s.entityRefs(ctx, t.FromEntityID, t.ToEntityID, t.OperatorEntityID)
	if err != nil {
		return nil, err
	}
	tree, err := s.tags.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if !permissions.CanCreate(actor.Permissions, tree, refs[t.FromEntityID], refs[t.ToEntityID]) {
		return nil, forbidden("create", 0)
	}

	err = s.ledgerRepo.WithTx(ctx, func(tx portsrepo.LedgerTx) error {
		return s.upload(ctx, tx, &t, actor.UserID)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create transaction", slog.Int64("operation_id", operationID))
		return nil, err
	}
	s.afterWrite(ctx, "createTransaction", actor, req, t, PrefixBalances, PrefixOperations)
	s.LogInfo(ctx, "Transaction created", slog.Int64("operation_id", operationID), slog.Int64("transaction_id", t.ID))
	return &t, nil
}

// authorizeTransaction reads a transaction outside the write unit and checks the
// capability on it. The returned refs cover every entity the write may touch.
func (s *ledgerService) authorizeTransaction(ctx context.Context, actor domain.Actor, transactionID int64, capability func(domain.TransactionCapabilities) bool, action string, extra ...int64) (*domain.Transaction, map[int64]domain.EntityRef, *domain.TagTree, error) {
	current, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get transaction %d: %w", transactionID, err)
	}
	ids := append([]int64{current.FromEntityID, current.ToEntityID, current.OperatorEntityID}, extra...)
	refs, err := s.entityRefs(ctx, ids...)
	if err != nil {
		return nil, nil, nil, err
	}
	tree, err := s.tags.Tree(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	caps := permissions.EvaluateTransaction(actor.Permissions, tree, subjectOf(*current, refs))
	if !capability(caps) {
		return nil, nil, nil, forbidden(action, transactionID)
	}
	return current, refs, tree, nil
}

// sameEndpoints reports whether a locked row still matches what was authorized.
func sameEndpoints(a, b domain.Transaction) bool {
	return a.FromEntityID == b.FromEntityID && a.ToEntityID == b.ToEntityID
}

func concurrentUpdate(txID int64) error {
	return apperrors.NewConflictError(apperrors.ConflictConcurrentUpdate, txID, "transaction changed while the request was processed")
}

// UpdateTransactionValues edits a pending transaction. Its movements are removed,
// their contribution is taken out of the balances and upload movements are
// re-derived from the new values, all in one write unit.
func (s *ledgerService) UpdateTransactionValues(ctx context.Context, actor domain.Actor, transactionID int64, changes domain.TransactionChanges) (*domain.Transaction, error) {
	if changes.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", apperrors.ErrValidation)
	}
	var extra []int64
	for _, id := range []*int64{changes.FromEntityID, changes.ToEntityID, changes.OperatorEntityID} {
		if id != nil {
			extra = append(extra, *id)
		}
	}
	current, refs, tree, err := s.authorizeTransaction(ctx, actor, transactionID,
		func(c domain.TransactionCapabilities) bool { return c.Update }, "update", extra...)
	if err != nil {
		return nil, err
	}
	// Moving a transaction requires the same right over the new endpoints.
	// The operator is not an endpoint and is not permission scoped; only its
	// existence is checked.
	target := changes.Apply(*current)
	if !sameEndpoints(*current, target) &&
		!permissions.EvaluateTransaction(actor.Permissions, tree, subjectOf(target, refs)).Update {
		return nil, forbidden("update", transactionID)
	}

	var result domain.Transaction
	changed := false
	err = s.ledgerRepo.WithTx(ctx, func(tx portsrepo.LedgerTx) error {
		locked, err := tx.LockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if !sameEndpoints(*locked, *current) {
			return concurrentUpdate(transactionID)
		}
		if !locked.IsEditable() {
			return apperrors.NewConflictError(apperrors.ConflictInvalidTransition, transactionID,
				fmt.Sprintf("transaction is %s and can no longer be edited", locked.Status))
		}

		updated := changes.Apply(*locked)
		if err := updated.Validate(); err != nil {
			return err
		}
		now := s.now()
		diff := accounting.DiffTransaction(*locked, updated)
		if !accounting.AppendHistory(&updated.Metadata, diff, actor.UserID, now) {
			result = *locked
			return nil
		}
		changed = true

		movements, err := tx.FindMovementsByTransactionID(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("failed to load movements: %w", err)
		}
		if err := tx.IncrementBalances(ctx, accounting.RemovalDeltas(movements, locked.Amount)); err != nil {
			return fmt.Errorf("failed to revert balances: %w", err)
		}
		if err := tx.DeleteMovementsByTransactionID(ctx, transactionID); err != nil {
			return fmt.Errorf("failed to delete movements: %w", err)
		}
		postings, err := accounting.UploadPostings(updated)
		if err != nil {
			return err
		}
		if err := s.post(ctx, tx, transactionID, postings); err != nil {
			return err
		}
		if err := tx.UpdateTransaction(ctx, updated); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		result = updated
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update transaction", slog.Int64("transaction_id", transactionID))
		return nil, err
	}
	if changed {
		s.afterWrite(ctx, "updateTransactionValues", actor, changes, result, PrefixBalances, PrefixOperations)
	}
	return &result, nil
}

// UpdateTransactionStatus confirms a pending transaction and posts its cash movements.
func (s *ledgerService) UpdateTransactionStatus(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error) {
	current, _, _, err := s.authorizeTransaction(ctx, actor, transactionID,
		func(c domain.TransactionCapabilities) bool { return c.Validate }, "validate")
	if err != nil {
		return nil, err
	}

	var result domain.Transaction
	err = s.ledgerRepo.WithTx(ctx, func(tx portsrepo.LedgerTx) error {
		locked, err := tx.LockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if !sameEndpoints(*locked, *current) {
			return concurrentUpdate(transactionID)
		}
		if !locked.Type.RequiresConfirmation() {
			return fmt.Errorf("%w: transactions of type %q are confirmed on upload", apperrors.ErrValidation, string(locked.Type))
		}
		if locked.Status != domain.StatusPending || !domain.CanTransition(locked.Status, domain.StatusConfirmed, false) {
			return apperrors.NewConflictError(apperrors.ConflictInvalidTransition, transactionID,
				fmt.Sprintf("cannot confirm a %s transaction", locked.Status))
		}
		postings, err := accounting.ConfirmationPostings(*locked)
		if err != nil {
			return err
		}
		if err := s.post(ctx, tx, transactionID, postings); err != nil {
			return err
		}
		result = accounting.MarkConfirmed(*locked, actor.UserID, s.now())
		if err := tx.UpdateTransaction(ctx, result); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to confirm transaction", slog.Int64("transaction_id", transactionID))
		return nil, err
	}
	s.afterWrite(ctx, "updateTransactionStatus", actor, transactionID, result, PrefixBalances, PrefixOperations)
	s.LogInfo(ctx, "Transaction confirmed", slog.Int64("transaction_id", transactionID))
	return &result, nil
}

// reverse cancels one locked transaction: a mirror transaction is inserted and the
// compensating movements are posted against it.
func (s *ledgerService) reverse(ctx context.Context, tx portsrepo.LedgerTx, t domain.Transaction, actor string) (domain.Transaction, domain.Transaction, error) {
	if t.IsReversal() {
		return domain.Transaction{}, domain.Transaction{}, apperrors.NewConflictError(apperrors.ConflictReversal, t.ID, "reversal transactions cannot be cancelled")
	}
	if !domain.CanTransition(t.Status, domain.StatusCancelled, true) {
		return domain.Transaction{}, domain.Transaction{}, apperrors.NewConflictError(apperrors.ConflictInvalidTransition, t.ID,
			fmt.Sprintf("cannot cancel a %s transaction", t.Status))
	}
	now := s.now()
	mirror := accounting.MirrorTransaction(t, actor, now)
	if err := tx.InsertTransaction(ctx, &mirror); err != nil {
		return domain.Transaction{}, domain.Transaction{}, fmt.Errorf("failed to insert reversal: %w", err)
	}
	postings, err := accounting.CancellationPostings(mirror, t.Status)
	if err != nil {
		return domain.Transaction{}, domain.Transaction{}, err
	}
	if err := s.post(ctx, tx, mirror.ID, postings); err != nil {
		return domain.Transaction{}, domain.Transaction{}, err
	}
	cancelled := accounting.MarkCancelled(t, actor, now)
	if err := tx.UpdateTransaction(ctx, cancelled); err != nil {
		return domain.Transaction{}, domain.Transaction{}, fmt.Errorf("failed to update transaction: %w", err)
	}
	return cancelled, mirror, nil
}

// CancelTransaction cancels one transaction through a reversal.
func (s *ledgerService) CancelTransaction(ctx context.Context, actor domain.Actor, transactionID int64) (*dto.CancelResponse, error) {
	current, _, _, err := s.authorizeTransaction(ctx, actor, transactionID,
		func(c domain.TransactionCapabilities) bool { return c.Delete }, "cancel")
	if err != nil {
		return nil, err
	}

	resp := &dto.CancelResponse{}
	err = s.ledgerRepo.WithTx(ctx, func(tx portsrepo.LedgerTx) error {
		locked, err := tx.LockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if !sameEndpoints(*locked, *current) {
			return concurrentUpdate(transactionID)
		}
		cancelled, mirror, err := s.reverse(ctx, tx, *locked, actor.UserID)
		if err != nil {
			return err
		}
		resp.Cancelled = []domain.Transaction{cancelled}
		resp.Reversals = []domain.Transaction{mirror}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel transaction", slog.Int64("transaction_id", transactionID))
		return nil, err
	}
	s.afterWrite(ctx, "cancelTransaction", actor, transactionID, resp, PrefixBalances, PrefixOperations)
	s.LogInfo(ctx, "Transaction cancelled", slog.Int64("transaction_id", transactionID), slog.Int64("reversal_id", resp.Reversals[0].ID))
	return resp, nil
}

// CancelOperation cancels every transaction of the operation that is not cancelled
// yet. The caller needs the delete capability on all of them; otherwise nothing
// is cancelled.
func (s *ledgerService) CancelOperation(ctx context.Context, actor domain.Actor, operationID int64) (*dto.CancelResponse, error) {
	op, err := s.ledgerRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation %d: %w", operationID, err)
	}
	refs, err := s.entityRefs(ctx, transactionEntityIDs(op.Transactions)...)
	if err != nil {
		return nil, err
	}
	tree, err := s.tags.Tree(ctx)
	if err != nil {
		return nil, err
	}
	approved := make(map[int64]domain.Transaction)
	for _, t := range op.Transactions {
		if t.Status == domain.StatusCancelled {
			continue
		}
		if !permissions.EvaluateTransaction(actor.Permissions, tree, subjectOf(t, refs)).Delete {
			return nil, forbidden("cancel", t.ID)
		}
		approved[t.ID] = t
	}

	resp := &dto.CancelResponse{Cancelled: []domain.Transaction{}, Reversals: []domain.Transaction{}}
	err = s.ledgerRepo.WithTx(ctx, func(tx portsrepo.LedgerTx) error {
		locked, err := tx.LockOperationTransactions(ctx, operationID)
		if err != nil {
			return err
		}
		mirrorOf := make(map[int64]int)
		for _, t := range locked {
			if t.Status == domain.StatusCancelled {
				continue
			}
			seen, ok := approved[t.ID]
			if !ok || !sameEndpoints(seen, t) {
				return concurrentUpdate(t.ID)
			}
			cancelled, mirror, err := s.reverse(ctx, tx, t, actor.UserID)
			if err != nil {
				return err
			}
			mirrorOf[t.ID] = len(resp.Reversals)
			resp.Cancelled = append(resp.Cancelled, cancelled)
			resp.Reversals = append(resp.Reversals, mirror)
		}

		// Reversals of paired legs point at each other like the legs they undo.
		for _, orig := range resp.Cancelled {
			related := orig.Metadata.RelatedTransactionID
			if related == nil {
				continue
			}
			j, ok := mirrorOf[*related]
			if !ok {
				continue
			}
			i := mirrorOf[orig.ID]
			partner := resp.Reversals[j].ID
			resp.Reversals[i].Metadata.RelatedTransactionID = &partner
			if err := tx.UpdateTransaction(ctx, resp.Reversals[i]); err != nil {
				return fmt.Errorf("failed to link reversal: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel operation", slog.Int64("operation_id", operationID))
		return nil, err
	}
	if len(resp.Cancelled) > 0 {
		s.afterWrite(ctx, "cancelOperation", actor, operationID, resp, PrefixBalances, PrefixOperations)
	}
	s.LogInfo(ctx, "Operation cancelled", slog.Int64("operation_id", operationID), slog.Int("cancelled", len(resp.Cancelled)))
	return resp, nil
}

func (s *ledgerService) annotate(ctx context.Context, actor domain.Actor, ops []domain.Operation) ([]dto.AnnotatedOperation, error) {
	var all []domain.Transaction
	for _, op := range ops {
		all = append(all, op.Transactions...)
	}
	refs, err := s.entityRefsLenient(ctx, transactionEntityIDs(all))
	if err != nil {
		return nil, err
	}
	tree, err := s.tags.Tree(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AnnotatedOperation, 0, len(ops))
	for _, op := range ops {
		subjects := make([]domain.TransactionSubject, 0, len(op.Transactions))
		for _, t := range op.Transactions {
			subjects = append(subjects, subjectOf(t, refs))
		}
		caps := permissions.EvaluateOperation(actor.Permissions, tree, subjects)
		out = append(out, dto.NewAnnotatedOperation(op, caps))
	}
	return out, nil
}

// entityRefsLenient is entityRefs for reads: entities are never deleted while
// referenced, so a missing one only yields an empty ref that no scope covers.
func (s *ledgerService) entityRefsLenient(ctx context.Context, ids []int64) (map[int64]domain.EntityRef, error) {
	entities, err := s.entityRepo.FindEntitiesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	refs := make(map[int64]domain.EntityRef, len(entities))
	for id, e := range entities {
		refs[id] = e.Ref()
	}
	return refs, nil
}

// GetOperation returns one operation annotated with the caller's capabilities.
func (s *ledgerService) GetOperation(ctx context.Context, actor domain.Actor, operationID int64) (*dto.AnnotatedOperation, error) {
	op, err := s.ledgerRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation %d: %w", operationID, err)
	}
	annotated, err := s.annotate(ctx, actor, []domain.Operation{*op})
	if err != nil {
		return nil, err
	}
	if !annotated[0].IsVisualizeAllowed {
		return nil, fmt.Errorf("%w: not allowed to visualize operation %d", apperrors.ErrForbidden, operationID)
	}
	return &annotated[0], nil
}

// GetOperations returns a page of operations, dropping those the caller cannot see.
// The page may therefore hold fewer items than the limit while a next token exists.
func (s *ledgerService) GetOperations(ctx context.Context, actor domain.Actor, params dto.ListOperationsParams) (*dto.ListOperationsResponse, error) {
	limit := pagination.NormalizeLimit(params.Limit, s.defaultPageSize, maxPageSize)
	ops, next, err := s.ledgerRepo.ListOperations(ctx, params.Filter(), limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list operations")
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	annotated, err := s.annotate(ctx, actor, ops)
	if err != nil {
		return nil, err
	}
	visible := make([]dto.AnnotatedOperation, 0, len(annotated))
	for _, op := range annotated {
		if op.IsVisualizeAllowed {
			visible = append(visible, op)
		}
	}
	return &dto.ListOperationsResponse{Operations: visible, NextToken: next}, nil
}
