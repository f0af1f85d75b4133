// Package permissions turns a user's grants into capability booleans.
// Nothing here returns errors: a missing grant is a plain false.
package permissions

import (
	"github.com/SscSPs/maika_backend/internal/core/domain"
)

// HasGlobal reports whether the user holds ADMIN or the unscoped permission.
func HasGlobal(perms []domain.Permission, name domain.PermissionName) bool {
	for _, p := range perms {
		if p.Name == domain.PermAdmin || p.Name == name {
			return true
		}
	}
	return false
}

// covers reports whether a scoped grant reaches the entity, either by id or by
// any tag whose descendants include the entity's tag.
func covers(p domain.Permission, tree *domain.TagTree, e domain.EntityRef) bool {
	for _, id := range p.EntitiesIDs {
		if id == e.ID {
			return true
		}
	}
	for _, tag := range p.EntitiesTags {
		if tree.IsDescendant(e.TagName, tag) {
			return true
		}
	}
	return false
}

// Allowed evaluates one capability over a set of entities: a global grant, or a
// single scoped grant covering every entity.
func Allowed(perms []domain.Permission, tree *domain.TagTree, name domain.PermissionName, entities ...domain.EntityRef) bool {
	if HasGlobal(perms, name) {
		return true
	}
	scoped := name.Scoped()
	for _, p := range perms {
		if p.Name != scoped {
			continue
		}
		all := true
		for _, e := range entities {
			if !covers(p, tree, e) {
				all = false
				break
			}
		}
		if all && len(entities) > 0 {
			return true
		}
	}
	return false
}

// EvaluateTransaction computes the capabilities on one transaction. Scoped grants
// must cover both endpoints.
func EvaluateTransaction(perms []domain.Permission, tree *domain.TagTree, s domain.TransactionSubject) domain.TransactionCapabilities {
	return domain.TransactionCapabilities{
		Visualize: Allowed(perms, tree, domain.PermOperationsVisualize, s.From, s.To),
		Update:    Allowed(perms, tree, domain.PermTransactionsUpdate, s.From, s.To),
		Delete:    Allowed(perms, tree, domain.PermTransactionsDelete, s.From, s.To),
		Validate:  Allowed(perms, tree, domain.PermTransactionsValidate, s.From, s.To),
	}
}

// EvaluateOperation annotates an operation. Visualize holds when at least one of
// its transactions is visible; Create only when every transaction could be created.
func EvaluateOperation(perms []domain.Permission, tree *domain.TagTree, subjects []domain.TransactionSubject) domain.OperationCapabilities {
	caps := domain.OperationCapabilities{
		Transactions: make(map[int64]domain.TransactionCapabilities, len(subjects)),
		Create:       len(subjects) > 0,
	}
	for _, s := range subjects {
		tc := EvaluateTransaction(perms, tree, s)
		caps.Transactions[s.TransactionID] = tc
		if tc.Visualize {
			caps.Visualize = true
		}
		if !CanCreate(perms, tree, s.From, s.To) {
			caps.Create = false
		}
	}
	return caps
}

// CanCreate reports whether a transaction between the two entities may be uploaded.
func CanCreate(perms []domain.Permission, tree *domain.TagTree, from, to domain.EntityRef) bool {
	return Allowed(perms, tree, domain.PermOperationsCreate, from, to)
}

// EvaluateEntity reports whether the balances of a single entity are visible.
func EvaluateEntity(perms []domain.Permission, tree *domain.TagTree, e domain.EntityRef) bool {
	return Allowed(perms, tree, domain.PermAccountsVisualize, e)
}

// VisibleEntityIDs filters entities down to those whose balances are visible.
func VisibleEntityIDs(perms []domain.Permission, tree *domain.TagTree, entities []domain.EntityRef) []int64 {
	out := make([]int64, 0, len(entities))
	for _, e := range entities {
		if EvaluateEntity(perms, tree, e) {
			out = append(out, e.ID)
		}
	}
	return out
}
