package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/maika_backend/internal/apperrors"
)

// PermissionName is a grant identifier. Names ending in _SOME are scoped.
type PermissionName string

const scopedSuffix = "_SOME"

const (
	PermAdmin = PermissionName("ADMIN")

	PermOperationsCreate         = PermissionName("OPERATIONS_CREATE")
	PermOperationsCreateSome     = PermissionName("OPERATIONS_CREATE_SOME")
	PermOperationsVisualize      = PermissionName("OPERATIONS_VISUALIZE")
	PermOperationsVisualizeSome  = PermissionName("OPERATIONS_VISUALIZE_SOME")
	PermTransactionsUpdate       = PermissionName("TRANSACTIONS_UPDATE")
	PermTransactionsUpdateSome   = PermissionName("TRANSACTIONS_UPDATE_SOME")
	PermTransactionsDelete       = PermissionName("TRANSACTIONS_DELETE")
	PermTransactionsDeleteSome   = PermissionName("TRANSACTIONS_DELETE_SOME")
	PermTransactionsValidate     = PermissionName("TRANSACTIONS_VALIDATE")
	PermTransactionsValidateSome = PermissionName("TRANSACTIONS_VALIDATE_SOME")
	PermAccountsVisualize        = PermissionName("ACCOUNTS_VISUALIZE")
	PermAccountsVisualizeSome    = PermissionName("ACCOUNTS_VISUALIZE_SOME")
	PermEntitiesManage           = PermissionName("ENTITIES_MANAGE")
	PermExchangeRatesManage      = PermissionName("EXCHANGE_RATES_MANAGE")
)

var knownPermissions = map[PermissionName]struct{}{
	PermAdmin:                    {},
	PermOperationsCreate:         {},
	PermOperationsCreateSome:     {},
	PermOperationsVisualize:      {},
	PermOperationsVisualizeSome:  {},
	PermTransactionsUpdate:       {},
	PermTransactionsUpdateSome:   {},
	PermTransactionsDelete:       {},
	PermTransactionsDeleteSome:   {},
	PermTransactionsValidate:     {},
	PermTransactionsValidateSome: {},
	PermAccountsVisualize:        {},
	PermAccountsVisualizeSome:    {},
	PermEntitiesManage:           {},
	PermExchangeRatesManage:      {},
}

// IsScoped reports whether the permission needs an entity scope.
func (n PermissionName) IsScoped() bool {
	return strings.HasSuffix(string(n), scopedSuffix)
}

// Scoped returns the _SOME variant of a global permission.
func (n PermissionName) Scoped() PermissionName {
	if n.IsScoped() {
		return n
	}
	return n + scopedSuffix
}

// Permission is a grant attached to a role or directly to a user.
type Permission struct {
	Name         PermissionName `json:"name"`
	EntitiesIDs  []int64        `json:"entitiesIds,omitempty"`
	EntitiesTags []string       `json:"entitiesTags,omitempty"`
}

// Validate checks that scoped permissions carry a scope and global ones do not.
func (p Permission) Validate() error {
	if _, ok := knownPermissions[p.Name]; !ok {
		return fmt.Errorf("%w: unknown permission %q", apperrors.ErrValidation, string(p.Name))
	}
	hasScope := len(p.EntitiesIDs) > 0 || len(p.EntitiesTags) > 0
	if p.Name.IsScoped() && !hasScope {
		return fmt.Errorf("%w: permission %s requires entitiesIds or entitiesTags", apperrors.ErrValidation, p.Name)
	}
	if !p.Name.IsScoped() && hasScope {
		return fmt.Errorf("%w: permission %s does not accept a scope", apperrors.ErrValidation, p.Name)
	}
	return nil
}

// TransactionCapabilities are the actions a user may take on one transaction.
type TransactionCapabilities struct {
	Visualize bool `json:"isVisualizeAllowed"`
	Update    bool `json:"isUpdateAllowed"`
	Delete    bool `json:"isDeleteAllowed"`
	Validate  bool `json:"isValidateAllowed"`
}

// OperationCapabilities annotate an operation and each of its transactions.
type OperationCapabilities struct {
	Visualize    bool                              `json:"isVisualizeAllowed"`
	Create       bool                              `json:"isCreateAllowed"`
	Transactions map[int64]TransactionCapabilities `json:"transactions"`
}

// TransactionSubject is what the evaluator needs to know about a transaction.
type TransactionSubject struct {
	TransactionID int64
	From          EntityRef
	To            EntityRef
}
