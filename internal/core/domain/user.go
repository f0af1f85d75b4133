package domain

// Actor is an already authenticated caller together with its effective permissions.
// Every ledger operation receives it explicitly.
type Actor struct {
	UserID      string       `json:"userID"`
	Permissions []Permission `json:"permissions"`
}
