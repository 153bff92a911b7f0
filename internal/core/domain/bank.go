package domain

import (
	"errors"
	"fmt"
)

// AccountType is the aggregator's classification of an account.
type AccountType string

const (
	AccountTypeCredit     AccountType = "credit"
	AccountTypeDepository AccountType = "depository"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

// Allowed reports whether accounts of this type are shown to the client.
func (t AccountType) Allowed() bool {
	switch t {
	case AccountTypeCredit, AccountTypeDepository:
		return true
	default:
		return false
	}
}

// Account is a single account held at a linked bank.
type Account struct {
	ID           string      `json:"id"`
	Enabled      bool        `json:"enabled"`
	Name         string      `json:"name"`
	OfficialName string      `json:"officialName"`
	Type         AccountType `json:"type"`
	PayFrom      bool        `json:"payFrom"` // Marks the account that funds payments
}

// Bank is a linked institution (a Plaid item) as persisted by the service.
type Bank struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Deleted  bool      `json:"deleted,omitempty"`
	Accounts []Account `json:"accounts"`
	Index    int       `json:"_index"` // Position assigned when the bank was linked

	// AccessToken is the aggregator credential for this item.
	// It never leaves the server.
	AccessToken string `json:"-"`
}

// FilterAllowed returns the accounts whose type is in the allowed set.
// The result is never nil.
func FilterAllowed(accounts []Account) []Account {
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		if a.Type.Allowed() {
			out = append(out, a)
		}
	}
	return out
}

// ErrInvalidBanks is returned when a bank list cannot be stored as a
// collection keyed by ID.
var ErrInvalidBanks = errors.New("invalid banks")

// ValidateBanks rejects lists holding an empty or repeated bank ID.
func ValidateBanks(banks []Bank) error {
	seen := make(map[string]struct{}, len(banks))
	for i, b := range banks {
		if b.ID == "" {
			return fmt.Errorf("%w: bank at position %d has no id", ErrInvalidBanks, i)
		}
		if _, ok := seen[b.ID]; ok {
			return fmt.Errorf("%w: duplicate bank id %q", ErrInvalidBanks, b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}
