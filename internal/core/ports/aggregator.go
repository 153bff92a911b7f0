package ports

import (
	"context"

	"github.com/easyfinance/accounts/internal/core/domain"
)

// AggregatorClient talks to the financial data aggregator (Plaid).
//
// Failures reported by the aggregator API are returned as
// *domain.AggregatorError; anything else (transport, decoding)
// is returned as a plain error.
type AggregatorClient interface {
	// GetAccounts fetches the live accounts of a bank.
	GetAccounts(ctx context.Context, bank domain.Bank) ([]domain.Account, error)

	// GetName fetches the institution's display name.
	GetName(ctx context.Context, bank domain.Bank) (string, error)

	// GetPublicToken creates a public token so the client can re-link the bank.
	GetPublicToken(ctx context.Context, bank domain.Bank) (string, error)

	// GetBankFromPublicToken exchanges a Link public token for a new bank.
	GetBankFromPublicToken(ctx context.Context, publicToken string) (domain.Bank, error)
}
