package ports

import (
	"context"

	"github.com/easyfinance/accounts/internal/core/domain"
)

// BankRepository persists the full collection of linked banks.
type BankRepository interface {
	// GetBanks returns every stored bank in stored order.
	GetBanks(ctx context.Context) ([]domain.Bank, error)

	// PutBanks overwrites the whole collection. There is no
	// conflict detection; the last writer wins.
	PutBanks(ctx context.Context, banks []domain.Bank) error
}
