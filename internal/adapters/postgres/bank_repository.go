package postgres

import (
	"context"
	"fmt"

	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var _ ports.BankRepository = (*bankRepository)(nil) // Ensure compliance

type bankRepository struct {
	db     *DB
	secSvc ports.SecurityPort
	log    zerolog.Logger
}

// NewBankRepository creates a bank repository backed by the banks table.
// Access tokens are sealed with secSvc before they are written.
func NewBankRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.BankRepository {
	return &bankRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "bank_repo").Logger(),
	}
}

// GetBanks returns all banks ordered by their stored position.
func (r *bankRepository) GetBanks(ctx context.Context) ([]domain.Bank, error) {
	query := `
		SELECT id, link_index, name, deleted, accounts, access_token
		FROM banks
		ORDER BY position ASC
	`
	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query banks")
		return nil, err
	}
	defer rows.Close()

	banks := make([]domain.Bank, 0)
	for rows.Next() {
		bank, err := r.scanBank(rows)
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
	}
	if err := rows.Err(); err != nil {
		r.log.Error().Err(err).Msg("Failed while iterating banks")
		return nil, err
	}

	return banks, nil
}

// scanBank reads one row and unseals the access token.
func (r *bankRepository) scanBank(row pgx.Row) (domain.Bank, error) {
	var (
		bank        domain.Bank
		rawAccounts []byte
		sealedToken string
	)

	if err := row.Scan(&bank.ID, &bank.Index, &bank.Name, &bank.Deleted, &rawAccounts, &sealedToken); err != nil {
		r.log.Error().Err(err).Msg("Failed to scan bank row")
		return domain.Bank{}, err
	}

	if err := json.Unmarshal(rawAccounts, &bank.Accounts); err != nil {
		r.log.Error().Err(err).Str("bank_id", bank.ID).Msg("Failed to decode stored accounts")
		return domain.Bank{}, fmt.Errorf("decode accounts of bank %s: %w", bank.ID, err)
	}

	if sealedToken != "" {
		token, err := r.secSvc.Open(sealedToken)
		if err != nil {
			r.log.Error().Err(err).Str("bank_id", bank.ID).Msg("Failed to unseal access token")
			return domain.Bank{}, fmt.Errorf("unseal access token of bank %s: %w", bank.ID, err)
		}
		bank.AccessToken = token
	}

	return bank, nil
}

// PutBanks replaces the stored collection inside a single transaction.
func (r *bankRepository) PutBanks(ctx context.Context, banks []domain.Bank) error {
	// Encode and seal before the transaction is opened.
	rows := make([][]any, 0, len(banks))
	for i, bank := range banks {
		accounts := bank.Accounts
		if accounts == nil {
			accounts = []domain.Account{}
		}
		rawAccounts, err := json.Marshal(accounts)
		if err != nil {
			return fmt.Errorf("encode accounts of bank %s: %w", bank.ID, err)
		}

		sealedToken := ""
		if bank.AccessToken != "" {
			sealedToken, err = r.secSvc.Seal(bank.AccessToken)
			if err != nil {
				r.log.Error().Err(err).Str("bank_id", bank.ID).Msg("Failed to seal access token")
				return err
			}
		}

		rows = append(rows, []any{bank.ID, i, bank.Index, bank.Name, bank.Deleted, rawAccounts, sealedToken})
	}

	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to begin transaction")
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM banks`); err != nil {
		r.log.Error().Err(err).Msg("Failed to clear banks")
		return err
	}

	insert := `
		INSERT INTO banks (id, position, link_index, name, deleted, accounts, access_token, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	for _, args := range rows {
		if _, err := tx.Exec(ctx, insert, args...); err != nil {
			r.log.Error().Err(err).Interface("bank_id", args[0]).Msg("Failed to insert bank")
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error().Err(err).Msg("Failed to commit banks")
		return err
	}

	r.log.Info().Int("count", len(banks)).Msg("Banks replaced")
	return nil
}
