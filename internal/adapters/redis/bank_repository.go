package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ ports.BankRepository = (*bankRepository)(nil) // Ensure compliance

// bankRecord is the stored form of a bank. Unlike domain.Bank it
// carries the sealed access token.
type bankRecord struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Deleted     bool             `json:"deleted"`
	Accounts    []domain.Account `json:"accounts"`
	Index       int              `json:"_index"`
	AccessToken string           `json:"accessToken"`
}

type bankRepository struct {
	rdb    *goredis.Client
	key    string
	secSvc ports.SecurityPort
	log    zerolog.Logger
}

// NewBankRepository stores the whole bank collection as one JSON
// document under key.
func NewBankRepository(rdb *goredis.Client, key string, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.BankRepository {
	return &bankRepository{
		rdb:    rdb,
		key:    key,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "redis_bank_repo").Str("key", key).Logger(),
	}
}

// GetBanks returns the stored banks, or an empty list if nothing was stored yet.
func (r *bankRepository) GetBanks(ctx context.Context) ([]domain.Bank, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []domain.Bank{}, nil
	}
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to read banks")
		return nil, err
	}

	var records []bankRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		r.log.Error().Err(err).Msg("Failed to decode banks")
		return nil, fmt.Errorf("decode banks: %w", err)
	}

	banks := make([]domain.Bank, 0, len(records))
	for _, rec := range records {
		bank := domain.Bank{
			ID:       rec.ID,
			Name:     rec.Name,
			Deleted:  rec.Deleted,
			Accounts: rec.Accounts,
			Index:    rec.Index,
		}
		if bank.Accounts == nil {
			bank.Accounts = []domain.Account{}
		}
		if rec.AccessToken != "" {
			token, err := r.secSvc.Open(rec.AccessToken)
			if err != nil {
				r.log.Error().Err(err).Str("bank_id", rec.ID).Msg("Failed to unseal access token")
				return nil, fmt.Errorf("unseal access token of bank %s: %w", rec.ID, err)
			}
			bank.AccessToken = token
		}
		banks = append(banks, bank)
	}

	return banks, nil
}

// PutBanks overwrites the stored document with a single SET.
func (r *bankRepository) PutBanks(ctx context.Context, banks []domain.Bank) error {
	records := make([]bankRecord, 0, len(banks))
	for _, bank := range banks {
		rec := bankRecord{
			ID:       bank.ID,
			Name:     bank.Name,
			Deleted:  bank.Deleted,
			Accounts: bank.Accounts,
			Index:    bank.Index,
		}
		if rec.Accounts == nil {
			rec.Accounts = []domain.Account{}
		}
		if bank.AccessToken != "" {
			sealed, err := r.secSvc.Seal(bank.AccessToken)
			if err != nil {
				r.log.Error().Err(err).Str("bank_id", bank.ID).Msg("Failed to seal access token")
				return err
			}
			rec.AccessToken = sealed
		}
		records = append(records, rec)
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode banks: %w", err)
	}

	if err := r.rdb.Set(ctx, r.key, raw, 0).Err(); err != nil {
		r.log.Error().Err(err).Msg("Failed to write banks")
		return err
	}

	r.log.Info().Int("count", len(banks)).Msg("Banks replaced")
	return nil
}
