package accounts

import (
	"context"
	"fmt"

	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Service merges persisted banks with live aggregator data and
// persists client updates to the bank collection.
type Service struct {
	repo   ports.BankRepository
	client ports.AggregatorClient
	bus    ports.EventBus
	vars   domain.PlaidVars
	log    zerolog.Logger
}

// NewService creates the accounts service.
func NewService(
	repo ports.BankRepository,
	client ports.AggregatorClient,
	bus ports.EventBus,
	vars domain.PlaidVars,
	baseLogger *zerolog.Logger,
) *Service {
	return &Service{
		repo:   repo,
		client: client,
		bus:    bus,
		vars:   vars,
		log:    baseLogger.With().Str("component", "accounts_service").Logger(),
	}
}

// Overview loads every persisted bank and returns the enriched list
// together with the Link configuration.
func (s *Service) Overview(ctx context.Context) (*domain.Overview, error) {
	banks, err := s.repo.GetBanks(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load banks")
		return nil, fmt.Errorf("load banks: %w", err)
	}

	views, err := s.List(ctx, banks)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to build bank views")
		return nil, fmt.Errorf("list banks: %w", err)
	}

	return &domain.Overview{
		Banks:     views,
		PlaidVars: s.vars,
	}, nil
}

// List builds the view of every bank. All banks are processed
// concurrently and the result keeps the input order.
//
// Accounts-fetch failures are reported per bank in FetchError. List only
// fails when a bank needs re-login and no public token can be created
// for it; the remaining fetches are cancelled in that case.
func (s *Service) List(ctx context.Context, banks []domain.Bank) ([]domain.BankView, error) {
	views := make([]domain.BankView, len(banks))

	g, gctx := errgroup.WithContext(ctx)
	for i, bank := range banks {
		g.Go(func() error {
			view, err := s.viewBank(gctx, bank)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return views, nil
}

// viewBank fetches the accounts and the display name of one bank.
func (s *Service) viewBank(ctx context.Context, bank domain.Bank) (domain.BankView, error) {
	view := domain.BankView{
		ID:       bank.ID,
		Name:     bank.Name,
		Accounts: []domain.Account{},
	}

	if bank.Deleted {
		view.Deleted = true
		return view, nil
	}

	log := s.log.With().Str("bank_id", bank.ID).Logger()

	var (
		name string
		g    errgroup.Group
	)
	g.Go(func() error {
		var err error
		name, err = s.client.GetName(ctx, bank)
		return err
	})

	accounts, err := s.client.GetAccounts(ctx, bank)
	var fetchErr error
	if err != nil {
		view.FetchError, fetchErr = s.fetchError(ctx, bank, err, &log)
	} else {
		view.Accounts = domain.FilterAllowed(accounts)
	}

	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("Failed to fetch bank name, using stored name")
	} else {
		view.Name = name
	}

	if fetchErr != nil {
		return domain.BankView{}, fetchErr
	}

	if view.FetchError != nil && view.FetchError.RequiresRelogin() {
		s.publish(ctx, domain.TopicReloginRequired, domain.ReloginRequiredEvent{
			BankID:   bank.ID,
			BankName: view.Name,
			Code:     view.FetchError.Code,
		})
	}

	return view, nil
}

// fetchError classifies an accounts-fetch failure. A bank that needs
// re-login gets a fresh public token so the client can open Link; when
// that token cannot be created the error is returned instead.
func (s *Service) fetchError(ctx context.Context, bank domain.Bank, err error, log *zerolog.Logger) (*domain.FetchError, error) {
	fe := domain.ClassifyFetchError(err)
	fetchErrorsTotal.WithLabelValues(fe.Kind.String(), fe.Code).Inc()

	log.Warn().Err(err).
		Str("kind", fe.Kind.String()).
		Str("code", fe.Code).
		Msg("Failed to fetch accounts")

	if fe.RequiresRelogin() {
		token, tokErr := s.client.GetPublicToken(ctx, bank)
		if tokErr != nil {
			log.Error().Err(tokErr).Msg("Failed to create public token for re-login")
			return nil, fmt.Errorf("create public token for bank %s: %w", bank.ID, tokErr)
		}
		fe.PublicToken = &token
	}

	return &fe, nil
}

// LinkNewBank exchanges a Link public token for a new bank placed at index.
func (s *Service) LinkNewBank(ctx context.Context, publicToken string, index int) (domain.Bank, error) {
	bank, err := s.client.GetBankFromPublicToken(ctx, publicToken)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to exchange public token")
		return domain.Bank{}, fmt.Errorf("exchange public token: %w", err)
	}

	bank.Index = index
	s.log.Info().Str("bank_id", bank.ID).Int("index", index).Msg("Linked new bank")
	return bank, nil
}

// Replace overwrites the persisted banks with the client's list, linking
// a new bank first when publicToken is set, and returns the fresh overview.
//
// Banks flagged deleted are stored as they are; nothing is removed from
// storage or from the aggregator. A list with an empty or repeated bank
// ID fails with domain.ErrInvalidBanks before anything is stored.
func (s *Service) Replace(ctx context.Context, inputs []domain.BankInput, publicToken string) (*domain.Overview, error) {
	banks := domain.ProjectBanks(inputs)
	if err := domain.ValidateBanks(banks); err != nil {
		s.log.Warn().Err(err).Msg("Rejected bank list")
		return nil, err
	}

	stored, err := s.repo.GetBanks(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load banks before replace")
		return nil, fmt.Errorf("load banks: %w", err)
	}
	carryServerFields(banks, stored)

	if publicToken != "" {
		bank, err := s.LinkNewBank(ctx, publicToken, len(banks))
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
		if err := domain.ValidateBanks(banks); err != nil {
			s.log.Warn().Err(err).Msg("Linked bank is already in the list")
			return nil, err
		}
	}

	if err := s.repo.PutBanks(ctx, banks); err != nil {
		s.log.Error().Err(err).Int("count", len(banks)).Msg("Failed to store banks")
		return nil, fmt.Errorf("store banks: %w", err)
	}
	s.log.Info().Int("count", len(banks)).Msg("Banks replaced")

	s.publishReplaced(ctx, banks)

	return s.Overview(ctx)
}

// carryServerFields copies the fields clients may not set (access token,
// link index) from the stored bank with the same ID.
func carryServerFields(banks, stored []domain.Bank) {
	byID := make(map[string]domain.Bank, len(stored))
	for _, b := range stored {
		byID[b.ID] = b
	}
	for i := range banks {
		if prev, ok := byID[banks[i].ID]; ok {
			banks[i].AccessToken = prev.AccessToken
			banks[i].Index = prev.Index
		}
	}
}

func (s *Service) publishReplaced(ctx context.Context, banks []domain.Bank) {
	event := domain.BanksReplacedEvent{Total: len(banks)}
	for _, b := range banks {
		if b.Deleted {
			event.Deleted = append(event.Deleted, b.ID)
		}
	}

	s.publish(ctx, domain.TopicBanksReplaced, event)
}

// publish is a no-op when the service has no bus.
func (s *Service) publish(ctx context.Context, topic string, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, data); err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}
