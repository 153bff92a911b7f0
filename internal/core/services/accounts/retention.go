package accounts

import (
	"context"

	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/rs/zerolog"
)

// NewRetentionAudit returns a handler for domain.TopicBanksReplaced that
// reports banks flagged deleted which are still kept in storage.
// Deleted banks are never purged (not from the store, not from the aggregator).
func NewRetentionAudit(baseLogger *zerolog.Logger) ports.EventHandler {
	log := baseLogger.With().Str("component", "retention_audit").Logger()

	return func(ctx context.Context, event ports.Event) error {
		replaced, ok := event.Data.(domain.BanksReplacedEvent)
		if !ok {
			log.Error().Str("topic", event.Topic).Msg("Received bad banks replaced event")
			return nil
		}
		if len(replaced.Deleted) == 0 {
			return nil
		}

		log.Warn().
			Strs("bank_ids", replaced.Deleted).
			Int("total", replaced.Total).
			Msg("Banks flagged deleted are retained in storage")
		return nil
	}
}
