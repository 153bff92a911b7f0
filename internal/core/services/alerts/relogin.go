package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/rs/zerolog"
)

// ReloginAlert tells the owner, through the notifier, that a bank needs
// to be linked again. Each bank is reported at most once per cooldown.
type ReloginAlert struct {
	notifier ports.NotifierPort
	chatID   int64
	linkURL  string
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time

	log zerolog.Logger
}

// NewReloginAlert creates the alert. linkURL is optional and becomes a
// "Reconnect" button when set.
func NewReloginAlert(notifier ports.NotifierPort, chatID int64, linkURL string, cooldown time.Duration, baseLogger *zerolog.Logger) *ReloginAlert {
	return &ReloginAlert{
		notifier: notifier,
		chatID:   chatID,
		linkURL:  linkURL,
		cooldown: cooldown,
		now:      time.Now,
		sent:     make(map[string]time.Time),
		log:      baseLogger.With().Str("component", "relogin_alert").Logger(),
	}
}

// Handle is a ports.EventHandler for domain.TopicReloginRequired.
func (a *ReloginAlert) Handle(ctx context.Context, event ports.Event) error {
	relogin, ok := event.Data.(domain.ReloginRequiredEvent)
	if !ok {
		a.log.Error().Str("topic", event.Topic).Msg("Received bad relogin event")
		return nil
	}

	if !a.claim(relogin.BankID) {
		a.log.Debug().Str("bank_id", relogin.BankID).Msg("Relogin already reported, skipping")
		return nil
	}

	name := relogin.BankName
	if name == "" {
		name = "One of your banks"
	}
	msg := NewBuilder(a.chatID).
		WithText(fmt.Sprintf("%s needs you to log in again before its accounts can be refreshed.", name)).
		WithLinkButton("Reconnect", a.linkURL).
		Build()

	if err := a.notifier.SendMessage(ctx, msg); err != nil {
		a.release(relogin.BankID)
		return fmt.Errorf("send relogin alert for bank %s: %w", relogin.BankID, err)
	}

	a.log.Info().Str("bank_id", relogin.BankID).Msg("Relogin alert sent")
	return nil
}

// claim reports whether an alert for bankID may be sent now and, if so,
// records it as sent.
func (a *ReloginAlert) claim(bankID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if last, ok := a.sent[bankID]; ok && now.Sub(last) < a.cooldown {
		return false
	}
	a.sent[bankID] = now
	return true
}

func (a *ReloginAlert) release(bankID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sent, bankID)
}
