package plaid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// apiVersion pins the response shapes this client understands.
const apiVersion = "2020-09-14"

var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// BaseURL returns the API host of a Plaid environment.
func BaseURL(env string) (string, error) {
	url, ok := environments[env]
	if !ok {
		return "", fmt.Errorf("unknown plaid environment: %q", env)
	}
	return url, nil
}

// Options configures the client.
type Options struct {
	BaseURL      string
	ClientID     string
	Secret       string
	CountryCodes []string
	HTTPClient   *http.Client // Optional; defaults to a client with a 30s timeout
}

// client implements ports.AggregatorClient against the Plaid REST API.
type client struct {
	http         *http.Client
	baseURL      string
	clientID     string
	secret       string
	countryCodes []string
	log          zerolog.Logger
}

var _ ports.AggregatorClient = (*client)(nil)

// NewClient creates a new Plaid adapter.
func NewClient(opts Options, baseLogger *zerolog.Logger) ports.AggregatorClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	countryCodes := opts.CountryCodes
	if len(countryCodes) == 0 {
		countryCodes = []string{"US"}
	}

	return &client{
		http:         httpClient,
		baseURL:      opts.BaseURL,
		clientID:     opts.ClientID,
		secret:       opts.Secret,
		countryCodes: countryCodes,
		log:          baseLogger.With().Str("component", "plaid_client").Logger(),
	}
}

// GetAccounts fetches the item's accounts and merges the user's
// per-account settings (enabled, payFrom) from the stored bank.
func (c *client) GetAccounts(ctx context.Context, bank domain.Bank) ([]domain.Account, error) {
	if bank.AccessToken == "" {
		return nil, fmt.Errorf("bank %s: %w", bank.ID, domain.ErrMissingAccessToken)
	}

	var resp accountsGetResponse
	req := accessTokenRequest{credentials: c.credentials(), AccessToken: bank.AccessToken}
	if err := c.post(ctx, "/accounts/get", req, &resp); err != nil {
		return nil, err
	}

	settings := make(map[string]domain.Account, len(bank.Accounts))
	for _, a := range bank.Accounts {
		settings[a.ID] = a
	}

	accounts := make([]domain.Account, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		acct := domain.Account{
			ID:      a.AccountID,
			Enabled: true,
			Name:    a.Name,
			Type:    domain.AccountType(a.Type),
		}
		if a.OfficialName != nil {
			acct.OfficialName = *a.OfficialName
		}
		if prev, ok := settings[a.AccountID]; ok {
			acct.Enabled = prev.Enabled
			acct.PayFrom = prev.PayFrom
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// GetName resolves the institution behind the item and returns its name.
func (c *client) GetName(ctx context.Context, bank domain.Bank) (string, error) {
	if bank.AccessToken == "" {
		return "", fmt.Errorf("bank %s: %w", bank.ID, domain.ErrMissingAccessToken)
	}

	var item itemGetResponse
	req := accessTokenRequest{credentials: c.credentials(), AccessToken: bank.AccessToken}
	if err := c.post(ctx, "/item/get", req, &item); err != nil {
		return "", err
	}
	if item.Item.InstitutionID == nil || *item.Item.InstitutionID == "" {
		return "", fmt.Errorf("item %s has no institution", bank.ID)
	}

	var inst institutionGetResponse
	instReq := institutionGetRequest{
		credentials:   c.credentials(),
		InstitutionID: *item.Item.InstitutionID,
		CountryCodes:  c.countryCodes,
	}
	if err := c.post(ctx, "/institutions/get_by_id", instReq, &inst); err != nil {
		return "", err
	}
	return inst.Institution.Name, nil
}

// GetPublicToken creates a public token for Link update mode.
func (c *client) GetPublicToken(ctx context.Context, bank domain.Bank) (string, error) {
	if bank.AccessToken == "" {
		return "", fmt.Errorf("bank %s: %w", bank.ID, domain.ErrMissingAccessToken)
	}

	var resp publicTokenCreateResponse
	req := accessTokenRequest{credentials: c.credentials(), AccessToken: bank.AccessToken}
	if err := c.post(ctx, "/item/public_token/create", req, &resp); err != nil {
		return "", err
	}
	return resp.PublicToken, nil
}

// GetBankFromPublicToken exchanges a public token for an access token.
// The returned bank has no name or accounts yet; both are fetched live.
func (c *client) GetBankFromPublicToken(ctx context.Context, publicToken string) (domain.Bank, error) {
	var resp publicTokenExchangeResponse
	req := publicTokenExchangeRequest{credentials: c.credentials(), PublicToken: publicToken}
	if err := c.post(ctx, "/item/public_token/exchange", req, &resp); err != nil {
		return domain.Bank{}, err
	}

	return domain.Bank{
		ID:          resp.ItemID,
		Accounts:    []domain.Account{},
		AccessToken: resp.AccessToken,
	}, nil
}

func (c *client) credentials() credentials {
	return credentials{ClientID: c.clientID, Secret: c.secret}
}

// post sends a JSON request to endpoint and decodes the response into out.
// Error responses carrying an error_code become *domain.AggregatorError.
func (c *client) post(ctx context.Context, endpoint string, body, out any) error {
	start := time.Now()
	status := 0
	defer func() {
		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Plaid-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("Plaid request failed")
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(endpoint, resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to decode Plaid response")
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *client) decodeError(endpoint string, status int, raw []byte) error {
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.ErrorCode == "" {
		c.log.Error().Int("status", status).Str("endpoint", endpoint).Msg("Unexpected Plaid error response")
		return fmt.Errorf("%s: unexpected status %d", endpoint, status)
	}

	aggErr := &domain.AggregatorError{
		Type:       body.ErrorType,
		Code:       body.ErrorCode,
		Message:    body.ErrorMessage,
		RequestID:  body.RequestID,
		StatusCode: status,
	}
	if body.DisplayMessage != nil {
		aggErr.DisplayMessage = *body.DisplayMessage
	}

	c.log.Warn().
		Str("endpoint", endpoint).
		Str("error_code", aggErr.Code).
		Str("request_id", aggErr.RequestID).
		Msg("Plaid returned an error")
	return fmt.Errorf("%s: %w", endpoint, aggErr)
}
