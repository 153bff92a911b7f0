package plaid

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

const testBaseURL = "https://sandbox.plaid.com"

func newTestClient(t *testing.T) ports.AggregatorClient {
	t.Helper()

	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)
	t.Cleanup(func() {
		gock.RestoreClient(httpClient)
		gock.Off()
	})

	nopLogger := zerolog.Nop()
	return NewClient(Options{
		BaseURL:    testBaseURL,
		ClientID:   "client-id",
		Secret:     "secret",
		HTTPClient: httpClient,
	}, &nopLogger)
}

func TestClient_GetAccounts(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/accounts/get").
		MatchHeader("Content-Type", "application/json").
		MatchHeader("Plaid-Version", apiVersion).
		Reply(http.StatusOK).
		JSON(map[string]any{
			"accounts": []map[string]any{
				{"account_id": "acc-1", "name": "Checking", "official_name": "Plaid Gold Checking", "type": "depository", "subtype": "checking"},
				{"account_id": "acc-2", "name": "Card", "official_name": nil, "type": "credit", "subtype": "credit card"},
				{"account_id": "acc-3", "name": "Mortgage", "official_name": nil, "type": "loan", "subtype": "mortgage"},
			},
			"request_id": "req-1",
		})

	bank := domain.Bank{
		ID:          "item-1",
		AccessToken: "access-sandbox-1",
		Accounts: []domain.Account{
			{ID: "acc-1", Enabled: false, PayFrom: true},
		},
	}

	accounts, err := c.GetAccounts(context.Background(), bank)

	require.NoError(t, err)
	require.Len(t, accounts, 3, "type filtering is not the client's job")
	assert.Equal(t, domain.Account{
		ID:           "acc-1",
		Enabled:      false,
		Name:         "Checking",
		OfficialName: "Plaid Gold Checking",
		Type:         domain.AccountTypeDepository,
		PayFrom:      true,
	}, accounts[0])
	assert.Equal(t, domain.Account{
		ID:      "acc-2",
		Enabled: true,
		Name:    "Card",
		Type:    domain.AccountTypeCredit,
	}, accounts[1])
	assert.Equal(t, domain.AccountTypeLoan, accounts[2].Type)
	assert.True(t, gock.IsDone())
}

func TestClient_GetAccounts_ItemLoginRequired(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/accounts/get").
		Reply(http.StatusBadRequest).
		JSON(map[string]any{
			"error_type":      "ITEM_ERROR",
			"error_code":      "ITEM_LOGIN_REQUIRED",
			"error_message":   "the login details of this item have changed",
			"display_message": nil,
			"request_id":      "req-2",
		})

	_, err := c.GetAccounts(context.Background(), domain.Bank{ID: "item-1", AccessToken: "access-sandbox-1"})

	require.Error(t, err)
	var aggErr *domain.AggregatorError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, domain.ErrCodeItemLoginRequired, aggErr.Code)
	assert.Equal(t, "ITEM_ERROR", aggErr.Type)
	assert.Equal(t, "the login details of this item have changed", aggErr.Message)
	assert.Equal(t, "req-2", aggErr.RequestID)
	assert.Equal(t, http.StatusBadRequest, aggErr.StatusCode)

	fe := domain.ClassifyFetchError(err)
	assert.True(t, fe.RequiresRelogin())
}

func TestClient_GetAccounts_UnexpectedStatus(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/accounts/get").
		Reply(http.StatusBadGateway).
		BodyString("<html>bad gateway</html>")

	_, err := c.GetAccounts(context.Background(), domain.Bank{ID: "item-1", AccessToken: "access-sandbox-1"})

	require.Error(t, err)
	var aggErr *domain.AggregatorError
	assert.False(t, errors.As(err, &aggErr))
	assert.Equal(t, domain.FailureOther, domain.ClassifyFetchError(err).Kind)
}

func TestClient_GetAccounts_TransportError(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/accounts/get").
		ReplyError(errors.New("connection refused"))

	_, err := c.GetAccounts(context.Background(), domain.Bank{ID: "item-1", AccessToken: "access-sandbox-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, domain.FailureOther, domain.ClassifyFetchError(err).Kind)
}

func TestClient_GetAccounts_MissingAccessToken(t *testing.T) {
	c := newTestClient(t)

	_, err := c.GetAccounts(context.Background(), domain.Bank{ID: "item-1"})

	assert.ErrorIs(t, err, domain.ErrMissingAccessToken)
}

func TestClient_GetName(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/item/get").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"item":       map[string]any{"item_id": "item-1", "institution_id": "ins_3"},
			"request_id": "req-3",
		})
	gock.New(testBaseURL).
		Post("/institutions/get_by_id").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"institution": map[string]any{"institution_id": "ins_3", "name": "Chase"},
			"request_id":  "req-4",
		})

	name, err := c.GetName(context.Background(), domain.Bank{ID: "item-1", AccessToken: "access-sandbox-1"})

	require.NoError(t, err)
	assert.Equal(t, "Chase", name)
	assert.True(t, gock.IsDone())
}

func TestClient_GetName_NoInstitution(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/item/get").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"item":       map[string]any{"item_id": "item-1", "institution_id": nil},
			"request_id": "req-5",
		})

	_, err := c.GetName(context.Background(), domain.Bank{ID: "item-1", AccessToken: "access-sandbox-1"})

	require.Error(t, err)
}

func TestClient_GetPublicToken(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/item/public_token/create").
		Reply(http.StatusOK).
		JSON(map[string]any{"public_token": "public-sandbox-abc", "request_id": "req-6"})

	token, err := c.GetPublicToken(context.Background(), domain.Bank{ID: "item-1", AccessToken: "access-sandbox-1"})

	require.NoError(t, err)
	assert.Equal(t, "public-sandbox-abc", token)
}

func TestClient_GetBankFromPublicToken(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/item/public_token/exchange").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"access_token": "access-sandbox-new",
			"item_id":      "item-new",
			"request_id":   "req-7",
		})

	bank, err := c.GetBankFromPublicToken(context.Background(), "public-sandbox-abc")

	require.NoError(t, err)
	assert.Equal(t, "item-new", bank.ID)
	assert.Equal(t, "access-sandbox-new", bank.AccessToken)
	assert.NotNil(t, bank.Accounts)
	assert.Zero(t, bank.Index)
}

func TestClient_GetBankFromPublicToken_Invalid(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Post("/item/public_token/exchange").
		Reply(http.StatusBadRequest).
		JSON(map[string]any{
			"error_type":    "INVALID_INPUT",
			"error_code":    "INVALID_PUBLIC_TOKEN",
			"error_message": "provided public token is in an invalid format",
			"request_id":    "req-8",
		})

	_, err := c.GetBankFromPublicToken(context.Background(), "garbage")

	var aggErr *domain.AggregatorError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, "INVALID_PUBLIC_TOKEN", aggErr.Code)
}

func TestBaseURL(t *testing.T) {
	url, err := BaseURL("sandbox")
	require.NoError(t, err)
	assert.Equal(t, testBaseURL, url)

	_, err = BaseURL("staging")
	assert.Error(t, err)
}
