package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easyfinance/accounts/internal/adapters/auth"
	"github.com/easyfinance/accounts/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock AccountsService ---
type MockAccountsService struct {
	mock.Mock
}

func (m *MockAccountsService) Overview(ctx context.Context) (*domain.Overview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Overview), args.Error(1)
}

func (m *MockAccountsService) Replace(ctx context.Context, banks []domain.BankInput, publicToken string) (*domain.Overview, error) {
	args := m.Called(ctx, banks, publicToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Overview), args.Error(1)
}

// --- Helpers ---

type testEnv struct {
	router *gin.Engine
	token  string
}

func newTestEnv(t *testing.T, svc AccountsService) testEnv {
	t.Helper()
	nopLogger := zerolog.Nop()

	tokens, err := auth.NewTokenService("test-secret", time.Hour, &nopLogger)
	require.NoError(t, err)
	token, err := tokens.Generate("owner")
	require.NoError(t, err)

	return testEnv{
		router: NewRouter(NewAccountsHandler(svc), tokens, &nopLogger),
		token:  token,
	}
}

func (e testEnv) do(method, body string, authorized bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/accounts", nil)
	} else {
		req = httptest.NewRequest(method, "/accounts", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

var sampleOverview = &domain.Overview{
	Banks: []domain.BankView{
		{ID: "item-1", Name: "Chase", Accounts: []domain.Account{{ID: "acc-1", Enabled: true, Type: domain.AccountTypeCredit}}},
	},
	PlaidVars: domain.PlaidVars{Env: "sandbox", Key: "pk", ClientName: "Easy finance", Product: []string{"transactions"}},
}

// --- Tests ---

func TestAccounts_Get(t *testing.T) {
	svc := new(MockAccountsService)
	svc.On("Overview", mock.Anything).Return(sampleOverview, nil).Once()
	env := newTestEnv(t, svc)

	rec := env.do(http.MethodGet, "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "banks")
	assert.Contains(t, body, "plaidVars")
	svc.AssertExpectations(t)
}

func TestAccounts_Put(t *testing.T) {
	svc := new(MockAccountsService)
	wantBanks := []domain.BankInput{
		{ID: "item-1", Name: "Chase", Accounts: []domain.AccountInput{{ID: "acc-1", Enabled: true, PayFrom: true}}},
	}
	svc.On("Replace", mock.Anything, wantBanks, "public-sandbox-1").Return(sampleOverview, nil).Once()
	env := newTestEnv(t, svc)

	rec := env.do(http.MethodPut, `{
		"banks": [{"id": "item-1", "name": "Chase", "hacked": true,
			"accounts": [{"id": "acc-1", "enabled": true, "payFrom": true, "evil": 1}]}],
		"publicToken": "public-sandbox-1"
	}`, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestAccounts_Put_MissingBanks(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "null banks", body: `{"banks": null}`},
		{name: "no body", body: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockAccountsService)
			svc.On("Replace", mock.Anything, []domain.BankInput{}, "").Return(sampleOverview, nil).Once()
			env := newTestEnv(t, svc)

			rec := env.do(http.MethodPut, tc.body, true)

			assert.Equal(t, http.StatusOK, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestAccounts_Put_MalformedBody(t *testing.T) {
	svc := new(MockAccountsService)
	env := newTestEnv(t, svc)

	rec := env.do(http.MethodPut, `{"banks": "nope"`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccounts_Put_InvalidBanks(t *testing.T) {
	svc := new(MockAccountsService)
	svc.On("Replace", mock.Anything, mock.Anything, "").
		Return(nil, fmt.Errorf("%w: duplicate bank id %q", domain.ErrInvalidBanks, "item-1")).Once()
	env := newTestEnv(t, svc)

	rec := env.do(http.MethodPut, `{"banks": [{"id": "item-1"}, {"id": "item-1"}]}`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate bank id")
	svc.AssertExpectations(t)
}

func TestAccounts_ServiceErrors(t *testing.T) {
	svc := new(MockAccountsService)
	svc.On("Overview", mock.Anything).Return(nil, errors.New("load banks: connection refused")).Once()
	svc.On("Replace", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("store banks: disk full")).Once()
	env := newTestEnv(t, svc)

	for _, method := range []string{http.MethodGet, http.MethodPut} {
		rec := env.do(method, `{}`, true)

		assert.Equal(t, http.StatusInternalServerError, rec.Code, method)
		assert.NotContains(t, rec.Body.String(), "connection refused", "internal detail is not leaked")
		assert.NotContains(t, rec.Body.String(), "disk full", "internal detail is not leaked")
	}
}

func TestAccounts_MethodNotAllowed(t *testing.T) {
	svc := new(MockAccountsService)
	env := newTestEnv(t, svc)

	for _, method := range []string{http.MethodPost, http.MethodDelete, http.MethodPatch} {
		rec := env.do(method, "", true)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, "GET, PUT", rec.Header().Get("Allow"))
	}
	svc.AssertNotCalled(t, "Overview", mock.Anything)
}

func TestAccounts_Unauthorized(t *testing.T) {
	svc := new(MockAccountsService)
	env := newTestEnv(t, svc)

	testCases := []struct {
		name   string
		method string
		header string
	}{
		{name: "no header", method: http.MethodGet},
		{name: "not bearer", method: http.MethodGet, header: "Basic dXNlcjpwYXNz"},
		{name: "bad token", method: http.MethodPut, header: "Bearer nope"},
		{name: "other method is still 401", method: http.MethodPost},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/accounts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	svc.AssertNotCalled(t, "Overview", mock.Anything)
	svc.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequireAuth_LogsSubject(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	tokens, err := auth.NewTokenService("test-secret", time.Hour, &logger)
	require.NoError(t, err)
	token, err := tokens.Generate("owner")
	require.NoError(t, err)

	svc := new(MockAccountsService)
	svc.On("Overview", mock.Anything).Return(nil, errors.New("load banks: connection refused")).Once()
	router := NewRouter(NewAccountsHandler(svc), tokens, &logger)

	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var handlerLine string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "Failed to build accounts overview") {
			handlerLine = line
		}
	}
	require.NotEmpty(t, handlerLine)
	assert.Contains(t, handlerLine, `"subject":"owner"`)
}

func TestHealthzAndMetrics_AreOpen(t *testing.T) {
	env := newTestEnv(t, new(MockAccountsService))

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
