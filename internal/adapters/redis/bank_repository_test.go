package redis

import (
	"context"
	"crypto/rand"
	"os"
	"testing"

	"github.com/easyfinance/accounts/internal/adapters/security"
	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository connects to TEST_REDIS_ADDR and uses a unique key per test.
func newTestRepository(t *testing.T) (ports.BankRepository, func() string) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	nopLogger := zerolog.Nop()
	ctx := context.Background()

	rdb, err := Connect(ctx, Options{Addr: addr}, &nopLogger)
	require.NoError(t, err)

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	secSvc, err := security.NewAESService(key, &nopLogger)
	require.NoError(t, err)

	redisKey := "easyfinance:test:" + uuid.NewString()
	t.Cleanup(func() {
		rdb.Del(ctx, redisKey)
		rdb.Close()
	})

	raw := func() string {
		v, _ := rdb.Get(ctx, redisKey).Result()
		return v
	}
	return NewBankRepository(rdb, redisKey, secSvc, &nopLogger), raw
}

func TestBankRepository_GetBanks_Missing(t *testing.T) {
	repo, _ := newTestRepository(t)

	got, err := repo.GetBanks(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBankRepository_PutGet_Roundtrip(t *testing.T) {
	repo, raw := newTestRepository(t)
	ctx := context.Background()

	banks := []domain.Bank{
		{
			ID:          "item-1",
			Name:        "Chase",
			AccessToken: "access-sandbox-1",
			Accounts: []domain.Account{
				{ID: "acc-1", Enabled: true, Name: "Card", Type: domain.AccountTypeCredit},
			},
		},
		{ID: "item-2", Deleted: true, Index: 1},
	}

	require.NoError(t, repo.PutBanks(ctx, banks))

	got, err := repo.GetBanks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, banks[0], got[0])
	assert.Equal(t, "item-2", got[1].ID)
	assert.True(t, got[1].Deleted)
	assert.Equal(t, 1, got[1].Index)
	assert.Empty(t, got[1].AccessToken)

	assert.NotContains(t, raw(), "access-sandbox-1")
}
