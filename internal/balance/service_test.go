package balance_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/brokerledger/internal/balance"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
)

var (
	from = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC)
)

func entry(acct, debit, credit string) *ledger.Entry {
	return &ledger.Entry{
		AccountNumber: acct,
		Debit:         decimal.RequireFromString(debit),
		Credit:        decimal.RequireFromString(credit),
	}
}

func TestService_TrialBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := balance.NewMockReader(ctrl)
	reader.EXPECT().QueryAll(gomock.Any(), from, to).Return([]*ledger.Entry{
		entry("CASH-TRUST", "2260.00", "0"),
		entry("CASH-COMMISSION-TRUST", "0", "2260.00"),
	}, nil)

	svc := balance.NewService(reader)

	tb, err := svc.TrialBalance(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)

	assert.Equal(t, "CASH-COMMISSION-TRUST", tb.Rows[0].AccountNumber)
	assert.Equal(t, "-2260", tb.Rows[0].Net.String())
	assert.Equal(t, "CASH-TRUST", tb.Rows[1].AccountNumber)
	assert.Equal(t, "2260", tb.Rows[1].Net.String())
	assert.True(t, tb.Balanced())
}

func TestService_RangeActivity_MatchesIndependentSum(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rng := rand.New(rand.NewPCG(1, 2))

	var (
		entries                []*ledger.Entry
		wantDebit, wantCredit int64
	)

	for range 200 {
		cents := rng.Int64N(1_000_000) + 1

		e := &ledger.Entry{AccountNumber: "CASH-TRUST", Debit: decimal.Zero, Credit: decimal.Zero}
		if rng.IntN(2) == 0 {
			e.Debit = decimal.New(cents, -2)
			wantDebit += cents
		} else {
			e.Credit = decimal.New(cents, -2)
			wantCredit += cents
		}

		entries = append(entries, e)
	}

	reader := balance.NewMockReader(ctrl)
	reader.EXPECT().Query(gomock.Any(), "CASH-TRUST", from, to).Return(entries, nil).Times(2)

	svc := balance.NewService(reader)

	first, err := svc.RangeActivity(context.Background(), "CASH-TRUST", from, to)
	require.NoError(t, err)

	assert.True(t, first.DebitTotal.Equal(decimal.New(wantDebit, -2)))
	assert.True(t, first.CreditTotal.Equal(decimal.New(wantCredit, -2)))
	assert.True(t, first.Net.Equal(decimal.New(wantDebit-wantCredit, -2)))

	second, err := svc.RangeActivity(context.Background(), "CASH-TRUST", from, to)
	require.NoError(t, err)
	assert.True(t, first.Net.Equal(second.Net))
}

func TestService_ClosingBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := balance.NewMockReader(ctrl)
	reader.EXPECT().Query(gomock.Any(), "TRUST-LIABILITY", ledger.Beginning, to).Return([]*ledger.Entry{
		entry("TRUST-LIABILITY", "0", "5000.00"),
		entry("TRUST-LIABILITY", "1200.00", "0"),
	}, nil)

	svc := balance.NewService(reader)

	got, err := svc.ClosingBalance(context.Background(), "TRUST-LIABILITY", to)
	require.NoError(t, err)
	assert.Equal(t, "-3800", got.String())
}

func newRedisCache(t *testing.T) *balance.RedisCache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return balance.NewRedisCache(client, time.Minute)
}

func TestService_RedisCacheReadThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := newRedisCache(t)
	reader := balance.NewMockReader(ctrl)
	svc := balance.NewService(reader, balance.WithCache(cache))

	reader.EXPECT().QueryAll(gomock.Any(), from, to).Return([]*ledger.Entry{
		entry("CASH-TRUST", "100.00", "0"),
		entry("TRUST-LIABILITY", "0", "100.00"),
	}, nil).Times(1)

	first, err := svc.TrialBalance(context.Background(), from, to)
	require.NoError(t, err)

	cached, err := svc.TrialBalance(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, cached.Rows, 2)
	assert.True(t, first.Rows[0].Net.Equal(cached.Rows[0].Net))
	assert.True(t, cached.Balanced())

	require.NoError(t, svc.Invalidate(context.Background()))

	reader.EXPECT().QueryAll(gomock.Any(), from, to).Return([]*ledger.Entry{
		entry("CASH-TRUST", "100.00", "0"),
		entry("TRUST-LIABILITY", "0", "100.00"),
		entry("CASH-TRUST", "50.00", "0"),
		entry("TRUST-LIABILITY", "0", "50.00"),
	}, nil).Times(1)

	fresh, err := svc.TrialBalance(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, "150", fresh.DebitTotal.String())
}

func TestRedisCache_Generation(t *testing.T) {
	cache := newRedisCache(t)
	ctx := context.Background()

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)

	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Invalidate(ctx))

	gen, err = cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)

	var dst balance.Activity

	hit, err := cache.Get(ctx, "missing", &dst)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestService_CacheFailureFallsBackToLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := balance.NewMockCache(ctrl)
	reader := balance.NewMockReader(ctrl)
	svc := balance.NewService(reader, balance.WithCache(cache))

	cache.EXPECT().Generation(gomock.Any()).Return(int64(0), errors.New("connection refused"))
	reader.EXPECT().Query(gomock.Any(), "CASH-TRUST", from, to).Return([]*ledger.Entry{
		entry("CASH-TRUST", "10.00", "0"),
	}, nil)

	got, err := svc.RangeActivity(context.Background(), "CASH-TRUST", from, to)
	require.NoError(t, err)
	assert.Equal(t, "10", got.Net.String())
}

func TestService_CacheKeyCarriesGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := balance.NewMockCache(ctrl)
	reader := balance.NewMockReader(ctrl)
	svc := balance.NewService(reader, balance.WithCache(cache))

	cache.EXPECT().Generation(gomock.Any()).Return(int64(7), nil)
	cache.EXPECT().Get(gomock.Any(), "7:activity:CASH-TRUST:2025-09-01:2025-09-30", gomock.Any()).Return(false, nil)
	reader.EXPECT().Query(gomock.Any(), "CASH-TRUST", from, to).Return(nil, nil)
	cache.EXPECT().Set(gomock.Any(), "7:activity:CASH-TRUST:2025-09-01:2025-09-30", gomock.Any()).Return(nil)

	got, err := svc.RangeActivity(context.Background(), "CASH-TRUST", from, to)
	require.NoError(t, err)
	assert.True(t, got.Net.IsZero())
}
