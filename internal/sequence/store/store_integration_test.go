//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/database/dbtest"
	"github.com/MrJamesThe3rd/brokerledger/internal/sequence/store"
)

func TestIntegration_Next_ConcurrentCallersGetContiguousRun(t *testing.T) {
	db := dbtest.New(t)
	s := store.New(db)
	ctx := context.Background()

	const callers = 50

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int64
	)

	for range callers {
		wg.Go(func() {
			n, err := s.Next(ctx, "trust", 1)
			assert.NoError(t, err)

			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		})
	}

	wg.Wait()

	slices.Sort(got)
	require.Len(t, got, callers)

	for i, n := range got {
		assert.Equal(t, int64(i+1), n)
	}
}

func TestIntegration_Next_FromSeededCounter(t *testing.T) {
	db := dbtest.New(t)
	s := store.New(db)
	ctx := context.Background()

	require.NoError(t, s.Seed(ctx, "general", 1999))

	results := make(chan int64, 2)

	var wg sync.WaitGroup
	for range 2 {
		wg.Go(func() {
			n, err := s.Next(ctx, "general", 1)
			assert.NoError(t, err)
			results <- n
		})
	}

	wg.Wait()
	close(results)

	var got []int64
	for n := range results {
		got = append(got, n)
	}

	slices.Sort(got)
	assert.Equal(t, []int64{2000, 2001}, got)

	current, ok, err := s.Current(ctx, "general")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2001), current)
}

func TestIntegration_NextWith_RollbackLeavesNoGap(t *testing.T) {
	db := dbtest.New(t)
	s := store.New(db)
	ctx := context.Background()

	first, err := s.Next(ctx, "commission", 1)
	require.NoError(t, err)

	err = database.InTx(ctx, db, func(tx *sql.Tx) error {
		_, err := store.NextWith(ctx, tx, "commission", 1)
		require.NoError(t, err)

		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	next, err := s.Next(ctx, "commission", 1)
	require.NoError(t, err)
	assert.Equal(t, first+1, next)
}
