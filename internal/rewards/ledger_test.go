package rewards

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"rebltasks-bot/internal/store"
)

func TestClaimDailyCalendarDays(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(testDay1) // day 1, 10:00 UTC
	engine, _ := testEngine(clock)

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)

	res, err := engine.ClaimDaily(ctx, 100)
	require.NoError(t, err)
	require.True(t, res.Credited)
	require.Equal(t, int64(10), res.NewBalance)

	// Same calendar day, even 13:59 later.
	clock.Advance(13*time.Hour + 59*time.Minute)
	res, err = engine.ClaimDaily(ctx, 100)
	require.NoError(t, err)
	require.False(t, res.Credited)
	require.Equal(t, int64(10), res.NewBalance)
	require.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), res.NextEligibleAt)

	// Two minutes later it is the next UTC day; fewer than 24h elapsed.
	clock.Advance(2 * time.Minute)
	res, err = engine.ClaimDaily(ctx, 100)
	require.NoError(t, err)
	require.True(t, res.Credited)
	require.Equal(t, int64(20), res.NewBalance)
}

func TestClaimDailyFailedAttemptLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(testDay1)
	engine, st := testEngine(clock)

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)

	_, err = engine.ClaimDaily(ctx, 100)
	require.NoError(t, err)
	before, err := st.Get(ctx, 100)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	res, err := engine.ClaimDaily(ctx, 100)
	require.NoError(t, err)
	require.False(t, res.Credited)

	after, err := st.Get(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, before.Balance, after.Balance)
	require.True(t, before.LastClaimAt.Equal(*after.LastClaimAt), "ineligible claim must not touch last_claim_at")
}

func TestClaimDailyConcurrentDoubleTap(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)

	const workers = 16
	results := make(chan ClaimResult, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := engine.ClaimDaily(ctx, 100)
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	credited := 0
	for res := range results {
		if res.Credited {
			credited++
		}
	}
	require.Equal(t, 1, credited, "exactly one concurrent claim may be credited")

	balance, err := engine.Balance(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)
}

func TestClaimDailyUnknownUser(t *testing.T) {
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.ClaimDaily(context.Background(), 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreditRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)

	_, err = engine.Credit(ctx, 100, 0, ReasonAdmin)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = engine.Credit(ctx, 100, -5, ReasonAdmin)
	require.ErrorIs(t, err, ErrInvalidAmount)

	balance, err := engine.Balance(ctx, 100)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestBalanceNeverDecreases(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(testDay1)
	engine, _ := testEngine(clock)

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)

	var last int64
	for i := 0; i < 5; i++ {
		_, err := engine.ClaimDaily(ctx, 100)
		require.NoError(t, err)
		_, err = engine.Credit(ctx, 100, 7, ReasonAdmin)
		require.NoError(t, err)

		balance, err := engine.Balance(ctx, 100)
		require.NoError(t, err)
		require.GreaterOrEqual(t, balance, last)
		last = balance

		clock.Advance(24 * time.Hour)
	}
}
