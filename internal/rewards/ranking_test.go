package rewards

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"rebltasks-bot/internal/store"
)

func seedRanked(t *testing.T, engine *Engine) {
	t.Helper()
	ctx := context.Background()

	// Creation order: alice, bob, carol, dave.
	users := []struct {
		id      int64
		name    string
		balance int64
	}{
		{1, "alice", 30},
		{2, "bob", 20},
		{3, "carol", 20},
		{4, "dave", 0},
	}
	for _, u := range users {
		_, err := engine.RegisterOrVisit(ctx, u.id, u.name)
		require.NoError(t, err)
		if u.balance > 0 {
			_, err = engine.Credit(ctx, u.id, u.balance, ReasonAdmin)
			require.NoError(t, err)
		}
	}
}

func TestLeaderboardOrderAndTieBreak(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))
	seedRanked(t, engine)

	entries, err := engine.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.DisplayName)
	}
	// bob and carol share a balance; bob registered first and ranks higher.
	require.Equal(t, []string{"alice", "bob", "carol", "dave"}, names)
}

func TestLeaderboardHonorsLimit(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))
	seedRanked(t, engine)

	entries, err := engine.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entries, err = engine.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRankMatchesLeaderboardPosition(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))
	seedRanked(t, engine)

	entries, err := engine.Leaderboard(ctx, 100)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for i, userID := range []int64{1, 2, 3, 4} {
		res, err := engine.Rank(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, i+1, res.Rank, "rank must match the leaderboard traversal")
		require.Equal(t, entries[i].Balance, res.Balance)
		require.False(t, seen[res.Rank], "ranks must be unique even on tied balances")
		seen[res.Rank] = true
	}
}

func TestRankUnknownUser(t *testing.T) {
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.Rank(context.Background(), 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}
