package rewards

import (
	"context"
	"fmt"
)

// LeaderboardEntry is one leaderboard row.
type LeaderboardEntry struct {
	DisplayName string
	Balance     int64
}

// RankResult is a user's position on the full leaderboard.
type RankResult struct {
	Rank    int
	Balance int64
}

// Leaderboard returns up to limit entries ordered by balance descending.
// Ties break toward the earlier-created account, so the ordering is total
// and repeat calls see the same sequence for unchanged balances.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	accounts, err := e.store.TopByBalance(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	entries := make([]LeaderboardEntry, 0, len(accounts))
	for _, acct := range accounts {
		name := acct.Username
		if name == "" {
			name = fmt.Sprintf("User_%d", acct.TelegramID)
		}
		entries = append(entries, LeaderboardEntry{DisplayName: name, Balance: acct.Balance})
	}
	return entries, nil
}

// Rank returns the user's 1-based rank under the leaderboard ordering. Every
// account holds a unique rank; equal balances are split by creation order.
func (e *Engine) Rank(ctx context.Context, userID int64) (RankResult, error) {
	rank, acct, err := e.store.RankOf(ctx, userID)
	if err != nil {
		return RankResult{}, fmt.Errorf("rank: %w", err)
	}
	return RankResult{Rank: rank, Balance: acct.Balance}, nil
}
