package rewards

import (
	"context"
	"fmt"
	"time"
)

// ClaimResult reports the outcome of a daily claim attempt. Credited=false
// is the expected already-claimed outcome, not an error.
type ClaimResult struct {
	Credited       bool
	NewBalance     int64
	NextEligibleAt time.Time
}

// ClaimDaily credits the fixed daily amount at most once per UTC calendar
// day. The balance increment and the claim timestamp move together through a
// compare-and-swap on the previously observed last_claim_at, so two racing
// claims for the same user settle as exactly one credit.
func (e *Engine) ClaimDaily(ctx context.Context, userID int64) (ClaimResult, error) {
	now := e.clock.Now().UTC()
	next := nextUTCDay(now)

	for attempt := 0; attempt < e.cfg.ClaimRetries; attempt++ {
		acct, err := e.store.Get(ctx, userID)
		if err != nil {
			return ClaimResult{}, fmt.Errorf("claim daily: %w", err)
		}
		if acct.LastClaimAt != nil && sameUTCDay(*acct.LastClaimAt, now) {
			return ClaimResult{Credited: false, NewBalance: acct.Balance, NextEligibleAt: next}, nil
		}
		applied, balance, err := e.store.ApplyClaim(ctx, userID, acct.LastClaimAt, now, e.cfg.DailyRewardAmount)
		if err != nil {
			return ClaimResult{}, fmt.Errorf("claim daily: %w", err)
		}
		if applied {
			e.log.WithField("user_id", userID).Debug("Daily reward claimed")
			return ClaimResult{Credited: true, NewBalance: balance, NextEligibleAt: next}, nil
		}
		// Lost the swap to a concurrent writer; re-read and try again.
	}
	return ClaimResult{}, ErrConflict
}

// Credit applies a reason-tagged credit. Used by the referral and task paths
// and by administrative tooling.
func (e *Engine) Credit(ctx context.Context, userID int64, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := e.store.Credit(ctx, userID, amount, reason)
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}
	return balance, nil
}

// Balance returns the current point total.
func (e *Engine) Balance(ctx context.Context, userID int64) (int64, error) {
	acct, err := e.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return acct.Balance, nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// nextUTCDay returns the start of the calendar day after t, in UTC.
func nextUTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
