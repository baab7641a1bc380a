package store

import (
	"context"
	"errors"
	"time"

	"rebltasks-bot/internal/models"
)

// ErrNotFound is returned when an operation targets a missing account.
var ErrNotFound = errors.New("account not found")

// AccountStore is the durable identity store. Every mutation is atomic at
// the record level; callers never hold an Account across two calls and write
// it back, they go through one of the semantic operations below.
type AccountStore interface {
	// GetOrCreate returns the account for telegramID, creating it with
	// defaults (zero balance, no wallet, no referrer) on first contact.
	// Lookup never overwrites mutable fields; an empty stored username is
	// backfilled from displayName. The bool reports whether the account
	// was created by this call.
	GetOrCreate(ctx context.Context, telegramID int64, displayName string) (*models.Account, bool, error)

	Get(ctx context.Context, telegramID int64) (*models.Account, error)

	// FindByUsername resolves a display name to an account. Names are not
	// unique; the earliest-created match wins.
	FindByUsername(ctx context.Context, username string) (*models.Account, error)

	SetGateJoined(ctx context.Context, telegramID int64) error
	SetDeviceToken(ctx context.Context, telegramID int64, token string) error

	// SetWallet persists the address and the verified flag together.
	SetWallet(ctx context.Context, telegramID int64, address string) error

	// ApplyClaim is the daily-claim compare-and-swap: it adds amount to the
	// balance and moves last_claim_at to now only if the stored
	// last_claim_at still equals prev. Returns (false, 0, nil) when another
	// writer got there first.
	ApplyClaim(ctx context.Context, telegramID int64, prev *time.Time, now time.Time, amount int64) (bool, int64, error)

	// Credit atomically increments the balance and appends a reason-tagged
	// CreditEntry. Returns the new balance.
	Credit(ctx context.Context, telegramID int64, amount int64, reason string) (int64, error)

	// ApplyReferral sets the invitee's referrer and credits the inviter the
	// bonus in one transaction. Returns (false, nil) without side effects
	// when the invitee is missing or already has a referrer.
	ApplyReferral(ctx context.Context, inviteeID, inviterID, bonus int64) (bool, error)

	// CompleteTask records taskID in the account's completed set and credits
	// reward on first completion only. Returns (false, nil) for repeats.
	CompleteTask(ctx context.Context, telegramID int64, taskID string, reward int64) (bool, error)

	// TopByBalance lists up to limit accounts ordered by balance descending,
	// ties broken by creation order.
	TopByBalance(ctx context.Context, limit int) ([]models.Account, error)

	// RankOf returns the 1-based position of the account under the
	// TopByBalance ordering, together with the account itself.
	RankOf(ctx context.Context, telegramID int64) (int, *models.Account, error)

	// ReferralStats reports how many accounts name telegramID as referrer
	// and the total amount credited to it with the referral reason.
	ReferralStats(ctx context.Context, telegramID int64) (invited int64, earned int64, err error)

	// UnclaimedSince lists accounts whose last claim predates dayStart (or
	// who never claimed), for the reminder worker.
	UnclaimedSince(ctx context.Context, dayStart time.Time) ([]models.Account, error)
}
