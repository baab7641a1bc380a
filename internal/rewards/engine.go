package rewards

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"rebltasks-bot/internal/models"
	"rebltasks-bot/internal/store"
)

// Credit reason codes recorded on the ledger.
const (
	ReasonReferral = "referral"
	ReasonTask     = "task"
	ReasonAdmin    = "admin"
)

// Config holds the reward policy knobs.
type Config struct {
	DailyRewardAmount int64
	ReferralBonus     int64
	ClaimRetries      int
}

// Engine is the rewards and ranking core. All state lives in the injected
// store; the engine itself is stateless and safe for concurrent use.
type Engine struct {
	store store.AccountStore
	clock clockwork.Clock
	log   *logrus.Logger
	cfg   Config
}

func New(st store.AccountStore, clock clockwork.Clock, log *logrus.Logger, cfg Config) *Engine {
	if cfg.DailyRewardAmount <= 0 {
		cfg.DailyRewardAmount = 10
	}
	if cfg.ReferralBonus <= 0 {
		cfg.ReferralBonus = 50
	}
	if cfg.ClaimRetries <= 0 {
		cfg.ClaimRetries = 3
	}
	return &Engine{store: st, clock: clock, log: log, cfg: cfg}
}

// RegisterOrVisit ensures an account exists for the user, creating it with
// defaults on first contact.
func (e *Engine) RegisterOrVisit(ctx context.Context, userID int64, displayName string) (*models.Account, error) {
	acct, created, err := e.store.GetOrCreate(ctx, userID, displayName)
	if err != nil {
		return nil, fmt.Errorf("register account: %w", err)
	}
	if created {
		e.log.WithFields(logrus.Fields{"user_id": userID, "username": displayName}).Info("New user registered")
	}
	return acct, nil
}

// MarkGateJoined records that the user passed the channel-membership gate.
// The transport layer performs the actual membership check.
func (e *Engine) MarkGateJoined(ctx context.Context, userID int64) error {
	if err := e.store.SetGateJoined(ctx, userID); err != nil {
		return fmt.Errorf("mark gate joined: %w", err)
	}
	return nil
}

// RegisterDevice stores the push token used by the daily reminder job.
func (e *Engine) RegisterDevice(ctx context.Context, userID int64, token string) error {
	if err := e.store.SetDeviceToken(ctx, userID, token); err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}
