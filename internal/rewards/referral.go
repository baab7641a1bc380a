package rewards

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"rebltasks-bot/internal/models"
	"rebltasks-bot/internal/store"
)

// RegisterReferral attributes the invitee to the inviter named by token (a
// username or raw Telegram ID) and credits the inviter the fixed bonus once.
// Unresolvable tokens, self-referrals and already-attributed invitees all
// come back applied=false without an error; only store failures surface.
func (e *Engine) RegisterReferral(ctx context.Context, inviteeID int64, inviterToken string) (bool, error) {
	token := strings.TrimPrefix(strings.TrimSpace(inviterToken), "@")
	if token == "" {
		return false, nil
	}

	inviter, err := e.resolveInviter(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve inviter: %w", err)
	}
	if inviter.TelegramID == inviteeID {
		return false, nil
	}

	invitee, err := e.store.Get(ctx, inviteeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load invitee: %w", err)
	}
	if invitee.ReferrerID != nil {
		return false, nil
	}

	// Attribution and bonus commit together; the store transaction also
	// rechecks referrer_id, which closes the race with a duplicate call.
	applied, err := e.store.ApplyReferral(ctx, inviteeID, inviter.TelegramID, e.cfg.ReferralBonus)
	if err != nil {
		return false, fmt.Errorf("apply referral: %w", err)
	}
	if applied {
		e.log.WithFields(logrus.Fields{
			"invitee_id": inviteeID,
			"inviter_id": inviter.TelegramID,
		}).Info("Referral credited")
	}
	return applied, nil
}

// ReferralStats reports how many users the account invited and how much it
// earned from referral bonuses, for the invite screen.
func (e *Engine) ReferralStats(ctx context.Context, userID int64) (invited int64, earned int64, err error) {
	invited, earned, err = e.store.ReferralStats(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("referral stats: %w", err)
	}
	return invited, earned, nil
}

// resolveInviter accepts a numeric Telegram ID or a username. Numeric tokens
// fall back to a username lookup when no such ID exists.
func (e *Engine) resolveInviter(ctx context.Context, token string) (*models.Account, error) {
	if id, convErr := strconv.ParseInt(token, 10, 64); convErr == nil {
		acct, err := e.store.Get(ctx, id)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return e.store.FindByUsername(ctx, token)
}
