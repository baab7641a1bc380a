package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rebltasks-bot/internal/models"
)

// Gorm is the PostgreSQL-backed AccountStore.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) GetOrCreate(ctx context.Context, telegramID int64, displayName string) (*models.Account, bool, error) {
	var acct models.Account
	res := s.db.WithContext(ctx).
		Where(models.Account{TelegramID: telegramID}).
		Attrs(models.Account{Username: displayName}).
		FirstOrCreate(&acct)
	if res.Error != nil {
		return nil, false, fmt.Errorf("get or create account: %w", res.Error)
	}
	created := res.RowsAffected > 0

	// Backfill a username recorded before the platform exposed one.
	if !created && acct.Username == "" && displayName != "" {
		if err := s.db.WithContext(ctx).Model(&acct).Update("username", displayName).Error; err != nil {
			return nil, false, fmt.Errorf("backfill username: %w", err)
		}
		acct.Username = displayName
	}
	return &acct, created, nil
}

func (s *Gorm) Get(ctx context.Context, telegramID int64) (*models.Account, error) {
	var acct models.Account
	err := s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &acct, nil
}

func (s *Gorm) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acct models.Account
	err := s.db.WithContext(ctx).Where("username = ?", username).Order("id ASC").First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account by username: %w", err)
	}
	return &acct, nil
}

func (s *Gorm) SetGateJoined(ctx context.Context, telegramID int64) error {
	return s.updateFields(ctx, telegramID, map[string]interface{}{"joined_channel": true})
}

func (s *Gorm) SetDeviceToken(ctx context.Context, telegramID int64, token string) error {
	return s.updateFields(ctx, telegramID, map[string]interface{}{"device_token": token})
}

func (s *Gorm) SetWallet(ctx context.Context, telegramID int64, address string) error {
	// Single UPDATE so the address and the verified flag can never diverge.
	return s.updateFields(ctx, telegramID, map[string]interface{}{
		"wallet_address":  address,
		"wallet_verified": true,
	})
}

func (s *Gorm) updateFields(ctx context.Context, telegramID int64, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("telegram_id = ?", telegramID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) ApplyClaim(ctx context.Context, telegramID int64, prev *time.Time, now time.Time, amount int64) (bool, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Account{}).Where("telegram_id = ?", telegramID)
	if prev == nil {
		q = q.Where("last_claim_at IS NULL")
	} else {
		q = q.Where("last_claim_at = ?", prev.UTC())
	}
	res := q.Updates(map[string]interface{}{
		"balance":       gorm.Expr("balance + ?", amount),
		"last_claim_at": now.UTC(),
	})
	if res.Error != nil {
		return false, 0, fmt.Errorf("apply claim: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, 0, nil
	}
	acct, err := s.Get(ctx, telegramID)
	if err != nil {
		return false, 0, err
	}
	return true, acct.Balance, nil
}

func (s *Gorm) Credit(ctx context.Context, telegramID int64, amount int64, reason string) (int64, error) {
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("telegram_id = ?", telegramID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Create(&models.CreditEntry{
			AccountID: telegramID,
			Amount:    amount,
			Reason:    reason,
		}).Error; err != nil {
			return err
		}
		var acct models.Account
		if err := tx.Where("telegram_id = ?", telegramID).First(&acct).Error; err != nil {
			return err
		}
		newBalance = acct.Balance
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("credit account: %w", err)
	}
	return newBalance, nil
}

// errReferralTaken aborts the ApplyReferral transaction when the invitee is
// missing or already attributed; it never escapes this package.
var errReferralTaken = errors.New("referral slot taken")

func (s *Gorm) ApplyReferral(ctx context.Context, inviteeID, inviterID, bonus int64) (bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Credit the inviter first so no reader ever observes the
		// attribution without the bonus.
		res := tx.Model(&models.Account{}).
			Where("telegram_id = ?", inviterID).
			Update("balance", gorm.Expr("balance + ?", bonus))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Create(&models.CreditEntry{
			AccountID: inviterID,
			Amount:    bonus,
			Reason:    "referral",
		}).Error; err != nil {
			return err
		}
		res = tx.Model(&models.Account{}).
			Where("telegram_id = ? AND referrer_id IS NULL", inviteeID).
			Update("referrer_id", inviterID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errReferralTaken
		}
		return nil
	})
	if errors.Is(err, errReferralTaken) {
		return false, nil
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("apply referral: %w", err)
	}
	return true, nil
}

func (s *Gorm) CompleteTask(ctx context.Context, telegramID int64, taskID string, reward int64) (bool, error) {
	var applied bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.CompletedTask{
			AccountID: telegramID,
			TaskID:    taskID,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // already completed
		}
		upd := tx.Model(&models.Account{}).
			Where("telegram_id = ?", telegramID).
			Update("balance", gorm.Expr("balance + ?", reward))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Create(&models.CreditEntry{
			AccountID: telegramID,
			Amount:    reward,
			Reason:    "task",
		}).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("complete task: %w", err)
	}
	return applied, nil
}

func (s *Gorm) TopByBalance(ctx context.Context, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Order("balance DESC, id ASC").
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	return accounts, nil
}

func (s *Gorm) RankOf(ctx context.Context, telegramID int64) (int, *models.Account, error) {
	acct, err := s.Get(ctx, telegramID)
	if err != nil {
		return 0, nil, err
	}
	// Indexed count of accounts strictly ahead under the leaderboard order.
	var ahead int64
	err = s.db.WithContext(ctx).Model(&models.Account{}).
		Where("balance > ? OR (balance = ? AND id < ?)", acct.Balance, acct.Balance, acct.ID).
		Count(&ahead).Error
	if err != nil {
		return 0, nil, fmt.Errorf("count rank: %w", err)
	}
	return int(ahead) + 1, acct, nil
}

func (s *Gorm) ReferralStats(ctx context.Context, telegramID int64) (int64, int64, error) {
	var invited int64
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("referrer_id = ?", telegramID).
		Count(&invited).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count referrals: %w", err)
	}
	var earned int64
	err = s.db.WithContext(ctx).Model(&models.CreditEntry{}).
		Where("account_id = ? AND reason = ?", telegramID, "referral").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&earned).Error
	if err != nil {
		return 0, 0, fmt.Errorf("sum referral earnings: %w", err)
	}
	return invited, earned, nil
}

func (s *Gorm) UnclaimedSince(ctx context.Context, dayStart time.Time) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("last_claim_at IS NULL OR last_claim_at < ?", dayStart.UTC()).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("list unclaimed accounts: %w", err)
	}
	return accounts, nil
}
