package models

import (
	"time"
)

// CreditEntry records every non-claim balance credit with its reason code,
// so referral earnings and task payouts stay auditable.
type CreditEntry struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID int64  `gorm:"not null;index"` // Telegram ID of the credited account
	Amount    int64  `gorm:"not null"`
	Reason    string `gorm:"size:32;not null"`
	CreatedAt time.Time
}
