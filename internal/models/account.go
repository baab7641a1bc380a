package models

import (
	"time"
)

// Account is the persistent record for one Telegram identity. Balance only
// ever grows; there is no debit path in this bot.
type Account struct {
	ID             uint   `gorm:"primaryKey"`
	TelegramID     int64  `gorm:"uniqueIndex;not null"`
	Username       string `gorm:"size:255"`
	Balance        int64  `gorm:"not null;default:0"`
	WalletAddress  string `gorm:"size:64"`
	WalletVerified bool   `gorm:"default:false"`
	LastClaimAt    *time.Time
	JoinedChannel  bool   `gorm:"default:false"`
	ReferrerID     *int64 `gorm:"index"` // Telegram ID of the inviter, write-once
	DeviceToken    string `gorm:"size:255"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
