package models

import (
	"time"
)

type CompletedTask struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID int64  `gorm:"not null;uniqueIndex:idx_account_task"`
	TaskID    string `gorm:"size:64;not null;uniqueIndex:idx_account_task"`
	CreatedAt time.Time
}
