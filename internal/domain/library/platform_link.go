package library

import (
	"time"

	"github.com/google/uuid"
)

// PlatformLink ties a user to an external platform account. Sync stamps
// LastSyncedAt after every successful pass.
type PlatformLink struct {
	ID       uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_link_user_platform" json:"user_id"`
	Platform Platform  `gorm:"column:platform;not null;uniqueIndex:uq_link_user_platform" json:"platform"`

	// Steam64 id or PSN online id, as verified by the adapter.
	AccountID   string `gorm:"column:account_id;not null" json:"account_id"`
	AccountName string `gorm:"column:account_name" json:"account_name,omitempty"`

	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (PlatformLink) TableName() string { return "platform_link" }
