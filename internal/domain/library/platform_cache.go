package library

import (
	"time"

	"github.com/google/uuid"
)

type Platform string

const (
	PlatformPSN   Platform = "psn"
	PlatformSteam Platform = "steam"
)

type MatchMethod string

const (
	MatchExact     MatchMethod = "exact"
	MatchIExact    MatchMethod = "iexact"
	MatchSlug      MatchMethod = "slug"
	MatchSlugRoman MatchMethod = "slug_roman"
	MatchPartial   MatchMethod = "partial"
	MatchUser      MatchMethod = "user_match"
	MatchNone      MatchMethod = "none"
)

type CacheStatus string

const (
	CachePending  CacheStatus = "pending"
	CacheImported CacheStatus = "imported"
	CacheHidden   CacheStatus = "hidden"
)

// PlatformCache mirrors one externally-owned title for one user. Match
// fields are nil until the matcher resolves the title; Status cycles
// between pending and imported on sync, hidden is user-set and sticky.
type PlatformCache struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_cache_user_platform_title;index" json:"user_id"`
	Platform   Platform  `gorm:"column:platform;not null;uniqueIndex:uq_cache_user_platform_title" json:"platform"`
	PlatformID string    `gorm:"column:platform_id;not null;uniqueIndex:uq_cache_user_platform_title" json:"platform_id"`

	PlatformName     string `gorm:"column:platform_name;not null" json:"platform_name"`
	PlatformImageURL string `gorm:"column:platform_image_url" json:"platform_image_url,omitempty"`

	MatchedIGDBID   *int64      `gorm:"column:matched_igdb_id;index" json:"matched_igdb_id,omitempty"`
	MatchedName     *string     `gorm:"column:matched_name" json:"matched_name,omitempty"`
	MatchedCoverURL *string     `gorm:"column:matched_cover_url" json:"matched_cover_url,omitempty"`
	MatchConfidence *float64    `gorm:"column:match_confidence" json:"match_confidence,omitempty"`
	MatchMethod     MatchMethod `gorm:"column:match_method;not null;default:'none'" json:"match_method"`

	Status CacheStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`

	PlaytimeMinutes int        `gorm:"column:playtime_minutes;not null;default:0" json:"playtime_minutes"`
	PlayCount       int        `gorm:"column:play_count;not null;default:0" json:"play_count"`
	FirstPlayed     *time.Time `gorm:"column:first_played" json:"first_played,omitempty"`
	LastPlayedAt    *time.Time `gorm:"column:last_played_at" json:"last_played_at,omitempty"`
	LastSyncedAt    *time.Time `gorm:"column:last_synced_at" json:"last_synced_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (PlatformCache) TableName() string { return "platform_cache" }
