package library

import "time"

// SteamAppMap caches confirmed appid → canonical game matches, shared
// across all users as the batch fast path of a Steam sync.
type SteamAppMap struct {
	AppID      int64       `gorm:"column:app_id;primaryKey" json:"app_id"`
	IGDBID     int64       `gorm:"column:igdb_id;not null;index" json:"igdb_id"`
	Name       string      `gorm:"column:name;not null" json:"name"`
	CoverURL   string      `gorm:"column:cover_url" json:"cover_url,omitempty"`
	Confidence float64     `gorm:"column:confidence;not null" json:"confidence"`
	Method     MatchMethod `gorm:"column:method;not null" json:"method"`
	CreatedAt  time.Time   `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (SteamAppMap) TableName() string { return "steam_app_map" }
