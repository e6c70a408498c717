package library

import (
	"time"

	"github.com/google/uuid"
)

type LibraryStatus string

const (
	StatusWantToPlay LibraryStatus = "want_to_play"
	StatusPlaying    LibraryStatus = "playing"
	StatusPlayed     LibraryStatus = "played"
	StatusInList     LibraryStatus = "in_list"
)

type ImportSource string

const (
	SourceManual ImportSource = "manual"
	SourcePSN    ImportSource = "psn"
	SourceSteam  ImportSource = "steam"
)

// UserGame is one user-visible library entry, keyed by the canonical
// game. Playtime and last-played are aggregates over every platform
// cache row matched to the same game.
type UserGame struct {
	ID     uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_user_game;index" json:"user_id"`
	GameID uint64    `gorm:"column:game_id;not null;uniqueIndex:uq_user_game" json:"game_id"`

	IGDBID int64         `gorm:"column:igdb_id;not null;index" json:"igdb_id"`
	Status LibraryStatus `gorm:"column:status;not null;default:'in_list'" json:"status"`

	PlaytimeMinutes int          `gorm:"column:playtime_minutes;not null;default:0" json:"playtime_minutes"`
	LastPlayedAt    *time.Time   `gorm:"column:last_played_at" json:"last_played_at,omitempty"`
	ImportSource    ImportSource `gorm:"column:import_source;not null;default:'manual'" json:"import_source"`

	AddedAt   time.Time `gorm:"column:added_at;not null" json:"added_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (UserGame) TableName() string { return "user_game" }
