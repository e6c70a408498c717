package catalog

import (
	"time"

	"gorm.io/datatypes"
)

// Game is the canonical record for a single provider game. IGDBID is
// the primary external key; Slug is the provider's URL fragment and is
// unique among live rows.
type Game struct {
	ID     uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	IGDBID int64   `gorm:"column:igdb_id;uniqueIndex;not null" json:"igdb_id"`
	Slug   *string `gorm:"column:slug;uniqueIndex" json:"slug,omitempty"`
	Name   string  `gorm:"column:name;not null;index" json:"name"`

	Summary   *string `gorm:"column:summary;type:text" json:"summary,omitempty"`
	Storyline *string `gorm:"column:storyline;type:text" json:"storyline,omitempty"`

	CoverImageURL  *string        `gorm:"column:cover_image_url" json:"cover_image_url,omitempty"`
	ScreenshotURLs datatypes.JSON `gorm:"column:screenshot_urls;type:jsonb" json:"screenshot_urls,omitempty"`
	ArtworkURLs    datatypes.JSON `gorm:"column:artwork_urls;type:jsonb" json:"artwork_urls,omitempty"`
	VideoURLs      datatypes.JSON `gorm:"column:video_urls;type:jsonb" json:"video_urls,omitempty"`

	Rating                *float64 `gorm:"column:rating" json:"rating,omitempty"`
	AggregatedRating      *float64 `gorm:"column:aggregated_rating" json:"aggregated_rating,omitempty"`
	AggregatedRatingCount *int     `gorm:"column:aggregated_rating_count" json:"aggregated_rating_count,omitempty"`
	TotalRating           *float64 `gorm:"column:total_rating" json:"total_rating,omitempty"`
	TotalRatingCount      *int     `gorm:"column:total_rating_count" json:"total_rating_count,omitempty"`
	Hypes                 *int     `gorm:"column:hypes" json:"hypes,omitempty"`

	Genres             *string `gorm:"column:genres" json:"genres,omitempty"`
	Platforms          *string `gorm:"column:platforms" json:"platforms,omitempty"`
	Developers         *string `gorm:"column:developers" json:"developers,omitempty"`
	Publishers         *string `gorm:"column:publishers" json:"publishers,omitempty"`
	GameModes          *string `gorm:"column:game_modes" json:"game_modes,omitempty"`
	PlayerPerspectives *string `gorm:"column:player_perspectives" json:"player_perspectives,omitempty"`
	Themes             *string `gorm:"column:themes" json:"themes,omitempty"`
	Franchise          *string `gorm:"column:franchise" json:"franchise,omitempty"`

	FirstReleaseDate *time.Time `gorm:"column:first_release_date" json:"first_release_date,omitempty"`

	SimilarGames         datatypes.JSON `gorm:"column:similar_games;type:jsonb" json:"similar_games,omitempty"`
	DLCs                 datatypes.JSON `gorm:"column:dlcs;type:jsonb" json:"dlcs,omitempty"`
	Expansions           datatypes.JSON `gorm:"column:expansions;type:jsonb" json:"expansions,omitempty"`
	Remakes              datatypes.JSON `gorm:"column:remakes;type:jsonb" json:"remakes,omitempty"`
	Remasters            datatypes.JSON `gorm:"column:remasters;type:jsonb" json:"remasters,omitempty"`
	Bundles              datatypes.JSON `gorm:"column:bundles;type:jsonb" json:"bundles,omitempty"`
	Ports                datatypes.JSON `gorm:"column:ports;type:jsonb" json:"ports,omitempty"`
	StandaloneExpansions datatypes.JSON `gorm:"column:standalone_expansions;type:jsonb" json:"standalone_expansions,omitempty"`
	Episodes             datatypes.JSON `gorm:"column:episodes;type:jsonb" json:"episodes,omitempty"`
	Seasons              datatypes.JSON `gorm:"column:seasons;type:jsonb" json:"seasons,omitempty"`
	Packs                datatypes.JSON `gorm:"column:packs;type:jsonb" json:"packs,omitempty"`
	Editions             datatypes.JSON `gorm:"column:editions;type:jsonb" json:"editions,omitempty"`
	InBundles            datatypes.JSON `gorm:"column:in_bundles;type:jsonb" json:"in_bundles,omitempty"`
	ParentGame           datatypes.JSON `gorm:"column:parent_game;type:jsonb" json:"parent_game,omitempty"`
	VersionParent        datatypes.JSON `gorm:"column:version_parent;type:jsonb" json:"version_parent,omitempty"`

	GameStatusID   *int    `gorm:"column:game_status_id" json:"game_status_id,omitempty"`
	GameStatusName *string `gorm:"column:game_status_name" json:"game_status_name,omitempty"`
	GameTypeID     *int    `gorm:"column:game_type_id" json:"game_type_id,omitempty"`
	GameTypeName   *string `gorm:"column:game_type_name" json:"game_type_name,omitempty"`

	AgeRatings       datatypes.JSON `gorm:"column:age_ratings;type:jsonb" json:"age_ratings,omitempty"`
	GameEngines      datatypes.JSON `gorm:"column:game_engines;type:jsonb" json:"game_engines,omitempty"`
	MultiplayerModes datatypes.JSON `gorm:"column:multiplayer_modes;type:jsonb" json:"multiplayer_modes,omitempty"`
	LanguageSupports datatypes.JSON `gorm:"column:language_supports;type:jsonb" json:"language_supports,omitempty"`
	Franchises       datatypes.JSON `gorm:"column:franchises;type:jsonb" json:"franchises,omitempty"`
	Collections      datatypes.JSON `gorm:"column:collections;type:jsonb" json:"collections,omitempty"`
	AlternativeNames datatypes.JSON `gorm:"column:alternative_names;type:jsonb" json:"alternative_names,omitempty"`
	Keywords         datatypes.JSON `gorm:"column:keywords;type:jsonb" json:"keywords,omitempty"`

	TimeToBeat datatypes.JSON `gorm:"column:time_to_beat;type:jsonb" json:"time_to_beat,omitempty"`

	// Full provider JSON as received, kept for forward-compatible
	// re-projection.
	RawRecord datatypes.JSON `gorm:"column:raw_record;type:jsonb" json:"raw_record,omitempty"`

	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false;index" json:"is_deleted"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Game) TableName() string { return "game" }

// RelatedGame is the shared shape of every related-game collection
// entry (similar games, dlcs, remakes, editions, ...).
type RelatedGame struct {
	IGDBID        int64  `json:"igdb_id"`
	Name          string `json:"name"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	Slug          string `json:"slug,omitempty"`
	EditionTitle  string `json:"edition_title,omitempty"`
}

// TimeToBeatBucket is one of the hastily/normally/completely figures.
type TimeToBeatBucket struct {
	Seconds   int    `json:"seconds"`
	Hours     int    `json:"hours"`
	Minutes   int    `json:"minutes"`
	Formatted string `json:"formatted"`
}

type TimeToBeat struct {
	Hastily    *TimeToBeatBucket `json:"hastily,omitempty"`
	Normally   *TimeToBeatBucket `json:"normally,omitempty"`
	Completely *TimeToBeatBucket `json:"completely,omitempty"`
	Count      int               `json:"count"`
}
