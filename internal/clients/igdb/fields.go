package igdb

import "strings"

// gameFieldGroups is the canonical field template every game lookup
// requests, including the sub-fields the projector needs to derive
// image URLs and related-game collections.
var gameFieldGroups = []string{
	"id", "name", "slug", "summary", "storyline",
	"first_release_date",
	"rating", "aggregated_rating", "aggregated_rating_count",
	"total_rating", "total_rating_count", "hypes",
	"game_status", "game_type",
	"cover.image_id",
	"screenshots.image_id",
	"artworks.image_id",
	"videos.video_id",
	"genres.name",
	"platforms.name",
	"game_modes.name",
	"player_perspectives.name",
	"themes.name",
	"involved_companies.company.name",
	"involved_companies.developer",
	"involved_companies.publisher",
	"similar_games.id", "similar_games.name", "similar_games.slug", "similar_games.cover.image_id",
	"dlcs.id", "dlcs.name", "dlcs.slug", "dlcs.cover.image_id",
	"expansions.id", "expansions.name", "expansions.slug", "expansions.cover.image_id",
	"remakes.id", "remakes.name", "remakes.slug", "remakes.cover.image_id",
	"remasters.id", "remasters.name", "remasters.slug", "remasters.cover.image_id",
	"bundles.id", "bundles.name", "bundles.slug", "bundles.cover.image_id",
	"ports.id", "ports.name", "ports.slug", "ports.cover.image_id",
	"standalone_expansions.id", "standalone_expansions.name", "standalone_expansions.slug", "standalone_expansions.cover.image_id",
	"parent_game.id", "parent_game.name", "parent_game.slug", "parent_game.cover.image_id",
	"version_parent.id", "version_parent.name", "version_parent.slug", "version_parent.cover.image_id",
	"version_title",
	"age_ratings.rating_category", "age_ratings.rating_content_descriptions",
	"game_engines.name",
	"multiplayer_modes.*",
	"language_supports.language.name", "language_supports.language_support_type.name",
	"franchise.name",
	"franchises.name",
	"collections.name",
	"alternative_names.name",
	"keywords.name",
}

// GameFields is the comma-joined template used in the fields clause.
var GameFields = strings.Join(gameFieldGroups, ",")
