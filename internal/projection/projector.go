package projection

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
)

const (
	cdnBase = "https://images.igdb.com/igdb/image/upload"

	coverSize      = "t_cover_big_2x"
	screenshotSize = "t_screenshot_huge_2x"
	artworkSize    = "t_1080p_2x"
)

// relatedCollections lists every child collection sharing the common
// related-game shape. Similar games additionally require a cover.
var relatedCollections = []struct {
	key          string
	requireCover bool
}{
	{"similar_games", true},
	{"dlcs", false},
	{"expansions", false},
	{"remakes", false},
	{"remasters", false},
	{"bundles", false},
	{"ports", false},
	{"standalone_expansions", false},
	{"episodes", false},
	{"seasons", false},
	{"packs", false},
	{"editions", false},
	{"in_bundles", false},
}

// ProjectGame maps a raw provider record onto the canonical schema.
// Pure: no I/O, no clock reads beyond epoch conversion. The raw input
// is preserved verbatim on the result.
func ProjectGame(raw Record) (*catalog.Game, error) {
	igdbID, okID := getInt64(raw, "id")
	name, okName := getString(raw, "name")
	if !okID || !okName {
		return nil, fmt.Errorf("%w: id and name are required", apperr.ErrInvalidProviderRecord)
	}

	g := &catalog.Game{
		IGDBID:    igdbID,
		Name:      name,
		RawRecord: toJSON(raw),
	}

	if slug, ok := getString(raw, "slug"); ok {
		g.Slug = strPtr(slug)
	}
	if summary, ok := getString(raw, "summary"); ok {
		g.Summary = strPtr(summary)
	}
	if storyline, ok := getString(raw, "storyline"); ok {
		g.Storyline = strPtr(storyline)
	}

	if epoch, ok := getInt64(raw, "first_release_date"); ok && epoch > 0 {
		release := time.Unix(epoch, 0).UTC()
		g.FirstReleaseDate = &release
	}

	projectRatings(raw, g)
	projectImages(raw, g)
	projectFlattened(raw, g)
	projectStatusAndType(raw, g)
	projectAuxiliary(raw, g)

	for _, col := range relatedCollections {
		if entries := projectRelatedList(raw, col.key, col.requireCover); entries != nil {
			setRelatedColumn(g, col.key, toJSON(entries))
		}
	}
	if parent, ok := getMap(raw, "parent_game"); ok {
		if entry, ok := projectRelatedEntry(parent, false); ok {
			g.ParentGame = toJSON(entry)
		}
	}
	if parent, ok := getMap(raw, "version_parent"); ok {
		if entry, ok := projectRelatedEntry(parent, false); ok {
			g.VersionParent = toJSON(entry)
		}
	}

	return g, nil
}

// MeetsQuality is the admission filter for newly created records.
// Updates to already-stored games bypass it.
func MeetsQuality(g *catalog.Game) bool {
	if g.GameTypeID != nil && catalog.IsExcludedGameType(*g.GameTypeID) {
		return false
	}
	if g.CoverImageURL == nil {
		return false
	}
	if g.Summary == nil && g.Storyline == nil {
		return false
	}
	return true
}

func projectRatings(raw Record, g *catalog.Game) {
	if v, ok := getFloat(raw, "rating"); ok {
		g.Rating = floatPtr(v)
	}
	if v, ok := getFloat(raw, "aggregated_rating"); ok {
		g.AggregatedRating = floatPtr(v)
	}
	if v, ok := getInt(raw, "aggregated_rating_count"); ok {
		g.AggregatedRatingCount = intPtr(v)
	}
	if v, ok := getFloat(raw, "total_rating"); ok {
		g.TotalRating = floatPtr(v)
	}
	if v, ok := getInt(raw, "total_rating_count"); ok {
		g.TotalRatingCount = intPtr(v)
	}
	if v, ok := getInt(raw, "hypes"); ok {
		g.Hypes = intPtr(v)
	}
}

func projectImages(raw Record, g *catalog.Game) {
	if cover, ok := getMap(raw, "cover"); ok {
		if imageID, ok := getString(cover, "image_id"); ok {
			g.CoverImageURL = strPtr(imageURL(coverSize, imageID))
		}
	}
	if urls := imageURLList(raw, "screenshots", screenshotSize); urls != nil {
		g.ScreenshotURLs = toJSON(urls)
	}
	if urls := imageURLList(raw, "artworks", artworkSize); urls != nil {
		g.ArtworkURLs = toJSON(urls)
	}
	if videos, ok := getSlice(raw, "videos"); ok {
		var urls []string
		for _, v := range videos {
			if video, ok := v.(map[string]any); ok {
				if videoID, ok := getString(video, "video_id"); ok {
					urls = append(urls, "https://www.youtube.com/embed/"+videoID)
				}
			}
		}
		if urls != nil {
			g.VideoURLs = toJSON(urls)
		}
	}
}

func imageURL(size, imageID string) string {
	return fmt.Sprintf("%s/%s/%s.jpg", cdnBase, size, imageID)
}

func imageURLList(raw Record, key, size string) []string {
	entries, ok := getSlice(raw, key)
	if !ok {
		return nil
	}
	var urls []string
	for _, e := range entries {
		if m, ok := e.(map[string]any); ok {
			if imageID, ok := getString(m, "image_id"); ok {
				urls = append(urls, imageURL(size, imageID))
			}
		}
	}
	return urls
}

func projectFlattened(raw Record, g *catalog.Game) {
	g.Genres = joinNames(raw, "genres")
	g.Platforms = joinNames(raw, "platforms")
	g.GameModes = joinNames(raw, "game_modes")
	g.PlayerPerspectives = joinNames(raw, "player_perspectives")
	g.Themes = joinNames(raw, "themes")

	if companies, ok := getSlice(raw, "involved_companies"); ok {
		var developers, publishers []string
		for _, entry := range companies {
			ic, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			company, ok := getMap(ic, "company")
			if !ok {
				continue
			}
			name, ok := getString(company, "name")
			if !ok {
				continue
			}
			if isDev, _ := ic["developer"].(bool); isDev {
				developers = append(developers, name)
			}
			if isPub, _ := ic["publisher"].(bool); isPub {
				publishers = append(publishers, name)
			}
		}
		if developers != nil {
			g.Developers = strPtr(strings.Join(developers, ", "))
		}
		if publishers != nil {
			g.Publishers = strPtr(strings.Join(publishers, ", "))
		}
	}
}

// joinNames flattens a list of {name} objects in provider order,
// dropping entries without a name key.
func joinNames(raw Record, key string) *string {
	entries, ok := getSlice(raw, key)
	if !ok {
		return nil
	}
	var names []string
	for _, e := range entries {
		if m, ok := e.(map[string]any); ok {
			if name, ok := getString(m, "name"); ok {
				names = append(names, name)
			}
		}
	}
	if names == nil {
		return nil
	}
	return strPtr(strings.Join(names, ", "))
}

func projectStatusAndType(raw Record, g *catalog.Game) {
	if code, ok := getInt(raw, "game_status"); ok {
		g.GameStatusID = intPtr(code)
		if label, ok := catalog.GameStatusName(code); ok {
			g.GameStatusName = strPtr(label)
		}
	}
	if code, ok := getInt(raw, "game_type"); ok {
		g.GameTypeID = intPtr(code)
		if label, ok := catalog.GameTypeName(code); ok {
			g.GameTypeName = strPtr(label)
		}
	}
}

func projectAuxiliary(raw Record, g *catalog.Game) {
	if v, ok := getSlice(raw, "age_ratings"); ok {
		g.AgeRatings = toJSON(v)
	}
	if names := nameList(raw, "game_engines"); names != nil {
		g.GameEngines = toJSON(names)
	}
	if v, ok := getSlice(raw, "multiplayer_modes"); ok {
		g.MultiplayerModes = toJSON(v)
	}
	if v, ok := getSlice(raw, "language_supports"); ok {
		g.LanguageSupports = toJSON(v)
	}
	if franchise, ok := getMap(raw, "franchise"); ok {
		if name, ok := getString(franchise, "name"); ok {
			g.Franchise = strPtr(name)
		}
	}
	if names := nameList(raw, "franchises"); names != nil {
		g.Franchises = toJSON(names)
	}
	if names := nameList(raw, "collections"); names != nil {
		g.Collections = toJSON(names)
	}
	if names := nameList(raw, "alternative_names"); names != nil {
		g.AlternativeNames = toJSON(names)
	}
	if names := nameList(raw, "keywords"); names != nil {
		g.Keywords = toJSON(names)
	}
}

func nameList(raw Record, key string) []string {
	entries, ok := getSlice(raw, key)
	if !ok {
		return nil
	}
	var names []string
	for _, e := range entries {
		if m, ok := e.(map[string]any); ok {
			if name, ok := getString(m, "name"); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

func projectRelatedList(raw Record, key string, requireCover bool) []catalog.RelatedGame {
	entries, ok := getSlice(raw, key)
	if !ok {
		return nil
	}
	var out []catalog.RelatedGame
	for _, e := range entries {
		child, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if entry, ok := projectRelatedEntry(child, requireCover); ok {
			out = append(out, entry)
		}
	}
	return out
}

// ProjectRelatedEntries maps raw child records onto related-game
// entries using the same skip rules as the main projection. Used by the
// background refreshers that fill related columns from separate
// provider queries.
func ProjectRelatedEntries(records []Record, requireCover bool) []catalog.RelatedGame {
	out := make([]catalog.RelatedGame, 0, len(records))
	for _, rec := range records {
		if entry, ok := projectRelatedEntry(rec, requireCover); ok {
			out = append(out, entry)
		}
	}
	return out
}

// projectRelatedEntry maps one child onto the shared related-game
// shape. A child carrying neither a name nor a cover image is skipped;
// when requireCover is set the cover alone is mandatory.
func projectRelatedEntry(child Record, requireCover bool) (catalog.RelatedGame, bool) {
	id, okID := getInt64(child, "id")
	if !okID {
		return catalog.RelatedGame{}, false
	}
	name, hasName := getString(child, "name")

	coverURL := ""
	if cover, ok := getMap(child, "cover"); ok {
		if imageID, ok := getString(cover, "image_id"); ok {
			coverURL = imageURL(coverSize, imageID)
		}
	}
	if requireCover && coverURL == "" {
		return catalog.RelatedGame{}, false
	}
	if !hasName && coverURL == "" {
		return catalog.RelatedGame{}, false
	}

	entry := catalog.RelatedGame{
		IGDBID:        id,
		Name:          name,
		CoverImageURL: coverURL,
	}
	if slug, ok := getString(child, "slug"); ok {
		entry.Slug = slug
	}
	if title, ok := getString(child, "version_title"); ok {
		entry.EditionTitle = title
	}
	return entry, true
}

func setRelatedColumn(g *catalog.Game, key string, v datatypes.JSON) {
	switch key {
	case "similar_games":
		g.SimilarGames = v
	case "dlcs":
		g.DLCs = v
	case "expansions":
		g.Expansions = v
	case "remakes":
		g.Remakes = v
	case "remasters":
		g.Remasters = v
	case "bundles":
		g.Bundles = v
	case "ports":
		g.Ports = v
	case "standalone_expansions":
		g.StandaloneExpansions = v
	case "episodes":
		g.Episodes = v
	case "seasons":
		g.Seasons = v
	case "packs":
		g.Packs = v
	case "editions":
		g.Editions = v
	case "in_bundles":
		g.InBundles = v
	}
}
