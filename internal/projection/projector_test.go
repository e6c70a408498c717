package projection

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
)

func sampleRecord() Record {
	return Record{
		"id":                 float64(1942),
		"name":               "The Witcher 3: Wild Hunt",
		"slug":               "the-witcher-3-wild-hunt",
		"summary":            "Geralt hunts a child of prophecy.",
		"first_release_date": float64(1431993600), // 2015-05-19 UTC
		"total_rating":       94.5,
		"total_rating_count": float64(3100),
		"cover":              map[string]any{"image_id": "co1wyy"},
		"screenshots": []any{
			map[string]any{"image_id": "sc1"},
			map[string]any{"image_id": "sc2"},
		},
		"videos": []any{
			map[string]any{"video_id": "c0i88t0Kacs"},
		},
		"genres": []any{
			map[string]any{"name": "Role-playing (RPG)"},
			map[string]any{"name": "Adventure"},
		},
		"involved_companies": []any{
			map[string]any{
				"company":   map[string]any{"name": "CD Projekt RED"},
				"developer": true,
				"publisher": false,
			},
			map[string]any{
				"company":   map[string]any{"name": "CD Projekt"},
				"developer": false,
				"publisher": true,
			},
		},
		"game_status": float64(0),
		"game_type":   float64(0),
		"similar_games": []any{
			map[string]any{
				"id":    float64(1020),
				"name":  "Grand Theft Auto V",
				"slug":  "grand-theft-auto-v",
				"cover": map[string]any{"image_id": "co2lbd"},
			},
			// No cover: similar games require one, so this is dropped.
			map[string]any{
				"id":   float64(7346),
				"name": "Zelda",
			},
		},
		"dlcs": []any{
			map[string]any{"id": float64(9999), "name": "Blood and Wine"},
		},
	}
}

func TestProjectGame(t *testing.T) {
	g, err := ProjectGame(sampleRecord())
	if err != nil {
		t.Fatalf("ProjectGame: %v", err)
	}
	if g.IGDBID != 1942 || g.Name != "The Witcher 3: Wild Hunt" {
		t.Fatalf("identity fields wrong: %d %q", g.IGDBID, g.Name)
	}
	if g.Slug == nil || *g.Slug != "the-witcher-3-wild-hunt" {
		t.Errorf("slug = %v", g.Slug)
	}
	if g.CoverImageURL == nil ||
		*g.CoverImageURL != "https://images.igdb.com/igdb/image/upload/t_cover_big_2x/co1wyy.jpg" {
		t.Errorf("cover url = %v", g.CoverImageURL)
	}
	want := time.Date(2015, 5, 19, 0, 0, 0, 0, time.UTC)
	if g.FirstReleaseDate == nil || !g.FirstReleaseDate.Equal(want) {
		t.Errorf("first release date = %v, want %v", g.FirstReleaseDate, want)
	}
	if g.TotalRating == nil || *g.TotalRating != 94.5 {
		t.Errorf("total rating = %v", g.TotalRating)
	}
	if g.TotalRatingCount == nil || *g.TotalRatingCount != 3100 {
		t.Errorf("total rating count = %v", g.TotalRatingCount)
	}
	if g.Genres == nil || *g.Genres != "Role-playing (RPG), Adventure" {
		t.Errorf("genres = %v", g.Genres)
	}
	if g.Developers == nil || *g.Developers != "CD Projekt RED" {
		t.Errorf("developers = %v", g.Developers)
	}
	if g.Publishers == nil || *g.Publishers != "CD Projekt" {
		t.Errorf("publishers = %v", g.Publishers)
	}
	if g.GameStatusName == nil || *g.GameStatusName != "Released" {
		t.Errorf("game status name = %v", g.GameStatusName)
	}

	var screenshots []string
	if err := json.Unmarshal(g.ScreenshotURLs, &screenshots); err != nil {
		t.Fatalf("screenshots column: %v", err)
	}
	if len(screenshots) != 2 ||
		screenshots[0] != "https://images.igdb.com/igdb/image/upload/t_screenshot_huge_2x/sc1.jpg" {
		t.Errorf("screenshots = %v", screenshots)
	}

	var videos []string
	if err := json.Unmarshal(g.VideoURLs, &videos); err != nil {
		t.Fatalf("videos column: %v", err)
	}
	if len(videos) != 1 || videos[0] != "https://www.youtube.com/embed/c0i88t0Kacs" {
		t.Errorf("videos = %v", videos)
	}

	var similar []catalog.RelatedGame
	if err := json.Unmarshal(g.SimilarGames, &similar); err != nil {
		t.Fatalf("similar games column: %v", err)
	}
	if len(similar) != 1 || similar[0].IGDBID != 1020 {
		t.Errorf("similar games = %+v, want only the covered entry", similar)
	}

	var dlcs []catalog.RelatedGame
	if err := json.Unmarshal(g.DLCs, &dlcs); err != nil {
		t.Fatalf("dlcs column: %v", err)
	}
	if len(dlcs) != 1 || dlcs[0].Name != "Blood and Wine" {
		t.Errorf("dlcs = %+v", dlcs)
	}

	if len(g.RawRecord) == 0 {
		t.Error("raw record not preserved")
	}
}

func TestProjectGameRequiresIDAndName(t *testing.T) {
	cases := []Record{
		{"name": "No ID"},
		{"id": float64(7)},
		{},
	}
	for _, raw := range cases {
		if _, err := ProjectGame(raw); !errors.Is(err, apperr.ErrInvalidProviderRecord) {
			t.Errorf("ProjectGame(%v) err = %v, want ErrInvalidProviderRecord", raw, err)
		}
	}
}

func TestMeetsQuality(t *testing.T) {
	cover := "https://images.igdb.com/igdb/image/upload/t_cover_big_2x/x.jpg"
	summary := "a summary"
	modType := catalog.GameTypeMod

	cases := []struct {
		name string
		game catalog.Game
		want bool
	}{
		{"complete", catalog.Game{CoverImageURL: &cover, Summary: &summary}, true},
		{"storyline only", catalog.Game{CoverImageURL: &cover, Storyline: &summary}, true},
		{"no cover", catalog.Game{Summary: &summary}, false},
		{"no text", catalog.Game{CoverImageURL: &cover}, false},
		{"mod type", catalog.Game{CoverImageURL: &cover, Summary: &summary, GameTypeID: &modType}, false},
	}
	for _, tc := range cases {
		if got := MeetsQuality(&tc.game); got != tc.want {
			t.Errorf("%s: MeetsQuality = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestProjectTimeToBeat(t *testing.T) {
	raw := Record{
		"game_id":    float64(1942),
		"hastily":    float64(7533 * 60), // seconds
		"normally":   float64(180000),
		"completely": float64(380000),
		"count":      float64(120),
	}
	ttb := ProjectTimeToBeat(raw)
	if ttb.Normally == nil {
		t.Fatal("normally bucket missing")
	}
	if ttb.Normally.Hours != 50 {
		t.Errorf("normally hours = %d, want 50", ttb.Normally.Hours)
	}
	if ttb.Count != 120 {
		t.Errorf("count = %d, want 120", ttb.Count)
	}
	if ttb.Hastily == nil || ttb.Hastily.Formatted == "" {
		t.Errorf("hastily bucket = %+v", ttb.Hastily)
	}
}
