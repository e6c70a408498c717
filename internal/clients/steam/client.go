package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gamepile/gamepile-backend/internal/clients/platforms"
	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/utils"
)

const apiBase = "https://api.steampowered.com"

// Client talks to the Steam Web API. It satisfies platforms.Adapter:
// FetchLibrary maps GetOwnedGames onto platform titles and
// VerifyAccount resolves a Steam64 id to its persona name.
type Client struct {
	log        *logger.Logger
	apiKey     string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (*Client, error) {
	apiKey, err := utils.MustEnv("STEAM_API_KEY")
	if err != nil {
		return nil, err
	}
	return &Client{
		log:        log.With("client", "SteamClient"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (c *Client) Platform() library.Platform { return library.PlatformSteam }

type ownedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
	RtimeLastPlayed int64  `json:"rtime_last_played"`
	ImgIconURL      string `json:"img_icon_url"`
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []ownedGame `json:"games"`
	} `json:"response"`
}

func (c *Client) FetchLibrary(ctx context.Context, accountID string) ([]platforms.Title, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", accountID)
	params.Set("include_appinfo", "1")
	params.Set("include_played_free_games", "1")

	var decoded ownedGamesResponse
	if err := c.getJSON(ctx, apiBase+"/IPlayerService/GetOwnedGames/v1/?"+params.Encode(), &decoded); err != nil {
		return nil, fmt.Errorf("steam: fetch owned games: %w", err)
	}

	titles := make([]platforms.Title, 0, len(decoded.Response.Games))
	for _, g := range decoded.Response.Games {
		t := platforms.Title{
			PlatformID:      strconv.FormatInt(g.AppID, 10),
			Name:            g.Name,
			PlaytimeMinutes: g.PlaytimeForever,
			Category:        "steam",
		}
		if g.ImgIconURL != "" {
			t.ImageURL = fmt.Sprintf("https://media.steampowered.com/steamcommunity/public/images/apps/%d/%s.jpg", g.AppID, g.ImgIconURL)
		}
		if g.RtimeLastPlayed > 0 {
			lastPlayed := time.Unix(g.RtimeLastPlayed, 0).UTC()
			t.LastPlayed = &lastPlayed
		}
		titles = append(titles, t)
	}
	return titles, nil
}

type playerSummariesResponse struct {
	Response struct {
		Players []struct {
			SteamID     string `json:"steamid"`
			PersonaName string `json:"personaname"`
		} `json:"players"`
	} `json:"response"`
}

func (c *Client) VerifyAccount(ctx context.Context, credential string) (platforms.Account, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamids", credential)

	var decoded playerSummariesResponse
	if err := c.getJSON(ctx, apiBase+"/ISteamUser/GetPlayerSummaries/v2/?"+params.Encode(), &decoded); err != nil {
		return platforms.Account{}, fmt.Errorf("steam: verify account: %w", err)
	}
	if len(decoded.Response.Players) == 0 {
		return platforms.Account{}, fmt.Errorf("steam: no player found for id %s", credential)
	}
	p := decoded.Response.Players[0]
	return platforms.Account{ID: p.SteamID, Username: p.PersonaName}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
