package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/pkg/httpx"
	"github.com/gamepile/gamepile-backend/internal/utils"
)

// Record is one decoded provider object, preserved loosely so the full
// payload can be stored verbatim next to the projected row.
type Record = map[string]any

// Client is the provider API client used by the store, the SWR
// refreshers, the bulk populator and the webhook admin commands.
type Client interface {
	// FetchByID looks a single game up with the canonical field set.
	// Returns (nil, nil) when the id does not exist.
	FetchByID(ctx context.Context, igdbID int64) (Record, error)

	// FetchQuery runs an arbitrary apicalypse body against an endpoint.
	FetchQuery(ctx context.Context, body, endpoint string) ([]Record, error)

	// FetchTimeToBeat queries the time-to-beat endpoint for one game.
	// Returns (nil, nil) when no figure exists.
	FetchTimeToBeat(ctx context.Context, igdbID int64) (Record, error)

	RegisterWebhook(ctx context.Context, callbackURL, method, secret string) (Record, error)
	ListWebhooks(ctx context.Context) ([]Record, error)
	DeleteWebhook(ctx context.Context, webhookID int64) error
	TestWebhook(ctx context.Context, webhookID, entityID int64) error
}

// TransportError is any non-2xx provider response outside the retry
// policy.
type TransportError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("igdb: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *TransportError) HTTPStatusCode() int { return e.StatusCode }

type client struct {
	log        *logger.Logger
	baseURL    string
	clientID   string
	token      string
	httpClient *http.Client
	maxRetries int
	retryBase  time.Duration
}

func NewClient(log *logger.Logger) (Client, error) {
	clientID, err := utils.MustEnv("IGDB_CLIENT_ID")
	if err != nil {
		return nil, err
	}
	token, err := utils.MustEnv("IGDB_ACCESS_TOKEN")
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(utils.GetEnv("IGDB_URL", "https://api.igdb.com/v4", log), "/")
	maxRetries := utils.GetEnvAsInt("IGDB_MAX_RETRIES", 3, log)
	timeoutSeconds := utils.GetEnvAsInt("IGDB_TIMEOUT_SECONDS", 15, log)

	return &client{
		log:        log.With("client", "IGDBClient"),
		baseURL:    baseURL,
		clientID:   clientID,
		token:      token,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		maxRetries: maxRetries,
		retryBase:  300 * time.Millisecond,
	}, nil
}

func (c *client) FetchByID(ctx context.Context, igdbID int64) (Record, error) {
	body := NewQuery().
		Fields(GameFields).
		Where(fmt.Sprintf("id = %d", igdbID)).
		Limit(1).
		Build()
	records, err := c.FetchQuery(ctx, body, "games")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (c *client) FetchQuery(ctx context.Context, body, endpoint string) ([]Record, error) {
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("igdb: decode %s response: %w", endpoint, err)
	}
	return records, nil
}

func (c *client) FetchTimeToBeat(ctx context.Context, igdbID int64) (Record, error) {
	body := NewQuery().
		Fields("game_id", "hastily", "normally", "completely", "count").
		Where(fmt.Sprintf("game_id = %d", igdbID)).
		Limit(1).
		Build()
	records, err := c.FetchQuery(ctx, body, "game_time_to_beats")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// post issues one apicalypse request. 429 responses honor Retry-After
// when present, else back off 2^attempt x 300ms, up to maxRetries.
func (c *client) post(ctx context.Context, endpoint, body string) ([]byte, error) {
	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", "text/plain")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if httpx.IsRetryableError(err) && attempt < c.maxRetries {
				lastErr = err
				c.sleep(ctx, c.backoff(attempt))
				continue
			}
			return nil, fmt.Errorf("igdb: %s request failed: %w", endpoint, err)
		}

		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &TransportError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: strings.TrimSpace(string(data))}
			if attempt < c.maxRetries {
				wait := httpx.RetryAfterDuration(resp, c.backoff(attempt), time.Minute)
				c.log.Warn("igdb rate limited, backing off", "endpoint", endpoint, "attempt", attempt, "wait", wait)
				c.sleep(ctx, wait)
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &TransportError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: strings.TrimSpace(string(data))}
		}
		if readErr != nil {
			return nil, fmt.Errorf("igdb: read %s response: %w", endpoint, readErr)
		}
		return data, nil
	}
	return nil, lastErr
}

func (c *client) setHeaders(req *http.Request) {
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}

func (c *client) backoff(attempt int) time.Duration {
	return httpx.JitterSleep(c.retryBase * (1 << attempt))
}

func (c *client) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
