package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Webhook admin operations. These are low-volume and administrative,
// so they skip the retry loop and surface transport errors directly.

func (c *client) RegisterWebhook(ctx context.Context, callbackURL, method, secret string) (Record, error) {
	form := url.Values{}
	form.Set("url", callbackURL)
	form.Set("method", method)
	form.Set("secret", secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games/webhooks/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var record Record
	if err := c.doJSON(req, "games/webhooks", &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *client) ListWebhooks(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/webhooks/", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var records []Record
	if err := c.doJSON(req, "webhooks", &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *client) DeleteWebhook(ctx context.Context, webhookID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/webhooks/%d", c.baseURL, webhookID), nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	return c.doJSON(req, "webhooks", nil)
}

func (c *client) TestWebhook(ctx context.Context, webhookID, entityID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/games/webhooks/test/%d?entityId=%d", c.baseURL, webhookID, entityID), nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	return c.doJSON(req, "games/webhooks/test", nil)
}

func (c *client) doJSON(req *http.Request, endpoint string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("igdb: %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("igdb: read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
