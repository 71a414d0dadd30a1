// Package microsoft implements the Outlook Calendar provider adapter on
// the Microsoft Graph REST API.
package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/providers"
)

// graphBaseURL is the Microsoft Graph API base URL.
const graphBaseURL = "https://graph.microsoft.com/v1.0"

// client is a minimal Microsoft Graph HTTP client.
type client struct {
	http  *http.Client
	pacer *providers.Pacer
	base  string
}

// newClient creates a Graph client with bounded timeouts and pacing.
func newClient(pacer *providers.Pacer) *client {
	return &client{
		http:  &http.Client{Timeout: 30 * time.Second},
		pacer: pacer,
		base:  graphBaseURL,
	}
}

// get performs an authenticated GET and decodes the JSON response into out.
// The URL may be absolute (pagination nextLink) or base-relative.
func (c *client) get(ctx context.Context, accessToken, url string, out any) error {
	return c.do(ctx, accessToken, http.MethodGet, url, nil, out)
}

// post performs an authenticated POST with a JSON body.
func (c *client) post(ctx context.Context, accessToken, url string, body, out any) error {
	return c.do(ctx, accessToken, http.MethodPost, url, body, out)
}

func (c *client) do(ctx context.Context, accessToken, method, url string, body, out any) error {
	if err := c.pacer.Wait(ctx); err != nil {
		return err
	}

	if len(url) > 0 && url[0] == '/' {
		url = c.base + url
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	// Ask Graph to render event times in UTC.
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: graph request: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		c.pacer.RecordRateLimit(retryAfter)
		return fmt.Errorf("%w: graph throttled %s", domain.ErrRateLimited, url)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: graph returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var errResp struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error.Code != "" {
			if resp.StatusCode == http.StatusUnauthorized {
				return fmt.Errorf("%w: graph %s: %s", domain.ErrAuthFailed, errResp.Error.Code, errResp.Error.Message)
			}
			return fmt.Errorf("graph error %s: %s", errResp.Error.Code, errResp.Error.Message)
		}
		return fmt.Errorf("graph request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}
	return nil
}
