// Package waha wraps the WAHA (WhatsApp HTTP API) service used to check
// whether a phone number is reachable on WhatsApp.
package waha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"
)

// Checker reports whether a canonical phone number exists on WhatsApp.
// SessionConnected guards the per-number checks: a session that is not in
// the WORKING state cannot answer them.
type Checker interface {
	NumberExists(ctx context.Context, phone string) (bool, error)
	SessionConnected(ctx context.Context) (bool, error)
}

// Client talks to a WAHA instance. A nil client (no WAHA_URL configured) is
// valid: every call reports an unavailable validator.
type Client struct {
	baseURL string
	apiKey  string
	session string
	http    *http.Client
	log     *logger.Logger
}

type checkExistsResponse struct {
	NumberExists bool `json:"numberExists"`
}

type sessionStatusResponse struct {
	Status string `json:"status"`
}

// NewClient creates a WAHA client, or nil when no URL is configured.
func NewClient(cfg config.WahaConfig, log *logger.Logger) *Client {
	if !cfg.IsWahaEnabled() {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetWahaURL(), "/"),
		apiKey:  cfg.GetWahaAPIKey(),
		session: cfg.GetWahaSession(),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// NumberExists checks a canonical phone number against WAHA.
func (c *Client) NumberExists(ctx context.Context, phoneNumber string) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("waha client not configured")
	}

	params := url.Values{}
	params.Add("phone", phoneNumber)
	params.Add("session", c.session)

	reqURL := fmt.Sprintf("%s/api/contacts/check-exists?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("waha request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("waha returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var payload checkExistsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("decode waha payload: %w", err)
	}

	return payload.NumberExists, nil
}

// SessionConnected reports whether the configured WAHA session is in the
// WORKING state and able to run contact checks.
func (c *Client) SessionConnected(ctx context.Context) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("waha client not configured")
	}

	reqURL := fmt.Sprintf("%s/api/sessions/%s", c.baseURL, url.PathEscape(c.session))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("waha request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return false, fmt.Errorf("waha returned %d", resp.StatusCode)
	}

	var payload sessionStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("decode waha payload: %w", err)
	}

	return strings.EqualFold(payload.Status, "WORKING"), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}
