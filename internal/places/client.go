package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"
)

// Provider fetches one page of place candidates for a query in a location.
// Offset is an absolute result offset, not a page number.
type Provider interface {
	Fetch(ctx context.Context, query, location string, offset int) ([]Candidate, error)
	PageSize() int
}

// Client talks to a SerpAPI-compatible place search endpoint. When no API key
// is configured it serves deterministic synthetic batches instead, so the rest
// of the pipeline works in development without a provider account.
type Client struct {
	http     *http.Client
	cfg      config.ProviderConfig
	log      *logger.Logger
	fallback *syntheticGenerator
}

// NewClient creates a provider client.
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		cfg:      cfg,
		log:      log,
		fallback: newSyntheticGenerator(),
	}
}

// PageSize returns the provider's fixed page size.
func (c *Client) PageSize() int {
	return c.cfg.GetSearchPageSize()
}

// Fetch retrieves one page of candidates starting at offset. Candidates
// without a name are dropped, never coerced into placeholder rows. A batch
// smaller than the page size means the result space is exhausted.
func (c *Client) Fetch(ctx context.Context, query, location string, offset int) ([]Candidate, error) {
	if c.cfg.GetSerpAPIKey() == "" {
		return c.fallback.Generate(query, location, offset, c.PageSize()), nil
	}

	params := url.Values{}
	params.Add("engine", "google_maps")
	params.Add("q", fmt.Sprintf("%s em %s", query, location))
	params.Add("hl", "pt-br")
	params.Add("gl", "br")
	params.Add("start", strconv.Itoa(offset))
	params.Add("api_key", c.cfg.GetSerpAPIKey())

	reqURL := fmt.Sprintf("%s?%s", c.cfg.GetSerpAPIBaseURL(), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to build provider request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ProviderError(query, offset, err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "place provider unreachable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		c.log.ProviderError(query, offset, fmt.Errorf("status %d", resp.StatusCode))
		return nil, apperr.Unavailable(fmt.Sprintf("place provider returned status %d", resp.StatusCode))
	}

	var payload providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.ProviderError(query, offset, err)
		return nil, apperr.Wrap(apperr.KindUpstream, "malformed provider payload", err)
	}

	// The provider signals request-level failures inside the body.
	if payload.Error != "" {
		c.log.ProviderError(query, offset, fmt.Errorf("%s", payload.Error))
		return nil, apperr.Upstream(payload.Error)
	}

	candidates := make([]Candidate, 0, len(payload.LocalResults))
	for _, entry := range payload.LocalResults {
		candidate, ok := buildCandidate(entry)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func buildCandidate(entry providerPlaceEntry) (Candidate, bool) {
	name := strings.TrimSpace(entry.Title)
	if name == "" {
		return Candidate{}, false
	}

	return Candidate{
		Name:         name,
		Phone:        strings.TrimSpace(entry.Phone),
		Address:      strings.TrimSpace(entry.Address),
		Category:     strings.TrimSpace(entry.Type),
		Website:      strings.TrimSpace(entry.Website),
		Rating:       entry.Rating,
		ReviewsCount: entry.Reviews,
	}, true
}
