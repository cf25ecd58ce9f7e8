package ghl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/b4b-group/leadrank/internal/apierr"
	"github.com/b4b-group/leadrank/internal/model"
)

// apiVersion is the GHL API version header value the contacts endpoint
// requires.
const apiVersion = "2021-07-28"

// Client defines the GHL operations used by the pipeline.
type Client interface {
	// ListContacts retrieves every contact for the configured location,
	// following the startAfter/startAfterId cursor until exhaustion.
	ListContacts(ctx context.Context) ([]model.RawContact, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets a per-second rate limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithPageSize overrides the page size (max 100 upstream).
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

type httpClient struct {
	tokens     *TokenManager
	locationID string
	baseURL    string
	pageSize   int
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a GHL client for one location. Failed requests are
// not retried: a non-200 page aborts the whole retrieval, which is
// acceptable at the call volumes in scope.
func NewClient(tokens *TokenManager, locationID string, opts ...Option) Client {
	c := &httpClient{
		tokens:     tokens,
		locationID: locationID,
		baseURL:    "https://services.leadconnectorhq.com",
		pageSize:   100,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// contactsPage is one page of the contacts listing.
type contactsPage struct {
	Contacts []model.RawContact `json:"contacts"`
	Meta     pageMeta           `json:"meta"`
}

type pageMeta struct {
	Total        int         `json:"total"`
	StartAfterID string      `json:"startAfterId"`
	StartAfter   json.Number `json:"startAfter"`
}

func (c *httpClient) ListContacts(ctx context.Context) ([]model.RawContact, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var (
		all          []model.RawContact
		startAfter   string
		startAfterID string
		requests     int
	)

	for {
		page, err := c.fetchPage(ctx, token, startAfter, startAfterID)
		if err != nil {
			return nil, err
		}
		requests++

		all = append(all, page.Contacts...)
		startAfter = page.Meta.StartAfter.String()
		startAfterID = page.Meta.StartAfterID

		if len(page.Contacts) == 0 {
			break
		}
		if page.Meta.Total > 0 && len(all) >= page.Meta.Total {
			break
		}
	}

	zap.L().Info("ghl: contacts retrieved",
		zap.Int("contacts", len(all)),
		zap.Int("requests", requests),
	)
	return all, nil
}

func (c *httpClient) fetchPage(ctx context.Context, token, startAfter, startAfterID string) (*contactsPage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "ghl: rate limit")
		}
	}

	q := url.Values{
		"locationId": {c.locationID},
		"limit":      {strconv.Itoa(c.pageSize)},
		"query":      {""},
	}
	if startAfter != "" && startAfter != "0" {
		q.Set("startAfter", startAfter)
	}
	if startAfterID != "" {
		q.Set("startAfterId", startAfterID)
	}
	reqURL := c.baseURL + "/contacts/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "ghl: create contacts request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Version", apiVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ghl: contacts request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ghl: read contacts response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.NewFetchError(serviceName, "/contacts/", resp.StatusCode, string(body))
	}

	var page contactsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, eris.Wrap(err, "ghl: decode contacts page")
	}
	return &page, nil
}
