package zoho

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

// DefaultCriteria selects the B4B-sourced records both searches use.
const DefaultCriteria = "(Lead_Source:equals:B4B)&(Lead_Source:equals:B4B Unqualified)"

// Client defines the Zoho CRM operations used by the pipeline.
type Client interface {
	// SearchLeads returns every lead matching the criteria expression,
	// following page numbers until the server reports no more records.
	SearchLeads(ctx context.Context, criteria string) ([]model.RawLead, error)
	// SearchDeals returns every deal matching the criteria expression.
	SearchDeals(ctx context.Context, criteria string) ([]model.RawDeal, error)
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

type httpClient struct {
	tokens  *TokenManager
	baseURL string
	perPage int
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Zoho CRM client. As with the GHL client, a
// non-success page aborts the retrieval; there is no retry.
func NewClient(tokens *TokenManager, opts ...Option) Client {
	c := &httpClient{
		tokens:  tokens,
		baseURL: "https://www.zohoapis.com/crm/v6",
		perPage: 200,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchPage mirrors Zoho's search response envelope.
type searchPage struct {
	Data json.RawMessage `json:"data"`
	Info searchInfo      `json:"info"`
}

type searchInfo struct {
	MoreRecords bool `json:"more_records"`
	Count       int  `json:"count"`
}

func (c *httpClient) SearchLeads(ctx context.Context, criteria string) ([]model.RawLead, error) {
	var all []model.RawLead
	err := c.searchAll(ctx, "Leads", criteria, func(data json.RawMessage) error {
		var page []model.RawLead
		if err := json.Unmarshal(data, &page); err != nil {
			return eris.Wrap(err, "zoho: decode leads page")
		}
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("zoho: leads retrieved", zap.Int("leads", len(all)))
	return all, nil
}

func (c *httpClient) SearchDeals(ctx context.Context, criteria string) ([]model.RawDeal, error) {
	var all []model.RawDeal
	err := c.searchAll(ctx, "Deals", criteria, func(data json.RawMessage) error {
		var page []model.RawDeal
		if err := json.Unmarshal(data, &page); err != nil {
			return eris.Wrap(err, "zoho: decode deals page")
		}
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("zoho: deals retrieved", zap.Int("deals", len(all)))
	return all, nil
}

// searchAll walks the search endpoint for one module, invoking collect
// for each page's data array. A 204 means no records matched.
func (c *httpClient) searchAll(ctx context.Context, module, criteria string, collect func(json.RawMessage) error) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	endpoint := "/" + module + "/search"
	for page := 1; ; page++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "zoho: rate limit")
			}
		}

		q := url.Values{
			"criteria": {criteria},
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(c.perPage)},
		}
		reqURL := c.baseURL + endpoint + "?" + q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return eris.Wrapf(err, "zoho: create %s search request", module)
		}
		req.Header.Set("Authorization", "Zoho-oauthtoken "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrapf(err, "zoho: %s search request failed", module)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck
		if readErr != nil {
			return eris.Wrapf(readErr, "zoho: read %s search response", module)
		}

		if resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return apierr.NewFetchError(serviceName, endpoint, resp.StatusCode, string(body))
		}

		var sp searchPage
		if err := json.Unmarshal(body, &sp); err != nil {
			return eris.Wrapf(err, "zoho: decode %s search page", module)
		}
		if len(sp.Data) > 0 {
			if err := collect(sp.Data); err != nil {
				return err
			}
		}
		if !sp.Info.MoreRecords {
			return nil
		}
	}
}
