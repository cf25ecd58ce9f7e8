// Package ghl provides OAuth-authenticated access to the GoHighLevel
// (LeadConnector) contacts API.
package ghl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/b4b-group/leadrank/internal/apierr"
)

const serviceName = "ghl"

// TokenSet is the persisted token state for one service. Expiry is
// epoch seconds.
type TokenSet struct {
	AccessToken       string  `json:"access_token"`
	RefreshToken      string  `json:"refresh_token"`
	AccessTokenExpiry float64 `json:"access_token_expiry"`
}

// Expired reports whether the access token is no longer usable at now.
func (t *TokenSet) Expired(now time.Time) bool {
	return float64(now.Unix()) >= t.AccessTokenExpiry
}

// TokenStore persists a TokenSet between runs.
type TokenStore interface {
	// Load returns the persisted token set, or (nil, nil) when none
	// has been saved yet.
	Load() (*TokenSet, error)
	Save(*TokenSet) error
}

// FileTokenStore keeps the token set in a JSON file.
type FileTokenStore struct {
	Path string
}

func (s *FileTokenStore) Load() (*TokenSet, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ghl: read token file %s", s.Path)
	}
	var ts TokenSet
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, eris.Wrapf(err, "ghl: decode token file %s", s.Path)
	}
	return &ts, nil
}

func (s *FileTokenStore) Save(ts *TokenSet) error {
	data, err := json.Marshal(ts)
	if err != nil {
		return eris.Wrap(err, "ghl: encode token set")
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return eris.Wrapf(err, "ghl: write token file %s", s.Path)
	}
	return nil
}

// Credentials holds the OAuth app credentials. AuthCode is the
// authorization code from the initial app install; GHL's token endpoint
// expects it alongside the refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AuthCode     string
}

// TokenManager returns a valid access token, refreshing and persisting
// it when the cached one is missing or expired. One manager per run;
// there is no cross-process locking.
type TokenManager struct {
	creds    Credentials
	store    TokenStore
	tokenURL string
	http     *http.Client
	now      func() time.Time

	cached *TokenSet
}

// NewTokenManager creates a TokenManager persisting through store.
func NewTokenManager(creds Credentials, store TokenStore, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		creds:    creds,
		store:    store,
		tokenURL: "https://services.leadconnectorhq.com/oauth/token",
		http:     &http.Client{Timeout: 30 * time.Second},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TokenOption configures the TokenManager.
type TokenOption func(*TokenManager)

// WithTokenURL overrides the token endpoint (for testing).
func WithTokenURL(u string) TokenOption {
	return func(m *TokenManager) { m.tokenURL = u }
}

// WithTokenHTTPClient sets a custom HTTP client for token exchanges.
func WithTokenHTTPClient(hc *http.Client) TokenOption {
	return func(m *TokenManager) { m.http = hc }
}

// WithClock overrides the expiry clock (for testing).
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// Token returns a valid access token, performing a refresh grant when
// the persisted one is missing or expired.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if m.cached == nil {
		ts, err := m.store.Load()
		if err != nil {
			return "", err
		}
		m.cached = ts
	}

	if m.cached != nil && !m.cached.Expired(m.now()) {
		return m.cached.AccessToken, nil
	}

	ts, err := m.refresh(ctx)
	if err != nil {
		return "", err
	}
	if err := m.store.Save(ts); err != nil {
		return "", err
	}
	m.cached = ts

	zap.L().Info("ghl: access token refreshed",
		zap.Float64("expiry", ts.AccessTokenExpiry),
	)
	return ts.AccessToken, nil
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    *float64 `json:"expires_in"`
}

func (m *TokenManager) refresh(ctx context.Context) (*TokenSet, error) {
	form := url.Values{
		"client_id":     {m.creds.ClientID},
		"client_secret": {m.creds.ClientSecret},
		"grant_type":    {"refresh_token"},
		"code":          {m.creds.AuthCode},
	}
	if m.cached != nil {
		form.Set("refresh_token", m.cached.RefreshToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "ghl: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ghl: token request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierr.NewAuthError(serviceName, resp.StatusCode, "token endpoint returned non-success status")
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, eris.Wrap(err, "ghl: decode token response")
	}
	if tr.AccessToken == "" {
		return nil, apierr.NewAuthError(serviceName, 0, "token response missing access_token")
	}
	if tr.ExpiresIn == nil {
		return nil, apierr.NewAuthError(serviceName, 0, "token response missing expires_in")
	}

	ts := &TokenSet{
		AccessToken:       tr.AccessToken,
		RefreshToken:      tr.RefreshToken,
		AccessTokenExpiry: float64(m.now().Unix()) + *tr.ExpiresIn,
	}
	if ts.RefreshToken == "" && m.cached != nil {
		ts.RefreshToken = m.cached.RefreshToken
	}
	return ts, nil
}
