package ghl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4b-group/leadrank/internal/apierr"
)

// memTokenStore keeps the token set in memory for tests.
type memTokenStore struct {
	ts    *TokenSet
	saves int
}

func (s *memTokenStore) Load() (*TokenSet, error) { return s.ts, nil }
func (s *memTokenStore) Save(ts *TokenSet) error {
	s.ts = ts
	s.saves++
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testCreds() Credentials {
	return Credentials{ClientID: "client-1", ClientSecret: "secret-1", AuthCode: "code-1"}
}

func TestFileTokenStore_LoadMissing(t *testing.T) {
	t.Parallel()

	s := &FileTokenStore{Path: filepath.Join(t.TempDir(), "tokens.json")}
	ts, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := &FileTokenStore{Path: filepath.Join(t.TempDir(), "tokens.json")}
	in := &TokenSet{AccessToken: "at", RefreshToken: "rt", AccessTokenExpiry: 1700000000}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTokenSet_Expired(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	ts := &TokenSet{AccessTokenExpiry: 1700000100}
	assert.False(t, ts.Expired(now))
	assert.True(t, ts.Expired(now.Add(100*time.Second)))
	assert.True(t, ts.Expired(now.Add(200*time.Second)))
}

func TestTokenManager_UsesUnexpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	store := &memTokenStore{ts: &TokenSet{AccessToken: "cached-at", AccessTokenExpiry: 1700003600}}

	// Token URL is unreachable: any refresh attempt would fail loudly.
	m := NewTokenManager(testCreds(), store,
		WithTokenURL("http://127.0.0.1:1/oauth/token"),
		WithClock(fixedClock(now)),
	)

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached-at", token)
	assert.Zero(t, store.saves)
}

func TestTokenManager_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)

	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
			"grant_type":    r.PostFormValue("grant_type"),
			"code":          r.PostFormValue("code"),
			"refresh_token": r.PostFormValue("refresh_token"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-at","refresh_token":"new-rt","expires_in":86400}`)) //nolint:errcheck
	}))
	defer srv.Close()

	store := &memTokenStore{ts: &TokenSet{
		AccessToken:       "stale-at",
		RefreshToken:      "old-rt",
		AccessTokenExpiry: 1600000000,
	}}
	m := NewTokenManager(testCreds(), store,
		WithTokenURL(srv.URL),
		WithClock(fixedClock(now)),
	)

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-at", token)

	assert.Equal(t, "client-1", form["client_id"])
	assert.Equal(t, "secret-1", form["client_secret"])
	assert.Equal(t, "refresh_token", form["grant_type"])
	assert.Equal(t, "code-1", form["code"])
	assert.Equal(t, "old-rt", form["refresh_token"])

	// Refreshed set is persisted with an absolute expiry.
	require.NotNil(t, store.ts)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "new-rt", store.ts.RefreshToken)
	assert.InDelta(t, float64(now.Unix())+86400, store.ts.AccessTokenExpiry, 0.001)

	// Second call serves the refreshed token from cache.
	token, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-at", token)
	assert.Equal(t, 1, store.saves)
}

func TestTokenManager_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-at","expires_in":3600}`)) //nolint:errcheck
	}))
	defer srv.Close()

	store := &memTokenStore{ts: &TokenSet{RefreshToken: "keep-rt", AccessTokenExpiry: 0}}
	m := NewTokenManager(testCreds(), store, WithTokenURL(srv.URL))

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "keep-rt", store.ts.RefreshToken)
}

func TestTokenManager_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewTokenManager(testCreds(), &memTokenStore{}, WithTokenURL(srv.URL))

	_, err := m.Token(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.IsAuthError(err))
	assert.Contains(t, err.Error(), "401")
}

func TestTokenManager_MissingAccessToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"expires_in":3600}`)) //nolint:errcheck
	}))
	defer srv.Close()

	m := NewTokenManager(testCreds(), &memTokenStore{}, WithTokenURL(srv.URL))

	_, err := m.Token(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.IsAuthError(err))
	assert.Contains(t, err.Error(), "access_token")
}

func TestTokenManager_MissingExpiresIn(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-at"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	m := NewTokenManager(testCreds(), &memTokenStore{}, WithTokenURL(srv.URL))

	_, err := m.Token(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.IsAuthError(err))
	assert.Contains(t, err.Error(), "expires_in")
}
