package ghl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4b-group/leadrank/internal/apierr"
	"github.com/b4b-group/leadrank/internal/model"
)

// validTokens returns a manager whose cached token never expires, so
// client tests exercise only the contacts endpoint.
func validTokens(t *testing.T) *TokenManager {
	t.Helper()
	store := &memTokenStore{ts: &TokenSet{AccessToken: "test-token", AccessTokenExpiry: 9999999999}}
	return NewTokenManager(testCreds(), store,
		WithClock(fixedClock(time.Unix(1700000000, 0))),
	)
}

// contactsServer serves n fake contacts in pages of the requested limit,
// paging through startAfterId as a numeric offset, and counts requests.
func contactsServer(t *testing.T, n int) (*httptest.Server, *int) {
	t.Helper()
	requests := new(int)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++

		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2021-07-28", r.Header.Get("Version"))
		assert.Equal(t, "loc-1", r.URL.Query().Get("locationId"))

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		require.NoError(t, err)

		offset := 0
		if after := r.URL.Query().Get("startAfterId"); after != "" {
			offset, err = strconv.Atoi(after)
			require.NoError(t, err)
		}

		var contacts []model.RawContact
		for i := offset; i < n && i < offset+limit; i++ {
			contacts = append(contacts, model.RawContact{
				ID:     fmt.Sprintf("c%d", i),
				Source: "B4B",
			})
		}

		page := contactsPage{
			Contacts: contacts,
			Meta: pageMeta{
				Total:        n,
				StartAfterID: strconv.Itoa(offset + len(contacts)),
				StartAfter:   json.Number(strconv.Itoa(offset + len(contacts))),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(page))
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func TestListContacts_SinglePage(t *testing.T) {
	t.Parallel()

	srv, requests := contactsServer(t, 7)
	c := NewClient(validTokens(t), "loc-1", WithBaseURL(srv.URL), WithPageSize(100))

	contacts, err := c.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Len(t, contacts, 7)
	assert.Equal(t, 1, *requests)
	assert.Equal(t, "c0", contacts[0].ID)
	assert.Equal(t, "c6", contacts[6].ID)
}

func TestListContacts_PaginatesToExhaustion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total, pageSize, wantRequests int
	}{
		{250, 100, 3},
		{200, 100, 2},
		{5, 2, 3},
		{1, 100, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.total, tt.pageSize), func(t *testing.T) {
			t.Parallel()

			srv, requests := contactsServer(t, tt.total)
			c := NewClient(validTokens(t), "loc-1", WithBaseURL(srv.URL), WithPageSize(tt.pageSize))

			contacts, err := c.ListContacts(context.Background())
			require.NoError(t, err)
			assert.Len(t, contacts, tt.total)
			assert.Equal(t, tt.wantRequests, *requests)
		})
	}
}

func TestListContacts_Empty(t *testing.T) {
	t.Parallel()

	srv, requests := contactsServer(t, 0)
	c := NewClient(validTokens(t), "loc-1", WithBaseURL(srv.URL))

	contacts, err := c.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, contacts)
	assert.Equal(t, 1, *requests)
}

func TestListContacts_FirstPageOmitsCursor(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("startAfter"))
		assert.False(t, r.URL.Query().Has("startAfterId"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"contacts":[],"meta":{"total":0}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(validTokens(t), "loc-1", WithBaseURL(srv.URL))
	_, err := c.ListContacts(context.Background())
	require.NoError(t, err)
}

func TestListContacts_FetchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"location not found"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(validTokens(t), "loc-1", WithBaseURL(srv.URL))

	_, err := c.ListContacts(context.Background())
	require.Error(t, err)

	fe, ok := apierr.IsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, fe.StatusCode)
	assert.Contains(t, fe.Body, "location not found")
}
