package authclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveToken(t *testing.T) {
	store := NewMemoryStore()
	store.Set("poolcare.portal.access", "portal-token")
	store.Set("poolcare.tech.access", "tech-token")
	lookup := StoreLookup(store)

	tests := []struct {
		name      string
		path      string
		wantToken string
		wantFound bool
	}{
		{"portal path", "/api/v1/portal/visits", "portal-token", true},
		{"tech path", "/api/v1/tech/route", "tech-token", true},
		{"platform path without token", "/api/v1/platform/companies", "", false},
		{"staff path passes through", "/api/v1/clients", "", false},
		{"unrelated path", "/healthz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, found := ResolveToken(tt.path, lookup)
			require.Equal(t, tt.wantFound, found)
			require.Equal(t, tt.wantToken, token)
		})
	}
}

func TestTransportAttachesMatchedDomainToken(t *testing.T) {
	var gotAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer backend.Close()

	store := NewMemoryStore()
	store.Set("poolcare.tech.access", "tech-token")

	client := &http.Client{Transport: &Transport{Store: store}}

	resp, err := client.Get(backend.URL + "/api/v1/tech/route")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer tech-token", gotAuth)

	resp, err = client.Get(backend.URL + "/api/v1/clients")
	require.NoError(t, err)
	resp.Body.Close()
	require.Empty(t, gotAuth, "unmatched path must stay unauthenticated")
}

func TestTransportDoesNotMutateOriginalRequest(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	store := NewMemoryStore()
	store.Set("poolcare.portal.access", "portal-token")

	req, err := http.NewRequest(http.MethodGet, backend.URL+"/api/v1/portal/pools", nil)
	require.NoError(t, err)

	client := &http.Client{Transport: &Transport{Store: store}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, req.Header.Get("Authorization"))
}
