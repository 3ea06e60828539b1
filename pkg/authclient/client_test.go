package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBackend simulates the four identity domains' auth endpoints with
// in-memory token state, so the client flows can be exercised without a
// real server.
type fakeBackend struct {
	mu           sync.Mutex
	requests     int
	seq          int
	validAccess  map[string]string // token -> domain
	validRefresh map[string]string // token -> domain
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		validAccess:  make(map[string]string),
		validRefresh: make(map[string]string),
	}
}

var backendCredentials = map[string]struct {
	email    string
	password string
	pin      string
}{
	"staff":    {email: "owner@poolco.test", password: "password1"},
	"portal":   {email: "client@home.test", password: "password1"},
	"tech":     {email: "tech@demo.com", password: "password1", pin: "1234"},
	"platform": {email: "root@platform.test", password: "password1"},
}

func backendPrincipal(domain string) map[string]any {
	switch domain {
	case "staff":
		return map[string]any{
			"id": "staff-1", "email": "owner@poolco.test",
			"firstName": "Olive", "lastName": "Owner",
			"role": "owner", "companyId": "co-1", "companyName": "PoolCo",
		}
	case "portal":
		return map[string]any{
			"id": "client-1", "firstName": "Casey", "lastName": "Client",
			"email": "client@home.test", "companyName": "PoolCo",
			"serviceCompany": map[string]any{
				"id": "co-1", "name": "PoolCo",
				"email": "office@poolco.test", "phone": "555-0100",
			},
		}
	case "tech":
		return map[string]any{
			"id": "tech-1", "firstName": "Terry", "lastName": "Tech",
			"email": "tech@demo.com", "phone": "555-0101",
			"companyId": "co-1", "companyName": "PoolCo",
		}
	case "platform":
		return map[string]any{
			"id": "admin-1", "email": "root@platform.test",
			"firstName": "Pat", "lastName": "Platform",
		}
	}
	return nil
}

func (b *fakeBackend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

func (b *fakeBackend) issueTokens(domain string) (string, string) {
	b.seq++
	access := fmt.Sprintf("%s-access-%d", domain, b.seq)
	refresh := fmt.Sprintf("%s-refresh-%d", domain, b.seq)
	b.validAccess[access] = domain
	b.validRefresh[refresh] = domain
	return access, refresh
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests++
	b.mu.Unlock()

	var domain, rest string
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/v1/portal/auth"):
		domain, rest = "portal", strings.TrimPrefix(r.URL.Path, "/api/v1/portal/auth")
	case strings.HasPrefix(r.URL.Path, "/api/v1/tech/auth"):
		domain, rest = "tech", strings.TrimPrefix(r.URL.Path, "/api/v1/tech/auth")
	case strings.HasPrefix(r.URL.Path, "/api/v1/platform/auth"):
		domain, rest = "platform", strings.TrimPrefix(r.URL.Path, "/api/v1/platform/auth")
	case strings.HasPrefix(r.URL.Path, "/api/v1/auth"):
		domain, rest = "staff", strings.TrimPrefix(r.URL.Path, "/api/v1/auth")
	default:
		http.NotFound(w, r)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch rest {
	case "/login", "/login/pin":
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			Pin      string `json:"pin"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		creds := backendCredentials[domain]
		valid := req.Email == creds.email && req.Password == creds.password
		if rest == "/login/pin" {
			valid = domain == "tech" && req.Email == creds.email && req.Pin == creds.pin
		}
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": "invalid_credentials", "message": "Invalid email or credentials.",
			})
			return
		}

		access, refresh := b.issueTokens(domain)
		writeJSON(w, http.StatusOK, map[string]any{
			"principal":    backendPrincipal(domain),
			"accessToken":  access,
			"refreshToken": refresh,
		})

	case "/me":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if b.validAccess[token] != domain {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"principal": backendPrincipal(domain)})

	case "/refresh":
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if b.validRefresh[req.RefreshToken] != domain {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": "session_expired", "message": "Your session has expired. Please sign in again.",
			})
			return
		}

		access, refresh := b.issueTokens(domain)
		resp := map[string]any{"accessToken": access}
		if domain == "tech" {
			delete(b.validRefresh, req.RefreshToken)
			resp["refreshToken"] = refresh
		} else {
			delete(b.validRefresh, refresh)
		}
		writeJSON(w, http.StatusOK, resp)

	case "/logout":
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		delete(b.validRefresh, req.RefreshToken)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type sdkFixture struct {
	backend *fakeBackend
	server  *httptest.Server
	store   *MemoryStore

	staff    *Client
	portal   *Client
	tech     *Client
	platform *Client
}

func newSDKFixture(t *testing.T) *sdkFixture {
	t.Helper()

	backend := newFakeBackend()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	store := NewMemoryStore()
	return &sdkFixture{
		backend:  backend,
		server:   server,
		store:    store,
		staff:    New(server.URL, StaffDomain, store),
		portal:   New(server.URL, PortalDomain, store),
		tech:     New(server.URL, TechnicianDomain, store),
		platform: New(server.URL, PlatformDomain, store),
	}
}

func TestResumeWithoutTokensMakesNoNetworkCall(t *testing.T) {
	f := newSDKFixture(t)

	for _, client := range []*Client{f.staff, f.portal, f.tech, f.platform} {
		require.Nil(t, client.ResumeSession(context.Background()))
	}
	require.Equal(t, 0, f.backend.requestCount())
}

func TestLoginPopulatesOnlyOwnDomainKeys(t *testing.T) {
	f := newSDKFixture(t)

	_, err := f.portal.Login(context.Background(), "client@home.test", "password1")
	require.NoError(t, err)

	_, ok := f.store.Get("poolcare.portal.access")
	require.True(t, ok)
	_, ok = f.store.Get("poolcare.portal.refresh")
	require.True(t, ok)

	for _, prefix := range []string{"poolcare.staff", "poolcare.tech", "poolcare.platform"} {
		_, ok := f.store.Get(prefix + ".access")
		require.False(t, ok, "unexpected access token under %s", prefix)
		_, ok = f.store.Get(prefix + ".refresh")
		require.False(t, ok, "unexpected refresh token under %s", prefix)
	}
}

func TestLoginResumeRoundTrip(t *testing.T) {
	f := newSDKFixture(t)

	loggedIn, err := f.staff.Login(context.Background(), "owner@poolco.test", "password1")
	require.NoError(t, err)

	resumed := f.staff.ResumeSession(context.Background())
	require.NotNil(t, resumed)
	require.Equal(t, loggedIn.Kind(), resumed.Kind())
	require.Equal(t, loggedIn.PrincipalID(), resumed.PrincipalID())

	staff, ok := resumed.(StaffPrincipal)
	require.True(t, ok)
	require.Equal(t, RoleOwner, staff.Role)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newSDKFixture(t)

	_, err := f.staff.Login(context.Background(), "owner@poolco.test", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Invalid email or credentials.", authErr.Message)

	_, ok := f.store.Get("poolcare.staff.access")
	require.False(t, ok)
}

func TestLogoutIdempotent(t *testing.T) {
	f := newSDKFixture(t)

	_, err := f.tech.Login(context.Background(), "tech@demo.com", "password1")
	require.NoError(t, err)

	f.tech.Logout(context.Background())
	f.tech.Logout(context.Background())

	_, ok := f.store.Get("poolcare.tech.access")
	require.False(t, ok)
	_, ok = f.store.Get("poolcare.tech.refresh")
	require.False(t, ok)
}

func TestRefreshRotationAsymmetry(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	_, err := f.staff.Login(ctx, "owner@poolco.test", "password1")
	require.NoError(t, err)
	_, err = f.tech.Login(ctx, "tech@demo.com", "password1")
	require.NoError(t, err)

	staffAccessBefore, _ := f.store.Get("poolcare.staff.access")
	staffRefreshBefore, _ := f.store.Get("poolcare.staff.refresh")
	techAccessBefore, _ := f.store.Get("poolcare.tech.access")
	techRefreshBefore, _ := f.store.Get("poolcare.tech.refresh")

	require.NoError(t, f.staff.Refresh(ctx))
	require.NoError(t, f.tech.Refresh(ctx))

	staffAccessAfter, _ := f.store.Get("poolcare.staff.access")
	staffRefreshAfter, _ := f.store.Get("poolcare.staff.refresh")
	require.NotEqual(t, staffAccessBefore, staffAccessAfter)
	require.Equal(t, staffRefreshBefore, staffRefreshAfter)

	techAccessAfter, _ := f.store.Get("poolcare.tech.access")
	techRefreshAfter, _ := f.store.Get("poolcare.tech.refresh")
	require.NotEqual(t, techAccessBefore, techAccessAfter)
	require.NotEqual(t, techRefreshBefore, techRefreshAfter)
}

func TestRefreshWithoutTokenFailsWithoutNetwork(t *testing.T) {
	f := newSDKFixture(t)

	err := f.platform.Refresh(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, 0, f.backend.requestCount())
}

func TestRefreshFailureClearsSession(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	_, err := f.staff.Login(ctx, "owner@poolco.test", "password1")
	require.NoError(t, err)

	f.store.Set("poolcare.staff.refresh", "forged-token")
	require.ErrorIs(t, f.staff.Refresh(ctx), ErrSessionExpired)

	_, ok := f.store.Get("poolcare.staff.access")
	require.False(t, ok)
	_, ok = f.store.Get("poolcare.staff.refresh")
	require.False(t, ok)
}

func TestCrossDomainIsolation(t *testing.T) {
	f := newSDKFixture(t)

	_, err := f.portal.Login(context.Background(), "client@home.test", "password1")
	require.NoError(t, err)

	before := f.backend.requestCount()
	require.Nil(t, f.tech.ResumeSession(context.Background()))
	require.Equal(t, before, f.backend.requestCount(), "tech resume should not call the network")
}

func TestTechnicianPINLoginScenario(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	principal, err := f.tech.LoginWithPIN(ctx, "tech@demo.com", "1234")
	require.NoError(t, err)

	tech, ok := principal.(TechnicianPrincipal)
	require.True(t, ok)
	require.Equal(t, "tech@demo.com", tech.Email)

	_, ok = f.store.Get("poolcare.tech.access")
	require.True(t, ok)
	_, ok = f.store.Get("poolcare.staff.access")
	require.False(t, ok)

	// The staff domain has no session of its own.
	require.Nil(t, f.staff.ResumeSession(ctx))
}

func TestLoginWithPINRejectedOutsideTechnicianDomain(t *testing.T) {
	f := newSDKFixture(t)

	_, err := f.staff.LoginWithPIN(context.Background(), "owner@poolco.test", "1234")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrSessionExpired))
}

func TestResumeClearsTokensOnRejectedAccess(t *testing.T) {
	f := newSDKFixture(t)

	f.store.Set("poolcare.portal.access", "stale-token")
	f.store.Set("poolcare.portal.refresh", "stale-refresh")

	require.Nil(t, f.portal.ResumeSession(context.Background()))

	_, ok := f.store.Get("poolcare.portal.access")
	require.False(t, ok)
	_, ok = f.store.Get("poolcare.portal.refresh")
	require.False(t, ok)
}

func TestResumeGivesUpWhenProfileCallStalls(t *testing.T) {
	// The handler never responds; only the resume timeout ends the call.
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer stalled.Close()

	store := NewMemoryStore()
	store.Set("poolcare.staff.access", "stale-token")
	store.Set("poolcare.staff.refresh", "stale-refresh")

	client := New(stalled.URL, StaffDomain, store, WithResumeTimeout(100*time.Millisecond))

	startedAt := time.Now()
	principal := client.ResumeSession(context.Background())
	elapsed := time.Since(startedAt)

	require.Nil(t, principal)
	require.Less(t, elapsed, 3*time.Second, "resume did not honor its timeout")

	_, ok := store.Get("poolcare.staff.access")
	require.False(t, ok)
	_, ok = store.Get("poolcare.staff.refresh")
	require.False(t, ok)
}
