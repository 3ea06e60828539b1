package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"poolcare/api/internal/config"
	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
	"poolcare/api/internal/security"
)

type touchRecord struct {
	id        string
	ip        string
	userAgent string
}

type fakeSessions struct {
	sessions map[string]models.AuthSession
	touches  []touchRecord
}

func (f *fakeSessions) GetByID(_ context.Context, domain models.AuthDomain, id string) (models.AuthSession, error) {
	session, ok := f.sessions[id]
	if !ok || session.Domain != domain {
		return models.AuthSession{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessions) Create(context.Context, models.AuthSession) error { return nil }
func (f *fakeSessions) FindByRefreshHash(context.Context, models.AuthDomain, []byte) (models.AuthSession, error) {
	return models.AuthSession{}, repository.ErrSessionNotFound
}
func (f *fakeSessions) UpdateRefresh(context.Context, string, []byte, time.Time) error { return nil }
func (f *fakeSessions) Touch(_ context.Context, id string, ip string, userAgent string) error {
	f.touches = append(f.touches, touchRecord{id: id, ip: ip, userAgent: userAgent})
	return nil
}
func (f *fakeSessions) DeleteByID(context.Context, string) error { return nil }
func (f *fakeSessions) DeleteByRefreshHash(context.Context, models.AuthDomain, []byte) error {
	return nil
}
func (f *fakeSessions) CountByPrincipal(context.Context, models.AuthDomain, string) (int, error) {
	return 0, nil
}
func (f *fakeSessions) DeleteOldest(context.Context, models.AuthDomain, string, int) error {
	return nil
}

func newAuthRouter(t *testing.T, domain models.AuthDomain, cfg config.DomainAuthConfig, sessions *fakeSessions) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/protected", Auth(domain, cfg, sessions), func(c *gin.Context) {
		claims, ok := Claims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"subject": claims.Subject})
	})
	return router
}

func TestAuthAcceptsMatchingDomainToken(t *testing.T) {
	cfg := config.DomainAuthConfig{AccessSecret: "staff-secret", AccessTTL: time.Minute}
	sessions := &fakeSessions{sessions: map[string]models.AuthSession{
		"sess-1": {ID: "sess-1", Domain: models.AuthDomainStaff, PrincipalID: "user-1"},
	}}
	router := newAuthRouter(t, models.AuthDomainStaff, cfg, sessions)

	token, err := security.GenerateAccessToken(cfg.AccessSecret, models.AuthDomainStaff, "user-1", "sess-1", "owner", "co-1", cfg.AccessTTL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "user-1")
}

func TestAuthTouchesSessionOnAuthenticatedRequest(t *testing.T) {
	cfg := config.DomainAuthConfig{AccessSecret: "staff-secret", AccessTTL: time.Minute}
	sessions := &fakeSessions{sessions: map[string]models.AuthSession{
		"sess-1": {ID: "sess-1", Domain: models.AuthDomainStaff, PrincipalID: "user-1"},
	}}
	router := newAuthRouter(t, models.AuthDomainStaff, cfg, sessions)

	token, err := security.GenerateAccessToken(cfg.AccessSecret, models.AuthDomainStaff, "user-1", "sess-1", "owner", "co-1", cfg.AccessTTL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "field-app/2.1")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sessions.touches, 1)
	require.Equal(t, "sess-1", sessions.touches[0].id)
	require.Equal(t, "field-app/2.1", sessions.touches[0].userAgent)

	// Rejected requests never touch.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, sessions.touches, 1)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	cfg := config.DomainAuthConfig{AccessSecret: "staff-secret", AccessTTL: time.Minute}
	router := newAuthRouter(t, models.AuthDomainStaff, cfg, &fakeSessions{sessions: map[string]models.AuthSession{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsCrossDomainToken(t *testing.T) {
	staffCfg := config.DomainAuthConfig{AccessSecret: "staff-secret", AccessTTL: time.Minute}
	techCfg := config.DomainAuthConfig{AccessSecret: "tech-secret", AccessTTL: time.Minute}
	sessions := &fakeSessions{sessions: map[string]models.AuthSession{
		"sess-1": {ID: "sess-1", Domain: models.AuthDomainTech, PrincipalID: "tech-1"},
	}}
	router := newAuthRouter(t, models.AuthDomainTech, techCfg, sessions)

	// A perfectly valid staff token never passes a technician endpoint.
	token, err := security.GenerateAccessToken(staffCfg.AccessSecret, models.AuthDomainStaff, "tech-1", "sess-1", "", "co-1", staffCfg.AccessTTL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := config.DomainAuthConfig{AccessSecret: "portal-secret", AccessTTL: time.Minute}
	router := newAuthRouter(t, models.AuthDomainPortal, cfg, &fakeSessions{sessions: map[string]models.AuthSession{}})

	token, err := security.GenerateAccessToken(cfg.AccessSecret, models.AuthDomainPortal, "client-1", "gone", "", "co-1", cfg.AccessTTL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
