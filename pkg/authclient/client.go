package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultResumeTimeout = 5 * time.Second

// DomainConfig describes one identity domain: where its endpoints live,
// which storage keys its tokens use, how its principal parses, and the
// domain-specific quirks (PIN factor, refresh rotation).
type DomainConfig struct {
	Name           string
	BasePath       string
	KeyPrefix      string
	ParsePrincipal PrincipalParser

	// RotatesRefresh marks domains whose refresh endpoint returns a new
	// refresh token alongside the access token.
	RotatesRefresh bool
	SupportsPIN    bool

	LoginRoute   string
	LandingRoute string
}

// The four canonical domains. Key prefixes are disjoint: no two domains
// ever read or write the same storage key.
var (
	StaffDomain = DomainConfig{
		Name:           "staff",
		BasePath:       "/api/v1/auth",
		KeyPrefix:      "poolcare.staff",
		ParsePrincipal: parseStaffPrincipal,
		LoginRoute:     "/login",
		LandingRoute:   "/office",
	}

	PortalDomain = DomainConfig{
		Name:           "portal",
		BasePath:       "/api/v1/portal/auth",
		KeyPrefix:      "poolcare.portal",
		ParsePrincipal: parseClientPrincipal,
		LoginRoute:     "/portal/login",
		LandingRoute:   "/portal",
	}

	TechnicianDomain = DomainConfig{
		Name:           "tech",
		BasePath:       "/api/v1/tech/auth",
		KeyPrefix:      "poolcare.tech",
		ParsePrincipal: parseTechnicianPrincipal,
		RotatesRefresh: true,
		SupportsPIN:    true,
		LoginRoute:     "/tech/login",
		LandingRoute:   "/tech",
	}

	PlatformDomain = DomainConfig{
		Name:           "platform",
		BasePath:       "/api/v1/platform/auth",
		KeyPrefix:      "poolcare.platform",
		ParsePrincipal: parsePlatformAdminPrincipal,
		LoginRoute:     "/platform/login",
		LandingRoute:   "/platform",
	}
)

func (d DomainConfig) accessKey() string  { return d.KeyPrefix + ".access" }
func (d DomainConfig) refreshKey() string { return d.KeyPrefix + ".refresh" }

// Client performs the auth flows for exactly one identity domain. It
// never calls another domain's endpoints and never touches another
// domain's storage keys.
type Client struct {
	cfg           DomainConfig
	baseURL       string
	http          *http.Client
	store         KeyValue
	resumeTimeout time.Duration
	refreshGroup  singleflight.Group
}

// Option tweaks a Client at construction.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithResumeTimeout bounds ResumeSession's profile call so a hung network
// cannot hold the caller in a loading state.
func WithResumeTimeout(d time.Duration) Option {
	return func(c *Client) { c.resumeTimeout = d }
}

func New(baseURL string, cfg DomainConfig, store KeyValue, opts ...Option) *Client {
	c := &Client{
		cfg:           cfg,
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          http.DefaultClient,
		store:         store,
		resumeTimeout: defaultResumeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Domain() DomainConfig { return c.cfg }

// AccessToken returns the stored access token, if any. Exposed for the
// Transport and for callers building their own requests.
func (c *Client) AccessToken() (string, bool) {
	return c.store.Get(c.cfg.accessKey())
}

type sessionResponse struct {
	Principal    json.RawMessage `json:"principal"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

// Login authenticates with email and password. On success both tokens are
// written to this domain's storage keys, replacing any prior session.
func (c *Client) Login(ctx context.Context, email string, password string) (Principal, error) {
	return c.login(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// LoginWithPIN authenticates with the short numeric PIN factor. Only the
// technician domain supports it.
func (c *Client) LoginWithPIN(ctx context.Context, email string, pin string) (Principal, error) {
	if !c.cfg.SupportsPIN {
		return nil, fmt.Errorf("domain %s does not support PIN login", c.cfg.Name)
	}
	return c.login(ctx, "/login/pin", map[string]string{
		"email": email,
		"pin":   pin,
	})
}

func (c *Client) login(ctx context.Context, route string, body map[string]string) (Principal, error) {
	var resp sessionResponse
	if err := c.post(ctx, route, body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, &AuthError{Message: "Login failed. Please try again."}
	}

	principal, err := c.cfg.ParsePrincipal(resp.Principal)
	if err != nil {
		return nil, &AuthError{Message: "Login failed. Please try again."}
	}

	c.store.Set(c.cfg.accessKey(), resp.AccessToken)
	c.store.Set(c.cfg.refreshKey(), resp.RefreshToken)
	return principal, nil
}

// ResumeSession attempts a silent resume from the stored access token. No
// stored token means nil immediately, with no network call. Any failure
// of the profile call clears the stored tokens and yields nil; resume
// never surfaces an error.
func (c *Client) ResumeSession(ctx context.Context) Principal {
	if _, ok := c.store.Get(c.cfg.accessKey()); !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.resumeTimeout)
	defer cancel()

	var resp struct {
		Principal json.RawMessage `json:"principal"`
	}
	if err := c.get(ctx, "/me", &resp); err != nil {
		c.clear()
		return nil
	}

	principal, err := c.cfg.ParsePrincipal(resp.Principal)
	if err != nil {
		c.clear()
		return nil
	}
	return principal
}

// Refresh exchanges the stored refresh token for a new access token. For
// rotating domains the refresh token is replaced too. A missing token
// fails with ErrSessionExpired without a network call; an exchange
// failure clears the session and returns ErrSessionExpired. Concurrent
// calls collapse into one exchange.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.doRefresh(ctx)
	})
	return err
}

func (c *Client) doRefresh(ctx context.Context) error {
	refreshToken, ok := c.store.Get(c.cfg.refreshKey())
	if !ok || refreshToken == "" {
		c.clear()
		return ErrSessionExpired
	}

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	err := c.post(ctx, "/refresh", map[string]string{"refreshToken": refreshToken}, &resp)
	if err != nil || resp.AccessToken == "" {
		c.clear()
		return ErrSessionExpired
	}

	c.store.Set(c.cfg.accessKey(), resp.AccessToken)
	if resp.RefreshToken != "" {
		c.store.Set(c.cfg.refreshKey(), resp.RefreshToken)
	}
	return nil
}

// Logout revokes the refresh token server-side on a best-effort basis and
// always clears local state. Safe to call repeatedly.
func (c *Client) Logout(ctx context.Context) {
	if refreshToken, ok := c.store.Get(c.cfg.refreshKey()); ok && refreshToken != "" {
		_ = c.post(ctx, "/logout", map[string]string{"refreshToken": refreshToken}, nil)
	}
	c.clear()
}

func (c *Client) clear() {
	c.store.Delete(c.cfg.accessKey())
	c.store.Delete(c.cfg.refreshKey())
}

func (c *Client) post(ctx context.Context, route string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.cfg.BasePath+route, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, route string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.cfg.BasePath+route, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if token, ok := c.store.Get(c.cfg.accessKey()); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return &AuthError{
			Code:    apiErr.Error,
			Message: apiErr.Message,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
