package authclient

import (
	"context"
	"sync"
)

// State is the session bootstrap state for one domain.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Decision is a route guard's verdict. Show false with an empty Redirect
// means render nothing yet (still loading).
type Decision struct {
	Show     bool
	Redirect string
}

// Provider is the per-domain session state machine. Transitions:
// loading -> authenticated, loading -> anonymous, authenticated ->
// anonymous (logout or refresh failure). The only way back from
// anonymous is an explicit Login.
type Provider struct {
	client *Client

	mu        sync.RWMutex
	state     State
	principal Principal
}

func NewProvider(client *Client) *Provider {
	return &Provider{
		client: client,
		state:  StateLoading,
	}
}

// Bootstrap attempts a silent session resume and settles the state to
// authenticated or anonymous. Never errors: a failed resume is anonymous.
func (p *Provider) Bootstrap(ctx context.Context) State {
	principal := p.client.ResumeSession(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if principal != nil {
		p.state = StateAuthenticated
		p.principal = principal
	} else {
		p.state = StateAnonymous
		p.principal = nil
	}
	return p.state
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Provider) Principal() (Principal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.principal, p.principal != nil
}

// Login authenticates and, on success, transitions to authenticated.
func (p *Provider) Login(ctx context.Context, email string, password string) (Principal, error) {
	principal, err := p.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	p.setAuthenticated(principal)
	return principal, nil
}

// LoginWithPIN is the PIN-factor variant for domains that support it.
func (p *Provider) LoginWithPIN(ctx context.Context, email string, pin string) (Principal, error) {
	principal, err := p.client.LoginWithPIN(ctx, email, pin)
	if err != nil {
		return nil, err
	}
	p.setAuthenticated(principal)
	return principal, nil
}

// Logout clears the session and transitions to anonymous, redirect target
// is the domain's login route.
func (p *Provider) Logout(ctx context.Context) string {
	p.client.Logout(ctx)
	p.setAnonymous()
	return p.client.Domain().LoginRoute
}

// Refresh delegates to the client; on failure the session is gone, so the
// state drops to anonymous.
func (p *Provider) Refresh(ctx context.Context) error {
	if err := p.client.Refresh(ctx); err != nil {
		p.setAnonymous()
		return err
	}
	return nil
}

func (p *Provider) setAuthenticated(principal Principal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateAuthenticated
	p.principal = principal
}

func (p *Provider) setAnonymous() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateAnonymous
	p.principal = nil
}

// LandingRoute picks the post-login destination for a principal. Staff
// with role technician land in the field experience, not the office.
func (p *Provider) LandingRoute(principal Principal) string {
	if staff, ok := principal.(StaffPrincipal); ok && staff.Role == RoleTechnician {
		return TechnicianDomain.LandingRoute
	}
	return p.client.Domain().LandingRoute
}

// GuardProtected is the route guard for protected pages: render nothing
// while loading, redirect anonymous visitors to the login page.
func (p *Provider) GuardProtected() Decision {
	switch p.State() {
	case StateAuthenticated:
		return Decision{Show: true}
	case StateAnonymous:
		return Decision{Redirect: p.client.Domain().LoginRoute}
	default:
		return Decision{}
	}
}

// GuardLogin is the route guard for the login page itself: an already
// authenticated principal is sent to its landing route instead.
func (p *Provider) GuardLogin() Decision {
	switch p.State() {
	case StateAuthenticated:
		principal, _ := p.Principal()
		return Decision{Redirect: p.LandingRoute(principal)}
	case StateAnonymous:
		return Decision{Show: true}
	default:
		return Decision{}
	}
}
