package authclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProviderBootstrapAnonymousWithoutSession(t *testing.T) {
	f := newSDKFixture(t)
	provider := NewProvider(f.staff)

	require.Equal(t, StateLoading, provider.State())
	require.Equal(t, StateAnonymous, provider.Bootstrap(context.Background()))

	_, ok := provider.Principal()
	require.False(t, ok)
}

func TestProviderBootstrapResumesSession(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	_, err := f.staff.Login(ctx, "owner@poolco.test", "password1")
	require.NoError(t, err)

	provider := NewProvider(f.staff)
	require.Equal(t, StateAuthenticated, provider.Bootstrap(ctx))

	principal, ok := provider.Principal()
	require.True(t, ok)
	require.Equal(t, KindStaff, principal.Kind())
}

func TestProviderLoginTransitionsToAuthenticated(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	provider := NewProvider(f.portal)
	provider.Bootstrap(ctx)
	require.Equal(t, StateAnonymous, provider.State())

	_, err := provider.Login(ctx, "client@home.test", "password1")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, provider.State())
}

func TestProviderLogoutTransitionsToAnonymous(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	provider := NewProvider(f.tech)
	_, err := provider.LoginWithPIN(ctx, "tech@demo.com", "1234")
	require.NoError(t, err)

	redirect := provider.Logout(ctx)
	require.Equal(t, TechnicianDomain.LoginRoute, redirect)
	require.Equal(t, StateAnonymous, provider.State())

	// A second logout stays anonymous and does not error.
	provider.Logout(ctx)
	require.Equal(t, StateAnonymous, provider.State())
}

func TestProviderRefreshFailureDropsToAnonymous(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	provider := NewProvider(f.staff)
	_, err := provider.Login(ctx, "owner@poolco.test", "password1")
	require.NoError(t, err)

	f.store.Set("poolcare.staff.refresh", "forged")
	require.ErrorIs(t, provider.Refresh(ctx), ErrSessionExpired)
	require.Equal(t, StateAnonymous, provider.State())
}

func TestLandingRouteRoleRedirect(t *testing.T) {
	f := newSDKFixture(t)
	provider := NewProvider(f.staff)

	techStaff := StaffPrincipal{ID: "s1", Role: RoleTechnician}
	require.Equal(t, TechnicianDomain.LandingRoute, provider.LandingRoute(techStaff))

	for _, role := range []string{RoleOwner, RoleAdmin} {
		principal := StaffPrincipal{ID: "s1", Role: role}
		require.Equal(t, StaffDomain.LandingRoute, provider.LandingRoute(principal))
	}
}

func TestGuardProtected(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	provider := NewProvider(f.staff)

	// Loading renders nothing, no redirect.
	decision := provider.GuardProtected()
	require.False(t, decision.Show)
	require.Empty(t, decision.Redirect)

	provider.Bootstrap(ctx)
	decision = provider.GuardProtected()
	require.False(t, decision.Show)
	require.Equal(t, StaffDomain.LoginRoute, decision.Redirect)

	_, err := provider.Login(ctx, "owner@poolco.test", "password1")
	require.NoError(t, err)
	decision = provider.GuardProtected()
	require.True(t, decision.Show)
	require.Empty(t, decision.Redirect)
}

func TestGuardLoginRedirectsAuthenticatedPrincipal(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	provider := NewProvider(f.staff)
	provider.Bootstrap(ctx)

	decision := provider.GuardLogin()
	require.True(t, decision.Show)

	_, err := provider.Login(ctx, "owner@poolco.test", "password1")
	require.NoError(t, err)

	decision = provider.GuardLogin()
	require.False(t, decision.Show)
	require.Equal(t, StaffDomain.LandingRoute, decision.Redirect)
}
