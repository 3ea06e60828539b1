package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"poolcare/api/internal/config"
	"poolcare/api/internal/ids"
	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
	"poolcare/api/internal/security"
	"poolcare/api/internal/service"
)

type fakeStaffDir struct{ byEmail map[string]models.StaffUser }

func (d *fakeStaffDir) FindByEmail(_ context.Context, email string) (models.StaffUser, error) {
	if staff, ok := d.byEmail[email]; ok {
		return staff, nil
	}
	return models.StaffUser{}, repository.ErrStaffNotFound
}

func (d *fakeStaffDir) GetByID(_ context.Context, id string) (models.StaffUser, error) {
	for _, staff := range d.byEmail {
		if staff.ID == id {
			return staff, nil
		}
	}
	return models.StaffUser{}, repository.ErrStaffNotFound
}

type fakeClientDir struct{ byEmail map[string]models.ClientUser }

func (d *fakeClientDir) FindByEmail(_ context.Context, email string) (models.ClientUser, error) {
	if client, ok := d.byEmail[email]; ok {
		return client, nil
	}
	return models.ClientUser{}, repository.ErrClientNotFound
}

func (d *fakeClientDir) GetByID(_ context.Context, id string) (models.ClientUser, error) {
	for _, client := range d.byEmail {
		if client.ID == id {
			return client, nil
		}
	}
	return models.ClientUser{}, repository.ErrClientNotFound
}

type fakeTechDir struct{ byEmail map[string]models.Technician }

func (d *fakeTechDir) FindByEmail(_ context.Context, email string) (models.Technician, error) {
	if tech, ok := d.byEmail[email]; ok {
		return tech, nil
	}
	return models.Technician{}, repository.ErrTechnicianNotFound
}

func (d *fakeTechDir) GetByID(_ context.Context, id string) (models.Technician, error) {
	for _, tech := range d.byEmail {
		if tech.ID == id {
			return tech, nil
		}
	}
	return models.Technician{}, repository.ErrTechnicianNotFound
}

type fakePlatformDir struct{ byEmail map[string]models.PlatformAdmin }

func (d *fakePlatformDir) FindByEmail(_ context.Context, email string) (models.PlatformAdmin, error) {
	if admin, ok := d.byEmail[email]; ok {
		return admin, nil
	}
	return models.PlatformAdmin{}, repository.ErrPlatformAdminNotFound
}

func (d *fakePlatformDir) GetByID(_ context.Context, id string) (models.PlatformAdmin, error) {
	for _, admin := range d.byEmail {
		if admin.ID == id {
			return admin, nil
		}
	}
	return models.PlatformAdmin{}, repository.ErrPlatformAdminNotFound
}

type fakeCompanyDir struct{ byID map[string]models.Company }

func (d *fakeCompanyDir) GetByID(_ context.Context, id string) (models.Company, error) {
	if company, ok := d.byID[id]; ok {
		return company, nil
	}
	return models.Company{}, repository.ErrCompanyNotFound
}

type fakeSessionStore struct{ sessions map[string]models.AuthSession }

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]models.AuthSession{}}
}

func (s *fakeSessionStore) Create(_ context.Context, session models.AuthSession) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) GetByID(_ context.Context, domain models.AuthDomain, id string) (models.AuthSession, error) {
	session, ok := s.sessions[id]
	if !ok || session.Domain != domain {
		return models.AuthSession{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) FindByRefreshHash(_ context.Context, domain models.AuthDomain, refreshHash []byte) (models.AuthSession, error) {
	for _, session := range s.sessions {
		if session.Domain == domain && bytes.Equal(session.RefreshTokenHash, refreshHash) {
			return session, nil
		}
	}
	return models.AuthSession{}, repository.ErrSessionNotFound
}

func (s *fakeSessionStore) UpdateRefresh(_ context.Context, id string, refreshHash []byte, expiresAt time.Time) error {
	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.RefreshTokenHash = refreshHash
	session.ExpiresAt = expiresAt
	s.sessions[id] = session
	return nil
}

func (s *fakeSessionStore) Touch(_ context.Context, id string, ip string, userAgent string) error {
	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.LastSeenAt = time.Now()
	if ip != "" {
		session.IPAddress = ip
	}
	if userAgent != "" {
		session.UserAgent = userAgent
	}
	s.sessions[id] = session
	return nil
}

func (s *fakeSessionStore) DeleteByID(_ context.Context, id string) error {
	if _, ok := s.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) DeleteByRefreshHash(_ context.Context, domain models.AuthDomain, refreshHash []byte) error {
	for id, session := range s.sessions {
		if session.Domain == domain && bytes.Equal(session.RefreshTokenHash, refreshHash) {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *fakeSessionStore) CountByPrincipal(_ context.Context, domain models.AuthDomain, principalID string) (int, error) {
	count := 0
	for _, session := range s.sessions {
		if session.Domain == domain && session.PrincipalID == principalID {
			count++
		}
	}
	return count, nil
}

func (s *fakeSessionStore) DeleteOldest(_ context.Context, _ models.AuthDomain, _ string, _ int) error {
	return nil
}

type fixture struct {
	staff     *fakeStaffDir
	clients   *fakeClientDir
	techs     *fakeTechDir
	platform  *fakePlatformDir
	companies *fakeCompanyDir
	sessions  *fakeSessionStore
	service   *service.AuthService
}

func testConfig() *config.AppConfig {
	domain := func(secret string) config.DomainAuthConfig {
		return config.DomainAuthConfig{
			AccessSecret: secret,
			AccessTTL:    time.Minute,
			RefreshTTL:   time.Hour,
		}
	}
	return &config.AppConfig{
		Auth: config.AuthConfig{
			Staff:       domain("staff-secret"),
			Portal:      domain("portal-secret"),
			Tech:        domain("tech-secret"),
			Platform:    domain("platform-secret"),
			MaxSessions: 10,
		},
	}
}

func setup(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		staff:     &fakeStaffDir{byEmail: map[string]models.StaffUser{}},
		clients:   &fakeClientDir{byEmail: map[string]models.ClientUser{}},
		techs:     &fakeTechDir{byEmail: map[string]models.Technician{}},
		platform:  &fakePlatformDir{byEmail: map[string]models.PlatformAdmin{}},
		companies: &fakeCompanyDir{byID: map[string]models.Company{}},
		sessions:  newFakeSessionStore(),
	}
	f.service = service.NewAuthService(
		f.staff, f.clients, f.techs, f.platform, f.companies, f.sessions,
		nil, testConfig(), zerolog.Nop(),
	)
	return f
}

func (f *fixture) addCompany(t *testing.T, status models.CompanyStatus) models.Company {
	t.Helper()
	company := models.Company{ID: ids.New(), Name: "Blue Wave Pools", Status: status}
	f.companies.byID[company.ID] = company
	return company
}

func (f *fixture) addStaff(t *testing.T, companyID string, email string, password string, role models.StaffRole) models.StaffUser {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	staff := models.StaffUser{
		ID: ids.New(), CompanyID: companyID, Email: email, PasswordHash: hash,
		FirstName: "Sam", LastName: "Rivera", Role: role, Active: true,
	}
	f.staff.byEmail[email] = staff
	return staff
}

func (f *fixture) addTechnician(t *testing.T, companyID string, email string, pin string) models.Technician {
	t.Helper()
	passHash, err := security.HashPassword("fieldpass")
	require.NoError(t, err)
	pinHash, err := security.HashPin(pin)
	require.NoError(t, err)
	tech := models.Technician{
		ID: ids.New(), CompanyID: companyID, Email: email,
		PasswordHash: passHash, PinHash: pinHash,
		FirstName: "Tess", LastName: "Nguyen", Phone: "555-0101", Active: true,
	}
	f.techs.byEmail[email] = tech
	return tech
}

func TestLoginStaff(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusActive)
	staff := f.addStaff(t, company.ID, "owner@bluewave.com", "swordfish", models.StaffRoleOwner)

	result, err := f.service.LoginStaff(context.Background(), "Owner@BlueWave.com", "swordfish", service.SessionMeta{})
	require.NoError(t, err)
	require.Equal(t, staff.ID, result.Staff.ID)
	require.Equal(t, company.Name, result.Company.Name)
	require.NotEmpty(t, result.Tokens.AccessToken)
	require.NotEmpty(t, result.Tokens.RefreshToken)

	claims, err := security.ParseAccessToken(result.Tokens.AccessToken, "staff-secret", models.AuthDomainStaff)
	require.NoError(t, err)
	require.Equal(t, staff.ID, claims.Subject)
	require.Equal(t, string(models.StaffRoleOwner), claims.Role)
	require.Equal(t, company.ID, claims.CompanyID)
}

func TestLoginStaffWrongPassword(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusActive)
	f.addStaff(t, company.ID, "owner@bluewave.com", "swordfish", models.StaffRoleOwner)

	_, err := f.service.LoginStaff(context.Background(), "owner@bluewave.com", "guess", service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.service.LoginStaff(context.Background(), "nobody@bluewave.com", "swordfish", service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLoginSuspendedCompanyFailsClosed(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusSuspended)
	f.addStaff(t, company.ID, "owner@bluewave.com", "swordfish", models.StaffRoleOwner)
	f.addTechnician(t, company.ID, "tech@demo.com", "1234")

	_, err := f.service.LoginStaff(context.Background(), "owner@bluewave.com", "swordfish", service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrAccountSuspended)

	_, err = f.service.LoginTechnicianPIN(context.Background(), "tech@demo.com", "1234", service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrAccountSuspended)
}

func TestLoginTechnicianPIN(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusActive)
	tech := f.addTechnician(t, company.ID, "tech@demo.com", "1234")

	result, err := f.service.LoginTechnicianPIN(context.Background(), "tech@demo.com", "1234", service.SessionMeta{})
	require.NoError(t, err)
	require.Equal(t, tech.ID, result.Technician.ID)
	require.Equal(t, "555-0101", result.Technician.Phone)

	// Tokens land in the technician domain only.
	_, err = security.ParseAccessToken(result.Tokens.AccessToken, "tech-secret", models.AuthDomainTech)
	require.NoError(t, err)
	_, err = security.ParseAccessToken(result.Tokens.AccessToken, "staff-secret", models.AuthDomainStaff)
	require.Error(t, err)

	_, err = f.service.LoginTechnicianPIN(context.Background(), "tech@demo.com", "9999", service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRefreshRotationAsymmetry(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusActive)
	f.addStaff(t, company.ID, "owner@bluewave.com", "swordfish", models.StaffRoleOwner)
	f.addTechnician(t, company.ID, "tech@demo.com", "1234")

	staffLogin, err := f.service.LoginStaff(context.Background(), "owner@bluewave.com", "swordfish", service.SessionMeta{})
	require.NoError(t, err)
	techLogin, err := f.service.LoginTechnicianPIN(context.Background(), "tech@demo.com", "1234", service.SessionMeta{})
	require.NoError(t, err)

	// Staff domain: access token replaced, refresh token preserved.
	staffPair, rotated, err := f.service.Refresh(context.Background(), models.AuthDomainStaff, staffLogin.Tokens.RefreshToken, service.SessionMeta{})
	require.NoError(t, err)
	require.False(t, rotated)
	require.NotEmpty(t, staffPair.AccessToken)
	require.Empty(t, staffPair.RefreshToken)

	// The old staff refresh token still works.
	_, _, err = f.service.Refresh(context.Background(), models.AuthDomainStaff, staffLogin.Tokens.RefreshToken, service.SessionMeta{})
	require.NoError(t, err)

	// Technician domain: both tokens rotate and the old one is dead.
	techPair, rotated, err := f.service.Refresh(context.Background(), models.AuthDomainTech, techLogin.Tokens.RefreshToken, service.SessionMeta{})
	require.NoError(t, err)
	require.True(t, rotated)
	require.NotEmpty(t, techPair.RefreshToken)
	require.NotEqual(t, techLogin.Tokens.RefreshToken, techPair.RefreshToken)

	_, _, err = f.service.Refresh(context.Background(), models.AuthDomainTech, techLogin.Tokens.RefreshToken, service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrSessionExpired)

	_, _, err = f.service.Refresh(context.Background(), models.AuthDomainTech, techPair.RefreshToken, service.SessionMeta{})
	require.NoError(t, err)
}

func TestRefreshCrossDomainIsolation(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusActive)
	f.addStaff(t, company.ID, "owner@bluewave.com", "swordfish", models.StaffRoleOwner)

	login, err := f.service.LoginStaff(context.Background(), "owner@bluewave.com", "swordfish", service.SessionMeta{})
	require.NoError(t, err)

	// A staff refresh token means nothing to the technician domain.
	_, _, err = f.service.Refresh(context.Background(), models.AuthDomainTech, login.Tokens.RefreshToken, service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrSessionExpired)
}

func TestRefreshReverifiesPrincipal(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusActive)
	staff := f.addStaff(t, company.ID, "owner@bluewave.com", "swordfish", models.StaffRoleOwner)

	login, err := f.service.LoginStaff(context.Background(), "owner@bluewave.com", "swordfish", service.SessionMeta{})
	require.NoError(t, err)

	staff.Active = false
	f.staff.byEmail[staff.Email] = staff

	_, _, err = f.service.Refresh(context.Background(), models.AuthDomainStaff, login.Tokens.RefreshToken, service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrAccountSuspended)

	// The session was revoked on the failed refresh.
	_, _, err = f.service.Refresh(context.Background(), models.AuthDomainStaff, login.Tokens.RefreshToken, service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrSessionExpired)
}

func TestLogoutIdempotent(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusActive)
	f.addStaff(t, company.ID, "owner@bluewave.com", "swordfish", models.StaffRoleOwner)

	login, err := f.service.LoginStaff(context.Background(), "owner@bluewave.com", "swordfish", service.SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), models.AuthDomainStaff, login.Tokens.RefreshToken))
	require.NoError(t, f.service.Logout(context.Background(), models.AuthDomainStaff, login.Tokens.RefreshToken))

	_, _, err = f.service.Refresh(context.Background(), models.AuthDomainStaff, login.Tokens.RefreshToken, service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrSessionExpired)
}

func TestExpiredSessionRejected(t *testing.T) {
	f := setup(t)
	company := f.addCompany(t, models.CompanyStatusActive)
	f.addStaff(t, company.ID, "owner@bluewave.com", "swordfish", models.StaffRoleOwner)

	login, err := f.service.LoginStaff(context.Background(), "owner@bluewave.com", "swordfish", service.SessionMeta{})
	require.NoError(t, err)

	for id, session := range f.sessions.sessions {
		session.ExpiresAt = time.Now().Add(-time.Minute)
		f.sessions.sessions[id] = session
	}

	_, _, err = f.service.Refresh(context.Background(), models.AuthDomainStaff, login.Tokens.RefreshToken, service.SessionMeta{})
	require.ErrorIs(t, err, service.ErrSessionExpired)
}
