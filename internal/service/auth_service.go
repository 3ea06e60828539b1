package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"poolcare/api/internal/config"
	"poolcare/api/internal/ids"
	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
	"poolcare/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrSessionExpired     = errors.New("session expired")
)

// Directory interfaces cover the principal lookups the auth engine needs.
// The pgx repositories satisfy them; tests substitute in-memory fakes.

type StaffDirectory interface {
	FindByEmail(ctx context.Context, email string) (models.StaffUser, error)
	GetByID(ctx context.Context, id string) (models.StaffUser, error)
}

type ClientDirectory interface {
	FindByEmail(ctx context.Context, email string) (models.ClientUser, error)
	GetByID(ctx context.Context, id string) (models.ClientUser, error)
}

type TechnicianDirectory interface {
	FindByEmail(ctx context.Context, email string) (models.Technician, error)
	GetByID(ctx context.Context, id string) (models.Technician, error)
}

type PlatformAdminDirectory interface {
	FindByEmail(ctx context.Context, email string) (models.PlatformAdmin, error)
	GetByID(ctx context.Context, id string) (models.PlatformAdmin, error)
}

type CompanyDirectory interface {
	GetByID(ctx context.Context, id string) (models.Company, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.AuthSession) error
	GetByID(ctx context.Context, domain models.AuthDomain, id string) (models.AuthSession, error)
	FindByRefreshHash(ctx context.Context, domain models.AuthDomain, refreshHash []byte) (models.AuthSession, error)
	UpdateRefresh(ctx context.Context, id string, refreshHash []byte, expiresAt time.Time) error
	Touch(ctx context.Context, id string, ip string, userAgent string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByRefreshHash(ctx context.Context, domain models.AuthDomain, refreshHash []byte) error
	CountByPrincipal(ctx context.Context, domain models.AuthDomain, principalID string) (int, error)
	DeleteOldest(ctx context.Context, domain models.AuthDomain, principalID string, keepLatest int) error
}

// AuthService runs login, refresh, and logout for all four identity
// domains. One engine, parameterized per domain: signing secret, TTLs, and
// whether refresh rotates the refresh token.
type AuthService struct {
	staff     StaffDirectory
	clients   ClientDirectory
	techs     TechnicianDirectory
	platform  PlatformAdminDirectory
	companies CompanyDirectory
	sessions  SessionStore
	cache     *redis.Client
	cfg       *config.AppConfig
	log       zerolog.Logger
}

func NewAuthService(
	staff StaffDirectory,
	clients ClientDirectory,
	techs TechnicianDirectory,
	platform PlatformAdminDirectory,
	companies CompanyDirectory,
	sessions SessionStore,
	cache *redis.Client,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		staff:     staff,
		clients:   clients,
		techs:     techs,
		platform:  platform,
		companies: companies,
		sessions:  sessions,
		cache:     cache,
		cfg:       cfg,
		log:       log,
	}
}

// SessionMeta carries request context recorded on the session row.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type domainPolicy struct {
	auth config.DomainAuthConfig
	// rotateRefresh: technician sessions rotate the refresh token on every
	// refresh; the other domains keep it for the session's lifetime.
	rotateRefresh bool
}

func (s *AuthService) policy(domain models.AuthDomain) (domainPolicy, error) {
	switch domain {
	case models.AuthDomainStaff:
		return domainPolicy{auth: s.cfg.Auth.Staff}, nil
	case models.AuthDomainPortal:
		return domainPolicy{auth: s.cfg.Auth.Portal}, nil
	case models.AuthDomainTech:
		return domainPolicy{auth: s.cfg.Auth.Tech, rotateRefresh: true}, nil
	case models.AuthDomainPlatform:
		return domainPolicy{auth: s.cfg.Auth.Platform}, nil
	default:
		return domainPolicy{}, fmt.Errorf("unknown auth domain %q", domain)
	}
}

type StaffLogin struct {
	Staff   models.StaffUser
	Company models.Company
	Tokens  TokenPair
}

func (s *AuthService) LoginStaff(ctx context.Context, email string, password string, meta SessionMeta) (StaffLogin, error) {
	email = normalizeEmail(email)
	staff, err := s.staff.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return StaffLogin{}, ErrInvalidCredentials
		}
		return StaffLogin{}, err
	}

	ok, err := security.VerifyPassword(password, staff.PasswordHash)
	if err != nil || !ok {
		return StaffLogin{}, ErrInvalidCredentials
	}

	company, err := s.activeCompany(ctx, staff.CompanyID, staff.Active)
	if err != nil {
		return StaffLogin{}, err
	}

	tokens, err := s.issueSession(ctx, models.AuthDomainStaff, staff.ID, string(staff.Role), staff.CompanyID, meta)
	if err != nil {
		return StaffLogin{}, err
	}

	return StaffLogin{Staff: staff, Company: company, Tokens: tokens}, nil
}

type ClientLogin struct {
	Client  models.ClientUser
	Company models.Company
	Tokens  TokenPair
}

func (s *AuthService) LoginClient(ctx context.Context, email string, password string, meta SessionMeta) (ClientLogin, error) {
	email = normalizeEmail(email)
	client, err := s.clients.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return ClientLogin{}, ErrInvalidCredentials
		}
		return ClientLogin{}, err
	}

	ok, err := security.VerifyPassword(password, client.PasswordHash)
	if err != nil || !ok {
		return ClientLogin{}, ErrInvalidCredentials
	}

	company, err := s.activeCompany(ctx, client.CompanyID, client.Active)
	if err != nil {
		return ClientLogin{}, err
	}

	tokens, err := s.issueSession(ctx, models.AuthDomainPortal, client.ID, "", client.CompanyID, meta)
	if err != nil {
		return ClientLogin{}, err
	}

	return ClientLogin{Client: client, Company: company, Tokens: tokens}, nil
}

type TechnicianLogin struct {
	Technician models.Technician
	Company    models.Company
	Tokens     TokenPair
}

func (s *AuthService) LoginTechnician(ctx context.Context, email string, password string, meta SessionMeta) (TechnicianLogin, error) {
	return s.loginTechnician(ctx, email, meta, func(tech models.Technician) (bool, error) {
		return security.VerifyPassword(password, tech.PasswordHash)
	})
}

// LoginTechnicianPIN is the tablet flow: email plus short numeric PIN.
// Attempts are rate limited per email so the small keyspace cannot be
// walked.
func (s *AuthService) LoginTechnicianPIN(ctx context.Context, email string, pin string, meta SessionMeta) (TechnicianLogin, error) {
	if err := s.checkPinAttempts(ctx, normalizeEmail(email)); err != nil {
		return TechnicianLogin{}, err
	}
	return s.loginTechnician(ctx, email, meta, func(tech models.Technician) (bool, error) {
		return security.VerifyPin(pin, tech.PinHash)
	})
}

func (s *AuthService) loginTechnician(ctx context.Context, email string, meta SessionMeta, verify func(models.Technician) (bool, error)) (TechnicianLogin, error) {
	email = normalizeEmail(email)
	tech, err := s.techs.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrTechnicianNotFound) {
			return TechnicianLogin{}, ErrInvalidCredentials
		}
		return TechnicianLogin{}, err
	}

	ok, err := verify(tech)
	if err != nil || !ok {
		return TechnicianLogin{}, ErrInvalidCredentials
	}

	company, err := s.activeCompany(ctx, tech.CompanyID, tech.Active)
	if err != nil {
		return TechnicianLogin{}, err
	}

	tokens, err := s.issueSession(ctx, models.AuthDomainTech, tech.ID, "", tech.CompanyID, meta)
	if err != nil {
		return TechnicianLogin{}, err
	}

	return TechnicianLogin{Technician: tech, Company: company, Tokens: tokens}, nil
}

type PlatformLogin struct {
	Admin  models.PlatformAdmin
	Tokens TokenPair
}

func (s *AuthService) LoginPlatformAdmin(ctx context.Context, email string, password string, meta SessionMeta) (PlatformLogin, error) {
	email = normalizeEmail(email)
	admin, err := s.platform.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrPlatformAdminNotFound) {
			return PlatformLogin{}, ErrInvalidCredentials
		}
		return PlatformLogin{}, err
	}

	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		return PlatformLogin{}, ErrInvalidCredentials
	}

	tokens, err := s.issueSession(ctx, models.AuthDomainPlatform, admin.ID, "", "", meta)
	if err != nil {
		return PlatformLogin{}, err
	}

	return PlatformLogin{Admin: admin, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new access token. Rotated reports
// whether the refresh token itself was replaced (technician domain only);
// when false, Tokens.RefreshToken is empty and the caller keeps its token.
func (s *AuthService) Refresh(ctx context.Context, domain models.AuthDomain, refreshToken string, meta SessionMeta) (TokenPair, bool, error) {
	policy, err := s.policy(domain)
	if err != nil {
		return TokenPair{}, false, err
	}

	refreshHash := security.HashRefreshToken(refreshToken)
	session, err := s.sessions.FindByRefreshHash(ctx, domain, refreshHash)
	if err != nil {
		return TokenPair{}, false, ErrSessionExpired
	}

	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return TokenPair{}, false, ErrSessionExpired
	}

	role, companyID, err := s.reverifyPrincipal(ctx, domain, session.PrincipalID)
	if err != nil {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return TokenPair{}, false, err
	}

	accessToken, err := security.GenerateAccessToken(
		policy.auth.AccessSecret,
		domain,
		session.PrincipalID,
		session.ID,
		role,
		companyID,
		policy.auth.AccessTTL,
	)
	if err != nil {
		return TokenPair{}, false, err
	}

	if !policy.rotateRefresh {
		if err := s.sessions.UpdateRefresh(ctx, session.ID, session.RefreshTokenHash, time.Now().Add(policy.auth.RefreshTTL)); err != nil {
			return TokenPair{}, false, err
		}
		return TokenPair{AccessToken: accessToken}, false, nil
	}

	newRefresh, newHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return TokenPair{}, false, err
	}
	if err := s.sessions.UpdateRefresh(ctx, session.ID, newHash, time.Now().Add(policy.auth.RefreshTTL)); err != nil {
		return TokenPair{}, false, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, true, nil
}

// Logout revokes the session owning the refresh token. Unknown tokens are
// not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, domain models.AuthDomain, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	refreshHash := security.HashRefreshToken(refreshToken)
	return s.sessions.DeleteByRefreshHash(ctx, domain, refreshHash)
}

// reverifyPrincipal re-checks that the session's principal (and its tenant)
// is still allowed in, and returns the claims to mint.
func (s *AuthService) reverifyPrincipal(ctx context.Context, domain models.AuthDomain, principalID string) (role string, companyID string, err error) {
	switch domain {
	case models.AuthDomainStaff:
		staff, err := s.staff.GetByID(ctx, principalID)
		if err != nil {
			return "", "", ErrSessionExpired
		}
		if _, err := s.activeCompany(ctx, staff.CompanyID, staff.Active); err != nil {
			return "", "", err
		}
		return string(staff.Role), staff.CompanyID, nil

	case models.AuthDomainPortal:
		client, err := s.clients.GetByID(ctx, principalID)
		if err != nil {
			return "", "", ErrSessionExpired
		}
		if _, err := s.activeCompany(ctx, client.CompanyID, client.Active); err != nil {
			return "", "", err
		}
		return "", client.CompanyID, nil

	case models.AuthDomainTech:
		tech, err := s.techs.GetByID(ctx, principalID)
		if err != nil {
			return "", "", ErrSessionExpired
		}
		if _, err := s.activeCompany(ctx, tech.CompanyID, tech.Active); err != nil {
			return "", "", err
		}
		return "", tech.CompanyID, nil

	case models.AuthDomainPlatform:
		if _, err := s.platform.GetByID(ctx, principalID); err != nil {
			return "", "", ErrSessionExpired
		}
		return "", "", nil
	}
	return "", "", fmt.Errorf("unknown auth domain %q", domain)
}

func (s *AuthService) issueSession(ctx context.Context, domain models.AuthDomain, principalID string, role string, companyID string, meta SessionMeta) (TokenPair, error) {
	policy, err := s.policy(domain)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return TokenPair{}, err
	}

	session := models.AuthSession{
		ID:               ids.New(),
		Domain:           domain,
		PrincipalID:      principalID,
		RefreshTokenHash: refreshHash,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		ExpiresAt:        time.Now().Add(policy.auth.RefreshTTL),
	}

	accessToken, err := security.GenerateAccessToken(
		policy.auth.AccessSecret,
		domain,
		principalID,
		session.ID,
		role,
		companyID,
		policy.auth.AccessTTL,
	)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return TokenPair{}, err
	}

	if err := s.enforceSessionLimit(ctx, domain, principalID); err != nil {
		s.log.Warn().Err(err).Str("domain", string(domain)).Str("principal_id", principalID).Msg("enforce session limit failed")
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, domain models.AuthDomain, principalID string) error {
	count, err := s.sessions.CountByPrincipal(ctx, domain, principalID)
	if err != nil {
		return err
	}
	if count <= s.cfg.Auth.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldest(ctx, domain, principalID, s.cfg.Auth.MaxSessions)
}

// activeCompany enforces the tenant gate shared by the three company-bound
// domains: inactive principal or suspended company fails closed.
func (s *AuthService) activeCompany(ctx context.Context, companyID string, principalActive bool) (models.Company, error) {
	if !principalActive {
		return models.Company{}, ErrAccountSuspended
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return models.Company{}, err
	}
	if company.Status != models.CompanyStatusActive {
		return models.Company{}, ErrAccountSuspended
	}
	return company, nil
}

func (s *AuthService) checkPinAttempts(ctx context.Context, email string) error {
	if s.cache == nil {
		return nil
	}

	key := "pin_attempts:" + email
	count, err := s.cache.Incr(ctx, key).Result()
	if err != nil {
		// Redis being down should not lock every technician out.
		s.log.Warn().Err(err).Msg("pin attempt counter unavailable")
		return nil
	}
	if count == 1 {
		_ = s.cache.Expire(ctx, key, s.cfg.Auth.PinAttemptWindow).Err()
	}
	if count > int64(s.cfg.Auth.PinAttemptLimit) {
		return ErrInvalidCredentials
	}
	return nil
}

// Profile lookups back the per-domain "me" endpoints. Each re-applies the
// same gate as login so a suspended principal cannot coast on a live access
// token's session.

func (s *AuthService) StaffProfile(ctx context.Context, id string) (models.StaffUser, models.Company, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return models.StaffUser{}, models.Company{}, err
	}
	company, err := s.activeCompany(ctx, staff.CompanyID, staff.Active)
	if err != nil {
		return models.StaffUser{}, models.Company{}, err
	}
	return staff, company, nil
}

func (s *AuthService) ClientProfile(ctx context.Context, id string) (models.ClientUser, models.Company, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return models.ClientUser{}, models.Company{}, err
	}
	company, err := s.activeCompany(ctx, client.CompanyID, client.Active)
	if err != nil {
		return models.ClientUser{}, models.Company{}, err
	}
	return client, company, nil
}

func (s *AuthService) TechnicianProfile(ctx context.Context, id string) (models.Technician, models.Company, error) {
	tech, err := s.techs.GetByID(ctx, id)
	if err != nil {
		return models.Technician{}, models.Company{}, err
	}
	company, err := s.activeCompany(ctx, tech.CompanyID, tech.Active)
	if err != nil {
		return models.Technician{}, models.Company{}, err
	}
	return tech, company, nil
}

func (s *AuthService) PlatformProfile(ctx context.Context, id string) (models.PlatformAdmin, error) {
	return s.platform.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
