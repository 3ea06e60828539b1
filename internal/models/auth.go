package models

import "time"

// AuthDomain names one of the four disjoint identity domains. Sessions,
// tokens, and storage keys are always scoped by domain; the domains share
// no state.
type AuthDomain string

const (
	AuthDomainStaff    AuthDomain = "staff"
	AuthDomainPortal   AuthDomain = "portal"
	AuthDomainTech     AuthDomain = "tech"
	AuthDomainPlatform AuthDomain = "platform"
)

type StaffRole string

const (
	StaffRoleOwner      StaffRole = "owner"
	StaffRoleAdmin      StaffRole = "admin"
	StaffRoleTechnician StaffRole = "technician"
)

type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

// Company is the tenant. Every staff user, client, technician, and
// operational record hangs off a company.
type Company struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Status    CompanyStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaffUser is a company employee in the staff identity domain. Staff with
// role technician land in the field experience rather than the office one,
// but they authenticate through the staff domain all the same.
type StaffUser struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Role         StaffRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClientUser is a pool owner with access to the client portal domain.
type ClientUser struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Technician is a field worker in the technician portal domain. Separate
// from StaffUser: technicians log in on shared devices, often with a PIN
// instead of a password.
type Technician struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash []byte
	PinHash      []byte
	FirstName    string
	LastName     string
	Phone        string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlatformAdmin operates the platform itself; no tenant attached.
type PlatformAdmin struct {
	ID           string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthSession is one refresh-token record. The (domain, principal) pair is
// the ownership key; refresh tokens are stored hashed only.
type AuthSession struct {
	ID               string
	Domain           AuthDomain
	PrincipalID      string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
