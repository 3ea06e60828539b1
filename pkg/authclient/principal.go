package authclient

import (
	"encoding/json"
	"fmt"
)

// Principal kinds, one per identity domain.
const (
	KindStaff         = "staff"
	KindClient        = "client"
	KindTechnician    = "technician"
	KindPlatformAdmin = "platform_admin"
)

// Staff roles.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

// Principal is the authenticated identity for one domain. Exactly one
// variant exists per domain; use a type switch to get at the fields.
type Principal interface {
	Kind() string
	PrincipalID() string
}

type StaffPrincipal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        string `json:"role"`
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName"`
}

func (p StaffPrincipal) Kind() string        { return KindStaff }
func (p StaffPrincipal) PrincipalID() string { return p.ID }

type ServiceCompany struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ClientPrincipal struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	CompanyName    string         `json:"companyName"`
	ServiceCompany ServiceCompany `json:"serviceCompany"`
}

func (p ClientPrincipal) Kind() string        { return KindClient }
func (p ClientPrincipal) PrincipalID() string { return p.ID }

type TechnicianPrincipal struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName"`
}

func (p TechnicianPrincipal) Kind() string        { return KindTechnician }
func (p TechnicianPrincipal) PrincipalID() string { return p.ID }

type PlatformAdminPrincipal struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (p PlatformAdminPrincipal) Kind() string        { return KindPlatformAdmin }
func (p PlatformAdminPrincipal) PrincipalID() string { return p.ID }

// PrincipalParser turns the raw "principal" payload into a typed variant.
// Parsers fail closed: a payload that does not carry the required fields
// is an error, never a half-filled Principal.
type PrincipalParser func(raw json.RawMessage) (Principal, error)

func parseStaffPrincipal(raw json.RawMessage) (Principal, error) {
	var p StaffPrincipal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse staff principal: %w", err)
	}
	if p.ID == "" || p.Role == "" || p.CompanyID == "" {
		return nil, fmt.Errorf("staff principal missing required fields")
	}
	return p, nil
}

func parseClientPrincipal(raw json.RawMessage) (Principal, error) {
	var p ClientPrincipal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse client principal: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("client principal missing required fields")
	}
	return p, nil
}

func parseTechnicianPrincipal(raw json.RawMessage) (Principal, error) {
	var p TechnicianPrincipal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse technician principal: %w", err)
	}
	if p.ID == "" || p.CompanyID == "" {
		return nil, fmt.Errorf("technician principal missing required fields")
	}
	return p, nil
}

func parsePlatformAdminPrincipal(raw json.RawMessage) (Principal, error) {
	var p PlatformAdminPrincipal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse platform admin principal: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("platform admin principal missing required fields")
	}
	return p, nil
}
