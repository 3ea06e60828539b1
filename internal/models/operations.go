package models

import "time"

type PoolType string

const (
	PoolTypeInGround    PoolType = "in_ground"
	PoolTypeAboveGround PoolType = "above_ground"
	PoolTypeSpa         PoolType = "spa"
)

type Sanitizer string

const (
	SanitizerChlorine Sanitizer = "chlorine"
	SanitizerSalt     Sanitizer = "salt"
	SanitizerBromine  Sanitizer = "bromine"
)

type Pool struct {
	ID            string
	CompanyID     string
	ClientID      string
	Label         string
	Address       string
	Type          PoolType
	Sanitizer     Sanitizer
	VolumeGallons int
	// ServiceWeekday is the recurring service day (time.Weekday); visits are
	// generated ahead of it by the scheduler.
	ServiceWeekday time.Weekday
	Notes          string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type VisitStatus string

const (
	VisitStatusScheduled  VisitStatus = "scheduled"
	VisitStatusInProgress VisitStatus = "in_progress"
	VisitStatusCompleted  VisitStatus = "completed"
	VisitStatusSkipped    VisitStatus = "skipped"
)

// ChemReadings are the water-test values captured on a visit. Zero values
// mean "not measured".
type ChemReadings struct {
	PH            float64
	ChlorinePPM   float64
	AlkalinityPPM float64
}

type ServiceVisit struct {
	ID           string
	CompanyID    string
	PoolID       string
	TechnicianID string
	ScheduledFor time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Status       VisitStatus
	Readings     ChemReadings
	Notes        string
	PhotoKeys    []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChemicalUsage records inventory consumed during a visit.
type ChemicalUsage struct {
	VisitID  string
	ItemID   string
	Quantity float64
}

type InventoryItem struct {
	ID             string
	CompanyID      string
	Name           string
	Unit           string
	QuantityOnHand float64
	ReorderLevel   float64
	UnitCostCents  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
	InvoiceStatusVoid  InvoiceStatus = "void"
)

type Invoice struct {
	ID         string
	CompanyID  string
	ClientID   string
	Number     string
	Status     InvoiceStatus
	IssuedAt   *time.Time
	DueAt      *time.Time
	TotalCents int64
	Lines      []InvoiceLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type InvoiceLine struct {
	ID          string
	InvoiceID   string
	Description string
	Quantity    float64
	AmountCents int64
}

type SubscriptionPlan string

const (
	PlanStarter    SubscriptionPlan = "starter"
	PlanPro        SubscriptionPlan = "pro"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

type SubscriptionStatus string

const (
	SubscriptionTrial    SubscriptionStatus = "trial"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription is platform-level state about a tenant, managed only through
// the platform-admin domain.
type Subscription struct {
	ID               string
	CompanyID        string
	Plan             SubscriptionPlan
	Status           SubscriptionStatus
	CurrentPeriodEnd time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
