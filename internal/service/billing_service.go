package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"poolcare/api/internal/ids"
	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
)

var ErrInvalidInvoiceState = errors.New("invalid invoice state")

// InvoiceStore is the slice of the invoice repository billing needs. Create
// assigns the invoice number atomically with the insert, so numbering stays
// collision-free under concurrent creates.
type InvoiceStore interface {
	Create(ctx context.Context, invoice models.Invoice) (models.Invoice, error)
	GetByID(ctx context.Context, companyID string, id string) (models.Invoice, error)
	UpdateStatus(ctx context.Context, companyID string, id string, status models.InvoiceStatus, issuedAt *time.Time) error
}

type BillingService struct {
	invoices  InvoiceStore
	visits    *repository.VisitRepository
	pools     *repository.PoolRepository
	inventory *repository.InventoryRepository
	log       zerolog.Logger
}

func NewBillingService(
	invoices InvoiceStore,
	visits *repository.VisitRepository,
	pools *repository.PoolRepository,
	inventory *repository.InventoryRepository,
	log zerolog.Logger,
) *BillingService {
	return &BillingService{
		invoices:  invoices,
		visits:    visits,
		pools:     pools,
		inventory: inventory,
		log:       log,
	}
}

type InvoiceLineInput struct {
	Description string
	Quantity    float64
	AmountCents int64
}

type CreateInvoiceInput struct {
	CompanyID string
	ClientID  string
	DueAt     *time.Time
	Lines     []InvoiceLineInput
}

func (s *BillingService) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (models.Invoice, error) {
	if len(input.Lines) == 0 {
		return models.Invoice{}, fmt.Errorf("invoice requires at least one line")
	}

	invoice := models.Invoice{
		ID:        ids.New(),
		CompanyID: input.CompanyID,
		ClientID:  input.ClientID,
		Status:    models.InvoiceStatusDraft,
		DueAt:     input.DueAt,
	}
	for _, line := range input.Lines {
		invoice.Lines = append(invoice.Lines, models.InvoiceLine{
			ID:          ids.New(),
			InvoiceID:   invoice.ID,
			Description: line.Description,
			Quantity:    line.Quantity,
			AmountCents: line.AmountCents,
		})
		invoice.TotalCents += line.AmountCents
	}

	return s.invoices.Create(ctx, invoice)
}

// InvoiceFromVisit drafts an invoice for a completed visit: a base service
// line plus one line per chemical consumed, priced at inventory unit cost.
func (s *BillingService) InvoiceFromVisit(ctx context.Context, companyID string, visitID string, serviceRateCents int64) (models.Invoice, error) {
	visit, err := s.visits.GetByID(ctx, companyID, visitID)
	if err != nil {
		return models.Invoice{}, err
	}
	if visit.Status != models.VisitStatusCompleted {
		return models.Invoice{}, ErrInvalidInvoiceState
	}

	pool, err := s.pools.GetByID(ctx, companyID, visit.PoolID)
	if err != nil {
		return models.Invoice{}, err
	}

	lines := []InvoiceLineInput{{
		Description: fmt.Sprintf("Pool service — %s (%s)", pool.Label, visit.ScheduledFor.Format("Jan 2, 2006")),
		Quantity:    1,
		AmountCents: serviceRateCents,
	}}

	usages, err := s.visits.ListChemicalUsage(ctx, visit.ID)
	if err != nil {
		return models.Invoice{}, err
	}
	for _, usage := range usages {
		item, err := s.inventory.GetByID(ctx, companyID, usage.ItemID)
		if err != nil {
			return models.Invoice{}, err
		}
		lines = append(lines, InvoiceLineInput{
			Description: fmt.Sprintf("%s (%.2f %s)", item.Name, usage.Quantity, item.Unit),
			Quantity:    usage.Quantity,
			AmountCents: int64(usage.Quantity * float64(item.UnitCostCents)),
		})
	}

	return s.CreateInvoice(ctx, CreateInvoiceInput{
		CompanyID: companyID,
		ClientID:  pool.ClientID,
		Lines:     lines,
	})
}

func (s *BillingService) MarkSent(ctx context.Context, companyID string, invoiceID string) error {
	invoice, err := s.invoices.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return ErrInvalidInvoiceState
	}
	now := time.Now()
	return s.invoices.UpdateStatus(ctx, companyID, invoiceID, models.InvoiceStatusSent, &now)
}

func (s *BillingService) MarkPaid(ctx context.Context, companyID string, invoiceID string) error {
	invoice, err := s.invoices.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusSent {
		return ErrInvalidInvoiceState
	}
	return s.invoices.UpdateStatus(ctx, companyID, invoiceID, models.InvoiceStatusPaid, nil)
}

func (s *BillingService) Void(ctx context.Context, companyID string, invoiceID string) error {
	invoice, err := s.invoices.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status == models.InvoiceStatusPaid {
		return ErrInvalidInvoiceState
	}
	return s.invoices.UpdateStatus(ctx, companyID, invoiceID, models.InvoiceStatusVoid, nil)
}
