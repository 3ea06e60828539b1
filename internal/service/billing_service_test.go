package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
	"poolcare/api/internal/service"
)

// fakeInvoiceStore mirrors the repository contract: the store, not the
// caller, assigns the per-company invoice number atomically with the write.
type fakeInvoiceStore struct {
	mu         sync.Mutex
	byID       map[string]models.Invoice
	perCompany map[string]int
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{
		byID:       map[string]models.Invoice{},
		perCompany: map[string]int{},
	}
}

func (s *fakeInvoiceStore) Create(_ context.Context, invoice models.Invoice) (models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perCompany[invoice.CompanyID]++
	invoice.Number = fmt.Sprintf("INV-%05d", s.perCompany[invoice.CompanyID])
	s.byID[invoice.ID] = invoice
	return invoice, nil
}

func (s *fakeInvoiceStore) GetByID(_ context.Context, companyID string, id string) (models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoice, ok := s.byID[id]
	if !ok || invoice.CompanyID != companyID {
		return models.Invoice{}, repository.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *fakeInvoiceStore) UpdateStatus(_ context.Context, companyID string, id string, status models.InvoiceStatus, issuedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoice, ok := s.byID[id]
	if !ok || invoice.CompanyID != companyID {
		return repository.ErrInvoiceNotFound
	}
	invoice.Status = status
	if issuedAt != nil {
		invoice.IssuedAt = issuedAt
	}
	s.byID[id] = invoice
	return nil
}

func newBillingFixture() (*fakeInvoiceStore, *service.BillingService) {
	store := newFakeInvoiceStore()
	return store, service.NewBillingService(store, nil, nil, nil, zerolog.Nop())
}

func serviceLine(cents int64) []service.InvoiceLineInput {
	return []service.InvoiceLineInput{{Description: "Pool service", Quantity: 1, AmountCents: cents}}
}

func TestCreateInvoiceUsesStoreAssignedNumber(t *testing.T) {
	_, billing := newBillingFixture()

	first, err := billing.CreateInvoice(context.Background(), service.CreateInvoiceInput{
		CompanyID: "co-1", ClientID: "client-1", Lines: serviceLine(12500),
	})
	require.NoError(t, err)
	require.Equal(t, "INV-00001", first.Number)
	require.Equal(t, int64(12500), first.TotalCents)
	require.Equal(t, models.InvoiceStatusDraft, first.Status)

	second, err := billing.CreateInvoice(context.Background(), service.CreateInvoiceInput{
		CompanyID: "co-1", ClientID: "client-1", Lines: serviceLine(9900),
	})
	require.NoError(t, err)
	require.Equal(t, "INV-00002", second.Number)
}

func TestConcurrentInvoiceCreatesGetDistinctNumbers(t *testing.T) {
	_, billing := newBillingFixture()

	const creates = 16
	results := make(chan models.Invoice, creates)
	errs := make(chan error, creates)
	var wg sync.WaitGroup
	for i := 0; i < creates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			invoice, err := billing.CreateInvoice(context.Background(), service.CreateInvoiceInput{
				CompanyID: "co-1", ClientID: "client-1", Lines: serviceLine(5000),
			})
			if err != nil {
				errs <- err
				return
			}
			results <- invoice
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := map[string]bool{}
	for invoice := range results {
		require.False(t, seen[invoice.Number], "duplicate invoice number %s", invoice.Number)
		seen[invoice.Number] = true
	}
	require.Len(t, seen, creates)
}

func TestInvoiceStatusTransitions(t *testing.T) {
	_, billing := newBillingFixture()

	invoice, err := billing.CreateInvoice(context.Background(), service.CreateInvoiceInput{
		CompanyID: "co-1", ClientID: "client-1", Lines: serviceLine(5000),
	})
	require.NoError(t, err)

	// Draft invoices cannot be paid directly.
	require.ErrorIs(t, billing.MarkPaid(context.Background(), "co-1", invoice.ID), service.ErrInvalidInvoiceState)

	require.NoError(t, billing.MarkSent(context.Background(), "co-1", invoice.ID))
	require.NoError(t, billing.MarkPaid(context.Background(), "co-1", invoice.ID))

	// Paid invoices cannot be voided.
	require.ErrorIs(t, billing.Void(context.Background(), "co-1", invoice.ID), service.ErrInvalidInvoiceState)
}

func TestCreateInvoiceRequiresLines(t *testing.T) {
	_, billing := newBillingFixture()

	_, err := billing.CreateInvoice(context.Background(), service.CreateInvoiceInput{
		CompanyID: "co-1", ClientID: "client-1",
	})
	require.Error(t, err)
}
