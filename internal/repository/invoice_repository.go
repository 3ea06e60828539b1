package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

type InvoiceRepository struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

const invoiceColumns = `
	id, company_id, client_id, number, status, issued_at, due_at, total_cents, created_at, updated_at
`

// Create writes the invoice and its lines in one transaction, assigning
// the next per-company invoice number inside it. A per-company advisory
// lock serializes concurrent creates so two invoices never share a number;
// invoices are never deleted (void is a status), so the count is monotone.
func (r *InvoiceRepository) Create(ctx context.Context, invoice models.Invoice) (models.Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, invoice.CompanyID); err != nil {
		return models.Invoice{}, err
	}

	var seq int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) + 1 FROM invoices WHERE company_id = $1`, invoice.CompanyID).Scan(&seq); err != nil {
		return models.Invoice{}, err
	}
	invoice.Number = fmt.Sprintf("INV-%05d", seq)

	const insertInvoice = `
		INSERT INTO invoices (
			id, company_id, client_id, number, status, issued_at, due_at, total_cents, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`
	if _, err := tx.Exec(ctx, insertInvoice,
		invoice.ID,
		invoice.CompanyID,
		invoice.ClientID,
		invoice.Number,
		invoice.Status,
		invoice.IssuedAt,
		invoice.DueAt,
		invoice.TotalCents,
	); err != nil {
		return models.Invoice{}, err
	}

	const insertLine = `
		INSERT INTO invoice_lines (id, invoice_id, description, quantity, amount_cents)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, line := range invoice.Lines {
		if _, err := tx.Exec(ctx, insertLine,
			line.ID,
			invoice.ID,
			line.Description,
			line.Quantity,
			line.AmountCents,
		); err != nil {
			return models.Invoice{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Invoice{}, err
	}
	return invoice, nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, companyID string, id string) (models.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM invoices WHERE company_id = $1 AND id = $2
	`
	invoice, err := scanInvoice(r.pool.QueryRow(ctx, query, companyID, id))
	if err != nil {
		return models.Invoice{}, err
	}

	lines, err := r.linesFor(ctx, invoice.ID)
	if err != nil {
		return models.Invoice{}, err
	}
	invoice.Lines = lines
	return invoice, nil
}

func (r *InvoiceRepository) ListByCompany(ctx context.Context, companyID string, status models.InvoiceStatus) ([]models.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE company_id = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	return r.queryInvoices(ctx, query, companyID, string(status))
}

func (r *InvoiceRepository) ListByClient(ctx context.Context, companyID string, clientID string) ([]models.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE company_id = $1 AND client_id = $2
		ORDER BY created_at DESC
	`
	return r.queryInvoices(ctx, query, companyID, clientID)
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, companyID string, id string, status models.InvoiceStatus, issuedAt *time.Time) error {
	const query = `
		UPDATE invoices
		SET status = $3, issued_at = COALESCE($4, issued_at), updated_at = NOW()
		WHERE company_id = $1 AND id = $2
	`
	cmd, err := r.pool.Exec(ctx, query, companyID, id, status, issuedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepository) SumPaidBetween(ctx context.Context, companyID string, from time.Time, to time.Time) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(total_cents), 0) FROM invoices
		WHERE company_id = $1 AND status = 'paid'
		  AND updated_at >= $2 AND updated_at < $3
	`
	row := r.pool.QueryRow(ctx, query, companyID, from, to)
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *InvoiceRepository) linesFor(ctx context.Context, invoiceID string) ([]models.InvoiceLine, error) {
	const query = `
		SELECT id, invoice_id, description, quantity, amount_cents
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.InvoiceLine
	for rows.Next() {
		var line models.InvoiceLine
		if err := rows.Scan(
			&line.ID,
			&line.InvoiceID,
			&line.Description,
			&line.Quantity,
			&line.AmountCents,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *InvoiceRepository) queryInvoices(ctx context.Context, query string, args ...any) ([]models.Invoice, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func scanInvoice(row pgx.Row) (models.Invoice, error) {
	var invoice models.Invoice
	if err := row.Scan(
		&invoice.ID,
		&invoice.CompanyID,
		&invoice.ClientID,
		&invoice.Number,
		&invoice.Status,
		&invoice.IssuedAt,
		&invoice.DueAt,
		&invoice.TotalCents,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Invoice{}, ErrInvoiceNotFound
		}
		return models.Invoice{}, err
	}
	return invoice, nil
}
