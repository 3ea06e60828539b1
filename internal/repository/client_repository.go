package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrClientNotFound = errors.New("client not found")

type ClientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

const clientColumns = `
	id, company_id, email, password_hash, first_name, last_name, phone, address, active, created_at, updated_at
`

func (r *ClientRepository) Create(ctx context.Context, client models.ClientUser) error {
	const query = `
		INSERT INTO clients (
			id, company_id, email, password_hash, first_name, last_name, phone, address, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		client.ID,
		client.CompanyID,
		client.Email,
		client.PasswordHash,
		client.FirstName,
		client.LastName,
		client.Phone,
		client.Address,
		client.Active,
	)
	return err
}

func (r *ClientRepository) FindByEmail(ctx context.Context, email string) (models.ClientUser, error) {
	const query = `
		SELECT ` + clientColumns + `
		FROM clients WHERE email = $1
	`
	return scanClient(r.pool.QueryRow(ctx, query, email))
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (models.ClientUser, error) {
	const query = `
		SELECT ` + clientColumns + `
		FROM clients WHERE id = $1
	`
	return scanClient(r.pool.QueryRow(ctx, query, id))
}

// Search matches name or email, case-insensitive; empty term lists all.
func (r *ClientRepository) ListByCompany(ctx context.Context, companyID string, search string) ([]models.ClientUser, error) {
	const query = `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE company_id = $1
		  AND ($2 = '' OR first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		ORDER BY last_name, first_name
	`

	rows, err := r.pool.Query(ctx, query, companyID, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.ClientUser
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *ClientRepository) Update(ctx context.Context, client models.ClientUser) error {
	const query = `
		UPDATE clients
		SET email = $2, first_name = $3, last_name = $4, phone = $5, address = $6, active = $7, updated_at = NOW()
		WHERE id = $1 AND company_id = $8
	`
	cmd, err := r.pool.Exec(ctx, query,
		client.ID,
		client.Email,
		client.FirstName,
		client.LastName,
		client.Phone,
		client.Address,
		client.Active,
		client.CompanyID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *ClientRepository) SetPassword(ctx context.Context, id string, companyID string, passwordHash []byte) error {
	const query = `
		UPDATE clients SET password_hash = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, companyID, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (models.ClientUser, error) {
	var client models.ClientUser
	if err := row.Scan(
		&client.ID,
		&client.CompanyID,
		&client.Email,
		&client.PasswordHash,
		&client.FirstName,
		&client.LastName,
		&client.Phone,
		&client.Address,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ClientUser{}, ErrClientNotFound
		}
		return models.ClientUser{}, err
	}
	return client, nil
}
