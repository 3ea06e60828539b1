package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrCompanyNotFound = errors.New("company not found")

type CompanyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

func (r *CompanyRepository) Create(ctx context.Context, company models.Company) error {
	const query = `
		INSERT INTO companies (
			id, name, email, phone, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		company.ID,
		company.Name,
		company.Email,
		company.Phone,
		company.Status,
	)
	return err
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (models.Company, error) {
	const query = `
		SELECT id, name, email, phone, status, created_at, updated_at
		FROM companies WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	return scanCompany(row)
}

func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	const query = `
		SELECT id, name, email, phone, status, created_at, updated_at
		FROM companies
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

func (r *CompanyRepository) UpdateStatus(ctx context.Context, id string, status models.CompanyStatus) error {
	const query = `
		UPDATE companies SET status = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func (r *CompanyRepository) Update(ctx context.Context, company models.Company) error {
	const query = `
		UPDATE companies
		SET name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, company.ID, company.Name, company.Email, company.Phone)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func scanCompany(row pgx.Row) (models.Company, error) {
	var company models.Company
	if err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Email,
		&company.Phone,
		&company.Status,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Company{}, ErrCompanyNotFound
		}
		return models.Company{}, err
	}
	return company, nil
}
