package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrTechnicianNotFound = errors.New("technician not found")

type TechnicianRepository struct {
	pool *pgxpool.Pool
}

func NewTechnicianRepository(pool *pgxpool.Pool) *TechnicianRepository {
	return &TechnicianRepository{pool: pool}
}

const technicianColumns = `
	id, company_id, email, password_hash, pin_hash, first_name, last_name, phone, active, created_at, updated_at
`

func (r *TechnicianRepository) Create(ctx context.Context, tech models.Technician) error {
	const query = `
		INSERT INTO technicians (
			id, company_id, email, password_hash, pin_hash, first_name, last_name, phone, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		tech.ID,
		tech.CompanyID,
		tech.Email,
		tech.PasswordHash,
		tech.PinHash,
		tech.FirstName,
		tech.LastName,
		tech.Phone,
		tech.Active,
	)
	return err
}

func (r *TechnicianRepository) FindByEmail(ctx context.Context, email string) (models.Technician, error) {
	const query = `
		SELECT ` + technicianColumns + `
		FROM technicians WHERE email = $1
	`
	return scanTechnician(r.pool.QueryRow(ctx, query, email))
}

func (r *TechnicianRepository) GetByID(ctx context.Context, id string) (models.Technician, error) {
	const query = `
		SELECT ` + technicianColumns + `
		FROM technicians WHERE id = $1
	`
	return scanTechnician(r.pool.QueryRow(ctx, query, id))
}

func (r *TechnicianRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Technician, error) {
	const query = `
		SELECT ` + technicianColumns + `
		FROM technicians
		WHERE company_id = $1
		ORDER BY last_name, first_name
	`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techs []models.Technician
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		techs = append(techs, tech)
	}
	return techs, rows.Err()
}

func (r *TechnicianRepository) Update(ctx context.Context, tech models.Technician) error {
	const query = `
		UPDATE technicians
		SET email = $2, first_name = $3, last_name = $4, phone = $5, active = $6, updated_at = NOW()
		WHERE id = $1 AND company_id = $7
	`
	cmd, err := r.pool.Exec(ctx, query,
		tech.ID,
		tech.Email,
		tech.FirstName,
		tech.LastName,
		tech.Phone,
		tech.Active,
		tech.CompanyID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTechnicianNotFound
	}
	return nil
}

func (r *TechnicianRepository) SetPin(ctx context.Context, id string, companyID string, pinHash []byte) error {
	const query = `
		UPDATE technicians SET pin_hash = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, companyID, pinHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTechnicianNotFound
	}
	return nil
}

func scanTechnician(row pgx.Row) (models.Technician, error) {
	var tech models.Technician
	if err := row.Scan(
		&tech.ID,
		&tech.CompanyID,
		&tech.Email,
		&tech.PasswordHash,
		&tech.PinHash,
		&tech.FirstName,
		&tech.LastName,
		&tech.Phone,
		&tech.Active,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Technician{}, ErrTechnicianNotFound
		}
		return models.Technician{}, err
	}
	return tech, nil
}
