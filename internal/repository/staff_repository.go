package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrStaffNotFound = errors.New("staff user not found")

type StaffRepository struct {
	pool *pgxpool.Pool
}

func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

const staffColumns = `
	id, company_id, email, password_hash, first_name, last_name, role, active, created_at, updated_at
`

func (r *StaffRepository) Create(ctx context.Context, staff models.StaffUser) error {
	const query = `
		INSERT INTO staff_users (
			id, company_id, email, password_hash, first_name, last_name, role, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		staff.ID,
		staff.CompanyID,
		staff.Email,
		staff.PasswordHash,
		staff.FirstName,
		staff.LastName,
		staff.Role,
		staff.Active,
	)
	return err
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (models.StaffUser, error) {
	const query = `
		SELECT ` + staffColumns + `
		FROM staff_users WHERE email = $1
	`
	return scanStaff(r.pool.QueryRow(ctx, query, email))
}

func (r *StaffRepository) GetByID(ctx context.Context, id string) (models.StaffUser, error) {
	const query = `
		SELECT ` + staffColumns + `
		FROM staff_users WHERE id = $1
	`
	return scanStaff(r.pool.QueryRow(ctx, query, id))
}

func (r *StaffRepository) ListByCompany(ctx context.Context, companyID string) ([]models.StaffUser, error) {
	const query = `
		SELECT ` + staffColumns + `
		FROM staff_users
		WHERE company_id = $1
		ORDER BY last_name, first_name
	`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []models.StaffUser
	for rows.Next() {
		user, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, user)
	}
	return staff, rows.Err()
}

func (r *StaffRepository) Update(ctx context.Context, staff models.StaffUser) error {
	const query = `
		UPDATE staff_users
		SET email = $2, first_name = $3, last_name = $4, role = $5, active = $6, updated_at = NOW()
		WHERE id = $1 AND company_id = $7
	`
	cmd, err := r.pool.Exec(ctx, query,
		staff.ID,
		staff.Email,
		staff.FirstName,
		staff.LastName,
		staff.Role,
		staff.Active,
		staff.CompanyID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}

func scanStaff(row pgx.Row) (models.StaffUser, error) {
	var staff models.StaffUser
	if err := row.Scan(
		&staff.ID,
		&staff.CompanyID,
		&staff.Email,
		&staff.PasswordHash,
		&staff.FirstName,
		&staff.LastName,
		&staff.Role,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.StaffUser{}, ErrStaffNotFound
		}
		return models.StaffUser{}, err
	}
	return staff, nil
}
