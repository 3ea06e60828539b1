package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrPlatformAdminNotFound = errors.New("platform admin not found")

type PlatformAdminRepository struct {
	pool *pgxpool.Pool
}

func NewPlatformAdminRepository(pool *pgxpool.Pool) *PlatformAdminRepository {
	return &PlatformAdminRepository{pool: pool}
}

func (r *PlatformAdminRepository) Create(ctx context.Context, admin models.PlatformAdmin) error {
	const query = `
		INSERT INTO platform_admins (
			id, email, password_hash, first_name, last_name, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		admin.ID,
		admin.Email,
		admin.PasswordHash,
		admin.FirstName,
		admin.LastName,
	)
	return err
}

func (r *PlatformAdminRepository) FindByEmail(ctx context.Context, email string) (models.PlatformAdmin, error) {
	const query = `
		SELECT id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM platform_admins WHERE email = $1
	`
	return scanPlatformAdmin(r.pool.QueryRow(ctx, query, email))
}

func (r *PlatformAdminRepository) GetByID(ctx context.Context, id string) (models.PlatformAdmin, error) {
	const query = `
		SELECT id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM platform_admins WHERE id = $1
	`
	return scanPlatformAdmin(r.pool.QueryRow(ctx, query, id))
}

func scanPlatformAdmin(row pgx.Row) (models.PlatformAdmin, error) {
	var admin models.PlatformAdmin
	if err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.FirstName,
		&admin.LastName,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PlatformAdmin{}, ErrPlatformAdminNotFound
		}
		return models.PlatformAdmin{}, err
	}
	return admin, nil
}
