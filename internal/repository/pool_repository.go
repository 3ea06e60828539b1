package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrPoolNotFound = errors.New("pool not found")

type PoolRepository struct {
	pool *pgxpool.Pool
}

func NewPoolRepository(pool *pgxpool.Pool) *PoolRepository {
	return &PoolRepository{pool: pool}
}

const poolColumns = `
	id, company_id, client_id, label, address, type, sanitizer, volume_gallons, service_weekday, notes, active, created_at, updated_at
`

func (r *PoolRepository) Create(ctx context.Context, p models.Pool) error {
	const query = `
		INSERT INTO pools (
			id, company_id, client_id, label, address, type, sanitizer, volume_gallons, service_weekday, notes, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.CompanyID,
		p.ClientID,
		p.Label,
		p.Address,
		p.Type,
		p.Sanitizer,
		p.VolumeGallons,
		int(p.ServiceWeekday),
		p.Notes,
		p.Active,
	)
	return err
}

func (r *PoolRepository) GetByID(ctx context.Context, companyID string, id string) (models.Pool, error) {
	const query = `
		SELECT ` + poolColumns + `
		FROM pools WHERE company_id = $1 AND id = $2
	`
	return scanPool(r.pool.QueryRow(ctx, query, companyID, id))
}

func (r *PoolRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Pool, error) {
	const query = `
		SELECT ` + poolColumns + `
		FROM pools
		WHERE company_id = $1
		ORDER BY label
	`
	return r.queryPools(ctx, query, companyID)
}

func (r *PoolRepository) ListByClient(ctx context.Context, companyID string, clientID string) ([]models.Pool, error) {
	const query = `
		SELECT ` + poolColumns + `
		FROM pools
		WHERE company_id = $1 AND client_id = $2
		ORDER BY label
	`
	return r.queryPools(ctx, query, companyID, clientID)
}

// ListActiveByWeekday feeds the visit-generation job: every active pool of
// every active company serviced on the given weekday.
func (r *PoolRepository) ListActiveByWeekday(ctx context.Context, weekday time.Weekday) ([]models.Pool, error) {
	const query = `
		SELECT ` + poolColumns + `
		FROM pools
		WHERE active = TRUE
		  AND service_weekday = $1
		  AND company_id IN (SELECT id FROM companies WHERE status = 'active')
		ORDER BY company_id, label
	`
	return r.queryPools(ctx, query, int(weekday))
}

func (r *PoolRepository) Update(ctx context.Context, p models.Pool) error {
	const query = `
		UPDATE pools
		SET label = $2, address = $3, type = $4, sanitizer = $5, volume_gallons = $6,
		    service_weekday = $7, notes = $8, active = $9, updated_at = NOW()
		WHERE id = $1 AND company_id = $10
	`
	cmd, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Label,
		p.Address,
		p.Type,
		p.Sanitizer,
		p.VolumeGallons,
		int(p.ServiceWeekday),
		p.Notes,
		p.Active,
		p.CompanyID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPoolNotFound
	}
	return nil
}

func (r *PoolRepository) queryPools(ctx context.Context, query string, args ...any) ([]models.Pool, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []models.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

func scanPool(row pgx.Row) (models.Pool, error) {
	var (
		p       models.Pool
		weekday int
	)
	if err := row.Scan(
		&p.ID,
		&p.CompanyID,
		&p.ClientID,
		&p.Label,
		&p.Address,
		&p.Type,
		&p.Sanitizer,
		&p.VolumeGallons,
		&weekday,
		&p.Notes,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Pool{}, ErrPoolNotFound
		}
		return models.Pool{}, err
	}
	p.ServiceWeekday = time.Weekday(weekday)
	return p, nil
}
