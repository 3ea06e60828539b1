package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrVisitNotFound = errors.New("visit not found")

type VisitRepository struct {
	pool *pgxpool.Pool
}

func NewVisitRepository(pool *pgxpool.Pool) *VisitRepository {
	return &VisitRepository{pool: pool}
}

const visitColumns = `
	id, company_id, pool_id, technician_id, scheduled_for, started_at, completed_at, status,
	ph, chlorine_ppm, alkalinity_ppm, notes, photo_keys, created_at, updated_at
`

func (r *VisitRepository) Create(ctx context.Context, visit models.ServiceVisit) error {
	const query = `
		INSERT INTO service_visits (
			id, company_id, pool_id, technician_id, scheduled_for, started_at, completed_at, status,
			ph, chlorine_ppm, alkalinity_ppm, notes, photo_keys, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		visit.ID,
		visit.CompanyID,
		visit.PoolID,
		visit.TechnicianID,
		visit.ScheduledFor,
		visit.StartedAt,
		visit.CompletedAt,
		visit.Status,
		visit.Readings.PH,
		visit.Readings.ChlorinePPM,
		visit.Readings.AlkalinityPPM,
		visit.Notes,
		visit.PhotoKeys,
	)
	return err
}

func (r *VisitRepository) GetByID(ctx context.Context, companyID string, id string) (models.ServiceVisit, error) {
	const query = `
		SELECT ` + visitColumns + `
		FROM service_visits WHERE company_id = $1 AND id = $2
	`
	return scanVisit(r.pool.QueryRow(ctx, query, companyID, id))
}

func (r *VisitRepository) ListByCompany(ctx context.Context, companyID string, from time.Time, to time.Time, status models.VisitStatus) ([]models.ServiceVisit, error) {
	const query = `
		SELECT ` + visitColumns + `
		FROM service_visits
		WHERE company_id = $1
		  AND scheduled_for >= $2 AND scheduled_for < $3
		  AND ($4 = '' OR status = $4)
		ORDER BY scheduled_for
	`
	return r.queryVisits(ctx, query, companyID, from, to, string(status))
}

// ListByTechnicianOnDate is the technician route view: the day's visits in
// schedule order.
func (r *VisitRepository) ListByTechnicianOnDate(ctx context.Context, technicianID string, day time.Time) ([]models.ServiceVisit, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	const query = `
		SELECT ` + visitColumns + `
		FROM service_visits
		WHERE technician_id = $1
		  AND scheduled_for >= $2 AND scheduled_for < $3
		ORDER BY scheduled_for
	`
	return r.queryVisits(ctx, query, technicianID, start, end)
}

func (r *VisitRepository) ListByPool(ctx context.Context, companyID string, poolID string, limit int) ([]models.ServiceVisit, error) {
	const query = `
		SELECT ` + visitColumns + `
		FROM service_visits
		WHERE company_id = $1 AND pool_id = $2
		ORDER BY scheduled_for DESC
		LIMIT $3
	`
	return r.queryVisits(ctx, query, companyID, poolID, limit)
}

// ListByClient serves the client portal's visit history across all of the
// client's pools.
func (r *VisitRepository) ListByClient(ctx context.Context, companyID string, clientID string, limit int) ([]models.ServiceVisit, error) {
	const query = `
		SELECT ` + visitColumnsPrefixed + `
		FROM service_visits v
		JOIN pools p ON p.id = v.pool_id
		WHERE v.company_id = $1 AND p.client_id = $2
		ORDER BY v.scheduled_for DESC
		LIMIT $3
	`
	return r.queryVisits(ctx, query, companyID, clientID, limit)
}

const visitColumnsPrefixed = `
	v.id, v.company_id, v.pool_id, v.technician_id, v.scheduled_for, v.started_at, v.completed_at, v.status,
	v.ph, v.chlorine_ppm, v.alkalinity_ppm, v.notes, v.photo_keys, v.created_at, v.updated_at
`

// ExistsForPoolOnDate keeps the nightly generator idempotent.
func (r *VisitRepository) ExistsForPoolOnDate(ctx context.Context, poolID string, day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	const query = `
		SELECT EXISTS (
			SELECT 1 FROM service_visits
			WHERE pool_id = $1 AND scheduled_for >= $2 AND scheduled_for < $3
		)
	`
	row := r.pool.QueryRow(ctx, query, poolID, start, end)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *VisitRepository) Update(ctx context.Context, visit models.ServiceVisit) error {
	const query = `
		UPDATE service_visits
		SET technician_id = $2, scheduled_for = $3, started_at = $4, completed_at = $5, status = $6,
		    ph = $7, chlorine_ppm = $8, alkalinity_ppm = $9, notes = $10, photo_keys = $11, updated_at = NOW()
		WHERE id = $1 AND company_id = $12
	`
	cmd, err := r.pool.Exec(ctx, query,
		visit.ID,
		visit.TechnicianID,
		visit.ScheduledFor,
		visit.StartedAt,
		visit.CompletedAt,
		visit.Status,
		visit.Readings.PH,
		visit.Readings.ChlorinePPM,
		visit.Readings.AlkalinityPPM,
		visit.Notes,
		visit.PhotoKeys,
		visit.CompanyID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVisitNotFound
	}
	return nil
}

func (r *VisitRepository) AddChemicalUsage(ctx context.Context, usage models.ChemicalUsage) error {
	const query = `
		INSERT INTO visit_chemicals (visit_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (visit_id, item_id)
		DO UPDATE SET quantity = visit_chemicals.quantity + EXCLUDED.quantity
	`
	_, err := r.pool.Exec(ctx, query, usage.VisitID, usage.ItemID, usage.Quantity)
	return err
}

func (r *VisitRepository) ListChemicalUsage(ctx context.Context, visitID string) ([]models.ChemicalUsage, error) {
	const query = `
		SELECT visit_id, item_id, quantity
		FROM visit_chemicals
		WHERE visit_id = $1
	`
	rows, err := r.pool.Query(ctx, query, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []models.ChemicalUsage
	for rows.Next() {
		var usage models.ChemicalUsage
		if err := rows.Scan(&usage.VisitID, &usage.ItemID, &usage.Quantity); err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	return usages, rows.Err()
}

func (r *VisitRepository) CountByStatusBetween(ctx context.Context, companyID string, status models.VisitStatus, from time.Time, to time.Time) (int, error) {
	const query = `
		SELECT COUNT(*) FROM service_visits
		WHERE company_id = $1 AND status = $2
		  AND scheduled_for >= $3 AND scheduled_for < $4
	`
	row := r.pool.QueryRow(ctx, query, companyID, status, from, to)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *VisitRepository) queryVisits(ctx context.Context, query string, args ...any) ([]models.ServiceVisit, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []models.ServiceVisit
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}

func scanVisit(row pgx.Row) (models.ServiceVisit, error) {
	var visit models.ServiceVisit
	if err := row.Scan(
		&visit.ID,
		&visit.CompanyID,
		&visit.PoolID,
		&visit.TechnicianID,
		&visit.ScheduledFor,
		&visit.StartedAt,
		&visit.CompletedAt,
		&visit.Status,
		&visit.Readings.PH,
		&visit.Readings.ChlorinePPM,
		&visit.Readings.AlkalinityPPM,
		&visit.Notes,
		&visit.PhotoKeys,
		&visit.CreatedAt,
		&visit.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ServiceVisit{}, ErrVisitNotFound
		}
		return models.ServiceVisit{}, err
	}
	return visit, nil
}
