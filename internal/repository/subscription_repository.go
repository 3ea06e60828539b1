package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

const subscriptionColumns = `
	id, company_id, plan, status, current_period_end, created_at, updated_at
`

// Upsert keeps exactly one subscription row per company.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub models.Subscription) error {
	const query = `
		INSERT INTO subscriptions (
			id, company_id, plan, status, current_period_end, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW()
		)
		ON CONFLICT (company_id)
		DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.CompanyID,
		sub.Plan,
		sub.Status,
		sub.CurrentPeriodEnd,
	)
	return err
}

func (r *SubscriptionRepository) GetByCompany(ctx context.Context, companyID string) (models.Subscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions WHERE company_id = $1
	`
	return scanSubscription(r.pool.QueryRow(ctx, query, companyID))
}

func (r *SubscriptionRepository) List(ctx context.Context) ([]models.Subscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubscription(row pgx.Row) (models.Subscription, error) {
	var sub models.Subscription
	if err := row.Scan(
		&sub.ID,
		&sub.CompanyID,
		&sub.Plan,
		&sub.Status,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrSubscriptionNotFound
		}
		return models.Subscription{}, err
	}
	return sub, nil
}
