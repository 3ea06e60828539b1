package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var (
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

const itemColumns = `
	id, company_id, name, unit, quantity_on_hand, reorder_level, unit_cost_cents, created_at, updated_at
`

func (r *InventoryRepository) Create(ctx context.Context, item models.InventoryItem) error {
	const query = `
		INSERT INTO inventory_items (
			id, company_id, name, unit, quantity_on_hand, reorder_level, unit_cost_cents, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.CompanyID,
		item.Name,
		item.Unit,
		item.QuantityOnHand,
		item.ReorderLevel,
		item.UnitCostCents,
	)
	return err
}

func (r *InventoryRepository) GetByID(ctx context.Context, companyID string, id string) (models.InventoryItem, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM inventory_items WHERE company_id = $1 AND id = $2
	`
	return scanItem(r.pool.QueryRow(ctx, query, companyID, id))
}

func (r *InventoryRepository) ListByCompany(ctx context.Context, companyID string) ([]models.InventoryItem, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE company_id = $1
		ORDER BY name
	`
	return r.queryItems(ctx, query, companyID)
}

func (r *InventoryRepository) ListLowStock(ctx context.Context, companyID string) ([]models.InventoryItem, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE company_id = $1 AND quantity_on_hand <= reorder_level
		ORDER BY name
	`
	return r.queryItems(ctx, query, companyID)
}

func (r *InventoryRepository) Update(ctx context.Context, item models.InventoryItem) error {
	const query = `
		UPDATE inventory_items
		SET name = $2, unit = $3, reorder_level = $4, unit_cost_cents = $5, updated_at = NOW()
		WHERE id = $1 AND company_id = $6
	`
	cmd, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Unit,
		item.ReorderLevel,
		item.UnitCostCents,
		item.CompanyID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Adjust applies a signed delta to stock in one statement; negative results
// are rejected so completed visits cannot drive stock below zero.
func (r *InventoryRepository) Adjust(ctx context.Context, companyID string, id string, delta float64) error {
	const query = `
		UPDATE inventory_items
		SET quantity_on_hand = quantity_on_hand + $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND quantity_on_hand + $3 >= 0
	`
	cmd, err := r.pool.Exec(ctx, query, id, companyID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, companyID, id); getErr != nil {
			return getErr
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *InventoryRepository) queryItems(ctx context.Context, query string, args ...any) ([]models.InventoryItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (models.InventoryItem, error) {
	var item models.InventoryItem
	if err := row.Scan(
		&item.ID,
		&item.CompanyID,
		&item.Name,
		&item.Unit,
		&item.QuantityOnHand,
		&item.ReorderLevel,
		&item.UnitCostCents,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.InventoryItem{}, ErrItemNotFound
		}
		return models.InventoryItem{}, err
	}
	return item, nil
}
