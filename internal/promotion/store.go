package promotion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/toko-promo/internal/db"
)

var (
	// ErrNotFound is returned when no rule has the requested id.
	ErrNotFound = errors.New("promotion not found")
	// ErrUnknownProduct is returned when a rule references a product outside the catalog.
	ErrUnknownProduct = errors.New("promotion references unknown product")
)

// Store persists promotion definitions.
type Store interface {
	ListDefinitions(ctx context.Context) ([]Definition, error)
	CreateDefinition(ctx context.Context, d Definition) (Definition, error)
	UpdateDefinition(ctx context.Context, d Definition) (Definition, error)
}

// PGStore is the Postgres Store.
type PGStore struct {
	DB db.DBTX
}

const definitionColumns = `id, name, type, product_id, min_quantity, min_total_amount,
	discount_value, bundle_price, is_active, priority, created_at, updated_at`

func scanDefinition(row pgx.Row) (Definition, error) {
	var d Definition
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.ProductID, &d.MinQuantity, &d.MinTotalAmount,
		&d.DiscountValue, &d.BundlePrice, &d.IsActive, &d.Priority, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s PGStore) ListDefinitions(ctx context.Context) ([]Definition, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+definitionColumns+` FROM promotion_rules ORDER BY priority, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()
	var out []Definition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const insertDefinition = `INSERT INTO promotion_rules
	(id, name, type, product_id, min_quantity, min_total_amount, discount_value, bundle_price, is_active, priority)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING ` + definitionColumns

func (s PGStore) CreateDefinition(ctx context.Context, d Definition) (Definition, error) {
	out, err := scanDefinition(s.DB.QueryRow(ctx, insertDefinition,
		d.ID, d.Name, d.Type, d.ProductID, d.MinQuantity, d.MinTotalAmount,
		d.DiscountValue, d.BundlePrice, d.IsActive, d.Priority))
	if db.IsForeignKeyViolation(err) {
		return Definition{}, ErrUnknownProduct
	}
	if err != nil {
		return Definition{}, fmt.Errorf("create promotion: %w", err)
	}
	return out, nil
}

const updateDefinition = `UPDATE promotion_rules SET
	name = $2, type = $3, product_id = $4, min_quantity = $5, min_total_amount = $6,
	discount_value = $7, bundle_price = $8, is_active = $9, priority = $10, updated_at = now()
	WHERE id = $1
	RETURNING ` + definitionColumns

func (s PGStore) UpdateDefinition(ctx context.Context, d Definition) (Definition, error) {
	out, err := scanDefinition(s.DB.QueryRow(ctx, updateDefinition,
		d.ID, d.Name, d.Type, d.ProductID, d.MinQuantity, d.MinTotalAmount,
		d.DiscountValue, d.BundlePrice, d.IsActive, d.Priority))
	switch {
	case db.IsNoRows(err):
		return Definition{}, ErrNotFound
	case db.IsForeignKeyViolation(err):
		return Definition{}, ErrUnknownProduct
	case err != nil:
		return Definition{}, fmt.Errorf("update promotion %s: %w", d.ID, err)
	}
	return out, nil
}
