package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/toko-promo/internal/db"
	"github.com/noah-isme/toko-promo/internal/pricing"
)

var (
	// ErrProductNotFound is returned when no product has the requested id.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateProduct is returned when a product id is already taken.
	ErrDuplicateProduct = errors.New("product already exists")
)

// Store persists catalog products.
type Store interface {
	ListProducts(ctx context.Context) ([]pricing.Product, error)
	GetProduct(ctx context.Context, id string) (pricing.Product, error)
	CreateProduct(ctx context.Context, p pricing.Product) (pricing.Product, error)
}

// PGStore is the Postgres Store.
type PGStore struct {
	DB db.DBTX
}

const listProducts = `SELECT id, name, price FROM products ORDER BY id`

func (s PGStore) ListProducts(ctx context.Context) ([]pricing.Product, error) {
	rows, err := s.DB.Query(ctx, listProducts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []pricing.Product
	for rows.Next() {
		var p pricing.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const getProduct = `SELECT id, name, price FROM products WHERE id = $1`

func (s PGStore) GetProduct(ctx context.Context, id string) (pricing.Product, error) {
	var p pricing.Product
	err := s.DB.QueryRow(ctx, getProduct, id).Scan(&p.ID, &p.Name, &p.Price)
	if db.IsNoRows(err) {
		return pricing.Product{}, ErrProductNotFound
	}
	if err != nil {
		return pricing.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

const createProduct = `INSERT INTO products (id, name, price) VALUES ($1, $2, $3) RETURNING id, name, price`

func (s PGStore) CreateProduct(ctx context.Context, in pricing.Product) (pricing.Product, error) {
	var p pricing.Product
	err := s.DB.QueryRow(ctx, createProduct, in.ID, in.Name, in.Price).Scan(&p.ID, &p.Name, &p.Price)
	if db.IsUniqueViolation(err) {
		return pricing.Product{}, ErrDuplicateProduct
	}
	if err != nil {
		return pricing.Product{}, fmt.Errorf("create product %s: %w", in.ID, err)
	}
	return p, nil
}
