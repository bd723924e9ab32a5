package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/toko-promo/internal/db"
)

var (
	// ErrNotFound indicates the requested cart could not be located.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound indicates the product has no line in the cart.
	ErrItemNotFound = errors.New("item not found in cart")
)

// Cart is a persisted cart with its line items.
type Cart struct {
	ID            string    `json:"id"`
	TotalPrice    int64     `json:"totalPrice"`
	TotalDiscount int64     `json:"totalDiscount"`
	FinalPrice    int64     `json:"finalPrice"`
	Items         []Item    `json:"items"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Item is one product line of a cart. UnitPrice is captured when the line is created.
type Item struct {
	ID             string    `json:"id"`
	CartID         string    `json:"cartId"`
	ProductID      string    `json:"productId"`
	Quantity       int       `json:"quantity"`
	UnitPrice      int64     `json:"unitPrice"`
	TotalPrice     int64     `json:"totalPrice"`
	DiscountAmount int64     `json:"discountAmount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Totals are the cart-level aggregates written back after pricing.
type Totals struct {
	TotalPrice    int64
	TotalDiscount int64
	FinalPrice    int64
}

// Store persists carts and their items.
type Store interface {
	// InTx runs fn against a transactional view of the store.
	InTx(ctx context.Context, fn func(Store) error) error
	CreateCart(ctx context.Context, id string) (Cart, error)
	// GetCart returns the cart with items ordered by insertion.
	GetCart(ctx context.Context, id string) (Cart, error)
	// UpsertItem inserts a line or increments an existing one, keeping its unit price.
	UpsertItem(ctx context.Context, item Item) (Item, error)
	DeleteItem(ctx context.Context, cartID, productID string) (bool, error)
	// ClearCart removes all items and zeroes totals. It reports whether the cart exists.
	ClearCart(ctx context.Context, cartID string) (bool, error)
	SaveTotals(ctx context.Context, cartID string, totals Totals, lineDiscounts map[string]int64) error
}

// PGStore is the Postgres Store.
type PGStore struct {
	DB db.DBTX
}

func (s PGStore) InTx(ctx context.Context, fn func(Store) error) error {
	beginner, ok := s.DB.(db.TxBeginner)
	if !ok {
		return fn(s)
	}
	return db.InTx(ctx, beginner, func(tx db.DBTX) error {
		return fn(PGStore{DB: tx})
	})
}

const cartColumns = `id, total_price, total_discount, final_price, created_at, updated_at`

const itemColumns = `id, cart_id, product_id, quantity, unit_price, total_price, discount_amount, created_at, updated_at`

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.TotalPrice, &c.TotalDiscount, &c.FinalPrice, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice,
		&it.DiscountAmount, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (s PGStore) CreateCart(ctx context.Context, id string) (Cart, error) {
	c, err := scanCart(s.DB.QueryRow(ctx, `INSERT INTO carts (id) VALUES ($1) RETURNING `+cartColumns, id))
	if err != nil {
		return Cart{}, fmt.Errorf("create cart: %w", err)
	}
	c.Items = []Item{}
	return c, nil
}

func (s PGStore) GetCart(ctx context.Context, id string) (Cart, error) {
	c, err := scanCart(s.DB.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Cart{}, ErrNotFound
	}
	if err != nil {
		return Cart{}, fmt.Errorf("get cart %s: %w", id, err)
	}
	rows, err := s.DB.Query(ctx, `SELECT `+itemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	c.Items = []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

const upsertItem = `INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, total_price)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (cart_id, product_id) DO UPDATE SET
		quantity = cart_items.quantity + EXCLUDED.quantity,
		total_price = (cart_items.quantity + EXCLUDED.quantity) * cart_items.unit_price,
		updated_at = now()
	RETURNING ` + itemColumns

func (s PGStore) UpsertItem(ctx context.Context, in Item) (Item, error) {
	it, err := scanItem(s.DB.QueryRow(ctx, upsertItem,
		in.ID, in.CartID, in.ProductID, in.Quantity, in.UnitPrice, int64(in.Quantity)*in.UnitPrice))
	if err != nil {
		return Item{}, fmt.Errorf("upsert cart item: %w", err)
	}
	return it, nil
}

func (s PGStore) DeleteItem(ctx context.Context, cartID, productID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s PGStore) ClearCart(ctx context.Context, cartID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `UPDATE carts SET total_price = 0, total_discount = 0, final_price = 0, updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return false, fmt.Errorf("reset cart totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return false, fmt.Errorf("clear cart items: %w", err)
	}
	return true, nil
}

func (s PGStore) SaveTotals(ctx context.Context, cartID string, totals Totals, lineDiscounts map[string]int64) error {
	batch := &pgx.Batch{}
	batch.Queue(`UPDATE carts SET total_price = $2, total_discount = $3, final_price = $4, updated_at = now() WHERE id = $1`,
		cartID, totals.TotalPrice, totals.TotalDiscount, totals.FinalPrice)
	for productID, discount := range lineDiscounts {
		batch.Queue(`UPDATE cart_items SET discount_amount = $3, updated_at = now() WHERE cart_id = $1 AND product_id = $2`,
			cartID, productID, discount)
	}
	results := s.DB.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("save cart totals: %w", err)
		}
	}
	return results.Close()
}
