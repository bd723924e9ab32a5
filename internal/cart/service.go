package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/lock"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/promotion"
)

// ProductGetter resolves a catalog product.
type ProductGetter interface {
	Get(ctx context.Context, id string) (pricing.Product, error)
}

// Pricer opens a pricing session with the active promotions.
type Pricer interface {
	NewCheckout(ctx context.Context) (*pricing.Checkout, error)
}

// Locker serialises work on a key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service encapsulates cart domain operations.
type Service struct {
	store    Store
	products ProductGetter
	pricer   Pricer
	locker   Locker
	lockTTL  time.Duration
	logger   zerolog.Logger
}

// ServiceConfig groups Service dependencies. Locker is optional.
type ServiceConfig struct {
	Store    Store
	Products ProductGetter
	Pricer   Pricer
	Locker   Locker
	LockTTL  time.Duration
	Logger   *zerolog.Logger
}

// MaxLineQuantity caps the units of one product in a cart. Pricing replays
// one scan per unit, so this bounds the work done under the cart lock.
const MaxLineQuantity = 1000

// AddItemInput is the payload for POST /api/v1/carts/{cartId}/items.
type AddItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitnil,gt=0,lte=1000"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("cart: store is required")
	case cfg.Products == nil:
		return nil, errors.New("cart: product getter is required")
	case cfg.Pricer == nil:
		return nil, errors.New("cart: pricer is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "cart").Logger()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Service{
		store:    cfg.Store,
		products: cfg.Products,
		pricer:   cfg.Pricer,
		locker:   cfg.Locker,
		lockTTL:  ttl,
		logger:   logger,
	}, nil
}

func startSpan(ctx context.Context, name, cartID string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("cart.Service").Start(ctx, "CartService."+name)
	if cartID != "" {
		span.SetAttributes(attribute.String("cart.id", cartID))
	}
	return ctx, span
}

func finish(span trace.Span, op string, err error) {
	if op != "" {
		obs.ObserveCartMutation(op, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create opens an empty cart.
func (s *Service) Create(ctx context.Context) (c Cart, err error) {
	ctx, span := startSpan(ctx, "Create", "")
	defer func() { finish(span, "create", err) }()

	c, err = s.store.CreateCart(ctx, uuid.NewString())
	if err != nil {
		return Cart{}, err
	}
	span.SetAttributes(attribute.String("cart.id", c.ID))
	s.logger.Info().Str("cart_id", c.ID).Msg("cart created")
	return c, nil
}

// Get returns the cart with its items.
func (s *Service) Get(ctx context.Context, cartID string) (Cart, error) {
	if !validID(cartID) {
		return Cart{}, notFound(ErrNotFound)
	}
	c, err := s.store.GetCart(ctx, cartID)
	if err != nil {
		return Cart{}, mapError(err)
	}
	return c, nil
}

// AddItem adds quantity units of a product, then reprices the cart. The
// returned line carries its recalculated discount.
func (s *Service) AddItem(ctx context.Context, cartID string, in AddItemInput) (item Item, err error) {
	ctx, span := startSpan(ctx, "AddItem", cartID)
	defer func() { finish(span, "add_item", err) }()

	if err := common.Validate(in); err != nil {
		return Item{}, err
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	span.SetAttributes(attribute.String("product.id", in.ProductID), attribute.Int("cart.item.quantity", qty))
	if !validID(cartID) {
		return Item{}, notFound(ErrNotFound)
	}

	err = s.withCart(ctx, cartID, func(ctx context.Context, st Store) error {
		current, err := st.GetCart(ctx, cartID)
		if err != nil {
			return err
		}
		product, err := s.products.Get(ctx, in.ProductID)
		if err != nil {
			return err
		}
		for _, it := range current.Items {
			if it.ProductID == product.ID && it.Quantity+qty > MaxLineQuantity {
				return common.BadRequest(fmt.Sprintf("quantity of %s cannot exceed %d", product.ID, MaxLineQuantity), nil)
			}
		}
		if _, err := st.UpsertItem(ctx, Item{
			ID:        uuid.NewString(),
			CartID:    cartID,
			ProductID: product.ID,
			Quantity:  qty,
			UnitPrice: product.Price,
		}); err != nil {
			return err
		}
		repriced, err := s.recalculate(ctx, st, cartID)
		if err != nil {
			return err
		}
		for _, it := range repriced.Items {
			if it.ProductID == product.ID {
				item = it
			}
		}
		return nil
	})
	if err != nil {
		return Item{}, mapError(err)
	}
	s.logger.Info().Str("cart_id", cartID).Str("product_id", item.ProductID).Int("quantity", item.Quantity).Msg("cart item added")
	return item, nil
}

// Summary prices the persisted cart.
func (s *Service) Summary(ctx context.Context, cartID string) (summary pricing.Summary, err error) {
	ctx, span := startSpan(ctx, "Summary", cartID)
	defer func() { finish(span, "", err) }()

	if !validID(cartID) {
		return pricing.Summary{}, notFound(ErrNotFound)
	}
	c, err := s.store.GetCart(ctx, cartID)
	if err != nil {
		return pricing.Summary{}, mapError(err)
	}
	summary, err = s.price(ctx, c)
	if err != nil {
		return pricing.Summary{}, mapError(err)
	}
	span.SetAttributes(attribute.Int64("cart.final_total", summary.FinalTotal))
	return summary, nil
}

// RemoveItem deletes the product line and reprices the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (err error) {
	ctx, span := startSpan(ctx, "RemoveItem", cartID)
	defer func() { finish(span, "remove_item", err) }()

	if !validID(cartID) {
		return notFound(ErrItemNotFound)
	}
	err = s.withCart(ctx, cartID, func(ctx context.Context, st Store) error {
		if _, err := st.GetCart(ctx, cartID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		removed, err := st.DeleteItem(ctx, cartID, productID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrItemNotFound
		}
		_, err = s.recalculate(ctx, st, cartID)
		return err
	})
	if err != nil {
		return mapError(err)
	}
	s.logger.Info().Str("cart_id", cartID).Str("product_id", productID).Msg("cart item removed")
	return nil
}

// Clear empties the cart and zeroes its totals. Clearing an unknown cart is a no-op.
func (s *Service) Clear(ctx context.Context, cartID string) (err error) {
	ctx, span := startSpan(ctx, "Clear", cartID)
	defer func() { finish(span, "clear", err) }()

	if !validID(cartID) {
		return nil
	}
	err = s.withCart(ctx, cartID, func(ctx context.Context, st Store) error {
		existed, err := st.ClearCart(ctx, cartID)
		if err != nil {
			return err
		}
		if existed {
			s.logger.Info().Str("cart_id", cartID).Msg("cart cleared")
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

// withCart runs fn in a transaction while holding the cart lock.
func (s *Service) withCart(ctx context.Context, cartID string, fn func(context.Context, Store) error) error {
	run := func(ctx context.Context) error {
		return s.store.InTx(ctx, func(st Store) error { return fn(ctx, st) })
	}
	if s.locker == nil {
		return run(ctx)
	}
	return s.locker.WithLock(ctx, lock.CartKey(cartID), s.lockTTL, run)
}

// recalculate prices the cart and writes aggregates and per-line discounts back.
func (s *Service) recalculate(ctx context.Context, st Store, cartID string) (Cart, error) {
	c, err := st.GetCart(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	summary, err := s.price(ctx, c)
	if err != nil {
		return Cart{}, err
	}
	totals := Totals{
		TotalPrice:    summary.Subtotal,
		TotalDiscount: summary.TotalDiscount,
		FinalPrice:    summary.FinalTotal,
	}
	lines := make(map[string]int64, len(c.Items))
	for _, it := range c.Items {
		lines[it.ProductID] = summary.DiscountFor(it.ProductID)
	}
	if err := st.SaveTotals(ctx, cartID, totals, lines); err != nil {
		return Cart{}, err
	}
	c.TotalPrice, c.TotalDiscount, c.FinalPrice = totals.TotalPrice, totals.TotalDiscount, totals.FinalPrice
	for i := range c.Items {
		c.Items[i].DiscountAmount = lines[c.Items[i].ProductID]
	}
	return c, nil
}

// price replays one scan per persisted unit.
func (s *Service) price(ctx context.Context, c Cart) (pricing.Summary, error) {
	co, err := s.pricer.NewCheckout(ctx)
	if err != nil {
		return pricing.Summary{}, err
	}
	for _, it := range c.Items {
		for range it.Quantity {
			if err := co.Scan(it.ProductID); err != nil {
				return pricing.Summary{}, fmt.Errorf("price cart %s: %w", c.ID, err)
			}
		}
	}
	summary := co.Summary()
	promotion.Observe(summary)
	return summary, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(err error) error {
	return common.NotFound(err.Error(), err)
}

func mapError(err error) error {
	switch {
	case common.IsAppError(err):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrItemNotFound), errors.Is(err, pricing.ErrUnknownProduct):
		return common.NotFound(rootMessage(err), err)
	case errors.Is(err, lock.ErrNotAcquired):
		return common.NewAppError("CART_BUSY", "cart is being updated, retry shortly", http.StatusConflict, err)
	default:
		return err
	}
}

func rootMessage(err error) string {
	var unknown *pricing.UnknownProductError
	if errors.As(err, &unknown) {
		return unknown.Error()
	}
	switch {
	case errors.Is(err, ErrItemNotFound):
		return ErrItemNotFound.Error()
	default:
		return ErrNotFound.Error()
	}
}
