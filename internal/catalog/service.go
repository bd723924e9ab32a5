package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/pricing"
)

// Service serves the product catalog with a Redis read-through cache.
type Service struct {
	store  Store
	cache  *Cache
	logger zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Cache  *Cache
	Logger *zerolog.Logger
}

// CreateProductInput is the payload for POST /api/v1/products.
type CreateProductInput struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Price *int64 `json:"price" validate:"required,gte=0"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "catalog").Logger()
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, logger: logger}, nil
}

// List returns every product ordered by id.
func (s *Service) List(ctx context.Context) ([]pricing.Product, error) {
	var cached []pricing.Product
	ok, err := s.cache.GetJSON(ctx, productsCacheKey, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache read failed")
	}
	if ok {
		return cached, nil
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []pricing.Product{}
	}
	slices.SortFunc(products, func(a, b pricing.Product) int { return strings.Compare(a.ID, b.ID) })
	if err := s.cache.SetJSON(ctx, productsCacheKey, products); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache write failed")
	}
	return products, nil
}

// Get returns one product or a 404 AppError.
func (s *Service) Get(ctx context.Context, id string) (pricing.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, ErrProductNotFound) {
		return pricing.Product{}, common.NotFound("product "+id+" not found", err)
	}
	return p, err
}

// Create validates and stores a new product, then invalidates the listing cache.
func (s *Service) Create(ctx context.Context, in CreateProductInput) (pricing.Product, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if err := common.Validate(in); err != nil {
		return pricing.Product{}, err
	}
	p, err := s.store.CreateProduct(ctx, pricing.Product{ID: in.ID, Name: in.Name, Price: *in.Price})
	if errors.Is(err, ErrDuplicateProduct) {
		return pricing.Product{}, common.Conflict("product "+in.ID+" already exists", err)
	}
	if err != nil {
		return pricing.Product{}, err
	}
	if err := s.cache.Delete(ctx, productsCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
	s.logger.Info().Str("product_id", p.ID).Int64("price", p.Price).Msg("product created")
	return p, nil
}
