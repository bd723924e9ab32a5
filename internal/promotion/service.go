package promotion

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/pricing"
)

// ProductLister provides the live catalog.
type ProductLister interface {
	List(ctx context.Context) ([]pricing.Product, error)
}

// Service manages promotion definitions and resolves the active rule set.
type Service struct {
	store    Store
	products ProductLister
	logger   zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store    Store
	Products ProductLister
	Logger   *zerolog.Logger
}

// PreviewInput is the payload for POST /api/v1/promotions/preview.
type PreviewInput struct {
	Items []string `json:"items" validate:"dive,required"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("promotion: store is required")
	}
	if cfg.Products == nil {
		return nil, errors.New("promotion: product lister is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "promotion").Logger()
	}
	return &Service{store: cfg.Store, products: cfg.Products, logger: logger}, nil
}

// List returns every stored definition.
func (s *Service) List(ctx context.Context) ([]Definition, error) {
	defs, err := s.store.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	if defs == nil {
		defs = []Definition{}
	}
	return defs, nil
}

// Create validates and stores a new definition.
func (s *Service) Create(ctx context.Context, in Input) (Definition, error) {
	if err := common.Validate(in); err != nil {
		return Definition{}, err
	}
	d := in.definition()
	d.ID = uuid.NewString()
	created, err := s.store.CreateDefinition(ctx, d)
	if err != nil {
		return Definition{}, mapStoreError(err, d.ID)
	}
	s.logger.Info().Str("promotion_id", created.ID).Str("type", created.Type).Msg("promotion created")
	return created, nil
}

// Update replaces the definition with the given id.
func (s *Service) Update(ctx context.Context, id string, in Input) (Definition, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Definition{}, common.NotFound("promotion "+id+" not found", ErrNotFound)
	}
	if err := common.Validate(in); err != nil {
		return Definition{}, err
	}
	d := in.definition()
	d.ID = id
	updated, err := s.store.UpdateDefinition(ctx, d)
	if err != nil {
		return Definition{}, mapStoreError(err, id)
	}
	s.logger.Info().Str("promotion_id", id).Bool("active", updated.IsActive).Msg("promotion updated")
	return updated, nil
}

// ActiveRules resolves the rules used for pricing. An empty table yields the
// stock rule set; otherwise only active rows apply.
func (s *Service) ActiveRules(ctx context.Context) ([]pricing.Rule, error) {
	defs, err := s.store.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return pricing.DefaultRules(), nil
	}
	rules := make([]pricing.Rule, 0, len(defs))
	for _, d := range defs {
		if !d.IsActive {
			continue
		}
		rule, err := d.ToRule()
		if err != nil {
			s.logger.Warn().Err(err).Str("promotion_id", d.ID).Msg("skipping malformed promotion")
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// NewCheckout opens a pricing session over the live catalog and active rules.
func (s *Service) NewCheckout(ctx context.Context) (*pricing.Checkout, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	return pricing.NewCheckoutFromRules(rules, products), nil
}

// Preview prices a list of scans without touching any cart.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (pricing.Summary, error) {
	ctx, span := otel.Tracer("promotion.Service").Start(ctx, "PromotionService.Preview")
	defer span.End()
	span.SetAttributes(attribute.Int("promotion.preview.scans", len(in.Items)))

	if err := common.Validate(in); err != nil {
		return pricing.Summary{}, err
	}
	co, err := s.NewCheckout(ctx)
	if err != nil {
		return pricing.Summary{}, err
	}
	for _, id := range in.Items {
		if err := co.Scan(id); err != nil {
			return pricing.Summary{}, common.BadRequest(err.Error(), err)
		}
	}
	summary := co.Summary()
	span.SetAttributes(attribute.Int64("promotion.preview.discount", summary.TotalDiscount))
	return summary, nil
}

// Observe records pricing metrics for a computed summary.
func Observe(summary pricing.Summary) {
	obs.ObserveEvaluation(len(summary.AppliedDiscounts) > 0)
	for _, d := range summary.AppliedDiscounts {
		obs.ObserveDiscount(string(d.Scope), d.Amount)
	}
}

func mapStoreError(err error, id string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFound("promotion "+id+" not found", err)
	case errors.Is(err, ErrUnknownProduct):
		return common.BadRequest("productId references an unknown product", err)
	default:
		return err
	}
}
