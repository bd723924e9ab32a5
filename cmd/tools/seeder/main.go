package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/config"
	"github.com/noah-isme/toko-promo/internal/db"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/promotion"
)

type productCreator interface {
	Create(ctx context.Context, in catalog.CreateProductInput) (pricing.Product, error)
}

type promotionWriter interface {
	List(ctx context.Context) ([]promotion.Definition, error)
	Create(ctx context.Context, in promotion.Input) (promotion.Definition, error)
}

type seedProduct struct {
	ID    string
	Name  string
	Price int64
}

var stockProducts = []seedProduct{
	{"A", "Product A", 30},
	{"B", "Product B", 20},
	{"C", "Product C", 50},
	{"D", "Product D", 15},
}

func main() {
	skipPromotions := flag.Bool("skip-promotions", false, "seed products only")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", cfg.LogLevel)

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, "toko-promo-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{Store: catalog.PGStore{DB: pool}, Logger: &logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	var promos promotionWriter
	if !*skipPromotions {
		promos, err = promotion.NewService(promotion.ServiceConfig{
			Store:    promotion.PGStore{DB: pool},
			Products: catalogSvc,
			Logger:   &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise promotion service")
		}
	}

	if err := seed(ctx, logger, catalogSvc, promos); err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	logger.Info().Msg("seeding completed")
}

// seed inserts the stock products, skipping ids that already exist, and the
// stock promotions when no promotion has been defined yet. promos may be nil.
func seed(ctx context.Context, logger zerolog.Logger, products productCreator, promos promotionWriter) error {
	for _, p := range stockProducts {
		price := p.Price
		_, err := products.Create(ctx, catalog.CreateProductInput{ID: p.ID, Name: p.Name, Price: &price})
		if errors.Is(err, catalog.ErrDuplicateProduct) {
			logger.Info().Str("product_id", p.ID).Msg("product exists, skipping")
			continue
		}
		if err != nil {
			return err
		}
	}

	if promos == nil {
		return nil
	}
	existing, err := promos.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Int("count", len(existing)).Msg("promotions already defined, skipping")
		return nil
	}
	for _, in := range promotion.DefaultDefinitions() {
		if _, err := promos.Create(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
