package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/promotion"
)

type fakeProducts struct {
	items map[string]pricing.Product
}

func (f *fakeProducts) Create(_ context.Context, in catalog.CreateProductInput) (pricing.Product, error) {
	if _, ok := f.items[in.ID]; ok {
		return pricing.Product{}, common.Conflict("product "+in.ID+" already exists", fmt.Errorf("insert: %w", catalog.ErrDuplicateProduct))
	}
	p := pricing.Product{ID: in.ID, Name: in.Name, Price: *in.Price}
	f.items[in.ID] = p
	return p, nil
}

type fakePromotions struct {
	defs []promotion.Definition
}

func (f *fakePromotions) List(context.Context) ([]promotion.Definition, error) {
	return f.defs, nil
}

func (f *fakePromotions) Create(_ context.Context, in promotion.Input) (promotion.Definition, error) {
	d := promotion.Definition{ID: fmt.Sprintf("p-%d", len(f.defs)), Name: in.Name, Type: in.Type}
	f.defs = append(f.defs, d)
	return d, nil
}

func TestSeedInsertsStockData(t *testing.T) {
	products := &fakeProducts{items: map[string]pricing.Product{}}
	promos := &fakePromotions{}

	require.NoError(t, seed(context.Background(), zerolog.Nop(), products, promos))
	require.Len(t, products.items, 4)
	require.Equal(t, int64(50), products.items["C"].Price)
	require.Len(t, promos.defs, 3)
	require.Equal(t, promotion.TypeTotalBased, promos.defs[2].Type)
}

func TestSeedIsRepeatable(t *testing.T) {
	products := &fakeProducts{items: map[string]pricing.Product{"A": {ID: "A", Name: "Custom", Price: 99}}}
	promos := &fakePromotions{}

	require.NoError(t, seed(context.Background(), zerolog.Nop(), products, promos))
	require.NoError(t, seed(context.Background(), zerolog.Nop(), products, promos))
	require.Equal(t, int64(99), products.items["A"].Price)
	require.Len(t, promos.defs, 3)
}

func TestSeedWithoutPromotions(t *testing.T) {
	products := &fakeProducts{items: map[string]pricing.Product{}}
	require.NoError(t, seed(context.Background(), zerolog.Nop(), products, nil))
	require.Len(t, products.items, 4)
}
