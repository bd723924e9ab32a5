package promotion

import (
	"errors"
	"testing"

	"github.com/noah-isme/toko-promo/internal/pricing"
)

func TestInputDefaults(t *testing.T) {
	defaults := DefaultDefinitions()
	item := defaults[0].definition()
	if !item.IsActive || item.Priority != 1 {
		t.Fatalf("unexpected item defaults: active=%v priority=%d", item.IsActive, item.Priority)
	}
	cart := defaults[2].definition()
	if cart.Priority != 2 {
		t.Fatalf("expected cart rule priority 2, got %d", cart.Priority)
	}

	off := false
	prio := 7
	in := defaults[1]
	in.IsActive = &off
	in.Priority = &prio
	d := in.definition()
	if d.IsActive || d.Priority != 7 {
		t.Fatalf("explicit values not honoured: %+v", d)
	}
}

func TestTotalBasedDropsItemFields(t *testing.T) {
	product := "A"
	qty := 3
	minTotal := int64(100)
	d := Input{Name: "x", Type: TypeTotalBased, ProductID: &product, MinQuantity: &qty, MinTotalAmount: &minTotal}.definition()
	if d.ProductID != nil || d.MinQuantity != nil {
		t.Fatalf("expected item fields cleared, got %+v", d)
	}
}

func TestToRuleMatchesStockRules(t *testing.T) {
	var rules []pricing.Rule
	for i, in := range DefaultDefinitions() {
		d := in.definition()
		d.ID = string(rune('1' + i))
		rule, err := d.ToRule()
		if err != nil {
			t.Fatalf("to rule: %v", err)
		}
		rules = append(rules, rule)
	}

	products := []pricing.Product{
		{ID: "A", Name: "Product A", Price: 30},
		{ID: "B", Name: "Product B", Price: 20},
		{ID: "C", Name: "Product C", Price: 50},
		{ID: "D", Name: "Product D", Price: 15},
	}
	fromRecords := pricing.NewCheckoutFromRules(rules, products)
	stock := pricing.NewCheckoutFromRules(pricing.DefaultRules(), products)
	for _, id := range []string{"C", "B", "A", "A", "D", "A", "B"} {
		if err := fromRecords.Scan(id); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if err := stock.Scan(id); err != nil {
			t.Fatalf("scan: %v", err)
		}
	}
	if fromRecords.Total() != 165 || stock.Total() != 165 {
		t.Fatalf("expected 165 from both, got %d and %d", fromRecords.Total(), stock.Total())
	}
}

func TestToRuleRejectsIncompleteRecords(t *testing.T) {
	cases := []Definition{
		{ID: "q", Type: TypeQuantityBased},
		{ID: "t", Type: TypeTotalBased},
		{ID: "u", Type: "PERCENTAGE"},
	}
	for _, d := range cases {
		if _, err := d.ToRule(); !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("%s: expected ErrInvalidRule, got %v", d.ID, err)
		}
	}
}
