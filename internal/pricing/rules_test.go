package pricing

import "testing"

func TestBundleApplyUnknownProduct(t *testing.T) {
	rule := NewBundleRule("Z", 2, 10)
	state := State{Catalog: NewCatalog(nil), Counts: map[string]int{"Z": 4}}
	if !rule.Applicable(state) {
		t.Fatal("expected applicability to depend on quantity only")
	}
	if got := rule.Apply(state); got != 0 {
		t.Fatalf("expected zero discount for unknown product, got %d", got)
	}
}

func TestBundleApplyUnderScanned(t *testing.T) {
	rule := NewBundleRule("A", 3, 85)
	state := State{
		Catalog: NewCatalog([]Product{{ID: "A", Price: 30}}),
		Counts:  map[string]int{"A": 2},
	}
	if rule.Applicable(state) {
		t.Fatal("expected rule to be inapplicable")
	}
	if got := rule.Apply(state); got != 0 {
		t.Fatalf("expected zero discount, got %d", got)
	}
}

func TestBundleRejectsZeroQuantity(t *testing.T) {
	rule := NewBundleRule("A", 0, 0)
	state := State{Catalog: NewCatalog([]Product{{ID: "A", Price: 30}}), Counts: map[string]int{"A": 5}}
	if rule.Applicable(state) || rule.Apply(state) != 0 {
		t.Fatal("expected zero-quantity bundle to never apply")
	}
}

func TestCartTotalApply(t *testing.T) {
	rule := NewCartTotalRule(150, 20)
	if got := rule.Apply(150); got != 0 {
		t.Fatalf("expected no discount at threshold, got %d", got)
	}
	if got := rule.Apply(151); got != 20 {
		t.Fatalf("expected 20 discount, got %d", got)
	}
}

func TestSplitRules(t *testing.T) {
	items, carts := SplitRules(DefaultRules())
	if len(items) != 2 || len(carts) != 1 {
		t.Fatalf("unexpected split: %d item rules, %d cart rules", len(items), len(carts))
	}
	if items[0].Target() != "A" || items[1].Target() != "B" {
		t.Fatalf("unexpected item rule order: %s, %s", items[0].Target(), items[1].Target())
	}
}
