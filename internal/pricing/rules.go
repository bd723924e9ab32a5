package pricing

import (
	"cmp"
	"fmt"
	"slices"
)

// RuleMeta carries the identity shared by every discount rule.
type RuleMeta struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// Meta returns the rule identity.
func (m RuleMeta) Meta() RuleMeta { return m }

// Rule is implemented by every discount rule.
type Rule interface {
	Meta() RuleMeta
}

// ItemRule is evaluated in the item stage against the scanned quantities.
type ItemRule interface {
	Rule
	// Target is the product id the discount is attributed to.
	Target() string
	Applicable(state State) bool
	Apply(state State) Money
}

// CartRule is evaluated in the cart stage against a subtotal basis supplied
// by the caller.
type CartRule interface {
	Rule
	Applicable(basis Money) bool
	Apply(basis Money) Money
}

// BundleRule prices every complete group of Quantity units of a product at
// BundlePrice. Remainder units keep their unit price.
type BundleRule struct {
	RuleMeta
	ProductID   string
	Quantity    int
	BundlePrice Money
}

// NewBundleRule builds a bundle rule with the conventional identity and priority 1.
func NewBundleRule(productID string, quantity int, bundlePrice Money) BundleRule {
	return BundleRule{
		RuleMeta: RuleMeta{
			ID:       fmt.Sprintf("bundle:%s:%d", productID, quantity),
			Name:     fmt.Sprintf("%d of %s for Rs %d", quantity, productID, bundlePrice),
			Priority: 1,
		},
		ProductID:   productID,
		Quantity:    quantity,
		BundlePrice: bundlePrice,
	}
}

// Target implements ItemRule.
func (r BundleRule) Target() string { return r.ProductID }

// Applicable reports whether at least one full bundle has been scanned.
func (r BundleRule) Applicable(state State) bool {
	if r.Quantity < 1 {
		return false
	}
	return state.Quantity(r.ProductID) >= r.Quantity
}

// Apply returns the saving of all complete bundles, or zero when the product
// is unknown or under-scanned.
func (r BundleRule) Apply(state State) Money {
	if r.Quantity < 1 {
		return 0
	}
	product, ok := state.Catalog.Lookup(r.ProductID)
	if !ok {
		return 0
	}
	qty := state.Quantity(r.ProductID)
	if qty < r.Quantity {
		return 0
	}
	bundles := Money(qty / r.Quantity)
	return bundles * (Money(r.Quantity)*product.Price - r.BundlePrice)
}

// CartTotalRule takes Discount off the cart when the basis strictly exceeds MinAmount.
type CartTotalRule struct {
	RuleMeta
	MinAmount Money
	Discount  Money
}

// NewCartTotalRule builds a cart total rule with the conventional identity and priority 2.
func NewCartTotalRule(minAmount, discount Money) CartTotalRule {
	return CartTotalRule{
		RuleMeta: RuleMeta{
			ID:       fmt.Sprintf("cart-total:%d", minAmount),
			Name:     fmt.Sprintf("Rs %d off when total over Rs %d", discount, minAmount),
			Priority: 2,
		},
		MinAmount: minAmount,
		Discount:  discount,
	}
}

// Applicable reports basis > MinAmount. Equal to the threshold does not qualify.
func (r CartTotalRule) Applicable(basis Money) bool {
	return basis > r.MinAmount
}

// Apply returns the flat discount when applicable.
func (r CartTotalRule) Apply(basis Money) Money {
	if !r.Applicable(basis) || r.Discount < 0 {
		return 0
	}
	return r.Discount
}

// SplitRules separates a mixed rule list into the two stages, keeping the
// input order. Rules implementing neither stage are dropped.
func SplitRules(rules []Rule) ([]ItemRule, []CartRule) {
	var items []ItemRule
	var carts []CartRule
	for _, rule := range rules {
		switch r := rule.(type) {
		case ItemRule:
			items = append(items, r)
		case CartRule:
			carts = append(carts, r)
		}
	}
	return items, carts
}

// DefaultRules is the stock promotion set: 3 of A for 85, 2 of B for 35 and
// 20 off when the cart exceeds 150.
func DefaultRules() []Rule {
	return []Rule{
		NewBundleRule("A", 3, 85),
		NewBundleRule("B", 2, 35),
		NewCartTotalRule(150, 20),
	}
}

func sortByPriority[R Rule](rules []R) []R {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b R) int {
		return cmp.Compare(a.Meta().Priority, b.Meta().Priority)
	})
	return sorted
}
