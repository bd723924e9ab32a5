package pricing

// Money represents a monetary value stored in whole currency units.
type Money = int64

// Scope tells whether a discount belongs to one product line or the whole cart.
type Scope string

const (
	// ScopeItem marks a discount attributable to a single product line.
	ScopeItem Scope = "ITEM"
	// ScopeCart marks a discount attributable to the cart as a whole.
	ScopeCart Scope = "CART"
)

// AppliedDiscount records one rule that contributed to an evaluation.
type AppliedDiscount struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Amount   Money  `json:"discountAmount"`
	Scope    Scope  `json:"appliedTo"`
	ItemID   string `json:"itemId,omitempty"`
}

// Evaluation is the outcome of running both rule stages against a state.
type Evaluation struct {
	ItemDiscount  Money
	CartDiscount  Money
	TotalDiscount Money
	// AfterItems is the subtotal minus item-stage discounts, the basis the
	// cart stage compares thresholds against.
	AfterItems Money
	Applied    []AppliedDiscount
}

// State is the input of an evaluation: a catalog and scanned quantities.
type State struct {
	Catalog Catalog
	Counts  map[string]int
}

// Quantity returns the scanned quantity for a product id.
func (s State) Quantity(productID string) int {
	return s.Counts[productID]
}

// Subtotal sums price times quantity across scanned products known to the catalog.
func (s State) Subtotal() Money {
	var subtotal Money
	for id, qty := range s.Counts {
		if qty <= 0 {
			continue
		}
		product, ok := s.Catalog.Lookup(id)
		if !ok {
			continue
		}
		subtotal += Money(qty) * product.Price
	}
	return subtotal
}

// Evaluate runs the item stage, then the cart stage against the
// post-item-discount subtotal. It never mutates its inputs. Applied discounts
// are ordered item rules first, then cart rules, each in slice order.
func Evaluate(state State, items []ItemRule, carts []CartRule) Evaluation {
	var eval Evaluation
	for _, rule := range items {
		if !rule.Applicable(state) {
			continue
		}
		amount := rule.Apply(state)
		if amount <= 0 {
			continue
		}
		meta := rule.Meta()
		eval.ItemDiscount += amount
		eval.Applied = append(eval.Applied, AppliedDiscount{
			RuleID:   meta.ID,
			RuleName: meta.Name,
			Amount:   amount,
			Scope:    ScopeItem,
			ItemID:   rule.Target(),
		})
	}

	eval.AfterItems = state.Subtotal() - eval.ItemDiscount
	for _, rule := range carts {
		if !rule.Applicable(eval.AfterItems) {
			continue
		}
		amount := rule.Apply(eval.AfterItems)
		if amount <= 0 {
			continue
		}
		meta := rule.Meta()
		eval.CartDiscount += amount
		eval.Applied = append(eval.Applied, AppliedDiscount{
			RuleID:   meta.ID,
			RuleName: meta.Name,
			Amount:   amount,
			Scope:    ScopeCart,
		})
	}
	eval.TotalDiscount = eval.ItemDiscount + eval.CartDiscount
	return eval
}
